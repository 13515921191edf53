package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"actubot/core/logger"
)

// Repository persists profiles in Postgres. Rows are keyed by user id, so
// concurrent turns for different users never interfere.
type Repository struct {
	db *sqlx.DB
}

// NewRepository wraps the shared database handle.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Get loads the profile for a user id, or ErrNotFound.
func (r *Repository) Get(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	start := time.Now()
	err := r.db.GetContext(ctx, &p,
		`SELECT user_id, name, age, city, transport, picture, created_at
		   FROM profiles WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.Error(ctx, "db", "profile.get",
			slog.String("status", "fail"),
			slog.String("user_id", userID),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("profile: get %s: %w", userID, err)
	}
	logger.Debug(ctx, "db", "profile.get",
		slog.String("status", "ok"),
		slog.String("user_id", userID),
		slog.Duration("duration", logger.RoundMS(logger.Took(start))),
	)
	return &p, nil
}

// Save commits the profile in a single statement. A second onboarding run for
// the same user replaces the previous row.
func (r *Repository) Save(ctx context.Context, p *Profile) error {
	start := time.Now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, name, age, city, transport, picture)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE
		   SET name = EXCLUDED.name,
		       age = EXCLUDED.age,
		       city = EXCLUDED.city,
		       transport = EXCLUDED.transport,
		       picture = EXCLUDED.picture`,
		p.UserID, p.Name, p.Age, p.City, p.Transport, p.Picture)
	if err != nil {
		logger.Error(ctx, "db", "profile.save",
			slog.String("status", "fail"),
			slog.String("user_id", p.UserID),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("profile: save %s: %w", p.UserID, err)
	}
	logger.Info(ctx, "db", "profile.save",
		slog.String("status", "ok"),
		slog.String("user_id", p.UserID),
		slog.Duration("duration", logger.RoundMS(logger.Took(start))),
	)
	return nil
}

// Delete removes the profile row. It reports whether a row existed.
func (r *Repository) Delete(ctx context.Context, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		logger.Error(ctx, "db", "profile.delete",
			slog.String("status", "fail"),
			slog.String("user_id", userID),
			slog.String("err", err.Error()),
		)
		return false, fmt.Errorf("profile: delete %s: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("profile: delete %s: %w", userID, err)
	}
	logger.Info(ctx, "db", "profile.delete",
		slog.String("status", "ok"),
		slog.String("user_id", userID),
		slog.Bool("existed", affected > 0),
	)
	return affected > 0, nil
}
