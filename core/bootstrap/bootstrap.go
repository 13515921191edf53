// Package bootstrap initializes the shared infrastructure in order: logger,
// database connection, migrations.
package bootstrap

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	coreconfig "actubot/core/config"
	coredatabase "actubot/core/database"
	"actubot/core/logger"
)

// Run wires the ambient infrastructure and returns the live database handle.
// The caller owns the returned connection.
func Run(cfg *coreconfig.Config, db coredatabase.Config) (*sqlx.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	if err := logger.InitLogger(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	conn, err := coredatabase.Connect(db)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	if err := coredatabase.RunMigrations(db); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	return conn, nil
}
