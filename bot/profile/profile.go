// Package profile owns the durable user profile rows collected by the
// onboarding dialog. A profile is written exactly once, atomically, when the
// dialog completes; partial progress never reaches this table.
package profile

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"actubot/bot/turn"
)

// ErrNotFound reports that no profile row exists for the user. It is an
// expected, user-visible condition, not a failure.
var ErrNotFound = errors.New("profile: not found")

// AgeNotGiven is the sentinel stored when the user declines to give an age.
const AgeNotGiven = -1

// Transport choices offered by the onboarding dialog.
const (
	TransportCar  = "Voiture"
	TransportBus  = "Bus"
	TransportBike = "Vélo/trotinette"
)

// TransportChoices lists the valid transport answers in prompt order.
func TransportChoices() []string {
	return []string{TransportCar, TransportBus, TransportBike}
}

// Picture is an attachment reference stored as a JSONB column.
type Picture turn.Attachment

// Value implements driver.Valuer for JSONB storage.
func (p Picture) Value() (driver.Value, error) {
	return json.Marshal(turn.Attachment(p))
}

// Scan implements sql.Scanner for JSONB storage.
func (p *Picture) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = Picture{}
		return nil
	case []byte:
		return json.Unmarshal(v, (*turn.Attachment)(p))
	case string:
		return json.Unmarshal([]byte(v), (*turn.Attachment)(p))
	default:
		return fmt.Errorf("profile: unsupported picture column type %T", src)
	}
}

// Profile is one committed onboarding record per user identity.
type Profile struct {
	UserID    string    `db:"user_id"`
	Name      string    `db:"name"`
	Age       int       `db:"age"`
	City      string    `db:"city"`
	Transport string    `db:"transport"`
	Picture   *Picture  `db:"picture"`
	CreatedAt time.Time `db:"created_at"`
}

// HasAge reports whether the user gave an age during onboarding.
func (p *Profile) HasAge() bool {
	return p.Age != AgeNotGiven
}

// PictureAttachment returns the stored picture, if any.
func (p *Profile) PictureAttachment() (turn.Attachment, bool) {
	if p.Picture == nil || (p.Picture.ContentURL == "" && p.Picture.ContentType == "") {
		return turn.Attachment{}, false
	}
	return turn.Attachment(*p.Picture), true
}
