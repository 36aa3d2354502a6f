package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionTTL is the fixed lifetime of a session, measured from its creation.
const SessionTTL = 30 * 24 * time.Hour

type SessionState string

const (
	SessionActive  SessionState = "active"
	SessionExpired SessionState = "expired"
	SessionRevoked SessionState = "revoked"
)

// Session rows are never deleted; revoked and expired rows stay for audit.
type Session struct {
	ID        uuid.UUID  `gorm:"type:varchar(36);primaryKey" json:"-"`
	ReaderID  uint       `gorm:"index;not null" json:"reader_id"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	ExpiresAt time.Time  `gorm:"index;not null" json:"expires_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at,omitempty"`
}

// StateAt derives the session state from its timestamps. Revocation takes
// precedence over expiry.
func (s *Session) StateAt(now time.Time) SessionState {
	if s.RevokedAt != nil {
		return SessionRevoked
	}
	if !now.Before(s.ExpiresAt) {
		return SessionExpired
	}
	return SessionActive
}

func (s *Session) Token() string {
	return s.ID.String()
}
