package identity

import (
	"time"

	scratch "github.com/goliatone/go-scratch"
	"github.com/google/uuid"
)

var _ scratch.Session = &SessionObject{}

// SessionObject is the session restored from a cookie
type SessionObject struct {
	ID             string         `json:"id,omitempty"`
	UserID         string         `json:"user_id,omitempty"`
	Issuer         string         `json:"issuer,omitempty"`
	IssuedAt       *time.Time     `json:"issued_at,omitempty"`
	ExpirationDate *time.Time     `json:"expiration_date,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetExpiresAt() *time.Time {
	return s.ExpirationDate
}

func (s *SessionObject) GetData() map[string]any {
	return s.Data
}

func sessionFromClaims(claims *Claims) *SessionObject {
	s := &SessionObject{
		ID:     claims.ID,
		UserID: claims.UID,
		Issuer: claims.Issuer,
		Data:   map[string]any{"session_id": claims.ID},
	}
	if claims.IssuedAt != nil {
		t := claims.IssuedAt.Time
		s.IssuedAt = &t
	}
	if claims.ExpiresAt != nil {
		t := claims.ExpiresAt.Time
		s.ExpirationDate = &t
	}
	return s
}
