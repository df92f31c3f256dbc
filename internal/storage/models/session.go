// Package models contains the records persisted by the storage layer.
package models

import "time"

// SessionRecord is the persisted form of an authenticated browser session.
// Token is plaintext here; storage implementations encrypt it at rest.
type SessionRecord struct {
	ID        string    `json:"id"`
	Token     string    `json:"-"`
	UserID    string    `json:"user_id,omitempty"`
	Broker    string    `json:"broker,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired checks whether the record is past its expiry time.
func (r *SessionRecord) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}
