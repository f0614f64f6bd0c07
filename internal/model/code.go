package model

import "time"

// VerificationCode links a one-time emailed code to a user. The same entity
// backs both email verification and password reset; a code is valid until it
// is consumed, and consumption deletes the row.
type VerificationCode struct {
	ID        int64
	Code      string
	UserID    int64
	CreatedAt time.Time
}
