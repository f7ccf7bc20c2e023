package repositories

import (
	"context"
	"time"
)

// MaxResetCodeAttempts is how many wrong guesses a reset code survives. The
// code is discarded on the last one.
const MaxResetCodeAttempts = 5

// ResetCodeRepository stores single-use password reset codes keyed by email.
type ResetCodeRepository interface {
	// Save stores code for email, replacing any previous code and its
	// failed attempts.
	Save(ctx context.Context, email, code string, ttl time.Duration) error
	// Consume reports whether code is the live code for email and, if so,
	// removes it. Check and removal are atomic, so a code is redeemed at
	// most once. A wrong code counts as a failed attempt.
	Consume(ctx context.Context, email, code string) (bool, error)
}
