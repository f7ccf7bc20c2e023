package repositories

import (
	"context"
	"sync"
	"time"
)

type resetCode struct {
	code      string
	expiresAt time.Time
	attempts  int
}

// MockResetCodeRepository is an in-memory implementation of ResetCodeRepository.
type MockResetCodeRepository struct {
	codes map[string]resetCode
	mu    sync.Mutex
	now   func() time.Time
}

// NewMockResetCodeRepository creates a new instance of MockResetCodeRepository.
func NewMockResetCodeRepository() *MockResetCodeRepository {
	return &MockResetCodeRepository{
		codes: make(map[string]resetCode),
		now:   time.Now,
	}
}

// Save stores code for email until ttl elapses.
func (r *MockResetCodeRepository) Save(_ context.Context, email, code string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.codes[email] = resetCode{code: code, expiresAt: r.now().Add(ttl)}
	return nil
}

// Consume removes the code when it matches and has not expired.
func (r *MockResetCodeRepository) Consume(_ context.Context, email, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.codes[email]
	if !ok {
		return false, nil
	}
	if !r.now().Before(stored.expiresAt) {
		delete(r.codes, email)
		return false, nil
	}
	if stored.code != code {
		stored.attempts++
		if stored.attempts >= MaxResetCodeAttempts {
			delete(r.codes, email)
		} else {
			r.codes[email] = stored
		}
		return false, nil
	}
	delete(r.codes, email)
	return true, nil
}
