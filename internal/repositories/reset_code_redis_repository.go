package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key prefixes for password reset codes and their failed attempts.
const (
	ResetCodeKeyPrefix     = "reset_code:"
	ResetAttemptsKeyPrefix = "reset_code_attempts:"
)

// consumeScript compares and deletes in one step. A mismatch bumps the
// attempts counter, which expires with the code, and burns the code once
// ARGV[2] attempts have failed.
var consumeScript = redis.NewScript(`
local stored = redis.call('GET', KEYS[1])
if not stored then
	return 0
end
if stored == ARGV[1] then
	redis.call('DEL', KEYS[1], KEYS[2])
	return 1
end
local attempts = redis.call('INCR', KEYS[2])
if attempts == 1 then
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl > 0 then
		redis.call('PEXPIRE', KEYS[2], ttl)
	end
end
if attempts >= tonumber(ARGV[2]) then
	redis.call('DEL', KEYS[1], KEYS[2])
end
return 0
`)

// RedisResetCodeRepository keeps reset codes in Redis with a TTL.
type RedisResetCodeRepository struct {
	client redis.UniversalClient
}

// NewRedisResetCodeRepository creates a new instance of RedisResetCodeRepository.
func NewRedisResetCodeRepository(client redis.UniversalClient) *RedisResetCodeRepository {
	return &RedisResetCodeRepository{client: client}
}

// Save stores code for email with the given expiry.
func (r *RedisResetCodeRepository) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, ResetCodeKeyPrefix+email, code, ttl)
		pipe.Del(ctx, ResetAttemptsKeyPrefix+email)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}
	return nil
}

// Consume deletes the stored code when it matches.
func (r *RedisResetCodeRepository) Consume(ctx context.Context, email, code string) (bool, error) {
	keys := []string{ResetCodeKeyPrefix + email, ResetAttemptsKeyPrefix + email}
	n, err := consumeScript.Run(ctx, r.client, keys, code, MaxResetCodeAttempts).Int()
	if err != nil {
		return false, fmt.Errorf("failed to consume reset code: %w", err)
	}
	return n == 1, nil
}
