package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/gobank/internal/domain"
)

// maxOTPAttempts is the number of wrong guesses after which a code is burned.
const maxOTPAttempts = 5

// consumeScript deletes the code on a match. Wrong guesses are counted and
// the code is dropped once the limit is reached.
//
// KEYS[1] code key, KEYS[2] attempts key. ARGV[1] code, ARGV[2] max attempts.
var consumeScript = redis.NewScript(`
local stored = redis.call("GET", KEYS[1])
if not stored then
	return 0
end
if stored == ARGV[1] then
	redis.call("DEL", KEYS[1], KEYS[2])
	return 1
end
local attempts = redis.call("INCR", KEYS[2])
if attempts == 1 then
	redis.call("PEXPIRE", KEYS[2], redis.call("PTTL", KEYS[1]))
end
if attempts >= tonumber(ARGV[2]) then
	redis.call("DEL", KEYS[1], KEYS[2])
end
return 0
`)

// OTPStore implements usecase.OTPStore using Redis.
type OTPStore struct {
	client *redis.Client
	prefix string
}

// NewOTPStore creates a new OTPStore.
func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{
		client: client,
		prefix: "otp:",
	}
}

// Save stores code for email, replacing any earlier code and its attempt count.
func (s *OTPStore) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.codeKey(email), code, ttl)
		pipe.Del(ctx, s.attemptsKey(email))
		return nil
	})
	return err
}

// Consume deletes the stored code when it matches.
func (s *OTPStore) Consume(ctx context.Context, email, code string) error {
	matched, err := consumeScript.Run(ctx, s.client,
		[]string{s.codeKey(email), s.attemptsKey(email)},
		code, maxOTPAttempts,
	).Int()
	if err != nil {
		return err
	}
	if matched != 1 {
		return domain.ErrInvalidOTP
	}
	return nil
}

func (s *OTPStore) codeKey(email string) string {
	return s.prefix + email
}

func (s *OTPStore) attemptsKey(email string) string {
	return s.prefix + "attempts:" + email
}
