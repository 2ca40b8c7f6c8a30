package otp

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "otp_"

// Store holds pending one-time codes keyed by contact number. One pending
// code per contact number; a fresh Put overwrites the old code and resets its
// expiry.
type Store interface {
	Put(ctx context.Context, contactNumber, code string, ttl time.Duration) error
	// TakeIfMatch compares and deletes in a single logical step, so two
	// concurrent verifications for the same contact number cannot both
	// succeed.
	TakeIfMatch(ctx context.Context, contactNumber, code string) (bool, error)
}

// takeScript deletes the cached code only when it equals the submitted one.
// Comparison happens server-side so get-then-delete is atomic.
var takeScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if v == ARGV[1] then
	redis.call("DEL", KEYS[1])
	return 1
end
return 0
`)

type redisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

func (s *redisStore) Put(ctx context.Context, contactNumber, code string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key(contactNumber), code, ttl).Err()
}

func (s *redisStore) TakeIfMatch(ctx context.Context, contactNumber, code string) (bool, error) {
	n, err := takeScript.Run(ctx, s.rdb, []string{key(contactNumber)}, code).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func key(contactNumber string) string {
	return keyPrefix + contactNumber
}
