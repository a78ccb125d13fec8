package identity

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

var ErrInvalidToken = errors.New("invalid token")

// Verifier resolves a bearer token to an authenticated user id.
// Authentication itself lives in the auth service; this side only
// checks that a session exists for the token.
type Verifier interface {
	ValidateToken(ctx context.Context, token string) (int, error)
}

// RedisVerifier looks up sessions in the auth service's Redis store,
// where each live token is keyed as "session:<token>" with the user id
// as value.
type RedisVerifier struct {
	rdb       *redis.Client
	keyPrefix string
}

// NewRedisVerifier constructs a RedisVerifier.
func NewRedisVerifier(rdb *redis.Client) *RedisVerifier {
	return &RedisVerifier{rdb: rdb, keyPrefix: "session:"}
}

// ValidateToken returns the user id owning the session token.
func (v *RedisVerifier) ValidateToken(ctx context.Context, token string) (int, error) {
	if token == "" {
		return 0, ErrInvalidToken
	}
	val, err := v.rdb.Get(ctx, v.keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrInvalidToken
	}
	if err != nil {
		return 0, err
	}
	userID, err := strconv.Atoi(val)
	if err != nil || userID == 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
