package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"incubator-portal/internal/common/errors"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "token:revoked:"

// RevocationList records logged-out tokens in Redis until they would have expired anyway.
type RevocationList struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRevocationList(client *redis.Client, ttl time.Duration) *RevocationList {
	return &RevocationList{client: client, ttl: ttl}
}

// Revoke marks token as revoked. expiresAt (unix seconds, 0 if unknown) bounds the
// key lifetime so the list does not grow past the token's own validity.
func (r *RevocationList) Revoke(ctx context.Context, token string, expiresAt int64) error {
	ttl := r.ttl
	if expiresAt > 0 {
		if remaining := time.Until(time.Unix(expiresAt, 0)); remaining > 0 && remaining < ttl {
			ttl = remaining
		}
	}
	if err := r.client.Set(ctx, revokedKey(token), "1", ttl).Err(); err != nil {
		return errors.NewStoreUnavailableError("revoke token", err)
	}
	return nil
}

func (r *RevocationList) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKey(token)).Result()
	if err != nil {
		return false, errors.NewStoreUnavailableError("check token revocation", err)
	}
	return n > 0, nil
}

// Tokens are stored hashed; raw bearer credentials never land in Redis.
func revokedKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return revokedKeyPrefix + hex.EncodeToString(sum[:])
}
