package auth

import (
	"context"

	"incubator-portal/internal/models"
)

// Verifier turns an opaque bearer credential into identity claims. Any failure
// to verify is reported as an UNAUTHENTICATED StandardError; failures reaching an
// upstream identity provider are STORE_UNAVAILABLE so callers may retry.
type Verifier interface {
	Verify(ctx context.Context, token string) (models.TokenClaims, error)
}
