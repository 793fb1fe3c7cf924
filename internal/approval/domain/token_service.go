// Package domain defines the approval token contract: an opaque,
// time-limited capability string that lets an unauthenticated customer
// decide exactly one estimate.
package domain

import (
	"context"
	"time"

	estimatedomain "github.com/aquaserve/poolops/internal/estimate/domain"
)

// IssuedToken is a freshly minted approval capability.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// TokenService mints and resolves approval tokens. Issue always creates a
// new token; persisting it on the estimate (and overwriting any prior
// token) is the lifecycle engine's job, so a failed email send leaves no
// token behind.
type TokenService interface {
	// Issue returns a fresh high-entropy token and its expiry instant.
	Issue(ctx context.Context) (IssuedToken, error)

	// Resolve finds the estimate whose current token matches. Expiry is
	// deliberately not checked here; an expired token still resolves so
	// the caller can distinguish Expired from NotFound.
	Resolve(ctx context.Context, token string) (*estimatedomain.Estimate, error)

	// Validate refuses an estimate whose token is past its expiry.
	Validate(estimate *estimatedomain.Estimate, now time.Time) error
}
