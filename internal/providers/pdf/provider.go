package pdf

import (
	"context"

	estimatedomain "github.com/aquaserve/poolops/internal/estimate/domain"
)

type Provider interface {
	RenderEstimate(ctx context.Context, estimate estimatedomain.Estimate) ([]byte, error)
}

// NoOpProvider renders nothing; approval emails then go out without the
// PDF attachment.
type NoOpProvider struct{}

func (p *NoOpProvider) RenderEstimate(ctx context.Context, estimate estimatedomain.Estimate) ([]byte, error) {
	return nil, nil
}
