package pdf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquaserve/poolops/internal/config"
	estimatedomain "github.com/aquaserve/poolops/internal/estimate/domain"
)

func TestNewFromConfig(t *testing.T) {
	provider := NewFromConfig(config.Config{PDFAttachmentsEnabled: true})
	assert.IsType(t, &PDFProvider{}, provider)

	provider = NewFromConfig(config.Config{PDFAttachmentsEnabled: false})
	assert.IsType(t, &NoOpProvider{}, provider)
}

func TestNoOpProviderRendersNothing(t *testing.T) {
	data, err := (&NoOpProvider{}).RenderEstimate(context.Background(), estimatedomain.Estimate{})
	require.NoError(t, err)
	assert.Nil(t, data)
}
