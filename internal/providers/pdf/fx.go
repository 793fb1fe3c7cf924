package pdf

import (
	"github.com/aquaserve/poolops/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) Provider {
	if !cfg.PDFAttachmentsEnabled {
		return &NoOpProvider{}
	}

	return New()
}
