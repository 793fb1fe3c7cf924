package estimate

import (
	"github.com/aquaserve/poolops/internal/estimate/render"
	"github.com/aquaserve/poolops/internal/estimate/repository"
	"github.com/aquaserve/poolops/internal/estimate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("estimate.service",
	fx.Provide(repository.Provide),
	fx.Provide(render.NewRenderer),
	fx.Provide(service.New),
)
