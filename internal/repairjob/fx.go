package repairjob

import (
	"github.com/aquaserve/poolops/internal/repairjob/repository"
	"github.com/aquaserve/poolops/internal/repairjob/service"
	"go.uber.org/fx"
)

var Module = fx.Module("repairjob.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
