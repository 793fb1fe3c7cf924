package approval

import (
	"github.com/aquaserve/poolops/internal/approval/service"
	"go.uber.org/fx"
)

var Module = fx.Module("approval.token",
	fx.Provide(service.New),
)
