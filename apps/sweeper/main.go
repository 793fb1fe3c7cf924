package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/aquaserve/poolops/internal/approval"
	"github.com/aquaserve/poolops/internal/clock"
	"github.com/aquaserve/poolops/internal/config"
	"github.com/aquaserve/poolops/internal/estimate"
	"github.com/aquaserve/poolops/internal/migration"
	"github.com/aquaserve/poolops/internal/observability"
	"github.com/aquaserve/poolops/internal/providers/email"
	"github.com/aquaserve/poolops/internal/providers/pdf"
	"github.com/aquaserve/poolops/internal/repairjob"
	"github.com/aquaserve/poolops/internal/sweeper"
	"github.com/aquaserve/poolops/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domain services the sweeper drives.
		email.Module,
		pdf.Module,
		approval.Module,
		estimate.Module,
		repairjob.Module,

		// No HTTP server in this process.
		sweeper.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
