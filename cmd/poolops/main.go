package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/aquaserve/poolops/internal/clock"
	"github.com/aquaserve/poolops/internal/config"
	"github.com/aquaserve/poolops/internal/migration"
	"github.com/aquaserve/poolops/internal/observability"
	"github.com/aquaserve/poolops/internal/server"
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

		server.Module,
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
