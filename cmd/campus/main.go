package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/edustack/campus/internal/config"
	"github.com/edustack/campus/internal/migration"
	"github.com/edustack/campus/internal/observability"
	"github.com/edustack/campus/internal/server"
	"github.com/edustack/campus/pkg/db"
	"github.com/edustack/campus/pkg/log"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		server.Module,
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
