package main

import (
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/clock"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/config"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/observability"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/server"
	"github.com/ThienHoan/Web-TramHuong-sub001/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
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
