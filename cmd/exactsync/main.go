package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/exactsync/internal/cache"
	"github.com/smallbiznis/exactsync/internal/catalog"
	"github.com/smallbiznis/exactsync/internal/clock"
	"github.com/smallbiznis/exactsync/internal/composer"
	"github.com/smallbiznis/exactsync/internal/config"
	exactclient "github.com/smallbiznis/exactsync/internal/exact/client"
	"github.com/smallbiznis/exactsync/internal/fulfillment"
	"github.com/smallbiznis/exactsync/internal/journal"
	"github.com/smallbiznis/exactsync/internal/observability"
	"github.com/smallbiznis/exactsync/internal/resolver"
	"github.com/smallbiznis/exactsync/internal/salesync"
	"github.com/smallbiznis/exactsync/internal/server"
	"github.com/smallbiznis/exactsync/internal/tax"
	"github.com/smallbiznis/exactsync/internal/token"
	"github.com/smallbiznis/exactsync/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		clock.Module,
		cache.Module,
		db.Module,

		// ERP access
		token.Module,
		exactclient.Module,
		catalog.Module,
		tax.Module,
		resolver.Module,
		composer.Module,

		// Functional Domains
		journal.Module,
		salesync.Module,
		fulfillment.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
