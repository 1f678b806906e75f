// Package venues implements the venues bounded context: the whitelists of
// approved swap routers and flash pools.
package venues

import (
	"context"

	"github.com/fd1az/flasharb/business/venues/app"
	venuesDI "github.com/fd1az/flasharb/business/venues/di"
	"github.com/fd1az/flasharb/internal/config"
	"github.com/fd1az/flasharb/internal/di"
	"github.com/fd1az/flasharb/internal/logger"
	"github.com/fd1az/flasharb/internal/monolith"
)

// Module implements the venues bounded context.
type Module struct{}

// RegisterServices registers both registries with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, venuesDI.RouterRegistry, func(sr di.ServiceRegistry) *app.RouterRegistry {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewRouterRegistry(cfg.Engine.MaxBatchSize, log)
	})

	di.RegisterToken(c, venuesDI.PoolRegistry, func(sr di.ServiceRegistry) *app.PoolRegistry {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewPoolRegistry(cfg.Engine.MaxBatchSize, log)
	})

	return nil
}

// Startup initializes the venues module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	routers := venuesDI.GetRouterRegistry(mono.Services())
	pools := venuesDI.GetPoolRegistry(mono.Services())

	mono.Logger().Info(ctx, "venues module started",
		"approved_routers", len(routers.Approved()),
		"approved_pools", len(pools.Approved()))
	return nil
}
