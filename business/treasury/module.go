// Package treasury implements the treasury bounded context: ownership,
// pause state, engine parameters and stray-balance withdrawal.
package treasury

import (
	"context"

	executionDI "github.com/fd1az/flasharb/business/execution/di"
	"github.com/fd1az/flasharb/business/treasury/app"
	treasuryDI "github.com/fd1az/flasharb/business/treasury/di"
	"github.com/fd1az/flasharb/internal/config"
	"github.com/fd1az/flasharb/internal/di"
	"github.com/fd1az/flasharb/internal/logger"
	"github.com/fd1az/flasharb/internal/monolith"
)

// Module implements the treasury bounded context.
type Module struct{}

// RegisterServices registers the admin service with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, treasuryDI.AdminService, func(sr di.ServiceRegistry) *app.AdminService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		bank := executionDI.GetBank(sr)
		native := executionDI.GetNativeBank(sr)

		admin, err := app.NewAdminService(
			cfg.Engine.OwnerAddressHex(),
			cfg.Engine.EngineAddressHex(),
			cfg.Engine.MinimumProfitBig(),
			cfg.Engine.DeadlineWindow,
			bank,
			native,
			log,
		)
		if err != nil {
			panic("failed to create admin service: " + err.Error())
		}
		return admin
	})

	return nil
}

// Startup initializes the treasury module and applies the configured pause
// state.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	admin := treasuryDI.GetAdminService(mono.Services())

	if mono.Config().Engine.Paused {
		if err := admin.Pause(ctx, admin.Owner()); err != nil {
			return err
		}
	}

	mono.Logger().Info(ctx, "treasury module started",
		"owner", admin.Owner().Hex(),
		"minimum_profit", admin.MinimumProfit().String(),
		"deadline_window", admin.DeadlineWindow().String(),
		"paused", admin.Paused())
	return nil
}
