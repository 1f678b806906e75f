// Package execution implements the execution bounded context: the atomic
// flash-loan arbitrage engine and its provider adapters.
package execution

import (
	"context"
	"os"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flasharb/business/execution/app"
	executionDI "github.com/fd1az/flasharb/business/execution/di"
	"github.com/fd1az/flasharb/business/execution/domain"
	"github.com/fd1az/flasharb/business/execution/infra/console"
	"github.com/fd1az/flasharb/business/execution/infra/memchain"
	treasuryDI "github.com/fd1az/flasharb/business/treasury/di"
	venuesDI "github.com/fd1az/flasharb/business/venues/di"
	"github.com/fd1az/flasharb/internal/asset"
	"github.com/fd1az/flasharb/internal/config"
	"github.com/fd1az/flasharb/internal/di"
	"github.com/fd1az/flasharb/internal/logger"
	"github.com/fd1az/flasharb/internal/monolith"
	"github.com/fd1az/flasharb/internal/ratelimit"
)

// Module implements the execution bounded context.
type Module struct{}

// RegisterServices registers the bank, providers, services and the engine
// with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, executionDI.Bank, func(sr di.ServiceRegistry) *memchain.Bank {
		return memchain.NewBank()
	})

	di.RegisterToken(c, executionDI.NativeBank, func(sr di.ServiceRegistry) *memchain.NativeBank {
		return memchain.NewNativeBank()
	})

	di.RegisterToken(c, executionDI.Factory, func(sr di.ServiceRegistry) *memchain.Factory {
		return memchain.NewFactory()
	})

	di.RegisterToken(c, executionDI.AavePool, func(sr di.ServiceRegistry) app.AavePool {
		cfg := sr.Get("config").(*config.Config)
		bank := executionDI.GetBank(sr)
		return memchain.NewAavePool(
			common.HexToAddress(cfg.Providers.Aave.Address),
			cfg.Providers.Aave.PremiumBps,
			bank,
		)
	})

	di.RegisterToken(c, executionDI.FlashVault, func(sr di.ServiceRegistry) app.FlashVault {
		cfg := sr.Get("config").(*config.Config)
		bank := executionDI.GetBank(sr)
		return memchain.NewVault(common.HexToAddress(cfg.Providers.Vault.Address), bank)
	})

	di.RegisterToken(c, executionDI.FlashLender, func(sr di.ServiceRegistry) app.FlashLender {
		cfg := sr.Get("config").(*config.Config)
		bank := executionDI.GetBank(sr)
		return memchain.NewLender(
			common.HexToAddress(cfg.Providers.Lender.Address),
			cfg.Providers.Lender.FeeBps,
			bank,
		)
	})

	di.RegisterToken(c, executionDI.Validator, func(sr di.ServiceRegistry) *app.Validator {
		routers := venuesDI.GetRouterRegistry(sr)
		params := treasuryDI.GetAdminService(sr)
		return app.NewValidator(routers, params)
	})

	di.RegisterToken(c, executionDI.Swapper, func(sr di.ServiceRegistry) *app.Swapper {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		bank := executionDI.GetBank(sr)
		routers := venuesDI.GetRouterRegistry(sr)
		return app.NewSwapper(bank, routers, cfg.Engine.EngineAddressHex(), log)
	})

	di.RegisterToken(c, executionDI.Processor, func(sr di.ServiceRegistry) *app.LoanProcessor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		bank := executionDI.GetBank(sr)
		params := treasuryDI.GetAdminService(sr)
		swapper := executionDI.GetSwapper(sr)
		return app.NewLoanProcessor(swapper, bank, params, cfg.Engine.EngineAddressHex(), log)
	})

	di.RegisterToken(c, executionDI.Simulator, func(sr di.ServiceRegistry) *app.Simulator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		routers := venuesDI.GetRouterRegistry(sr)
		limiter := ratelimit.New(cfg.Simulation.ProbesPerMinute)
		return app.NewSimulator(routers, limiter, log)
	})

	di.RegisterToken(c, executionDI.Engine, func(sr di.ServiceRegistry) *app.Engine {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		bank := executionDI.GetBank(sr)
		validator := executionDI.GetValidator(sr)
		simulator := executionDI.GetSimulator(sr)
		processor := executionDI.GetProcessor(sr)

		assets := sr.Get("assetRegistry").(*asset.Registry)

		engine, err := app.NewEngine(
			validator,
			simulator,
			bank,
			domain.NewProfitLedger(),
			cfg.Engine.EngineAddressHex(),
			log,
			console.NewReporter(os.Stdout, assets, asset.ChainIDEthereum),
		)
		if err != nil {
			panic("failed to create engine: " + err.Error())
		}

		engine.RegisterAdapter(app.NewAaveAdapter(executionDI.GetAavePool(sr), processor, log))
		engine.RegisterAdapter(app.NewVaultAdapter(executionDI.GetFlashVault(sr), processor, log))
		engine.RegisterAdapter(app.NewLenderAdapter(executionDI.GetFlashLender(sr), processor, log))
		engine.RegisterAdapter(app.NewUniV3Adapter(
			venuesDI.GetPoolRegistry(sr),
			executionDI.GetFactory(sr),
			processor,
			log,
		))

		return engine
	})

	return nil
}

// Startup initializes the execution module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	engine := executionDI.GetEngine(mono.Services())

	mono.Logger().Info(ctx, "execution module started",
		"engine", engine.Address().Hex())
	return nil
}
