// Package main is the entry point for the flash-loan arbitrage engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"github.com/fd1az/flasharb/business/execution"
	executionApp "github.com/fd1az/flasharb/business/execution/app"
	executionDI "github.com/fd1az/flasharb/business/execution/di"
	"github.com/fd1az/flasharb/business/execution/domain"
	"github.com/fd1az/flasharb/business/execution/infra/console"
	"github.com/fd1az/flasharb/business/execution/infra/memchain"
	"github.com/fd1az/flasharb/business/treasury"
	"github.com/fd1az/flasharb/business/venues"
	venuesDI "github.com/fd1az/flasharb/business/venues/di"
	"github.com/fd1az/flasharb/internal/apm"
	"github.com/fd1az/flasharb/internal/asset"
	"github.com/fd1az/flasharb/internal/config"
	"github.com/fd1az/flasharb/internal/health"
	"github.com/fd1az/flasharb/internal/logger"
	"github.com/fd1az/flasharb/internal/metrics"
	"github.com/fd1az/flasharb/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("flasharb %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	log := logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
	log.Info(ctx, "starting flash-loan arbitrage engine",
		"version", version,
		"environment", cfg.App.Environment,
	)

	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "zipkin")

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	healthServer := health.NewServer(8081, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", 8081)
	}
	defer healthServer.Stop(ctx)

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Define modules in dependency order
	modules := []monolith.Module{
		&venues.Module{},    // Whitelists the execution context resolves through
		&treasury.Module{},  // Owner-settable parameters
		&execution.Module{}, // Engine and provider adapters
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	return runDemo(ctx, mono, log)
}

// runDemo seeds an in-memory market with a cross-venue price discrepancy
// and executes the same two-hop round trip through all four flash-loan
// providers.
func runDemo(ctx context.Context, mono monolith.Monolith, log *logger.Logger) error {
	cfg := mono.Config()
	services := mono.Services()

	bank := executionDI.GetBank(services)
	engine := executionDI.GetEngine(services)
	factory := executionDI.GetFactory(services)
	routers := venuesDI.GetRouterRegistry(services)
	pools := venuesDI.GetPoolRegistry(services)

	one := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	units := func(n int64) *big.Int { return new(big.Int).Mul(big.NewInt(n), one) }

	tokenX := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	tokenY := common.HexToAddress("0x00000000000000000000000000000000000000b2")

	// Two venues quoting X/Y at different rates: 1 X -> 2 Y on the first,
	// 100 Y -> 51 X on the second, a 2% round-trip edge.
	routerA := memchain.NewRouter(common.HexToAddress("0x0000000000000000000000000000000000000ea1"), bank)
	routerA.SetRate(tokenX, tokenY, 2, 1)
	routerB := memchain.NewRouter(common.HexToAddress("0x0000000000000000000000000000000000000eb2"), bank)
	routerB.SetRate(tokenY, tokenX, 51, 100)

	bank.Mint(tokenY, routerA.Address(), units(1_000))
	bank.Mint(tokenX, routerB.Address(), units(1_000))

	if err := routers.AddBatch(ctx, []executionApp.Router{routerA, routerB}); err != nil {
		return err
	}

	// Provider liquidity.
	bank.Mint(tokenX, common.HexToAddress(cfg.Providers.Aave.Address), units(100))
	bank.Mint(tokenX, common.HexToAddress(cfg.Providers.Vault.Address), units(100))
	bank.Mint(tokenX, common.HexToAddress(cfg.Providers.Lender.Address), units(100))

	pool := memchain.NewTieredPool(
		common.HexToAddress("0x0000000000000000000000000000000000000ec3"),
		tokenX, tokenY, 3000, bank,
	)
	bank.Mint(tokenX, pool.Address(), units(100))
	bank.Mint(tokenY, pool.Address(), units(100))
	factory.Register(pool)
	if err := pools.Add(ctx, pool); err != nil {
		return err
	}

	path := domain.SwapPath{
		{Router: routerA.Address(), TokenIn: tokenX, TokenOut: tokenY, MinOutput: big.NewInt(1)},
		{Router: routerB.Address(), TokenIn: tokenY, TokenOut: tokenX, MinOutput: big.NewInt(1)},
	}

	providers := []string{
		executionApp.ProviderVault,
		executionApp.ProviderAave,
		executionApp.ProviderLender,
		executionApp.ProviderUniV3,
	}

	for _, provider := range providers {
		order := domain.BorrowOrder{
			Asset:     tokenX,
			Amount:    units(10),
			Path:      path,
			MinProfit: big.NewInt(1),
			Deadline:  time.Now().Add(time.Minute),
		}
		if provider == executionApp.ProviderUniV3 {
			order.Pool = pool.Address()
		}

		estimate := engine.SimulateArbitrage(ctx, provider, order)
		log.Info(ctx, "dry-run estimate",
			"provider", provider,
			"expected_profit", estimate.ExpectedProfit.String(),
			"fee", estimate.FlashLoanFee.String())

		if _, err := engine.ExecuteArbitrage(ctx, provider, order); err != nil {
			log.Error(ctx, "execution failed", "provider", provider, "error", err)
		}
	}

	console.NewReporter(os.Stdout, mono.AssetRegistry(), asset.ChainIDEthereum).PrintLedger(engine.Ledger())
	return nil
}
