// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Bounds on the owner-settable swap deadline window.
const (
	MinDeadlineWindow = 1 * time.Second
	MaxDeadlineWindow = 600 * time.Second
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Providers  ProvidersConfig  `mapstructure:"providers"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EngineConfig holds the execution engine's owner-settable parameters.
type EngineConfig struct {
	OwnerAddress   string        `mapstructure:"owner_address"`
	EngineAddress  string        `mapstructure:"engine_address"`
	MinimumProfit  string        `mapstructure:"minimum_profit"` // raw units of the borrowed asset
	DeadlineWindow time.Duration `mapstructure:"deadline_window"`
	MaxBatchSize   int           `mapstructure:"max_batch_size"`
	Paused         bool          `mapstructure:"paused"`
}

// OwnerAddressHex returns the owner address as common.Address.
func (c *EngineConfig) OwnerAddressHex() common.Address {
	return common.HexToAddress(c.OwnerAddress)
}

// EngineAddressHex returns the engine's own address as common.Address.
func (c *EngineConfig) EngineAddressHex() common.Address {
	return common.HexToAddress(c.EngineAddress)
}

// MinimumProfitBig returns the configured minimum profit as *big.Int.
func (c *EngineConfig) MinimumProfitBig() *big.Int {
	v, ok := new(big.Int).SetString(c.MinimumProfit, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}

// ProvidersConfig holds flash-loan provider addresses and fee settings.
type ProvidersConfig struct {
	Aave    AaveConfig    `mapstructure:"aave"`
	Vault   VaultConfig   `mapstructure:"vault"`
	Lender  LenderConfig  `mapstructure:"lender"`
	Factory FactoryConfig `mapstructure:"factory"`
}

// AaveConfig holds the premium-bearing pool provider settings.
type AaveConfig struct {
	Address    string `mapstructure:"address"`
	PremiumBps uint64 `mapstructure:"premium_bps"`
}

// VaultConfig holds the zero-fee vault provider settings.
type VaultConfig struct {
	Address string `mapstructure:"address"`
}

// LenderConfig holds the EIP-3156 lender settings.
type LenderConfig struct {
	Address string `mapstructure:"address"`
	FeeBps  uint64 `mapstructure:"fee_bps"`
}

// FactoryConfig holds the canonical pool factory address used to verify
// fee-tiered flash pools.
type FactoryConfig struct {
	Address string `mapstructure:"address"`
}

// SimulationConfig bounds the dry-run profit probe loop.
type SimulationConfig struct {
	ProbesPerMinute int `mapstructure:"probes_per_minute"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("FLA")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "FLA_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "FLA_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "FLA_LOG_LEVEL", "LOG_LEVEL")

	// Engine
	v.BindEnv("engine.owner_address", "FLA_OWNER_ADDRESS")
	v.BindEnv("engine.engine_address", "FLA_ENGINE_ADDRESS")
	v.BindEnv("engine.minimum_profit", "FLA_MINIMUM_PROFIT")
	v.BindEnv("engine.deadline_window", "FLA_DEADLINE_WINDOW")

	// Providers
	v.BindEnv("providers.aave.address", "FLA_AAVE_ADDRESS")
	v.BindEnv("providers.aave.premium_bps", "FLA_AAVE_PREMIUM_BPS")
	v.BindEnv("providers.vault.address", "FLA_VAULT_ADDRESS")
	v.BindEnv("providers.lender.address", "FLA_LENDER_ADDRESS")
	v.BindEnv("providers.lender.fee_bps", "FLA_LENDER_FEE_BPS")
	v.BindEnv("providers.factory.address", "FLA_FACTORY_ADDRESS")

	// Telemetry
	v.BindEnv("telemetry.enabled", "FLA_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "FLA_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "FLA_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "flasharb")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Engine defaults
	v.SetDefault("engine.owner_address", "0x0000000000000000000000000000000000000Add")
	v.SetDefault("engine.engine_address", "0x00000000000000000000000000000000000000Fa")
	v.SetDefault("engine.minimum_profit", "1")
	v.SetDefault("engine.deadline_window", "300s")
	v.SetDefault("engine.max_batch_size", 20)
	v.SetDefault("engine.paused", false)

	// Provider defaults (fee models observed on mainnet deployments)
	v.SetDefault("providers.aave.premium_bps", 9)
	v.SetDefault("providers.lender.fee_bps", 30)

	// Simulation defaults
	v.SetDefault("simulation.probes_per_minute", 60)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "flasharb")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Engine.OwnerAddress == "" || !common.IsHexAddress(c.Engine.OwnerAddress) {
		return fmt.Errorf("invalid engine.owner_address: %s", c.Engine.OwnerAddress)
	}
	if c.Engine.EngineAddress == "" || !common.IsHexAddress(c.Engine.EngineAddress) {
		return fmt.Errorf("invalid engine.engine_address: %s", c.Engine.EngineAddress)
	}
	if mp := c.Engine.MinimumProfitBig(); mp.Sign() <= 0 {
		return fmt.Errorf("engine.minimum_profit must be a positive integer, got %q", c.Engine.MinimumProfit)
	}
	if c.Engine.DeadlineWindow < MinDeadlineWindow || c.Engine.DeadlineWindow > MaxDeadlineWindow {
		return fmt.Errorf("engine.deadline_window %s out of bounds [%s, %s]",
			c.Engine.DeadlineWindow, MinDeadlineWindow, MaxDeadlineWindow)
	}
	if c.Engine.MaxBatchSize <= 0 {
		return fmt.Errorf("engine.max_batch_size must be positive")
	}
	if c.Simulation.ProbesPerMinute <= 0 {
		return fmt.Errorf("simulation.probes_per_minute must be positive")
	}
	return nil
}
