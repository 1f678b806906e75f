// Package di contains dependency injection tokens for the execution context.
package di

import (
	"github.com/fd1az/flasharb/business/execution/app"
	"github.com/fd1az/flasharb/business/execution/infra/memchain"
	"github.com/fd1az/flasharb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Engine     = di.NewToken[*app.Engine]("execution.Engine")
	Bank       = di.NewToken[*memchain.Bank]("execution.Bank")
	NativeBank = di.NewToken[*memchain.NativeBank]("execution.NativeBank")
	Factory    = di.NewToken[*memchain.Factory]("execution.Factory")
)

// Private dependency tokens - internal to the execution module
var (
	Validator = di.NewToken[*app.Validator]("execution:validator")
	Swapper   = di.NewToken[*app.Swapper]("execution:swapper")
	Simulator = di.NewToken[*app.Simulator]("execution:simulator")
	Processor = di.NewToken[*app.LoanProcessor]("execution:processor")

	AavePool    = di.NewToken[app.AavePool]("execution:aavePool")
	FlashVault  = di.NewToken[app.FlashVault]("execution:flashVault")
	FlashLender = di.NewToken[app.FlashLender]("execution:flashLender")
)

// Helper functions for type-safe access
func GetEngine(c di.ServiceRegistry) *app.Engine {
	return di.GetToken(c, Engine)
}

func GetBank(c di.ServiceRegistry) *memchain.Bank {
	return di.GetToken(c, Bank)
}

func GetNativeBank(c di.ServiceRegistry) *memchain.NativeBank {
	return di.GetToken(c, NativeBank)
}

func GetFactory(c di.ServiceRegistry) *memchain.Factory {
	return di.GetToken(c, Factory)
}

func GetValidator(c di.ServiceRegistry) *app.Validator {
	return di.GetToken(c, Validator)
}

func GetSwapper(c di.ServiceRegistry) *app.Swapper {
	return di.GetToken(c, Swapper)
}

func GetSimulator(c di.ServiceRegistry) *app.Simulator {
	return di.GetToken(c, Simulator)
}

func GetProcessor(c di.ServiceRegistry) *app.LoanProcessor {
	return di.GetToken(c, Processor)
}

func GetAavePool(c di.ServiceRegistry) app.AavePool {
	return di.GetToken(c, AavePool)
}

func GetFlashVault(c di.ServiceRegistry) app.FlashVault {
	return di.GetToken(c, FlashVault)
}

func GetFlashLender(c di.ServiceRegistry) app.FlashLender {
	return di.GetToken(c, FlashLender)
}
