// Package di contains dependency injection tokens for the venues context.
package di

import (
	"github.com/fd1az/flasharb/business/venues/app"
	"github.com/fd1az/flasharb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	RouterRegistry = di.NewToken[*app.RouterRegistry]("venues.RouterRegistry")
	PoolRegistry   = di.NewToken[*app.PoolRegistry]("venues.PoolRegistry")
)

// Helper functions for type-safe access
func GetRouterRegistry(c di.ServiceRegistry) *app.RouterRegistry {
	return di.GetToken(c, RouterRegistry)
}

func GetPoolRegistry(c di.ServiceRegistry) *app.PoolRegistry {
	return di.GetToken(c, PoolRegistry)
}
