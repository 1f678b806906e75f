// Package di contains dependency injection tokens for the treasury context.
package di

import (
	"github.com/fd1az/flasharb/business/treasury/app"
	"github.com/fd1az/flasharb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	AdminService = di.NewToken[*app.AdminService]("treasury.AdminService")
)

// GetAdminService resolves the admin service.
func GetAdminService(c di.ServiceRegistry) *app.AdminService {
	return di.GetToken(c, AdminService)
}
