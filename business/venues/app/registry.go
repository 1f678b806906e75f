// Package app contains the venues context: owner-managed whitelists of the
// swap routers and flash pools the engine is allowed to touch, doubling as
// the address-to-instance directory the execution context resolves through.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	execution "github.com/fd1az/flasharb/business/execution/app"
	"github.com/fd1az/flasharb/internal/apperror"
	"github.com/fd1az/flasharb/internal/logger"
)

// DefaultMaxBatch caps batch additions when no explicit cap is configured.
const DefaultMaxBatch = 20

// RouterRegistry is the whitelist of approved swap routers.
type RouterRegistry struct {
	mu       sync.RWMutex
	routers  map[common.Address]execution.Router
	maxBatch int
	log      logger.LoggerInterface
}

var _ execution.RouterSource = (*RouterRegistry)(nil)

// NewRouterRegistry creates an empty registry. maxBatch bounds AddBatch;
// non-positive values fall back to DefaultMaxBatch.
func NewRouterRegistry(maxBatch int, log logger.LoggerInterface) *RouterRegistry {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	return &RouterRegistry{
		routers:  make(map[common.Address]execution.Router),
		maxBatch: maxBatch,
		log:      log,
	}
}

// Add approves one router. Zero addresses and duplicates are rejected.
func (r *RouterRegistry) Add(ctx context.Context, router execution.Router) error {
	addr := router.Address()
	if addr == (common.Address{}) {
		return apperror.New(apperror.CodeInvalidRouterAddress)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.routers[addr]; ok {
		return apperror.New(apperror.CodeRouterAlreadyApproved,
			apperror.WithContext(fmt.Sprintf("router=%s", addr.Hex())))
	}

	r.routers[addr] = router
	r.log.Info(ctx, "router approved", "router", addr.Hex())
	return nil
}

// AddBatch approves several routers at once. The batch itself must be
// non-empty and within the cap; within a valid batch, zero addresses and
// already-approved entries are skipped silently rather than failing the
// rest.
func (r *RouterRegistry) AddBatch(ctx context.Context, routers []execution.Router) error {
	if len(routers) == 0 || len(routers) > r.maxBatch {
		return apperror.New(apperror.CodeBatchTooLarge,
			apperror.WithContext(fmt.Sprintf("size=%d max=%d", len(routers), r.maxBatch)))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	for _, router := range routers {
		addr := router.Address()
		if addr == (common.Address{}) {
			continue
		}
		if _, ok := r.routers[addr]; ok {
			continue
		}
		r.routers[addr] = router
		added++
	}

	r.log.Info(ctx, "router batch processed", "submitted", len(routers), "added", added)
	return nil
}

// Remove revokes one router's approval.
func (r *RouterRegistry) Remove(ctx context.Context, addr common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.routers[addr]; !ok {
		return apperror.New(apperror.CodeRouterNotApproved,
			apperror.WithContext(fmt.Sprintf("router=%s", addr.Hex())))
	}

	delete(r.routers, addr)
	r.log.Info(ctx, "router approval revoked", "router", addr.Hex())
	return nil
}

// Approved returns the current membership. The slice is a copy.
func (r *RouterRegistry) Approved() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]common.Address, 0, len(r.routers))
	for addr := range r.routers {
		out = append(out, addr)
	}
	return out
}

// IsApproved reports whether addr is whitelisted.
func (r *RouterRegistry) IsApproved(addr common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.routers[addr]
	return ok
}

// Resolve returns the router instance behind an approved address.
func (r *RouterRegistry) Resolve(addr common.Address) (execution.Router, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	router, ok := r.routers[addr]
	return router, ok
}

// PoolRegistry is the whitelist of approved flash pools for the
// fee-tiered provider.
type PoolRegistry struct {
	mu       sync.RWMutex
	pools    map[common.Address]execution.TieredPool
	maxBatch int
	log      logger.LoggerInterface
}

var _ execution.PoolSource = (*PoolRegistry)(nil)

// NewPoolRegistry creates an empty registry with the given batch cap.
func NewPoolRegistry(maxBatch int, log logger.LoggerInterface) *PoolRegistry {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	return &PoolRegistry{
		pools:    make(map[common.Address]execution.TieredPool),
		maxBatch: maxBatch,
		log:      log,
	}
}

// Add approves one pool. Zero addresses and duplicates are rejected.
// Approval only asserts the owner trusts the address; the adapter still
// re-verifies it against the canonical factory on every use.
func (p *PoolRegistry) Add(ctx context.Context, pool execution.TieredPool) error {
	addr := pool.Address()
	if addr == (common.Address{}) {
		return apperror.New(apperror.CodeInvalidPoolAddress)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.pools[addr]; ok {
		return apperror.New(apperror.CodePoolAlreadyApproved,
			apperror.WithContext(fmt.Sprintf("pool=%s", addr.Hex())))
	}

	p.pools[addr] = pool
	p.log.Info(ctx, "pool approved", "pool", addr.Hex(), "fee_tier", pool.FeeTier())
	return nil
}

// AddBatch approves several pools at once, with the same batch semantics as
// the router registry.
func (p *PoolRegistry) AddBatch(ctx context.Context, pools []execution.TieredPool) error {
	if len(pools) == 0 || len(pools) > p.maxBatch {
		return apperror.New(apperror.CodeBatchTooLarge,
			apperror.WithContext(fmt.Sprintf("size=%d max=%d", len(pools), p.maxBatch)))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	added := 0
	for _, pool := range pools {
		addr := pool.Address()
		if addr == (common.Address{}) {
			continue
		}
		if _, ok := p.pools[addr]; ok {
			continue
		}
		p.pools[addr] = pool
		added++
	}

	p.log.Info(ctx, "pool batch processed", "submitted", len(pools), "added", added)
	return nil
}

// Remove revokes one pool's approval.
func (p *PoolRegistry) Remove(ctx context.Context, addr common.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.pools[addr]; !ok {
		return apperror.New(apperror.CodePoolNotApproved,
			apperror.WithContext(fmt.Sprintf("pool=%s", addr.Hex())))
	}

	delete(p.pools, addr)
	p.log.Info(ctx, "pool approval revoked", "pool", addr.Hex())
	return nil
}

// Approved returns the current membership. The slice is a copy.
func (p *PoolRegistry) Approved() []common.Address {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]common.Address, 0, len(p.pools))
	for addr := range p.pools {
		out = append(out, addr)
	}
	return out
}

// IsApproved reports whether addr is whitelisted.
func (p *PoolRegistry) IsApproved(addr common.Address) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.pools[addr]
	return ok
}

// Resolve returns the pool instance behind an approved address.
func (p *PoolRegistry) Resolve(addr common.Address) (execution.TieredPool, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pool, ok := p.pools[addr]
	return pool, ok
}
