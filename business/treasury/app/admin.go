// Package app contains the treasury context: ownership, pause state, the
// engine parameters the validator reads, and stray-balance withdrawal.
package app

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	execution "github.com/fd1az/flasharb/business/execution/app"
	"github.com/fd1az/flasharb/internal/apperror"
	"github.com/fd1az/flasharb/internal/config"
	"github.com/fd1az/flasharb/internal/logger"
)

// NativeTransferStipend is the fixed gas stipend forwarded on native
// withdrawals. A recipient whose acceptance logic needs more gas fails the
// withdrawal; the failure is reported, never retried with more gas.
const NativeTransferStipend uint64 = 2300

// NativeTransferrer is the bounded-stipend native-currency transfer port.
type NativeTransferrer interface {
	NativeBalance(holder common.Address) *big.Int
	TransferWithStipend(ctx context.Context, from, to common.Address, amount *big.Int, stipend uint64) error
}

// AdminService holds the owner-settable state of the engine. Ownership
// moves in two phases: the owner proposes a successor, the successor
// accepts. Every mutation is owner-gated by the caller identity passed in.
type AdminService struct {
	mu             sync.RWMutex
	owner          common.Address
	pendingOwner   common.Address
	paused         bool
	minProfit      *big.Int
	deadlineWindow time.Duration

	engine common.Address
	bank   execution.TokenBank
	native NativeTransferrer
	log    logger.LoggerInterface
}

var _ execution.ParamSource = (*AdminService)(nil)

// NewAdminService creates the service with the given initial owner and
// parameters. engine is the identity whose stray balances withdrawals
// sweep.
func NewAdminService(owner, engine common.Address, minProfit *big.Int, deadlineWindow time.Duration, bank execution.TokenBank, native NativeTransferrer, log logger.LoggerInterface) (*AdminService, error) {
	if owner == (common.Address{}) {
		return nil, apperror.New(apperror.CodeInvalidRecipient,
			apperror.WithMessage("owner address cannot be zero"))
	}
	if minProfit == nil || minProfit.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidMinimumProfit)
	}
	if deadlineWindow < config.MinDeadlineWindow || deadlineWindow > config.MaxDeadlineWindow {
		return nil, apperror.New(apperror.CodeInvalidDeadlineWindow)
	}

	return &AdminService{
		owner:          owner,
		engine:         engine,
		minProfit:      new(big.Int).Set(minProfit),
		deadlineWindow: deadlineWindow,
		bank:           bank,
		native:         native,
		log:            log,
	}, nil
}

// Owner returns the current owner.
func (s *AdminService) Owner() common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

// PendingOwner returns the proposed successor, zero if none.
func (s *AdminService) PendingOwner() common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingOwner
}

// ProposeOwner starts an ownership handover to newOwner.
func (s *AdminService) ProposeOwner(ctx context.Context, caller, newOwner common.Address) error {
	if newOwner == (common.Address{}) {
		return apperror.New(apperror.CodeInvalidRecipient)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.owner {
		return apperror.New(apperror.CodeNotOwner)
	}

	s.pendingOwner = newOwner
	s.log.Info(ctx, "ownership handover proposed", "pending_owner", newOwner.Hex())
	return nil
}

// AcceptOwnership completes a handover. Only the proposed successor may
// accept; the proposal is consumed either way it ends.
func (s *AdminService) AcceptOwnership(ctx context.Context, caller common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pendingOwner == (common.Address{}) || caller != s.pendingOwner {
		return apperror.New(apperror.CodeNotPendingOwner)
	}

	s.owner = caller
	s.pendingOwner = common.Address{}
	s.log.Info(ctx, "ownership handover accepted", "owner", caller.Hex())
	return nil
}

// Pause stops the engine from accepting new executions.
func (s *AdminService) Pause(ctx context.Context, caller common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.owner {
		return apperror.New(apperror.CodeNotOwner)
	}

	s.paused = true
	s.log.Warn(ctx, "engine paused")
	return nil
}

// Unpause resumes executions.
func (s *AdminService) Unpause(ctx context.Context, caller common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.owner {
		return apperror.New(apperror.CodeNotOwner)
	}

	s.paused = false
	s.log.Info(ctx, "engine unpaused")
	return nil
}

// SetMinimumProfit updates the configured profit floor. Zero is rejected: a
// zero floor would accept break-even executions.
func (s *AdminService) SetMinimumProfit(ctx context.Context, caller common.Address, v *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.owner {
		return apperror.New(apperror.CodeNotOwner)
	}
	if v == nil || v.Sign() <= 0 {
		return apperror.New(apperror.CodeInvalidMinimumProfit)
	}

	s.minProfit = new(big.Int).Set(v)
	s.log.Info(ctx, "minimum profit updated", "minimum_profit", v.String())
	return nil
}

// SetDeadlineWindow updates the accepted deadline window, bounded to
// [MinDeadlineWindow, MaxDeadlineWindow].
func (s *AdminService) SetDeadlineWindow(ctx context.Context, caller common.Address, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.owner {
		return apperror.New(apperror.CodeNotOwner)
	}
	if d < config.MinDeadlineWindow || d > config.MaxDeadlineWindow {
		return apperror.New(apperror.CodeInvalidDeadlineWindow,
			apperror.WithContext(fmt.Sprintf("window=%s", d)))
	}

	s.deadlineWindow = d
	s.log.Info(ctx, "deadline window updated", "window", d.String())
	return nil
}

// WithdrawToken sweeps amount of a stray token balance from the engine to
// recipient.
func (s *AdminService) WithdrawToken(ctx context.Context, caller, token, recipient common.Address, amount *big.Int) error {
	if recipient == (common.Address{}) {
		return apperror.New(apperror.CodeInvalidRecipient)
	}
	if amount == nil || amount.Sign() <= 0 {
		return apperror.New(apperror.CodeInvalidAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.owner {
		return apperror.New(apperror.CodeNotOwner)
	}

	if err := s.bank.Transfer(ctx, token, s.engine, recipient, amount); err != nil {
		return apperror.New(apperror.CodeTransferFailed, apperror.WithCause(err))
	}

	s.log.Info(ctx, "token balance withdrawn",
		"token", token.Hex(),
		"recipient", recipient.Hex(),
		"amount", amount.String())
	return nil
}

// WithdrawNative sweeps amount of the engine's native balance to recipient,
// forwarding only the fixed stipend. A failed transfer is reported as-is.
func (s *AdminService) WithdrawNative(ctx context.Context, caller, recipient common.Address, amount *big.Int) error {
	if recipient == (common.Address{}) {
		return apperror.New(apperror.CodeInvalidRecipient)
	}
	if amount == nil || amount.Sign() <= 0 {
		return apperror.New(apperror.CodeInvalidAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.owner {
		return apperror.New(apperror.CodeNotOwner)
	}

	if err := s.native.TransferWithStipend(ctx, s.engine, recipient, amount, NativeTransferStipend); err != nil {
		return apperror.New(apperror.CodeTransferFailed, apperror.WithCause(err))
	}

	s.log.Info(ctx, "native balance withdrawn",
		"recipient", recipient.Hex(),
		"amount", amount.String())
	return nil
}

// MinimumProfit returns a copy of the configured profit floor.
func (s *AdminService) MinimumProfit() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return new(big.Int).Set(s.minProfit)
}

// DeadlineWindow returns the accepted deadline window.
func (s *AdminService) DeadlineWindow() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deadlineWindow
}

// Paused reports whether the engine is paused.
func (s *AdminService) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}
