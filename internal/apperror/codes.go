package apperror

// Code represents a unique error code for the application
type Code string

// Category classifies an error code so automated callers can route on the
// kind of failure without matching individual codes.
type Category string

const (
	// CategoryParameter covers malformed or out-of-range call inputs.
	CategoryParameter Category = "PARAMETER"
	// CategoryAuthorization covers whitelist, ownership and callback
	// identity violations.
	CategoryAuthorization Category = "AUTHORIZATION"
	// CategoryEconomic covers executions that are valid but not worth doing.
	CategoryEconomic Category = "ECONOMIC"
	// CategoryOperational covers collaborator and transfer failures.
	CategoryOperational Category = "OPERATIONAL"
)

// General error codes
const (
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeInvalidState       Code = "INVALID_STATE"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConfigurationError Code = "CONFIGURATION_ERROR"
	CodeInternalError      Code = "INTERNAL_ERROR"
	CodeUnknownError       Code = "UNKNOWN_ERROR"
)

// Parameter errors raised by the path validator.
const (
	CodeInvalidAmount                  Code = "INVALID_AMOUNT"
	CodeTransactionTooOld              Code = "TRANSACTION_TOO_OLD"
	CodeDeadlineTooFar                 Code = "DEADLINE_TOO_FAR"
	CodeEmptySwapPath                  Code = "EMPTY_SWAP_PATH"
	CodePathTooLong                    Code = "PATH_TOO_LONG"
	CodeSwapPathAssetMismatch          Code = "SWAP_PATH_ASSET_MISMATCH"
	CodeInvalidSwapPath                Code = "INVALID_SWAP_PATH"
	CodeInsufficientSlippageProtection Code = "INSUFFICIENT_SLIPPAGE_PROTECTION"
	CodeEnginePaused                   Code = "ENGINE_PAUSED"
)

// Authorization errors raised by registries, adapters and the guard.
const (
	CodeRouterNotApproved         Code = "ROUTER_NOT_APPROVED"
	CodeRouterAlreadyApproved     Code = "ROUTER_ALREADY_APPROVED"
	CodeInvalidRouterAddress      Code = "INVALID_ROUTER_ADDRESS"
	CodePoolNotApproved           Code = "POOL_NOT_APPROVED"
	CodePoolAlreadyApproved       Code = "POOL_ALREADY_APPROVED"
	CodeInvalidPoolAddress        Code = "INVALID_POOL_ADDRESS"
	CodePoolNotFromFactory        Code = "POOL_NOT_FROM_FACTORY"
	CodeBatchTooLarge             Code = "BATCH_TOO_LARGE"
	CodeInvalidFlashLoanCaller    Code = "INVALID_FLASH_LOAN_CALLER"
	CodeInvalidFlashLoanInitiator Code = "INVALID_FLASH_LOAN_INITIATOR"
	CodeFlashLoanNotActive        Code = "FLASH_LOAN_NOT_ACTIVE"
	CodeMultiAssetNotSupported    Code = "MULTI_ASSET_NOT_SUPPORTED"
	CodeUnexpectedFlashLoanFee    Code = "UNEXPECTED_FLASH_LOAN_FEE"
	CodePoolAssetMismatch         Code = "POOL_ASSET_MISMATCH"
	CodeReentrantCall             Code = "REENTRANT_CALL"
	CodeNotOwner                  Code = "NOT_OWNER"
	CodeNotPendingOwner           Code = "NOT_PENDING_OWNER"
)

// Economic errors raised during execution.
const (
	CodeInsufficientProfit       Code = "INSUFFICIENT_PROFIT"
	CodeInsufficientOutputAmount Code = "INSUFFICIENT_OUTPUT_AMOUNT"
)

// Operational errors raised by collaborators and transfers.
const (
	CodeUnknownProvider       Code = "UNKNOWN_PROVIDER"
	CodeFlashLoanFailed       Code = "FLASH_LOAN_FAILED"
	CodeSwapFailed            Code = "SWAP_FAILED"
	CodeRepaymentFailed       Code = "REPAYMENT_FAILED"
	CodeTransferFailed        Code = "TRANSFER_FAILED"
	CodeInvalidRecipient      Code = "INVALID_RECIPIENT"
	CodeInvalidMinimumProfit  Code = "INVALID_MINIMUM_PROFIT"
	CodeInvalidDeadlineWindow Code = "INVALID_DEADLINE_WINDOW"
	CodeCircuitOpen           Code = "CIRCUIT_OPEN"
)

// categories maps every code to its taxonomy bucket. Codes missing from the
// map report CategoryOperational.
var categories = map[Code]Category{
	CodeInvalidAmount:                  CategoryParameter,
	CodeTransactionTooOld:              CategoryParameter,
	CodeDeadlineTooFar:                 CategoryParameter,
	CodeEmptySwapPath:                  CategoryParameter,
	CodePathTooLong:                    CategoryParameter,
	CodeSwapPathAssetMismatch:          CategoryParameter,
	CodeInvalidSwapPath:                CategoryParameter,
	CodeInsufficientSlippageProtection: CategoryParameter,
	CodeEnginePaused:                   CategoryParameter,
	CodeInvalidInput:                   CategoryParameter,
	CodeInvalidMinimumProfit:           CategoryParameter,
	CodeInvalidDeadlineWindow:          CategoryParameter,

	CodeRouterNotApproved:         CategoryAuthorization,
	CodeRouterAlreadyApproved:     CategoryAuthorization,
	CodeInvalidRouterAddress:      CategoryAuthorization,
	CodePoolNotApproved:           CategoryAuthorization,
	CodePoolAlreadyApproved:       CategoryAuthorization,
	CodeInvalidPoolAddress:        CategoryAuthorization,
	CodePoolNotFromFactory:        CategoryAuthorization,
	CodeBatchTooLarge:             CategoryAuthorization,
	CodeInvalidFlashLoanCaller:    CategoryAuthorization,
	CodeInvalidFlashLoanInitiator: CategoryAuthorization,
	CodeFlashLoanNotActive:        CategoryAuthorization,
	CodeMultiAssetNotSupported:    CategoryAuthorization,
	CodeUnexpectedFlashLoanFee:    CategoryAuthorization,
	CodePoolAssetMismatch:         CategoryAuthorization,
	CodeReentrantCall:             CategoryAuthorization,
	CodeNotOwner:                  CategoryAuthorization,
	CodeNotPendingOwner:           CategoryAuthorization,

	CodeInsufficientProfit:       CategoryEconomic,
	CodeInsufficientOutputAmount: CategoryEconomic,
}

// CategoryOf returns the taxonomy bucket for a code.
func CategoryOf(code Code) Category {
	if c, ok := categories[code]; ok {
		return c
	}
	return CategoryOperational
}
