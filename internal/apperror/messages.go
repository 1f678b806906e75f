package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General
	CodeInvalidInput:       "Invalid input provided",
	CodeInvalidState:       "Invalid state for this operation",
	CodeNotFound:           "Resource not found",
	CodeConfigurationError: "Configuration error",
	CodeInternalError:      "Internal error",
	CodeUnknownError:       "An unknown error occurred",

	// Parameter validation
	CodeInvalidAmount:                  "Borrow amount must be greater than zero",
	CodeTransactionTooOld:              "Deadline has already passed",
	CodeDeadlineTooFar:                 "Deadline exceeds the configured deadline window",
	CodeEmptySwapPath:                  "Swap path is empty",
	CodePathTooLong:                    "Swap path exceeds the maximum number of hops",
	CodeSwapPathAssetMismatch:          "Swap path does not start with the borrowed asset",
	CodeInvalidSwapPath:                "Swap path is not continuous or does not end in the borrowed asset",
	CodeInsufficientSlippageProtection: "Every hop must carry a non-zero minimum output",
	CodeEnginePaused:                   "Engine is paused",

	// Authorization
	CodeRouterNotApproved:         "Router is not on the whitelist",
	CodeRouterAlreadyApproved:     "Router is already on the whitelist",
	CodeInvalidRouterAddress:      "Router address is zero",
	CodePoolNotApproved:           "Pool is not on the whitelist",
	CodePoolAlreadyApproved:       "Pool is already on the whitelist",
	CodeInvalidPoolAddress:        "Pool address is zero",
	CodePoolNotFromFactory:        "Pool is not registered with the canonical factory",
	CodeBatchTooLarge:             "Batch is empty or exceeds the maximum batch size",
	CodeInvalidFlashLoanCaller:    "Flash loan callback invoked by an unexpected caller",
	CodeInvalidFlashLoanInitiator: "Flash loan was initiated by someone else",
	CodeFlashLoanNotActive:        "No flash loan is currently outstanding",
	CodeMultiAssetNotSupported:    "Only single-asset flash loans are supported",
	CodeUnexpectedFlashLoanFee:    "Callback carries a fee for a token that was not borrowed",
	CodePoolAssetMismatch:         "Borrowed asset is not one of the pool's two tokens",
	CodeReentrantCall:             "Engine entry point re-entered during execution",
	CodeNotOwner:                  "Caller is not the owner",
	CodeNotPendingOwner:           "Caller is not the pending owner",

	// Economic
	CodeInsufficientProfit:       "Realized profit does not exceed the required minimum",
	CodeInsufficientOutputAmount: "Hop output fell below its minimum",

	// Operational
	CodeUnknownProvider:       "No adapter registered for this provider",
	CodeFlashLoanFailed:       "Flash loan provider rejected the borrow",
	CodeSwapFailed:            "Router swap call failed",
	CodeRepaymentFailed:       "Loan repayment transfer failed",
	CodeTransferFailed:        "Token transfer failed",
	CodeInvalidRecipient:      "Recipient address is zero",
	CodeInvalidMinimumProfit:  "Minimum profit must be greater than zero",
	CodeInvalidDeadlineWindow: "Deadline window is out of bounds",
	CodeCircuitOpen:           "Circuit breaker is open",
}
