package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeServiceTimeout:     "Service request timeout",
	CodeServiceUnavailable: "Service temporarily unavailable",
	CodeRateLimitExceeded:  "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeEthereumConnectionFailed: "Failed to connect to RPC node",
	CodeEthereumRPCError:         "RPC call failed",
	CodeGasEstimationFailed:      "Gas estimation failed",
	CodeContractCallFailed:       "Smart contract call failed",
	CodeContractNotConfigured:    "Contract address not configured for network",
	CodeWalletUnavailable:        "Operator wallet not available",

	CodeUnknownAsset:   "Unknown asset",
	CodeUnknownVenue:   "Unknown venue",
	CodeUnknownNetwork: "Unknown network",

	CodeQuoteFailed:       "Failed to get quote",
	CodeInvalidQuote:      "Invalid quote data",
	CodeInvalidTradeSize:  "Invalid trade size",
	CodeCheckFailed:       "Profitability check failed",
	CodePriceUnavailable:  "Price unavailable",
	CodeInsufficientFunds: "Insufficient balance",

	CodeTransactionFailed:   "Transaction submission failed",
	CodeExecutionReverted:   "Transaction reverted",
	CodeWithdrawFailed:      "Withdrawal failed",
	CodeExecutionFatal:      "Execution failed after positive check",
	CodePositionOpenFailed:  "Failed to open position",
	CodePositionCloseFailed: "Failed to close position",
	CodeWalletLockHeld:      "Wallet lock held by another writer",

	CodeJournalWriteFailed: "Failed to write execution journal",
	CodeJournalUnavailable: "Execution journal unavailable",

	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
