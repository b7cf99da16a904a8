package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeServiceTimeout     Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Chain access
const (
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeGasEstimationFailed      Code = "GAS_ESTIMATION_FAILED"
	CodeContractCallFailed       Code = "CONTRACT_CALL_FAILED"
	CodeContractNotConfigured    Code = "CONTRACT_NOT_CONFIGURED"
	CodeWalletUnavailable        Code = "WALLET_UNAVAILABLE"
)

// Registry
const (
	CodeUnknownAsset   Code = "UNKNOWN_ASSET"
	CodeUnknownVenue   Code = "UNKNOWN_VENUE"
	CodeUnknownNetwork Code = "UNKNOWN_NETWORK"
)

// Quotes and profitability
const (
	CodeQuoteFailed       Code = "QUOTE_FAILED"
	CodeInvalidQuote      Code = "INVALID_QUOTE"
	CodeInvalidTradeSize  Code = "INVALID_TRADE_SIZE"
	CodeCheckFailed       Code = "CHECK_FAILED"
	CodePriceUnavailable  Code = "PRICE_UNAVAILABLE"
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
)

// Execution
const (
	CodeTransactionFailed   Code = "TRANSACTION_FAILED"
	CodeExecutionReverted   Code = "EXECUTION_REVERTED"
	CodeWithdrawFailed      Code = "WITHDRAW_FAILED"
	CodeExecutionFatal      Code = "EXECUTION_FATAL"
	CodePositionOpenFailed  Code = "POSITION_OPEN_FAILED"
	CodePositionCloseFailed Code = "POSITION_CLOSE_FAILED"
	CodeWalletLockHeld      Code = "WALLET_LOCK_HELD"
)

// Storage
const (
	CodeJournalWriteFailed Code = "JOURNAL_WRITE_FAILED"
	CodeJournalUnavailable Code = "JOURNAL_UNAVAILABLE"
)

// Circuit breaker
const (
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
