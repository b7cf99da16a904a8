package apperror

// Class groups codes by how the engine loops react to them.
type Class int

const (
	ClassUnknown Class = iota
	// ClassTransient failures skip the iteration and are never cached.
	ClassTransient
	// ClassExecution failures are reverted or failed write transactions.
	ClassExecution
	// ClassFatal failures stop the process.
	ClassFatal
	// ClassConfiguration failures turn the operation into a no-op.
	ClassConfiguration
)

func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassExecution:
		return "execution"
	case ClassFatal:
		return "fatal"
	case ClassConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Classify returns the class of the outermost AppError in err.
func Classify(err error) Class {
	if err == nil {
		return ClassUnknown
	}

	switch GetCode(err) {
	case CodeExecutionFatal, CodeWithdrawFailed:
		return ClassFatal
	case CodeExecutionReverted, CodeTransactionFailed,
		CodePositionOpenFailed, CodePositionCloseFailed, CodeWalletLockHeld:
		return ClassExecution
	case CodeContractNotConfigured, CodeConfigurationError,
		CodeUnknownAsset, CodeUnknownVenue, CodeUnknownNetwork:
		return ClassConfiguration
	case CodeQuoteFailed, CodeCheckFailed, CodeEthereumRPCError,
		CodeEthereumConnectionFailed, CodeGasEstimationFailed,
		CodeContractCallFailed, CodePriceUnavailable,
		CodeCircuitOpen, CodeCircuitHalfOpen,
		CodeServiceTimeout, CodeServiceUnavailable, CodeRateLimitExceeded:
		return ClassTransient
	}
	return ClassUnknown
}

// IsFatal reports whether err must stop the process.
func IsFatal(err error) bool {
	return Classify(err) == ClassFatal
}

// IsNotConfigured reports whether err signals a missing contract or setting.
func IsNotConfigured(err error) bool {
	return HasCode(err, CodeContractNotConfigured)
}
