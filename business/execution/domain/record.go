package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kind of journaled operation.
type Kind string

const (
	KindArbitrage      Kind = "arbitrage"
	KindWithdraw       Kind = "withdraw"
	KindWithdrawNative Kind = "withdraw_native"
	KindOpenPosition   Kind = "open_position"
	KindClosePosition  Kind = "close_position"
	KindTrade          Kind = "trade"
	KindTradeWithdraw  Kind = "trade_withdraw"
)

// Record is one journaled write. Records are an audit trail and never feed
// back into trading decisions.
type Record struct {
	ID         uuid.UUID
	Kind       Kind
	Subject    string
	Operator   string
	AmountIn   string
	AmountOut  string
	TxHash     string
	Status     Status
	GasUsed    uint64
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewRecord starts a record for an operation about to be submitted.
func NewRecord(kind Kind, subject string, startedAt time.Time) *Record {
	return &Record{
		ID:        uuid.New(),
		Kind:      kind,
		Subject:   subject,
		StartedAt: startedAt,
	}
}

// Complete fills in the outcome. A nil receipt with an error is a failure
// before or during submission.
func (r *Record) Complete(receipt *Receipt, err error, finishedAt time.Time) {
	r.FinishedAt = finishedAt

	switch {
	case receipt != nil:
		r.TxHash = receipt.TxHash.Hex()
		r.GasUsed = receipt.GasUsed
		r.Status = receipt.Status
	case err != nil:
		r.Status = StatusFailed
	default:
		r.Status = StatusSkipped
	}

	if err != nil {
		r.Error = err.Error()
		if r.Status == StatusConfirmed {
			r.Status = StatusFailed
		}
	}
}

// Duration of the operation.
func (r *Record) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
