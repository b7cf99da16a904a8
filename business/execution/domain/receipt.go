package domain

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/defi-trader/internal/apperror"
)

// ErrNotConfigured is returned when the contract an operation needs has no
// address on the current network. Engines treat it as a dry run.
var ErrNotConfigured = apperror.New(apperror.CodeContractNotConfigured)

// Status of a write operation.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusReverted  Status = "reverted"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Receipt is the outcome of a mined write.
type Receipt struct {
	TxHash      common.Hash
	Status      Status
	GasUsed     uint64
	BlockNumber uint64
	Paper       bool
}

// Confirmed reports whether the write succeeded on chain.
func (r *Receipt) Confirmed() bool {
	return r != nil && r.Status == StatusConfirmed
}

// TradeHandle identifies an open position on the perpetual portal.
type TradeHandle common.Hash

// IsZero reports whether the portal returned no handle.
func (h TradeHandle) IsZero() bool {
	return h == TradeHandle{}
}

func (h TradeHandle) String() string {
	return common.Hash(h).Hex()
}
