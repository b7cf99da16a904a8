package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TxRequest describes a contract call to sign and submit.
type TxRequest struct {
	To       common.Address
	Data     []byte
	Value    *big.Int // nil = 0
	GasLimit uint64
	Label    string // span and log name, e.g. "executeArbitrage"
}

// TxReceipt is the mined outcome of a submitted transaction.
type TxReceipt struct {
	Hash        common.Hash
	Success     bool
	GasUsed     uint64
	BlockNumber uint64
}
