// Package app contains the port definitions for the blockchain context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/defi-trader/business/blockchain/domain"
)

// GasOracle provides the current gas price.
type GasOracle interface {
	GetGasPrice(ctx context.Context) (*domain.GasPrice, error)
}

// TxSender signs transactions with the operator key, submits them and waits
// for them to be mined.
type TxSender interface {
	// From returns the operator address.
	From() common.Address
	// Call runs req as an eth_call from the operator address and returns the
	// raw return data.
	Call(ctx context.Context, req domain.TxRequest) ([]byte, error)
	// Send submits req and blocks until it is mined. A mined but reverted
	// transaction returns its receipt together with CodeExecutionReverted.
	Send(ctx context.Context, req domain.TxRequest) (*domain.TxReceipt, error)
}
