// Package ethereum provides the go-ethereum backed blockchain adapters.
package ethereum

const (
	tracerName = "github.com/fd1az/defi-trader/business/blockchain/infra/ethereum"
	meterName  = "github.com/fd1az/defi-trader/business/blockchain/infra/ethereum"
)
