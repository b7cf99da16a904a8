// Package chain dials the JSON-RPC node and describes the subset of the
// client the engine depends on.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/fd1az/defi-trader/internal/apperror"
	"github.com/fd1az/defi-trader/internal/httpclient"
)

// Client is satisfied by *ethclient.Client.
type Client interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	Close()
}

var _ Client = (*ethclient.Client)(nil)

// Dial connects to url. HTTP endpoints go through the instrumented HTTP
// client; websocket and IPC endpoints use the go-ethereum defaults.
func Dial(ctx context.Context, url string, opts ...httpclient.Option) (*ethclient.Client, error) {
	var (
		rc  *rpc.Client
		err error
	)
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		hc, herr := httpclient.New(opts...)
		if herr != nil {
			return nil, herr
		}
		rc, err = rpc.DialOptions(ctx, url, rpc.WithHTTPClient(hc))
	} else {
		rc, err = rpc.DialContext(ctx, url)
	}
	if err != nil {
		return nil, apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext(redact(url)))
	}
	return ethclient.NewClient(rc), nil
}

// VerifyChainID fails when the node serves a different chain than expected.
func VerifyChainID(ctx context.Context, c Client, want uint64) error {
	got, err := c.ChainID(ctx)
	if err != nil {
		return apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("eth_chainId"))
	}
	if !got.IsUint64() || got.Uint64() != want {
		return apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(fmt.Sprintf("node chain id %s, network expects %d", got, want)))
	}
	return nil
}

// redact drops the path of provider URLs, which usually embeds an API key.
func redact(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	host, _, _ := strings.Cut(rest, "/")
	return scheme + "://" + host
}

// IsRevert reports whether err is a contract revert returned by the node,
// as opposed to a transport failure.
func IsRevert(err error) bool {
	if err == nil {
		return false
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}
