package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/defi-trader/internal/apperror"
)

type chainIDClient struct {
	*ethclient.Client
	id *big.Int
}

func (c chainIDClient) ChainID(context.Context) (*big.Int, error) { return c.id, nil }

func TestVerifyChainID(t *testing.T) {
	ctx := context.Background()

	if err := VerifyChainID(ctx, chainIDClient{id: big.NewInt(56)}, 56); err != nil {
		t.Errorf("VerifyChainID(56) error = %v", err)
	}

	err := VerifyChainID(ctx, chainIDClient{id: big.NewInt(1)}, 56)
	if apperror.GetCode(err) != apperror.CodeConfigurationError {
		t.Errorf("code = %v, want %v", apperror.GetCode(err), apperror.CodeConfigurationError)
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://bsc-mainnet.nodereal.io/v1/abcdef", "https://bsc-mainnet.nodereal.io"},
		{"ws://localhost:8546", "ws://localhost:8546"},
		{"/tmp/geth.ipc", "/tmp/geth.ipc"},
	}
	for _, tt := range tests {
		if got := redact(tt.in); got != tt.want {
			t.Errorf("redact(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type revertError struct{}

func (revertError) Error() string          { return "reverted" }
func (revertError) ErrorData() interface{} { return "0x08c379a0" }

func TestIsRevert(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"data error", revertError{}, true},
		{"message", errors.New("execution reverted: UniswapV2Library: INSUFFICIENT_LIQUIDITY"), true},
		{"transport", errors.New("dial tcp: connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRevert(tt.err); got != tt.want {
				t.Errorf("IsRevert() = %v, want %v", got, tt.want)
			}
		})
	}
}
