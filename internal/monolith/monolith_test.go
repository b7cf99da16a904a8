package monolith

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/defi-trader/internal/asset"
	"github.com/fd1az/defi-trader/internal/config"
	"github.com/fd1az/defi-trader/internal/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestNew_OfflineAppliesContractOverrides(t *testing.T) {
	cfg := testConfig(t)
	cfg.Network.ArbitrageVault = "0x00000000000000000000000000000000000000a1"

	a, err := New(context.Background(), cfg, logger.NewDiscard(), Offline())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if a.Chain() != nil || a.Signer() != nil {
		t.Errorf("offline container should have neither chain nor signer")
	}
	addr, ok := a.Network().Contract(asset.ContractArbitrageVault)
	if !ok || addr != common.HexToAddress(cfg.Network.ArbitrageVault) {
		t.Errorf("vault = %s, %v", addr.Hex(), ok)
	}
	if a.Services().Get(ServiceNetwork) != a.Network() {
		t.Errorf("network service not registered")
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown network", func(c *config.Config) { c.Network.Name = "solana" }},
		{"bad override", func(c *config.Config) { c.Network.PerpPortal = "0x123" }},
		{"missing registry file", func(c *config.Config) { c.Network.RegistryPath = "/does/not/exist.yaml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			if _, err := New(context.Background(), cfg, logger.NewDiscard(), Offline()); err == nil {
				t.Errorf("New() expected error")
			}
		})
	}
}

func TestClose_ReverseOrder(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), logger.NewDiscard(), Offline())
	if err != nil {
		t.Fatal(err)
	}

	var order []int
	a.OnClose(func() error { order = append(order, 1); return nil })
	a.OnClose(func() error { order = append(order, 2); return errors.New("boom") })

	if err := a.Close(); err == nil {
		t.Errorf("Close() should surface closer errors")
	}
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Errorf("close order = %v, want [2 1]", order)
	}
}
