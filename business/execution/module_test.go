package execution

import (
	"testing"

	"github.com/fd1az/defi-trader/business/execution/infra/contract"
	"github.com/fd1az/defi-trader/business/execution/infra/paper"
	"github.com/fd1az/defi-trader/internal/config"
	"github.com/fd1az/defi-trader/internal/logger"
)

func TestRawGateway(t *testing.T) {
	log := logger.NewDiscard()
	gw, err := contract.NewGateway(contract.Config{}, nil, nil, log)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		mode     string
		gw       *contract.Gateway
		canSign  bool
		wantKind string
	}{
		{"paper mode", config.ExecutionPaper, gw, true, "paper"},
		{"live with signer", config.ExecutionLive, gw, true, "contract"},
		{"live without signer", config.ExecutionLive, gw, false, "disabled"},
		{"live without client", config.ExecutionLive, nil, false, "disabled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Execution.Mode = tt.mode

			got := rawGateway(cfg, tt.gw, tt.canSign, log)
			var kind string
			switch got.(type) {
			case *paper.Gateway:
				kind = "paper"
			case *contract.Gateway:
				kind = "contract"
			case contract.Disabled:
				kind = "disabled"
			}
			if kind != tt.wantKind {
				t.Errorf("gateway = %T, want %s", got, tt.wantKind)
			}
		})
	}
}
