package asset

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

//go:embed networks.yaml
var defaultNetworksYAML []byte

type registryFile struct {
	Networks map[string]networkFile `yaml:"networks"`
}

type networkFile struct {
	ChainID     uint64               `yaml:"chain_id"`
	NativeAsset string               `yaml:"native_asset"`
	Contracts   map[string]string    `yaml:"contracts"`
	Venues      map[string]string    `yaml:"venues"`
	Assets      map[string]assetFile `yaml:"assets"`
}

type assetFile struct {
	Address  string `yaml:"address"`
	Decimals uint8  `yaml:"decimals"`
}

// DefaultRegistry parses the embedded registry.
func DefaultRegistry() (*Registry, error) {
	return ParseRegistry(defaultNetworksYAML)
}

// LoadRegistry reads a registry file. An empty path returns the embedded
// default registry.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("asset: read registry %s: %w", path, err)
	}
	return ParseRegistry(data)
}

// ParseRegistry builds a registry from YAML, validating every address.
func ParseRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("asset: parse registry: %w", err)
	}
	if len(file.Networks) == 0 {
		return nil, fmt.Errorf("asset: registry has no networks")
	}

	reg := NewRegistry()
	for name, nf := range file.Networks {
		n, err := buildNetwork(name, nf)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(n); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func buildNetwork(name string, nf networkFile) (*Network, error) {
	if nf.ChainID == 0 {
		return nil, fmt.Errorf("asset: network %s: chain_id is required", name)
	}

	n := NewNetwork(name, nf.ChainID, nf.NativeAsset)

	for venueName, router := range nf.Venues {
		addr, err := parseAddress(router)
		if err != nil {
			return nil, fmt.Errorf("asset: network %s venue %s: %w", name, venueName, err)
		}
		v, err := NewVenue(nf.ChainID, venueName, addr)
		if err != nil {
			return nil, err
		}
		if err := n.AddVenue(v); err != nil {
			return nil, err
		}
	}

	for symbol, af := range nf.Assets {
		addr, err := parseAddress(af.Address)
		if err != nil {
			return nil, fmt.Errorf("asset: network %s asset %s: %w", name, symbol, err)
		}
		a, err := NewAsset(nf.ChainID, symbol, addr, af.Decimals)
		if err != nil {
			return nil, err
		}
		if err := n.AddAsset(a); err != nil {
			return nil, err
		}
	}

	for kind, raw := range nf.Contracts {
		if raw == "" {
			continue
		}
		addr, err := parseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("asset: network %s contract %s: %w", name, kind, err)
		}
		n.SetContract(ContractKind(kind), addr)
	}

	if nf.NativeAsset != "" {
		if _, err := n.Asset(nf.NativeAsset); err != nil {
			return nil, fmt.Errorf("asset: network %s: native asset %s is not listed", name, nf.NativeAsset)
		}
	}

	return n, nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}
