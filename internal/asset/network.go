package asset

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/defi-trader/internal/apperror"
)

// Chain IDs of the networks shipped in the default registry.
const (
	ChainIDEthereum = 1
	ChainIDBSC      = 56
	ChainIDPolygon  = 137
	ChainIDSepolia  = 11155111
	ChainIDLocal    = 31337
)

// ContractKind names an engine-facing contract deployed on a network.
type ContractKind string

const (
	ContractArbitrageVault ContractKind = "arbitrage_vault"
	ContractPerpPortal     ContractKind = "perp_portal"
	ContractTradeVault     ContractKind = "trade_vault"
)

// Network groups the venues, assets and contracts of one chain.
type Network struct {
	name        string
	chainID     uint64
	nativeAsset string

	venues    map[string]*Venue
	assets    map[string]*Asset
	contracts map[ContractKind]common.Address
}

// NewNetwork creates an empty network. Use AddVenue, AddAsset and
// SetContract while loading; a network is read-only once published through
// a Registry.
func NewNetwork(name string, chainID uint64, nativeAsset string) *Network {
	return &Network{
		name:        name,
		chainID:     chainID,
		nativeAsset: nativeAsset,
		venues:      make(map[string]*Venue),
		assets:      make(map[string]*Asset),
		contracts:   make(map[ContractKind]common.Address),
	}
}

func (n *Network) Name() string {
	return n.name
}

func (n *Network) ChainID() uint64 {
	return n.chainID
}

// NativeAsset returns the wrapped native token (e.g. WBNB), which prices the
// directional instrument.
func (n *Network) NativeAsset() (*Asset, error) {
	return n.Asset(n.nativeAsset)
}

// AddVenue registers v. Duplicate names are rejected.
func (n *Network) AddVenue(v *Venue) error {
	if _, ok := n.venues[v.Name()]; ok {
		return fmt.Errorf("network %s: duplicate venue %s", n.name, v.Name())
	}
	n.venues[v.Name()] = v
	return nil
}

// AddAsset registers a. Duplicate symbols are rejected.
func (n *Network) AddAsset(a *Asset) error {
	if _, ok := n.assets[a.Symbol()]; ok {
		return fmt.Errorf("network %s: duplicate asset %s", n.name, a.Symbol())
	}
	n.assets[a.Symbol()] = a
	return nil
}

// SetContract records a contract address. The zero address clears it.
func (n *Network) SetContract(kind ContractKind, addr common.Address) {
	if addr == (common.Address{}) {
		delete(n.contracts, kind)
		return
	}
	n.contracts[kind] = addr
}

// Contract returns the address for kind and whether it is configured.
func (n *Network) Contract(kind ContractKind) (common.Address, bool) {
	addr, ok := n.contracts[kind]
	return addr, ok
}

// Asset resolves a symbol.
func (n *Network) Asset(symbol string) (*Asset, error) {
	a, ok := n.assets[symbol]
	if !ok {
		return nil, apperror.New(apperror.CodeUnknownAsset,
			apperror.WithContext(fmt.Sprintf("%s on %s", symbol, n.name)))
	}
	return a, nil
}

// Venue resolves a venue name.
func (n *Network) Venue(name string) (*Venue, error) {
	v, ok := n.venues[name]
	if !ok {
		return nil, apperror.New(apperror.CodeUnknownVenue,
			apperror.WithContext(fmt.Sprintf("%s on %s", name, n.name)))
	}
	return v, nil
}

// Assets resolves symbols in order, failing on the first unknown one.
func (n *Network) Assets(symbols []string) ([]*Asset, error) {
	out := make([]*Asset, 0, len(symbols))
	for _, s := range symbols {
		a, err := n.Asset(s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Venues resolves names in order, failing on the first unknown one.
func (n *Network) Venues(names []string) ([]*Venue, error) {
	out := make([]*Venue, 0, len(names))
	for _, name := range names {
		v, err := n.Venue(name)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// VenueByRouter finds the venue registered for a router address.
func (n *Network) VenueByRouter(router common.Address) (*Venue, bool) {
	for _, v := range n.venues {
		if v.Router() == router {
			return v, true
		}
	}
	return nil, false
}

// VenueNames returns all venue names sorted.
func (n *Network) VenueNames() []string {
	names := make([]string, 0, len(n.venues))
	for name := range n.venues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AssetSymbols returns all asset symbols sorted.
func (n *Network) AssetSymbols() []string {
	symbols := make([]string, 0, len(n.assets))
	for s := range n.assets {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
