package asset

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Venue is a DEX router exposing getAmountsOut and swap entry points.
type Venue struct {
	name    string
	chainID uint64
	router  common.Address
}

// NewVenue validates and creates a Venue.
func NewVenue(chainID uint64, name string, router common.Address) (*Venue, error) {
	if name == "" {
		return nil, fmt.Errorf("venue: empty name")
	}
	if router == (common.Address{}) {
		return nil, fmt.Errorf("venue %s: zero router address", name)
	}
	return &Venue{name: name, chainID: chainID, router: router}, nil
}

// MustNewVenue is NewVenue for fixtures and tests.
func MustNewVenue(chainID uint64, name string, router common.Address) *Venue {
	v, err := NewVenue(chainID, name, router)
	if err != nil {
		panic(err)
	}
	return v
}

func (v *Venue) Name() string {
	return v.name
}

func (v *Venue) ChainID() uint64 {
	return v.chainID
}

func (v *Venue) Router() common.Address {
	return v.router
}

func (v *Venue) String() string {
	return v.name
}
