package app

import (
	"errors"
	"math/rand/v2"

	"github.com/fd1az/defi-trader/business/arbitrage/domain"
	"github.com/fd1az/defi-trader/internal/asset"
)

// Sampler picks the next candidate to check.
type Sampler interface {
	// Next returns the next candidate. false marks the end of a pass; the
	// following call starts a new one.
	Next() (domain.Candidate, bool)
	// Size is the number of distinct valid candidates.
	Size() int
}

// ErrNoCandidates is returned when the scan set yields no valid route.
var ErrNoCandidates = errors.New("scan set has no valid candidates")

// Universe is the scan set: tradable assets and venues.
type Universe struct {
	Assets []domain.TradableAsset
	Venues []*asset.Venue
}

// Candidates enumerates every valid candidate in a fixed order: asset in,
// asset out, first venue, second venue.
func (u Universe) Candidates() []domain.Candidate {
	var out []domain.Candidate
	for _, in := range u.Assets {
		for _, o := range u.Assets {
			for _, from := range u.Venues {
				for _, to := range u.Venues {
					c := domain.Candidate{VenueFrom: from, VenueTo: to, AssetIn: in, AssetOut: o.Asset}
					if c.Valid() {
						out = append(out, c)
					}
				}
			}
		}
	}
	return out
}

// UniformRandom draws assets and venues independently and uniformly,
// redrawing invalid combinations. It never ends a pass.
type UniformRandom struct {
	universe Universe
	rng      *rand.Rand
	size     int
}

// NewUniformRandom creates a random sampler driven by rng.
func NewUniformRandom(u Universe, rng *rand.Rand) (*UniformRandom, error) {
	size := len(u.Candidates())
	if size == 0 {
		return nil, ErrNoCandidates
	}
	return &UniformRandom{universe: u, rng: rng, size: size}, nil
}

func (s *UniformRandom) Next() (domain.Candidate, bool) {
	for {
		c := domain.Candidate{
			AssetIn:   s.universe.Assets[s.rng.IntN(len(s.universe.Assets))],
			AssetOut:  s.universe.Assets[s.rng.IntN(len(s.universe.Assets))].Asset,
			VenueFrom: s.universe.Venues[s.rng.IntN(len(s.universe.Venues))],
			VenueTo:   s.universe.Venues[s.rng.IntN(len(s.universe.Venues))],
		}
		if c.Valid() {
			return c, true
		}
	}
}

func (s *UniformRandom) Size() int {
	return s.size
}

// Exhaustive walks every valid candidate once per pass.
type Exhaustive struct {
	candidates []domain.Candidate
	next       int
}

// NewExhaustive creates an exhaustive sampler.
func NewExhaustive(u Universe) (*Exhaustive, error) {
	candidates := u.Candidates()
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	return &Exhaustive{candidates: candidates}, nil
}

func (s *Exhaustive) Next() (domain.Candidate, bool) {
	if s.next == len(s.candidates) {
		s.next = 0
		return domain.Candidate{}, false
	}
	c := s.candidates[s.next]
	s.next++
	return c, true
}

func (s *Exhaustive) Size() int {
	return len(s.candidates)
}
