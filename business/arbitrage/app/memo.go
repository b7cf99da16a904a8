package app

import (
	"context"
	"time"

	"github.com/fd1az/defi-trader/business/arbitrage/domain"
	"github.com/fd1az/defi-trader/internal/cache"
)

// Memoizer remembers routes that returned nothing so the scanner stops
// checking them. Entries never expire unless a TTL is set.
type Memoizer struct {
	routes *cache.Cache[domain.Route, struct{}]
	ttl    time.Duration
}

// NewMemoizer creates a memoizer. ttl <= 0 keeps entries for the process
// lifetime.
func NewMemoizer(ttl time.Duration) *Memoizer {
	var cleanup time.Duration
	if ttl > 0 {
		cleanup = ttl
	}
	return &Memoizer{
		routes: cache.New[domain.Route, struct{}](cleanup),
		ttl:    ttl,
	}
}

func (m *Memoizer) IsKnownUnprofitable(ctx context.Context, r domain.Route) bool {
	_, ok := m.routes.Get(ctx, r)
	return ok
}

// MarkUnprofitable is idempotent.
func (m *Memoizer) MarkUnprofitable(ctx context.Context, r domain.Route) {
	m.routes.Set(ctx, r, struct{}{}, m.ttl)
}

func (m *Memoizer) Len() int {
	return m.routes.Len()
}

// Close stops the expiry janitor.
func (m *Memoizer) Close() {
	m.routes.Close()
}
