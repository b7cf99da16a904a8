package app

import (
	"context"
	"testing"
	"time"

	"github.com/fd1az/defi-trader/business/arbitrage/domain"
)

func TestMemoizer(t *testing.T) {
	ctx := context.Background()
	m := NewMemoizer(0)
	defer m.Close()

	r := domain.Route{VenueFrom: "PancakeSwap", VenueTo: "BiSwap", AssetIn: "WBNB", AssetOut: "BUSD"}
	swapped := domain.Route{VenueFrom: "BiSwap", VenueTo: "PancakeSwap", AssetIn: "WBNB", AssetOut: "BUSD"}

	if m.IsKnownUnprofitable(ctx, r) {
		t.Fatalf("empty memo reports %s", r)
	}

	m.MarkUnprofitable(ctx, r)
	m.MarkUnprofitable(ctx, r)

	if !m.IsKnownUnprofitable(ctx, r) {
		t.Errorf("route not memoized")
	}
	if m.IsKnownUnprofitable(ctx, swapped) {
		t.Errorf("swapped venue order must be a different key")
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after marking twice", m.Len())
	}
}

func TestMemoizer_TTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemoizer(20 * time.Millisecond)
	defer m.Close()

	r := domain.Route{VenueFrom: "A", VenueTo: "B", AssetIn: "X", AssetOut: "Y"}
	m.MarkUnprofitable(ctx, r)
	if !m.IsKnownUnprofitable(ctx, r) {
		t.Fatalf("route not memoized")
	}

	time.Sleep(50 * time.Millisecond)
	if m.IsKnownUnprofitable(ctx, r) {
		t.Errorf("route should have expired")
	}
}
