// Package journal holds journal backends that need no storage.
package journal

import (
	"context"
	"sync"

	"github.com/fd1az/defi-trader/business/execution/app"
	"github.com/fd1az/defi-trader/business/execution/domain"
)

var (
	_ app.Journal = Noop{}
	_ app.Journal = (*Memory)(nil)
)

// Noop discards records.
type Noop struct{}

func (Noop) Record(context.Context, *domain.Record) error { return nil }
func (Noop) Close() error                                 { return nil }

// Memory keeps records in memory; used by simulations.
type Memory struct {
	mu      sync.Mutex
	records []domain.Record
}

// NewMemory creates an empty in-memory journal.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Record(_ context.Context, rec *domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *rec)
	return nil
}

func (m *Memory) Close() error { return nil }

// Records returns a copy of everything recorded so far.
func (m *Memory) Records() []domain.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Record, len(m.records))
	copy(out, m.records)
	return out
}

// Count returns how many records of kind have status.
func (m *Memory) Count(kind domain.Kind, status domain.Status) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.records {
		if r.Kind == kind && r.Status == status {
			n++
		}
	}
	return n
}
