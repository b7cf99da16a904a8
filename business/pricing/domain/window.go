package domain

import "github.com/shopspring/decimal"

// DefaultWindowSize is the number of samples kept by a Window.
const DefaultWindowSize = 500

// Window is a bounded FIFO of decimal samples. Pushing onto a full window
// evicts the oldest sample. It is not safe for concurrent use; each engine
// owns its windows.
type Window struct {
	size    int
	samples []decimal.Decimal
}

// NewWindow creates a window holding at most size samples. A size <= 0
// uses DefaultWindowSize.
func NewWindow(size int) *Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Window{size: size, samples: make([]decimal.Decimal, 0, size)}
}

// Push appends v, evicting the oldest sample when full.
func (w *Window) Push(v decimal.Decimal) {
	if len(w.samples) == w.size {
		copy(w.samples, w.samples[1:])
		w.samples = w.samples[:w.size-1]
	}
	w.samples = append(w.samples, v)
}

// Values returns a copy of the samples, oldest first.
func (w *Window) Values() []decimal.Decimal {
	out := make([]decimal.Decimal, len(w.samples))
	copy(out, w.samples)
	return out
}

// Last returns the newest sample.
func (w *Window) Last() (decimal.Decimal, bool) {
	if len(w.samples) == 0 {
		return decimal.Zero, false
	}
	return w.samples[len(w.samples)-1], true
}

func (w *Window) Len() int {
	return len(w.samples)
}

func (w *Window) Cap() int {
	return w.size
}

// Clear drops every sample.
func (w *Window) Clear() {
	w.samples = w.samples[:0]
}
