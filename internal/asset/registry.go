package asset

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fd1az/defi-trader/internal/apperror"
)

// Registry is a thread-safe set of networks keyed by name.
type Registry struct {
	networks map[string]*Network
	mu       sync.RWMutex
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{networks: make(map[string]*Network)}
}

// Register adds a network. Names must be unique.
func (r *Registry) Register(n *Network) error {
	if n == nil {
		return fmt.Errorf("asset: cannot register nil network")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.networks[n.Name()]; exists {
		return fmt.Errorf("asset: network %s already registered", n.Name())
	}
	r.networks[n.Name()] = n
	return nil
}

// Network retrieves a network by name.
func (r *Registry) Network(name string) (*Network, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.networks[name]
	if !ok {
		return nil, apperror.New(apperror.CodeUnknownNetwork, apperror.WithContext(name))
	}
	return n, nil
}

// Names returns the registered network names sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.networks))
	for name := range r.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
