package index

import (
	"fmt"
	"sync"

	"github.com/xhad/sage/internal/types"
)

// ProviderFactory builds an embedding provider for a configured
// provider name.
type ProviderFactory func(name string) (types.EmbeddingProvider, error)

// Manager owns the process-wide index and keeps its provider binding
// sticky: as long as the configured provider name is unchanged, Get
// returns the same index instance. A name change transparently replaces
// the index with an empty one bound to the new provider, so vectors
// from incompatible embedding spaces are never mixed. Rebind and reset
// are serialized behind a single lock.
type Manager struct {
	mu      sync.Mutex
	factory ProviderFactory
	current *Index
	bound   string
}

func NewManager(factory ProviderFactory) *Manager {
	return &Manager{
		factory: factory,
	}
}

// Get returns the index bound to the given provider name, creating or
// replacing it lazily when needed.
func (m *Manager) Get(provider string) (*Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.bound == provider {
		return m.current, nil
	}

	p, err := m.factory(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to bind embedding provider %q: %w", provider, err)
	}

	m.current = New(p)
	m.bound = provider
	return m.current, nil
}

// Reset drops all entries and forgets the provider binding. The next
// Get rebinds lazily to whatever provider is configured then.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	m.bound = ""
}
