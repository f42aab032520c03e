package engine

import (
	"fmt"
	"sync"

	"github.com/quorumworks/govscore/internal/event"
	"github.com/quorumworks/govscore/internal/processor"
)

// Registry maps event kinds to their processors. Adding a kind is a
// typed registration at startup, not another branch in a conditional.
// It is safe for concurrent reads; Register should only be called at
// startup.
type Registry struct {
	mu         sync.RWMutex
	processors map[event.Kind]processor.Processor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{processors: make(map[event.Kind]processor.Processor)}
}

// Register adds a processor. Panics on duplicate kind to surface
// misconfiguration early.
func (r *Registry) Register(p processor.Processor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.processors[p.Kind()]; exists {
		panic(fmt.Sprintf("processor registry: duplicate kind %q", p.Kind()))
	}
	r.processors[p.Kind()] = p
}

// Get returns the processor for the given kind.
func (r *Registry) Get(kind event.Kind) (processor.Processor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.processors[kind]
	if !ok {
		return nil, fmt.Errorf("no processor registered for kind %q", kind)
	}
	return p, nil
}

// Kinds returns all registered event kinds.
func (r *Registry) Kinds() []event.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]event.Kind, 0, len(r.processors))
	for k := range r.processors {
		out = append(out, k)
	}
	return out
}
