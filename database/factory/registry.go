package factory

import (
	"fmt"
	"sync"

	"github.com/galaplate/foundry/logger"
)

// FactoryRegistry resolves model factory definitions once foundry is booted.
// Constructors registered here replace the one given to Define, which lets a
// test suite swap in definitions wired to its own services.
type FactoryRegistry struct {
	mu           sync.RWMutex
	constructors map[string]any
}

func NewFactoryRegistry() *FactoryRegistry {
	return &FactoryRegistry{constructors: make(map[string]any)}
}

// RegisterConstructor overrides the constructor of the model factory named name.
func RegisterConstructor[T any](r *FactoryRegistry, name string, construct Constructor[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[name] = construct
}

func (r *FactoryRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.constructors[name]
	return ok
}

func resolveDefinition[T any](r *FactoryRegistry, name string, fallback Constructor[T], services *Services) (Definition[T], error) {
	construct := fallback

	r.mu.RLock()
	registered, ok := r.constructors[name]
	r.mu.RUnlock()

	if ok {
		typed, valid := registered.(Constructor[T])
		if !valid {
			return nil, fmt.Errorf("%w: constructor registered for %q is %T", ErrFactoryType, name, registered)
		}
		construct = typed
	}

	def, err := construct(services)
	if err != nil {
		return nil, fmt.Errorf("create model factory %q: %w", name, err)
	}

	logger.Debug("model factory resolved", map[string]any{
		"factory":    name,
		"overridden": ok,
	})

	return def, nil
}
