package factory

import (
	"fmt"
	"reflect"
	"sync"
)

// Services is the container handed to model factory constructors once foundry
// is booted. A nil *Services is valid and resolves nothing.
type Services struct {
	mu    sync.RWMutex
	items map[string]any
}

func NewServices() *Services {
	return &Services{items: make(map[string]any)}
}

// Set registers a service under name, replacing any previous one.
func (s *Services) Set(name string, service any) *Services {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[name] = service
	return s
}

func (s *Services) Has(name string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[name]
	return ok
}

func (s *Services) Get(name string) (any, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: %q (no service container)", ErrServiceUnavailable, name)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	service, ok := s.items[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrServiceUnavailable, name)
	}
	return service, nil
}

// Resolve fetches a service and asserts its type.
func Resolve[S any](s *Services, name string) (S, error) {
	var zero S

	service, err := s.Get(name)
	if err != nil {
		return zero, err
	}

	typed, ok := service.(S)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %T, not %s", ErrServiceUnavailable, name, service, reflect.TypeFor[S]())
	}
	return typed, nil
}
