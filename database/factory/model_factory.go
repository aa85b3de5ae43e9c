package factory

import (
	"context"
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
)

// Definition describes how a model factory fills a model.
type Definition[T any] interface {
	Defaults(faker *gofakeit.Faker) Attributes
}

// Initializer is implemented by definitions that adjust every new factory,
// typically to register instantiators or callbacks. Initialize must return
// the factory it received, or one derived from it.
type Initializer[T any] interface {
	Initialize(f *Factory[T]) *Factory[T]
}

// Stateful is implemented by definitions that expose named states.
type Stateful[T any] interface {
	States() map[string]State[T]
}

// State is a named transformation of a factory, usually a call to With.
type State[T any] func(f *Factory[T]) *Factory[T]

// Constructor creates a definition. services is nil before foundry is
// booted; constructors that need services must fail in that case.
type Constructor[T any] func(services *Services) (Definition[T], error)

// Static wraps a definition without dependencies.
func Static[T any](def Definition[T]) Constructor[T] {
	return func(*Services) (Definition[T], error) {
		return def, nil
	}
}

// ModelFactory is the entry point test code uses for one model: it creates
// factories from a definition and reaches the model's repository.
type ModelFactory[T any] struct {
	owner     *owner
	construct Constructor[T]
	cfg       *Configuration
}

// Define declares the model factory name for T.
func Define[T any](name string, construct Constructor[T]) *ModelFactory[T] {
	return &ModelFactory[T]{
		owner:     &owner{name: name},
		construct: construct,
	}
}

func (m *ModelFactory[T]) Name() string {
	return m.owner.name
}

// Using returns a copy of m bound to cfg; the copy ignores the booted
// configuration.
func (m *ModelFactory[T]) Using(cfg *Configuration) *ModelFactory[T] {
	c := *m
	c.cfg = cfg
	return &c
}

func (m *ModelFactory[T]) configuration() (*Configuration, error) {
	if m.cfg != nil {
		return m.cfg, nil
	}
	return Current()
}

func (m *ModelFactory[T]) definition() (Definition[T], error) {
	cfg, err := m.configuration()
	if err != nil {
		def, cerr := m.construct(nil)
		if cerr != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrDependenciesBeforeBoot, m.owner.name, cerr)
		}
		return def, nil
	}
	return resolveDefinition(cfg.Factories(), m.owner.name, m.construct, cfg.Services())
}

// New creates a factory. defaults is nil, Attributes, map[string]any,
// AttributesFunc or func(*gofakeit.Faker) Attributes; a string is taken as
// the first state name. The factory gets, in order: the definition defaults,
// defaults, the Initialize hook and every state.
func (m *ModelFactory[T]) New(defaults any, states ...string) (*Factory[T], error) {
	if state, ok := defaults.(string); ok {
		states = append([]string{state}, states...)
		defaults = nil
	}

	set, err := toAttributeSet(defaults)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.owner.name, err)
	}

	def, err := m.definition()
	if err != nil {
		return nil, err
	}

	f := newFactory[T](m.owner, m.cfg).
		withSet(attributeSet(def.Defaults)).
		withSet(set)

	if init, ok := def.(Initializer[T]); ok {
		initialized := init.Initialize(f)
		if !m.owns(initialized) {
			return nil, &TypeError{Factory: m.owner.name, Method: "Initialize"}
		}
		f = initialized
	}

	if len(states) == 0 {
		return f, nil
	}

	var table map[string]State[T]
	if stateful, ok := def.(Stateful[T]); ok {
		table = stateful.States()
	}

	for _, name := range states {
		state, ok := table[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q on %s", ErrUnknownState, name, m.owner.name)
		}

		next := state(f)
		if !m.owns(next) {
			return nil, &TypeError{Factory: m.owner.name, Method: name}
		}
		f = next
	}

	return f, nil
}

// MustNew is New for package-level fixtures; it panics on error.
func (m *ModelFactory[T]) MustNew(defaults any, states ...string) *Factory[T] {
	f, err := m.New(defaults, states...)
	if err != nil {
		panic(err)
	}
	return f
}

func (m *ModelFactory[T]) owns(f *Factory[T]) bool {
	return f != nil && f.owner == m.owner
}

// FindOrCreate returns the first stored object matching attrs, or creates
// one with them.
func (m *ModelFactory[T]) FindOrCreate(ctx context.Context, attrs Attributes) (*Proxy[T], error) {
	repo, err := m.Repository()
	if err != nil {
		return nil, err
	}

	found, err := repo.Find(ctx, attrs)
	if err != nil {
		return nil, err
	}
	if len(found) > 0 {
		return found[0], nil
	}

	f, err := m.New(nil)
	if err != nil {
		return nil, err
	}
	return f.Create(ctx, attrs)
}

func (m *ModelFactory[T]) Random(ctx context.Context) (*Proxy[T], error) {
	repo, err := m.Repository()
	if err != nil {
		return nil, err
	}
	return repo.Random(ctx)
}

func (m *ModelFactory[T]) RandomSet(ctx context.Context, n int) ([]*Proxy[T], error) {
	repo, err := m.Repository()
	if err != nil {
		return nil, err
	}
	return repo.RandomSet(ctx, n)
}

func (m *ModelFactory[T]) RandomRange(ctx context.Context, min, max int) ([]*Proxy[T], error) {
	repo, err := m.Repository()
	if err != nil {
		return nil, err
	}
	return repo.RandomRange(ctx, min, max)
}

func (m *ModelFactory[T]) Repository() (*RepositoryProxy[T], error) {
	cfg, err := m.configuration()
	if err != nil {
		return nil, err
	}
	return RepositoryFor[T](cfg), nil
}
