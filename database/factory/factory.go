package factory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync/atomic"

	"github.com/galaplate/foundry/logger"
	"github.com/galaplate/foundry/supports"
)

// owner identifies the model factory a Factory belongs to; factories derived
// from one model factory share its sequence.
type owner struct {
	name string
	seq  atomic.Int64
}

// Factory builds and persists models of type T. A Factory is immutable: every
// modifier returns a new Factory, so a base factory can be shared freely.
type Factory[T any] struct {
	owner        *owner
	cfg          *Configuration
	sets         []attributeSet
	before       []func(Attributes) (Attributes, error)
	afterBuild   []func(*T, Attributes) error
	afterPersist []func(*Proxy[T], Attributes) error
	instantiator Instantiator[T]
	persist      bool
}

// NewFactory returns an anonymous factory for T, useful for models that do
// not deserve their own model factory.
func NewFactory[T any](defaults ...Attributes) *Factory[T] {
	f := newFactory[T](&owner{name: modelName[T]()}, nil)
	for _, attrs := range defaults {
		f.sets = append(f.sets, staticSet(attrs))
	}
	return f
}

func newFactory[T any](o *owner, cfg *Configuration) *Factory[T] {
	return &Factory[T]{
		owner:   o,
		cfg:     cfg,
		persist: true,
	}
}

func (f *Factory[T]) clone() *Factory[T] {
	c := *f
	c.sets = slices.Clone(f.sets)
	c.before = slices.Clone(f.before)
	c.afterBuild = slices.Clone(f.afterBuild)
	c.afterPersist = slices.Clone(f.afterPersist)
	return &c
}

// Name is the name of the owning model factory.
func (f *Factory[T]) Name() string {
	return f.owner.name
}

// With layers attrs over everything set so far.
func (f *Factory[T]) With(attrs Attributes) *Factory[T] {
	c := f.clone()
	c.sets = append(c.sets, staticSet(attrs))
	return c
}

// WithFunc layers attributes computed at build time.
func (f *Factory[T]) WithFunc(fn AttributesFunc) *Factory[T] {
	c := f.clone()
	c.sets = append(c.sets, attributeSet(fn))
	return c
}

func (f *Factory[T]) withSet(set attributeSet) *Factory[T] {
	if set == nil {
		return f
	}
	c := f.clone()
	c.sets = append(c.sets, set)
	return c
}

func (f *Factory[T]) WithoutPersisting() *Factory[T] {
	c := f.clone()
	c.persist = false
	return c
}

func (f *Factory[T]) Persisting() *Factory[T] {
	c := f.clone()
	c.persist = true
	return c
}

// Using binds the factory to cfg instead of the booted configuration.
func (f *Factory[T]) Using(cfg *Configuration) *Factory[T] {
	c := f.clone()
	c.cfg = cfg
	return c
}

func (f *Factory[T]) InstantiateWith(instantiator Instantiator[T]) *Factory[T] {
	c := f.clone()
	c.instantiator = instantiator
	return c
}

func (f *Factory[T]) BeforeInstantiate(fn func(Attributes) (Attributes, error)) *Factory[T] {
	c := f.clone()
	c.before = append(c.before, fn)
	return c
}

func (f *Factory[T]) AfterInstantiate(fn func(*T, Attributes) error) *Factory[T] {
	c := f.clone()
	c.afterBuild = append(c.afterBuild, fn)
	return c
}

// AfterPersist callbacks run once the object is stored; the object is saved
// again after they ran.
func (f *Factory[T]) AfterPersist(fn func(*Proxy[T], Attributes) error) *Factory[T] {
	c := f.clone()
	c.afterPersist = append(c.afterPersist, fn)
	return c
}

func (f *Factory[T]) Many(n int) *Collection[T] {
	return &Collection[T]{factory: f, min: n, max: n}
}

func (f *Factory[T]) ManyRange(min, max int) *Collection[T] {
	return &Collection[T]{factory: f, min: min, max: max}
}

// Build instantiates a model without persisting it.
func (f *Factory[T]) Build(ctx context.Context, overrides ...Attributes) (*T, error) {
	cfg, err := f.configuration(nil)
	if err != nil {
		return nil, err
	}

	obj, _, err := f.build(ctx, cfg, false, overrides)
	return obj, err
}

// Create instantiates a model and persists it unless persistence is turned off
// on the factory or the configuration.
func (f *Factory[T]) Create(ctx context.Context, overrides ...Attributes) (*Proxy[T], error) {
	cfg, err := f.configuration(nil)
	if err != nil {
		return nil, err
	}
	return f.create(ctx, cfg, overrides)
}

func (f *Factory[T]) CreateMany(ctx context.Context, n int, overrides ...Attributes) ([]*Proxy[T], error) {
	return f.Many(n).Create(ctx, overrides...)
}

func (f *Factory[T]) CreateRange(ctx context.Context, min, max int, overrides ...Attributes) ([]*Proxy[T], error) {
	return f.ManyRange(min, max).Create(ctx, overrides...)
}

func (f *Factory[T]) configuration(parent *Configuration) (*Configuration, error) {
	if f.cfg != nil {
		return f.cfg, nil
	}
	if parent != nil {
		return parent, nil
	}
	return Current()
}

func (f *Factory[T]) create(ctx context.Context, cfg *Configuration, overrides []Attributes) (*Proxy[T], error) {
	persist := f.persist && cfg.PersistenceEnabled()

	obj, attrs, err := f.build(ctx, cfg, persist, overrides)
	if err != nil {
		return nil, err
	}

	proxy := newProxy(cfg, obj, false)
	if !persist {
		return proxy, nil
	}

	if err := proxy.insert(ctx); err != nil {
		return nil, fmt.Errorf("persist %s: %w", f.owner.name, err)
	}

	if len(f.afterPersist) > 0 {
		for _, fn := range f.afterPersist {
			if err := fn(proxy, attrs); err != nil {
				return nil, fmt.Errorf("after persist %s: %w", f.owner.name, err)
			}
		}
		if err := proxy.Save(ctx); err != nil {
			return nil, fmt.Errorf("persist %s: %w", f.owner.name, err)
		}
	}

	logger.Debug("factory object created", map[string]any{
		"factory": f.owner.name,
		"model":   modelName[T](),
	})

	return proxy, nil
}

func (f *Factory[T]) build(ctx context.Context, cfg *Configuration, persist bool, overrides []Attributes) (*T, Attributes, error) {
	seq := f.owner.seq.Add(1)

	merged := make(Attributes)
	for _, set := range f.sets {
		maps.Copy(merged, set(cfg.faker))
	}
	for _, attrs := range overrides {
		maps.Copy(merged, attrs)
	}

	attrs, err := resolveAttributes(ctx, cfg, merged, seq, persist)
	if err != nil {
		return nil, nil, fmt.Errorf("build %s: %w", f.owner.name, err)
	}

	for _, fn := range f.before {
		if attrs, err = fn(attrs); err != nil {
			return nil, nil, fmt.Errorf("before instantiate %s: %w", f.owner.name, err)
		}
	}

	s, err := schemaOf[T](cfg)
	if err != nil {
		return nil, nil, err
	}

	instantiator := f.instantiator
	if instantiator == nil {
		instantiator = DefaultInstantiator[T]{AllowExtraAttributes: cfg.allowExtra}
	}

	obj, err := instantiator.Instantiate(s, attrs)
	if err != nil {
		return nil, nil, fmt.Errorf("instantiate %s: %w", f.owner.name, err)
	}

	if cfg.validate {
		if err := supports.Validate(obj); err != nil {
			return nil, nil, fmt.Errorf("validate %s: %w", f.owner.name, err)
		}
	}

	for _, fn := range f.afterBuild {
		if err := fn(obj, attrs); err != nil {
			return nil, nil, fmt.Errorf("after instantiate %s: %w", f.owner.name, err)
		}
	}

	return obj, attrs, nil
}

func (f *Factory[T]) resolveAttribute(ctx context.Context, parent *Configuration, persist bool) (any, error) {
	cfg, err := f.configuration(parent)
	if err != nil {
		return nil, err
	}

	if !persist {
		obj, _, err := f.build(ctx, cfg, false, nil)
		return obj, err
	}

	proxy, err := f.create(ctx, cfg, nil)
	if err != nil {
		return nil, err
	}
	return proxy.Object(), nil
}

// Collection creates several objects from one factory.
type Collection[T any] struct {
	factory  *Factory[T]
	min, max int
}

func (c *Collection[T]) Create(ctx context.Context, overrides ...Attributes) ([]*Proxy[T], error) {
	cfg, err := c.factory.configuration(nil)
	if err != nil {
		return nil, err
	}
	return c.create(ctx, cfg, overrides)
}

func (c *Collection[T]) size(cfg *Configuration) (int, error) {
	if c.min < 0 || c.max < c.min {
		return 0, fmt.Errorf("%w: collection range [%d, %d]", ErrInvalidArgument, c.min, c.max)
	}
	if c.min == c.max {
		return c.min, nil
	}
	return cfg.faker.Number(c.min, c.max), nil
}

func (c *Collection[T]) create(ctx context.Context, cfg *Configuration, overrides []Attributes) ([]*Proxy[T], error) {
	n, err := c.size(cfg)
	if err != nil {
		return nil, err
	}

	proxies := make([]*Proxy[T], 0, n)
	for range n {
		proxy, err := c.factory.create(ctx, cfg, overrides)
		if err != nil {
			return nil, err
		}
		proxies = append(proxies, proxy)
	}
	return proxies, nil
}

func (c *Collection[T]) resolveAttribute(ctx context.Context, parent *Configuration, persist bool) (any, error) {
	cfg, err := c.factory.configuration(parent)
	if err != nil {
		return nil, err
	}

	n, err := c.size(cfg)
	if err != nil {
		return nil, err
	}

	objects := make([]*T, 0, n)
	for range n {
		obj, err := c.factory.resolveAttribute(ctx, cfg, persist)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj.(*T))
	}
	return objects, nil
}
