package factory

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/stretchr/testify/assert"
)

// Proxy wraps a model built by a factory and tracks whether it is stored.
// A Proxy is not safe for concurrent use.
type Proxy[T any] struct {
	cfg       *Configuration
	object    *T
	persisted bool
}

func newProxy[T any](cfg *Configuration, object *T, persisted bool) *Proxy[T] {
	return &Proxy[T]{cfg: cfg, object: object, persisted: persisted}
}

func (p *Proxy[T]) Object() *T {
	return p.object
}

func (p *Proxy[T]) IsPersisted() bool {
	return p.persisted
}

func (p *Proxy[T]) Repository() *RepositoryProxy[T] {
	return RepositoryFor[T](p.cfg)
}

// PrimaryKey returns the value of the prioritized primary key field.
func (p *Proxy[T]) PrimaryKey() (any, error) {
	s, err := schemaOf[T](p.cfg)
	if err != nil {
		return nil, err
	}
	if s.PrioritizedPrimaryField == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoPrimaryKey, s.Name)
	}

	value, _ := s.PrioritizedPrimaryField.ValueOf(context.Background(), reflect.ValueOf(p.object).Elem())
	return value, nil
}

// Get reads a field by Go name or column name.
func (p *Proxy[T]) Get(name string) (any, error) {
	s, err := schemaOf[T](p.cfg)
	if err != nil {
		return nil, err
	}

	field := s.LookUpField(name)
	if field == nil {
		return nil, fmt.Errorf("%w: %q on %s", ErrUnknownAttribute, name, s.Name)
	}

	value, _ := field.ValueOf(context.Background(), reflect.ValueOf(p.object).Elem())
	return value, nil
}

// Set writes a field by Go name or column name. The change is not stored
// until Save is called.
func (p *Proxy[T]) Set(name string, value any) error {
	s, err := schemaOf[T](p.cfg)
	if err != nil {
		return err
	}
	return assignAttributes(s, reflect.ValueOf(p.object).Elem(), Attributes{name: value}, false)
}

func (p *Proxy[T]) insert(ctx context.Context) error {
	db, err := p.cfg.database(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(p.object).Error; err != nil {
		return err
	}
	p.persisted = true
	return nil
}

func (p *Proxy[T]) Save(ctx context.Context) error {
	db, err := p.cfg.database(ctx)
	if err != nil {
		return err
	}
	if err := db.Save(p.object).Error; err != nil {
		return fmt.Errorf("save %s: %w", modelName[T](), err)
	}
	p.persisted = true
	return nil
}

// Refresh reloads the object from the database.
func (p *Proxy[T]) Refresh(ctx context.Context) error {
	if !p.persisted {
		return fmt.Errorf("refresh %s: %w", modelName[T](), ErrNotPersisted)
	}

	pk, err := p.PrimaryKey()
	if err != nil {
		return err
	}

	fresh, err := p.Repository().First(ctx, pk)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			p.persisted = false
		}
		return fmt.Errorf("refresh %s: %w", modelName[T](), err)
	}

	*p.object = *fresh.object
	return nil
}

// Remove deletes the object. Soft-deletable models are removed for good.
func (p *Proxy[T]) Remove(ctx context.Context) error {
	if !p.persisted {
		return fmt.Errorf("remove %s: %w", modelName[T](), ErrNotPersisted)
	}

	db, err := p.cfg.database(ctx)
	if err != nil {
		return err
	}
	if err := db.Unscoped().Delete(p.object).Error; err != nil {
		return fmt.Errorf("remove %s: %w", modelName[T](), err)
	}

	p.persisted = false
	return nil
}

func (p *Proxy[T]) AssertPersisted(t assert.TestingT, msgAndArgs ...any) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}

	if !p.persisted {
		return assert.Fail(t, fmt.Sprintf("%s is not persisted", modelName[T]()), msgAndArgs...)
	}

	pk, err := p.PrimaryKey()
	if !assert.NoError(t, err, msgAndArgs...) {
		return false
	}

	_, err = p.Repository().First(context.Background(), pk)
	if errors.Is(err, ErrNotFound) {
		return assert.Fail(t, fmt.Sprintf("%s %v is not in the database", modelName[T](), pk), msgAndArgs...)
	}
	return assert.NoError(t, err, msgAndArgs...)
}

func (p *Proxy[T]) AssertNotPersisted(t assert.TestingT, msgAndArgs ...any) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}

	if !p.persisted {
		return true
	}

	pk, err := p.PrimaryKey()
	if !assert.NoError(t, err, msgAndArgs...) {
		return false
	}

	_, err = p.Repository().First(context.Background(), pk)
	if err == nil {
		return assert.Fail(t, fmt.Sprintf("%s %v is persisted", modelName[T](), pk), msgAndArgs...)
	}
	return assert.ErrorIs(t, err, ErrNotFound, msgAndArgs...)
}

func (p *Proxy[T]) resolveAttribute(context.Context, *Configuration, bool) (any, error) {
	return p.object, nil
}

func (p *Proxy[T]) proxiedObject() any {
	return p.object
}
