package factory

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/galaplate/foundry/logger"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// RepositoryProxy queries the stored objects of type T. Criteria are either
// Attributes (equality on fields) or a primary key value.
type RepositoryProxy[T any] struct {
	cfg *Configuration
}

func (r *RepositoryProxy[T]) query(ctx context.Context, criteria []any) (*gorm.DB, error) {
	db, err := r.cfg.database(ctx)
	if err != nil {
		return nil, err
	}

	s, err := schemaOf[T](r.cfg)
	if err != nil {
		return nil, err
	}

	q := db.Model(new(T))
	for _, criterion := range criteria {
		switch c := criterion.(type) {
		case nil:
		case Attributes:
			conds, err := r.columns(c)
			if err != nil {
				return nil, err
			}
			q = q.Where(conds)
		case map[string]any:
			conds, err := r.columns(c)
			if err != nil {
				return nil, err
			}
			q = q.Where(conds)
		default:
			if s.PrioritizedPrimaryField == nil {
				return nil, fmt.Errorf("%w: %s", ErrNoPrimaryKey, s.Name)
			}
			q = q.Where(map[string]any{s.PrioritizedPrimaryField.DBName: c})
		}
	}

	if s.PrioritizedPrimaryField != nil {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: s.PrioritizedPrimaryField.DBName}})
	}

	return q, nil
}

func (r *RepositoryProxy[T]) columns(attrs map[string]any) (map[string]any, error) {
	s, err := schemaOf[T](r.cfg)
	if err != nil {
		return nil, err
	}

	conds := make(map[string]any, len(attrs))
	for key, value := range attrs {
		field := s.LookUpField(key)
		if field == nil {
			return nil, fmt.Errorf("%w: %q on %s", ErrUnknownAttribute, key, s.Name)
		}
		if field.DBName != "" {
			conds[field.DBName] = value
			continue
		}

		rel, ok := s.Relationships.Relations[field.Name]
		if !ok || rel.Type != schema.BelongsTo {
			return nil, fmt.Errorf("%w: %q on %s", ErrUnknownAttribute, key, s.Name)
		}
		if err := foreignKeyColumns(rel, value, conds); err != nil {
			return nil, fmt.Errorf("attribute %q: %w", key, err)
		}
	}
	return conds, nil
}

// foreignKeyColumns matches a belongs-to relation on the foreign keys of the
// related object, which may be a proxy, a pointer or a value. A nil related
// object matches null foreign keys.
func foreignKeyColumns(rel *schema.Relationship, value any, conds map[string]any) error {
	if p, ok := value.(interface{ proxiedObject() any }); ok {
		value = p.proxiedObject()
	}

	related := reflect.Indirect(reflect.ValueOf(value))
	if related.IsValid() && related.Type() != rel.FieldSchema.ModelType {
		return fmt.Errorf("%w: %T is not a %s", ErrInvalidArgument, value, rel.FieldSchema.Name)
	}

	for _, ref := range rel.References {
		if ref.PrimaryKey == nil || ref.OwnPrimaryKey {
			continue
		}
		if !related.IsValid() {
			conds[ref.ForeignKey.DBName] = nil
			continue
		}

		pk, zero := ref.PrimaryKey.ValueOf(context.Background(), related)
		if zero {
			return fmt.Errorf("%s: %w", rel.FieldSchema.Name, ErrNotPersisted)
		}
		conds[ref.ForeignKey.DBName] = pk
	}
	return nil
}

func (r *RepositoryProxy[T]) wrap(objects []T) []*Proxy[T] {
	proxies := make([]*Proxy[T], len(objects))
	for i := range objects {
		proxies[i] = newProxy(r.cfg, &objects[i], true)
	}
	return proxies
}

// Find returns every object matching criteria.
func (r *RepositoryProxy[T]) Find(ctx context.Context, criteria ...any) ([]*Proxy[T], error) {
	q, err := r.query(ctx, criteria)
	if err != nil {
		return nil, err
	}

	var objects []T
	if err := q.Find(&objects).Error; err != nil {
		return nil, fmt.Errorf("find %s: %w", modelName[T](), err)
	}
	return r.wrap(objects), nil
}

func (r *RepositoryProxy[T]) FindAll(ctx context.Context) ([]*Proxy[T], error) {
	return r.Find(ctx)
}

// First returns the first object matching criteria, or ErrNotFound.
func (r *RepositoryProxy[T]) First(ctx context.Context, criteria ...any) (*Proxy[T], error) {
	q, err := r.query(ctx, criteria)
	if err != nil {
		return nil, err
	}

	var object T
	if err := q.Limit(1).Take(&object).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Debug("repository miss", map[string]any{
				"model":    modelName[T](),
				"criteria": fmt.Sprintf("%v", criteria),
			})
			return nil, fmt.Errorf("%s: %w", modelName[T](), ErrNotFound)
		}
		return nil, fmt.Errorf("first %s: %w", modelName[T](), err)
	}
	return newProxy(r.cfg, &object, true), nil
}

func (r *RepositoryProxy[T]) Count(ctx context.Context, criteria ...any) (int64, error) {
	q, err := r.query(ctx, criteria)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", modelName[T](), err)
	}
	return count, nil
}

// Truncate deletes every stored T, soft-deleted rows included.
func (r *RepositoryProxy[T]) Truncate(ctx context.Context) error {
	db, err := r.cfg.database(ctx)
	if err != nil {
		return err
	}

	err = db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(new(T)).Error
	if err != nil {
		return fmt.Errorf("truncate %s: %w", modelName[T](), err)
	}
	return nil
}

// Random returns one stored object matching criteria.
func (r *RepositoryProxy[T]) Random(ctx context.Context, criteria ...any) (*Proxy[T], error) {
	set, err := r.RandomSet(ctx, 1, criteria...)
	if err != nil {
		return nil, err
	}
	return set[0], nil
}

// RandomSet returns n distinct stored objects matching criteria.
func (r *RepositoryProxy[T]) RandomSet(ctx context.Context, n int, criteria ...any) ([]*Proxy[T], error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: number must be positive (%d given)", ErrInvalidArgument, n)
	}
	return r.RandomRange(ctx, n, n, criteria...)
}

// RandomRange returns between min and max distinct stored objects matching
// criteria. At least max objects must be stored.
func (r *RepositoryProxy[T]) RandomRange(ctx context.Context, min, max int, criteria ...any) ([]*Proxy[T], error) {
	if min < 0 {
		return nil, fmt.Errorf("%w: min must be positive (%d given)", ErrInvalidArgument, min)
	}
	if max < min {
		return nil, fmt.Errorf("%w: max must be greater than min (%d < %d)", ErrInvalidArgument, max, min)
	}

	all, err := r.Find(ctx, criteria...)
	if err != nil {
		return nil, err
	}

	if len(all) < max {
		return nil, fmt.Errorf("%w: at least %d %q object(s) must have been persisted (%d persisted)",
			ErrNotEnoughObjects, max, modelName[T](), len(all))
	}

	faker := r.cfg.faker
	for i := len(all) - 1; i > 0; i-- {
		j := faker.Number(0, i)
		all[i], all[j] = all[j], all[i]
	}

	size := min
	if max > min {
		size = faker.Number(min, max)
	}
	return all[:size], nil
}

func (r *RepositoryProxy[T]) AssertCount(t assert.TestingT, expected int, criteria ...any) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}

	count, err := r.Count(context.Background(), criteria...)
	if !assert.NoError(t, err) {
		return false
	}
	return assert.Equal(t, int64(expected), count, "expected %d %s object(s), got %d", expected, modelName[T](), count)
}

func (r *RepositoryProxy[T]) AssertEmpty(t assert.TestingT, criteria ...any) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	return r.AssertCount(t, 0, criteria...)
}

func (r *RepositoryProxy[T]) AssertExists(t assert.TestingT, criteria ...any) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}

	count, err := r.Count(context.Background(), criteria...)
	if !assert.NoError(t, err) {
		return false
	}
	return assert.Positive(t, count, "expected %s matching %v to exist", modelName[T](), criteria)
}

func (r *RepositoryProxy[T]) AssertNotExists(t assert.TestingT, criteria ...any) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	return r.AssertCount(t, 0, criteria...)
}
