package factory

import (
	"context"
	"fmt"
	"maps"

	"github.com/brianvoe/gofakeit/v6"
)

// Attributes maps model field names (or column names) to values.
type Attributes map[string]any

// AttributesFunc produces attributes at build time.
type AttributesFunc func(faker *gofakeit.Faker) Attributes

// Merge returns a copy of a overlaid with others, later maps winning.
func (a Attributes) Merge(others ...Attributes) Attributes {
	merged := make(Attributes, len(a))
	maps.Copy(merged, a)
	for _, other := range others {
		maps.Copy(merged, other)
	}
	return merged
}

type attributeSet func(faker *gofakeit.Faker) Attributes

func staticSet(attrs Attributes) attributeSet {
	frozen := maps.Clone(attrs)
	return func(*gofakeit.Faker) Attributes {
		return frozen
	}
}

// toAttributeSet accepts the shapes allowed for default attributes.
func toAttributeSet(v any) (attributeSet, error) {
	switch a := v.(type) {
	case nil:
		return nil, nil
	case Attributes:
		return staticSet(a), nil
	case map[string]any:
		return staticSet(a), nil
	case AttributesFunc:
		return attributeSet(a), nil
	case func(*gofakeit.Faker) Attributes:
		return attributeSet(a), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidDefaults, v)
	}
}

// LazyValue is evaluated once for every object built.
type LazyValue struct {
	fn func() (any, error)
}

func Lazy(fn func() (any, error)) LazyValue {
	return LazyValue{fn: fn}
}

// SequenceValue receives the factory sequence number of the object built.
type SequenceValue struct {
	fn func(n int64) any
}

func Sequence(fn func(n int64) any) SequenceValue {
	return SequenceValue{fn: fn}
}

// attributeResolver is implemented by values that stand in for another model:
// factories, collections and proxies.
type attributeResolver interface {
	resolveAttribute(ctx context.Context, parent *Configuration, persist bool) (any, error)
}

func resolveAttributes(ctx context.Context, cfg *Configuration, attrs Attributes, seq int64, persist bool) (Attributes, error) {
	resolved := make(Attributes, len(attrs))

	for key, value := range attrs {
		v, err := resolveValue(ctx, cfg, value, seq, persist)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", key, err)
		}
		resolved[key] = v
	}

	return resolved, nil
}

func resolveValue(ctx context.Context, cfg *Configuration, value any, seq int64, persist bool) (any, error) {
	switch v := value.(type) {
	case LazyValue:
		out, err := v.fn()
		if err != nil {
			return nil, err
		}
		return resolveValue(ctx, cfg, out, seq, persist)
	case SequenceValue:
		return v.fn(seq), nil
	case attributeResolver:
		return v.resolveAttribute(ctx, cfg, persist)
	default:
		return value, nil
	}
}
