package factory

import (
	"context"
	"fmt"
	"reflect"

	"gorm.io/gorm/schema"
)

// Instantiator turns resolved attributes into a model.
type Instantiator[T any] interface {
	Instantiate(s *schema.Schema, attrs Attributes) (*T, error)
}

type InstantiatorFunc[T any] func(s *schema.Schema, attrs Attributes) (*T, error)

func (fn InstantiatorFunc[T]) Instantiate(s *schema.Schema, attrs Attributes) (*T, error) {
	return fn(s, attrs)
}

// DefaultInstantiator assigns every attribute to the model field with the
// same Go name or column name.
type DefaultInstantiator[T any] struct {
	AllowExtraAttributes bool
}

func (d DefaultInstantiator[T]) Instantiate(s *schema.Schema, attrs Attributes) (*T, error) {
	obj := new(T)
	if err := assignAttributes(s, reflect.ValueOf(obj).Elem(), attrs, d.AllowExtraAttributes); err != nil {
		return nil, err
	}
	return obj, nil
}

func assignAttributes(s *schema.Schema, rv reflect.Value, attrs Attributes, allowExtra bool) error {
	ctx := context.Background()

	for key, value := range attrs {
		field := s.LookUpField(key)
		if field == nil {
			if allowExtra {
				continue
			}
			return fmt.Errorf("%w: %q on %s", ErrUnknownAttribute, key, s.Name)
		}

		if err := field.Set(ctx, rv, toFieldSlice(field.FieldType, value)); err != nil {
			return fmt.Errorf("set %s.%s: %w", s.Name, field.Name, err)
		}
	}

	return nil
}

// toFieldSlice copies a []*E into a new slice of fieldType when the field
// holds E values, as has-many fields usually do.
func toFieldSlice(fieldType reflect.Type, value any) any {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice || fieldType.Kind() != reflect.Slice {
		return value
	}

	elem := rv.Type().Elem()
	if elem.Kind() != reflect.Pointer || elem.Elem() != fieldType.Elem() {
		return value
	}

	out := reflect.MakeSlice(fieldType, rv.Len(), rv.Len())
	for i := range rv.Len() {
		if item := rv.Index(i); !item.IsNil() {
			out.Index(i).Set(item.Elem())
		}
	}
	return out.Interface()
}
