package factory

import (
	"errors"
	"fmt"
)

var (
	ErrNotBooted              = errors.New("foundry is not booted")
	ErrDependenciesBeforeBoot = errors.New("model factories with dependencies (model factory services) cannot be created before foundry is booted")
	ErrFactoryType            = errors.New("factory type mismatch")
	ErrUnknownState           = errors.New("unknown state")
	ErrUnknownAttribute       = errors.New("unknown attribute")
	ErrInvalidDefaults        = errors.New("invalid default attributes")
	ErrNoDatabase             = errors.New("no database configured")
	ErrNotPersisted           = errors.New("object is not persisted")
	ErrNotFound               = errors.New("object not found")
	ErrNotEnoughObjects       = errors.New("not enough persisted objects")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrServiceUnavailable     = errors.New("service unavailable")
	ErrNoPrimaryKey           = errors.New("model has no primary key")
)

// TypeError reports a hook or state that did not hand back a factory owned by
// the model factory it was called on.
type TypeError struct {
	Factory string
	Method  string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%q.%s() must return a factory of %q", e.Factory, e.Method, e.Factory)
}

func (e *TypeError) Unwrap() error {
	return ErrFactoryType
}
