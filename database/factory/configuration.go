package factory

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/galaplate/foundry/config"
	"github.com/galaplate/foundry/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Configuration carries everything factories need at build time: the
// database, the faker, services for model factory constructors and the
// constructor registry.
type Configuration struct {
	db         *gorm.DB
	faker      *gofakeit.Faker
	services   *Services
	factories  *FactoryRegistry
	persist    atomic.Bool
	allowExtra bool
	validate   bool

	schemas      sync.Map
	mu           sync.Mutex
	repositories map[reflect.Type]any
}

type Option func(*Configuration)

func WithFaker(faker *gofakeit.Faker) Option {
	return func(c *Configuration) {
		c.faker = faker
	}
}

// WithSeed makes generated data reproducible.
func WithSeed(seed int64) Option {
	return func(c *Configuration) {
		c.faker = gofakeit.New(seed)
	}
}

func WithServices(services *Services) Option {
	return func(c *Configuration) {
		c.services = services
	}
}

func WithoutPersistence() Option {
	return func(c *Configuration) {
		c.persist.Store(false)
	}
}

func WithAllowExtraAttributes() Option {
	return func(c *Configuration) {
		c.allowExtra = true
	}
}

// WithValidation runs struct validation on every instantiated model.
func WithValidation() Option {
	return func(c *Configuration) {
		c.validate = true
	}
}

// NewConfiguration creates a configuration. db may be nil when persistence
// is disabled.
func NewConfiguration(db *gorm.DB, opts ...Option) *Configuration {
	c := &Configuration{
		db:           db,
		faker:        gofakeit.New(0),
		factories:    NewFactoryRegistry(),
		repositories: make(map[reflect.Type]any),
	}
	c.persist.Store(true)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FromConfig builds a configuration from the foundry.* configuration keys.
// Explicit options are applied after the configured values.
func FromConfig(db *gorm.DB, opts ...Option) *Configuration {
	var configured []Option

	if seed := config.ConfigInt64("foundry.seed"); seed != 0 {
		configured = append(configured, WithSeed(seed))
	}
	if config.GetGlobal().Has("foundry.auto_persist") && !config.ConfigBool("foundry.auto_persist") {
		configured = append(configured, WithoutPersistence())
	}
	if config.ConfigBool("foundry.allow_extra_attributes") {
		configured = append(configured, WithAllowExtraAttributes())
	}
	if config.ConfigBool("foundry.validate") {
		configured = append(configured, WithValidation())
	}

	return NewConfiguration(db, append(configured, opts...)...)
}

func (c *Configuration) DB() *gorm.DB {
	return c.db
}

func (c *Configuration) Faker() *gofakeit.Faker {
	return c.faker
}

func (c *Configuration) Services() *Services {
	return c.services
}

func (c *Configuration) Factories() *FactoryRegistry {
	return c.factories
}

func (c *Configuration) PersistenceEnabled() bool {
	return c.persist.Load()
}

func (c *Configuration) EnablePersistence() {
	c.persist.Store(true)
}

func (c *Configuration) DisablePersistence() {
	c.persist.Store(false)
}

func (c *Configuration) database(ctx context.Context) (*gorm.DB, error) {
	if c.db == nil {
		return nil, ErrNoDatabase
	}
	return c.db.WithContext(ctx), nil
}

func (c *Configuration) namer() schema.Namer {
	if c.db != nil && c.db.NamingStrategy != nil {
		return c.db.NamingStrategy
	}
	return schema.NamingStrategy{}
}

func schemaOf[T any](c *Configuration) (*schema.Schema, error) {
	s, err := schema.Parse(new(T), &c.schemas, c.namer())
	if err != nil {
		return nil, fmt.Errorf("parse schema of %s: %w", modelName[T](), err)
	}
	return s, nil
}

// RepositoryFor returns the repository proxy of T, cached per configuration.
func RepositoryFor[T any](c *Configuration) *RepositoryProxy[T] {
	key := reflect.TypeFor[T]()

	c.mu.Lock()
	defer c.mu.Unlock()

	if repo, ok := c.repositories[key]; ok {
		return repo.(*RepositoryProxy[T])
	}

	repo := &RepositoryProxy[T]{cfg: c}
	c.repositories[key] = repo
	return repo
}

var (
	bootMu sync.RWMutex
	booted *Configuration
)

// Boot makes cfg the process-wide configuration used by model factories that
// are not bound to one with Using.
func Boot(cfg *Configuration) {
	bootMu.Lock()
	defer bootMu.Unlock()

	booted = cfg
	logger.Info("foundry booted", map[string]any{
		"persist": cfg.PersistenceEnabled(),
		"has_db":  cfg.db != nil,
	})
}

func Shutdown() {
	bootMu.Lock()
	defer bootMu.Unlock()

	if booted != nil {
		logger.Info("foundry shut down")
	}
	booted = nil
}

func IsBooted() bool {
	bootMu.RLock()
	defer bootMu.RUnlock()
	return booted != nil
}

func Current() (*Configuration, error) {
	bootMu.RLock()
	defer bootMu.RUnlock()

	if booted == nil {
		return nil, ErrNotBooted
	}
	return booted, nil
}

func modelName[T any]() string {
	return reflect.TypeFor[T]().String()
}
