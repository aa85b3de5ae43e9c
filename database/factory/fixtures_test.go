package factory_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/galaplate/foundry/database/factory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type User struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `validate:"required"`
	Email string `gorm:"uniqueIndex" validate:"required,email"`
	Admin bool
}

type Post struct {
	ID        uint   `gorm:"primaryKey"`
	Title     string `validate:"required"`
	Slug      string
	Body      string
	Published bool
	Views     int
	AuthorID  uint
	Author    *User
	CreatedAt time.Time
}

type Blog struct {
	ID    uint `gorm:"primaryKey"`
	Name  string
	Notes []Note
}

type Note struct {
	ID     uint `gorm:"primaryKey"`
	BlogID uint
	Body   string
}

type userDefinition struct{}

func (userDefinition) Defaults(faker *gofakeit.Faker) factory.Attributes {
	return factory.Attributes{
		"Name": faker.Name(),
		"Email": factory.Sequence(func(n int64) any {
			return fmt.Sprintf("user%d@example.test", n)
		}),
	}
}

func (userDefinition) States() map[string]factory.State[User] {
	return map[string]factory.State[User]{
		"admin": func(f *factory.Factory[User]) *factory.Factory[User] {
			return f.With(factory.Attributes{"Admin": true})
		},
	}
}

var UserFactory = factory.Define[User]("UserFactory", factory.Static[User](userDefinition{}))

type postDefinition struct{}

func (postDefinition) Defaults(faker *gofakeit.Faker) factory.Attributes {
	return factory.Attributes{
		"Title":  faker.Sentence(3),
		"Body":   faker.Sentence(12),
		"Views":  0,
		"Author": UserFactory.MustNew(nil),
	}
}

func (postDefinition) Initialize(f *factory.Factory[Post]) *factory.Factory[Post] {
	return f.AfterInstantiate(func(p *Post, _ factory.Attributes) error {
		if p.Slug == "" {
			p.Slug = slugify(p.Title)
		}
		return nil
	})
}

func (postDefinition) States() map[string]factory.State[Post] {
	return map[string]factory.State[Post]{
		"published": func(f *factory.Factory[Post]) *factory.Factory[Post] {
			return f.With(factory.Attributes{"Published": true})
		},
		"draft": func(f *factory.Factory[Post]) *factory.Factory[Post] {
			return f.With(factory.Attributes{"Published": false})
		},
		"popular": func(f *factory.Factory[Post]) *factory.Factory[Post] {
			return f.With(factory.Attributes{"Views": 1000})
		},
		"viral": func(f *factory.Factory[Post]) *factory.Factory[Post] {
			return f.With(factory.Attributes{"Views": 1000000})
		},
	}
}

var PostFactory = factory.Define[Post]("PostFactory", factory.Static[Post](postDefinition{}))

// articleDefinition needs the "slug.prefix" service.
type articleDefinition struct {
	prefix string
}

func newArticleDefinition(services *factory.Services) (factory.Definition[Post], error) {
	prefix, err := factory.Resolve[string](services, "slug.prefix")
	if err != nil {
		return nil, err
	}
	return articleDefinition{prefix: prefix}, nil
}

func (d articleDefinition) Defaults(faker *gofakeit.Faker) factory.Attributes {
	title := faker.Sentence(3)
	return factory.Attributes{
		"Title":  title,
		"Slug":   d.prefix + slugify(title),
		"Author": UserFactory.MustNew(nil),
	}
}

var ArticleFactory = factory.Define[Post]("ArticleFactory", newArticleDefinition)

// hijackingDefinition hands back a factory of another model factory.
type hijackingDefinition struct{}

func (hijackingDefinition) Defaults(*gofakeit.Faker) factory.Attributes {
	return factory.Attributes{}
}

func (hijackingDefinition) Initialize(*factory.Factory[Post]) *factory.Factory[Post] {
	return PostFactory.MustNew(nil)
}

var HijackingFactory = factory.Define[Post]("HijackingFactory", factory.Static[Post](hijackingDefinition{}))

func slugify(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(strings.Trim(title, ".")), "-"))
}

func openDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:factory_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&User{}, &Post{}, &Blog{}, &Note{}))
	return db
}

func newConfiguration(t *testing.T, opts ...factory.Option) *factory.Configuration {
	t.Helper()
	return factory.NewConfiguration(openDatabase(t), append([]factory.Option{factory.WithSeed(42)}, opts...)...)
}

// boot makes cfg the global configuration for the duration of the test.
func boot(t *testing.T, cfg *factory.Configuration) {
	t.Helper()
	factory.Boot(cfg)
	t.Cleanup(factory.Shutdown)
}
