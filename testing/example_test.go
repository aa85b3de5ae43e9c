package testing_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/galaplate/foundry/database/factory"
	foundrytesting "github.com/galaplate/foundry/testing"
	"github.com/stretchr/testify/suite"
)

type Customer struct {
	ID     uint `gorm:"primaryKey"`
	Name   string
	Email  string `gorm:"uniqueIndex"`
	Active bool
}

type Order struct {
	ID         uint `gorm:"primaryKey"`
	Reference  string
	Total      int
	CustomerID uint
	Customer   *Customer
}

type customerDefinition struct{}

func (customerDefinition) Defaults(faker *gofakeit.Faker) factory.Attributes {
	return factory.Attributes{
		"Name":   faker.Name(),
		"Active": true,
		"Email": factory.Sequence(func(n int64) any {
			return fmt.Sprintf("customer%d@example.test", n)
		}),
	}
}

func (customerDefinition) States() map[string]factory.State[Customer] {
	return map[string]factory.State[Customer]{
		"inactive": func(f *factory.Factory[Customer]) *factory.Factory[Customer] {
			return f.With(factory.Attributes{"Active": false})
		},
	}
}

var CustomerFactory = factory.Define[Customer]("CustomerFactory", factory.Static[Customer](customerDefinition{}))

type orderDefinition struct{}

func (orderDefinition) Defaults(faker *gofakeit.Faker) factory.Attributes {
	return factory.Attributes{
		"Reference": faker.Regex("ORD-[0-9]{6}"),
		"Total":     faker.Number(100, 10000),
		"Customer":  CustomerFactory.MustNew(nil),
	}
}

var OrderFactory = factory.Define[Order]("OrderFactory", factory.Static[Order](orderDefinition{}))

func suiteConfig(t *testing.T) *foundrytesting.TestConfig {
	t.Setenv("FOUNDRY_LOGS_DIR", t.TempDir())

	cfg := foundrytesting.DefaultTestConfig()
	cfg.ConfigPath = ""
	cfg.Models = []any{&Customer{}, &Order{}}
	cfg.Seed = 1234
	return cfg
}

type OrderSuite struct {
	foundrytesting.ResetDatabase
}

func (s *OrderSuite) SetupSuite() {
	s.Config = suiteConfig(s.T())
}

func (s *OrderSuite) TestOrdersCreateTheirCustomer() {
	ctx := context.Background()

	orders, err := OrderFactory.MustNew(nil).CreateMany(ctx, 3)
	s.Require().NoError(err)
	s.Len(orders, 3)

	db := foundrytesting.NewDatabaseHelper(&s.TestCase)
	db.AssertDatabaseCount("orders", 3)
	db.AssertDatabaseCount("customers", 3)
	db.AssertDatabaseHas("customers", map[string]any{"id": orders[0].Object().CustomerID})
}

func (s *OrderSuite) TestSharedCustomer() {
	ctx := context.Background()

	customer, err := CustomerFactory.MustNew("inactive").Create(ctx)
	s.Require().NoError(err)

	_, err = OrderFactory.MustNew(factory.Attributes{"Customer": customer}).CreateMany(ctx, 2)
	s.Require().NoError(err)

	repo, err := OrderFactory.Repository()
	s.Require().NoError(err)
	repo.AssertCount(s.T(), 2, factory.Attributes{"CustomerID": customer.Object().ID})

	db := foundrytesting.NewDatabaseHelper(&s.TestCase)
	db.AssertDatabaseCount("customers", 1)
	db.AssertDatabaseMissing("customers", map[string]any{"active": true})
}

func (s *OrderSuite) TestDatabaseIsResetBetweenTests() {
	db := foundrytesting.NewDatabaseHelper(&s.TestCase)
	db.AssertDatabaseCount("orders", 0)

	_, err := CustomerFactory.FindOrCreate(context.Background(), factory.Attributes{"Email": "jo@example.test"})
	s.Require().NoError(err)

	var found Customer
	s.Require().NoError(db.Find(&found, "email = ?", "jo@example.test"))
	s.True(found.Active)

	s.Require().NoError(db.Truncate("customers"))
	db.AssertDatabaseCount("customers", 0)
}

func TestOrderSuite(t *testing.T) {
	suite.Run(t, new(OrderSuite))
}

type FoundryBootSuite struct {
	foundrytesting.TestCase
}

func (s *FoundryBootSuite) SetupSuite() {
	s.Config = suiteConfig(s.T())
	s.Config.FactoryOptions = []factory.Option{factory.WithoutPersistence()}
}

func (s *FoundryBootSuite) TestFoundryIsBootedForEachTest() {
	s.True(factory.IsBooted())

	current, err := factory.Current()
	s.Require().NoError(err)
	s.Same(s.Foundry, current)
	s.Same(s.GetDB(), s.Foundry.DB())
}

func (s *FoundryBootSuite) TestFactoryOptionsApply() {
	customer, err := CustomerFactory.MustNew(nil).Create(context.Background())
	s.Require().NoError(err)
	s.False(customer.IsPersisted())

	foundrytesting.NewDatabaseHelper(&s.TestCase).AssertDatabaseCount("customers", 0)
}

func TestFoundryBootSuite(t *testing.T) {
	suite.Run(t, new(FoundryBootSuite))
}
