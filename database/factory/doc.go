// Package factory builds and persists gorm models for tests.
//
// Each persisted model gets one model factory, declared with Define from a
// definition that supplies faker driven defaults, an optional Initialize hook
// and named states:
//
//	var UserFactory = factory.Define[models.User]("UserFactory", factory.Static[models.User](userDefinition{}))
//
//	admin, err := UserFactory.MustNew("admin").Create(ctx)
//
// Model factories use the configuration made current with Boot, or the one
// bound with Using. Definitions whose constructor needs services can only be
// created once a configuration carrying those services is booted.
package factory
