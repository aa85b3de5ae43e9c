package factory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/galaplate/foundry/database/factory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyGetAndSet(t *testing.T) {
	cfg := newConfiguration(t)
	ctx := context.Background()

	proxy, err := UserFactory.Using(cfg).MustNew(nil).Create(ctx, factory.Attributes{"Name": "Ada"})
	require.NoError(t, err)

	name, err := proxy.Get("Name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)

	email, err := proxy.Get("email")
	require.NoError(t, err)
	assert.Equal(t, proxy.Object().Email, email)

	_, err = proxy.Get("Nickname")
	assert.ErrorIs(t, err, factory.ErrUnknownAttribute)

	require.NoError(t, proxy.Set("Name", "Grace"))
	assert.Equal(t, "Grace", proxy.Object().Name)

	// not saved yet
	factory.RepositoryFor[User](cfg).AssertExists(t, factory.Attributes{"Name": "Ada"})

	require.NoError(t, proxy.Save(ctx))
	factory.RepositoryFor[User](cfg).AssertExists(t, factory.Attributes{"Name": "Grace"})
	factory.RepositoryFor[User](cfg).AssertNotExists(t, factory.Attributes{"Name": "Ada"})
}

func TestProxyPrimaryKey(t *testing.T) {
	cfg := newConfiguration(t)

	proxy, err := UserFactory.Using(cfg).MustNew(nil).Create(context.Background())
	require.NoError(t, err)

	pk, err := proxy.PrimaryKey()
	require.NoError(t, err)
	assert.Equal(t, proxy.Object().ID, pk)
}

func TestProxyRefresh(t *testing.T) {
	cfg := newConfiguration(t)
	ctx := context.Background()

	proxy, err := UserFactory.Using(cfg).MustNew(nil).Create(ctx)
	require.NoError(t, err)

	require.NoError(t, cfg.DB().Model(&User{}).Where("id = ?", proxy.Object().ID).Update("name", "Changed elsewhere").Error)

	require.NoError(t, proxy.Refresh(ctx))
	assert.Equal(t, "Changed elsewhere", proxy.Object().Name)

	require.NoError(t, cfg.DB().Delete(&User{}, proxy.Object().ID).Error)

	err = proxy.Refresh(ctx)
	assert.ErrorIs(t, err, factory.ErrNotFound)
	assert.False(t, proxy.IsPersisted())
}

func TestProxyRefreshRequiresPersistedObject(t *testing.T) {
	cfg := newConfiguration(t)

	proxy, err := UserFactory.Using(cfg).MustNew(nil).WithoutPersisting().Create(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, proxy.Refresh(context.Background()), factory.ErrNotPersisted)
	assert.ErrorIs(t, proxy.Remove(context.Background()), factory.ErrNotPersisted)
}

func TestProxyRemove(t *testing.T) {
	cfg := newConfiguration(t)
	ctx := context.Background()

	proxy, err := UserFactory.Using(cfg).MustNew(nil).Create(ctx)
	require.NoError(t, err)
	proxy.AssertPersisted(t)

	require.NoError(t, proxy.Remove(ctx))
	assert.False(t, proxy.IsPersisted())
	proxy.AssertNotPersisted(t)
	factory.RepositoryFor[User](cfg).AssertEmpty(t)
}

func TestProxyAssertionsReportFailures(t *testing.T) {
	cfg := newConfiguration(t)
	ctx := context.Background()

	proxy, err := UserFactory.Using(cfg).MustNew(nil).Create(ctx)
	require.NoError(t, err)

	mock := &recordingT{}
	assert.False(t, proxy.AssertNotPersisted(mock))
	assert.Len(t, mock.errors, 1)

	require.NoError(t, cfg.DB().Delete(&User{}, proxy.Object().ID).Error)

	mock = &recordingT{}
	assert.False(t, proxy.AssertPersisted(mock))
	assert.Len(t, mock.errors, 1)
}

type recordingT struct {
	errors []string
}

func (r *recordingT) Errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func TestProxyRepository(t *testing.T) {
	cfg := newConfiguration(t)

	proxy, err := UserFactory.Using(cfg).MustNew(nil).Create(context.Background())
	require.NoError(t, err)

	assert.Same(t, factory.RepositoryFor[User](cfg), proxy.Repository())
}
