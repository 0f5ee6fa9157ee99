package gormstore

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/storefront/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: ":memory:?_pragma=foreign_keys(1)"}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s *Store, email string) *domain.User {
	t.Helper()
	u, err := s.Users().Create(context.Background(), &domain.User{Email: email, PasswordHash: "digest", Role: domain.RoleAdmin})
	require.NoError(t, err)
	return u
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "a@x.com")
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, domain.RoleAdmin, u.Role)

	byEmail, err := s.Users().FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, "digest", byEmail.PasswordHash)

	byID, err := s.Users().FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)

	_, err = s.Users().FindByEmail(ctx, "A@x.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = s.Users().FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "a@x.com")

	_, err := s.Users().Create(context.Background(), &domain.User{Email: "a@x.com", PasswordHash: "other", Role: domain.RoleUser})
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestProductRepository_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "a@x.com")
	repo := s.Products()

	created, err := repo.Create(ctx, &domain.Product{Name: "Widget", Price: 9.99, UserID: owner.ID})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, owner.ID, created.UserID)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Owner)
	assert.Equal(t, domain.ProductOwner{ID: owner.ID, Email: "a@x.com"}, *list[0].Owner)

	name := "Gadget"
	price := 12.5
	updated, err := repo.Update(ctx, created.ID, domain.ProductPatch{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Gadget", updated.Name)
	assert.Equal(t, 12.5, updated.Price)
	require.NotNil(t, updated.Owner)
	assert.Equal(t, "a@x.com", updated.Owner.Email)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), domain.ErrProductNotFound)
}

func TestProductRepository_UpdateMissing(t *testing.T) {
	s := newTestStore(t)
	name := "x"

	_, err := s.Products().Update(context.Background(), "missing", domain.ProductPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestProductRepository_UnknownOwner(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Products().Create(context.Background(), &domain.Product{Name: "Widget", Price: 1, UserID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestProductRepository_ListOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "a@x.com")

	for _, n := range []string{"first", "second", "third"} {
		_, err := s.Products().Create(ctx, &domain.Product{Name: n, Price: 1, UserID: owner.ID})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	list, err := s.Products().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{list[0].Name, list[1].Name, list[2].Name})
}

func TestStore_Ping(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
