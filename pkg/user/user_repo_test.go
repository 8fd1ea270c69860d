package user

import (
	"context"
	"os"
	"testing"

	"github.com/elmerescandon/financy-v2-sub000/internal/test_utils"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var pgContainer *postgres.PostgresContainer
var openDb func(ctx context.Context) (*pgxpool.Pool, error)

func TestMain(m *testing.M) {
	pgContainer, openDb = test_utils.TestWithDB()
	code := m.Run()
	test_utils.TerminateContainer(pgContainer)
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, Repo) {
	db := test_utils.SetupDB(t, pgContainer, openDb)
	return context.Background(), NewUserRepo(db)
}

func TestUserRepoImpl_UpsertUser(t *testing.T) {
	t.Run("should insert once and keep the id", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)

		// when
		first, err := repo.UpsertUser(ctx, uid, "ana@example.com")
		require.NoError(t, err)
		second, err := repo.UpsertUser(ctx, uid, "")
		require.NoError(t, err)

		// then
		assert.Equal(t, first.Id, second.Id)
		assert.Equal(t, "ana@example.com", second.Email)
		assert.Equal(t, "USD", second.Currency)
	})
}

func TestUserRepoImpl_UpdateUser(t *testing.T) {
	t.Run("should update profile fields", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)
		created, err := repo.UpsertUser(ctx, uid, "ana@example.com")
		require.NoError(t, err)

		// when
		updated, err := repo.UpdateUser(ctx, created.Id, User{DisplayName: "Ana", Currency: "EUR"})

		// then
		require.NoError(t, err)
		stored, err := repo.GetUserByUid(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, updated, stored)
		assert.Equal(t, "EUR", stored.Currency)
	})

	t.Run("should report missing user", func(t *testing.T) {
		ctx, repo := setupTestRepository(t)

		_, err := repo.UpdateUser(ctx, 9999, User{DisplayName: "Nobody", Currency: "USD"})

		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
