package budget

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
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

type repoEnv struct {
	ctx        context.Context
	db         *pgxpool.Pool
	repo       *RepositoryImpl
	userId     int
	categoryId int
}

func setupTestRepository(t *testing.T) repoEnv {
	db := test_utils.SetupDB(t, pgContainer, openDb)
	return repoEnv{
		ctx:        context.Background(),
		db:         db,
		repo:       NewRepository(db),
		userId:     test_utils.InsertUser(t, db),
		categoryId: test_utils.CategoryIdByName(t, db, "Food & Dining"),
	}
}

func insertExpense(t *testing.T, env repoEnv, amount string, date time.Time, budgetId *int) {
	t.Helper()
	_, err := env.db.Exec(env.ctx,
		`INSERT INTO expenses (user_id, type, amount, description, date, category_id, budget_id)
			VALUES ($1, 'expense', $2, 'Lunch', $3, $4, $5)`,
		env.userId, dec(amount), date, env.categoryId, budgetId)
	require.NoError(t, err)
}

func (env repoEnv) budget(start time.Time, end time.Time, priority Priority) Budget {
	return Budget{CategoryId: env.categoryId, Amount: dec("300"), PeriodStart: start, PeriodEnd: end, Priority: priority}
}

func TestRepositoryImpl_CreateGetUpdate(t *testing.T) {
	// given
	env := setupTestRepository(t)
	percentage := dec("12.5")
	b := env.budget(day(2025, 3, 1), day(2025, 3, 31), PriorityHigh)
	b.AllocationPercentage = &percentage

	// when
	created, err := env.repo.Create(env.ctx, env.userId, b)
	require.NoError(t, err)
	created.Amount = dec("350")
	updated, err := env.repo.Update(env.ctx, env.userId, created)
	require.NoError(t, err)
	stored, err := env.repo.Get(env.ctx, env.userId, created.Id)

	// then
	require.NoError(t, err)
	assert.Equal(t, updated, stored)
	assert.True(t, dec("350").Equal(stored.Amount))
	assert.True(t, stored.RolloverAmount.IsZero())
	require.NotNil(t, stored.AllocationPercentage)
	assert.True(t, percentage.Equal(*stored.AllocationPercentage))
	assert.Equal(t, day(2025, 3, 31), stored.PeriodEnd)
	assert.Equal(t, PriorityHigh, stored.Priority)

	_, err = env.repo.Get(env.ctx, env.userId+1000, created.Id)
	assert.ErrorIs(t, err, ErrBudgetNotFound)
}

func TestRepositoryImpl_PeriodConstraint(t *testing.T) {
	env := setupTestRepository(t)

	_, err := env.repo.Create(env.ctx, env.userId, env.budget(day(2025, 3, 31), day(2025, 3, 1), PriorityMedium))

	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestRepositoryImpl_FindConflictsAndGetAll(t *testing.T) {
	// given
	env := setupTestRepository(t)
	march, err := env.repo.Create(env.ctx, env.userId, env.budget(day(2025, 3, 1), day(2025, 3, 31), PriorityMedium))
	require.NoError(t, err)
	_, err = env.repo.Create(env.ctx, env.userId, env.budget(day(2025, 4, 1), day(2025, 4, 30), PriorityMedium))
	require.NoError(t, err)

	// when
	conflicts, err := env.repo.FindConflicts(env.ctx, env.userId, []int{env.categoryId}, day(2025, 2, 15), day(2025, 3, 1))
	require.NoError(t, err)
	activeOn := day(2025, 3, 31)
	active, err := env.repo.GetAll(env.ctx, env.userId, &activeOn)
	require.NoError(t, err)
	all, err := env.repo.GetAll(env.ctx, env.userId, nil)
	require.NoError(t, err)

	// then
	require.Len(t, conflicts, 1)
	assert.Equal(t, march.Id, conflicts[0].Id)
	require.Len(t, active, 1)
	assert.Equal(t, march.Id, active[0].Id)
	assert.Len(t, all, 2)
}

func TestRepositoryImpl_MatchBudget(t *testing.T) {
	env := setupTestRepository(t)
	_, err := env.repo.Create(env.ctx, env.userId, env.budget(day(2025, 3, 1), day(2025, 3, 31), PriorityLow))
	require.NoError(t, err)
	high, err := env.repo.Create(env.ctx, env.userId, env.budget(day(2025, 3, 1), day(2025, 3, 31), PriorityHigh))
	require.NoError(t, err)

	matched, err := env.repo.MatchBudget(env.ctx, env.userId, env.categoryId, day(2025, 3, 31))
	require.NoError(t, err)
	require.NotNil(t, matched)
	assert.Equal(t, high.Id, *matched)

	none, err := env.repo.MatchBudget(env.ctx, env.userId, env.categoryId, day(2025, 4, 1))
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRepositoryImpl_Insights(t *testing.T) {
	// given
	env := setupTestRepository(t)
	b, err := env.repo.Create(env.ctx, env.userId, env.budget(day(2025, 3, 1), day(2025, 3, 31), PriorityMedium))
	require.NoError(t, err)
	insertExpense(t, env, "120.25", day(2025, 3, 3), &b.Id)
	insertExpense(t, env, "80", day(2025, 3, 9), &b.Id)
	insertExpense(t, env, "999", day(2025, 3, 9), nil)

	// when
	insights, err := env.repo.Insights(env.ctx, env.userId, nil)
	require.NoError(t, err)
	insight, err := env.repo.Insight(env.ctx, env.userId, b.Id)
	require.NoError(t, err)

	// then
	require.Len(t, insights, 1)
	assert.Equal(t, "Food & Dining", insights[0].CategoryName)
	assert.True(t, dec("200.25").Equal(insights[0].Spent))
	assert.Equal(t, 2, insights[0].ExpenseCount)
	assert.True(t, dec("99.75").Equal(insight.Remaining()))
}

func TestRepositoryImpl_FindRolloverCandidates(t *testing.T) {
	// given
	env := setupTestRepository(t)
	_, err := env.repo.Create(env.ctx, env.userId, env.budget(day(2025, 1, 1), day(2025, 1, 31), PriorityMedium))
	require.NoError(t, err)
	feb, err := env.repo.Create(env.ctx, env.userId, env.budget(day(2025, 2, 1), day(2025, 2, 28), PriorityMedium))
	require.NoError(t, err)
	insertExpense(t, env, "100", day(2025, 2, 14), &feb.Id)

	// when
	candidates, err := env.repo.FindRolloverCandidates(env.ctx, day(2025, 3, 1))

	// then
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, feb.Id, candidates[0].Id)
	assert.True(t, dec("200").Equal(candidates[0].Carryover()))
}

func TestRepositoryImpl_FindRolloverCandidates_SamePeriodEnd(t *testing.T) {
	// given
	env := setupTestRepository(t)
	_, err := env.repo.Create(env.ctx, env.userId, env.budget(day(2025, 2, 1), day(2025, 2, 28), PriorityMedium))
	require.NoError(t, err)
	later, err := env.repo.Create(env.ctx, env.userId, env.budget(day(2025, 2, 10), day(2025, 2, 28), PriorityHigh))
	require.NoError(t, err)

	// when
	candidates, err := env.repo.FindRolloverCandidates(env.ctx, day(2025, 3, 1))

	// then
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, later.Id, candidates[0].Id)
}
