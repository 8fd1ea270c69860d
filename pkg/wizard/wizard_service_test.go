package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/elmerescandon/financy-v2-sub000/internal/utils"
	"github.com/elmerescandon/financy-v2-sub000/pkg/budget"
	"github.com/elmerescandon/financy-v2-sub000/pkg/category"
	"github.com/elmerescandon/financy-v2-sub000/pkg/expense"
	"github.com/elmerescandon/financy-v2-sub000/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSummarizer struct {
	summary  expense.Summary
	from, to time.Time
}

func (f *fakeSummarizer) Summarize(ctx context.Context, from time.Time, to time.Time) (expense.Summary, error) {
	f.from, f.to = from, to
	return f.summary, nil
}

type countingAssigner struct{}

func (countingAssigner) AssignBudget(ctx context.Context, budgetId int, categoryId int, start time.Time, end time.Time) (int, error) {
	return 2, nil
}

// flakyBudgets fails writes for the listed categories or budget ids.
type flakyBudgets struct {
	BudgetManager
	failCreate map[int]bool
	failDelete map[int]bool
	failAssign bool
}

func (f *flakyBudgets) Create(ctx context.Context, b budget.Budget, assignExisting bool) (budget.Creation, error) {
	if f.failCreate[b.CategoryId] {
		return budget.Creation{}, apperr.Database("Database error", errors.New("connection reset"))
	}
	return f.BudgetManager.Create(ctx, b, assignExisting)
}

func (f *flakyBudgets) Delete(ctx context.Context, id int) error {
	if f.failDelete[id] {
		return apperr.Database("Database error", errors.New("connection reset"))
	}
	return f.BudgetManager.Delete(ctx, id)
}

func (f *flakyBudgets) AssignExpenses(ctx context.Context, id int) (int, error) {
	if f.failAssign {
		return 0, apperr.Database("Database error", errors.New("connection reset"))
	}
	return f.BudgetManager.AssignExpenses(ctx, id)
}

type serviceEnv struct {
	ctx        context.Context
	service    *ServiceImpl
	budgetRepo *budget.StubRepository
	budgets    *flakyBudgets
	summarizer *fakeSummarizer
}

func setupTestService(t *testing.T) serviceEnv {
	t.Helper()
	clock := &utils.MockClock{FixedNow: time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)}
	budgetRepo := budget.NewStubRepository()
	budgets := &flakyBudgets{
		BudgetManager: budget.NewService(budgetRepo, countingAssigner{}, nil),
		failCreate:    map[int]bool{},
		failDelete:    map[int]bool{},
	}
	categories := category.NewService(category.NewStubRepository(
		category.Category{Id: 1, Name: "Food & Dining", Type: category.TypeExpense},
		category.Category{Id: 2, Name: "Transportation", Type: category.TypeExpense},
		category.Category{Id: 8, Name: "Education", Type: category.TypeExpense},
		category.Category{Id: 10, Name: "Salary", Type: category.TypeIncome},
	), category.NewCategorizer())
	summarizer := &fakeSummarizer{summary: history()}

	return serviceEnv{
		ctx:        user.WithUser(context.Background(), user.User{Id: 7}),
		service:    NewService(NewSessionStore(30*time.Minute, clock), summarizer, budgets, categories, clock, 3),
		budgetRepo: budgetRepo,
		budgets:    budgets,
		summarizer: summarizer,
	}
}

func (env serviceEnv) existingBudget(t *testing.T, categoryId int) budget.Budget {
	t.Helper()
	created, err := env.budgetRepo.Create(env.ctx, 7, budget.Budget{
		CategoryId:  categoryId,
		Amount:      dec("100"),
		PeriodStart: day(2025, 3, 1),
		PeriodEnd:   day(2025, 3, 31),
		Priority:    budget.PriorityMedium,
	})
	require.NoError(t, err)
	return created
}

func (env serviceEnv) toAllocation(t *testing.T) Session {
	t.Helper()
	session, err := env.service.Start(env.ctx)
	require.NoError(t, err)
	_, err = env.service.Next(env.ctx, session.Id)
	require.NoError(t, err)
	session, err = env.service.Next(env.ctx, session.Id)
	require.NoError(t, err)
	require.Equal(t, StepBudgetAllocation, session.Step)
	return session
}

func TestServiceImpl_Start(t *testing.T) {
	env := setupTestService(t)

	session, err := env.service.Start(env.ctx)

	require.NoError(t, err)
	assert.NotEmpty(t, session.Id)
	assert.Equal(t, 7, session.UserId)
	assert.Equal(t, day(2024, 12, 1), env.summarizer.from)
	assert.Equal(t, day(2025, 2, 28), env.summarizer.to)
	assert.Equal(t, day(2025, 3, 1), session.PeriodStart)
	assert.Equal(t, day(2025, 3, 31), session.PeriodEnd)
	require.Len(t, session.Allocations, 2)
	assert.Equal(t, 1, session.Allocations[0].CategoryId)
}

func TestServiceImpl_Start_RequiresUser(t *testing.T) {
	env := setupTestService(t)

	_, err := env.service.Start(context.Background())

	assert.True(t, apperr.IsKind(err, apperr.KindAuthentication))
}

func TestServiceImpl_Get_OtherUser(t *testing.T) {
	env := setupTestService(t)
	session, err := env.service.Start(env.ctx)
	require.NoError(t, err)

	_, err = env.service.Get(user.WithUser(context.Background(), user.User{Id: 8}), session.Id)

	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
}

func TestServiceImpl_SetAllocation(t *testing.T) {
	t.Run("should reject unknown categories", func(t *testing.T) {
		env := setupTestService(t)
		session := env.toAllocation(t)
		amount := dec("50")

		_, err := env.service.SetAllocation(env.ctx, session.Id, 99, AllocationChange{Amount: &amount})

		assert.ErrorIs(t, err, category.ErrCategoryNotFound)
	})

	t.Run("should add an allocation", func(t *testing.T) {
		env := setupTestService(t)
		session := env.toAllocation(t)
		amount := dec("150")

		updated, err := env.service.SetAllocation(env.ctx, session.Id, 8, AllocationChange{Amount: &amount})

		require.NoError(t, err)
		require.Len(t, updated.Allocations, 3)
		assert.True(t, dec("5").Equal(updated.Allocations[2].Percentage))
	})
}

func TestServiceImpl_Confirm(t *testing.T) {
	t.Run("should create budgets when nothing conflicts", func(t *testing.T) {
		// given
		env := setupTestService(t)
		session := env.toAllocation(t)
		session, err := env.service.Next(env.ctx, session.Id)
		require.NoError(t, err)
		require.Equal(t, StepConfirmation, session.Step)

		// when
		confirmed, err := env.service.Confirm(env.ctx, session.Id, true)

		// then
		require.NoError(t, err)
		require.NotNil(t, confirmed.Result)
		assert.True(t, confirmed.Result.Succeeded())
		require.Len(t, confirmed.Result.Created, 2)
		assert.Equal(t, 2, confirmed.Result.Created[0].AssignedExpenses)
		all := env.budgetRepo.All()
		require.Len(t, all, 2)
		assert.True(t, dec("600").Equal(all[0].Amount))
		assert.Equal(t, day(2025, 3, 1), all[0].PeriodStart)
		require.NotNil(t, all[0].AllocationPercentage)
		assert.True(t, dec("20").Equal(*all[0].AllocationPercentage))

		_, err = env.service.Back(env.ctx, session.Id)
		assert.ErrorIs(t, err, ErrSessionCompleted)
	})

	t.Run("should honour resolutions", func(t *testing.T) {
		// given
		env := setupTestService(t)
		food := env.existingBudget(t, 1)
		transport := env.existingBudget(t, 2)
		session := env.toAllocation(t)
		session, err := env.service.Next(env.ctx, session.Id)
		require.NoError(t, err)
		require.Equal(t, StepConflictResolution, session.Step)
		_, err = env.service.SetResolution(env.ctx, session.Id, 1, ResolutionReplace)
		require.NoError(t, err)
		_, err = env.service.Next(env.ctx, session.Id)
		require.NoError(t, err)

		// when
		confirmed, err := env.service.Confirm(env.ctx, session.Id, false)

		// then
		require.NoError(t, err)
		result := confirmed.Result
		require.Len(t, result.Created, 1)
		assert.Equal(t, []int{food.Id}, result.Created[0].Replaced)
		assert.Equal(t, []int{2}, result.Kept)
		ids := []int{}
		for _, b := range env.budgetRepo.All() {
			ids = append(ids, b.Id)
		}
		assert.NotContains(t, ids, food.Id)
		assert.Contains(t, ids, transport.Id)
		assert.Contains(t, ids, result.Created[0].BudgetId)
	})

	t.Run("should keep going after a category fails", func(t *testing.T) {
		// given
		env := setupTestService(t)
		session := env.toAllocation(t)
		_, err := env.service.Next(env.ctx, session.Id)
		require.NoError(t, err)
		env.budgets.failCreate[1] = true

		// when
		confirmed, err := env.service.Confirm(env.ctx, session.Id, false)

		// then
		require.NoError(t, err)
		result := confirmed.Result
		assert.False(t, result.Succeeded())
		require.Len(t, result.Failures, 1)
		assert.Equal(t, StageCreate, result.Failures[0].Stage)
		assert.Equal(t, "Food & Dining", result.Failures[0].CategoryName)
		require.Len(t, result.Created, 1)
		assert.Equal(t, 2, result.Created[0].CategoryId)
	})

	t.Run("should not create when replacing fails", func(t *testing.T) {
		env := setupTestService(t)
		food := env.existingBudget(t, 1)
		session := env.toAllocation(t)
		_, err := env.service.Next(env.ctx, session.Id)
		require.NoError(t, err)
		_, err = env.service.SetResolution(env.ctx, session.Id, 1, ResolutionReplace)
		require.NoError(t, err)
		_, err = env.service.Next(env.ctx, session.Id)
		require.NoError(t, err)
		env.budgets.failDelete[food.Id] = true

		confirmed, err := env.service.Confirm(env.ctx, session.Id, false)

		require.NoError(t, err)
		require.Len(t, confirmed.Result.Failures, 1)
		assert.Equal(t, StageReplace, confirmed.Result.Failures[0].Stage)
		assert.Len(t, env.budgetRepo.All(), 2)
	})

	t.Run("should keep the budget when assigning fails", func(t *testing.T) {
		env := setupTestService(t)
		session := env.toAllocation(t)
		_, err := env.service.Next(env.ctx, session.Id)
		require.NoError(t, err)
		env.budgets.failAssign = true

		confirmed, err := env.service.Confirm(env.ctx, session.Id, true)

		require.NoError(t, err)
		assert.Len(t, confirmed.Result.Created, 2)
		assert.Len(t, confirmed.Result.Failures, 2)
		assert.Len(t, env.budgetRepo.All(), 2)
	})

	t.Run("should require the confirmation step", func(t *testing.T) {
		env := setupTestService(t)
		session := env.toAllocation(t)

		_, err := env.service.Confirm(env.ctx, session.Id, false)

		assert.ErrorIs(t, err, ErrWrongStep)
		assert.Empty(t, env.budgetRepo.All())
	})
}

func TestServiceImpl_Discard(t *testing.T) {
	env := setupTestService(t)
	session, err := env.service.Start(env.ctx)
	require.NoError(t, err)

	require.NoError(t, env.service.Discard(env.ctx, session.Id))

	_, err = env.service.Get(env.ctx, session.Id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
