package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/elmerescandon/financy-v2-sub000/pkg/budget"
	"github.com/elmerescandon/financy-v2-sub000/pkg/category"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func testSession() *Session {
	summary := FinancialSummary{MonthlyIncome: dec("3000"), Available: dec("3000")}
	insights := []CategoryInsight{
		{CategoryId: 1, CategoryName: "Food & Dining", SuggestedAmount: dec("600")},
		{CategoryId: 2, CategoryName: "Transportation", SuggestedAmount: dec("150")},
		{CategoryId: 3, CategoryName: "Entertainment", SuggestedAmount: dec("0")},
	}
	return newSession("s-1", 7, summary, insights, day(2025, 3, 1), day(2025, 3, 31))
}

func noConflicts(ctx context.Context, categoryIds []int, start time.Time, end time.Time) ([]budget.Budget, error) {
	return nil, nil
}

func conflictsWith(existing ...budget.Budget) ConflictFinder {
	return func(ctx context.Context, categoryIds []int, start time.Time, end time.Time) ([]budget.Budget, error) {
		return existing, nil
	}
}

func toAllocation(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.Next(context.Background(), noConflicts))
	require.NoError(t, s.Next(context.Background(), noConflicts))
	require.Equal(t, StepBudgetAllocation, s.Step)
}

func TestNewSession_PresetsAllocations(t *testing.T) {
	s := testSession()

	require.Len(t, s.Allocations, 3)
	assert.Equal(t, StepFinancialSummary, s.Step)
	assert.True(t, s.Allocations[0].Selected)
	assert.True(t, dec("20").Equal(s.Allocations[0].Percentage))
	assert.False(t, s.Allocations[2].Selected)
	assert.Equal(t, budget.PriorityMedium, s.Allocations[1].Priority)
}

func TestSession_Next(t *testing.T) {
	t.Run("should skip conflict resolution when nothing conflicts", func(t *testing.T) {
		// given
		s := testSession()
		toAllocation(t, s)

		// when
		err := s.Next(context.Background(), noConflicts)

		// then
		require.NoError(t, err)
		assert.Equal(t, StepConfirmation, s.Step)
		assert.True(t, s.ConflictsSkipped)
		assert.Empty(t, s.Conflicts)
	})

	t.Run("should visit conflict resolution with keep as default", func(t *testing.T) {
		// given
		s := testSession()
		toAllocation(t, s)
		existing := budget.Budget{Id: 40, CategoryId: 2, PeriodStart: day(2025, 3, 1), PeriodEnd: day(2025, 3, 31)}

		// when
		err := s.Next(context.Background(), conflictsWith(existing))

		// then
		require.NoError(t, err)
		assert.Equal(t, StepConflictResolution, s.Step)
		assert.False(t, s.ConflictsSkipped)
		require.Len(t, s.Conflicts, 1)
		assert.Equal(t, 2, s.Conflicts[0].CategoryId)
		assert.Equal(t, ResolutionKeep, s.Conflicts[0].Resolution)
		assert.Equal(t, []budget.Budget{existing}, s.Conflicts[0].Existing)
	})

	t.Run("should only query selected categories", func(t *testing.T) {
		s := testSession()
		toAllocation(t, s)
		var queried []int

		err := s.Next(context.Background(), func(ctx context.Context, categoryIds []int, start time.Time, end time.Time) ([]budget.Budget, error) {
			queried = categoryIds
			assert.Equal(t, day(2025, 3, 1), start)
			assert.Equal(t, day(2025, 3, 31), end)
			return nil, nil
		})

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, queried)
	})

	t.Run("should require a positive amount for selected allocations", func(t *testing.T) {
		s := testSession()
		toAllocation(t, s)
		selected := true
		require.NoError(t, s.UpdateAllocation(category.Category{Id: 3, Name: "Entertainment", Type: category.TypeExpense},
			AllocationChange{Selected: &selected}))

		err := s.Next(context.Background(), noConflicts)

		require.Error(t, err)
		assert.Contains(t, apperr.As(err).Fields, "Entertainment")
		assert.Equal(t, StepBudgetAllocation, s.Step)
	})

	t.Run("should require a selected allocation", func(t *testing.T) {
		s := testSession()
		toAllocation(t, s)
		off := false
		for _, a := range s.Allocations {
			require.NoError(t, s.UpdateAllocation(category.Category{Id: a.CategoryId, Type: category.TypeExpense}, AllocationChange{Selected: &off}))
		}

		err := s.Next(context.Background(), noConflicts)

		require.Error(t, err)
		assert.Contains(t, apperr.As(err).Fields, "allocations")
	})

	t.Run("should keep the step when the lookup fails", func(t *testing.T) {
		s := testSession()
		toAllocation(t, s)

		err := s.Next(context.Background(), func(context.Context, []int, time.Time, time.Time) ([]budget.Budget, error) {
			return nil, errors.New("database unavailable")
		})

		require.Error(t, err)
		assert.Equal(t, StepBudgetAllocation, s.Step)
	})

	t.Run("should not advance past confirmation", func(t *testing.T) {
		s := testSession()
		toAllocation(t, s)
		require.NoError(t, s.Next(context.Background(), noConflicts))

		err := s.Next(context.Background(), noConflicts)

		assert.ErrorIs(t, err, ErrWrongStep)
	})
}

func TestSession_BackMirrorsNext(t *testing.T) {
	t.Run("skipped conflict resolution", func(t *testing.T) {
		s := testSession()
		toAllocation(t, s)
		require.NoError(t, s.Next(context.Background(), noConflicts))

		require.NoError(t, s.Back())
		assert.Equal(t, StepBudgetAllocation, s.Step)
	})

	t.Run("visited conflict resolution", func(t *testing.T) {
		s := testSession()
		toAllocation(t, s)
		require.NoError(t, s.Next(context.Background(), conflictsWith(budget.Budget{Id: 40, CategoryId: 1})))
		require.NoError(t, s.Next(context.Background(), noConflicts))
		require.Equal(t, StepConfirmation, s.Step)

		require.NoError(t, s.Back())
		assert.Equal(t, StepConflictResolution, s.Step)
		require.NoError(t, s.Back())
		assert.Equal(t, StepBudgetAllocation, s.Step)
		require.NoError(t, s.Back())
		assert.Equal(t, StepSpendingInsights, s.Step)
		require.NoError(t, s.Back())
		assert.Equal(t, StepFinancialSummary, s.Step)
		assert.ErrorIs(t, s.Back(), ErrWrongStep)
	})

	t.Run("resolutions survive going back", func(t *testing.T) {
		s := testSession()
		toAllocation(t, s)
		finder := conflictsWith(budget.Budget{Id: 40, CategoryId: 1}, budget.Budget{Id: 41, CategoryId: 2})
		require.NoError(t, s.Next(context.Background(), finder))
		require.NoError(t, s.Resolve(1, ResolutionReplace))
		require.NoError(t, s.Back())

		require.NoError(t, s.Next(context.Background(), finder))

		assert.Equal(t, ResolutionReplace, s.Conflicts[0].Resolution)
		assert.Equal(t, ResolutionKeep, s.Conflicts[1].Resolution)
	})
}

func TestSession_UpdateAllocation(t *testing.T) {
	t.Run("should add a category without spending history", func(t *testing.T) {
		s := testSession()
		toAllocation(t, s)
		percentage := dec("5")

		err := s.UpdateAllocation(category.Category{Id: 8, Name: "Education", Type: category.TypeExpense},
			AllocationChange{Percentage: &percentage})

		require.NoError(t, err)
		require.Len(t, s.Allocations, 4)
		added := s.Allocations[3]
		assert.Equal(t, "Education", added.CategoryName)
		assert.True(t, added.Selected)
		assert.True(t, dec("150").Equal(added.Amount))
	})

	t.Run("should reject amount and percentage together", func(t *testing.T) {
		s := testSession()
		toAllocation(t, s)
		v := dec("10")

		err := s.UpdateAllocation(category.Category{Id: 1, Type: category.TypeExpense}, AllocationChange{Amount: &v, Percentage: &v})

		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})

	t.Run("should reject income categories", func(t *testing.T) {
		s := testSession()
		toAllocation(t, s)
		v := dec("10")

		err := s.UpdateAllocation(category.Category{Id: 10, Type: category.TypeIncome}, AllocationChange{Amount: &v})

		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})

	t.Run("should only change allocations in the allocation step", func(t *testing.T) {
		s := testSession()
		v := dec("10")

		err := s.UpdateAllocation(category.Category{Id: 1, Type: category.TypeExpense}, AllocationChange{Amount: &v})

		assert.ErrorIs(t, err, ErrWrongStep)
		assert.Equal(t, "WIZARD_INVALID_STEP", apperr.As(err).ErrorCode())
	})
}

func TestSession_SetPeriod(t *testing.T) {
	s := testSession()

	err := s.SetPeriod(day(2025, 4, 30), day(2025, 4, 1))
	require.Error(t, err)
	assert.Contains(t, apperr.As(err).Fields, "periodEnd")

	require.NoError(t, s.SetPeriod(day(2025, 4, 1), day(2025, 4, 30)))
	assert.Equal(t, day(2025, 4, 1), s.PeriodStart)
}

func TestSession_Resolve(t *testing.T) {
	s := testSession()
	toAllocation(t, s)
	require.NoError(t, s.Next(context.Background(), conflictsWith(budget.Budget{Id: 40, CategoryId: 1})))

	assert.True(t, apperr.IsKind(s.Resolve(1, Resolution("merge")), apperr.KindValidation))
	assert.True(t, apperr.IsKind(s.Resolve(2, ResolutionSkip), apperr.KindNotFound))
	require.NoError(t, s.Resolve(1, ResolutionSkip))
	assert.Equal(t, ResolutionSkip, s.Conflicts[0].Resolution)
}

func TestSession_CompletedRejectsChanges(t *testing.T) {
	s := testSession()
	s.Step = StepConfirmation
	s.Result = &ApplyResult{}

	err := s.Back()

	assert.ErrorIs(t, err, ErrSessionCompleted)
	assert.Equal(t, StepConfirmation, s.Step)
}
