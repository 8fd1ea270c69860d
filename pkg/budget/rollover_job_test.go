package budget

import (
	"context"
	"testing"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolloverJob_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("should carry unspent amount into the next month", func(t *testing.T) {
		// given
		repo := NewStubRepository()
		ended, _ := repo.Create(ctx, 7, Budget{CategoryId: 1, Amount: dec("400"), RolloverAmount: dec("20"),
			PeriodStart: day(2025, 2, 1), PeriodEnd: day(2025, 2, 28), Priority: PriorityHigh})
		repo.SetSpent(ended.Id, dec("350.50"))
		clock := &utils.MockClock{FixedNow: time.Date(2025, 3, 1, 0, 5, 0, 0, time.UTC)}

		// when
		created, err := NewRolloverJob(repo, clock, "@monthly").Run(ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, created)
		all := repo.All()
		require.Len(t, all, 2)
		next := all[1]
		assert.Equal(t, 7, next.UserId)
		assert.Equal(t, day(2025, 3, 1), next.PeriodStart)
		assert.Equal(t, day(2025, 3, 31), next.PeriodEnd)
		assert.True(t, dec("400").Equal(next.Amount))
		assert.True(t, dec("69.50").Equal(next.RolloverAmount))
		assert.Equal(t, PriorityHigh, next.Priority)
	})

	t.Run("should never carry a negative amount", func(t *testing.T) {
		repo := NewStubRepository()
		ended, _ := repo.Create(ctx, 7, Budget{CategoryId: 1, Amount: dec("100"),
			PeriodStart: day(2025, 2, 1), PeriodEnd: day(2025, 2, 28), Priority: PriorityMedium})
		repo.SetSpent(ended.Id, dec("180"))
		clock := &utils.MockClock{FixedNow: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)}

		_, err := NewRolloverJob(repo, clock, "@monthly").Run(ctx)

		require.NoError(t, err)
		all := repo.All()
		require.Len(t, all, 2)
		assert.True(t, all[1].RolloverAmount.IsZero())
	})

	t.Run("should skip categories that already have a following budget", func(t *testing.T) {
		repo := NewStubRepository()
		_, _ = repo.Create(ctx, 7, Budget{CategoryId: 1, Amount: dec("100"),
			PeriodStart: day(2025, 2, 1), PeriodEnd: day(2025, 2, 28), Priority: PriorityMedium})
		_, _ = repo.Create(ctx, 7, Budget{CategoryId: 1, Amount: dec("120"),
			PeriodStart: day(2025, 3, 1), PeriodEnd: day(2025, 3, 31), Priority: PriorityMedium})
		clock := &utils.MockClock{FixedNow: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}

		created, err := NewRolloverJob(repo, clock, "@monthly").Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, created)
		assert.Len(t, repo.All(), 2)
	})

	t.Run("should catch up missed periods", func(t *testing.T) {
		repo := NewStubRepository()
		_, _ = repo.Create(ctx, 7, Budget{CategoryId: 1, Amount: dec("100"),
			PeriodStart: day(2025, 1, 1), PeriodEnd: day(2025, 1, 31), Priority: PriorityMedium})
		clock := &utils.MockClock{FixedNow: time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)}

		created, err := NewRolloverJob(repo, clock, "@monthly").Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, 3, created)
		all := repo.All()
		last := all[len(all)-1]
		assert.Equal(t, day(2025, 4, 1), last.PeriodStart)
		assert.True(t, dec("300").Equal(last.RolloverAmount))
	})

	t.Run("should roll over only one of two budgets ending the same day", func(t *testing.T) {
		// given
		repo := NewStubRepository()
		_, _ = repo.Create(ctx, 7, Budget{CategoryId: 1, Amount: dec("100"),
			PeriodStart: day(2025, 2, 1), PeriodEnd: day(2025, 2, 28), Priority: PriorityMedium})
		_, _ = repo.Create(ctx, 7, Budget{CategoryId: 1, Amount: dec("150"),
			PeriodStart: day(2025, 2, 10), PeriodEnd: day(2025, 2, 28), Priority: PriorityHigh})
		job := NewRolloverJob(repo, &utils.MockClock{FixedNow: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)}, "@monthly")

		// when
		first, err := job.Run(ctx)
		require.NoError(t, err)
		second, err := job.Run(ctx)
		require.NoError(t, err)

		// then
		assert.Equal(t, 1, first)
		assert.Equal(t, 0, second)
		all := repo.All()
		require.Len(t, all, 3)
		assert.True(t, dec("150").Equal(all[2].Amount))
		assert.Equal(t, day(2025, 3, 1), all[2].PeriodStart)
	})

	t.Run("should leave running budgets alone", func(t *testing.T) {
		repo := NewStubRepository()
		_, _ = repo.Create(ctx, 7, Budget{CategoryId: 1, Amount: dec("100"),
			PeriodStart: day(2025, 3, 1), PeriodEnd: day(2025, 3, 31), Priority: PriorityMedium})
		clock := &utils.MockClock{FixedNow: time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC)}

		created, err := NewRolloverJob(repo, clock, "@monthly").Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, created)
	})
}

func TestRolloverJob_StartRejectsInvalidSchedule(t *testing.T) {
	job := NewRolloverJob(NewStubRepository(), utils.SystemClock{}, "every full moon")

	assert.Error(t, job.Start())
}
