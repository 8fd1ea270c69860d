package expense

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateRange_Bounds(t *testing.T) {
	now := time.Date(2025, time.March, 15, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		dateRange DateRange
		start     time.Time
		end       time.Time
	}{
		{"this month", DateRangeThisMonth, day(2025, 3, 1), day(2025, 3, 31)},
		{"previous month", DateRangePrevMonth, day(2025, 2, 1), day(2025, 2, 28)},
		{"last three months", DateRangeLast3Months, day(2025, 1, 1), day(2025, 3, 31)},
		{"this year", DateRangeThisYear, day(2025, 1, 1), day(2025, 12, 31)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := tt.dateRange.Bounds(now)

			assert.True(t, ok)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}

	t.Run("previous month across a year boundary", func(t *testing.T) {
		start, end, _ := DateRangePrevMonth.Bounds(day(2025, 1, 31))

		assert.Equal(t, day(2024, 12, 1), start)
		assert.Equal(t, day(2024, 12, 31), end)
	})

	t.Run("all has no bounds", func(t *testing.T) {
		_, _, ok := DateRangeAll.Bounds(now)
		assert.False(t, ok)
	})
}

func TestFilter_Apply_BoundariesAreInclusive(t *testing.T) {
	now := day(2025, 3, 15)
	expenses := []Expense{
		{Id: 1, Type: TypeExpense, Date: day(2025, 2, 28)},
		{Id: 2, Type: TypeExpense, Date: day(2025, 3, 1)},
		{Id: 3, Type: TypeExpense, Date: day(2025, 3, 31)},
		{Id: 4, Type: TypeExpense, Date: day(2025, 4, 1)},
		{Id: 5, Type: TypeIncome, Date: day(2025, 3, 10)},
	}

	t.Run("this month keeps both endpoints", func(t *testing.T) {
		result := Filter{DateRange: DateRangeThisMonth}.Apply(expenses, now)

		assert.Equal(t, []int{2, 3, 5}, ids(result))
	})

	t.Run("previous month includes its last day only", func(t *testing.T) {
		result := Filter{DateRange: DateRangePrevMonth}.Apply(expenses, now)

		assert.Equal(t, []int{1}, ids(result))
	})

	t.Run("type and category combine", func(t *testing.T) {
		expenseType := TypeExpense
		categoryId := 9
		withCategory := append([]Expense{{Id: 6, Type: TypeExpense, CategoryId: 9, Date: day(2025, 3, 2)}}, expenses...)

		result := Filter{Type: &expenseType, CategoryId: &categoryId, DateRange: DateRangeThisMonth}.Apply(withCategory, now)

		assert.Equal(t, []int{6}, ids(result))
	})

	t.Run("all keeps everything", func(t *testing.T) {
		result := Filter{DateRange: DateRangeAll}.Apply(expenses, now)

		assert.Len(t, result, len(expenses))
	})

	t.Run("time of day does not matter", func(t *testing.T) {
		late := []Expense{{Id: 7, Type: TypeExpense, Date: time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)}}

		result := Filter{DateRange: DateRangeThisMonth}.Apply(late, now)

		assert.Equal(t, []int{7}, ids(result))
	})
}

func TestParseDateRange(t *testing.T) {
	r, ok := ParseDateRange("")
	assert.True(t, ok)
	assert.Equal(t, DateRangeAll, r)

	_, ok = ParseDateRange("last_week")
	assert.False(t, ok)
}

func ids(expenses []Expense) []int {
	result := make([]int, 0, len(expenses))
	for _, e := range expenses {
		result = append(result, e.Id)
	}
	return result
}
