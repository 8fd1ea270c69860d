package expense

import (
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/utils"
)

// DateRange is a named window of calendar days relative to today.
type DateRange string

const (
	DateRangeAll         DateRange = "all"
	DateRangeThisMonth   DateRange = "this_month"
	DateRangePrevMonth   DateRange = "prev_month"
	DateRangeLast3Months DateRange = "last_3_months"
	DateRangeThisYear    DateRange = "this_year"
)

// ParseDateRange accepts the named ranges; an empty value means all.
func ParseDateRange(s string) (DateRange, bool) {
	switch DateRange(s) {
	case "":
		return DateRangeAll, true
	case DateRangeAll, DateRangeThisMonth, DateRangePrevMonth, DateRangeLast3Months, DateRangeThisYear:
		return DateRange(s), true
	}
	return "", false
}

// Bounds returns the first and last day of the window, both inclusive, as calendar days
// of now's location. ok is false for DateRangeAll.
func (d DateRange) Bounds(now time.Time) (start time.Time, end time.Time, ok bool) {
	today := utils.DateOf(now)
	switch d {
	case DateRangeThisMonth:
		return utils.StartOfMonth(today), utils.EndOfMonth(today), true
	case DateRangePrevMonth:
		prev := utils.StartOfMonth(today).AddDate(0, -1, 0)
		return prev, utils.EndOfMonth(prev), true
	case DateRangeLast3Months:
		return utils.StartOfMonth(today).AddDate(0, -2, 0), utils.EndOfMonth(today), true
	case DateRangeThisYear:
		return time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(today.Year(), time.December, 31, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, time.Time{}, false
}

// Filter is what a client asks for. Resolve turns it into a Query for a given day.
type Filter struct {
	Type        *Type
	DateRange   DateRange
	CategoryId  *int
	NeedsReview *bool
}

func (f Filter) Resolve(now time.Time) Query {
	q := Query{Type: f.Type, CategoryId: f.CategoryId, NeedsReview: f.NeedsReview}
	if start, end, ok := f.DateRange.Bounds(now); ok {
		q.From = &start
		q.To = &end
	}
	return q
}

func (f Filter) Apply(expenses []Expense, now time.Time) []Expense {
	q := f.Resolve(now)
	result := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if q.Matches(e) {
			result = append(result, e)
		}
	}
	return result
}

// Query selects expenses by exact criteria. From and To are inclusive calendar days.
type Query struct {
	Type        *Type
	From        *time.Time
	To          *time.Time
	CategoryId  *int
	NeedsReview *bool
}

func (q Query) Matches(e Expense) bool {
	if q.Type != nil && e.Type != *q.Type {
		return false
	}
	if q.CategoryId != nil && e.CategoryId != *q.CategoryId {
		return false
	}
	if q.NeedsReview != nil && e.NeedsReview != *q.NeedsReview {
		return false
	}
	day := utils.DateOf(e.Date)
	if q.From != nil && day.Before(utils.DateOf(*q.From)) {
		return false
	}
	if q.To != nil && day.After(utils.DateOf(*q.To)) {
		return false
	}
	return true
}
