package budget

import (
	"errors"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/money"
	"github.com/shopspring/decimal"
)

var ErrBudgetNotFound = errors.New("budget not found")

type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3
)

func (p Priority) Valid() bool {
	return p >= PriorityHigh && p <= PriorityLow
}

type Budget struct {
	Id         int
	UserId     int
	CategoryId int
	Amount     decimal.Decimal
	// PeriodStart and PeriodEnd are calendar days, both included in the period.
	PeriodStart time.Time
	PeriodEnd   time.Time
	// RolloverAmount is carried over from the previous period and adds to Amount.
	RolloverAmount       decimal.Decimal
	AllocationPercentage *decimal.Decimal
	Priority             Priority
	CreatedAt            time.Time
}

// Total is the amount that can be spent in the period.
func (b Budget) Total() decimal.Decimal {
	return b.Amount.Add(b.RolloverAmount)
}

// IsActiveBetween reports whether the budget period shares at least one day with [from, to].
func (b Budget) IsActiveBetween(from time.Time, to time.Time) bool {
	return !b.PeriodStart.After(to) && !b.PeriodEnd.Before(from)
}

// Overlaps reports whether both budgets cover the same category on at least one common day.
func (b Budget) Overlaps(other Budget) bool {
	return b.CategoryId == other.CategoryId && b.IsActiveBetween(other.PeriodStart, other.PeriodEnd)
}

// NextPeriod returns the period following the budget's. Periods spanning whole months
// advance by the same number of months, any other period by its length in days.
func (b Budget) NextPeriod() (time.Time, time.Time) {
	start := b.PeriodEnd.AddDate(0, 0, 1)
	if b.PeriodStart.Day() == 1 && start.Day() == 1 {
		months := (start.Year()-b.PeriodStart.Year())*12 + int(start.Month()-b.PeriodStart.Month())
		return start, start.AddDate(0, months, -1)
	}
	days := int(b.PeriodEnd.Sub(b.PeriodStart).Hours()/24) + 1
	return start, start.AddDate(0, 0, days-1)
}

// Validate returns the field errors of the budget, empty when it can be stored.
func (b Budget) Validate() map[string]string {
	errs := make(map[string]string)
	if b.CategoryId <= 0 {
		errs["categoryId"] = "is required"
	}
	if !b.Amount.IsPositive() {
		errs["amount"] = "must be greater than 0"
	}
	if b.PeriodStart.IsZero() {
		errs["periodStart"] = "is required"
	}
	if b.PeriodEnd.IsZero() {
		errs["periodEnd"] = "is required"
	}
	if !b.PeriodStart.IsZero() && !b.PeriodEnd.IsZero() && b.PeriodEnd.Before(b.PeriodStart) {
		errs["periodEnd"] = "must not be before the period start"
	}
	if b.RolloverAmount.IsNegative() {
		errs["rolloverAmount"] = "must not be negative"
	}
	if p := b.AllocationPercentage; p != nil && (p.IsNegative() || p.GreaterThan(money.Hundred)) {
		errs["allocationPercentage"] = "must be between 0 and 100"
	}
	if !b.Priority.Valid() {
		errs["priority"] = "must be 1 (high), 2 (medium) or 3 (low)"
	}
	return errs
}

// Creation is a stored budget plus the outcome of linking existing expenses to it.
type Creation struct {
	Budget
	AssignedExpenses int
	// AssignmentError is set when the budget was stored but linking expenses to it failed.
	AssignmentError error
}

// Insight is a budget together with what has been spent against it.
type Insight struct {
	Budget
	CategoryName string
	Spent        decimal.Decimal
	ExpenseCount int
}

func (i Insight) Remaining() decimal.Decimal {
	return i.Total().Sub(i.Spent)
}

func (i Insight) PercentUsed() decimal.Decimal {
	return money.Percent(i.Spent, i.Total()).Round(2)
}

func (i Insight) OverBudget() bool {
	return i.Spent.GreaterThan(i.Total())
}

// Carryover is what remains of the period for the next one, never negative.
func (i Insight) Carryover() decimal.Decimal {
	return money.Max(decimal.Zero, i.Remaining())
}
