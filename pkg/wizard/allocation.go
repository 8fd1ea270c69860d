package wizard

import (
	"github.com/elmerescandon/financy-v2-sub000/internal/money"
	"github.com/elmerescandon/financy-v2-sub000/pkg/budget"
	"github.com/shopspring/decimal"
)

// Allocation is a proposed budget for one category. Amount and Percentage are two views of the
// same value: Percentage is Amount relative to the available monthly income.
type Allocation struct {
	CategoryId   int
	CategoryName string
	Amount       decimal.Decimal
	Percentage   decimal.Decimal
	Priority     budget.Priority
	Selected     bool
}

// SetAmount sets the amount, never below zero, and derives the percentage from it.
func (a *Allocation) SetAmount(amount decimal.Decimal, available decimal.Decimal) {
	a.Amount = money.Cents(money.Max(decimal.Zero, amount))
	a.Percentage = money.Clamp(money.Percent(a.Amount, available), decimal.Zero, money.Hundred).Round(2)
}

// SetPercentage sets the percentage, clamped to [0, 100], and derives the amount from it.
// With nothing available both are zero.
func (a *Allocation) SetPercentage(percentage decimal.Decimal, available decimal.Decimal) {
	if !available.IsPositive() {
		a.Amount, a.Percentage = decimal.Zero, decimal.Zero
		return
	}
	a.Percentage = money.Clamp(percentage, decimal.Zero, money.Hundred).Round(2)
	a.Amount = money.Cents(money.Max(decimal.Zero, available.Mul(a.Percentage).Div(money.Hundred)))
}

// Rebase recomputes the percentage after the available amount changed.
func (a *Allocation) Rebase(available decimal.Decimal) {
	a.SetAmount(a.Amount, available)
}

type AllocationTotals struct {
	Available       decimal.Decimal
	TotalAllocated  decimal.Decimal
	TotalPercentage decimal.Decimal
	Unallocated     decimal.Decimal
	OverAllocated   bool
}

// Totals sums the selected allocations against what is available.
func Totals(allocations []Allocation, available decimal.Decimal) AllocationTotals {
	total := decimal.Zero
	for _, a := range allocations {
		if a.Selected {
			total = total.Add(a.Amount)
		}
	}
	return AllocationTotals{
		Available:       available,
		TotalAllocated:  total,
		TotalPercentage: money.Percent(total, available).Round(2),
		Unallocated:     money.Max(decimal.Zero, available.Sub(total)),
		OverAllocated:   total.GreaterThan(available),
	}
}

// AllocationChange holds the fields of an allocation to change. Amount and Percentage are
// mutually exclusive.
type AllocationChange struct {
	Amount     *decimal.Decimal
	Percentage *decimal.Decimal
	Priority   *budget.Priority
	Selected   *bool
}
