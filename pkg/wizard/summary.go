package wizard

import (
	"sort"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/money"
	"github.com/elmerescandon/financy-v2-sub000/internal/utils"
	"github.com/elmerescandon/financy-v2-sub000/pkg/expense"
	"github.com/shopspring/decimal"
)

// FinancialSummary holds monthly averages over the lookback window.
type FinancialSummary struct {
	From            time.Time
	To              time.Time
	LookbackMonths  int
	MonthlyIncome   decimal.Decimal
	MonthlyExpenses decimal.Decimal
	// Available is the monthly amount allocations are measured against.
	Available   decimal.Decimal
	SavingsRate decimal.Decimal
}

// CategoryInsight is the average monthly spend of one expense category.
type CategoryInsight struct {
	CategoryId      int
	CategoryName    string
	MonthlyAverage  decimal.Decimal
	Share           decimal.Decimal
	ExpenseCount    int
	SuggestedAmount decimal.Decimal
}

// lookbackWindow returns the last full months before now's month.
func lookbackWindow(now time.Time, months int) (time.Time, time.Time) {
	firstOfMonth := utils.StartOfMonth(utils.DateOf(now))
	return firstOfMonth.AddDate(0, -months, 0), firstOfMonth.AddDate(0, 0, -1)
}

func newFinancialSummary(s expense.Summary, months int) FinancialSummary {
	n := decimal.NewFromInt(int64(months))
	income := money.Cents(s.TotalIncome.Div(n))
	expenses := money.Cents(s.TotalExpenses.Div(n))
	savingsRate := decimal.Zero
	if income.IsPositive() {
		savingsRate = money.Percent(income.Sub(expenses), income).Round(2)
	}
	return FinancialSummary{
		From:            s.From,
		To:              s.To,
		LookbackMonths:  months,
		MonthlyIncome:   income,
		MonthlyExpenses: expenses,
		Available:       money.Max(decimal.Zero, income),
		SavingsRate:     savingsRate,
	}
}

// newSpendingInsights lists expense categories by average monthly spend, highest first.
func newSpendingInsights(s expense.Summary, months int) []CategoryInsight {
	n := decimal.NewFromInt(int64(months))
	insights := make([]CategoryInsight, 0, len(s.ByCategory))
	for _, t := range s.ByCategory {
		if t.Type != expense.TypeExpense {
			continue
		}
		average := money.Cents(t.Total.Div(n))
		insights = append(insights, CategoryInsight{
			CategoryId:      t.CategoryId,
			CategoryName:    t.CategoryName,
			MonthlyAverage:  average,
			Share:           money.Percent(t.Total, s.TotalExpenses).Round(2),
			ExpenseCount:    t.Count,
			SuggestedAmount: average,
		})
	}
	sort.SliceStable(insights, func(i, j int) bool {
		if insights[i].MonthlyAverage.Equal(insights[j].MonthlyAverage) {
			return insights[i].CategoryName < insights[j].CategoryName
		}
		return insights[i].MonthlyAverage.GreaterThan(insights[j].MonthlyAverage)
	})
	return insights
}
