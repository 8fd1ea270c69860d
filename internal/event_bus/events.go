package event_bus

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExpenseCreated struct {
	ExpenseId  int
	UserId     int
	Type       string
	CategoryId int
	BudgetId   *int
	Amount     decimal.Decimal
	Date       time.Time
}

type BudgetCreated struct {
	BudgetId    int
	UserId      int
	CategoryId  int
	Amount      decimal.Decimal
	PeriodStart time.Time
	PeriodEnd   time.Time
}
