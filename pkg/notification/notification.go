package notification

import (
	"context"

	"github.com/shopspring/decimal"
)

type Level string

const (
	LevelWarning  Level = "warning"
	LevelExceeded Level = "exceeded"
)

// BudgetAlert is emitted when an expense pushes a budget across the warning threshold or over its amount.
type BudgetAlert struct {
	UserId     int             `json:"userId"`
	BudgetId   int             `json:"budgetId"`
	CategoryId int             `json:"categoryId"`
	Spent      decimal.Decimal `json:"spent"`
	Amount     decimal.Decimal `json:"amount"`
	Level      Level           `json:"level"`
}

type Publisher interface {
	Publish(ctx context.Context, alert BudgetAlert) error
	Close() error
}
