package expense

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Type discriminates expenses and incomes stored in the same table.
type Type string

const (
	TypeExpense Type = "expense"
	TypeIncome  Type = "income"
)

type Source string

const (
	SourceManual Source = "manual"
	SourceImport Source = "import"
	SourceWizard Source = "wizard"
)

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentDebitCard    PaymentMethod = "debit_card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentOther        PaymentMethod = "other"
)

var PaymentMethods = []PaymentMethod{PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentBankTransfer, PaymentOther}

var ErrExpenseNotFound = errors.New("expense not found")

type Expense struct {
	Id            int
	UserId        int
	Type          Type
	Amount        decimal.Decimal
	Currency      string
	Description   string
	Date          time.Time
	CategoryId    int
	SubcategoryId *int
	PaymentMethod PaymentMethod
	Tags          []string
	Source        Source
	// SourceMetadata keeps import details such as the original file or bank reference.
	SourceMetadata  map[string]string
	ConfidenceScore *decimal.Decimal
	NeedsReview     bool
	BudgetId        *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Changes is a partial update. Nil fields are left untouched; a SubcategoryId of 0 clears it.
type Changes struct {
	Amount        *decimal.Decimal
	Currency      *string
	Description   *string
	Date          *time.Time
	CategoryId    *int
	SubcategoryId *int
	PaymentMethod *PaymentMethod
	Tags          *[]string
}

type CategoryTotal struct {
	Type         Type
	CategoryId   int
	CategoryName string
	Total        decimal.Decimal
	Count        int
}

// Summary aggregates incomes and expenses of an inclusive period.
type Summary struct {
	From          time.Time
	To            time.Time
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	Net           decimal.Decimal
	ByCategory    []CategoryTotal
}
