package expense

import (
	"fmt"
	"slices"
	"strings"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/elmerescandon/financy-v2-sub000/internal/money"
	"github.com/shopspring/decimal"
)

const maxDescriptionLength = 500

// FieldErrors maps a field name to its validation message.
type FieldErrors map[string]string

// Err returns nil when there are no field errors.
func (f FieldErrors) Err(message string) error {
	if len(f) == 0 {
		return nil
	}
	return apperr.Validation(message, f)
}

func (e Expense) Validate() FieldErrors {
	errs := FieldErrors{}
	if !e.Amount.IsPositive() {
		errs["amount"] = "must be greater than 0"
	}
	description := strings.TrimSpace(e.Description)
	if description == "" {
		errs["description"] = "is required"
	} else if len([]rune(description)) > maxDescriptionLength {
		errs["description"] = fmt.Sprintf("must be at most %d characters", maxDescriptionLength)
	}
	if e.CategoryId <= 0 {
		errs["categoryId"] = "is required"
	}
	if e.Date.IsZero() {
		errs["date"] = "is required"
	}
	if e.Currency != "" {
		if _, err := money.ParseCurrency(e.Currency); err != nil {
			errs["currency"] = "must be a valid ISO 4217 code"
		}
	}
	if e.PaymentMethod != "" && !slices.Contains(PaymentMethods, e.PaymentMethod) {
		errs["paymentMethod"] = "must be one of cash, credit_card, debit_card, bank_transfer, other"
	}
	switch e.Type {
	case TypeExpense, TypeIncome:
	default:
		errs["type"] = "must be expense or income"
	}
	switch e.Source {
	case "", SourceManual, SourceImport, SourceWizard:
	default:
		errs["source"] = "must be manual, import or wizard"
	}
	if e.ConfidenceScore != nil && (e.ConfidenceScore.IsNegative() || e.ConfidenceScore.GreaterThan(decimal.NewFromInt(1))) {
		errs["confidenceScore"] = "must be between 0 and 1"
	}
	return errs
}

// Form is an editable draft of an expense.
type Form struct {
	expense Expense
}

func NewForm(e Expense) *Form {
	return &Form{expense: e}
}

// SelectCategory sets the category. Choosing a different category drops the subcategory,
// which belongs to the previous one.
func (f *Form) SelectCategory(categoryId int) {
	if f.expense.CategoryId != categoryId {
		f.expense.SubcategoryId = nil
	}
	f.expense.CategoryId = categoryId
}

func (f *Form) SelectSubcategory(subcategoryId *int) {
	if subcategoryId == nil || *subcategoryId == 0 {
		f.expense.SubcategoryId = nil
		return
	}
	id := *subcategoryId
	f.expense.SubcategoryId = &id
}

// Apply copies the set fields of c into the draft. The category is applied before the
// subcategory so both can change together.
func (f *Form) Apply(c Changes) {
	if c.Amount != nil {
		f.expense.Amount = *c.Amount
	}
	if c.Currency != nil {
		f.expense.Currency = *c.Currency
	}
	if c.Description != nil {
		f.expense.Description = *c.Description
	}
	if c.Date != nil {
		f.expense.Date = *c.Date
	}
	if c.CategoryId != nil {
		f.SelectCategory(*c.CategoryId)
	}
	if c.SubcategoryId != nil {
		f.SelectSubcategory(c.SubcategoryId)
	}
	if c.PaymentMethod != nil {
		f.expense.PaymentMethod = *c.PaymentMethod
	}
	if c.Tags != nil {
		f.expense.Tags = *c.Tags
	}
}

func (f *Form) Validate() FieldErrors {
	return f.expense.Validate()
}

func (f *Form) Expense() Expense {
	return f.expense
}
