package expense

import (
	"testing"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validExpense() Expense {
	return Expense{
		Type:          TypeExpense,
		Amount:        decimal.RequireFromString("12.50"),
		Currency:      "USD",
		Description:   "Lunch",
		Date:          day(2025, 3, 10),
		CategoryId:    1,
		PaymentMethod: PaymentCash,
	}
}

func TestExpense_Validate(t *testing.T) {
	t.Run("valid expense has no errors", func(t *testing.T) {
		assert.Empty(t, validExpense().Validate())
	})

	t.Run("rejects non positive amounts", func(t *testing.T) {
		for _, amount := range []string{"0", "-0.01", "-100"} {
			e := validExpense()
			e.Amount = decimal.RequireFromString(amount)

			errs := e.Validate()

			assert.Equal(t, "must be greater than 0", errs["amount"], amount)
		}
	})

	t.Run("requires description, category and date", func(t *testing.T) {
		e := validExpense()
		e.Description = "   "
		e.CategoryId = 0
		e.Date = time.Time{}

		errs := e.Validate()

		assert.Equal(t, "is required", errs["description"])
		assert.Equal(t, "is required", errs["categoryId"])
		assert.Equal(t, "is required", errs["date"])
	})

	t.Run("rejects unknown currency and payment method", func(t *testing.T) {
		e := validExpense()
		e.Currency = "BTC1"
		e.PaymentMethod = "crypto"

		errs := e.Validate()

		assert.Contains(t, errs, "currency")
		assert.Contains(t, errs, "paymentMethod")
	})

	t.Run("field errors become a validation error", func(t *testing.T) {
		e := validExpense()
		e.Amount = decimal.Zero

		err := e.Validate().Err("Invalid expense")

		require.Error(t, err)
		appErr := apperr.As(err)
		assert.Equal(t, apperr.KindValidation, appErr.Kind)
		assert.Equal(t, "must be greater than 0", appErr.Fields["amount"])
		assert.NoError(t, validExpense().Validate().Err("Invalid expense"))
	})
}

func TestForm_SelectCategory(t *testing.T) {
	t.Run("changing the category resets the subcategory", func(t *testing.T) {
		// given
		e := validExpense()
		sub := 11
		e.SubcategoryId = &sub
		form := NewForm(e)

		// when
		form.SelectCategory(2)

		// then
		assert.Equal(t, 2, form.Expense().CategoryId)
		assert.Nil(t, form.Expense().SubcategoryId)
	})

	t.Run("selecting the same category keeps the subcategory", func(t *testing.T) {
		e := validExpense()
		sub := 11
		e.SubcategoryId = &sub
		form := NewForm(e)

		form.SelectCategory(1)

		require.NotNil(t, form.Expense().SubcategoryId)
		assert.Equal(t, 11, *form.Expense().SubcategoryId)
	})

	t.Run("changes apply the category before the subcategory", func(t *testing.T) {
		e := validExpense()
		oldSub := 11
		e.SubcategoryId = &oldSub
		form := NewForm(e)
		category, newSub := 2, 21

		form.Apply(Changes{CategoryId: &category, SubcategoryId: &newSub})

		require.NotNil(t, form.Expense().SubcategoryId)
		assert.Equal(t, 21, *form.Expense().SubcategoryId)
	})

	t.Run("zero subcategory clears it", func(t *testing.T) {
		e := validExpense()
		oldSub := 11
		e.SubcategoryId = &oldSub
		form := NewForm(e)
		zero := 0

		form.Apply(Changes{SubcategoryId: &zero})

		assert.Nil(t, form.Expense().SubcategoryId)
	})
}
