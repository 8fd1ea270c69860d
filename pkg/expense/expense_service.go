package expense

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/elmerescandon/financy-v2-sub000/internal/event_bus"
	"github.com/elmerescandon/financy-v2-sub000/internal/money"
	"github.com/elmerescandon/financy-v2-sub000/internal/utils"
	"github.com/elmerescandon/financy-v2-sub000/pkg/category"
	"github.com/elmerescandon/financy-v2-sub000/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	// Create stores a new expense or income. With autocategorize, a missing category is
	// suggested from the description.
	Create(ctx context.Context, expense Expense, autocategorize bool) (Expense, error)
	Get(ctx context.Context, id int) (Expense, error)
	List(ctx context.Context, filter Filter) ([]Expense, error)
	Update(ctx context.Context, id int, changes Changes) (Expense, error)
	Delete(ctx context.Context, id int) error
	MarkReviewed(ctx context.Context, id int) (Expense, error)
	AssignBudget(ctx context.Context, budgetId int, categoryId int, start time.Time, end time.Time) (int, error)
	Summarize(ctx context.Context, from time.Time, to time.Time) (Summary, error)
}

// CategoryProvider resolves and suggests categories for the current user.
type CategoryProvider interface {
	GetCategory(ctx context.Context, id int) (category.Category, error)
	SubcategoryBelongsTo(ctx context.Context, subcategoryId int, categoryId int) (bool, error)
	Suggest(ctx context.Context, description string, categoryType category.Type) (category.Suggestion, bool, error)
}

// BudgetMatcher finds the budget covering a new expense.
type BudgetMatcher interface {
	MatchBudget(ctx context.Context, userId int, categoryId int, date time.Time) (*int, error)
}

type ServiceImpl struct {
	repo            Repository
	categories      CategoryProvider
	budgets         BudgetMatcher
	eventBus        *event_bus.EventBus
	clock           utils.Clock
	reviewThreshold decimal.Decimal
}

func NewService(
	repo Repository,
	categories CategoryProvider,
	budgets BudgetMatcher,
	eventBus *event_bus.EventBus,
	clock utils.Clock,
	reviewThreshold float64,
) *ServiceImpl {
	return &ServiceImpl{
		repo:            repo,
		categories:      categories,
		budgets:         budgets,
		eventBus:        eventBus,
		clock:           clock,
		reviewThreshold: decimal.NewFromFloat(reviewThreshold),
	}
}

func (s *ServiceImpl) Create(ctx context.Context, e Expense, autocategorize bool) (Expense, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return Expense{}, fmt.Errorf("failed to get current user: %w", err)
	}

	if e.Type == "" {
		e.Type = TypeExpense
	}
	if e.Source == "" {
		e.Source = SourceManual
	}
	if e.Currency == "" {
		e.Currency = currentUser.Currency
	}
	e.Description = strings.TrimSpace(e.Description)
	e.Date = utils.DateOf(e.Date)

	if e.CategoryId == 0 && autocategorize && e.Description != "" {
		if err := s.autocategorize(ctx, &e); err != nil {
			return Expense{}, err
		}
	}

	if err := e.Validate().Err("Invalid " + string(e.Type)); err != nil {
		return Expense{}, err
	}
	if e.Currency, err = money.ParseCurrency(e.Currency); err != nil {
		return Expense{}, apperr.Validation("Invalid "+string(e.Type), map[string]string{"currency": "must be a valid ISO 4217 code"})
	}
	if err := s.checkReferences(ctx, e); err != nil {
		return Expense{}, err
	}

	// Budgets are only ever linked by matching the caller's own budgets.
	e.BudgetId = nil
	if e.Type == TypeExpense && s.budgets != nil {
		budgetId, err := s.budgets.MatchBudget(ctx, currentUser.Id, e.CategoryId, e.Date)
		if err != nil {
			return Expense{}, err
		}
		e.BudgetId = budgetId
	}

	created, err := s.repo.Create(ctx, currentUser.Id, e)
	if err != nil {
		return Expense{}, err
	}
	log.Debugf("created %s %d for user %d", created.Type, created.Id, currentUser.Id)

	s.publishCreated(ctx, created)
	return created, nil
}

func (s *ServiceImpl) autocategorize(ctx context.Context, e *Expense) error {
	suggestion, ok, err := s.categories.Suggest(ctx, e.Description, category.Type(e.Type))
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	confidence := decimal.NewFromFloat(suggestion.Confidence).Round(3)
	e.CategoryId = suggestion.CategoryId
	e.ConfidenceScore = &confidence
	e.NeedsReview = confidence.LessThan(s.reviewThreshold)
	log.Debugf("autocategorized %q as %s (confidence %s)", e.Description, suggestion.CategoryName, confidence)
	return nil
}

// checkReferences verifies the category exists for the user with the expense's type and owns the subcategory.
func (s *ServiceImpl) checkReferences(ctx context.Context, e Expense) error {
	cat, err := s.categories.GetCategory(ctx, e.CategoryId)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return apperr.Validation("Invalid "+string(e.Type), map[string]string{"categoryId": "does not exist"})
		}
		return err
	}
	if string(cat.Type) != string(e.Type) {
		return apperr.Validation("Invalid "+string(e.Type), map[string]string{"categoryId": "must be an " + string(e.Type) + " category"})
	}
	if e.SubcategoryId != nil {
		belongs, err := s.categories.SubcategoryBelongsTo(ctx, *e.SubcategoryId, e.CategoryId)
		if err != nil {
			return err
		}
		if !belongs {
			return apperr.Validation("Invalid "+string(e.Type), map[string]string{"subcategoryId": "does not belong to the selected category"})
		}
	}
	return nil
}

func (s *ServiceImpl) publishCreated(ctx context.Context, e Expense) {
	if s.eventBus == nil {
		return
	}
	err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.ExpenseCreatedType, event_bus.ExpenseCreated{
		ExpenseId:  e.Id,
		UserId:     e.UserId,
		Type:       string(e.Type),
		CategoryId: e.CategoryId,
		BudgetId:   e.BudgetId,
		Amount:     e.Amount,
		Date:       e.Date,
	}))
	if err != nil {
		// the expense is stored; subscribers only derive notifications from it
		log.Warnf("expense %d created but event handling failed: %v", e.Id, err)
	}
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (Expense, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Expense{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Get(ctx, userId, id)
}

func (s *ServiceImpl) List(ctx context.Context, filter Filter) ([]Expense, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.List(ctx, userId, filter.Resolve(s.clock.Now()))
}

func (s *ServiceImpl) Update(ctx context.Context, id int, changes Changes) (Expense, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Expense{}, fmt.Errorf("failed to get current user: %w", err)
	}
	existing, err := s.repo.Get(ctx, userId, id)
	if err != nil {
		return Expense{}, err
	}

	form := NewForm(existing)
	form.Apply(changes)
	if err := form.Validate().Err("Invalid " + string(existing.Type)); err != nil {
		return Expense{}, err
	}

	updated := form.Expense()
	updated.Description = strings.TrimSpace(updated.Description)
	updated.Date = utils.DateOf(updated.Date)
	if updated.Currency, err = money.ParseCurrency(updated.Currency); err != nil {
		return Expense{}, apperr.Validation("Invalid "+string(updated.Type), map[string]string{"currency": "must be a valid ISO 4217 code"})
	}
	if err := s.checkReferences(ctx, updated); err != nil {
		return Expense{}, err
	}
	if updated.CategoryId != existing.CategoryId {
		// a user-picked category settles the suggestion
		updated.NeedsReview = false
	}
	if updated.Type == TypeExpense && s.budgets != nil &&
		(updated.CategoryId != existing.CategoryId || !updated.Date.Equal(existing.Date)) {
		if updated.BudgetId, err = s.budgets.MatchBudget(ctx, userId, updated.CategoryId, updated.Date); err != nil {
			return Expense{}, err
		}
	}
	return s.repo.Update(ctx, userId, updated)
}

func (s *ServiceImpl) Delete(ctx context.Context, id int) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	deleted, err := s.repo.Delete(ctx, userId, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.NotFound("Expense not found", ErrExpenseNotFound)
	}
	return nil
}

func (s *ServiceImpl) MarkReviewed(ctx context.Context, id int) (Expense, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Expense{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.MarkReviewed(ctx, userId, id)
}

func (s *ServiceImpl) AssignBudget(ctx context.Context, budgetId int, categoryId int, start time.Time, end time.Time) (int, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get current user: %w", err)
	}
	count, err := s.repo.AssignBudget(ctx, userId, budgetId, categoryId, utils.DateOf(start), utils.DateOf(end))
	if err != nil {
		return 0, err
	}
	log.Debugf("assigned %d expenses to budget %d", count, budgetId)
	return count, nil
}

func (s *ServiceImpl) Summarize(ctx context.Context, from time.Time, to time.Time) (Summary, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to get current user: %w", err)
	}
	from, to = utils.DateOf(from), utils.DateOf(to)
	if to.Before(from) {
		return Summary{}, apperr.Validation("Invalid period", map[string]string{"to": "must not be before from"})
	}

	totals, err := s.repo.TotalsByCategory(ctx, userId, from, to)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{From: from, To: to, TotalIncome: decimal.Zero, TotalExpenses: decimal.Zero, ByCategory: totals}
	for _, t := range totals {
		switch t.Type {
		case TypeIncome:
			summary.TotalIncome = summary.TotalIncome.Add(t.Total)
		case TypeExpense:
			summary.TotalExpenses = summary.TotalExpenses.Add(t.Total)
		}
	}
	summary.Net = summary.TotalIncome.Sub(summary.TotalExpenses)
	return summary, nil
}
