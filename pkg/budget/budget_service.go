package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/elmerescandon/financy-v2-sub000/internal/event_bus"
	"github.com/elmerescandon/financy-v2-sub000/internal/utils"
	"github.com/elmerescandon/financy-v2-sub000/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	GetAll(ctx context.Context, activeOn *time.Time) ([]Budget, error)
	Get(ctx context.Context, id int) (Budget, error)
	// Create stores the budget. With assignExisting, unassigned expenses of its category and
	// period are linked to it; a failed assignment does not undo the creation.
	Create(ctx context.Context, budget Budget, assignExisting bool) (Creation, error)
	Update(ctx context.Context, budget Budget) (Budget, error)
	Delete(ctx context.Context, id int) error
	FindConflicts(ctx context.Context, categoryIds []int, start time.Time, end time.Time) ([]Budget, error)
	Insights(ctx context.Context, activeOn *time.Time) ([]Insight, error)
	AssignExpenses(ctx context.Context, id int) (int, error)
}

// ExpenseAssigner links existing expenses to a budget.
type ExpenseAssigner interface {
	AssignBudget(ctx context.Context, budgetId int, categoryId int, start time.Time, end time.Time) (int, error)
}

type ServiceImpl struct {
	repo     Repository
	expenses ExpenseAssigner
	eventBus *event_bus.EventBus
}

func NewService(repo Repository, expenses ExpenseAssigner, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, expenses: expenses, eventBus: eventBus}
}

func (s *ServiceImpl) GetAll(ctx context.Context, activeOn *time.Time) ([]Budget, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if activeOn != nil {
		day := utils.DateOf(*activeOn)
		activeOn = &day
	}
	return s.repo.GetAll(ctx, userId, activeOn)
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (Budget, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Budget{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Get(ctx, userId, id)
}

func normalize(b Budget) Budget {
	if b.Priority == 0 {
		b.Priority = PriorityMedium
	}
	b.PeriodStart = utils.DateOf(b.PeriodStart)
	b.PeriodEnd = utils.DateOf(b.PeriodEnd)
	b.Amount = b.Amount.Round(2)
	b.RolloverAmount = b.RolloverAmount.Round(2)
	if b.AllocationPercentage != nil {
		p := b.AllocationPercentage.Round(2)
		b.AllocationPercentage = &p
	}
	return b
}

func (s *ServiceImpl) Create(ctx context.Context, budget Budget, assignExisting bool) (Creation, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Creation{}, fmt.Errorf("failed to get current user: %w", err)
	}

	budget = normalize(budget)
	if errs := budget.Validate(); len(errs) > 0 {
		return Creation{}, apperr.Validation("Invalid budget", errs)
	}

	created, err := s.repo.Create(ctx, userId, budget)
	if err != nil {
		return Creation{}, err
	}
	log.Debugf("created budget %d for category %d (%s - %s)", created.Id, created.CategoryId,
		created.PeriodStart.Format(time.DateOnly), created.PeriodEnd.Format(time.DateOnly))

	result := Creation{Budget: created}
	if assignExisting {
		result.AssignedExpenses, err = s.expenses.AssignBudget(ctx, created.Id, created.CategoryId, created.PeriodStart, created.PeriodEnd)
		if err != nil {
			log.Warnf("budget %d created but assigning existing expenses failed: %v", created.Id, err)
			result.AssignedExpenses = 0
			result.AssignmentError = err
		}
	}

	s.publishCreated(ctx, created)
	return result, nil
}

func (s *ServiceImpl) publishCreated(ctx context.Context, b Budget) {
	if s.eventBus == nil {
		return
	}
	err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.BudgetCreatedType, event_bus.BudgetCreated{
		BudgetId:    b.Id,
		UserId:      b.UserId,
		CategoryId:  b.CategoryId,
		Amount:      b.Amount,
		PeriodStart: b.PeriodStart,
		PeriodEnd:   b.PeriodEnd,
	}))
	if err != nil {
		log.Warnf("budget %d created but event handling failed: %v", b.Id, err)
	}
}

func (s *ServiceImpl) Update(ctx context.Context, budget Budget) (Budget, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Budget{}, fmt.Errorf("failed to get current user: %w", err)
	}

	budget = normalize(budget)
	if errs := budget.Validate(); len(errs) > 0 {
		return Budget{}, apperr.Validation("Invalid budget", errs)
	}
	return s.repo.Update(ctx, userId, budget)
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
		log.Warnf("budget not deleted, probably because it does not exist (%d) or the user (%d) is not the owner", id, userId)
		return apperr.NotFound("Budget not found", ErrBudgetNotFound)
	}
	return nil
}

func (s *ServiceImpl) FindConflicts(ctx context.Context, categoryIds []int, start time.Time, end time.Time) ([]Budget, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.FindConflicts(ctx, userId, categoryIds, utils.DateOf(start), utils.DateOf(end))
}

func (s *ServiceImpl) Insights(ctx context.Context, activeOn *time.Time) ([]Insight, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if activeOn != nil {
		day := utils.DateOf(*activeOn)
		activeOn = &day
	}
	return s.repo.Insights(ctx, userId, activeOn)
}

func (s *ServiceImpl) AssignExpenses(ctx context.Context, id int) (int, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get current user: %w", err)
	}
	b, err := s.repo.Get(ctx, userId, id)
	if err != nil {
		return 0, err
	}
	return s.expenses.AssignBudget(ctx, b.Id, b.CategoryId, b.PeriodStart, b.PeriodEnd)
}
