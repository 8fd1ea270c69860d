package wizard

import (
	"context"
	"fmt"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/utils"
	"github.com/elmerescandon/financy-v2-sub000/pkg/budget"
	"github.com/elmerescandon/financy-v2-sub000/pkg/category"
	"github.com/elmerescandon/financy-v2-sub000/pkg/expense"
	"github.com/elmerescandon/financy-v2-sub000/pkg/user"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	Start(ctx context.Context) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	Next(ctx context.Context, id string) (Session, error)
	Back(ctx context.Context, id string) (Session, error)
	SetPeriod(ctx context.Context, id string, start time.Time, end time.Time) (Session, error)
	SetAllocation(ctx context.Context, id string, categoryId int, change AllocationChange) (Session, error)
	SetResolution(ctx context.Context, id string, categoryId int, resolution Resolution) (Session, error)
	// Confirm creates the budgets. The session keeps the result and accepts no further changes.
	Confirm(ctx context.Context, id string, assignExisting bool) (Session, error)
	Discard(ctx context.Context, id string) error
}

type ExpenseSummarizer interface {
	Summarize(ctx context.Context, from time.Time, to time.Time) (expense.Summary, error)
}

type BudgetManager interface {
	BudgetWriter
	FindConflicts(ctx context.Context, categoryIds []int, start time.Time, end time.Time) ([]budget.Budget, error)
}

type CategoryProvider interface {
	GetCategory(ctx context.Context, id int) (category.Category, error)
}

type ServiceImpl struct {
	store          *SessionStore
	expenses       ExpenseSummarizer
	budgets        BudgetManager
	categories     CategoryProvider
	clock          utils.Clock
	lookbackMonths int
}

func NewService(
	store *SessionStore,
	expenses ExpenseSummarizer,
	budgets BudgetManager,
	categories CategoryProvider,
	clock utils.Clock,
	lookbackMonths int,
) *ServiceImpl {
	if lookbackMonths <= 0 {
		lookbackMonths = 3
	}
	return &ServiceImpl{
		store:          store,
		expenses:       expenses,
		budgets:        budgets,
		categories:     categories,
		clock:          clock,
		lookbackMonths: lookbackMonths,
	}
}

func (s *ServiceImpl) Start(ctx context.Context) (Session, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("failed to get current user: %w", err)
	}

	now := s.clock.Now()
	from, to := lookbackWindow(now, s.lookbackMonths)
	history, err := s.expenses.Summarize(ctx, from, to)
	if err != nil {
		return Session{}, err
	}
	summary := newFinancialSummary(history, s.lookbackMonths)
	insights := newSpendingInsights(history, s.lookbackMonths)

	today := utils.DateOf(now)
	session := newSession(uuid.NewString(), userId, summary, insights, utils.StartOfMonth(today), utils.EndOfMonth(today))
	log.Debugf("started wizard %s for user %d with %d suggested allocations", session.Id, userId, len(session.Allocations))
	return s.store.Add(session), nil
}

func (s *ServiceImpl) Get(ctx context.Context, id string) (Session, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.store.Get(id, userId)
}

func (s *ServiceImpl) update(ctx context.Context, id string, fn func(*Session) error) (Session, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.store.Update(id, userId, fn)
}

func (s *ServiceImpl) Next(ctx context.Context, id string) (Session, error) {
	return s.update(ctx, id, func(session *Session) error {
		from := session.Step
		if err := session.Next(ctx, s.budgets.FindConflicts); err != nil {
			return err
		}
		log.Debugf("wizard %s: %s -> %s", id, from, session.Step)
		return nil
	})
}

func (s *ServiceImpl) Back(ctx context.Context, id string) (Session, error) {
	return s.update(ctx, id, func(session *Session) error {
		return session.Back()
	})
}

func (s *ServiceImpl) SetPeriod(ctx context.Context, id string, start time.Time, end time.Time) (Session, error) {
	return s.update(ctx, id, func(session *Session) error {
		return session.SetPeriod(utils.DateOf(start), utils.DateOf(end))
	})
}

func (s *ServiceImpl) SetAllocation(ctx context.Context, id string, categoryId int, change AllocationChange) (Session, error) {
	return s.update(ctx, id, func(session *Session) error {
		cat, err := s.categories.GetCategory(ctx, categoryId)
		if err != nil {
			return err
		}
		return session.UpdateAllocation(cat, change)
	})
}

func (s *ServiceImpl) SetResolution(ctx context.Context, id string, categoryId int, resolution Resolution) (Session, error) {
	return s.update(ctx, id, func(session *Session) error {
		return session.Resolve(categoryId, resolution)
	})
}

func (s *ServiceImpl) Confirm(ctx context.Context, id string, assignExisting bool) (Session, error) {
	return s.update(ctx, id, func(session *Session) error {
		if err := session.requireStep(StepConfirmation); err != nil {
			return err
		}
		session.AssignExisting = assignExisting
		result := apply(ctx, s.budgets, session)
		session.Result = &result
		log.Infof("wizard %s confirmed: %d budgets created, %d kept, %d skipped, %d failures",
			id, len(result.Created), len(result.Kept), len(result.Skipped), len(result.Failures))
		return nil
	})
}

func (s *ServiceImpl) Discard(ctx context.Context, id string) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return s.store.Delete(id, userId)
}
