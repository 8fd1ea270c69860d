package wizard

import (
	"context"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/elmerescandon/financy-v2-sub000/pkg/budget"
	log "github.com/sirupsen/logrus"
)

type FailureStage string

const (
	StageReplace FailureStage = "replace"
	StageCreate  FailureStage = "create"
	StageAssign  FailureStage = "assign"
)

type CreatedBudget struct {
	CategoryId       int
	BudgetId         int
	Replaced         []int
	AssignedExpenses int
}

type Failure struct {
	CategoryId   int
	CategoryName string
	Stage        FailureStage
	Message      string
}

// ApplyResult reports what confirming the wizard did. Writes that succeeded before a failure
// are not undone.
type ApplyResult struct {
	Created  []CreatedBudget
	Kept     []int
	Skipped  []int
	Failures []Failure
}

func (r ApplyResult) Succeeded() bool {
	return len(r.Failures) == 0
}

// BudgetWriter is what applying the wizard needs from the budget service.
type BudgetWriter interface {
	Create(ctx context.Context, budget budget.Budget, assignExisting bool) (budget.Creation, error)
	Delete(ctx context.Context, id int) error
	AssignExpenses(ctx context.Context, id int) (int, error)
}

func failure(a Allocation, stage FailureStage, err error) Failure {
	return Failure{
		CategoryId:   a.CategoryId,
		CategoryName: a.CategoryName,
		Stage:        stage,
		Message:      apperr.As(err).Message,
	}
}

// apply creates the budgets of the partition. Each category is handled on its own: a failure
// is recorded and the remaining categories are still processed.
func apply(ctx context.Context, budgets BudgetWriter, s *Session) ApplyResult {
	p := s.Partition()
	result := ApplyResult{
		Created:  []CreatedBudget{},
		Kept:     make([]int, 0, len(p.Kept)),
		Skipped:  make([]int, 0, len(p.Skipped)),
		Failures: []Failure{},
	}
	for _, a := range p.Kept {
		result.Kept = append(result.Kept, a.CategoryId)
	}
	for _, a := range p.Skipped {
		result.Skipped = append(result.Skipped, a.CategoryId)
	}

	for _, planned := range p.Created {
		a := planned.Allocation
		replaced, err := replace(ctx, budgets, planned.Replaces)
		if err != nil {
			log.Warnf("wizard %s: replacing budgets of category %d failed: %v", s.Id, a.CategoryId, err)
			result.Failures = append(result.Failures, failure(a, StageReplace, err))
			continue
		}

		percentage := a.Percentage
		created, err := budgets.Create(ctx, budget.Budget{
			CategoryId:           a.CategoryId,
			Amount:               a.Amount,
			PeriodStart:          s.PeriodStart,
			PeriodEnd:            s.PeriodEnd,
			AllocationPercentage: &percentage,
			Priority:             a.Priority,
		}, false)
		if err != nil {
			log.Warnf("wizard %s: creating budget for category %d failed: %v", s.Id, a.CategoryId, err)
			result.Failures = append(result.Failures, failure(a, StageCreate, err))
			continue
		}

		entry := CreatedBudget{CategoryId: a.CategoryId, BudgetId: created.Id, Replaced: replaced}
		if s.AssignExisting {
			entry.AssignedExpenses, err = budgets.AssignExpenses(ctx, created.Id)
			if err != nil {
				log.Warnf("wizard %s: budget %d created but assigning expenses failed: %v", s.Id, created.Id, err)
				result.Failures = append(result.Failures, failure(a, StageAssign, err))
			}
		}
		result.Created = append(result.Created, entry)
	}
	return result
}

// replace deletes the budgets one by one and returns the ids deleted before any failure.
func replace(ctx context.Context, budgets BudgetWriter, ids []int) ([]int, error) {
	deleted := make([]int, 0, len(ids))
	for _, id := range ids {
		if err := budgets.Delete(ctx, id); err != nil {
			return deleted, err
		}
		deleted = append(deleted, id)
	}
	return deleted, nil
}
