package budget

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/shopspring/decimal"
)

type StubRepository struct {
	nextId  int
	budgets []Budget
	// spent by budget id, standing in for the expenses joined by the insights view
	spent map[int]decimal.Decimal
}

func NewStubRepository() *StubRepository {
	return &StubRepository{spent: make(map[int]decimal.Decimal)}
}

// SetSpent records what has been spent against a budget.
func (s *StubRepository) SetSpent(budgetId int, spent decimal.Decimal) {
	s.spent[budgetId] = spent
}

func (s *StubRepository) All() []Budget {
	return slices.Clone(s.budgets)
}

func (s *StubRepository) GetAll(ctx context.Context, userId int, activeOn *time.Time) ([]Budget, error) {
	result := make([]Budget, 0)
	for _, b := range s.budgets {
		if b.UserId != userId {
			continue
		}
		if activeOn != nil && !b.IsActiveBetween(*activeOn, *activeOn) {
			continue
		}
		result = append(result, b)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].PeriodStart.After(result[j].PeriodStart)
	})
	return result, nil
}

func (s *StubRepository) Get(ctx context.Context, userId int, id int) (Budget, error) {
	for _, b := range s.budgets {
		if b.Id == id && b.UserId == userId {
			return b, nil
		}
	}
	return Budget{}, apperr.NotFound("Budget not found", ErrBudgetNotFound)
}

func (s *StubRepository) Create(ctx context.Context, userId int, budget Budget) (Budget, error) {
	s.nextId++
	budget.Id = s.nextId
	budget.UserId = userId
	s.budgets = append(s.budgets, budget)
	return budget, nil
}

func (s *StubRepository) Update(ctx context.Context, userId int, budget Budget) (Budget, error) {
	for i, b := range s.budgets {
		if b.Id == budget.Id && b.UserId == userId {
			budget.UserId = userId
			budget.CreatedAt = b.CreatedAt
			s.budgets[i] = budget
			return budget, nil
		}
	}
	return Budget{}, apperr.NotFound("Budget not found", ErrBudgetNotFound)
}

func (s *StubRepository) Delete(ctx context.Context, userId int, id int) (bool, error) {
	before := len(s.budgets)
	s.budgets = slices.DeleteFunc(s.budgets, func(b Budget) bool {
		return b.Id == id && b.UserId == userId
	})
	return len(s.budgets) < before, nil
}

func (s *StubRepository) FindConflicts(ctx context.Context, userId int, categoryIds []int, start time.Time, end time.Time) ([]Budget, error) {
	result := make([]Budget, 0)
	for _, b := range s.budgets {
		if b.UserId == userId && slices.Contains(categoryIds, b.CategoryId) && b.IsActiveBetween(start, end) {
			result = append(result, b)
		}
	}
	return result, nil
}

func (s *StubRepository) insight(b Budget) Insight {
	spent, ok := s.spent[b.Id]
	if !ok {
		spent = decimal.Zero
	}
	return Insight{Budget: b, Spent: spent}
}

func (s *StubRepository) Insights(ctx context.Context, userId int, activeOn *time.Time) ([]Insight, error) {
	budgets, _ := s.GetAll(ctx, userId, activeOn)
	result := make([]Insight, 0, len(budgets))
	for _, b := range budgets {
		result = append(result, s.insight(b))
	}
	return result, nil
}

func (s *StubRepository) Insight(ctx context.Context, userId int, id int) (Insight, error) {
	b, err := s.Get(ctx, userId, id)
	if err != nil {
		return Insight{}, err
	}
	return s.insight(b), nil
}

func (s *StubRepository) MatchBudget(ctx context.Context, userId int, categoryId int, date time.Time) (*int, error) {
	var match *Budget
	for i, b := range s.budgets {
		if b.UserId != userId || b.CategoryId != categoryId || !b.IsActiveBetween(date, date) {
			continue
		}
		if match == nil || b.Priority < match.Priority {
			match = &s.budgets[i]
		}
	}
	if match == nil {
		return nil, nil
	}
	id := match.Id
	return &id, nil
}

func (s *StubRepository) FindRolloverCandidates(ctx context.Context, today time.Time) ([]Insight, error) {
	result := make([]Insight, 0)
	for _, b := range s.budgets {
		if !b.PeriodEnd.Before(today) {
			continue
		}
		superseded := slices.ContainsFunc(s.budgets, func(n Budget) bool {
			if n.UserId != b.UserId || n.CategoryId != b.CategoryId {
				return false
			}
			return n.PeriodEnd.After(b.PeriodEnd) || (n.PeriodEnd.Equal(b.PeriodEnd) && n.Id > b.Id)
		})
		if !superseded {
			result = append(result, s.insight(b))
		}
	}
	return result, nil
}
