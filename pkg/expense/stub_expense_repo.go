package expense

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/shopspring/decimal"
)

type StubRepository struct {
	nextId        int
	expenses      []Expense
	categoryNames map[int]string
}

// NewStubRepository keeps expenses in memory. categoryNames feeds TotalsByCategory.
func NewStubRepository(categoryNames map[int]string) *StubRepository {
	return &StubRepository{categoryNames: categoryNames}
}

func (s *StubRepository) Create(ctx context.Context, userId int, e Expense) (Expense, error) {
	s.nextId++
	e.Id = s.nextId
	e.UserId = userId
	e.Tags = nonNilTags(e.Tags)
	e.SourceMetadata = nonNilMetadata(e.SourceMetadata)
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *StubRepository) Get(ctx context.Context, userId int, id int) (Expense, error) {
	for _, e := range s.expenses {
		if e.Id == id && e.UserId == userId {
			return e, nil
		}
	}
	return Expense{}, apperr.NotFound("Expense not found", ErrExpenseNotFound)
}

func (s *StubRepository) List(ctx context.Context, userId int, q Query) ([]Expense, error) {
	result := make([]Expense, 0)
	for _, e := range s.expenses {
		if e.UserId == userId && q.Matches(e) {
			result = append(result, e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

func (s *StubRepository) Update(ctx context.Context, userId int, e Expense) (Expense, error) {
	for i, existing := range s.expenses {
		if existing.Id == e.Id && existing.UserId == userId {
			s.expenses[i] = e
			return e, nil
		}
	}
	return Expense{}, apperr.NotFound("Expense not found", ErrExpenseNotFound)
}

func (s *StubRepository) Delete(ctx context.Context, userId int, id int) (bool, error) {
	before := len(s.expenses)
	s.expenses = slices.DeleteFunc(s.expenses, func(e Expense) bool {
		return e.Id == id && e.UserId == userId
	})
	return len(s.expenses) < before, nil
}

func (s *StubRepository) MarkReviewed(ctx context.Context, userId int, id int) (Expense, error) {
	for i, e := range s.expenses {
		if e.Id == id && e.UserId == userId {
			s.expenses[i].NeedsReview = false
			return s.expenses[i], nil
		}
	}
	return Expense{}, apperr.NotFound("Expense not found", ErrExpenseNotFound)
}

func (s *StubRepository) AssignBudget(ctx context.Context, userId int, budgetId int, categoryId int, start time.Time, end time.Time) (int, error) {
	q := Query{From: &start, To: &end, CategoryId: &categoryId}
	count := 0
	for i, e := range s.expenses {
		if e.UserId == userId && e.Type == TypeExpense && e.BudgetId == nil && q.Matches(e) {
			id := budgetId
			s.expenses[i].BudgetId = &id
			count++
		}
	}
	return count, nil
}

func (s *StubRepository) TotalsByCategory(ctx context.Context, userId int, from time.Time, to time.Time) ([]CategoryTotal, error) {
	q := Query{From: &from, To: &to}
	type key struct {
		t  Type
		id int
	}
	index := map[key]int{}
	totals := make([]CategoryTotal, 0)
	for _, e := range s.expenses {
		if e.UserId != userId || !q.Matches(e) {
			continue
		}
		k := key{e.Type, e.CategoryId}
		i, ok := index[k]
		if !ok {
			i = len(totals)
			index[k] = i
			totals = append(totals, CategoryTotal{Type: e.Type, CategoryId: e.CategoryId, CategoryName: s.categoryNames[e.CategoryId], Total: decimal.Zero})
		}
		totals[i].Total = totals[i].Total.Add(e.Amount)
		totals[i].Count++
	}
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Total.GreaterThan(totals[j].Total)
	})
	return totals, nil
}

// All returns every stored expense regardless of owner.
func (s *StubRepository) All() []Expense {
	return slices.Clone(s.expenses)
}
