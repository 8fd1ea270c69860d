package wizard

import (
	"context"
	"slices"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/elmerescandon/financy-v2-sub000/pkg/budget"
	"github.com/elmerescandon/financy-v2-sub000/pkg/category"
	"github.com/shopspring/decimal"
)

// ConflictFinder returns the existing budgets of the categories that overlap [start, end].
type ConflictFinder func(ctx context.Context, categoryIds []int, start time.Time, end time.Time) ([]budget.Budget, error)

type Session struct {
	Id          string
	UserId      int
	Step        Step
	PeriodStart time.Time
	PeriodEnd   time.Time
	Summary     FinancialSummary
	Insights    []CategoryInsight
	Allocations []Allocation
	Conflicts   []Conflict
	// ConflictsSkipped is set when the allocation step found no conflicts and went straight
	// to confirmation.
	ConflictsSkipped bool
	AssignExisting   bool
	Result           *ApplyResult
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

// newSession starts at the financial summary with one selected allocation per category the
// user spent on, preset to the average spend.
func newSession(id string, userId int, summary FinancialSummary, insights []CategoryInsight, start time.Time, end time.Time) *Session {
	allocations := make([]Allocation, 0, len(insights))
	for _, insight := range insights {
		a := Allocation{
			CategoryId:   insight.CategoryId,
			CategoryName: insight.CategoryName,
			Priority:     budget.PriorityMedium,
			Selected:     insight.SuggestedAmount.IsPositive(),
		}
		a.SetAmount(insight.SuggestedAmount, summary.Available)
		allocations = append(allocations, a)
	}
	return &Session{
		Id:          id,
		UserId:      userId,
		Step:        StepFinancialSummary,
		PeriodStart: start,
		PeriodEnd:   end,
		Summary:     summary,
		Insights:    insights,
		Allocations: allocations,
		Conflicts:   []Conflict{},
	}
}

func (s *Session) Completed() bool {
	return s.Result != nil
}

func (s *Session) Totals() AllocationTotals {
	return Totals(s.Allocations, s.Summary.Available)
}

func (s *Session) Partition() Partition {
	return partition(s.Allocations, s.Conflicts)
}

func (s *Session) requireStep(allowed ...Step) error {
	if s.Completed() {
		return apperr.Conflict("The wizard has already been completed", ErrSessionCompleted).WithCode("WIZARD_COMPLETED")
	}
	if !slices.Contains(allowed, s.Step) {
		return apperr.Conflict("Not allowed in the "+string(s.Step)+" step", ErrWrongStep).WithCode("WIZARD_INVALID_STEP")
	}
	return nil
}

// Next advances one step. Leaving the allocation step looks up conflicting budgets with find
// and skips conflict resolution when there are none.
func (s *Session) Next(ctx context.Context, find ConflictFinder) error {
	if err := s.requireStep(StepFinancialSummary, StepSpendingInsights, StepBudgetAllocation, StepConflictResolution); err != nil {
		return err
	}

	switch s.Step {
	case StepFinancialSummary:
		s.Step = StepSpendingInsights
	case StepSpendingInsights:
		s.Step = StepBudgetAllocation
	case StepBudgetAllocation:
		if err := s.validateAllocations(); err != nil {
			return err
		}
		existing, err := find(ctx, s.selectedCategoryIds(), s.PeriodStart, s.PeriodEnd)
		if err != nil {
			return err
		}
		s.Conflicts = buildConflicts(existing, s.Allocations, s.Conflicts)
		s.ConflictsSkipped = len(s.Conflicts) == 0
		if s.ConflictsSkipped {
			s.Step = StepConfirmation
		} else {
			s.Step = StepConflictResolution
		}
	case StepConflictResolution:
		unresolved := make(map[string]string)
		for _, c := range s.Conflicts {
			if _, ok := ParseResolution(string(c.Resolution)); !ok {
				unresolved[c.CategoryName] = "must be replace, keep or skip"
			}
		}
		if len(unresolved) > 0 {
			return apperr.Validation("Every conflict needs a resolution", unresolved)
		}
		s.Step = StepConfirmation
	}
	return nil
}

// Back returns to the previous step, skipping conflict resolution when it was skipped on the way in.
func (s *Session) Back() error {
	if err := s.requireStep(StepSpendingInsights, StepBudgetAllocation, StepConflictResolution, StepConfirmation); err != nil {
		return err
	}

	switch s.Step {
	case StepSpendingInsights:
		s.Step = StepFinancialSummary
	case StepBudgetAllocation:
		s.Step = StepSpendingInsights
	case StepConflictResolution:
		s.Step = StepBudgetAllocation
	case StepConfirmation:
		if s.ConflictsSkipped {
			s.Step = StepBudgetAllocation
		} else {
			s.Step = StepConflictResolution
		}
	}
	return nil
}

func (s *Session) SetPeriod(start time.Time, end time.Time) error {
	if err := s.requireStep(StepFinancialSummary, StepSpendingInsights, StepBudgetAllocation); err != nil {
		return err
	}
	fields := make(map[string]string)
	if start.IsZero() {
		fields["periodStart"] = "is required"
	}
	if end.IsZero() {
		fields["periodEnd"] = "is required"
	} else if end.Before(start) {
		fields["periodEnd"] = "must not be before the period start"
	}
	if len(fields) > 0 {
		return apperr.Validation("Invalid period", fields)
	}
	s.PeriodStart, s.PeriodEnd = start, end
	return nil
}

// UpdateAllocation changes the allocation of a category, adding one for cat when the wizard
// has none yet.
func (s *Session) UpdateAllocation(cat category.Category, change AllocationChange) error {
	if err := s.requireStep(StepBudgetAllocation); err != nil {
		return err
	}
	if cat.Type != category.TypeExpense {
		return apperr.Validation("Invalid allocation", map[string]string{"categoryId": "must be an expense category"})
	}
	if change.Amount != nil && change.Percentage != nil {
		return apperr.Validation("Invalid allocation", map[string]string{"amount": "set either amount or percentage, not both"})
	}
	if change.Priority != nil && !change.Priority.Valid() {
		return apperr.Validation("Invalid allocation", map[string]string{"priority": "must be 1 (high), 2 (medium) or 3 (low)"})
	}

	i := slices.IndexFunc(s.Allocations, func(a Allocation) bool { return a.CategoryId == cat.Id })
	if i < 0 {
		s.Allocations = append(s.Allocations, Allocation{
			CategoryId:   cat.Id,
			CategoryName: cat.Name,
			Amount:       decimal.Zero,
			Percentage:   decimal.Zero,
			Priority:     budget.PriorityMedium,
			Selected:     true,
		})
		i = len(s.Allocations) - 1
	}
	a := &s.Allocations[i]

	available := s.Summary.Available
	switch {
	case change.Amount != nil:
		a.SetAmount(*change.Amount, available)
	case change.Percentage != nil:
		a.SetPercentage(*change.Percentage, available)
	}
	if change.Priority != nil {
		a.Priority = *change.Priority
	}
	if change.Selected != nil {
		a.Selected = *change.Selected
	}
	return nil
}

func (s *Session) Resolve(categoryId int, resolution Resolution) error {
	if err := s.requireStep(StepConflictResolution); err != nil {
		return err
	}
	if _, ok := ParseResolution(string(resolution)); !ok {
		return apperr.Validation("Invalid resolution", map[string]string{"resolution": "must be replace, keep or skip"})
	}
	i := slices.IndexFunc(s.Conflicts, func(c Conflict) bool { return c.CategoryId == categoryId })
	if i < 0 {
		return apperr.NotFound("No conflict for this category", nil)
	}
	s.Conflicts[i].Resolution = resolution
	return nil
}

func (s *Session) validateAllocations() error {
	fields := make(map[string]string)
	selected := 0
	for _, a := range s.Allocations {
		if !a.Selected {
			continue
		}
		selected++
		if !a.Amount.IsPositive() {
			fields[a.CategoryName] = "amount must be greater than 0"
		}
	}
	if selected == 0 {
		fields["allocations"] = "select at least one category"
	}
	if len(fields) > 0 {
		return apperr.Validation("Invalid allocations", fields)
	}
	return nil
}

func (s *Session) selectedCategoryIds() []int {
	ids := make([]int, 0, len(s.Allocations))
	for _, a := range s.Allocations {
		if a.Selected {
			ids = append(ids, a.CategoryId)
		}
	}
	return ids
}

func (s *Session) clone() *Session {
	c := *s
	c.Insights = slices.Clone(s.Insights)
	c.Allocations = slices.Clone(s.Allocations)
	c.Conflicts = make([]Conflict, len(s.Conflicts))
	for i, conflict := range s.Conflicts {
		conflict.Existing = slices.Clone(conflict.Existing)
		c.Conflicts[i] = conflict
	}
	if s.Result != nil {
		result := *s.Result
		c.Result = &result
	}
	return &c
}
