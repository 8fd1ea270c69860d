// Package wizard implements the smart budget wizard: a step-by-step flow that summarizes the
// user's recent finances, proposes budget allocations per category, resolves conflicts with
// existing budgets and finally creates the budgets.
package wizard

import (
	"errors"
)

type Step string

const (
	StepFinancialSummary   Step = "financial_summary"
	StepSpendingInsights   Step = "spending_insights"
	StepBudgetAllocation   Step = "budget_allocation"
	StepConflictResolution Step = "conflict_resolution"
	StepConfirmation       Step = "confirmation"
)

var steps = []Step{StepFinancialSummary, StepSpendingInsights, StepBudgetAllocation, StepConflictResolution, StepConfirmation}

// Index returns the position of the step in the flow, starting at 0.
func (s Step) Index() int {
	for i, step := range steps {
		if step == s {
			return i
		}
	}
	return -1
}

var (
	ErrSessionNotFound  = errors.New("wizard session not found")
	ErrNotSessionOwner  = errors.New("wizard session belongs to another user")
	ErrWrongStep        = errors.New("action not allowed in the current wizard step")
	ErrSessionCompleted = errors.New("wizard session already completed")
)
