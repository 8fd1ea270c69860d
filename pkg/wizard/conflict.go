package wizard

import (
	"slices"

	"github.com/elmerescandon/financy-v2-sub000/pkg/budget"
)

type Resolution string

const (
	// ResolutionReplace deletes the existing budgets and creates the new one.
	ResolutionReplace Resolution = "replace"
	// ResolutionKeep leaves the existing budgets and creates nothing.
	ResolutionKeep Resolution = "keep"
	// ResolutionSkip drops the allocation.
	ResolutionSkip Resolution = "skip"
)

func ParseResolution(s string) (Resolution, bool) {
	switch r := Resolution(s); r {
	case ResolutionReplace, ResolutionKeep, ResolutionSkip:
		return r, true
	}
	return "", false
}

// Conflict groups the existing budgets that overlap the wizard period for one category.
type Conflict struct {
	CategoryId   int
	CategoryName string
	Existing     []budget.Budget
	Resolution   Resolution
}

// buildConflicts groups existing budgets by category. Resolutions chosen earlier for a category
// are kept; new conflicts start as keep.
func buildConflicts(existing []budget.Budget, allocations []Allocation, previous []Conflict) []Conflict {
	conflicts := make([]Conflict, 0)
	for _, a := range allocations {
		if !a.Selected {
			continue
		}
		var overlapping []budget.Budget
		for _, b := range existing {
			if b.CategoryId == a.CategoryId {
				overlapping = append(overlapping, b)
			}
		}
		if len(overlapping) == 0 {
			continue
		}
		resolution := ResolutionKeep
		if i := slices.IndexFunc(previous, func(c Conflict) bool { return c.CategoryId == a.CategoryId }); i >= 0 {
			resolution = previous[i].Resolution
		}
		conflicts = append(conflicts, Conflict{
			CategoryId:   a.CategoryId,
			CategoryName: a.CategoryName,
			Existing:     overlapping,
			Resolution:   resolution,
		})
	}
	return conflicts
}

// PlannedBudget is an allocation that will become a budget, replacing the listed budgets first.
type PlannedBudget struct {
	Allocation Allocation
	Replaces   []int
}

// Partition splits the allocations by what confirming the wizard does with them. Every
// allocation lands in exactly one of the three sets.
type Partition struct {
	Created []PlannedBudget
	Kept    []Allocation
	Skipped []Allocation
}

func partition(allocations []Allocation, conflicts []Conflict) Partition {
	p := Partition{Created: []PlannedBudget{}, Kept: []Allocation{}, Skipped: []Allocation{}}
	for _, a := range allocations {
		if !a.Selected {
			p.Skipped = append(p.Skipped, a)
			continue
		}
		i := slices.IndexFunc(conflicts, func(c Conflict) bool { return c.CategoryId == a.CategoryId })
		if i < 0 {
			p.Created = append(p.Created, PlannedBudget{Allocation: a})
			continue
		}
		switch conflicts[i].Resolution {
		case ResolutionReplace:
			replaces := make([]int, 0, len(conflicts[i].Existing))
			for _, b := range conflicts[i].Existing {
				replaces = append(replaces, b.Id)
			}
			p.Created = append(p.Created, PlannedBudget{Allocation: a, Replaces: replaces})
		case ResolutionSkip:
			p.Skipped = append(p.Skipped, a)
		default:
			p.Kept = append(p.Kept, a)
		}
	}
	return p
}
