package testutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menuforge/v1/internal/application/solver"
	"github.com/menuforge/v1/internal/domain/plan"
)

// PlanAssertions verifies the hard constraints a complete assignment
// must satisfy, independently of the solver that produced it.
type PlanAssertions struct {
	t *testing.T
}

// NewPlanAssertions creates a new plan assertions helper
func NewPlanAssertions(t *testing.T) *PlanAssertions {
	return &PlanAssertions{t: t}
}

// SatisfiesWeek asserts that the result is feasible and that every hard
// constraint of the week's contract holds over the assignments.
func (pa *PlanAssertions) SatisfiesWeek(week *plan.Week, res *solver.Result) {
	pa.t.Helper()

	require.NotNil(pa.t, res, "result should not be nil")
	require.True(pa.t, res.Feasible, "expected a feasible result")
	require.Len(pa.t, res.Assignments, len(week.Cells),
		"every cell should carry exactly one recipe")

	pa.assertUniqueness(week, res)
	pa.assertMenus(week, res)
}

// assertUniqueness checks the per-client uniqueness rule: a unique
// recipe appears at most once across the window, except in constant
// slots.
func (pa *PlanAssertions) assertUniqueness(week *plan.Week, res *solver.Result) {
	pa.t.Helper()

	seen := make(map[string]int)
	for i, cell := range week.Cells {
		r := res.Assignments[i]
		if r.Unique && !week.Slots[cell.Slot].Constant {
			seen[r.ID]++
		}
	}
	for id, count := range seen {
		assert.Equal(pa.t, 1, count,
			"unique recipe %s assigned %d times outside constant slots", id, count)
	}
}

// assertMenus checks budget, kcal window and pair exclusion menu by menu.
func (pa *PlanAssertions) assertMenus(week *plan.Week, res *solver.Result) {
	pa.t.Helper()

	perMenu := week.SlotsPerMenu()
	for start := 0; start < len(week.Cells); start += perMenu {
		var cost, kcal float64
		pairs := make(map[string]string)

		for off := 0; off < perMenu; off++ {
			r := res.Assignments[start+off]
			cost += r.Cost
			kcal += r.Kcal
			if r.PairID != "" {
				if prev, ok := pairs[r.PairID]; ok && prev != r.ID {
					assert.Fail(pa.t, "conditional pair violated",
						"menu at cell %d holds both %s and %s of pair %s",
						start, prev, r.ID, r.PairID)
				}
				pairs[r.PairID] = r.ID
			}
		}

		assert.LessOrEqual(pa.t, cost, week.Client.BudgetPerMenu+1e-6,
			"menu at cell %d exceeds budget", start)
		assert.GreaterOrEqual(pa.t, kcal, week.Client.KcalMin-1e-6,
			"menu at cell %d below kcal minimum", start)
		assert.LessOrEqual(pa.t, kcal, week.Client.KcalMax+1e-6,
			"menu at cell %d above kcal maximum", start)
	}
}

// DocumentComplete asserts that a client plan covers the expected number
// of menus and that every menu carries one component per slot.
func (pa *PlanAssertions) DocumentComplete(cp plan.ClientPlan, menus, componentsPerMenu int) {
	pa.t.Helper()

	require.Equal(pa.t, plan.ClientSatisfied, cp.Status)
	require.Len(pa.t, cp.Menus, menus)
	for _, m := range cp.Menus {
		assert.Len(pa.t, m.Components, componentsPerMenu,
			"menu %s/%s missing components", m.Date, m.MenuType)
	}
}
