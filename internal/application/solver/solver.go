// Package solver implements the backtracking search that assigns a
// recipe to every required cell of one client's week.
//
// The search keeps all state in an explicit arena (candidate choice per
// cell, per-menu cost/kcal accumulators, a uniqueness multiset) and
// advances a cell cursor instead of recursing, so each step is a plain
// apply/undo pair and the engine is testable in isolation from the job
// and HTTP plumbing.
package solver

import (
	"context"
	"sort"

	"github.com/menuforge/v1/internal/domain/catalog"
	"github.com/menuforge/v1/internal/domain/plan"
)

// costEpsilon absorbs float accumulation error in budget comparisons.
const costEpsilon = 1e-9

// Result is the outcome of one client's search.
type Result struct {
	// Feasible is false when no assignment satisfies all constraints.
	// Infeasibility is a result, not an error.
	Feasible bool

	// Assignments holds the chosen recipe per cell, parallel to
	// week.Cells. Nil when infeasible.
	Assignments []catalog.Recipe

	// Search statistics.
	Nodes      int64
	Backtracks int64
}

// Solve searches for a complete assignment for the given week. It
// returns ctx.Err() if cancellation is observed at a day boundary; any
// other outcome, including infeasibility, is encoded in the Result.
func Solve(ctx context.Context, week *plan.Week) (*Result, error) {
	s := newSearch(week)
	return s.run(ctx)
}

// search is the mutable arena for one solve.
type search struct {
	week       *plan.Week
	candidates [][]catalog.Recipe // per slot index, deterministic order
	minCost    []float64          // cheapest recipe per slot index
	suffixMin  []float64          // min cost of slots at or after position i in a menu

	choice     []int     // candidate index chosen per cell, -1 when unassigned
	menuCost   []float64 // running cost per menu
	menuKcal   []float64 // running kcal per menu
	uniqueUsed map[string]int

	nodes      int64
	backtracks int64
}

func newSearch(week *plan.Week) *search {
	s := &search{
		week:       week,
		candidates: make([][]catalog.Recipe, len(week.Slots)),
		minCost:    make([]float64, len(week.Slots)),
		choice:     make([]int, len(week.Cells)),
		menuCost:   make([]float64, week.MenuCount()),
		menuKcal:   make([]float64, week.MenuCount()),
		uniqueUsed: make(map[string]int),
	}

	for i, slot := range week.Slots {
		s.candidates[i] = orderCandidates(slot.Recipes)
		min := s.candidates[i][0].Cost
		for _, r := range s.candidates[i] {
			if r.Cost < min {
				min = r.Cost
			}
		}
		s.minCost[i] = min
	}

	// suffixMin[i] = cheapest possible cost of the menu's slots from
	// position i onward, used to prune candidates that cannot stay
	// within budget once the rest of the menu is filled.
	n := len(week.Slots)
	s.suffixMin = make([]float64, n+1)
	for i := n - 1; i >= 0; i-- {
		s.suffixMin[i] = s.suffixMin[i+1] + s.minCost[i]
	}

	for i := range s.choice {
		s.choice[i] = -1
	}
	return s
}

// orderCandidates sorts a slot's eligible set cheapest-first with a
// recipe-id tie-break, which keeps the search deterministic and biases
// it toward staying within budget early.
func orderCandidates(recipes []catalog.Recipe) []catalog.Recipe {
	out := append([]catalog.Recipe(nil), recipes...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Cost != out[j].Cost {
			return out[i].Cost < out[j].Cost
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *search) run(ctx context.Context) (*Result, error) {
	cells := s.week.Cells
	perMenu := s.week.SlotsPerMenu()

	i := 0
	lastDay := -1
	for {
		if i == len(cells) {
			return s.collect(), nil
		}

		// Cancellation is observed at day boundaries, a safe
		// checkpoint: no menu is half-verified there.
		if cells[i].Day != lastDay {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			lastDay = cells[i].Day
		}

		menu := i / perMenu
		pos := i % perMenu
		found := false
		for c := s.choice[i] + 1; c < len(s.candidates[cells[i].Slot]); c++ {
			s.nodes++
			if !s.admissible(i, menu, pos, c) {
				continue
			}
			s.apply(i, menu, c)
			found = true
			break
		}

		if found {
			i++
			if i < len(cells) {
				s.choice[i] = -1
			}
			continue
		}

		// Exhausted every candidate at this cell: step back one cell.
		// Exhausting the very first cell means the client's plan is
		// infeasible.
		s.choice[i] = -1
		i--
		if i < 0 {
			return &Result{Feasible: false, Nodes: s.nodes, Backtracks: s.backtracks}, nil
		}
		s.backtracks++
		s.undo(i, i/perMenu)
		if cells[i].Day != lastDay {
			lastDay = cells[i].Day
		}
	}
}

// admissible checks every hard constraint for assigning candidate c to
// cell i (the pos-th slot of the given menu).
func (s *search) admissible(i, menu, pos, c int) bool {
	cell := s.week.Cells[i]
	slot := s.week.Slots[cell.Slot]
	r := s.candidates[cell.Slot][c]

	// Unique recipes may appear at most once per client across the
	// window. Constant slots are exempt from the uniqueness search.
	if r.Unique && !slot.Constant && s.uniqueUsed[r.ID] > 0 {
		return false
	}

	// Conditional pairs are mutually exclusive within one menu.
	if r.PairID != "" && s.menuHasPairConflict(i, pos, r) {
		return false
	}

	// Budget: even the cheapest completion of the menu's remaining
	// slots must not push cost past the client's ceiling.
	budget := s.week.Client.BudgetPerMenu
	if s.menuCost[menu]+r.Cost+s.suffixMin[pos+1] > budget+costEpsilon {
		return false
	}

	// Kcal window is verified once the menu is complete; a violating
	// final candidate is rejected here, which backtracks into the most
	// recently assigned cells of this menu.
	if pos == s.week.SlotsPerMenu()-1 {
		kcal := s.menuKcal[menu] + r.Kcal
		if kcal < s.week.Client.KcalMin-costEpsilon || kcal > s.week.Client.KcalMax+costEpsilon {
			return false
		}
	}

	return true
}

// menuHasPairConflict reports whether an already-assigned component of
// the same menu carries the candidate's pair id under a different
// recipe.
func (s *search) menuHasPairConflict(i, pos int, r catalog.Recipe) bool {
	for back := 1; back <= pos; back++ {
		j := i - back
		cell := s.week.Cells[j]
		assigned := s.candidates[cell.Slot][s.choice[j]]
		if assigned.PairID == r.PairID && assigned.ID != r.ID {
			return true
		}
	}
	return false
}

func (s *search) apply(i, menu, c int) {
	cell := s.week.Cells[i]
	r := s.candidates[cell.Slot][c]
	s.choice[i] = c
	s.menuCost[menu] += r.Cost
	s.menuKcal[menu] += r.Kcal
	if r.Unique && !s.week.Slots[cell.Slot].Constant {
		s.uniqueUsed[r.ID]++
	}
}

func (s *search) undo(i, menu int) {
	cell := s.week.Cells[i]
	r := s.candidates[cell.Slot][s.choice[i]]
	s.menuCost[menu] -= r.Cost
	s.menuKcal[menu] -= r.Kcal
	if r.Unique && !s.week.Slots[cell.Slot].Constant {
		s.uniqueUsed[r.ID]--
	}
}

func (s *search) collect() *Result {
	out := make([]catalog.Recipe, len(s.week.Cells))
	for i, cell := range s.week.Cells {
		out[i] = s.candidates[cell.Slot][s.choice[i]]
	}
	return &Result{
		Feasible:    true,
		Assignments: out,
		Nodes:       s.nodes,
		Backtracks:  s.backtracks,
	}
}
