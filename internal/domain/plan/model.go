// Package plan contains the constraint model for one generation request
// and the plan document the generator produces. Everything here is pure
// data: no I/O, no mutation after construction.
package plan

import (
	"sort"
	"time"

	"github.com/menuforge/v1/internal/domain/catalog"
)

// Cell identifies one required assignment: a single slot of a single
// menu. Indices refer to the owning Week's Days, MenuTypes and Slots.
type Cell struct {
	Day      int
	MenuType int
	Slot     int
}

// Week is the normalized constraint model for a single client: the
// cartesian set of required cells in deterministic solve order, the
// ordered slot list, and the client's contract. Built once per request
// and never mutated afterwards.
type Week struct {
	Client    catalog.Client
	Days      []time.Time
	MenuTypes []catalog.MenuType

	// Slots are ordered main-first by priority, constant slots last.
	// Every menu of the week requires one recipe per slot.
	Slots []catalog.Slot

	// Cells in solve order: by day, then menu type, then slot.
	Cells []Cell
}

// SlotsPerMenu returns how many cells one menu occupies.
func (w *Week) SlotsPerMenu() int {
	return len(w.Slots)
}

// MenuCount returns how many menus the week requires.
func (w *Week) MenuCount() int {
	return len(w.Days) * len(w.MenuTypes)
}

// BuildWeeks translates a catalog snapshot and a generation request
// into one Week per requested client, in request order. It fails with
// one of the ErrInvalid* sentinels when the request can never be
// satisfied; those requests must be rejected before entering the async
// pipeline.
func BuildWeeks(snap *catalog.Snapshot, start, end time.Time, clientIDs []int64) ([]*Week, error) {
	if len(clientIDs) == 0 {
		return nil, ErrNoClients
	}
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	slots := orderSlots(snap.Slots)
	for _, s := range slots {
		if len(s.Recipes) == 0 {
			return nil, ErrNoEligibleRecipe
		}
	}

	weeks := make([]*Week, 0, len(clientIDs))
	for _, id := range clientIDs {
		client := snap.ClientByID(id)
		if client == nil {
			return nil, ErrUnknownClient
		}
		if len(client.MenuTypes) == 0 {
			return nil, ErrNoMenuTypes
		}

		days := planningDays(start, end, client.MealsPerWeek)
		if len(days) == 0 {
			return nil, ErrInvalidDateRange
		}

		week := &Week{
			Client:    *client,
			Days:      days,
			MenuTypes: append([]catalog.MenuType(nil), client.MenuTypes...),
			Slots:     slots,
		}
		week.Cells = buildCells(len(days), len(week.MenuTypes), len(slots))
		weeks = append(weeks, week)
	}
	return weeks, nil
}

// orderSlots returns a copy of the slots in solve order: main slots
// first (by priority, then id), constant slots after.
func orderSlots(slots []catalog.Slot) []catalog.Slot {
	out := append([]catalog.Slot(nil), slots...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Constant != out[j].Constant {
			return !out[i].Constant
		}
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// planningDays expands the inclusive date range, capped at the client's
// meals-per-week contract.
func planningDays(start, end time.Time, mealsPerWeek int) []time.Time {
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
		if mealsPerWeek > 0 && len(days) == mealsPerWeek {
			break
		}
	}
	return days
}

// buildCells enumerates every required cell in deterministic order.
func buildCells(days, menuTypes, slots int) []Cell {
	cells := make([]Cell, 0, days*menuTypes*slots)
	for d := 0; d < days; d++ {
		for m := 0; m < menuTypes; m++ {
			for s := 0; s < slots; s++ {
				cells = append(cells, Cell{Day: d, MenuType: m, Slot: s})
			}
		}
	}
	return cells
}
