package planner

import (
	"math"

	"github.com/menuforge/v1/internal/application/solver"
	"github.com/menuforge/v1/internal/domain/plan"
)

// assembleDocument projects the raw per-client search results into the
// externally consumed plan document: grouped by client, then date, then
// menu type. Pure projection, no constraint logic.
func assembleDocument(weeks []*plan.Week, results []*solver.Result) *plan.Document {
	doc := &plan.Document{Status: "success", Plan: make([]plan.ClientPlan, 0, len(weeks))}
	for i, week := range weeks {
		doc.Plan = append(doc.Plan, assembleClient(week, results[i]))
	}
	return doc
}

func assembleClient(week *plan.Week, res *solver.Result) plan.ClientPlan {
	cp := plan.ClientPlan{
		ClientID:   week.Client.ID,
		ClientName: week.Client.Name,
		Status:     plan.ClientSatisfied,
		Menus:      []plan.Menu{},
	}
	if !res.Feasible {
		cp.Status = plan.ClientInfeasible
		return cp
	}

	perMenu := week.SlotsPerMenu()
	for start := 0; start < len(week.Cells); start += perMenu {
		first := week.Cells[start]
		menuType := week.MenuTypes[first.MenuType]
		menu := plan.Menu{
			Date:         week.Days[first.Day].Format("2006-01-02"),
			MenuType:     menuType.ID,
			MenuTypeName: menuType.Name,
			Components:   make([]plan.Component, 0, perMenu),
		}
		for off := 0; off < perMenu; off++ {
			cell := week.Cells[start+off]
			slot := week.Slots[cell.Slot]
			recipe := res.Assignments[start+off]

			var quality *string
			if recipe.Quality != "" {
				q := recipe.Quality
				quality = &q
			}
			menu.Components = append(menu.Components, plan.Component{
				ComponentID:   slot.ID,
				ComponentName: slot.Name,
				RecipeID:      recipe.ID,
				RecipeName:    recipe.Name,
				RecipeCat:     recipe.Category,
				RecipeQuality: quality,
				Unique:        recipe.Unique,
			})
			menu.CostTotal += recipe.Cost
			menu.KcalTotal += recipe.Kcal
		}
		menu.CostTotal = round2(menu.CostTotal)
		menu.KcalTotal = round2(menu.KcalTotal)
		cp.Menus = append(cp.Menus, menu)
	}
	return cp
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
