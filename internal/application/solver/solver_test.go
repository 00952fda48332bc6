package solver_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menuforge/v1/internal/application/solver"
	"github.com/menuforge/v1/internal/domain/catalog"
	"github.com/menuforge/v1/internal/domain/plan"
	"github.com/menuforge/v1/test/testutils"
)

var (
	weekStart = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	weekEnd   = weekStart.AddDate(0, 0, 6)
)

// buildWeek constructs the single-client constraint model for a snapshot.
func buildWeek(t *testing.T, snap *catalog.Snapshot, clientID int64) *plan.Week {
	t.Helper()
	weeks, err := plan.BuildWeeks(snap, weekStart, weekEnd, []int64{clientID})
	require.NoError(t, err)
	require.Len(t, weeks, 1)
	return weeks[0]
}

func TestSolve_StandardWeekIsFeasible(t *testing.T) {
	sb := testutils.NewSnapshotBuilder(1)
	sb.WithStandardLunch(10, 1, 5)
	client := sb.Factory().Client(sb.Factory().MenuType("Almuerzo"))
	sb.WithClient(client)

	week := buildWeek(t, sb.Build(), client.ID)
	res, err := solver.Solve(context.Background(), week)
	require.NoError(t, err)

	testutils.NewPlanAssertions(t).SatisfiesWeek(week, res)
	assert.Positive(t, res.Nodes)
}

func TestSolve_BudgetCeilingExcludesExpensiveRecipes(t *testing.T) {
	cf := testutils.NewCatalogFactory(2)

	cheap := cf.Recipe(8, 500)
	pricey := cf.Recipe(25, 500)
	client := cf.Client(cf.MenuType("Almuerzo"))
	client.BudgetPerMenu = 20

	snap := &catalog.Snapshot{
		Clients: []catalog.Client{client},
		Slots: []catalog.Slot{
			cf.MainSlot("FONDO", 1, cheap, pricey),
			cf.MainSlot("ENTRADA", 2, cf.Recipe(5, 300), cf.Recipe(6, 300)),
		},
	}

	week := buildWeek(t, snap, client.ID)
	res, err := solver.Solve(context.Background(), week)
	require.NoError(t, err)
	require.True(t, res.Feasible)

	// 25 + cheapest entrada (5) already breaks the 20 ceiling, so the
	// expensive fondo must never be assigned.
	for _, r := range res.Assignments {
		assert.NotEqual(t, pricey.ID, r.ID)
	}
	testutils.NewPlanAssertions(t).SatisfiesWeek(week, res)
}

func TestSolve_UniqueRecipeAssignedOncePerWindow(t *testing.T) {
	cf := testutils.NewCatalogFactory(3)

	// The unique recipe is the cheapest fondo, so a greedy pass would
	// pick it every day; uniqueness must push later days to alternatives.
	unique := cf.UniqueRecipe(1, 500)
	alternatives := cf.Recipes(8, 2, 4, 500)

	client := cf.Client(cf.MenuType("Almuerzo"))
	snap := &catalog.Snapshot{
		Clients: []catalog.Client{client},
		Slots: []catalog.Slot{
			cf.MainSlot("FONDO", 1, append([]catalog.Recipe{unique}, alternatives...)...),
		},
	}

	week := buildWeek(t, snap, client.ID)
	res, err := solver.Solve(context.Background(), week)
	require.NoError(t, err)
	require.True(t, res.Feasible)

	uses := 0
	for _, r := range res.Assignments {
		if r.ID == unique.ID {
			uses++
		}
	}
	assert.Equal(t, 1, uses, "unique recipe must appear exactly once")
}

func TestSolve_UniqueRecipeRepeatsInConstantSlot(t *testing.T) {
	cf := testutils.NewCatalogFactory(4)

	// A constant slot whose only recipe is flagged unique: the exemption
	// for constant slots must allow it on every single day.
	bread := cf.UniqueRecipe(1, 100)
	client := cf.Client(cf.MenuType("Almuerzo"))
	snap := &catalog.Snapshot{
		Clients: []catalog.Client{client},
		Slots: []catalog.Slot{
			cf.MainSlot("FONDO", 1, cf.Recipes(8, 2, 4, 500)...),
			cf.ConstantSlot("PAN", bread),
		},
	}

	week := buildWeek(t, snap, client.ID)
	res, err := solver.Solve(context.Background(), week)
	require.NoError(t, err)
	require.True(t, res.Feasible)

	uses := 0
	for _, r := range res.Assignments {
		if r.ID == bread.ID {
			uses++
		}
	}
	assert.Equal(t, len(week.Days), uses)
}

func TestSolve_ConditionalPairExcludedWithinMenu(t *testing.T) {
	cf := testutils.NewCatalogFactory(5)

	// The two cheapest candidates of each slot share a pair id, so the
	// cheapest-first order would co-select them without the exclusion.
	fondoPaired := cf.PairedRecipe("arroz", 1, 500)
	entradaPaired := cf.PairedRecipe("arroz", 1, 300)

	client := cf.Client(cf.MenuType("Almuerzo"))
	snap := &catalog.Snapshot{
		Clients: []catalog.Client{client},
		Slots: []catalog.Slot{
			cf.MainSlot("FONDO", 1, fondoPaired, cf.Recipe(2, 500)),
			cf.MainSlot("ENTRADA", 2, entradaPaired, cf.Recipe(2, 300)),
		},
	}

	week := buildWeek(t, snap, client.ID)
	res, err := solver.Solve(context.Background(), week)
	require.NoError(t, err)
	require.True(t, res.Feasible)

	perMenu := week.SlotsPerMenu()
	for start := 0; start < len(week.Cells); start += perMenu {
		both := res.Assignments[start].ID == fondoPaired.ID &&
			res.Assignments[start+1].ID == entradaPaired.ID
		assert.False(t, both, "paired recipes co-selected in menu at cell %d", start)
	}
}

func TestSolve_KcalMinimumForcesBacktracking(t *testing.T) {
	cf := testutils.NewCatalogFactory(6)

	// Cheapest-first would assemble a 400 kcal menu, below the client's
	// 900 minimum, so the final-slot check has to backtrack into richer
	// candidates.
	client := cf.Client(cf.MenuType("Almuerzo"))
	client.KcalMin = 900
	client.KcalMax = 2000

	snap := &catalog.Snapshot{
		Clients: []catalog.Client{client},
		Slots: []catalog.Slot{
			cf.MainSlot("FONDO", 1, cf.Recipe(1, 200), cf.Recipe(2, 700)),
			cf.MainSlot("ENTRADA", 2, cf.Recipe(1, 200), cf.Recipe(2, 600)),
		},
	}

	week := buildWeek(t, snap, client.ID)
	res, err := solver.Solve(context.Background(), week)
	require.NoError(t, err)
	require.True(t, res.Feasible)
	assert.Positive(t, res.Backtracks)

	testutils.NewPlanAssertions(t).SatisfiesWeek(week, res)
}

func TestSolve_Deterministic(t *testing.T) {
	sb := testutils.NewSnapshotBuilder(7)
	sb.WithStandardLunch(12, 1, 9)
	client := sb.Factory().Client(sb.Factory().MenuType("Almuerzo"))
	client.KcalMin = 1400
	client.KcalMax = 1500
	client.BudgetPerMenu = 30
	sb.WithClient(client)
	snap := sb.Build()

	weekA := buildWeek(t, snap, client.ID)
	weekB := buildWeek(t, snap, client.ID)

	resA, err := solver.Solve(context.Background(), weekA)
	require.NoError(t, err)
	resB, err := solver.Solve(context.Background(), weekB)
	require.NoError(t, err)

	require.Equal(t, resA.Feasible, resB.Feasible)
	require.Equal(t, resA.Assignments, resB.Assignments)
	assert.Equal(t, resA.Nodes, resB.Nodes)
}

func TestSolve_InfeasibleBudgetIsResultNotError(t *testing.T) {
	cf := testutils.NewCatalogFactory(8)

	client := cf.Client(cf.MenuType("Almuerzo"))
	client.BudgetPerMenu = 5

	snap := &catalog.Snapshot{
		Clients: []catalog.Client{client},
		Slots: []catalog.Slot{
			cf.MainSlot("FONDO", 1, cf.Recipes(4, 10, 20, 500)...),
		},
	}

	week := buildWeek(t, snap, client.ID)
	res, err := solver.Solve(context.Background(), week)
	require.NoError(t, err)
	assert.False(t, res.Feasible)
	assert.Nil(t, res.Assignments)
}

func TestSolve_CancelledContext(t *testing.T) {
	sb := testutils.NewSnapshotBuilder(9)
	sb.WithStandardLunch(10, 1, 5)
	client := sb.Factory().Client(sb.Factory().MenuType("Almuerzo"))
	sb.WithClient(client)

	week := buildWeek(t, sb.Build(), client.ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := solver.Solve(ctx, week)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestSolve_MultipleMenuTypesPerDay(t *testing.T) {
	cf := testutils.NewCatalogFactory(10)

	client := cf.Client(cf.MenuType("Almuerzo"), cf.MenuType("Cena"))
	snap := &catalog.Snapshot{
		Clients: []catalog.Client{client},
		Slots: []catalog.Slot{
			cf.MainSlot("FONDO", 1, cf.Recipes(20, 1, 5, 500)...),
			cf.MainSlot("ENTRADA", 2, cf.Recipes(20, 1, 5, 300)...),
		},
	}

	week := buildWeek(t, snap, client.ID)
	require.Equal(t, 14, week.MenuCount())

	res, err := solver.Solve(context.Background(), week)
	require.NoError(t, err)
	testutils.NewPlanAssertions(t).SatisfiesWeek(week, res)
}
