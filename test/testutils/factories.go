// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/menuforge/v1/internal/domain/catalog"
)

// CatalogFactory provides methods to create test catalog data
type CatalogFactory struct {
	faker  *gofakeit.Faker
	nextID int64
}

// NewCatalogFactory creates a new catalog factory with seeded faker
func NewCatalogFactory(seed int64) *CatalogFactory {
	return &CatalogFactory{
		faker:  gofakeit.New(seed),
		nextID: 1,
	}
}

func (cf *CatalogFactory) id() int64 {
	id := cf.nextID
	cf.nextID++
	return id
}

// Recipe creates a recipe with the given cost and kcal figures
func (cf *CatalogFactory) Recipe(cost, kcal float64) catalog.Recipe {
	return catalog.Recipe{
		ID:       fmt.Sprintf("R%04d", cf.id()),
		Name:     cf.faker.Dinner(),
		Category: cf.faker.RandomString([]string{"criolla", "marina", "vegetariana"}),
		Quality:  "primera",
		Cost:     cost,
		Kcal:     kcal,
	}
}

// UniqueRecipe creates a recipe flagged for per-client uniqueness
func (cf *CatalogFactory) UniqueRecipe(cost, kcal float64) catalog.Recipe {
	r := cf.Recipe(cost, kcal)
	r.Unique = true
	return r
}

// PairedRecipe creates a recipe belonging to a conditional pair
func (cf *CatalogFactory) PairedRecipe(pairID string, cost, kcal float64) catalog.Recipe {
	r := cf.Recipe(cost, kcal)
	r.PairID = pairID
	return r
}

// Recipes creates n recipes with costs spread evenly across
// [minCost, maxCost]
func (cf *CatalogFactory) Recipes(n int, minCost, maxCost, kcal float64) []catalog.Recipe {
	out := make([]catalog.Recipe, 0, n)
	for i := 0; i < n; i++ {
		cost := minCost
		if n > 1 {
			cost = minCost + (maxCost-minCost)*float64(i)/float64(n-1)
		}
		out = append(out, cf.Recipe(cost, kcal))
	}
	return out
}

// MainSlot creates a structural slot carrying the given recipes
func (cf *CatalogFactory) MainSlot(name string, priority int, recipes ...catalog.Recipe) catalog.Slot {
	return catalog.Slot{
		ID:       cf.id(),
		Name:     name,
		Priority: priority,
		Recipes:  recipes,
	}
}

// ConstantSlot creates a fixed accompaniment slot
func (cf *CatalogFactory) ConstantSlot(name string, recipes ...catalog.Recipe) catalog.Slot {
	return catalog.Slot{
		ID:       cf.id(),
		Name:     name,
		Constant: true,
		Recipes:  recipes,
	}
}

// MenuType creates a named menu type
func (cf *CatalogFactory) MenuType(name string) catalog.MenuType {
	return catalog.MenuType{
		ID:   fmt.Sprintf("MT%02d", cf.id()),
		Name: name,
	}
}

// Client creates an active client with a permissive default contract
func (cf *CatalogFactory) Client(menuTypes ...catalog.MenuType) catalog.Client {
	return catalog.Client{
		ID:            cf.id(),
		Name:          cf.faker.Name(),
		Active:        true,
		MealsPerWeek:  7,
		BudgetPerMenu: 1000,
		KcalMin:       0,
		KcalMax:       100000,
		MenuTypes:     menuTypes,
	}
}

// SnapshotBuilder provides a fluent interface for building test snapshots
type SnapshotBuilder struct {
	factory *CatalogFactory
	slots   []catalog.Slot
	clients []catalog.Client
}

// NewSnapshotBuilder creates a new snapshot builder
func NewSnapshotBuilder(seed int64) *SnapshotBuilder {
	return &SnapshotBuilder{factory: NewCatalogFactory(seed)}
}

// Factory exposes the underlying factory for recipe construction
func (sb *SnapshotBuilder) Factory() *CatalogFactory {
	return sb.factory
}

// WithSlot adds a slot
func (sb *SnapshotBuilder) WithSlot(slot catalog.Slot) *SnapshotBuilder {
	sb.slots = append(sb.slots, slot)
	return sb
}

// WithClient adds a client
func (sb *SnapshotBuilder) WithClient(c catalog.Client) *SnapshotBuilder {
	sb.clients = append(sb.clients, c)
	return sb
}

// Build assembles the snapshot
func (sb *SnapshotBuilder) Build() *catalog.Snapshot {
	return &catalog.Snapshot{
		Clients: sb.clients,
		Slots:   sb.slots,
	}
}

// WithStandardLunch adds the canonical almuerzo layout: FONDO, ENTRADA
// and SOPA as structural slots plus POSTRE, REFRESCO, AJI and PAN as
// constant accompaniments, each filled with n recipes in the given cost
// range.
func (sb *SnapshotBuilder) WithStandardLunch(n int, minCost, maxCost float64) *SnapshotBuilder {
	cf := sb.factory

	sb.WithSlot(cf.MainSlot("FONDO", 1, cf.Recipes(n, minCost, maxCost, 600)...))
	sb.WithSlot(cf.MainSlot("ENTRADA", 2, cf.Recipes(n, minCost, maxCost, 250)...))
	sb.WithSlot(cf.MainSlot("SOPA", 3, cf.Recipes(n, minCost, maxCost, 200)...))
	for _, name := range []string{"POSTRE", "REFRESCO", "AJI", "PAN"} {
		sb.WithSlot(cf.ConstantSlot(name, cf.Recipes(n, minCost, maxCost, 100)...))
	}
	return sb
}
