// Package catalog contains the read-only master data the plan generator
// consumes: clients with their nutritional contracts, menu component slots,
// and the recipes eligible for each slot.
package catalog

// MenuType identifies one meal service a client receives per day
// (e.g. almuerzo, cena). The display name travels to the plan document.
type MenuType struct {
	ID   string `json:"id" mapstructure:"id"`
	Name string `json:"name" mapstructure:"name"`
}

// Recipe is one dish eligible for a slot, with the cost and kilocalorie
// figures the solver constrains on.
type Recipe struct {
	ID       string  `json:"id" mapstructure:"id"`
	Name     string  `json:"name" mapstructure:"name"`
	Category string  `json:"category" mapstructure:"category"`
	Quality  string  `json:"quality" mapstructure:"quality"`
	Cost     float64 `json:"cost" mapstructure:"cost"`
	Kcal     float64 `json:"kcal" mapstructure:"kcal"`

	// Unique recipes may be assigned at most once per client across the
	// whole planning window.
	Unique bool `json:"unique" mapstructure:"unique"`

	// Recipes sharing a non-empty PairID are mutually exclusive within
	// the same menu.
	PairID string `json:"pair_id,omitempty" mapstructure:"pair_id"`
}

// Slot is a named position within a menu (FONDO, ENTRADA, SOPA, POSTRE,
// REFRESCO, AJI, PAN, ...). Constant slots are filled from a fixed
// rotation and are exempt from the uniqueness search.
type Slot struct {
	ID       int64    `json:"id" mapstructure:"id"`
	Name     string   `json:"name" mapstructure:"name"`
	Constant bool     `json:"constant" mapstructure:"constant"`
	Priority int      `json:"priority" mapstructure:"priority"`
	Recipes  []Recipe `json:"recipes" mapstructure:"recipes"`
}

// Client holds one client's planning contract. MeatPreferences is a soft
// signal only; the solver never treats a violation as infeasibility.
type Client struct {
	ID              int64          `json:"id" mapstructure:"id"`
	Name            string         `json:"name" mapstructure:"name"`
	Active          bool           `json:"active" mapstructure:"active"`
	MealsPerWeek    int            `json:"meals_per_week" mapstructure:"meals_per_week"`
	BudgetPerMenu   float64        `json:"budget_per_menu" mapstructure:"budget_per_menu"`
	KcalMin         float64        `json:"kcal_min" mapstructure:"kcal_min"`
	KcalMax         float64        `json:"kcal_max" mapstructure:"kcal_max"`
	MeatPreferences map[string]int `json:"meat_preferences,omitempty" mapstructure:"meat_preferences"`
	MenuTypes       []MenuType     `json:"menu_types" mapstructure:"menu_types"`
}

// Snapshot is the immutable catalog view fetched once per generation
// request. The solver only ever reads it.
type Snapshot struct {
	Clients []Client `json:"clients" mapstructure:"clients"`
	Slots   []Slot   `json:"slots" mapstructure:"slots"`
}

// ClientByID returns the client with the given id, or nil.
func (s *Snapshot) ClientByID(id int64) *Client {
	for i := range s.Clients {
		if s.Clients[i].ID == id {
			return &s.Clients[i]
		}
	}
	return nil
}

// Validate checks the structural invariants a snapshot must satisfy
// before it can back a generation request.
func (s *Snapshot) Validate() error {
	if len(s.Slots) == 0 {
		return ErrNoSlots
	}
	for _, slot := range s.Slots {
		if len(slot.Recipes) == 0 {
			return ErrEmptySlot
		}
		for _, r := range slot.Recipes {
			if r.Cost < 0 || r.Kcal < 0 {
				return ErrCorruptRecipe
			}
		}
	}
	for _, c := range s.Clients {
		if c.MealsPerWeek <= 0 {
			return ErrInvalidClientContract
		}
		if c.BudgetPerMenu < 0 || c.KcalMin < 0 || c.KcalMin > c.KcalMax {
			return ErrInvalidClientContract
		}
	}
	return nil
}
