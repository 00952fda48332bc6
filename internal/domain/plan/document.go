package plan

// The plan document is the externally consumed output of a completed
// generation job. Field names follow the wire contract of the dashboard
// that polls for it, so the document marshals directly.

// ClientStatus reports the per-client outcome of the search. An
// infeasible client never fails the owning job.
type ClientStatus string

const (
	ClientSatisfied  ClientStatus = "satisfied"
	ClientInfeasible ClientStatus = "infeasible"
)

// Component is one filled slot of a menu.
type Component struct {
	ComponentID   int64   `json:"componente_id"`
	ComponentName string  `json:"componente_nombre"`
	RecipeID      string  `json:"receta_id"`
	RecipeName    string  `json:"receta_nombre"`
	RecipeCat     string  `json:"receta_categoria"`
	RecipeQuality *string `json:"receta_calidad"`
	Unique        bool    `json:"unico"`
}

// Menu aggregates all components of one (client, date, menu type).
type Menu struct {
	Date         string      `json:"fecha"`
	MenuType     string      `json:"tipo_menu"`
	MenuTypeName string      `json:"tipo_menu_nombre"`
	Components   []Component `json:"componentes"`
	CostTotal    float64     `json:"costo_total"`
	KcalTotal    float64     `json:"kilocalorias_total"`
}

// ClientPlan holds one client's week. Menus is empty when the client
// was infeasible.
type ClientPlan struct {
	ClientID   int64        `json:"cliente_id"`
	ClientName string       `json:"cliente_nombre"`
	Status     ClientStatus `json:"estado"`
	Menus      []Menu       `json:"menus"`
}

// Document is the full multi-client, multi-day generation output.
type Document struct {
	Status string       `json:"status"`
	Plan   []ClientPlan `json:"plan"`
}
