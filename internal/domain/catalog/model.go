package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Kinds of configurable order-entry lists. Each kind backs one dropdown on
// the drug order form and one validation list.
const (
	KindDosingUnit     = "drug_dosing_units"
	KindFrequency      = "order_frequencies"
	KindRoute          = "drug_routes"
	KindDispensingUnit = "drug_dispensing_units"
	KindDurationUnit   = "duration_units"
)

// Entry maps to the order_entry_catalog table. One row per selectable value.
type Entry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Kind      string    `db:"kind" json:"kind"`
	Display   string    `db:"display" json:"display"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	Retired   bool      `db:"retired" json:"retired"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Bundle is the full order-entry configuration, shaped for form consumers:
// every non-retired entry of every kind, grouped and sorted.
type Bundle struct {
	DrugDosingUnits     []Entry `json:"drugDosingUnits"`
	OrderFrequencies    []Entry `json:"orderFrequencies"`
	DrugRoutes          []Entry `json:"drugRoutes"`
	DrugDispensingUnits []Entry `json:"drugDispensingUnits"`
	DurationUnits       []Entry `json:"durationUnits"`
}
