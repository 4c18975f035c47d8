package ordersession

import "github.com/shopspring/decimal"

// CatalogEntry is a single allowed value supplied by the order-entry
// configuration. Matching is a case-sensitive exact match on Display.
type CatalogEntry struct {
	Display string `json:"display"`
}

// Catalogs bundles the enumerable allowed-value lists the form validates
// against.
type Catalogs struct {
	DrugDosingUnits     []CatalogEntry `json:"drugDosingUnits"`
	OrderFrequencies    []CatalogEntry `json:"orderFrequencies"`
	DrugRoutes          []CatalogEntry `json:"drugRoutes"`
	DrugDispensingUnits []CatalogEntry `json:"drugDispensingUnits"`
	DurationUnits       []CatalogEntry `json:"durationUnits"`
}

func (c Catalogs) forField(name string) ([]CatalogEntry, bool) {
	switch name {
	case FieldDosingUnit:
		return c.DrugDosingUnits, true
	case FieldFrequency:
		return c.OrderFrequencies, true
	case FieldRoute:
		return c.DrugRoutes, true
	case FieldDispensingUnit:
		return c.DrugDispensingUnits, true
	case FieldDurationUnit:
		return c.DurationUnits, true
	}
	return nil, false
}

// ValidateField reports whether a single field value is acceptable. An empty
// value is always acceptable here; required-ness is enforced by the confirm
// gating, not per field. Enumerable fields must match a catalog entry,
// numeric fields must parse as a positive number (no upper bound).
func ValidateField(name, value string, cats Catalogs) bool {
	if value == "" {
		return true
	}
	if entries, ok := cats.forField(name); ok {
		return containsDisplay(entries, value)
	}
	switch name {
	case FieldDose, FieldDispensingQuantity, FieldDuration:
		return isPositiveNumber(value)
	}
	// Free-form fields (drugInstructions, reason) carry no constraint.
	return true
}

func containsDisplay(entries []CatalogEntry, value string) bool {
	for _, e := range entries {
		if e.Display == value {
			return true
		}
	}
	return false
}

func isPositiveNumber(value string) bool {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return false
	}
	return d.IsPositive()
}
