package order

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinrec/orderentry/internal/domain/ordersession"
)

// Order statuses. An order leaves "active" exactly once, either by being
// revised (superseded by a newer order) or discontinued outright.
const (
	StatusActive       = "active"
	StatusRevised      = "revised"
	StatusDiscontinued = "discontinued"
)

// Order maps to the drug_order table: one submitted drug order.
type Order struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	OrderNumber     string     `db:"order_number" json:"order_number"`
	DrugID          uuid.UUID  `db:"drug_id" json:"drug_id"`
	DrugDisplay     string     `db:"drug_display" json:"drug_display"`
	CareSetting     string     `db:"care_setting" json:"care_setting"`
	Orderer         string     `db:"orderer" json:"orderer"`
	Status          string     `db:"status" json:"status"`
	DosingType      string     `db:"dosing_type" json:"dosing_type"`
	Dose            string     `db:"dose" json:"dose,omitempty"`
	DosingUnit      string     `db:"dosing_unit" json:"dosing_unit,omitempty"`
	Route           string     `db:"route" json:"route,omitempty"`
	Frequency       string     `db:"frequency" json:"frequency,omitempty"`
	Duration        string     `db:"duration" json:"duration,omitempty"`
	DurationUnit    string     `db:"duration_unit" json:"duration_unit,omitempty"`
	Quantity        string     `db:"quantity" json:"quantity,omitempty"`
	QuantityUnit    string     `db:"quantity_unit" json:"quantity_unit,omitempty"`
	Instructions    string     `db:"instructions" json:"instructions,omitempty"`
	Reason          string     `db:"reason" json:"reason,omitempty"`
	PreviousOrderID *uuid.UUID `db:"previous_order_id" json:"previous_order_id,omitempty"`
	DateActivated   time.Time  `db:"date_activated" json:"date_activated"`
	DateStopped     *time.Time `db:"date_stopped" json:"date_stopped,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Fields reshapes the persisted columns into the form-field struct the
// order-entry session populates on revise.
func (o *Order) Fields() ordersession.OrderFields {
	return ordersession.OrderFields{
		Dose:               o.Dose,
		DosingUnit:         o.DosingUnit,
		Route:              o.Route,
		Frequency:          o.Frequency,
		Duration:           o.Duration,
		DurationUnit:       o.DurationUnit,
		DispensingQuantity: o.Quantity,
		DispensingUnit:     o.QuantityUnit,
		DrugInstructions:   o.Instructions,
		Reason:             o.Reason,
	}
}

// NumericOrderNumber returns the sequence part of an order number like
// "ORD-42", or 0 if it cannot be parsed.
func (o *Order) NumericOrderNumber() int {
	idx := strings.LastIndex(o.OrderNumber, "-")
	n, err := strconv.Atoi(o.OrderNumber[idx+1:])
	if err != nil {
		return 0
	}
	return n
}
