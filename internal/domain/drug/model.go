package drug

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinrec/orderentry/internal/domain/ordersession"
)

// Drug maps to the drug table, the formulary the order form searches.
type Drug struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Display    string    `db:"display" json:"display"`
	Strength   *string   `db:"strength" json:"strength,omitempty"`
	DosageForm *string   `db:"dosage_form" json:"dosage_form,omitempty"`
	Retired    bool      `db:"retired" json:"retired"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Reference converts a drug into the lightweight form the order form holds.
func (d *Drug) Reference() ordersession.DrugReference {
	return ordersession.DrugReference{UUID: d.ID.String(), Display: d.Display}
}
