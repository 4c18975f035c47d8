package order

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows an order listing. Zero values mean "any".
type ListFilter struct {
	Status      string
	CareSetting string
	Orderer     string
	DrugID      uuid.UUID
}

type OrderRepository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindActiveByDrug returns the active order for a drug and care
	// setting, or nil when none exists.
	FindActiveByDrug(ctx context.Context, drugID uuid.UUID, careSetting string) (*Order, error)
	// UpdateStatus moves an order out of active, stamping date_stopped.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Order, int, error)
}
