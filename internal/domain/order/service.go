package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinrec/orderentry/internal/domain/ordersession"
)

// DuplicateActiveOrderCode is the rule-violation code reported when a second
// active order for the same drug and care setting is attempted.
const DuplicateActiveOrderCode = "Order.cannot.have.more.than.one"

var (
	ErrDuplicateActiveOrder = errors.New("an active order already exists for this drug and care setting")
	ErrNotActive            = errors.New("order is not active")
)

type Service struct {
	repo OrderRepository
}

func NewService(repo OrderRepository) *Service {
	return &Service{repo: repo}
}

// CreateFromDraft turns a staged draft into a persisted order. A NEW draft
// must not collide with an existing active order for the same drug and care
// setting. A REVISE draft supersedes its previous order: the previous order
// moves to "revised" and the new order links back to it.
func (s *Service) CreateFromDraft(ctx context.Context, draft ordersession.DraftOrder) (*Order, error) {
	drugID, err := uuid.Parse(draft.Drug)
	if err != nil {
		return nil, fmt.Errorf("invalid drug reference: %w", err)
	}

	existing, err := s.repo.FindActiveByDrug(ctx, drugID, draft.CareSetting)
	if err != nil {
		return nil, fmt.Errorf("check active orders: %w", err)
	}

	var previousID *uuid.UUID
	if draft.Action == ordersession.ActionRevise {
		prevID, err := uuid.Parse(draft.PreviousOrder)
		if err != nil {
			return nil, fmt.Errorf("invalid previous order reference: %w", err)
		}
		prev, err := s.repo.GetByID(ctx, prevID)
		if err != nil {
			return nil, fmt.Errorf("load previous order: %w", err)
		}
		if prev.Status != StatusActive {
			return nil, ErrNotActive
		}
		if existing != nil && existing.ID != prev.ID {
			return nil, ErrDuplicateActiveOrder
		}
		if err := s.repo.UpdateStatus(ctx, prev.ID, StatusRevised); err != nil {
			return nil, fmt.Errorf("supersede previous order: %w", err)
		}
		previousID = &prev.ID
	} else if existing != nil {
		return nil, ErrDuplicateActiveOrder
	}

	o := &Order{
		DrugID:          drugID,
		DrugDisplay:     draft.DrugName,
		CareSetting:     draft.CareSetting,
		Orderer:         draft.Orderer,
		Status:          StatusActive,
		DosingType:      string(draft.DosingType),
		Dose:            draft.Dose,
		DosingUnit:      draft.DosingUnit,
		Route:           draft.Route,
		Frequency:       draft.Frequency,
		Duration:        draft.Duration,
		DurationUnit:    draft.DurationUnit,
		Quantity:        draft.DispensingQuantity,
		QuantityUnit:    draft.DispensingUnit,
		Instructions:    draft.DrugInstructions,
		Reason:          draft.Reason,
		PreviousOrderID: previousID,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return o, nil
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

// DiscontinueOrder stops an active order without replacing it.
func (s *Service) DiscontinueOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusActive {
		return nil, ErrNotActive
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusDiscontinued); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, f ListFilter, limit, offset int) ([]*Order, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// ActiveOrder implements the revision lookup the order-entry session uses:
// it resolves an order id to the revisable form of the order.
func (s *Service) ActiveOrder(ctx context.Context, orderUUID string) (*ordersession.ActiveOrder, error) {
	id, err := uuid.Parse(orderUUID)
	if err != nil {
		return nil, fmt.Errorf("invalid order reference: %w", err)
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusActive {
		return nil, ErrNotActive
	}
	return &ordersession.ActiveOrder{
		UUID:               o.ID.String(),
		Drug:               ordersession.DrugReference{UUID: o.DrugID.String(), Display: o.DrugDisplay},
		DosingInstructions: o.Instructions,
		Quantity:           o.Quantity,
		QuantityUnits:      o.QuantityUnit,
		OrderNumber:        o.NumericOrderNumber(),
		Fields:             o.Fields(),
	}, nil
}
