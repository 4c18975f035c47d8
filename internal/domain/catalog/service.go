package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clinrec/orderentry/internal/domain/ordersession"
)

type Service struct {
	repo EntryRepository
}

func NewService(repo EntryRepository) *Service {
	return &Service{repo: repo}
}

var validKinds = map[string]bool{
	KindDosingUnit:     true,
	KindFrequency:      true,
	KindRoute:          true,
	KindDispensingUnit: true,
	KindDurationUnit:   true,
}

func (s *Service) CreateEntry(ctx context.Context, e *Entry) error {
	if !validKinds[e.Kind] {
		return fmt.Errorf("invalid kind: %s", e.Kind)
	}
	if strings.TrimSpace(e.Display) == "" {
		return fmt.Errorf("display is required")
	}
	return s.repo.Create(ctx, e)
}

func (s *Service) GetEntry(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateEntry(ctx context.Context, e *Entry) error {
	if !validKinds[e.Kind] {
		return fmt.Errorf("invalid kind: %s", e.Kind)
	}
	if strings.TrimSpace(e.Display) == "" {
		return fmt.Errorf("display is required")
	}
	return s.repo.Update(ctx, e)
}

func (s *Service) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListEntries(ctx context.Context, kind string, includeRetired bool) ([]*Entry, error) {
	if kind != "" && !validKinds[kind] {
		return nil, fmt.Errorf("invalid kind: %s", kind)
	}
	if kind == "" {
		return s.repo.ListAll(ctx, includeRetired)
	}
	return s.repo.ListByKind(ctx, kind, includeRetired)
}

// GetBundle assembles the full form configuration from the live entries.
func (s *Service) GetBundle(ctx context.Context) (*Bundle, error) {
	entries, err := s.repo.ListAll(ctx, false)
	if err != nil {
		return nil, err
	}
	b := &Bundle{}
	for _, e := range entries {
		switch e.Kind {
		case KindDosingUnit:
			b.DrugDosingUnits = append(b.DrugDosingUnits, *e)
		case KindFrequency:
			b.OrderFrequencies = append(b.OrderFrequencies, *e)
		case KindRoute:
			b.DrugRoutes = append(b.DrugRoutes, *e)
		case KindDispensingUnit:
			b.DrugDispensingUnits = append(b.DrugDispensingUnits, *e)
		case KindDurationUnit:
			b.DurationUnits = append(b.DurationUnits, *e)
		}
	}
	return b, nil
}

// Catalogs implements the validation-list source the order-entry session
// consumes on field blur.
func (s *Service) Catalogs(ctx context.Context) (ordersession.Catalogs, error) {
	b, err := s.GetBundle(ctx)
	if err != nil {
		return ordersession.Catalogs{}, err
	}
	return ordersession.Catalogs{
		DrugDosingUnits:     toCatalogEntries(b.DrugDosingUnits),
		OrderFrequencies:    toCatalogEntries(b.OrderFrequencies),
		DrugRoutes:          toCatalogEntries(b.DrugRoutes),
		DrugDispensingUnits: toCatalogEntries(b.DrugDispensingUnits),
		DurationUnits:       toCatalogEntries(b.DurationUnits),
	}, nil
}

func toCatalogEntries(entries []Entry) []ordersession.CatalogEntry {
	out := make([]ordersession.CatalogEntry, len(entries))
	for i, e := range entries {
		out[i] = ordersession.CatalogEntry{Display: e.Display}
	}
	return out
}
