package catalog

import (
	"context"

	"github.com/google/uuid"
)

type EntryRepository interface {
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByKind(ctx context.Context, kind string, includeRetired bool) ([]*Entry, error)
	ListAll(ctx context.Context, includeRetired bool) ([]*Entry, error)
}
