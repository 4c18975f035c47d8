package drug

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo DrugRepository
}

func NewService(repo DrugRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateDrug(ctx context.Context, d *Drug) error {
	if strings.TrimSpace(d.Display) == "" {
		return fmt.Errorf("display is required")
	}
	return s.repo.Create(ctx, d)
}

func (s *Service) GetDrug(ctx context.Context, id uuid.UUID) (*Drug, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateDrug(ctx context.Context, d *Drug) error {
	if strings.TrimSpace(d.Display) == "" {
		return fmt.Errorf("display is required")
	}
	return s.repo.Update(ctx, d)
}

func (s *Service) DeleteDrug(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// SearchDrugs matches the formulary by display name substring.
func (s *Service) SearchDrugs(ctx context.Context, query string, limit, offset int) ([]*Drug, int, error) {
	return s.repo.Search(ctx, strings.TrimSpace(query), limit, offset)
}
