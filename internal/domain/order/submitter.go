package order

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/clinrec/orderentry/internal/domain/ordersession"
)

// Submitter adapts the order service to the submission interface the
// order-entry session dispatches drafts through. Rule violations travel back
// as codes; the session maps them to user-facing text.
type Submitter struct {
	svc    *Service
	logger zerolog.Logger
}

func NewSubmitter(svc *Service, logger zerolog.Logger) *Submitter {
	return &Submitter{svc: svc, logger: logger}
}

func (s *Submitter) Submit(ctx context.Context, draft ordersession.DraftOrder) ordersession.SubmissionResult {
	o, err := s.svc.CreateFromDraft(ctx, draft)
	if err != nil {
		var codes []string
		if errors.Is(err, ErrDuplicateActiveOrder) {
			codes = []string{DuplicateActiveOrderCode}
		}
		s.logger.Error().Err(err).
			Str("drug", draft.Drug).
			Str("care_setting", draft.CareSetting).
			Msg("order creation failed")
		return ordersession.SubmissionResult{
			ErrorMessage: codes,
			Status:       ordersession.SubmissionStatus{Error: true},
		}
	}
	return ordersession.SubmissionResult{
		AddedOrder: o,
		Status:     ordersession.SubmissionStatus{Added: true},
	}
}
