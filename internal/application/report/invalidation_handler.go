package report

import (
	"context"

	"github.com/shopledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SummaryInvalidationHandler drops an owner's cached summaries whenever a
// ledger event for that owner is published
type SummaryInvalidationHandler struct {
	cache  SummaryCache
	logger *zap.Logger
}

// NewSummaryInvalidationHandler creates a new SummaryInvalidationHandler
func NewSummaryInvalidationHandler(cache SummaryCache, logger *zap.Logger) *SummaryInvalidationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryInvalidationHandler{cache: cache, logger: logger}
}

// EventTypes returns nil: every ledger event can change a summary
func (h *SummaryInvalidationHandler) EventTypes() []string {
	return nil
}

// Handle bumps the event owner's cache generation
func (h *SummaryInvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if err := h.cache.Invalidate(ctx, event.OwnerID()); err != nil {
		h.logger.Warn("failed to invalidate spending summaries",
			zap.String("owner_id", event.OwnerID().String()),
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

var _ shared.EventHandler = (*SummaryInvalidationHandler)(nil)
