package commerce

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/application/validation"
	"github.com/shopledger/backend/internal/domain/commerce"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// RefundService handles refund requests against capture payments.
//
// Cumulative refunds are not capped by the original payment amount; an
// overrun is logged as a warning and the operation proceeds.
type RefundService struct {
	refundRepo     commerce.RefundRepository
	paymentRepo    commerce.PaymentRepository
	txScope        TransactionScope
	payments       *PaymentService
	orders         *OrderService
	eventPublisher shared.EventPublisher
	metrics        *telemetry.LedgerMetrics
	logger         *zap.Logger
}

// NewRefundService creates a new RefundService
func NewRefundService(
	refundRepo commerce.RefundRepository,
	paymentRepo commerce.PaymentRepository,
	txScope TransactionScope,
	payments *PaymentService,
	orders *OrderService,
	logger *zap.Logger,
) *RefundService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefundService{
		refundRepo:  refundRepo,
		paymentRepo: paymentRepo,
		txScope:     txScope,
		payments:    payments,
		orders:      orders,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *RefundService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLedgerMetrics sets the ledger metrics collector
func (s *RefundService) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	s.metrics = m
}

// Create opens a refund against a capture payment. A payment section
// records the linked REFUND payment in the same transaction.
func (s *RefundService) Create(ctx context.Context, ownerID uuid.UUID, req CreateRefundRequest) (resp *RefundResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "refund", "create",
		telemetry.OwnerAttr(ownerID), telemetry.IDAttr("payment.id", req.OriginalPaymentID))
	defer func() { telemetry.End(span, err) }()

	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	events := &shared.EventCollector{}
	var refund *commerce.Refund
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.Reset()
		original, err := repos.PaymentRepo().FindByID(ctx, ownerID, req.OriginalPaymentID)
		if err != nil {
			return err
		}
		refund, err = commerce.NewRefund(original, req.AmountCents, req.Reason)
		if err != nil {
			return err
		}
		if req.Items != nil {
			if refund.Items, err = refund.BuildItems(toItemSpecs(req.Items)); err != nil {
				return err
			}
		}

		if req.Payment != nil {
			linked, err := s.newLinkedPayment(original, refund, *req.Payment)
			if err != nil {
				return err
			}
			if err := s.payments.record(ctx, repos, linked, events); err != nil {
				return err
			}
			refund.LinkRefundPayment(linked.ID)
		}

		explicit := commerce.RefundTimestamps{ApprovedAt: req.ApprovedAt, ProcessedAt: req.ProcessedAt, CompletedAt: req.CompletedAt}
		next := refund.Status
		if req.Status != nil {
			next = commerce.RefundStatus(*req.Status)
		}
		if err := refund.ChangeStatus(next, explicit); err != nil {
			return err
		}

		if err := repos.RefundRepo().Create(ctx, refund); err != nil {
			return err
		}
		if err := s.warnOverrun(ctx, repos, refund, original); err != nil {
			return err
		}
		if err := s.projectSucceeded(ctx, repos, refund, events); err != nil {
			return err
		}
		events.Collect(refund)
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.eventPublisher, s.logger, events)
	s.metrics.RecordRefundTransition(ctx, string(refund.Status))

	return s.GetByID(ctx, ownerID, refund.ID)
}

// Update applies a partial refund update under the refund's row lock
func (s *RefundService) Update(ctx context.Context, ownerID, refundID uuid.UUID, req UpdateRefundRequest) (resp *RefundResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "refund", "update",
		telemetry.OwnerAttr(ownerID), telemetry.IDAttr("refund.id", refundID))
	defer func() { telemetry.End(span, err) }()

	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	events := &shared.EventCollector{}
	var transitioned bool
	var refund *commerce.Refund
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.Reset()
		var err error
		refund, err = repos.RefundRepo().FindByIDForUpdate(ctx, ownerID, refundID)
		if err != nil {
			return err
		}

		amountChanged := req.AmountCents != nil && *req.AmountCents != refund.AmountCents
		if err := refund.Revise(req.Reason, req.AmountCents); err != nil {
			return err
		}

		from := refund.Status
		explicit := commerce.RefundTimestamps{ApprovedAt: req.ApprovedAt, ProcessedAt: req.ProcessedAt, CompletedAt: req.CompletedAt}
		next := refund.Status
		if req.Status != nil {
			next = commerce.RefundStatus(*req.Status)
		}
		if err := refund.ChangeStatus(next, explicit); err != nil {
			return err
		}
		transitioned = refund.Status != from

		if req.Items != nil {
			items, err := refund.BuildItems(toItemSpecs(req.Items))
			if err != nil {
				return err
			}
			if err := repos.RefundRepo().ReplaceItems(ctx, refund.ID, items); err != nil {
				return err
			}
			refund.Items = items
		}

		if req.Payment != nil {
			if refund.RefundPaymentID == nil {
				return shared.NewValidationError("refund has no linked payment to update")
			}
			linked, err := repos.PaymentRepo().FindByID(ctx, ownerID, *refund.RefundPaymentID)
			if err != nil {
				return err
			}
			if err := s.payments.applyPatch(ctx, repos, linked, req.Payment.ToPatch(), events); err != nil {
				return err
			}
		}

		if err := repos.RefundRepo().Update(ctx, refund); err != nil {
			return err
		}
		if amountChanged {
			original, err := repos.PaymentRepo().FindByID(ctx, ownerID, refund.OriginalPaymentID)
			if err != nil {
				return err
			}
			if err := s.warnOverrun(ctx, repos, refund, original); err != nil {
				return err
			}
		}
		if transitioned {
			if err := s.projectSucceeded(ctx, repos, refund, events); err != nil {
				return err
			}
		}
		events.Collect(refund)
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.eventPublisher, s.logger, events)
	if transitioned {
		s.metrics.RecordRefundTransition(ctx, string(refund.Status))
		s.logger.Info("refund status changed",
			zap.String("refund_id", refund.ID.String()),
			zap.String("status", string(refund.Status)),
		)
	}

	return s.GetByID(ctx, ownerID, refundID)
}

// GetByID returns a refund with its items and linked payments
func (s *RefundService) GetByID(ctx context.Context, ownerID, refundID uuid.UUID) (*RefundResponse, error) {
	refund, err := s.refundRepo.FindByID(ctx, ownerID, refundID)
	if err != nil {
		return nil, err
	}
	out := ToRefundResponse(refund)

	original, err := s.paymentRepo.FindByID(ctx, ownerID, refund.OriginalPaymentID)
	if err != nil {
		return nil, err
	}
	op := ToPaymentResponse(original)
	out.OriginalPayment = &op

	if refund.RefundPaymentID != nil {
		linked, err := s.paymentRepo.FindByID(ctx, ownerID, *refund.RefundPaymentID)
		if err != nil {
			return nil, err
		}
		rp := ToPaymentResponse(linked)
		out.RefundPayment = &rp
	}
	return &out, nil
}

// List returns one page of refunds ordered by (requestedAt desc, id desc)
func (s *RefundService) List(ctx context.Context, ownerID uuid.UUID, filter RefundListFilter) (shared.CursorPage[RefundResponse], error) {
	if err := validation.Struct(filter); err != nil {
		return shared.CursorPage[RefundResponse]{}, err
	}
	cursor, err := validation.Cursor(filter.Cursor, filter.Limit)
	if err != nil {
		return shared.CursorPage[RefundResponse]{}, err
	}
	domainFilter := commerce.RefundFilter{CursorFilter: cursor}
	if filter.OrderID != "" {
		id, err := uuid.Parse(filter.OrderID)
		if err != nil {
			return shared.CursorPage[RefundResponse]{}, shared.NewValidationError("orderId is invalid")
		}
		domainFilter.OrderID = &id
	}
	if filter.Status != "" {
		st := commerce.RefundStatus(filter.Status)
		domainFilter.Status = &st
	}

	page, err := s.refundRepo.List(ctx, ownerID, domainFilter)
	if err != nil {
		return shared.CursorPage[RefundResponse]{}, err
	}
	return shared.MapCursorPage(page, func(r commerce.Refund) RefundResponse {
		return ToRefundResponse(&r)
	}), nil
}

// Delete removes a refund and its items. The linked refund payment is then
// deleted on a best-effort basis: a failure is logged, not returned.
func (s *RefundService) Delete(ctx context.Context, ownerID, refundID uuid.UUID) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "refund", "delete",
		telemetry.OwnerAttr(ownerID), telemetry.IDAttr("refund.id", refundID))
	defer func() { telemetry.End(span, err) }()

	if err := shared.EnsureDeletable(shared.EntityRefund); err != nil {
		return err
	}

	events := &shared.EventCollector{}
	var refund *commerce.Refund
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.Reset()
		var err error
		refund, err = repos.RefundRepo().FindByIDForUpdate(ctx, ownerID, refundID)
		if err != nil {
			return err
		}
		if err := repos.RefundRepo().Delete(ctx, ownerID, refund.ID); err != nil {
			return err
		}
		events.Add(commerce.NewRefundDeletedEvent(refund))
		return nil
	})
	if err != nil {
		return err
	}

	if refund.RefundPaymentID != nil {
		if err := s.paymentRepo.Delete(ctx, ownerID, *refund.RefundPaymentID); err != nil {
			s.logger.Warn("failed to delete linked refund payment",
				zap.String("refund_id", refund.ID.String()),
				zap.String("payment_id", refund.RefundPaymentID.String()),
				zap.Error(err),
			)
		}
	}
	publish(ctx, s.eventPublisher, s.logger, events)
	return nil
}

// newLinkedPayment builds the REFUND payment recorded alongside a refund.
// Unset fields default to the refund amount and the original payment's
// method, provider and currency.
func (s *RefundService) newLinkedPayment(original *commerce.Payment, refund *commerce.Refund, req PaymentPatchRequest) (*commerce.Payment, error) {
	params := commerce.NewPaymentParams{
		OwnerID:     original.OwnerID,
		OrderID:     original.OrderID,
		Direction:   commerce.PaymentDirectionRefund,
		Method:      original.Method,
		Provider:    original.Provider,
		AmountCents: refund.AmountCents,
		Currency:    original.Currency,
		OccurredAt:  req.OccurredAt,
	}
	if req.Status != nil {
		params.Status = commerce.PaymentStatus(*req.Status)
	}
	if req.Method != nil {
		params.Method = *req.Method
	}
	if req.Provider != nil {
		params.Provider = *req.Provider
	}
	if req.AmountCents != nil {
		params.AmountCents = *req.AmountCents
	}
	return commerce.NewPayment(params)
}

func (s *RefundService) projectSucceeded(ctx context.Context, repos TransactionalRepositories, refund *commerce.Refund, events *shared.EventCollector) error {
	if !refund.IsSucceeded() {
		return nil
	}
	return s.orders.ProjectPaymentStatus(ctx, repos, refund.OwnerID, refund.OrderID, commerce.OrderPaymentRefunded, events)
}

// warnOverrun logs when refunds against the original payment add up to more
// than it captured
func (s *RefundService) warnOverrun(ctx context.Context, repos TransactionalRepositories, refund *commerce.Refund, original *commerce.Payment) error {
	others, err := repos.RefundRepo().SumAmountByOriginalPayment(ctx, refund.OwnerID, original.ID, &refund.ID)
	if err != nil {
		return err
	}
	if total := others + refund.AmountCents; total > original.AmountCents {
		s.logger.Warn("refunds exceed original payment amount",
			zap.String("refund_id", refund.ID.String()),
			zap.String("payment_id", original.ID.String()),
			zap.Int64("refunded_cents", total),
			zap.Int64("captured_cents", original.AmountCents),
		)
	}
	return nil
}
