package commerce

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/application/validation"
	"github.com/shopledger/backend/internal/domain/commerce"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PaymentService records capture and refund payments and projects them onto orders.
//
// Idempotency keys are unique per owner at the storage layer. A retried
// create with the same key and order returns the stored payment; the same
// key against a different order is a conflict.
type PaymentService struct {
	paymentRepo     commerce.PaymentRepository
	txScope         TransactionScope
	orders          *OrderService
	defaultCurrency string
	eventPublisher  shared.EventPublisher
	metrics         *telemetry.LedgerMetrics
	logger          *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(paymentRepo commerce.PaymentRepository, txScope TransactionScope, orders *OrderService, defaultCurrency string, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		paymentRepo:     paymentRepo,
		txScope:         txScope,
		orders:          orders,
		defaultCurrency: shared.NormalizeCurrencyOrDefault(defaultCurrency),
		logger:          logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *PaymentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLedgerMetrics sets the ledger metrics collector
func (s *PaymentService) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	s.metrics = m
}

// Create records a payment and projects it onto its order
func (s *PaymentService) Create(ctx context.Context, ownerID uuid.UUID, req CreatePaymentRequest) (result *PaymentResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "create",
		telemetry.OwnerAttr(ownerID), telemetry.IDAttr("order.id", req.OrderID))
	defer func() { telemetry.End(span, err) }()

	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	currency, err := shared.NormalizeCurrency(req.Currency, s.defaultCurrency)
	if err != nil {
		return nil, err
	}
	payment, err := commerce.NewPayment(commerce.NewPaymentParams{
		OwnerID:        ownerID,
		OrderID:        req.OrderID,
		Direction:      commerce.PaymentDirection(req.Direction),
		Status:         commerce.PaymentStatus(req.Status),
		Method:         req.Method,
		Provider:       req.Provider,
		AmountCents:    req.AmountCents,
		Currency:       currency,
		OccurredAt:     req.OccurredAt,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	events := &shared.EventCollector{}
	var existing *commerce.Payment
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.Reset()
		existing = nil
		if payment.IdempotencyKey != nil {
			found, err := repos.PaymentRepo().FindByIdempotencyKey(ctx, ownerID, *payment.IdempotencyKey)
			switch {
			case err == nil:
				existing = found
				return nil
			case !errors.Is(err, shared.ErrNotFound):
				return err
			}
		}
		return s.record(ctx, repos, payment, events)
	})

	// The unique index closes the race between the lookup and the insert;
	// the transaction is gone, so the winner is read back outside it.
	if err != nil && payment.IdempotencyKey != nil && errors.Is(err, shared.ErrConflict) {
		found, findErr := s.paymentRepo.FindByIdempotencyKey(ctx, ownerID, *payment.IdempotencyKey)
		if findErr != nil {
			return nil, err
		}
		existing, err = found, nil
	}
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if !existing.MatchesRetry(req.OrderID) {
			return nil, shared.NewConflictError("idempotencyKey was already used for another order")
		}
		s.metrics.RecordIdempotentReplay(ctx)
		s.logger.Info("payment create replayed",
			zap.String("payment_id", existing.ID.String()),
			zap.String("order_id", existing.OrderID.String()),
		)
		return &PaymentResult{Payment: ToPaymentResponse(existing), Created: false}, nil
	}

	publish(ctx, s.eventPublisher, s.logger, events)
	s.metrics.RecordPayment(ctx, string(payment.Direction), string(payment.Status), payment.AmountCents)
	s.logger.Info("payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("order_id", payment.OrderID.String()),
		zap.String("direction", string(payment.Direction)),
		zap.String("status", string(payment.Status)),
		zap.Int64("amount_cents", payment.AmountCents),
	)
	return &PaymentResult{Payment: ToPaymentResponse(payment), Created: true}, nil
}

// GetByID returns a payment
func (s *PaymentService) GetByID(ctx context.Context, ownerID, paymentID uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByID(ctx, ownerID, paymentID)
	if err != nil {
		return nil, err
	}
	out := ToPaymentResponse(payment)
	return &out, nil
}

// List returns one page of payments ordered by (occurredAt desc, id desc)
func (s *PaymentService) List(ctx context.Context, ownerID uuid.UUID, filter PaymentListFilter) (shared.CursorPage[PaymentResponse], error) {
	if err := validation.Struct(filter); err != nil {
		return shared.CursorPage[PaymentResponse]{}, err
	}
	cursor, err := validation.Cursor(filter.Cursor, filter.Limit)
	if err != nil {
		return shared.CursorPage[PaymentResponse]{}, err
	}
	domainFilter := commerce.PaymentFilter{CursorFilter: cursor}
	if filter.OrderID != "" {
		id, err := uuid.Parse(filter.OrderID)
		if err != nil {
			return shared.CursorPage[PaymentResponse]{}, shared.NewValidationError("orderId is invalid")
		}
		domainFilter.OrderID = &id
	}

	page, err := s.paymentRepo.List(ctx, ownerID, domainFilter)
	if err != nil {
		return shared.CursorPage[PaymentResponse]{}, err
	}
	return shared.MapCursorPage(page, func(p commerce.Payment) PaymentResponse {
		return ToPaymentResponse(&p)
	}), nil
}

// record inserts a payment and applies its order projection within the
// caller's transaction
func (s *PaymentService) record(ctx context.Context, repos TransactionalRepositories, payment *commerce.Payment, events *shared.EventCollector) error {
	if _, err := repos.OrderRepo().FindByID(ctx, payment.OwnerID, payment.OrderID); err != nil {
		return err
	}
	if err := repos.PaymentRepo().Create(ctx, payment); err != nil {
		return err
	}
	events.Collect(payment)
	return s.project(ctx, repos, payment, events)
}

// applyPatch updates a payment and re-applies its order projection within
// the caller's transaction
func (s *PaymentService) applyPatch(ctx context.Context, repos TransactionalRepositories, payment *commerce.Payment, patch commerce.PaymentPatch, events *shared.EventCollector) error {
	if patch.IsEmpty() {
		return nil
	}
	if err := payment.Apply(patch); err != nil {
		return err
	}
	if err := repos.PaymentRepo().Update(ctx, payment); err != nil {
		return err
	}
	events.Collect(payment)
	return s.project(ctx, repos, payment, events)
}

func (s *PaymentService) project(ctx context.Context, repos TransactionalRepositories, payment *commerce.Payment, events *shared.EventCollector) error {
	status, ok := payment.OrderProjection()
	if !ok {
		return nil
	}
	return s.orders.ProjectPaymentStatus(ctx, repos, payment.OwnerID, payment.OrderID, status, events)
}
