package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/commerce"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements commerce.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*commerce.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&model).Error; err != nil {
		return nil, firstOr(err, "order")
	}
	order := model.ToDomain()
	items, err := r.loadItems(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return order, nil
}

// FindByIDForUpdate finds an order header and locks its row
func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*commerce.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&model).Error; err != nil {
		return nil, firstOr(err, "order")
	}
	return model.ToDomain(), nil
}

// List returns one page of orders with their items, most recently placed first
func (r *GormOrderRepository) List(ctx context.Context, ownerID uuid.UUID, filter commerce.OrderFilter) (shared.CursorPage[commerce.Order], error) {
	query := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("owner_id = ?", ownerID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filter.PaymentStatus)
	}
	query, limit, err := orderKeyset.apply(ctx, r.db, query, ownerID, filter.CursorFilter)
	if err != nil {
		return shared.CursorPage[commerce.Order]{}, err
	}

	var rows []models.OrderModel
	if err := query.Find(&rows).Error; err != nil {
		return shared.CursorPage[commerce.Order]{}, translateError(err)
	}
	page := shared.NewCursorPage(rows, limit, func(m models.OrderModel) uuid.UUID { return m.ID })

	ids := make([]uuid.UUID, len(page.Items))
	for i := range page.Items {
		ids[i] = page.Items[i].ID
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return shared.CursorPage[commerce.Order]{}, err
	}
	return shared.MapCursorPage(page, func(m models.OrderModel) commerce.Order {
		o := m.ToDomain()
		o.Items = items[o.ID]
		return *o
	}), nil
}

// Create inserts the order header and its items
func (r *GormOrderRepository) Create(ctx context.Context, order *commerce.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.OrderModelFromDomain(order)).Error; err != nil {
			return translateError(err)
		}
		if len(order.Items) == 0 {
			return nil
		}
		rows := make([]models.OrderItemModel, len(order.Items))
		for i := range order.Items {
			rows[i].FromDomain(&order.Items[i])
			rows[i].Position = i + 1
		}
		return translateError(tx.Create(&rows).Error)
	})
}

// Update writes the order's status fields guarded by its version. Money
// totals, snapshots and items are immutable once placed.
func (r *GormOrderRepository) Update(ctx context.Context, order *commerce.Order) error {
	updated, err := updateVersioned(ctx, r.db, &models.OrderModel{}, order.OwnerID, order.ID, order.Version, map[string]any{
		"status":             order.Status,
		"payment_status":     order.PaymentStatus,
		"fulfillment_status": order.FulfillmentStatus,
		"delivered_at":       order.DeliveredAt,
		"updated_at":         order.UpdatedAt,
	})
	if err != nil {
		return err
	}
	if !updated {
		return missedUpdate(ctx, r.db, &models.OrderModel{}, order.OwnerID, order.ID, "order")
	}
	order.IncrementVersion()
	return nil
}

// loadItems fetches the items of the given orders grouped by order id
func (r *GormOrderRepository) loadItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]commerce.OrderItem, error) {
	grouped := make(map[uuid.UUID][]commerce.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return grouped, nil
	}
	var rows []models.OrderItemModel
	if err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("position ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	for i := range rows {
		grouped[rows[i].OrderID] = append(grouped[rows[i].OrderID], rows[i].ToDomain())
	}
	return grouped, nil
}

// Ensure GormOrderRepository implements commerce.OrderRepository
var _ commerce.OrderRepository = (*GormOrderRepository)(nil)
