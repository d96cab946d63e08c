package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minsukang/storefront-backend/pkg/db/models"
	"github.com/minsukang/storefront-backend/pkg/pagination"
)

// ListResult bundles one page of order headers with page metadata.
type ListResult struct {
	Orders []models.Order
	Page   pagination.Page
}

// Repository persists order headers and their line items.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateOrder inserts the order header. Line items are written separately so
// the header insert stays a plain single-row statement.
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Omit("Items").
		Create(order).
		Error
}

// CreateOrderItems batch-inserts the line items of an order.
func (r *Repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// ListByUser returns one page of the user's order headers, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ?", userID).
		Count(&count).
		Error
	if err != nil {
		return nil, err
	}

	page := pagination.Resolve(params, count)

	var rows []models.Order
	err = r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id ASC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	return &ListResult{Orders: rows, Page: page}, nil
}

// FindByUser loads one order with its line items, scoped to its owner.
func (r *Repository) FindByUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&order, "id = ? AND user_id = ?", orderID, userID).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
