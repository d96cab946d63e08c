package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minsukang/storefront-backend/pkg/db/models"
)

// MergeOutcome reports what the guarded add write did.
type MergeOutcome int

const (
	// MergeRejected means neither guarded statement changed a row: the
	// product is gone, inactive, or the requested quantity exceeds stock.
	MergeRejected MergeOutcome = iota
	// MergeUpdated means an existing (user, product) row absorbed the quantity.
	MergeUpdated
	// MergeInserted means a fresh cart row was created.
	MergeInserted
)

// mergeConstraintName is the unique index backing the one-row-per-(user,
// product) invariant; a violation means two adds raced past both guards.
const mergeConstraintName = "storefront_cart_items_user_product"

const mergeUpdateSQL = `
UPDATE cart_items
SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP
WHERE user_id = ? AND product_id = ?
  AND quantity + ? <= (
    SELECT stock_quantity FROM products
    WHERE id = ? AND is_active
  )
`

const mergeInsertSQL = `
INSERT INTO cart_items (id, user_id, product_id, quantity, created_at, updated_at)
SELECT ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
WHERE EXISTS (
    SELECT 1 FROM products
    WHERE id = ? AND is_active AND stock_quantity >= ?
  )
  AND NOT EXISTS (
    SELECT 1 FROM cart_items WHERE user_id = ? AND product_id = ?
  )
`

// Repository persists cart rows. Reads join against the catalog so rows whose
// product vanished or went inactive never surface.
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

// ListWithProducts returns the user's cart rows with their products attached,
// newest first. Orphaned rows (missing or inactive product) are filtered out.
func (r *Repository) ListWithProducts(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Joins("JOIN products ON products.id = cart_items.product_id AND products.is_active").
		Preload("Product").
		Where("cart_items.user_id = ?", userID).
		Order("cart_items.created_at DESC, cart_items.id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindItem loads one cart row scoped to its owner, product attached.
func (r *Repository) FindItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		First(&item, "id = ? AND user_id = ?", itemID, userID).
		Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByProduct loads the user's cart row for one product, if any.
func (r *Repository) FindByProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		First(&item, "user_id = ? AND product_id = ?", userID, productID).
		Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// AddWithMerge adds quantity to the user's cart in a single guarded write: a
// conditional UPDATE merges into an existing row, otherwise a conditional
// INSERT creates one. The stock ceiling is evaluated by the database against
// live stock, so concurrent adds cannot over-commit a product.
func (r *Repository) AddWithMerge(ctx context.Context, userID, productID uuid.UUID, quantity int) (MergeOutcome, error) {
	tx := r.db.WithContext(ctx)

	update := tx.Exec(mergeUpdateSQL, quantity, userID, productID, quantity, productID)
	if update.Error != nil {
		return MergeRejected, update.Error
	}
	if update.RowsAffected > 0 {
		return MergeUpdated, nil
	}

	insert := tx.Exec(mergeInsertSQL,
		uuid.New(), userID, productID, quantity,
		productID, quantity,
		userID, productID,
	)
	if insert.Error != nil {
		return MergeRejected, insert.Error
	}
	if insert.RowsAffected > 0 {
		return MergeInserted, nil
	}
	return MergeRejected, nil
}

// UpdateQuantity sets the quantity on the user's cart row. Returns the number
// of rows touched; zero means the row does not exist for this user.
func (r *Repository) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND user_id = ?", itemID, userID).
		Update("quantity", quantity)
	return result.RowsAffected, result.Error
}

// Remove deletes the user's cart row. Returns the number of rows removed.
func (r *Repository) Remove(ctx context.Context, userID, itemID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

// Clear removes every cart row owned by the user.
func (r *Repository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).
		Error
}

// CountDistinct counts the user's cart rows that still point at a live
// product. One row per product, regardless of quantity.
func (r *Repository) CountDistinct(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Joins("JOIN products ON products.id = cart_items.product_id AND products.is_active").
		Where("cart_items.user_id = ?", userID).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
