package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minsukang/storefront-backend/pkg/db/models"
	"github.com/minsukang/storefront-backend/pkg/enums"
	"github.com/minsukang/storefront-backend/pkg/pagination"
)

// ListQuery captures the catalog listing filters.
type ListQuery struct {
	Pagination pagination.Params
	Category   *enums.ProductCategory
	Sort       enums.ProductSort
}

// ListResult bundles one page of products with the resolved page metadata.
type ListResult struct {
	Products []models.Product
	Page     pagination.Page
}

// SoldQuantity is one row of the order-line aggregation: how many units of
// the product have ever been ordered.
type SoldQuantity struct {
	ProductID uuid.UUID
	Sold      int64
}

// Repository wires together product persistence helpers. All customer-facing
// reads are scoped to active products.
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

// FindActiveByID loads a single active product. Missing and inactive rows are
// indistinguishable to callers: both surface gorm.ErrRecordNotFound.
func (r *Repository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		First(&product, "id = ? AND is_active", id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CountActive returns the number of active products, optionally narrowed to
// one category.
func (r *Repository) CountActive(ctx context.Context, category *enums.ProductCategory) (int64, error) {
	var count int64
	qb := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_active")
	if category != nil {
		qb = qb.Where("category = ?", category.String())
	}
	if err := qb.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListActive returns one page of active products ordered per the query sort.
// The popularity sort is ranked in the service layer and never reaches here.
func (r *Repository) ListActive(ctx context.Context, query ListQuery) (*ListResult, error) {
	count, err := r.CountActive(ctx, query.Category)
	if err != nil {
		return nil, err
	}

	page := pagination.Resolve(query.Pagination, count)

	qb := r.db.WithContext(ctx).
		Where("is_active")
	if query.Category != nil {
		qb = qb.Where("category = ?", query.Category.String())
	}

	switch query.Sort {
	case enums.ProductSortPriceAsc:
		qb = qb.Order("price ASC, created_at DESC")
	case enums.ProductSortPriceDesc:
		qb = qb.Order("price DESC, created_at DESC")
	default:
		qb = qb.Order("created_at DESC, id ASC")
	}

	var rows []models.Product
	err = qb.
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	return &ListResult{Products: rows, Page: page}, nil
}

// ListActiveByRecency returns active products newest-first, skipping the
// provided ids. A non-positive limit means no cap.
func (r *Repository) ListActiveByRecency(ctx context.Context, limit int, excludeIDs []uuid.UUID) ([]models.Product, error) {
	qb := r.db.WithContext(ctx).
		Where("is_active").
		Order("created_at DESC, id ASC")
	if len(excludeIDs) > 0 {
		qb = qb.Where("id NOT IN ?", excludeIDs)
	}
	if limit > 0 {
		qb = qb.Limit(limit)
	}

	var rows []models.Product
	if err := qb.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SoldQuantities aggregates ordered units per active product, most sold
// first. Ties are broken by ascending product id so the ranking is stable
// across runs.
func (r *Repository) SoldQuantities(ctx context.Context) ([]SoldQuantity, error) {
	var rows []SoldQuantity
	err := r.db.WithContext(ctx).
		Table("order_items oi").
		Select("oi.product_id AS product_id, SUM(oi.quantity) AS sold").
		Joins("JOIN products p ON p.id = oi.product_id").
		Where("p.is_active").
		Group("oi.product_id").
		Order("sold DESC, product_id ASC").
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DecrementStock atomically takes quantity units off a product's stock. The
// guard keeps stock from going negative: zero rows affected means the product
// is gone, inactive, or does not have that many units left.
func (r *Repository) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE products
		 SET stock_quantity = stock_quantity - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND is_active AND stock_quantity >= ?`,
		quantity, productID, quantity,
	)
	return result.RowsAffected, result.Error
}

// FindActiveByIDs loads the active products for the given ids. Order of the
// result is driver-defined; callers reorder as needed.
func (r *Repository) FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active", ids).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
