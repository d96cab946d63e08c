package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minsukang/storefront-backend/pkg/config"
	"github.com/minsukang/storefront-backend/pkg/db"
	"github.com/minsukang/storefront-backend/pkg/db/models"
	pkgerrors "github.com/minsukang/storefront-backend/pkg/errors"
	"github.com/minsukang/storefront-backend/pkg/logger"
	"github.com/minsukang/storefront-backend/pkg/redis"
)

type cartRepo interface {
	ListWithProducts(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	FindItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error)
	FindByProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error)
	AddWithMerge(ctx context.Context, userID, productID uuid.UUID, quantity int) (MergeOutcome, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (int64, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) (int64, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	CountDistinct(ctx context.Context, userID uuid.UUID) (int64, error)
}

type productLoader interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type badgeCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CounterKey(parts ...string) string
}

// Service exposes the per-user cart operations.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartResponse, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*ItemResponse, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input UpdateItemInput) (*ItemResponse, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
	GetSummary(ctx context.Context, userID uuid.UUID) (*Summary, error)
}

type service struct {
	repo     cartRepo
	products productLoader
	cache    badgeCache
	cfg      config.CartConfig
	logg     *logger.Logger
}

// NewService builds a cart service. The badge cache is optional: when nil,
// every count goes straight to the database.
func NewService(repo cartRepo, products productLoader, cache badgeCache, cfg config.CartConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		products: products,
		cache:    cache,
		cfg:      cfg,
		logg:     logg,
	}, nil
}

// GetCart returns the user's cart rows with a freshly computed summary.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}

	rows, err := s.repo.ListWithProducts(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	items := make([]ItemResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, toItemResponse(row, SafeUnitPrice(ctx, s.logg, row)))
	}

	return &CartResponse{
		Items:   items,
		Summary: ComputeSummary(ctx, s.logg, rows),
	}, nil
}

// AddItem puts a product into the cart, merging into an existing row when the
// product is already there. The stock ceiling applies to the merged quantity.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*ItemResponse, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.loadProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product.StockQuantity <= 0 {
		return nil, outOfStock()
	}
	if product.StockQuantity < input.Quantity {
		return nil, stockExceeded(product.StockQuantity, input.Quantity)
	}

	outcome, err := s.repo.AddWithMerge(ctx, userID, input.ProductID, input.Quantity)
	if err != nil {
		if db.IsUniqueViolation(err, mergeConstraintName) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart changed concurrently, please retry")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}
	if outcome == MergeRejected {
		return nil, s.explainRejectedAdd(ctx, userID, input)
	}

	s.invalidateBadge(ctx, userID)

	row, err := s.repo.FindByProduct(ctx, userID, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	resp := toItemResponse(*row, SafeUnitPrice(ctx, s.logg, *row))
	return &resp, nil
}

// explainRejectedAdd turns a zero-row guarded write into the caller-visible
// reason: the product vanished, went inactive, or the merged quantity would
// exceed live stock.
func (s *service) explainRejectedAdd(ctx context.Context, userID uuid.UUID, input AddItemInput) error {
	product, err := s.loadProduct(ctx, input.ProductID)
	if err != nil {
		return err
	}

	requested := input.Quantity
	existing, err := s.repo.FindByProduct(ctx, userID, input.ProductID)
	if err == nil {
		requested += existing.Quantity
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	if product.StockQuantity <= 0 {
		return outOfStock()
	}
	if product.StockQuantity < requested {
		return stockExceeded(product.StockQuantity, requested)
	}
	// The guards and this re-read disagree; a concurrent write moved the goalposts.
	return pkgerrors.New(pkgerrors.CodeConflict, "cart changed concurrently, please retry")
}

// UpdateItem sets a cart row to a new quantity, capped by live stock.
func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input UpdateItemInput) (*ItemResponse, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	item, err := s.repo.FindItem(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if item.Product == nil || !item.Product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is no longer available")
	}
	if item.Product.StockQuantity < input.Quantity {
		return nil, stockExceeded(item.Product.StockQuantity, input.Quantity)
	}

	rows, err := s.repo.UpdateQuantity(ctx, userID, itemID, input.Quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	s.invalidateBadge(ctx, userID)

	item.Quantity = input.Quantity
	resp := toItemResponse(*item, SafeUnitPrice(ctx, s.logg, *item))
	return &resp, nil
}

// RemoveItem deletes one cart row. A row that is not there reports not-found,
// same as the update path.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}

	rows, err := s.repo.Remove(ctx, userID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	s.invalidateBadge(ctx, userID)
	return nil
}

// ClearCart drops every row the user owns. Clearing an already-empty cart
// succeeds.
func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}

	if err := s.repo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}

	s.invalidateBadge(ctx, userID)
	return nil
}

// Count returns the badge number for the cart icon: distinct products, not
// summed quantities. The cached value may lag mutations by at most the
// configured TTL; cache trouble degrades to a direct count.
func (s *service) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, s.badgeKey(userID))
		if err == nil {
			if count, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
				return count, nil
			}
		} else if !redis.IsNil(err) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "badge cache read failed")
		}
	}

	count, err := s.repo.CountDistinct(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart items")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.badgeKey(userID), count, s.cfg.BadgeCacheTTL); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "badge cache write failed")
		}
	}
	return count, nil
}

// GetSummary recomputes the totals from live rows. Nothing is cached here.
func (s *service) GetSummary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}

	rows, err := s.repo.ListWithProducts(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	summary := ComputeSummary(ctx, s.logg, rows)
	return &summary, nil
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindActiveByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// BadgeCacheKeyParts are the counter-key parts for a user's badge count. The
// order workflow invalidates the same key after it clears the cart.
func BadgeCacheKeyParts(userID uuid.UUID) []string {
	return []string{"cart", userID.String()}
}

func (s *service) badgeKey(userID uuid.UUID) string {
	return s.cache.CounterKey(BadgeCacheKeyParts(userID)...)
}

// invalidateBadge drops the cached badge count after any mutation. Failures
// only shorten the cache's usefulness, so they are logged and ignored.
func (s *service) invalidateBadge(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.badgeKey(userID)); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "badge cache invalidation failed")
	}
}

// outOfStock covers the zero-stock case; stockExceeded covers a positive stock
// that the requested quantity would overshoot.
func outOfStock() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "product is out of stock")
}

func stockExceeded(stock, requested int) error {
	return pkgerrors.New(pkgerrors.CodeValidation,
		fmt.Sprintf("only %d in stock, requested %d", stock, requested))
}
