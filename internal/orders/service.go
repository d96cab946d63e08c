package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/minsukang/storefront-backend/internal/cart"
	"github.com/minsukang/storefront-backend/internal/products"
	"github.com/minsukang/storefront-backend/pkg/db/models"
	"github.com/minsukang/storefront-backend/pkg/enums"
	pkgerrors "github.com/minsukang/storefront-backend/pkg/errors"
	"github.com/minsukang/storefront-backend/pkg/logger"
	"github.com/minsukang/storefront-backend/pkg/pagination"
)

// amountTolerance is how far the client-shown total may drift from the
// server-recomputed total before checkout refuses the order.
var amountTolerance = decimal.New(1, -2) // 0.01

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type badgeCache interface {
	Del(ctx context.Context, keys ...string) error
	CounterKey(parts ...string) string
}

// Service exposes checkout and the order-history reads.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*PlacedResponse, error)
	ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResponse, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*DetailResponse, error)
}

type service struct {
	tx       txRunner
	repo     *Repository
	carts    *cart.Repository
	products *products.Repository
	cache    badgeCache
	logg     *logger.Logger
}

// NewService builds the order service. The badge cache is optional; when nil
// the cart badge simply expires on its own after checkout.
func NewService(tx txRunner, repo *Repository, carts *cart.Repository, productRepo *products.Repository, cache badgeCache, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:       tx,
		repo:     repo,
		carts:    carts,
		products: productRepo,
		cache:    cache,
		logg:     logg,
	}, nil
}

// PlaceOrder turns the user's cart into a pending order. The cart snapshot,
// total reconciliation, header and line-item inserts, stock decrements, and
// the cart clear all run in one transaction: a mid-workflow failure leaves no
// trace. The stored total is always the server-recomputed one.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*PlacedResponse, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	if !input.ShippingAddress.IsComplete() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete")
	}
	if input.ExpectedTotal.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expected total must be positive")
	}

	var placed *PlacedResponse
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.carts.WithTx(tx)

		rows, err := cartRepo.ListWithProducts(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(rows) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		summary := cart.ComputeSummary(ctx, s.logg, rows)
		diff := summary.GrandTotal.Sub(input.ExpectedTotal).Abs()
		if diff.GreaterThan(amountTolerance) {
			return pkgerrors.New(pkgerrors.CodeConflict,
				"order total has changed, please review your cart")
		}

		order := &models.Order{
			UserID:          userID,
			TotalAmount:     summary.GrandTotal,
			Status:          enums.OrderStatusPending,
			ShippingAddress: input.ShippingAddress,
			OrderNote:       input.OrderNote,
		}
		orderRepo := s.repo.WithTx(tx)
		if err := orderRepo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		items, err := snapshotLines(ctx, s.logg, order.ID, rows)
		if err != nil {
			return err
		}
		if err := orderRepo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		productRepo := s.products.WithTx(tx)
		for _, row := range rows {
			affected, err := productRepo.DecrementStock(ctx, row.ProductID, row.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeConflict,
					fmt.Sprintf("not enough stock left for %q", row.Product.Name))
			}
		}

		if err := cartRepo.Clear(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		placed = &PlacedResponse{
			OrderID:     order.ID,
			TotalAmount: order.TotalAmount,
			Status:      order.Status.String(),
		}
		return nil
	})
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil {
			return nil, coded
		}
		// anything unanticipated stays generic to the caller
		s.logg.Error(ctx, "order workflow failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order could not be completed, please try again")
	}

	s.invalidateBadge(ctx, userID)
	return placed, nil
}

// ListOrders returns one page of the user's order history, newest first.
func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResponse, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}

	result, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	headers := make([]HeaderResponse, 0, len(result.Orders))
	for _, order := range result.Orders {
		headers = append(headers, toHeaderResponse(order))
	}
	return &ListResponse{Orders: headers, Page: result.Page}, nil
}

// GetOrder loads one of the user's orders with its line items.
func (s *service) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*DetailResponse, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}

	order, err := s.repo.FindByUser(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	resp := toDetailResponse(*order)
	return &resp, nil
}

// snapshotLines denormalizes cart rows into order lines. The joined read
// guarantees a product per row, but the preload is a second statement; a row
// whose product vanished in between cannot be named or priced, so the
// checkout conflicts instead of panicking.
func snapshotLines(ctx context.Context, logg *logger.Logger, orderID uuid.UUID, rows []models.CartItem) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(rows))
	for _, row := range rows {
		if row.Product == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart contents changed, please review your cart")
		}
		items = append(items, models.OrderItem{
			OrderID:     orderID,
			ProductID:   row.ProductID,
			ProductName: row.Product.Name,
			Quantity:    row.Quantity,
			UnitPrice:   cart.SafeUnitPrice(ctx, logg, row),
		})
	}
	return items, nil
}

func (s *service) invalidateBadge(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	key := s.cache.CounterKey(cart.BadgeCacheKeyParts(userID)...)
	if err := s.cache.Del(ctx, key); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "badge cache invalidation failed")
	}
}
