package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/minsukang/storefront-backend/pkg/config"
	"github.com/minsukang/storefront-backend/pkg/db/models"
	"github.com/minsukang/storefront-backend/pkg/enums"
	pkgerrors "github.com/minsukang/storefront-backend/pkg/errors"
	"github.com/minsukang/storefront-backend/pkg/logger"
)

type orderLoader interface {
	FindByUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
}

// SessionResponse is the payment-widget initialization payload. The backend
// only hands these values over; interpreting the payment outcome belongs to
// the provider callback path.
type SessionResponse struct {
	ClientKey    string          `json:"client_key"`
	OrderID      uuid.UUID       `json:"order_id"`
	OrderName    string          `json:"order_name"`
	Amount       decimal.Decimal `json:"amount"`
	CustomerName string          `json:"customer_name"`
}

// Service builds payment-widget sessions for pending orders.
type Service interface {
	CreateSession(ctx context.Context, userID uuid.UUID, customerName string, orderID uuid.UUID) (*SessionResponse, error)
}

type service struct {
	orders orderLoader
	cfg    config.PaymentsConfig
	logg   *logger.Logger
}

// NewService builds the payment hand-off service.
func NewService(orders orderLoader, cfg config.PaymentsConfig, logg *logger.Logger) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{orders: orders, cfg: cfg, logg: logg}, nil
}

// CreateSession assembles the widget payload for one of the user's pending
// orders. A missing client key means the operator has not configured the
// provider; that fails soft with a retry-later message instead of a crash.
func (s *service) CreateSession(ctx context.Context, userID uuid.UUID, customerName string, orderID uuid.UUID) (*SessionResponse, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	if s.cfg.ClientKey == "" {
		s.logg.Warn(ctx, "payment client key is not configured")
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payments are temporarily unavailable, please try again later")
	}

	order, err := s.orders.FindByUser(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is not awaiting payment")
	}

	return &SessionResponse{
		ClientKey:    s.cfg.ClientKey,
		OrderID:      order.ID,
		OrderName:    orderLabel(order),
		Amount:       order.TotalAmount,
		CustomerName: customerName,
	}, nil
}

// orderLabel is the human-readable widget title: the first line item's name,
// with a count suffix when the order holds more.
func orderLabel(order *models.Order) string {
	if len(order.Items) == 0 {
		return fmt.Sprintf("order %s", shortID(order.ID))
	}
	first := order.Items[0].ProductName
	if len(order.Items) == 1 {
		return first
	}
	return fmt.Sprintf("%s and %d more", first, len(order.Items)-1)
}

func shortID(id uuid.UUID) string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
