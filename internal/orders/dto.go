package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minsukang/storefront-backend/pkg/db/models"
	"github.com/minsukang/storefront-backend/pkg/pagination"
	"github.com/minsukang/storefront-backend/pkg/types"
)

// PlaceOrderInput is the checkout payload. ExpectedTotal is the grand total
// the client last showed the buyer; the server recomputes its own and the
// two must agree within the reconciliation tolerance.
type PlaceOrderInput struct {
	ShippingAddress types.ShippingAddress `json:"shipping_address" validate:"required"`
	OrderNote       *string               `json:"order_note,omitempty" validate:"omitempty,max=500"`
	ExpectedTotal   decimal.Decimal       `json:"expected_total" validate:"required"`
}

// PlacedResponse acknowledges a created order.
type PlacedResponse struct {
	OrderID     uuid.UUID       `json:"order_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
}

// HeaderResponse is one row of the order-history list.
type HeaderResponse struct {
	ID          uuid.UUID       `json:"id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ListResponse is one page of order headers.
type ListResponse struct {
	Orders []HeaderResponse `json:"orders"`
	Page   pagination.Page  `json:"page"`
}

// ItemResponse is one denormalized line of an order.
type ItemResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// DetailResponse is the full order view for the history page.
type DetailResponse struct {
	ID              uuid.UUID             `json:"id"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	Status          string                `json:"status"`
	ShippingAddress types.ShippingAddress `json:"shipping_address"`
	OrderNote       *string               `json:"order_note,omitempty"`
	Items           []ItemResponse        `json:"items"`
	CreatedAt       time.Time             `json:"created_at"`
}

func toHeaderResponse(order models.Order) HeaderResponse {
	return HeaderResponse{
		ID:          order.ID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status.String(),
		CreatedAt:   order.CreatedAt,
	}
}

func toDetailResponse(order models.Order) DetailResponse {
	items := make([]ItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, ItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return DetailResponse{
		ID:              order.ID,
		TotalAmount:     order.TotalAmount,
		Status:          order.Status.String(),
		ShippingAddress: order.ShippingAddress,
		OrderNote:       order.OrderNote,
		Items:           items,
		CreatedAt:       order.CreatedAt,
	}
}
