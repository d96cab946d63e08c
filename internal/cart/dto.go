package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minsukang/storefront-backend/pkg/db/models"
)

// AddItemInput is the payload for putting a product into the cart.
type AddItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// UpdateItemInput is the payload for changing a cart row's quantity.
type UpdateItemInput struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// ItemResponse is one cart row with its product snapshot attached.
type ItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	LineTotal     decimal.Decimal `json:"line_total"`
	StockQuantity int             `json:"stock_quantity"`
}

// CartResponse is the full cart read: rows plus the computed summary.
type CartResponse struct {
	Items   []ItemResponse `json:"items"`
	Summary Summary        `json:"summary"`
}

// Summary carries the cart totals. ShippingFee is carried explicitly even
// while the store ships for free, so clients never hard-code the zero.
type Summary struct {
	TotalItems  int             `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
}

// CountResponse is the badge count for the cart icon.
type CountResponse struct {
	Count int64 `json:"count"`
}

func toItemResponse(item models.CartItem, unitPrice decimal.Decimal) ItemResponse {
	resp := ItemResponse{
		ID:        item.ID,
		ProductID: item.ProductID,
		UnitPrice: unitPrice,
		Quantity:  item.Quantity,
		LineTotal: unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
	}
	if item.Product != nil {
		resp.ProductName = item.Product.Name
		resp.StockQuantity = item.Product.StockQuantity
	}
	return resp
}
