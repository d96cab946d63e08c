package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minsukang/storefront-backend/pkg/db/models"
	"github.com/minsukang/storefront-backend/pkg/pagination"
)

// ProductResponse is the customer-facing catalog representation.
type ProductResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Category      *string         `json:"category,omitempty"`
	StockQuantity int             `json:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ProductListResponse is one page of catalog rows plus page metadata.
type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Page     pagination.Page   `json:"page"`
}

func toProductResponse(p models.Product) ProductResponse {
	var category *string
	if p.Category != nil {
		c := p.Category.String()
		category = &c
	}
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Category:      category,
		StockQuantity: p.StockQuantity,
		CreatedAt:     p.CreatedAt,
	}
}

func toProductResponses(rows []models.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toProductResponse(row))
	}
	return out
}
