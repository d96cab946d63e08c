package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/minsukang/storefront-backend/pkg/db/models"
	"github.com/minsukang/storefront-backend/pkg/logger"
)

// SafeUnitPrice returns the price a cart row is charged at. A row whose
// product is missing or whose stored price is unusable counts as zero rather
// than failing the whole cart; the anomaly is logged so it can be chased.
func SafeUnitPrice(ctx context.Context, logg *logger.Logger, item models.CartItem) decimal.Decimal {
	if item.Product == nil {
		logg.Warn(logg.WithField(ctx, "cart_item_id", item.ID.String()),
			"cart row has no product attached, pricing it at zero")
		return decimal.Zero
	}
	if item.Product.Price.IsNegative() {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"cart_item_id": item.ID.String(),
			"product_id":   item.ProductID.String(),
			"price":        item.Product.Price.String(),
		}), "stored product price is unusable, pricing it at zero")
		return decimal.Zero
	}
	return item.Product.Price
}

// ComputeSummary recomputes the cart totals from live rows. ShippingFee is
// zero for every order today; GrandTotal stays a separate field so the
// arithmetic does not change when that stops being true.
func ComputeSummary(ctx context.Context, logg *logger.Logger, items []models.CartItem) Summary {
	summary := Summary{
		TotalAmount: decimal.Zero,
		ShippingFee: decimal.Zero,
	}
	for _, item := range items {
		unitPrice := SafeUnitPrice(ctx, logg, item)
		summary.TotalItems += item.Quantity
		summary.TotalAmount = summary.TotalAmount.Add(
			unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		)
	}
	summary.GrandTotal = summary.TotalAmount.Add(summary.ShippingFee)
	return summary
}
