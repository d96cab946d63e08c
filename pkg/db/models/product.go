package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/minsukang/storefront-backend/pkg/enums"
)

// Product represents a catalog listing. Inactive products are invisible to
// every customer-facing read path.
type Product struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Name          string                 `gorm:"column:name;not null"`
	Description   *string                `gorm:"column:description"`
	Price         decimal.Decimal        `gorm:"column:price;type:numeric(12,2);not null"`
	Category      *enums.ProductCategory `gorm:"column:category"`
	StockQuantity int                    `gorm:"column:stock_quantity;not null;default:0"`
	// The column default lives in the migration; a default tag here would
	// make GORM skip the field on create and silently flip false to true.
	IsActive      bool                   `gorm:"column:is_active;not null"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the identifier so inserts behave the same on every
// supported driver.
func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
