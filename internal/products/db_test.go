package products

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/minsukang/storefront-backend/pkg/db/models"
	"github.com/minsukang/storefront-backend/pkg/enums"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return conn
}

type testProductOpts struct {
	name     string
	price    string
	stock    int
	inactive bool
	category *enums.ProductCategory
}

func mustCreateTestProduct(t *testing.T, tx *gorm.DB, opts testProductOpts) *models.Product {
	t.Helper()

	name := opts.name
	if name == "" {
		name = fmt.Sprintf("Test Product %s", uuid.NewString()[:8])
	}
	price := opts.price
	if price == "" {
		price = "10.00"
	}

	product := &models.Product{
		Name:          name,
		Price:         decimal.RequireFromString(price),
		Category:      opts.category,
		StockQuantity: opts.stock,
		IsActive:      !opts.inactive,
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func mustCreateOrderWithItem(t *testing.T, tx *gorm.DB, productID uuid.UUID, productName string, qty int) {
	t.Helper()

	order := &models.Order{
		UserID:      uuid.New(),
		TotalAmount: decimal.RequireFromString("1.00"),
		Status:      enums.OrderStatusPending,
	}
	if err := tx.Omit("Items").Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	item := &models.OrderItem{
		OrderID:     order.ID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    qty,
		UnitPrice:   decimal.RequireFromString("1.00"),
	}
	if err := tx.Create(item).Error; err != nil {
		t.Fatalf("create order item: %v", err)
	}
}
