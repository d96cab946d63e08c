package payments

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/minsukang/storefront-backend/pkg/config"
	"github.com/minsukang/storefront-backend/pkg/db/models"
	"github.com/minsukang/storefront-backend/pkg/enums"
	pkgerrors "github.com/minsukang/storefront-backend/pkg/errors"
	"github.com/minsukang/storefront-backend/pkg/logger"
)

type fakeOrderLoader struct {
	orders map[uuid.UUID]*models.Order
}

func (f *fakeOrderLoader) FindByUser(_ context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[orderID]
	if !ok || order.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestService(t *testing.T, clientKey string, orders ...*models.Order) Service {
	t.Helper()

	loader := &fakeOrderLoader{orders: map[uuid.UUID]*models.Order{}}
	for _, o := range orders {
		loader.orders[o.ID] = o
	}

	svc, err := NewService(loader, config.PaymentsConfig{ClientKey: clientKey}, testLogger())
	require.NoError(t, err)
	return svc
}

func pendingOrder(userID uuid.UUID, itemNames ...string) *models.Order {
	order := &models.Order{
		ID:          uuid.New(),
		UserID:      userID,
		TotalAmount: decimal.RequireFromString("42.00"),
		Status:      enums.OrderStatusPending,
	}
	for _, name := range itemNames {
		order.Items = append(order.Items, models.OrderItem{
			OrderID:     order.ID,
			ProductName: name,
			Quantity:    1,
		})
	}
	return order
}

func TestCreateSessionBuildsWidgetPayload(t *testing.T) {
	userID := uuid.New()
	order := pendingOrder(userID, "lamp")
	svc := newTestService(t, "ck_test_1234", order)

	session, err := svc.CreateSession(context.Background(), userID, "Dana Smith", order.ID)
	require.NoError(t, err)
	assert.Equal(t, "ck_test_1234", session.ClientKey)
	assert.Equal(t, order.ID, session.OrderID)
	assert.Equal(t, "lamp", session.OrderName)
	assert.Equal(t, "42.00", session.Amount.StringFixed(2))
	assert.Equal(t, "Dana Smith", session.CustomerName)
}

func TestCreateSessionWithoutClientKey(t *testing.T) {
	userID := uuid.New()
	order := pendingOrder(userID, "lamp")
	svc := newTestService(t, "", order)

	_, err := svc.CreateSession(context.Background(), userID, "Dana Smith", order.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
}

func TestCreateSessionRejectsSettledOrder(t *testing.T) {
	userID := uuid.New()
	order := pendingOrder(userID, "lamp")
	order.Status = enums.OrderStatusConfirmed
	svc := newTestService(t, "ck_test_1234", order)

	_, err := svc.CreateSession(context.Background(), userID, "Dana Smith", order.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestCreateSessionScopedToOwner(t *testing.T) {
	order := pendingOrder(uuid.New(), "lamp")
	svc := newTestService(t, "ck_test_1234", order)

	_, err := svc.CreateSession(context.Background(), uuid.New(), "Someone Else", order.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestOrderLabel(t *testing.T) {
	userID := uuid.New()

	single := pendingOrder(userID, "lamp")
	assert.Equal(t, "lamp", orderLabel(single))

	multi := pendingOrder(userID, "lamp", "mug", "poster")
	assert.Equal(t, "lamp and 2 more", orderLabel(multi))

	empty := pendingOrder(userID)
	label := orderLabel(empty)
	assert.Contains(t, label, "order ")
	assert.Contains(t, label, empty.ID.String()[:8])
}
