package service

import (
	"testing"

	"pos-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAggregateSessionSales(t *testing.T) {
	orders := []models.Order{
		{ID: 1, Total: 100, PaymentMethod: models.PaymentMethodCash},
		{ID: 2, Total: 50, PaymentMethod: models.PaymentMethodTransfer},
		{ID: 3, Total: 75, PaymentMethod: models.PaymentMethodCash},
	}
	items := []models.OrderItem{
		{OrderID: 1, Quantity: 2},
		{OrderID: 2, Quantity: 1},
		{OrderID: 3, Quantity: 4},
	}

	sales := AggregateSessionSales(orders, items)

	assert.Equal(t, int64(3), sales.TotalOrders)
	assert.Equal(t, int64(225), sales.TotalRevenue)
	assert.Equal(t, int64(175), sales.CashRevenue)
	assert.Equal(t, int64(50), sales.TransferRevenue)
	assert.Equal(t, int64(7), sales.TotalItems)
}

func TestAggregateSessionSalesEmpty(t *testing.T) {
	sales := AggregateSessionSales(nil, nil)
	assert.Equal(t, models.SessionSales{}, sales)
}

func TestGetSessionSalesExcludesCancelled(t *testing.T) {
	// The query feeding the aggregate filters on status = completed, so a
	// cancelled order never reaches AggregateSessionSales. Covering the
	// end-to-end filter needs a database.
	t.Skip("Integration test - requires database")
}
