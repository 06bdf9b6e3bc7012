package service

import (
	"testing"

	"pos-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeSales(t *testing.T) {
	orders := []models.Order{
		{ID: 1, Total: 1200, PaymentMethod: models.PaymentMethodCash},
		{ID: 2, Total: 800, PaymentMethod: models.PaymentMethodTransfer},
	}
	items := []models.OrderItem{
		{OrderID: 1, Quantity: 3},
		{OrderID: 2, Quantity: 2},
	}

	summary := SummarizeSales(orders, items)

	assert.Equal(t, int64(2), summary.TotalOrders)
	assert.Equal(t, int64(2000), summary.TotalRevenue)
	assert.Equal(t, int64(5), summary.TotalItemsSold)
	assert.Equal(t, int64(1200), summary.PaymentBreakdown.Cash)
	assert.Equal(t, int64(800), summary.PaymentBreakdown.Transfer)
}

func TestRankTopProducts(t *testing.T) {
	items := []models.OrderItem{
		{ProductName: "Americano", Price: 300, Quantity: 2},
		{ProductName: "Latte", Price: 400, Quantity: 3},
		{ProductName: "Americano", Price: 300, Quantity: 1},
		{ProductName: "Croissant", Price: 250, Quantity: 1},
	}

	ranked := RankTopProducts(items, 2)
	require.Len(t, ranked, 2)

	assert.Equal(t, "Latte", ranked[0].ProductName)
	assert.Equal(t, int64(1200), ranked[0].Revenue)
	assert.Equal(t, int64(3), ranked[0].QuantitySold)

	assert.Equal(t, "Americano", ranked[1].ProductName)
	assert.Equal(t, int64(900), ranked[1].Revenue)
	assert.Equal(t, int64(3), ranked[1].QuantitySold)
}

func TestRankTopProductsTieBreaksByName(t *testing.T) {
	items := []models.OrderItem{
		{ProductName: "Tea", Price: 100, Quantity: 1},
		{ProductName: "Cocoa", Price: 100, Quantity: 1},
	}

	ranked := RankTopProducts(items, 5)
	require.Len(t, ranked, 2)
	assert.Equal(t, "Cocoa", ranked[0].ProductName)
	assert.Equal(t, "Tea", ranked[1].ProductName)
}

func TestRankTopProductsEmpty(t *testing.T) {
	assert.Empty(t, RankTopProducts(nil, 5))
}
