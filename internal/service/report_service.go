package service

import (
	"context"
	"sort"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"go.uber.org/zap"
)

// ReportService is read-only aggregation over orders for the dashboards
type ReportService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(store *store.Store) *ReportService {
	return &ReportService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// TodaySales is the dashboard headline aggregate
type TodaySales struct {
	TotalOrders  int64 `json:"total_orders"`
	TotalRevenue int64 `json:"total_revenue"`
	TotalItems   int64 `json:"total_items"`
}

// GetTodaySales aggregates today's completed orders
func (s *ReportService) GetTodaySales(ctx context.Context) (*TodaySales, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.Add(24*time.Hour - time.Nanosecond)

	summary, err := s.GetSalesSummary(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return &TodaySales{
		TotalOrders:  summary.TotalOrders,
		TotalRevenue: summary.TotalRevenue,
		TotalItems:   summary.TotalItemsSold,
	}, nil
}

// GetSalesSummary aggregates completed orders in [start, end] into a
// DailySummary with the cash/transfer breakdown.
func (s *ReportService) GetSalesSummary(ctx context.Context, start, end time.Time) (*models.DailySummary, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.GetSalesSummary")
	defer span.End()

	orders, err := s.store.GetCompletedOrdersByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	orderIDs := make([]int64, len(orders))
	for i, o := range orders {
		orderIDs[i] = o.ID
	}
	items, err := s.store.GetOrderItemsByOrderIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	summary := SummarizeSales(orders, items)
	summary.Date = start.Format("2006-01-02")
	return &summary, nil
}

// SummarizeSales folds completed orders and their items into a summary
func SummarizeSales(orders []models.Order, items []models.OrderItem) models.DailySummary {
	var summary models.DailySummary
	summary.TotalOrders = int64(len(orders))
	for _, o := range orders {
		summary.TotalRevenue += o.Total
		switch o.PaymentMethod {
		case models.PaymentMethodCash:
			summary.PaymentBreakdown.Cash += o.Total
		case models.PaymentMethodTransfer:
			summary.PaymentBreakdown.Transfer += o.Total
		}
	}
	for _, item := range items {
		summary.TotalItemsSold += item.Quantity
	}
	return summary
}

// GetTopProducts ranks products by revenue over all completed orders
func (s *ReportService) GetTopProducts(ctx context.Context, limit int) ([]models.TopProduct, error) {
	if limit <= 0 {
		limit = 5
	}

	items, err := s.store.GetCompletedOrderItems(ctx)
	if err != nil {
		return nil, err
	}

	return RankTopProducts(items, limit), nil
}

// RankTopProducts aggregates line snapshots by product name and sorts by
// revenue descending. Aggregation is by name because items are
// denormalized snapshots that outlive product deletion.
func RankTopProducts(items []models.OrderItem, limit int) []models.TopProduct {
	type stats struct {
		quantity int64
		revenue  int64
	}
	byName := make(map[string]*stats)
	for _, item := range items {
		st, ok := byName[item.ProductName]
		if !ok {
			st = &stats{}
			byName[item.ProductName] = st
		}
		st.quantity += item.Quantity
		st.revenue += item.Price * item.Quantity
	}

	ranked := make([]models.TopProduct, 0, len(byName))
	for name, st := range byName {
		ranked = append(ranked, models.TopProduct{
			ProductName:  name,
			QuantitySold: st.quantity,
			Revenue:      st.revenue,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Revenue != ranked[j].Revenue {
			return ranked[i].Revenue > ranked[j].Revenue
		}
		return ranked[i].ProductName < ranked[j].ProductName
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
