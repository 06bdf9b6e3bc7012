package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pos-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateOrderWithItems persists the order header and its line snapshots in
// one transaction. Checkout either fully lands or not at all.
func (s *Store) CreateOrderWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (
			order_number, session_id, member_id, member_phone,
			points_earned, points_redeemed, points_discount,
			subtotal, discount, total, payment_method, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowxContext(ctx, query,
		order.OrderNumber, order.SessionID, order.MemberID, order.MemberPhone,
		order.PointsEarned, order.PointsRedeemed, order.PointsDiscount,
		order.Subtotal, order.Discount, order.Total,
		order.PaymentMethod, order.Status, order.CreatedBy).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, product_name, price, quantity, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	for i := range items {
		items[i].OrderID = order.ID
		err = tx.QueryRowxContext(ctx, itemQuery,
			items[i].OrderID, items[i].ProductID, items[i].ProductName,
			items[i].Price, items[i].Quantity, items[i].Note).
			Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrders retrieves the newest orders up to limit
func (s *Store) GetOrders(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders ORDER BY created_at DESC LIMIT $1", limit)
	return orders, err
}

// GetOrdersByDateRange retrieves orders created within [start, end]
func (s *Store) GetOrdersByDateRange(ctx context.Context, start, end time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		`SELECT * FROM orders
		 WHERE created_at >= $1 AND created_at <= $2
		 ORDER BY created_at DESC`, start, end)
	return orders, err
}

// GetCompletedOrdersByDateRange retrieves completed orders within [start, end]
func (s *Store) GetCompletedOrdersByDateRange(ctx context.Context, start, end time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		`SELECT * FROM orders
		 WHERE status = $1 AND created_at >= $2 AND created_at <= $3
		 ORDER BY created_at DESC`, models.OrderStatusCompleted, start, end)
	return orders, err
}

// GetCompletedOrdersBySession retrieves a session's completed orders.
// Cancelled orders fall out of every shift aggregate through this filter.
func (s *Store) GetCompletedOrdersBySession(ctx context.Context, sessionID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		`SELECT * FROM orders
		 WHERE session_id = $1 AND status = $2
		 ORDER BY created_at`, sessionID, models.OrderStatusCompleted)
	return orders, err
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// GetOrderItemsByOrderIDs retrieves items for a set of orders
func (s *Store) GetOrderItemsByOrderIDs(ctx context.Context, orderIDs []int64) ([]models.OrderItem, error) {
	if len(orderIDs) == 0 {
		return []models.OrderItem{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM order_items WHERE order_id IN (?)", orderIDs)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var items []models.OrderItem
	err = s.db.SelectContext(ctx, &items, query, args...)
	return items, err
}

// GetCompletedOrderItems retrieves every line of every completed order,
// for the top-products report.
func (s *Store) GetCompletedOrderItems(ctx context.Context) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		`SELECT oi.* FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 WHERE o.status = $1`, models.OrderStatusCompleted)
	return items, err
}

// UpdateOrderStatus updates order status. Transition legality is checked
// by the service.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
	}
	return nil
}
