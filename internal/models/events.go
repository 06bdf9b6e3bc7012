package models

import "time"

// Event types
const (
	EventTypeOrderCompleted = "ORDER_COMPLETED"
	EventTypeOrderCancelled = "ORDER_CANCELLED"
	EventTypePointsSettled  = "POINTS_SETTLED"
	EventTypeSessionOpened  = "SESSION_OPENED"
	EventTypeSessionClosed  = "SESSION_CLOSED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCompletedEvent published when a checkout is persisted
type OrderCompletedEvent struct {
	BaseEvent
	OrderID       int64           `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	SessionID     *int64          `json:"session_id,omitempty"`
	MemberID      *int64          `json:"member_id,omitempty"`
	Total         int64           `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	Items         []OrderItemData `json:"items"`
}

// OrderCancelledEvent published when a completed order is cancelled
type OrderCancelledEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	SessionID *int64 `json:"session_id,omitempty"`
	Reason    string `json:"reason"`
}

// PointsSettledEvent published after loyalty settlement for an order
type PointsSettledEvent struct {
	BaseEvent
	OrderID        int64 `json:"order_id"`
	MemberID       int64 `json:"member_id"`
	PointsEarned   int64 `json:"points_earned"`
	PointsRedeemed int64 `json:"points_redeemed"`
	NewBalance     int64 `json:"new_balance"`
}

// SessionOpenedEvent published when a shift starts
type SessionOpenedEvent struct {
	BaseEvent
	SessionID int64  `json:"session_id"`
	OpenedBy  string `json:"opened_by"`
}

// SessionClosedEvent published when a shift is closed with frozen totals
type SessionClosedEvent struct {
	BaseEvent
	SessionID       int64 `json:"session_id"`
	TotalOrders     int64 `json:"total_orders"`
	TotalItems      int64 `json:"total_items"`
	TotalRevenue    int64 `json:"total_revenue"`
	CashRevenue     int64 `json:"cash_revenue"`
	TransferRevenue int64 `json:"transfer_revenue"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	Price       int64  `json:"price"`
}
