package models

import "time"

// Category groups products on the POS grid
type Category struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Icon      *string   `db:"icon" json:"icon,omitempty"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Product represents a sellable item in the catalog
type Product struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Price         int64     `db:"price" json:"price"`
	CategoryID    int64     `db:"category_id" json:"category_id"`
	ImageURL      *string   `db:"image_url" json:"image_url,omitempty"`
	IsAvailable   bool      `db:"is_available" json:"is_available"`
	PointsPerItem *int64    `db:"points_per_item" json:"points_per_item,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Member is a loyalty-program customer. Phone is stored digits-only and
// unique; TotalPoints is never negative (adjustments clamp at zero).
type Member struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Phone       string    `db:"phone" json:"phone"`
	TotalPoints int64     `db:"total_points" json:"total_points"`
	TotalSpent  int64     `db:"total_spent" json:"total_spent"`
	VisitCount  int64     `db:"visit_count" json:"visit_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Point transaction types
const (
	PointTypeEarn   = "earn"
	PointTypeRedeem = "redeem"
	PointTypeAdjust = "adjust"
	PointTypeExpire = "expire"
)

// PointHistory is an append-only ledger entry for every event that changed
// a member's point balance. Points is signed: positive for earn/adjust-up,
// negative for redeem/adjust-down.
type PointHistory struct {
	ID          int64     `db:"id" json:"id"`
	MemberID    int64     `db:"member_id" json:"member_id"`
	OrderID     *int64    `db:"order_id" json:"order_id,omitempty"`
	Type        string    `db:"type" json:"type"`
	Points      int64     `db:"points" json:"points"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// PointsConfig is the store's loyalty-program configuration, read from
// store_settings with defaults applied when keys are absent.
type PointsConfig struct {
	PointsToRedeem       int64 `json:"points_to_redeem"`
	RedeemValue          int64 `json:"redeem_value"`
	DefaultPointsPerItem int64 `json:"default_points_per_item"`
}

// Points config setting keys and defaults
const (
	SettingKeyPointsToRedeem    = "points_to_redeem"
	SettingKeyRedeemValue       = "redeem_value"
	SettingKeyDefaultPointsItem = "default_points_per_item"

	DefaultPointsToRedeem     = 100
	DefaultRedeemValue        = 40
	DefaultPointsPerItemValue = 1
)

// DefaultPointsConfig returns the fallback config used when settings are unset.
func DefaultPointsConfig() PointsConfig {
	return PointsConfig{
		PointsToRedeem:       DefaultPointsToRedeem,
		RedeemValue:          DefaultRedeemValue,
		DefaultPointsPerItem: DefaultPointsPerItemValue,
	}
}

// Payment methods
const (
	PaymentMethodCash     = "cash"
	PaymentMethodTransfer = "transfer"
)

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Order is a persisted checkout. Total = Subtotal - Discount and
// Discount >= PointsDiscount always hold.
type Order struct {
	ID             int64     `db:"id" json:"id"`
	OrderNumber    string    `db:"order_number" json:"order_number"`
	SessionID      *int64    `db:"session_id" json:"session_id,omitempty"`
	MemberID       *int64    `db:"member_id" json:"member_id,omitempty"`
	MemberPhone    *string   `db:"member_phone" json:"member_phone,omitempty"`
	PointsEarned   int64     `db:"points_earned" json:"points_earned"`
	PointsRedeemed int64     `db:"points_redeemed" json:"points_redeemed"`
	PointsDiscount int64     `db:"points_discount" json:"points_discount"`
	Subtotal       int64     `db:"subtotal" json:"subtotal"`
	Discount       int64     `db:"discount" json:"discount"`
	Total          int64     `db:"total" json:"total"`
	PaymentMethod  string    `db:"payment_method" json:"payment_method"`
	Status         string    `db:"status" json:"status"`
	CreatedBy      *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// OrderItem is a denormalized line snapshot; it survives product deletion
// and is immutable after creation.
type OrderItem struct {
	ID          int64   `db:"id" json:"id"`
	OrderID     int64   `db:"order_id" json:"order_id"`
	ProductID   int64   `db:"product_id" json:"product_id"`
	ProductName string  `db:"product_name" json:"product_name"`
	Price       int64   `db:"price" json:"price"`
	Quantity    int64   `db:"quantity" json:"quantity"`
	Note        *string `db:"note" json:"note,omitempty"`
}

// StoreSession is one open-to-close shift. At most one row has a null
// ClosedAt (partial unique index). Aggregates stay null until close.
type StoreSession struct {
	ID              int64      `db:"id" json:"id"`
	OpenedAt        time.Time  `db:"opened_at" json:"opened_at"`
	OpenedBy        *string    `db:"opened_by" json:"opened_by,omitempty"`
	ClosedAt        *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	ClosedBy        *string    `db:"closed_by" json:"closed_by,omitempty"`
	TotalOrders     *int64     `db:"total_orders" json:"total_orders,omitempty"`
	TotalItems      *int64     `db:"total_items" json:"total_items,omitempty"`
	TotalRevenue    *int64     `db:"total_revenue" json:"total_revenue,omitempty"`
	CashRevenue     *int64     `db:"cash_revenue" json:"cash_revenue,omitempty"`
	TransferRevenue *int64     `db:"transfer_revenue" json:"transfer_revenue,omitempty"`
}

// SessionSales is the live-computed aggregate over a session's completed
// orders.
type SessionSales struct {
	TotalOrders     int64 `json:"total_orders"`
	TotalItems      int64 `json:"total_items"`
	TotalRevenue    int64 `json:"total_revenue"`
	CashRevenue     int64 `json:"cash_revenue"`
	TransferRevenue int64 `json:"transfer_revenue"`
}

// Setting is one key/value row of store configuration
type Setting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PointSettlement is the idempotency record for post-order loyalty
// settlement: one row per order, inserted inside the settlement
// transaction. A conflicting insert means the order was already settled.
type PointSettlement struct {
	OrderID   int64     `db:"order_id" json:"order_id"`
	MemberID  int64     `db:"member_id" json:"member_id"`
	SettledAt time.Time `db:"settled_at" json:"settled_at"`
}

// DailySummary is the report aggregate for a date range
type DailySummary struct {
	Date             string           `json:"date"`
	TotalOrders      int64            `json:"total_orders"`
	TotalRevenue     int64            `json:"total_revenue"`
	TotalItemsSold   int64            `json:"total_items_sold"`
	PaymentBreakdown PaymentBreakdown `json:"payment_breakdown"`
}

// PaymentBreakdown splits revenue by payment method
type PaymentBreakdown struct {
	Cash     int64 `json:"cash"`
	Transfer int64 `json:"transfer"`
}

// TopProduct is one row of the best-sellers report
type TopProduct struct {
	ProductName  string `json:"product_name"`
	QuantitySold int64  `json:"quantity_sold"`
	Revenue      int64  `json:"revenue"`
}
