package service

import (
	"context"
	"fmt"
	"time"

	"pos-service/internal/broker"
	"pos-service/internal/models"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService handles the checkout flow and order lifecycle
type OrderService struct {
	store          *store.Store
	loyalty        *LoyaltyService
	sessions       *SessionService
	settings       *SettingsService
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	store *store.Store,
	loyalty *LoyaltyService,
	sessions *SessionService,
	settings *SettingsService,
	eventPublisher *broker.EventPublisher,
) *OrderService {
	return &OrderService{
		store:          store,
		loyalty:        loyalty,
		sessions:       sessions,
		settings:       settings,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// CheckoutItemRequest is one cart line at checkout
type CheckoutItemRequest struct {
	ProductID int64   `json:"product_id" binding:"required"`
	Quantity  int64   `json:"quantity" binding:"required,min=1"`
	Note      *string `json:"note,omitempty"`
}

// CheckoutRequest converts a cart into an order. MemberID is optional;
// RedeemCount is the number of redemption units the cashier applied.
type CheckoutRequest struct {
	Items         []CheckoutItemRequest `json:"items" binding:"required,min=1"`
	PaymentMethod string                `json:"payment_method" binding:"required"`
	MemberID      *int64                `json:"member_id,omitempty"`
	RedeemCount   int64                 `json:"redeem_count"`
	CreatedBy     *string               `json:"created_by,omitempty"`
}

// CheckoutResponse is returned after a successful checkout
type CheckoutResponse struct {
	Order  *models.Order      `json:"order"`
	Items  []models.OrderItem `json:"items"`
	Member *models.Member     `json:"member,omitempty"`
}

// Checkout validates the cart, computes loyalty accrual and redemption,
// persists the order as completed, and settles the member. The order
// insert and the member settlement are separate transactions; the
// settlement's idempotency key makes the second step safe to retry if it
// fails after the first lands.
func (s *OrderService) Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Checkout")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if len(req.Items) == 0 {
		util.OrdersFailedTotal.WithLabelValues("empty_order").Inc()
		return nil, ErrEmptyOrder
	}
	if req.PaymentMethod != models.PaymentMethodCash && req.PaymentMethod != models.PaymentMethodTransfer {
		util.OrdersFailedTotal.WithLabelValues("invalid_payment_method").Inc()
		return nil, fmt.Errorf("%w: %s", ErrInvalidPaymentMethod, req.PaymentMethod)
	}

	// Every order must carry the session that was open at creation time,
	// else it cannot be attributed to a shift.
	session, err := s.sessions.GetCurrentSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to look up current session: %w", err)
	}
	if session == nil {
		util.OrdersFailedTotal.WithLabelValues("no_open_session").Inc()
		return nil, ErrNoOpenSession
	}

	products, err := s.validateItems(ctx, req.Items)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	cfg, err := s.settings.GetPointsConfig(ctx)
	if err != nil {
		s.logger.Warn("Falling back to default points config", zap.Error(err))
		cfg = models.DefaultPointsConfig()
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	lines := make([]AccrualLine, 0, len(req.Items))
	var subtotal int64
	for _, line := range req.Items {
		product := products[line.ProductID]
		subtotal += product.Price * line.Quantity
		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Price:       product.Price,
			Quantity:    line.Quantity,
			Note:        line.Note,
		})
		lines = append(lines, AccrualLine{
			PointsPerItem: product.PointsPerItem,
			Quantity:      line.Quantity,
		})
	}

	var member *models.Member
	var pointsEarned, pointsRedeemed, pointsDiscount int64
	if req.MemberID != nil {
		member, err = s.store.GetMemberByID(ctx, *req.MemberID)
		if err != nil {
			util.OrdersFailedTotal.WithLabelValues("member_not_found").Inc()
			return nil, err
		}

		if err := ValidateRedeemCount(req.RedeemCount, member.TotalPoints, subtotal, cfg); err != nil {
			util.OrdersFailedTotal.WithLabelValues("redeem_limit").Inc()
			return nil, err
		}

		pointsEarned = CalculatePointsEarned(lines, cfg)
		pointsRedeemed = PointsToUse(req.RedeemCount, cfg)
		pointsDiscount = DiscountAmount(req.RedeemCount, cfg)
	} else if req.RedeemCount != 0 {
		util.OrdersFailedTotal.WithLabelValues("redeem_without_member").Inc()
		return nil, fmt.Errorf("%w: no member attached", ErrRedeemLimitExceeded)
	}

	total := FinalTotal(subtotal, pointsDiscount)

	order := &models.Order{
		OrderNumber:    util.GenerateOrderNumber(time.Now()),
		SessionID:      &session.ID,
		PointsEarned:   pointsEarned,
		PointsRedeemed: pointsRedeemed,
		PointsDiscount: pointsDiscount,
		Subtotal:       subtotal,
		Discount:       pointsDiscount,
		Total:          total,
		PaymentMethod:  req.PaymentMethod,
		Status:         models.OrderStatusCompleted,
		CreatedBy:      req.CreatedBy,
	}
	if member != nil {
		order.MemberID = &member.ID
		order.MemberPhone = &member.Phone
	}

	if err := s.store.CreateOrderWithItems(ctx, order, items); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("total", order.Total))

	if member != nil {
		member, err = s.loyalty.SettleAfterOrder(
			ctx, member.ID, order.ID, order.Total, pointsEarned, pointsRedeemed)
		if err != nil {
			// The order is already durable; the settlement is retryable
			// under its idempotency key, so surface the failure rather
			// than unwinding the sale.
			s.logger.Error("Settlement failed after order insert",
				zap.Int64("order_id", order.ID),
				zap.Error(err))
			return nil, fmt.Errorf("order %d created but settlement failed: %w", order.ID, err)
		}
	}

	event := &models.OrderCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCompleted,
			Timestamp: time.Now(),
		},
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		SessionID:     order.SessionID,
		MemberID:      order.MemberID,
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
		Items:         toEventItems(items),
	}
	if err := s.eventPublisher.PublishOrderCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCompleted event", zap.Error(err))
	}

	return &CheckoutResponse{Order: order, Items: items, Member: member}, nil
}

// GetOrder retrieves an order with its items
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// ListOrders retrieves the newest orders
func (s *OrderService) ListOrders(ctx context.Context, limit int) ([]models.Order, error) {
	return s.store.GetOrders(ctx, limit)
}

// ListOrdersByDateRange retrieves orders in a window
func (s *OrderService) ListOrdersByDateRange(ctx context.Context, startTime, end time.Time) ([]models.Order, error) {
	return s.store.GetOrdersByDateRange(ctx, startTime, end)
}

// CancelOrder marks a completed order cancelled. The transition is
// one-way and deliberately does not reverse the member settlement nor
// rewrite a closed session's frozen snapshot; an open session's live
// aggregate drops the order on the next recompute.
func (s *OrderService) CancelOrder(ctx context.Context, orderID int64, reason string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CancelOrder")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusCompleted {
		return nil, fmt.Errorf("%w: %s -> %s",
			ErrInvalidTransition, order.Status, models.OrderStatusCancelled)
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, models.OrderStatusCancelled); err != nil {
		return nil, err
	}
	order.Status = models.OrderStatusCancelled

	util.OrdersCancelledTotal.Inc()
	s.logger.Info("Order cancelled",
		zap.Int64("order_id", orderID),
		zap.String("reason", reason))

	event := &models.OrderCancelledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCancelled,
			Timestamp: time.Now(),
		},
		OrderID:   orderID,
		SessionID: order.SessionID,
		Reason:    reason,
	}
	if err := s.eventPublisher.PublishOrderCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
	}

	return order, nil
}

// UpdateOrderStatus applies a requested status. Only completed ->
// cancelled is a legal transition in the current flow.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	if status != models.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: target %s", ErrInvalidTransition, status)
	}
	return s.CancelOrder(ctx, orderID, "status update")
}

// validateItems checks every product exists and returns them keyed by id
func (s *OrderService) validateItems(ctx context.Context, items []CheckoutItemRequest) (map[int64]*models.Product, error) {
	productIDs := make([]int64, len(items))
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("invalid quantity %d for product %d", item.Quantity, item.ProductID)
		}
		productIDs[i] = item.ProductID
	}

	products, err := s.store.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	productMap := make(map[int64]*models.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}
	for _, item := range items {
		if _, ok := productMap[item.ProductID]; !ok {
			return nil, fmt.Errorf("%w: %d", store.ErrProductNotFound, item.ProductID)
		}
	}

	return productMap, nil
}

func toEventItems(items []models.OrderItem) []models.OrderItemData {
	out := make([]models.OrderItemData, len(items))
	for i, item := range items {
		out[i] = models.OrderItemData{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
		}
	}
	return out
}
