package service

import (
	"context"
	"time"

	"pos-service/internal/broker"
	"pos-service/internal/models"
	"pos-service/internal/redisclient"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionService delimits sales periods and produces their financial
// summaries.
type SessionService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	salesCacheTTL  time.Duration
	lockTTL        time.Duration
	logger         *zap.Logger
}

// NewSessionService creates a new session service
func NewSessionService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	salesCacheTTL, lockTTL time.Duration,
) *SessionService {
	return &SessionService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		salesCacheTTL:  salesCacheTTL,
		lockTTL:        lockTTL,
		logger:         util.GetLogger(),
	}
}

// GetCurrentSession returns the open session, or nil when the store is closed
func (s *SessionService) GetCurrentSession(ctx context.Context) (*models.StoreSession, error) {
	return s.store.GetCurrentSession(ctx)
}

// GetLastSession returns the most recently closed session
func (s *SessionService) GetLastSession(ctx context.Context) (*models.StoreSession, error) {
	return s.store.GetLastSession(ctx)
}

// ListSessions returns past sessions, newest first
func (s *SessionService) ListSessions(ctx context.Context, limit int) ([]models.StoreSession, error) {
	return s.store.GetSessions(ctx, limit)
}

// GetSession returns one session by id
func (s *SessionService) GetSession(ctx context.Context, id int64) (*models.StoreSession, error) {
	return s.store.GetSessionByID(ctx, id)
}

// OpenSession starts a new shift. A Redis lock serializes concurrent
// opens from different devices; the partial unique index backs it up at
// the database.
func (s *SessionService) OpenSession(ctx context.Context, openedBy string) (*models.StoreSession, error) {
	ctx, span := util.StartSpan(ctx, "SessionService.OpenSession")
	defer span.End()

	locked, err := s.redis.AcquireSessionOpenLock(ctx, s.lockTTL)
	if err != nil {
		s.logger.Warn("Session open lock unavailable, relying on DB constraint", zap.Error(err))
	} else if !locked {
		return nil, store.ErrSessionAlreadyOpen
	} else {
		defer func() {
			if err := s.redis.ReleaseSessionOpenLock(ctx); err != nil {
				s.logger.Warn("Failed to release session open lock", zap.Error(err))
			}
		}()
	}

	session, err := s.store.OpenSession(ctx, openedBy)
	if err != nil {
		return nil, err
	}

	util.SessionsOpenedTotal.Inc()
	s.logger.Info("Session opened",
		zap.Int64("session_id", session.ID),
		zap.String("opened_by", openedBy))

	event := &models.SessionOpenedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSessionOpened,
			Timestamp: time.Now(),
		},
		SessionID: session.ID,
		OpenedBy:  openedBy,
	}
	if err := s.eventPublisher.PublishSessionOpened(ctx, event); err != nil {
		s.logger.Error("Failed to publish SessionOpened event", zap.Error(err))
	}

	return session, nil
}

// GetSessionSales returns the live aggregate over the session's completed
// orders, served from the Redis cache when warm.
func (s *SessionService) GetSessionSales(ctx context.Context, sessionID int64) (*models.SessionSales, error) {
	ctx, span := util.StartSpan(ctx, "SessionService.GetSessionSales")
	defer span.End()

	if cached, err := s.redis.GetSessionSales(ctx, sessionID); err == nil && cached != nil {
		util.SessionSalesCacheHits.WithLabelValues("hit").Inc()
		return cached, nil
	} else if err != nil {
		s.logger.Warn("Session sales cache read failed", zap.Error(err))
	}
	util.SessionSalesCacheHits.WithLabelValues("miss").Inc()

	sales, err := s.computeSessionSales(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.redis.SetSessionSales(ctx, sessionID, *sales, s.salesCacheTTL); err != nil {
		s.logger.Warn("Session sales cache write failed", zap.Error(err))
	}
	return sales, nil
}

// RefreshSessionSales recomputes and re-caches a session's aggregate. The
// sales cache worker calls this when an order event arrives.
func (s *SessionService) RefreshSessionSales(ctx context.Context, sessionID int64) error {
	if err := s.redis.InvalidateSessionSales(ctx, sessionID); err != nil {
		s.logger.Warn("Session sales cache invalidation failed", zap.Error(err))
	}
	sales, err := s.computeSessionSales(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.redis.SetSessionSales(ctx, sessionID, *sales, s.salesCacheTTL)
}

func (s *SessionService) computeSessionSales(ctx context.Context, sessionID int64) (*models.SessionSales, error) {
	if _, err := s.store.GetSessionByID(ctx, sessionID); err != nil {
		return nil, err
	}

	orders, err := s.store.GetCompletedOrdersBySession(ctx, sessionID)
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

	sales := AggregateSessionSales(orders, items)
	return &sales, nil
}

// AggregateSessionSales sums a set of completed orders into the shift
// totals: order count, revenue split by payment method, and item count
// across the orders' lines. Callers pass completed orders only; cancelled
// orders never reach these sums.
func AggregateSessionSales(orders []models.Order, items []models.OrderItem) models.SessionSales {
	var sales models.SessionSales
	sales.TotalOrders = int64(len(orders))
	for _, o := range orders {
		sales.TotalRevenue += o.Total
		switch o.PaymentMethod {
		case models.PaymentMethodCash:
			sales.CashRevenue += o.Total
		case models.PaymentMethodTransfer:
			sales.TransferRevenue += o.Total
		}
	}
	for _, item := range items {
		sales.TotalItems += item.Quantity
	}
	return sales
}

// CloseSession recomputes the aggregate one final time, freezes it into
// the session row, and stamps closed_at. The transition is one-way; a
// later cancellation of one of its orders will not rewrite the snapshot.
func (s *SessionService) CloseSession(ctx context.Context, sessionID int64, closedBy string) (*models.StoreSession, error) {
	ctx, span := util.StartSpan(ctx, "SessionService.CloseSession")
	defer span.End()

	sales, err := s.computeSessionSales(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session, err := s.store.CloseSession(ctx, sessionID, closedBy, *sales)
	if err != nil {
		return nil, err
	}

	if err := s.redis.InvalidateSessionSales(ctx, sessionID); err != nil {
		s.logger.Warn("Session sales cache invalidation failed", zap.Error(err))
	}

	util.SessionsClosedTotal.Inc()
	s.logger.Info("Session closed",
		zap.Int64("session_id", sessionID),
		zap.Int64("total_orders", sales.TotalOrders),
		zap.Int64("total_revenue", sales.TotalRevenue))

	event := &models.SessionClosedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSessionClosed,
			Timestamp: time.Now(),
		},
		SessionID:       sessionID,
		TotalOrders:     sales.TotalOrders,
		TotalItems:      sales.TotalItems,
		TotalRevenue:    sales.TotalRevenue,
		CashRevenue:     sales.CashRevenue,
		TransferRevenue: sales.TransferRevenue,
	}
	if err := s.eventPublisher.PublishSessionClosed(ctx, event); err != nil {
		s.logger.Error("Failed to publish SessionClosed event", zap.Error(err))
	}

	return session, nil
}
