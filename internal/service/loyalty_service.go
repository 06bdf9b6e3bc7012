package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pos-service/internal/broker"
	"pos-service/internal/models"
	"pos-service/internal/redisclient"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LoyaltyService handles members, point accrual/redemption, and the
// post-order settlement.
type LoyaltyService struct {
	store          *store.Store
	redis          *redisclient.Client
	settings       *SettingsService
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewLoyaltyService creates a new loyalty service
func NewLoyaltyService(
	store *store.Store,
	redis *redisclient.Client,
	settings *SettingsService,
	eventPublisher *broker.EventPublisher,
) *LoyaltyService {
	return &LoyaltyService{
		store:          store,
		redis:          redis,
		settings:       settings,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// ListMembers returns all members
func (s *LoyaltyService) ListMembers(ctx context.Context) ([]models.Member, error) {
	return s.store.GetMembers(ctx)
}

// GetMember returns one member
func (s *LoyaltyService) GetMember(ctx context.Context, id int64) (*models.Member, error) {
	return s.store.GetMemberByID(ctx, id)
}

// GetMemberByPhone looks a member up by any phone formatting
func (s *LoyaltyService) GetMemberByPhone(ctx context.Context, phone string) (*models.Member, error) {
	return s.store.GetMemberByPhone(ctx, util.NormalizePhone(phone))
}

// SearchMembers matches name or phone
func (s *LoyaltyService) SearchMembers(ctx context.Context, query string) ([]models.Member, error) {
	return s.store.SearchMembers(ctx, strings.TrimSpace(query))
}

// RegisterMember creates a member with a normalized, unique phone
func (s *LoyaltyService) RegisterMember(ctx context.Context, name, phone string) (*models.Member, error) {
	member := &models.Member{
		Name:  strings.TrimSpace(name),
		Phone: util.NormalizePhone(phone),
	}
	if member.Name == "" || member.Phone == "" {
		return nil, fmt.Errorf("%w: name and phone are required", ErrInvalidInput)
	}

	if existing, err := s.store.GetMemberByPhone(ctx, member.Phone); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: %s", store.ErrPhoneExists, member.Phone)
	}

	if err := s.store.CreateMember(ctx, member); err != nil {
		return nil, err
	}
	s.logger.Info("Member registered", zap.Int64("member_id", member.ID))
	return member, nil
}

// UpdateMember updates name/phone
func (s *LoyaltyService) UpdateMember(ctx context.Context, id int64, name, phone string) (*models.Member, error) {
	return s.store.UpdateMember(ctx, id, strings.TrimSpace(name), util.NormalizePhone(phone))
}

// DeleteMember removes a member
func (s *LoyaltyService) DeleteMember(ctx context.Context, id int64) error {
	return s.store.DeleteMember(ctx, id)
}

// GetPointsHistory returns the member's ledger, newest first
func (s *LoyaltyService) GetPointsHistory(ctx context.Context, memberID int64, limit int) ([]models.PointHistory, error) {
	if _, err := s.store.GetMemberByID(ctx, memberID); err != nil {
		return nil, err
	}
	return s.store.GetPointsHistory(ctx, memberID, limit)
}

// QuoteRedemption returns the redemption ceilings for a member and cart
func (s *LoyaltyService) QuoteRedemption(ctx context.Context, memberID, cartSubtotal int64) (*RedeemQuote, error) {
	member, err := s.store.GetMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.settings.GetPointsConfig(ctx)
	if err != nil {
		return nil, err
	}
	quote := QuoteRedemption(member.TotalPoints, cartSubtotal, cfg)
	return &quote, nil
}

// AddPoints credits points outside an order settlement and appends an earn
// ledger row.
func (s *LoyaltyService) AddPoints(ctx context.Context, memberID, points int64, orderID *int64, description string) (*models.Member, error) {
	if points <= 0 {
		return nil, fmt.Errorf("%w: points must be positive", ErrInvalidInput)
	}
	member, err := s.store.GetMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if description == "" {
		description = "Points earned"
	}

	entry := &models.PointHistory{
		MemberID:    memberID,
		OrderID:     orderID,
		Type:        models.PointTypeEarn,
		Points:      points,
		Description: description,
	}
	updated, err := s.store.ApplyPointsDelta(ctx, memberID, member.TotalPoints+points, entry)
	if err != nil {
		return nil, err
	}
	util.PointsEarnedTotal.Add(float64(points))
	return updated, nil
}

// RedeemPoints debits points outside an order settlement. Insufficient
// balance fails before any mutation.
func (s *LoyaltyService) RedeemPoints(ctx context.Context, memberID, points int64, orderID *int64, description string) (*models.Member, error) {
	if points <= 0 {
		return nil, fmt.Errorf("%w: points must be positive", ErrInvalidInput)
	}
	member, err := s.store.GetMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.TotalPoints < points {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientPoints, member.TotalPoints, points)
	}
	if description == "" {
		description = "Points redeemed for discount"
	}

	entry := &models.PointHistory{
		MemberID:    memberID,
		OrderID:     orderID,
		Type:        models.PointTypeRedeem,
		Points:      -points,
		Description: description,
	}
	updated, err := s.store.ApplyPointsDelta(ctx, memberID, member.TotalPoints-points, entry)
	if err != nil {
		return nil, err
	}
	util.PointsRedeemedTotal.Add(float64(points))
	return updated, nil
}

// AdjustPoints applies a signed manual correction. The balance clamps at
// zero; the ledger records the delta as requested, so the audit trail
// shows what staff actually entered.
func (s *LoyaltyService) AdjustPoints(ctx context.Context, memberID, delta int64, reason string) (*models.Member, error) {
	ctx, span := util.StartSpan(ctx, "LoyaltyService.AdjustPoints")
	defer span.End()

	reason = strings.TrimSpace(reason)
	if delta == 0 || reason == "" {
		return nil, ErrInvalidAdjustment
	}

	member, err := s.store.GetMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	newBalance := ClampPoints(member.TotalPoints + delta)
	entry := &models.PointHistory{
		MemberID:    memberID,
		Type:        models.PointTypeAdjust,
		Points:      delta,
		Description: reason,
	}
	updated, err := s.store.ApplyPointsDelta(ctx, memberID, newBalance, entry)
	if err != nil {
		return nil, err
	}

	direction := "up"
	if delta < 0 {
		direction = "down"
	}
	util.PointAdjustmentsTotal.WithLabelValues(direction).Inc()
	s.logger.Info("Points adjusted",
		zap.Int64("member_id", memberID),
		zap.Int64("delta", delta),
		zap.Int64("new_balance", updated.TotalPoints))
	return updated, nil
}

// SettleAfterOrder durably reflects a completed order in the member's
// balance, spend, and visit count, appending the earn/redeem ledger rows.
// The settlement is idempotent per order: a retry after a partial checkout
// failure cannot double-apply.
func (s *LoyaltyService) SettleAfterOrder(ctx context.Context, memberID, orderID, orderTotal, pointsEarned, pointsRedeemed int64) (*models.Member, error) {
	ctx, span := util.StartSpan(ctx, "LoyaltyService.SettleAfterOrder")
	defer span.End()

	if settled, err := s.redis.IsOrderSettled(ctx, orderID); err == nil && settled {
		util.SettlementsDuplicateTotal.Inc()
		return s.store.GetMemberByID(ctx, memberID)
	}

	entries := SettlementEntries(memberID, orderID, pointsEarned, pointsRedeemed)
	member, applied, err := s.store.SettleMemberAfterOrder(
		ctx, memberID, orderID, orderTotal, pointsEarned, pointsRedeemed, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to settle member %d for order %d: %w", memberID, orderID, err)
	}

	if !applied {
		util.SettlementsDuplicateTotal.Inc()
		s.logger.Info("Settlement already applied",
			zap.Int64("member_id", memberID),
			zap.Int64("order_id", orderID))
		return member, nil
	}

	util.SettlementsTotal.Inc()
	util.PointsEarnedTotal.Add(float64(pointsEarned))
	util.PointsRedeemedTotal.Add(float64(pointsRedeemed))

	if err := s.redis.MarkOrderSettled(ctx, orderID); err != nil {
		s.logger.Warn("Failed to mark settlement in Redis", zap.Error(err))
	}

	event := &models.PointsSettledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePointsSettled,
			Timestamp: time.Now(),
		},
		OrderID:        orderID,
		MemberID:       memberID,
		PointsEarned:   pointsEarned,
		PointsRedeemed: pointsRedeemed,
		NewBalance:     member.TotalPoints,
	}
	if err := s.eventPublisher.PublishPointsSettled(ctx, event); err != nil {
		s.logger.Error("Failed to publish PointsSettled event", zap.Error(err))
	}

	return member, nil
}
