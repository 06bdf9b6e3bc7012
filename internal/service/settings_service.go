package service

import (
	"context"
	"strconv"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/redisclient"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"go.uber.org/zap"
)

// SettingsService owns the store_settings key/value space and the parsed
// loyalty configuration derived from it.
type SettingsService struct {
	store    *store.Store
	redis    *redisclient.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(store *store.Store, redis *redisclient.Client, cacheTTL time.Duration) *SettingsService {
	return &SettingsService{
		store:    store,
		redis:    redis,
		cacheTTL: cacheTTL,
		logger:   util.GetLogger(),
	}
}

// GetSetting returns one setting value, or "" when unset
func (s *SettingsService) GetSetting(ctx context.Context, key string) (string, bool, error) {
	return s.store.GetSetting(ctx, key)
}

// GetAllSettings returns every setting
func (s *SettingsService) GetAllSettings(ctx context.Context) (map[string]string, error) {
	return s.store.GetAllSettings(ctx)
}

// SetSetting upserts one setting and drops the points-config cache, since
// any key might be part of it. Last write wins.
func (s *SettingsService) SetSetting(ctx context.Context, key, value string) error {
	if err := s.store.SetSetting(ctx, key, value); err != nil {
		return err
	}
	s.invalidatePointsConfig(ctx)
	return nil
}

// SetBulkSettings upserts a batch of settings
func (s *SettingsService) SetBulkSettings(ctx context.Context, settings map[string]string) error {
	if err := s.store.SetBulkSettings(ctx, settings); err != nil {
		return err
	}
	s.invalidatePointsConfig(ctx)
	return nil
}

// GetPointsConfig returns the loyalty configuration with defaults
// {100, 40, 1} for unset or unparsable keys. Served from Redis when warm.
func (s *SettingsService) GetPointsConfig(ctx context.Context) (models.PointsConfig, error) {
	if cached, err := s.redis.GetPointsConfig(ctx); err == nil && cached != nil {
		return *cached, nil
	} else if err != nil {
		s.logger.Warn("Points config cache read failed", zap.Error(err))
	}

	settings, err := s.store.GetAllSettings(ctx)
	if err != nil {
		return models.DefaultPointsConfig(), err
	}

	cfg := ParsePointsConfig(settings)

	if err := s.redis.SetPointsConfig(ctx, cfg, s.cacheTTL); err != nil {
		s.logger.Warn("Points config cache write failed", zap.Error(err))
	}
	return cfg, nil
}

// ParsePointsConfig maps raw settings onto a PointsConfig, falling back to
// the defaults per key. Zero and negative rates are treated as unset so a
// bad value cannot divide the redemption math by zero.
func ParsePointsConfig(settings map[string]string) models.PointsConfig {
	cfg := models.DefaultPointsConfig()

	if v, err := strconv.ParseInt(settings[models.SettingKeyPointsToRedeem], 10, 64); err == nil && v > 0 {
		cfg.PointsToRedeem = v
	}
	if v, err := strconv.ParseInt(settings[models.SettingKeyRedeemValue], 10, 64); err == nil && v > 0 {
		cfg.RedeemValue = v
	}
	if v, err := strconv.ParseInt(settings[models.SettingKeyDefaultPointsItem], 10, 64); err == nil && v >= 0 {
		cfg.DefaultPointsPerItem = v
	}
	return cfg
}

func (s *SettingsService) invalidatePointsConfig(ctx context.Context) {
	if err := s.redis.InvalidatePointsConfig(ctx); err != nil {
		s.logger.Warn("Points config cache invalidation failed", zap.Error(err))
	}
}
