package service

import (
	"testing"

	"pos-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestParsePointsConfigDefaults(t *testing.T) {
	cfg := ParsePointsConfig(map[string]string{})

	assert.Equal(t, int64(100), cfg.PointsToRedeem)
	assert.Equal(t, int64(40), cfg.RedeemValue)
	assert.Equal(t, int64(1), cfg.DefaultPointsPerItem)
}

func TestParsePointsConfigOverrides(t *testing.T) {
	cfg := ParsePointsConfig(map[string]string{
		models.SettingKeyPointsToRedeem:    "50",
		models.SettingKeyRedeemValue:       "25",
		models.SettingKeyDefaultPointsItem: "2",
	})

	assert.Equal(t, int64(50), cfg.PointsToRedeem)
	assert.Equal(t, int64(25), cfg.RedeemValue)
	assert.Equal(t, int64(2), cfg.DefaultPointsPerItem)
}

func TestParsePointsConfigRejectsBadValues(t *testing.T) {
	// Unparsable or non-positive rates fall back to defaults so the
	// redemption math can never divide by zero.
	cfg := ParsePointsConfig(map[string]string{
		models.SettingKeyPointsToRedeem:    "0",
		models.SettingKeyRedeemValue:       "-5",
		models.SettingKeyDefaultPointsItem: "banana",
	})

	assert.Equal(t, int64(100), cfg.PointsToRedeem)
	assert.Equal(t, int64(40), cfg.RedeemValue)
	assert.Equal(t, int64(1), cfg.DefaultPointsPerItem)
}

func TestParsePointsConfigAllowsZeroDefaultRate(t *testing.T) {
	cfg := ParsePointsConfig(map[string]string{
		models.SettingKeyDefaultPointsItem: "0",
	})
	assert.Equal(t, int64(0), cfg.DefaultPointsPerItem)
}
