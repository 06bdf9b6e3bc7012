package util

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderNumber(t *testing.T) {
	now := time.Date(2025, 3, 15, 14, 30, 45, 0, time.UTC)

	number := GenerateOrderNumber(now)

	assert.Regexp(t, regexp.MustCompile(`^20250315-143045-\d{3}$`), number)
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "0812345678", NormalizePhone("08-1234-5678"))
	assert.Equal(t, "0812345678", NormalizePhone("0812345678"))
	assert.Equal(t, "628123456789", NormalizePhone("+62 812 3456 789"))
	assert.Equal(t, "", NormalizePhone("no digits"))
}
