package util

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// GenerateOrderNumber builds a human-readable receipt number:
// YYYYMMDD-HHMMSS-NNN with a random 3-digit suffix. Uniqueness is not
// guaranteed; the database id is the real identity.
func GenerateOrderNumber(now time.Time) string {
	return fmt.Sprintf("%s-%s-%03d",
		now.Format("20060102"),
		now.Format("150405"),
		rand.Intn(1000))
}

// NormalizePhone strips everything but digits so "08-1234-5678" and
// "0812345678" resolve to the same member.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
