package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewBookingCode(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	a := NewBookingCode(now)
	b := NewBookingCode(now)
	assert.Regexp(t, `^BK[0-9A-Z]{13}$`, a)
	assert.NotEqual(t, a, b)
}
