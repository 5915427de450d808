package booking

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewBookingCode returns a ticket code such as BKM2X9Q4HZ7K3PD: "BK", the
// millisecond timestamp in base 36 and five random base 36 characters.
func NewBookingCode(now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	buf := make([]byte, 5)
	_, _ = rand.Read(buf) // never returns an error since Go 1.24
	for i, b := range buf {
		buf[i] = base36[int(b)%len(base36)]
	}
	return "BK" + ts + string(buf)
}
