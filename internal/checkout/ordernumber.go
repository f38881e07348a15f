package checkout

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const orderNumberCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const orderNumberSuffixLen = 5

// generateOrderNumber builds a human-readable, probabilistically unique
// order number like ORD-MFZK3T0A-7Q2XB.
func generateOrderNumber(now time.Time) (string, error) {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	suffix := make([]byte, orderNumberSuffixLen)
	buf := make([]byte, orderNumberSuffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate order number suffix: %w", err)
	}
	for i, b := range buf {
		suffix[i] = orderNumberCharset[int(b)%len(orderNumberCharset)]
	}

	return fmt.Sprintf("ORD-%s-%s", ts, string(suffix)), nil
}
