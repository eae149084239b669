package services

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const trackingPrefix = "MUV"

const trackingAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewTrackingID builds the customer-facing order identifier:
// MUV + base36 millisecond timestamp + 3 random base36 characters, uppercase.
// Assigned exactly once at creation and never regenerated.
func NewTrackingID(now time.Time) string {
	var b strings.Builder
	b.WriteString(trackingPrefix)
	b.WriteString(strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)))
	for i := 0; i < 3; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(trackingAlphabet))))
		if err != nil {
			// crypto/rand only fails when the platform source is broken.
			panic(err)
		}
		b.WriteByte(trackingAlphabet[n.Int64()])
	}
	return b.String()
}
