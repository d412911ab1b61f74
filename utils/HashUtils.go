package utils

import (
	"encoding/hex"

	"github.com/zeebo/xxh3"
)

// GetEncodedXXHash128 returns a hex xxh3-128 fingerprint, used to correlate request bodies in logs without printing them.
func GetEncodedXXHash128(data ...[]byte) string {
	h := xxh3.New()
	for _, bytes := range data {
		h.Write(bytes)
	}
	sum := h.Sum128()
	bytes := sum.Bytes()
	return hex.EncodeToString(bytes[:])
}
