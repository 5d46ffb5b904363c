package utils

import (
	"crypto/rand"
	"math/big"
)

// RandomID returns a positive random identifier suitable for the VK
// messages.send random_id parameter (deduplication token, int32 range).
func RandomID() int64 {
	num, err := rand.Int(rand.Reader, big.NewInt(1<<31-1))
	if err != nil {
		return 1
	}
	return num.Int64() + 1
}
