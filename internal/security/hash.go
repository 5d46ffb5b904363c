package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashSHA256 returns the hex sha256 digest of the input.
func HashSHA256(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// PasswordMatches compares a stored password digest against a candidate
// password in constant time.
func PasswordMatches(storedHash, password string) bool {
	candidate := HashSHA256(password)
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(candidate)) == 1
}
