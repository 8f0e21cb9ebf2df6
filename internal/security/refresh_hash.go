package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashRefreshToken returns the hex-encoded SHA-256 digest of a refresh token.
// Sessions store this digest so the raw token never touches the database.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RefreshTokenHashEqual reports whether the presented token hashes to
// storedHash, comparing in constant time.
func RefreshTokenHashEqual(providedToken, storedHash string) bool {
	digest := HashRefreshToken(providedToken)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(storedHash)) == 1
}
