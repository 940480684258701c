package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashEmail returns a stable identifier for an address so leads can be
// correlated in logs without storing the address there.
func HashEmail(email string) string {
	hash := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(hash[:])
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok || local == "" {
		return "****"
	}
	return local[:1] + "***@" + domain
}
