package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserKey returns a stable hex digest of a user ID. Cache key builders
// use it to keep raw identities (emails, OAuth subjects) out of key names.
func HashUserKey(id string) string {
	h := sha256.New()
	h.Write([]byte(id))
	return hex.EncodeToString(h.Sum(nil))
}
