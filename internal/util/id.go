package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns an opaque identifier like "doc_1f8a9c2b3d4e5f60".
// Eight random bytes keep the external id short while staying
// collision-resistant at this app's scale.
func NewID(prefix string) string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}
