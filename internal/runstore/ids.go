package runstore

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewID returns a new run id. Ids are version 7 UUIDs, so they sort by
// creation time.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ContentHash identifies a document by the SHA-256 of its bytes.
func ContentHash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
