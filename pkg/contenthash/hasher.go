package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/goccy/go-json"
)

// Hasher provides deterministic content hashing for workflow documents.
type Hasher struct{}

// New creates a new Hasher
func New() *Hasher {
	return &Hasher{}
}

// HashStruct hashes the JSON form of v. Map keys are sorted when
// marshaled, so equal documents hash equally regardless of key order.
func (h *Hasher) HashStruct(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal value for hashing: %w", err)
	}
	return h.HashBytes(data), nil
}

// HashBytes hashes raw workflow text.
func (h *Hasher) HashBytes(b []byte) string {
	hash := sha256.Sum256(b)
	return hex.EncodeToString(hash[:])
}

func (h *Hasher) HashString(s string) string {
	return h.HashBytes([]byte(s))
}
