package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainModel         = "efsmcheck/model/v1"
	DomainSolverVerdict = "efsmcheck/solver-verdict/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data). The null separator
// prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content hash of the model. Two snapshots with the same
// states, transitions, events, variables, and fields hash identically
// regardless of map ordering or Unicode normalization form.
func (m *Model) Hash() (string, error) {
	canonical, err := MarshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("model hash: %w", err)
	}
	return hashWithDomain(DomainModel, canonical), nil
}

// ContentHash hashes an arbitrary JSON-renderable value under the given
// domain. Used for solver verdict cache keys.
func ContentHash(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("content hash: %w", err)
	}
	return hashWithDomain(domain, canonical), nil
}
