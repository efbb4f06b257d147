package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainRegistry = "extvars/registry/v1"
	DomainJournal  = "extvars/journal/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalRegistry converts a registry into the map form accepted by
// MarshalCanonical. Empty categories are omitted so that a registry with an
// explicit empty list and one without the key digest identically.
func CanonicalRegistry(reg Registry) map[string]any {
	out := make(map[string]any, len(reg))
	for cat, recs := range reg {
		if len(recs) == 0 {
			continue
		}
		list := make([]any, len(recs))
		for i, rec := range recs {
			list[i] = map[string]any{
				"id":   string(rec.ID),
				"name": rec.Name,
			}
		}
		out[string(cat)] = list
	}
	return out
}

// RegistryDigest computes a content digest of a registry.
// Record order within a category is significant; category order is not.
func RegistryDigest(reg Registry) (string, error) {
	canonical, err := MarshalCanonical(CanonicalRegistry(reg))
	if err != nil {
		return "", fmt.Errorf("RegistryDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRegistry, canonical), nil
}

// MustRegistryDigest is like RegistryDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRegistryDigest(reg Registry) string {
	d, err := RegistryDigest(reg)
	if err != nil {
		panic(err)
	}
	return d
}

// EntryHash computes the content hash of a journal entry.
func EntryHash(e JournalEntry) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"seq":      e.Seq,
		"session":  e.Session,
		"op":       e.Op,
		"var_id":   string(e.VarID),
		"name":     e.Name,
		"category": string(e.Category),
	})
	if err != nil {
		return "", fmt.Errorf("EntryHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainJournal, canonical), nil
}
