// Package contentkey derives compact, deterministic identifiers for document
// generation requests. The key is the system's deduplication primitive: two
// requests with the same template, mapping version, normalized recipient
// email, and placeholder values always hash to the same key, so a request can
// be recognized and skipped no matter when (or in which process) it recurs.
//
// Keys are stored as queue row primary keys and must stay short enough to be
// comfortable as cell values, so the SHA-256 digest is base64url-encoded and
// truncated. At 22 characters (~131 bits) collisions are negligible for the
// tens of thousands of rows this system deals with.
package contentkey

import (
	"crypto/sha256"
	"encoding/base64"
	"sort"
	"strings"
)

const (
	// formatVersion is hashed into every key so that a future change to the
	// key derivation produces disjoint keys instead of silent mismatches.
	formatVersion = "v1"

	// sep joins key parts. A unit separator cannot appear in emails,
	// template ids, or cell values that survived normalization.
	sep = "\x1f"

	keyPrefix = "k_"
	keyLen    = 22

	mappingPrefix = "m_"
	mappingLen    = 10
)

// Make derives the ContentKey for one generation request.
//
// placeholders maps placeholder names to the row cell values they resolve to.
// Placeholder names are folded into the hash in lexicographic order so the
// key does not depend on map iteration order. The email is trimmed and
// lowercased; placeholder values are trimmed. Absent values hash as "".
func Make(templateID, mappingVersion, email string, placeholders map[string]string) string {
	parts := []string{
		formatVersion,
		templateID,
		mappingVersion,
		strings.ToLower(strings.TrimSpace(email)),
	}

	names := make([]string, 0, len(placeholders))
	for name := range placeholders {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, name+"="+strings.TrimSpace(placeholders[name]))
	}

	return keyPrefix + digest(strings.Join(parts, sep), keyLen)
}

// MappingVersion derives a short hash of a placeholder→column mapping.
// It is folded into every ContentKey so that editing the mapping invalidates
// dedup matches made under the old mapping. Entries are hashed in sorted
// name order for the same reason Make sorts placeholders.
func MappingVersion(mapping map[string]string) string {
	names := make([]string, 0, len(mapping))
	for name := range mapping {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+strings.ToUpper(strings.TrimSpace(mapping[name])))
	}
	return mappingPrefix + digest(strings.Join(parts, sep), mappingLen)
}

func digest(s string, n int) string {
	sum := sha256.Sum256([]byte(s))
	enc := base64.RawURLEncoding.EncodeToString(sum[:])
	return enc[:n]
}
