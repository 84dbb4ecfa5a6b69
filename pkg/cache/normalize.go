package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// NormalizeQuery canonicalizes a lookup query so word-order and width
// variants collide to one cache key: NFKC + width fold, lower-case, token
// sort, single-space rejoin.
func NormalizeQuery(query string) string {
	folded := width.Fold.String(norm.NFKC.String(query))
	tokens := strings.Fields(strings.ToLower(folded))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// QueryKey derives the cache key for a query from its normalized form.
func QueryKey(query string) string {
	h := sha256.Sum256([]byte(NormalizeQuery(query)))
	return hex.EncodeToString(h[:])
}
