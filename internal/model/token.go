package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTokenKey reports a malformed token class key.
var ErrInvalidTokenKey = errors.New("invalid token class key")

// TokenClassKey identifies a token class as Collection|Category|Type|AdditionalKey.
type TokenClassKey struct {
	Collection    string `json:"collection"`
	Category      string `json:"category"`
	Type          string `json:"type"`
	AdditionalKey string `json:"additionalKey"`
}

// String returns the canonical pipe-separated form.
func (k TokenClassKey) String() string {
	return strings.Join([]string{k.Collection, k.Category, k.Type, k.AdditionalKey}, "|")
}

// ParseTokenClassKey parses a pipe-separated class key. All four segments
// must be present and non-empty.
func ParseTokenClassKey(raw string) (TokenClassKey, error) {
	parts := strings.Split(raw, "|")
	if len(parts) != 4 {
		return TokenClassKey{}, fmt.Errorf("%w: %q", ErrInvalidTokenKey, raw)
	}
	for _, part := range parts {
		if part == "" {
			return TokenClassKey{}, fmt.Errorf("%w: %q", ErrInvalidTokenKey, raw)
		}
	}
	return TokenClassKey{
		Collection:    parts[0],
		Category:      parts[1],
		Type:          parts[2],
		AdditionalKey: parts[3],
	}, nil
}

// CompareTokens orders two class keys case-insensitively by their canonical
// string form. Returns -1, 0, or 1.
func CompareTokens(a, b TokenClassKey) int {
	return strings.Compare(strings.ToLower(a.String()), strings.ToLower(b.String()))
}

// TokenOrdering is the canonical pool ordering for a token pair. ZeroForOne
// reports whether the first token given sorts as token0, i.e. a swap from
// it trades token0 for token1.
type TokenOrdering struct {
	Token0     TokenClassKey
	Token1     TokenClassKey
	ZeroForOne bool
}

// GetTokenOrdering sorts a pair into pool order.
func GetTokenOrdering(first, second TokenClassKey) TokenOrdering {
	if CompareTokens(first, second) < 0 {
		return TokenOrdering{Token0: first, Token1: second, ZeroForOne: true}
	}
	return TokenOrdering{Token0: second, Token1: first, ZeroForOne: false}
}
