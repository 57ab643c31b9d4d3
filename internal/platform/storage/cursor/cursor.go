// Package cursor provides opaque pagination token encoding/decoding.
package cursor

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid reports a page token the server did not issue, or one issued
// for a different listing.
var ErrInvalid = errors.New("invalid page token")

// Direction indicates the pagination direction.
type Direction string

const (
	// DirectionForward paginates forward (id > cursor).
	DirectionForward Direction = "fwd"
)

// Cursor is the internal state of a keyset pagination token.
type Cursor struct {
	// AfterID is the last row id already returned.
	AfterID int64 `json:"after"`
	// Dir is the pagination direction. Only forward scans are issued.
	Dir Direction `json:"dir"`
	// FilterHash ensures tokens are invalidated if the filter changes.
	FilterHash string `json:"filter_hash,omitempty"`
	// ScopeHash ensures tokens are invalidated if the listing scope changes.
	ScopeHash string `json:"scope_hash,omitempty"`
}

// Encode encodes a cursor to an opaque base64 string.
func Encode(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// Decode decodes an opaque base64 string to a cursor.
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, fmt.Errorf("%w: empty token", ErrInvalid)
	}
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: decode base64: %v", ErrInvalid, err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, fmt.Errorf("%w: unmarshal cursor: %v", ErrInvalid, err)
	}
	if c.Dir != DirectionForward {
		return Cursor{}, fmt.Errorf("%w: direction %q", ErrInvalid, c.Dir)
	}
	if c.AfterID <= 0 {
		return Cursor{}, fmt.Errorf("%w: position %d", ErrInvalid, c.AfterID)
	}
	return c, nil
}

// Hash computes a short hash of s for cursor validation. Returns empty
// string for empty input.
func Hash(s string) string {
	if s == "" {
		return ""
	}
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:8])
}

// Scope joins the fields that select a listing into one hashable string.
func Scope(parts ...string) string {
	return strings.Join(parts, "\x1f")
}

// NewForwardCursor creates a cursor resuming after afterID.
func NewForwardCursor(afterID int64, filter, scope string) Cursor {
	return Cursor{
		AfterID:    afterID,
		Dir:        DirectionForward,
		FilterHash: Hash(filter),
		ScopeHash:  Hash(scope),
	}
}

// NextPageToken encodes the token for the page after afterID. Zero means
// there is no next page and yields an empty token.
func NextPageToken(afterID int64, filter, scope string) (string, error) {
	if afterID <= 0 {
		return "", nil
	}
	return Encode(NewForwardCursor(afterID, filter, scope))
}

// ResumeAfter validates token against the current filter and scope and
// returns the id to resume after. An empty token starts at the first page.
func ResumeAfter(token, filter, scope string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, nil
	}
	c, err := Decode(token)
	if err != nil {
		return 0, err
	}
	if err := ValidateFilterHash(c, filter); err != nil {
		return 0, err
	}
	if err := ValidateScopeHash(c, scope); err != nil {
		return 0, err
	}
	return c.AfterID, nil
}

// ValidateFilterHash checks the cursor was issued for the current filter.
func ValidateFilterHash(c Cursor, currentFilter string) error {
	if c.FilterHash != Hash(currentFilter) {
		return fmt.Errorf("%w: filter changed since cursor was created", ErrInvalid)
	}
	return nil
}

// ValidateScopeHash checks the cursor was issued for the current scope.
func ValidateScopeHash(c Cursor, currentScope string) error {
	if c.ScopeHash != Hash(currentScope) {
		return fmt.Errorf("%w: scope changed since cursor was created", ErrInvalid)
	}
	return nil
}
