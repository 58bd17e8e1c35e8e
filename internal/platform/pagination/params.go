// Package pagination parses limit/cursor query parameters and encodes the
// opaque continuation tokens returned by list endpoints.
package pagination

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// ErrInvalidCursor reports a continuation token that cannot be decoded.
var ErrInvalidCursor = errors.New("pagination: invalid cursor")

// Params carries the normalised paging inputs for a list request.
type Params struct {
	Limit  int
	Cursor string
}

// FromQuery parses limit and cursor from the request query, clamping the
// limit into [1, maxLimit].
func FromQuery(query url.Values) (Params, error) {
	params := Params{Limit: defaultLimit}

	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return Params{}, errors.New("pagination: limit must be a positive integer")
		}
		if limit > maxLimit {
			limit = maxLimit
		}
		params.Limit = limit
	}

	if raw := strings.TrimSpace(query.Get("cursor")); raw != "" {
		decoded, err := DecodeToken(raw)
		if err != nil {
			return Params{}, err
		}
		params.Cursor = decoded
	}

	return params, nil
}

// EncodeToken wraps the storage-level position (a document id) in an
// opaque token.
func EncodeToken(position string) string {
	if position == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(position))
}

// DecodeToken unwraps a token produced by EncodeToken.
func DecodeToken(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) == 0 {
		return "", ErrInvalidCursor
	}
	return string(raw), nil
}
