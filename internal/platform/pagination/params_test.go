package pagination

import (
	"errors"
	"net/url"
	"testing"
)

func TestFromQueryDefaults(t *testing.T) {
	params, err := FromQuery(url.Values{})
	if err != nil {
		t.Fatalf("FromQuery returned error: %v", err)
	}
	if params.Limit != defaultLimit {
		t.Fatalf("limit = %d, want %d", params.Limit, defaultLimit)
	}
	if params.Cursor != "" {
		t.Fatalf("cursor = %q, want empty", params.Cursor)
	}
}

func TestFromQueryClampsLimit(t *testing.T) {
	params, err := FromQuery(url.Values{"limit": {"500"}})
	if err != nil {
		t.Fatalf("FromQuery returned error: %v", err)
	}
	if params.Limit != maxLimit {
		t.Fatalf("limit = %d, want %d", params.Limit, maxLimit)
	}
}

func TestFromQueryRejectsBadLimit(t *testing.T) {
	for _, raw := range []string{"0", "-3", "abc"} {
		if _, err := FromQuery(url.Values{"limit": {raw}}); err == nil {
			t.Fatalf("limit %q: expected error", raw)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token := EncodeToken("ord_01J8ZY")
	params, err := FromQuery(url.Values{"cursor": {token}})
	if err != nil {
		t.Fatalf("FromQuery returned error: %v", err)
	}
	if params.Cursor != "ord_01J8ZY" {
		t.Fatalf("cursor = %q, want ord_01J8ZY", params.Cursor)
	}
}

func TestFromQueryRejectsBadCursor(t *testing.T) {
	_, err := FromQuery(url.Values{"cursor": {"not base64!!"}})
	if !errors.Is(err, ErrInvalidCursor) {
		t.Fatalf("expected ErrInvalidCursor, got %v", err)
	}
}
