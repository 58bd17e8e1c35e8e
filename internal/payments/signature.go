package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
)

// signParams computes the hex HMAC-SHA-256 of the canonical key=value string
// built from the listed keys in order. Keys absent from params contribute an
// empty value, matching gateway conventions.
func signParams(secret []byte, keys []string, params url.Values) string {
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params.Get(key))
	}
	return computeHMAC(secret, []byte(strings.Join(pairs, "&")))
}

func computeHMAC(secret, message []byte) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

// verifySignature compares a gateway-supplied signature against the expected
// hex digest in constant time. Both hex and base64 encodings are accepted.
func verifySignature(expectedHex, provided string) bool {
	expected, err := hex.DecodeString(expectedHex)
	if err != nil {
		return false
	}
	decoded, err := decodeSignature(provided)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, decoded)
}

func decodeSignature(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("payments: empty signature")
	}
	if decoded, err := hex.DecodeString(value); err == nil {
		return decoded, nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(value); err == nil {
		return decoded, nil
	}
	return nil, errors.New("payments: signature must be hex or base64 encoded")
}
