// Package storage generates short-lived signed read URLs for objects in
// the media bucket (banner and news images).
package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const defaultURLTTL = 15 * time.Minute

// URLSigner issues V4 signed GET URLs for objects in a single bucket.
type URLSigner struct {
	bucket *storage.BucketHandle
	name   string
	email  string
	key    []byte
	ttl    time.Duration
	now    func() time.Time
}

// SignerConfig carries the optional explicit signing credentials. When
// Email/PrivateKey are empty the client's ambient credentials sign.
type SignerConfig struct {
	Bucket     string
	Email      string
	PrivateKey string
	TTL        time.Duration
}

// NewURLSigner binds the signer to the configured bucket.
func NewURLSigner(client *storage.Client, cfg SignerConfig) (*URLSigner, error) {
	if client == nil {
		return nil, errors.New("storage: client is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultURLTTL
	}

	return &URLSigner{
		bucket: client.Bucket(cfg.Bucket),
		name:   cfg.Bucket,
		email:  strings.TrimSpace(cfg.Email),
		key:    []byte(cfg.PrivateKey),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// SignedReadURL returns a time-limited GET URL for the object path. An
// empty path returns an empty URL rather than an error because many
// content records legitimately carry no image.
func (s *URLSigner) SignedReadURL(objectPath string) (string, error) {
	if s == nil || s.bucket == nil {
		return "", errors.New("storage: signer not initialised")
	}
	objectPath = strings.TrimLeft(strings.TrimSpace(objectPath), "/")
	if objectPath == "" {
		return "", nil
	}

	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: s.now().Add(s.ttl),
	}
	if s.email != "" {
		opts.GoogleAccessID = s.email
	}
	if len(s.key) > 0 {
		opts.PrivateKey = s.key
	}

	url, err := s.bucket.SignedURL(objectPath, opts)
	if err != nil {
		return "", fmt.Errorf("storage: sign url for %s/%s: %w", s.name, objectPath, err)
	}
	return url, nil
}
