// Package firestore wraps the Cloud Firestore client with lazy
// initialisation, bounded transactions, and error classification shared by
// every repository.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

const (
	defaultTransactionTimeout  = 10 * time.Second
	defaultTransactionAttempts = 5
)

// Config captures the settings needed to open a Firestore client.
type Config struct {
	ProjectID       string
	DatabaseID      string
	CredentialsFile string
}

// Provider owns a lazily initialised Firestore client shared by all
// repositories. The first caller pays the connection cost; later callers
// reuse the same client.
type Provider struct {
	cfg  Config
	opts []option.ClientOption

	mu     sync.Mutex
	client *firestore.Client
	err    error
}

// NewProvider validates the configuration and returns an unopened provider.
func NewProvider(cfg Config, opts ...option.ClientOption) (*Provider, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firestore: project id is required")
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	return &Provider{cfg: cfg, opts: opts}, nil
}

// Client returns the shared Firestore client, opening it on first use.
func (p *Provider) Client(ctx context.Context) (*firestore.Client, error) {
	if p == nil {
		return nil, errors.New("firestore: provider not configured")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil || p.err != nil {
		return p.client, p.err
	}

	databaseID := p.cfg.DatabaseID
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, p.cfg.ProjectID, databaseID, p.opts...)
	if err != nil {
		p.err = fmt.Errorf("firestore: open client: %w", err)
		return nil, p.err
	}
	p.client = client
	return p.client, nil
}

// Close releases the underlying client if it was opened.
func (p *Provider) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return nil
	}
	err := p.client.Close()
	p.client = nil
	p.err = errors.New("firestore: provider closed")
	return err
}

// Ping verifies connectivity by listing a single collection reference.
func (p *Provider) Ping(ctx context.Context) error {
	client, err := p.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collections(ctx).Next()
	if err != nil && !isIteratorDone(err) {
		return WrapError("ping", err)
	}
	return nil
}

// RunTransaction executes fn inside a Firestore transaction with a bounded
// timeout and retry budget.
func (p *Provider) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx *firestore.Transaction) error) error {
	client, err := p.Client(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTransactionTimeout)
	defer cancel()

	return client.RunTransaction(ctx, fn, firestore.MaxAttempts(defaultTransactionAttempts))
}
