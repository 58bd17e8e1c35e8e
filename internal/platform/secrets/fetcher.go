// Package secrets resolves secret:// references in configuration through
// Google Secret Manager.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultAccessTimeout = 5 * time.Second

var meter = otel.Meter("github.com/minashop/api/internal/platform/secrets")

// Fetcher reads secret payloads from Secret Manager, retrying transient
// failures with exponential backoff.
type Fetcher struct {
	client    *secretmanager.Client
	projectID string
	timeout   time.Duration
	logger    *zap.Logger

	accessCounter metric.Int64Counter
}

// NewFetcher opens a Secret Manager client scoped to the project.
func NewFetcher(ctx context.Context, projectID string, logger *zap.Logger) (*Fetcher, error) {
	if projectID == "" {
		return nil, errors.New("secrets: project id is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secrets: open client: %w", err)
	}

	counter, err := meter.Int64Counter("secrets.access.count",
		metric.WithDescription("Secret Manager access attempts by outcome"))
	if err != nil {
		logger.Warn("secrets: metric registration failed", zap.Error(err))
	}

	return &Fetcher{
		client:        client,
		projectID:     projectID,
		timeout:       defaultAccessTimeout,
		logger:        logger,
		accessCounter: counter,
	}, nil
}

// Close releases the underlying client.
func (f *Fetcher) Close() error {
	if f == nil || f.client == nil {
		return nil
	}
	return f.client.Close()
}

// Fetch resolves the named secret's latest version. The name may be a bare
// secret id or a full projects/.../versions/... resource path.
func (f *Fetcher) Fetch(ctx context.Context, name string) (string, error) {
	if f == nil || f.client == nil {
		return "", errors.New("secrets: fetcher not initialised")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("secrets: secret name is empty")
	}

	resource := name
	if !strings.HasPrefix(name, "projects/") {
		resource = fmt.Sprintf("projects/%s/secrets/%s/versions/latest", f.projectID, name)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.client.AccessSecretVersion(ctx,
		&secretmanagerpb.AccessSecretVersionRequest{Name: resource},
		gax.WithRetry(func() gax.Retryer {
			return gax.OnCodes([]codes.Code{codes.Unavailable, codes.ResourceExhausted}, gax.Backoff{
				Initial:    100 * time.Millisecond,
				Max:        2 * time.Second,
				Multiplier: 2,
			})
		}),
	)
	f.record(ctx, err)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", fmt.Errorf("secrets: %s not found: %w", name, err)
		}
		return "", fmt.Errorf("secrets: access %s: %w", name, err)
	}

	return string(resp.GetPayload().GetData()), nil
}

func (f *Fetcher) record(ctx context.Context, err error) {
	if f.accessCounter == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	f.accessCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
