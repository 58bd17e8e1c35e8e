// Package config loads runtime configuration from a dotenv file, the
// process environment, and explicit overrides, resolving secret references
// through a pluggable resolver before validation.
package config

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Secret references accepted in any config value. The remainder of the
// value names the secret to resolve.
const (
	secretScheme        = "secret://"
	secretManagerScheme = "sm://"
)

// SecretResolver fetches the plaintext for a named secret reference.
type SecretResolver func(ctx context.Context, name string) (string, error)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// FirestoreConfig selects the Firestore project and database.
type FirestoreConfig struct {
	ProjectID       string
	DatabaseID      string
	CredentialsFile string
}

// FirebaseConfig selects the Firebase project used to verify ID tokens.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// PubSubConfig names the topic order events are published to. Publishing
// is disabled when the topic is empty.
type PubSubConfig struct {
	ProjectID  string
	OrderTopic string
}

// StorageConfig names the bucket holding banner and news images. Signed
// URL generation is disabled when the bucket is empty.
type StorageConfig struct {
	Bucket           string
	SignedURLTTL     time.Duration
	SignerEmail      string
	SignerPrivateKey string
}

// ShippingConfig drives the flat-fee shipping calculator.
type ShippingConfig struct {
	DefaultFee    float64
	FreeThreshold float64
}

// GatewayConfig holds one redirect payment gateway's merchant settings.
type GatewayConfig struct {
	Endpoint    string
	PartnerCode string
	Secret      string
	ReturnURL   string
	NotifyURL   string
	Timeout     time.Duration
}

// Config is the fully resolved runtime configuration.
type Config struct {
	Env       string
	LogLevel  string
	ProjectID string

	Server    ServerConfig
	Firestore FirestoreConfig
	Firebase  FirebaseConfig
	PubSub    PubSubConfig
	Storage   StorageConfig
	Shipping  ShippingConfig

	// Gateways is keyed by payment method name: momo, zalopay, payoo.
	Gateways map[string]GatewayConfig
}

// ValidationError lists the settings that were missing or malformed.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: missing or invalid settings: %s", strings.Join(e.Missing, ", "))
}

// SecretError reports a failed secret reference resolution.
type SecretError struct {
	Key string
	Err error
}

func (e *SecretError) Error() string {
	return fmt.Sprintf("config: resolve secret for %s: %v", e.Key, e.Err)
}

func (e *SecretError) Unwrap() error { return e.Err }

type loader struct {
	envFile   string
	overrides map[string]string
	resolver  SecretResolver
}

// Option customises Load behaviour.
type Option func(*loader)

// WithEnvFile reads KEY=VALUE pairs from the given dotenv file when it
// exists. Missing files are ignored.
func WithEnvFile(path string) Option {
	return func(l *loader) { l.envFile = path }
}

// WithOverrides supplies explicit values that win over the environment.
func WithOverrides(values map[string]string) Option {
	return func(l *loader) {
		for k, v := range values {
			l.overrides[k] = v
		}
	}
}

// WithSecretResolver resolves secret:// and sm:// references in values.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(l *loader) { l.resolver = resolver }
}

// Load assembles the configuration. Precedence: overrides > process
// environment > dotenv file > defaults.
func Load(ctx context.Context, opts ...Option) (*Config, error) {
	l := &loader{overrides: map[string]string{}}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	values := map[string]string{}
	if l.envFile != "" {
		fileValues, err := readEnvFile(l.envFile)
		if err != nil {
			return nil, err
		}
		for k, v := range fileValues {
			values[k] = v
		}
	}
	for _, pair := range os.Environ() {
		if idx := strings.Index(pair, "="); idx > 0 {
			values[pair[:idx]] = pair[idx+1:]
		}
	}
	for k, v := range l.overrides {
		values[k] = v
	}

	if err := resolveSecrets(ctx, values, l.resolver); err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:       stringWithDefault(values, "APP_ENV", "development"),
		LogLevel:  stringWithDefault(values, "LOG_LEVEL", "info"),
		ProjectID: stringWithDefault(values, "GOOGLE_CLOUD_PROJECT", ""),
		Server: ServerConfig{
			Port:            intWithDefault(values, "PORT", 8080),
			ReadTimeout:     durationWithDefault(values, "SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    durationWithDefault(values, "SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     durationWithDefault(values, "SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: durationWithDefault(values, "SERVER_SHUTDOWN_TIMEOUT", 20*time.Second),
		},
		Firestore: FirestoreConfig{
			ProjectID:       stringWithDefault(values, "FIRESTORE_PROJECT_ID", stringWithDefault(values, "GOOGLE_CLOUD_PROJECT", "")),
			DatabaseID:      stringWithDefault(values, "FIRESTORE_DATABASE_ID", ""),
			CredentialsFile: stringWithDefault(values, "FIRESTORE_CREDENTIALS_FILE", ""),
		},
		Firebase: FirebaseConfig{
			ProjectID:       stringWithDefault(values, "FIREBASE_PROJECT_ID", stringWithDefault(values, "GOOGLE_CLOUD_PROJECT", "")),
			CredentialsFile: stringWithDefault(values, "FIREBASE_CREDENTIALS_FILE", ""),
		},
		PubSub: PubSubConfig{
			ProjectID:  stringWithDefault(values, "PUBSUB_PROJECT_ID", stringWithDefault(values, "GOOGLE_CLOUD_PROJECT", "")),
			OrderTopic: stringWithDefault(values, "PUBSUB_ORDER_TOPIC", ""),
		},
		Storage: StorageConfig{
			Bucket:           stringWithDefault(values, "STORAGE_BUCKET", ""),
			SignedURLTTL:     durationWithDefault(values, "STORAGE_SIGNED_URL_TTL", 15*time.Minute),
			SignerEmail:      stringWithDefault(values, "STORAGE_SIGNER_EMAIL", ""),
			SignerPrivateKey: stringWithDefault(values, "STORAGE_SIGNER_PRIVATE_KEY", ""),
		},
		Shipping: ShippingConfig{
			DefaultFee:    floatWithDefault(values, "SHIPPING_DEFAULT_FEE", 30000),
			FreeThreshold: floatWithDefault(values, "SHIPPING_FREE_THRESHOLD", 500000),
		},
		Gateways: loadGateways(values),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadGateways(values map[string]string) map[string]GatewayConfig {
	gateways := map[string]GatewayConfig{}
	for _, name := range []string{"momo", "zalopay", "payoo"} {
		prefix := "PAYMENT_" + strings.ToUpper(name) + "_"
		gw := GatewayConfig{
			Endpoint:    stringWithDefault(values, prefix+"ENDPOINT", ""),
			PartnerCode: stringWithDefault(values, prefix+"PARTNER_CODE", ""),
			Secret:      stringWithDefault(values, prefix+"SECRET", ""),
			ReturnURL:   stringWithDefault(values, prefix+"RETURN_URL", ""),
			NotifyURL:   stringWithDefault(values, prefix+"NOTIFY_URL", ""),
			Timeout:     durationWithDefault(values, prefix+"TIMEOUT", 10*time.Second),
		}
		if gw.Endpoint == "" && gw.Secret == "" {
			continue
		}
		gateways[name] = gw
	}
	return gateways
}

func (c *Config) validate() error {
	var missing []string
	if c.Firestore.ProjectID == "" {
		missing = append(missing, "FIRESTORE_PROJECT_ID")
	}
	if c.Firebase.ProjectID == "" {
		missing = append(missing, "FIREBASE_PROJECT_ID")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		missing = append(missing, "PORT")
	}
	for name, gw := range c.Gateways {
		prefix := "PAYMENT_" + strings.ToUpper(name) + "_"
		if gw.Endpoint == "" {
			missing = append(missing, prefix+"ENDPOINT")
		}
		if gw.Secret == "" {
			missing = append(missing, prefix+"SECRET")
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &ValidationError{Missing: missing}
	}
	return nil
}

func resolveSecrets(ctx context.Context, values map[string]string, resolver SecretResolver) error {
	for key, value := range values {
		name := ""
		switch {
		case strings.HasPrefix(value, secretScheme):
			name = strings.TrimPrefix(value, secretScheme)
		case strings.HasPrefix(value, secretManagerScheme):
			name = strings.TrimPrefix(value, secretManagerScheme)
		default:
			continue
		}
		if resolver == nil {
			return &SecretError{Key: key, Err: fmt.Errorf("no secret resolver configured")}
		}
		resolved, err := resolver(ctx, name)
		if err != nil {
			return &SecretError{Key: key, Err: err}
		}
		values[key] = resolved
	}
	return nil
}

func readEnvFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("config: open env file: %w", err)
	}
	defer file.Close()

	values := map[string]string{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		value = strings.Trim(value, `"'`)
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read env file: %w", err)
	}
	return values, nil
}

func stringWithDefault(values map[string]string, key, fallback string) string {
	if v, ok := values[key]; ok {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func intWithDefault(values map[string]string, key string, fallback int) int {
	if v, ok := values[key]; ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return fallback
}

func floatWithDefault(values map[string]string, key string, fallback float64) float64 {
	if v, ok := values[key]; ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func durationWithDefault(values map[string]string, key string, fallback time.Duration) time.Duration {
	if v, ok := values[key]; ok {
		if parsed, err := time.ParseDuration(strings.TrimSpace(v)); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
