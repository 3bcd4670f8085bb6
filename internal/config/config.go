package config

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vtree/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "vtree.yaml"

	// DefaultInspectAddr is the default inspector listen address.
	DefaultInspectAddr = "127.0.0.1:7070"

	// DefaultHistory is the default number of cycles the inspector keeps.
	DefaultHistory = 200

	// DefaultSnapshotDir is the default directory of the disk snapshot store.
	DefaultSnapshotDir = "testdata/snapshots"
)

var validate = validator.New()

// Config is the complete vtree.yaml configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Inspect   InspectConfig   `yaml:"inspect"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	path string
}

// LogConfig selects the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Format is text or json.
	Format string `yaml:"format" validate:"oneof=text json"`
}

// InspectConfig configures the inspector server.
type InspectConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr" validate:"required,hostname_port"`

	// History is the number of cycles kept for /cycles and new clients.
	History int `yaml:"history" validate:"min=1,max=100000"`

	// Rate limits frames per second sent to each websocket client.
	Rate float64 `yaml:"rate" validate:"gt=0"`

	// Burst is the per-client burst size.
	Burst int `yaml:"burst" validate:"min=1"`

	// AllowedOrigins lists websocket origins beyond same-host requests.
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// SnapshotConfig selects and configures the snapshot store.
type SnapshotConfig struct {
	// Backend is disk or s3.
	Backend string `yaml:"backend" validate:"oneof=disk s3"`

	// Dir is the disk store root.
	Dir string `yaml:"dir" validate:"required_if=Backend disk"`

	// Bucket is the S3 bucket.
	Bucket string `yaml:"bucket" validate:"required_if=Backend s3"`

	// Prefix is prepended to every S3 object key.
	Prefix string `yaml:"prefix"`

	// Region overrides the AWS region.
	Region string `yaml:"region"`

	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint string `yaml:"endpoint" validate:"omitempty,url"`
}

// TelemetryConfig configures metrics.
type TelemetryConfig struct {
	// Metrics enables the Prometheus collectors and /metrics.
	Metrics bool `yaml:"metrics"`

	// Namespace is the metric namespace.
	Namespace string `yaml:"namespace" validate:"omitempty,max=64"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Inspect: InspectConfig{
			Addr:    DefaultInspectAddr,
			History: DefaultHistory,
			Rate:    60,
			Burst:   20,
		},
		Snapshot: SnapshotConfig{
			Backend: "disk",
			Dir:     DefaultSnapshotDir,
		},
		Telemetry: TelemetryConfig{
			Metrics:   true,
			Namespace: "vtree",
		},
	}
}

// Load reads vtree.yaml from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads, defaults and validates the configuration at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E301").Wrap(err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.path = path
	return cfg, nil
}

// Parse decodes a YAML or JSON document over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E301").Wrap(err).
			WithSuggestion("Check that vtree.yaml is valid YAML")
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads dir/vtree.yaml, or returns the defaults if the file
// does not exist.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if err != nil && stderrors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	return cfg, err
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New("E301").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("E301").Wrap(err)
	}
	c.path = path
	return nil
}

// Path returns the file the config was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

// applyDefaults fills fields an explicit empty value would leave invalid.
func (c *Config) applyDefaults() {
	c.Log.Level = strings.ToLower(c.Log.Level)
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = "disk"
	}
	if c.Telemetry.Namespace == "" {
		c.Telemetry.Namespace = "vtree"
	}
	if c.Snapshot.Backend == "disk" && c.Snapshot.Dir == "" {
		c.Snapshot.Dir = DefaultSnapshotDir
	}
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.New("E302").Wrap(err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = describe(fe)
	}
	return errors.New("E302").
		WithDetail(strings.Join(msgs, "; ")).
		Wrap(verrs)
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "required", "required_if", "required_with":
		return field + " is required"
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port, got %q", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
	}
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Exists reports whether dir holds a configuration file.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
