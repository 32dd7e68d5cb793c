package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/fibertree/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "fibertree.json"

	// DefaultPort is the default live preview port.
	DefaultPort = 7070

	// DefaultHost is the default live preview host.
	DefaultHost = "localhost"

	// DefaultSlice is the default time slice granted to the render phase.
	DefaultSlice = "8ms"

	// DefaultMinRemaining is the default budget below which a slice yields.
	DefaultMinRemaining = "1ms"

	// DefaultNamespace is the default metrics namespace and tracer name.
	DefaultNamespace = "fibertree"

	// DefaultSnapshotDir is where file snapshots go by default.
	DefaultSnapshotDir = ".fibertree/snapshots"
)

// Config represents the complete fibertree.json configuration.
type Config struct {
	// Scheduler controls how render work is sliced.
	Scheduler SchedulerConfig `json:"scheduler"`

	// Server contains live preview server settings.
	Server ServerConfig `json:"server"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics"`

	// Tracing contains OpenTelemetry settings.
	Tracing TracingConfig `json:"tracing"`

	// Snapshot contains snapshot export settings.
	Snapshot SnapshotConfig `json:"snapshot"`

	// Log contains logging settings.
	Log LogConfig `json:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// SchedulerConfig contains scheduling settings.
type SchedulerConfig struct {
	// Slice is the time granted per slice (e.g., "8ms").
	Slice string `json:"slice,omitempty"`

	// MinRemaining is the remaining time below which the work loop yields.
	MinRemaining string `json:"minRemaining,omitempty"`

	// QueueSize bounds functions waiting to run on the loop.
	QueueSize int `json:"queueSize,omitempty"`
}

// ServerConfig contains live preview server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// Title is the page title.
	Title string `json:"title,omitempty"`

	// Demo is the demo component served by default.
	Demo string `json:"demo,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled registers the metrics observer and serves /metrics.
	Enabled bool `json:"enabled"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled registers the tracing observer.
	Enabled bool `json:"enabled"`

	// TracerName is the name passed to the tracer provider.
	TracerName string `json:"tracerName,omitempty"`
}

// SnapshotConfig contains snapshot export settings.
type SnapshotConfig struct {
	// Enabled exports the tree after every commit.
	Enabled bool `json:"enabled"`

	// Backend is "file" or "s3".
	Backend string `json:"backend,omitempty"`

	// Dir is the directory used by the file backend.
	Dir string `json:"dir,omitempty"`

	// Bucket is the S3 bucket.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is the S3 key prefix.
	Prefix string `json:"prefix,omitempty"`

	// Region is the S3 region.
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint (MinIO, localstack).
	Endpoint string `json:"endpoint,omitempty"`

	// PathStyle uses path-style bucket addressing.
	PathStyle bool `json:"pathStyle,omitempty"`

	// Keep is how many snapshots to retain; 0 keeps all.
	Keep int `json:"keep,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{
		Metrics: MetricsConfig{Enabled: true},
	}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
// It looks for fibertree.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E130").
				WithDetail("No fibertree.json found in " + filepath.Dir(path)).
				WithSuggestion("Run 'fibertree init' to write a default configuration")
		}
		return nil, errors.New("E131").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E131").
			WithDetail("Failed to parse fibertree.json: " + err.Error()).
			WithSuggestion("Check that fibertree.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads fibertree.json from dir or one of its parents, and
// falls back to defaults when there is none.
func LoadOrDefault(dir string) (*Config, error) {
	root, err := FindProjectRoot(dir)
	if err != nil {
		if errors.HasCode(err, "E130") {
			return New(), nil
		}
		return nil, err
	}
	return Load(root)
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E131").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E131").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	// Scheduler
	if c.Scheduler.Slice == "" {
		c.Scheduler.Slice = DefaultSlice
	}
	if c.Scheduler.MinRemaining == "" {
		c.Scheduler.MinRemaining = DefaultMinRemaining
	}
	if c.Scheduler.QueueSize == 0 {
		c.Scheduler.QueueSize = 256
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Title == "" {
		c.Server.Title = "fibertree"
	}
	if c.Server.Demo == "" {
		c.Server.Demo = "counter"
	}

	// Observability
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultNamespace
	}

	// Snapshot
	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = "file"
	}
	if c.Snapshot.Dir == "" {
		c.Snapshot.Dir = DefaultSnapshotDir
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	slice, err := parseDuration("scheduler.slice", c.Scheduler.Slice)
	if err != nil {
		return err
	}
	minRemaining, err := parseDuration("scheduler.minRemaining", c.Scheduler.MinRemaining)
	if err != nil {
		return err
	}
	switch {
	case slice <= 0:
		return outOfRange("scheduler.slice must be positive")
	case minRemaining < 0 || minRemaining >= slice:
		return outOfRange("scheduler.minRemaining must be at least 0 and below scheduler.slice")
	case c.Scheduler.QueueSize < 0:
		return outOfRange("scheduler.queueSize must not be negative")
	case c.Server.Port < 0 || c.Server.Port > 65535:
		return outOfRange("server.port must be between 0 and 65535")
	case c.Snapshot.Keep < 0:
		return outOfRange("snapshot.keep must not be negative")
	}

	switch c.Snapshot.Backend {
	case "file":
	case "s3":
		if c.Snapshot.Enabled && c.Snapshot.Bucket == "" {
			return outOfRange("snapshot.bucket is required for the s3 backend")
		}
	default:
		return outOfRange("snapshot.backend must be \"file\" or \"s3\", got " + strconv.Quote(c.Snapshot.Backend))
	}

	if _, ok := logLevels[strings.ToLower(c.Log.Level)]; !ok {
		return outOfRange("log.level must be debug, info, warn or error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return outOfRange("log.format must be text or json")
	}
	return nil
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.New("E131").
			WithDetail(field + " is not a duration: " + strconv.Quote(value)).
			WithSuggestion("Use Go duration syntax such as \"8ms\"")
	}
	return d, nil
}

func outOfRange(detail string) error {
	return errors.New("E132").WithDetail(detail)
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// SliceDuration returns the scheduler slice. Call Validate first.
func (c *Config) SliceDuration() time.Duration {
	d, _ := time.ParseDuration(c.Scheduler.Slice)
	return d
}

// MinRemainingDuration returns the yield threshold. Call Validate first.
func (c *Config) MinRemainingDuration() time.Duration {
	d, _ := time.ParseDuration(c.Scheduler.MinRemaining)
	return d
}

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// URL returns the live preview URL.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	return logLevels[strings.ToLower(c.Log.Level)]
}

// SnapshotDir returns the absolute snapshot directory for the file backend.
func (c *Config) SnapshotDir() string {
	if filepath.IsAbs(c.Snapshot.Dir) {
		return c.Snapshot.Dir
	}
	return filepath.Join(c.Dir(), c.Snapshot.Dir)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the directory containing
// fibertree.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E130").
				WithDetail("No fibertree.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
