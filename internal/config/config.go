package config

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vango-dev/diepwire/internal/errors"
	"github.com/vango-dev/diepwire/pkg/capture"
	"github.com/vango-dev/diepwire/pkg/names"
	"github.com/vango-dev/diepwire/pkg/protocol"
)

const (
	// JSONFileName and TOMLFileName are searched for, in that order.
	JSONFileName = "diepwire.json"
	TOMLFileName = "diepwire.toml"

	// EnvConfig names a config file explicitly.
	EnvConfig = "DIEPWIRE_CONFIG"

	DefaultAddr        = "localhost:8080"
	DefaultMaxBody     = 1 << 20
	DefaultReadTimeout = "10s"
	DefaultCaptureDir  = "captures"
	DefaultNamespace   = "diepwire"
	DefaultOrigin      = "https://diep.io"
)

// Capture backends.
const (
	BackendDir = "dir"
	BackendS3  = "s3"
)

// Config is the complete diepwire configuration.
type Config struct {
	Log LogConfig `json:"log" toml:"log"`

	// Tables maps a table kind (colors, tanks, stats) to a JSON file that
	// replaces the bundled table.
	Tables map[string]string `json:"tables,omitempty" toml:"tables,omitempty"`

	Inspect InspectConfig `json:"inspect" toml:"inspect"`
	Tap     TapConfig     `json:"tap" toml:"tap"`
	Capture CaptureConfig `json:"capture" toml:"capture"`
	Metrics MetricsConfig `json:"metrics" toml:"metrics"`

	configPath string
}

// LogConfig selects the slog handler.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty" toml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" toml:"format,omitempty"`
}

// InspectConfig configures the HTTP decode service.
type InspectConfig struct {
	Addr string `json:"addr,omitempty" toml:"addr,omitempty"`

	// MaxBody caps request bodies in bytes.
	MaxBody int64 `json:"maxBody,omitempty" toml:"maxBody,omitempty"`

	// ReadTimeout is a Go duration string (e.g., "10s").
	ReadTimeout string `json:"readTimeout,omitempty" toml:"readTimeout,omitempty"`

	// MaxAllocation caps the declared size of compressed packets in bytes.
	// Zero selects protocol.DefaultMaxAllocation.
	MaxAllocation int `json:"maxAllocation,omitempty" toml:"maxAllocation,omitempty"`
}

// TapConfig configures the websocket tap.
type TapConfig struct {
	URL    string `json:"url,omitempty" toml:"url,omitempty"`
	Origin string `json:"origin,omitempty" toml:"origin,omitempty"`

	// Record saves every frame to the capture store when the tap stops.
	Record bool `json:"record,omitempty" toml:"record,omitempty"`
}

// CaptureConfig selects where captures are stored.
type CaptureConfig struct {
	Backend  string `json:"backend,omitempty" toml:"backend,omitempty"`
	Dir      string `json:"dir,omitempty" toml:"dir,omitempty"`
	Bucket   string `json:"bucket,omitempty" toml:"bucket,omitempty"`
	Prefix   string `json:"prefix,omitempty" toml:"prefix,omitempty"`
	Region   string `json:"region,omitempty" toml:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty" toml:"endpoint,omitempty"`
}

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	Namespace string `json:"namespace,omitempty" toml:"namespace,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Inspect: InspectConfig{
			Addr:        DefaultAddr,
			MaxBody:     DefaultMaxBody,
			ReadTimeout: DefaultReadTimeout,
		},
		Tap: TapConfig{
			Origin: DefaultOrigin,
		},
		Capture: CaptureConfig{
			Backend: BackendDir,
			Dir:     DefaultCaptureDir,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
	}
}

// Load reads diepwire.json or diepwire.toml from dir.
func Load(dir string) (*Config, error) {
	path, ok := find(dir)
	if !ok {
		return nil, errors.New("D100").
			WithDetail("No " + JSONFileName + " or " + TOMLFileName + " found in " + dir)
	}
	return LoadFile(path)
}

// LoadFile reads the file at path. Files ending in .toml are parsed as
// TOML, everything else as JSON. Unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("D100").WithDetail("No config file at " + path)
		}
		return nil, errors.New("D101").Wrap(err)
	}

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = cfg.decodeTOML(data)
	} else {
		err = cfg.decodeJSON(data)
	}
	if err != nil {
		return nil, errors.New("D101").
			WithDetail("Failed to parse " + path + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(c)
}

func (c *Config) decodeTOML(data []byte) error {
	meta, err := toml.Decode(string(data), c)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.Newf(errors.CategoryConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// Resolve loads the file named by DIEPWIRE_CONFIG, or the nearest config
// file above the working directory, or falls back to Default.
func Resolve() (*Config, error) {
	if path := os.Getenv(EnvConfig); path != "" {
		return LoadFile(path)
	}

	wd, err := os.Getwd()
	if err != nil {
		return Default(), nil
	}
	dir, err := FindProjectRoot(wd)
	if err != nil {
		return Default(), nil
	}
	return Load(dir)
}

// SaveTo writes the configuration to path in the format its extension
// selects.
func (c *Config) SaveTo(path string) error {
	var buf bytes.Buffer
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return errors.New("D101").Wrap(err)
		}
	} else {
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return errors.New("D101").Wrap(err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.New("D101").Wrap(err)
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
	d := Default()
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Inspect.Addr == "" {
		c.Inspect.Addr = d.Inspect.Addr
	}
	if c.Inspect.MaxBody == 0 {
		c.Inspect.MaxBody = d.Inspect.MaxBody
	}
	if c.Inspect.ReadTimeout == "" {
		c.Inspect.ReadTimeout = d.Inspect.ReadTimeout
	}
	if c.Tap.Origin == "" {
		c.Tap.Origin = d.Tap.Origin
	}
	if c.Capture.Backend == "" {
		c.Capture.Backend = d.Capture.Backend
	}
	if c.Capture.Dir == "" {
		c.Capture.Dir = d.Capture.Dir
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := parseLevel(c.Log.Level); err != nil {
		return errors.New("D102").WithDetail(err.Error())
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("D102").WithDetail("log.format must be text or json, got " + c.Log.Format)
	}
	if c.Inspect.MaxBody <= 0 {
		return errors.New("D102").WithDetail("inspect.maxBody must be positive")
	}
	if c.Inspect.MaxAllocation < 0 || c.Inspect.MaxAllocation > protocol.HardMaxAllocation {
		return errors.New("D102").WithDetail("inspect.maxAllocation must be between 0 and " + strconv.Itoa(protocol.HardMaxAllocation))
	}
	if d, err := time.ParseDuration(c.Inspect.ReadTimeout); err != nil || d <= 0 {
		return errors.New("D102").WithDetail("inspect.readTimeout must be a positive duration, got " + c.Inspect.ReadTimeout)
	}
	switch c.Capture.Backend {
	case BackendDir:
		if c.Capture.Dir == "" {
			return errors.New("D102").WithDetail("capture.dir is required for the dir backend")
		}
	case BackendS3:
		if c.Capture.Bucket == "" {
			return errors.New("D102").WithDetail("capture.bucket is required for the s3 backend")
		}
	default:
		return errors.New("D102").WithDetail("capture.backend must be dir or s3, got " + c.Capture.Backend)
	}
	for kind := range c.Tables {
		switch kind {
		case names.Colors, names.Tanks, names.Stats:
		default:
			return errors.New("D102").WithDetail("unknown table " + kind + " in tables")
		}
	}
	return nil
}

// ReadTimeout returns Inspect.ReadTimeout parsed.
func (c *Config) ReadTimeout() time.Duration {
	d, err := time.ParseDuration(c.Inspect.ReadTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// MaxAllocation returns Inspect.MaxAllocation with the default applied.
func (c *Config) MaxAllocation() int {
	return protocol.ClampAllocation(c.Inspect.MaxAllocation)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}

// Logger builds the slog logger the config describes.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NameTables returns the bundled tables with any configured overrides.
// Relative paths resolve against the config file's directory.
func (c *Config) NameTables() (*names.Tables, error) {
	if len(c.Tables) == 0 {
		return names.Default(), nil
	}
	paths := make(map[string]string, len(c.Tables))
	for kind, path := range c.Tables {
		paths[kind] = c.resolve(path)
	}
	return names.Default().WithOverrides(paths)
}

// Store opens the configured capture store.
func (c *Config) Store() (capture.Store, error) {
	switch c.Capture.Backend {
	case BackendS3:
		client := capture.NewS3Client(c.Capture.Region, c.Capture.Endpoint)
		return capture.NewS3Store(client, c.Capture.Bucket, c.Capture.Prefix), nil
	default:
		return capture.NewDirStore(c.resolve(c.Capture.Dir))
	}
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.Dir() == "" {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

func find(dir string) (string, bool) {
	for _, name := range []string{JSONFileName, TOMLFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, ok := find(dir)
	return ok
}

// FindProjectRoot walks up directories to find one holding a config file.
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
			return "", errors.New("D100").
				WithDetail("No config file found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
