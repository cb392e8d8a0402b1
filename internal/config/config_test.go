package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/diepwire/internal/errors"
	"github.com/vango-dev/diepwire/pkg/capture"
	"github.com/vango-dev/diepwire/pkg/names"
	"github.com/vango-dev/diepwire/pkg/protocol"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func code(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	de, ok := err.(*errors.DiepError)
	require.True(t, ok, "error %v is not a DiepError", err)
	return de.Code
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultAddr, cfg.Inspect.Addr)
	assert.EqualValues(t, DefaultMaxBody, cfg.Inspect.MaxBody)
	assert.Equal(t, BackendDir, cfg.Capture.Backend)
	assert.Equal(t, DefaultNamespace, cfg.Metrics.Namespace)
	assert.Equal(t, 10*time.Second, cfg.ReadTimeout())
	assert.NoError(t, cfg.Validate())
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir)
	assert.Equal(t, "D100", code(t, err))

	writeFile(t, dir, JSONFileName, `{
  "log": {"level": "debug", "format": "json"},
  "inspect": {"addr": ":9090"},
  "capture": {"backend": "s3", "bucket": "caps", "prefix": "diep"}
}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":9090", cfg.Inspect.Addr)
	assert.EqualValues(t, DefaultMaxBody, cfg.Inspect.MaxBody)
	assert.Equal(t, "caps", cfg.Capture.Bucket)
	assert.Equal(t, DefaultOrigin, cfg.Tap.Origin)
	assert.Equal(t, filepath.Join(dir, JSONFileName), cfg.Path())
	assert.Equal(t, dir, cfg.Dir())
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, TOMLFileName, `
[log]
level = "warn"

[tap]
url = "ws://localhost:1234/"
record = true

[capture]
backend = "dir"
dir = "./out"
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "ws://localhost:1234/", cfg.Tap.URL)
	assert.True(t, cfg.Tap.Record)
	assert.Equal(t, "./out", cfg.Capture.Dir)
}

func TestLoadPrefersJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, JSONFileName, `{"inspect": {"addr": ":1"}}`)
	writeFile(t, dir, TOMLFileName, "[inspect]\naddr = \":2\"\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ":1", cfg.Inspect.Addr)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()

	path := writeFile(t, dir, "a.json", `{"inspect": {"adress": ":1"}}`)
	_, err := LoadFile(path)
	assert.Equal(t, "D101", code(t, err))

	path = writeFile(t, dir, "b.toml", "[inspect]\nadress = \":1\"\n")
	_, err = LoadFile(path)
	assert.Equal(t, "D101", code(t, err))
}

func TestLoadMalformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.json", `{"log":`)
	_, err := LoadFile(path)
	assert.Equal(t, "D101", code(t, err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"zero body", func(c *Config) { c.Inspect.MaxBody = 0 }},
		{"negative allocation", func(c *Config) { c.Inspect.MaxAllocation = -1 }},
		{"allocation over cap", func(c *Config) { c.Inspect.MaxAllocation = protocol.HardMaxAllocation + 1 }},
		{"bad timeout", func(c *Config) { c.Inspect.ReadTimeout = "soon" }},
		{"negative timeout", func(c *Config) { c.Inspect.ReadTimeout = "-1s" }},
		{"bad backend", func(c *Config) { c.Capture.Backend = "ftp" }},
		{"s3 without bucket", func(c *Config) { c.Capture.Backend = BackendS3 }},
		{"unknown table", func(c *Config) { c.Tables = map[string]string{"hats": "x.json"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Equal(t, "D102", code(t, cfg.Validate()))
		})
	}
}

func TestMaxAllocation(t *testing.T) {
	cfg := Default()
	assert.Equal(t, protocol.DefaultMaxAllocation, cfg.MaxAllocation())

	path := writeFile(t, t.TempDir(), "diepwire.toml", "[inspect]\nmaxAllocation = 8388608\n")
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8<<20, cfg.MaxAllocation())
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.toml", "[metrics]\nnamespace = \"test\"\n")

	t.Setenv(EnvConfig, path)
	cfg, err := Resolve()
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Metrics.Namespace)

	t.Setenv(EnvConfig, filepath.Join(dir, "missing.json"))
	_, err = Resolve()
	assert.Equal(t, "D100", code(t, err))
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, TOMLFileName, "")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	got, err := FindProjectRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"out.json", "out.toml"} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Tap.URL = "ws://example.invalid/"
			cfg.Tables = map[string]string{names.Tanks: "tanks.json"}

			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, cfg.SaveTo(path))
			assert.Equal(t, path, cfg.Path())

			loaded, err := LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg.Tap, loaded.Tap)
			assert.Equal(t, cfg.Inspect, loaded.Inspect)
			assert.Equal(t, cfg.Tables, loaded.Tables)
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestNameTables(t *testing.T) {
	cfg := Default()
	tables, err := cfg.NameTables()
	require.NoError(t, err)
	assert.Same(t, names.Default(), tables)

	dir := t.TempDir()
	writeFile(t, dir, "stats.json", `["a", "b"]`)
	path := writeFile(t, dir, JSONFileName, `{"tables": {"stats": "stats.json"}}`)

	cfg, err = LoadFile(path)
	require.NoError(t, err)
	tables, err = cfg.NameTables()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tables.Stats.Names())
	assert.Same(t, names.Default().Tanks, tables.Tanks)
}

func TestStore(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, JSONFileName, `{"capture": {"dir": "caps"}}`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	store, err := cfg.Store()
	require.NoError(t, err)
	ds, ok := store.(*capture.DirStore)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "caps"), ds.Dir())

	cfg.Capture = CaptureConfig{Backend: BackendS3, Bucket: "b", Region: "us-east-1"}
	store, err = cfg.Store()
	require.NoError(t, err)
	assert.IsType(t, &capture.S3Store{}, store)
}
