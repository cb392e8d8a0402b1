package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/diepwire/internal/errors"
	"github.com/vango-dev/diepwire/pkg/capture"
	"github.com/vango-dev/diepwire/pkg/packet"
)

// setup points DIEPWIRE_CONFIG at a fresh config whose captures live in a
// temp directory, and returns that directory.
func setup(t *testing.T) string {
	t.Helper()
	errors.DisableColors()
	t.Cleanup(errors.EnableColors)

	dir := t.TempDir()
	path := filepath.Join(dir, "diepwire.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"log": {"level": "error"}, "capture": {"dir": "caps"}}`), 0644))
	t.Setenv("DIEPWIRE_CONFIG", path)
	return filepath.Join(dir, "caps")
}

func execute(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestDecodeHex(t *testing.T) {
	setup(t)
	code, out, _ := execute(t, "", "decode", "--hex", "0a8001")
	require.Equal(t, 0, code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "PLAYER_COUNT", resp["kind"])
}

func TestDecodeStdinText(t *testing.T) {
	setup(t)
	code, out, _ := execute(t, "02 62 6f 62 00\n", "decode", "-d", "serverbound", "--text")
	require.Equal(t, 0, code)
	assert.Contains(t, out, `"name": "bob"`)
}

func TestDecodeFile(t *testing.T) {
	setup(t)
	path := filepath.Join(t.TempDir(), "p.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x05}, 0644))

	code, out, _ := execute(t, "", "decode", "--file", path)
	require.Equal(t, 0, code)
	assert.Contains(t, out, `"kind": "HEARTBEAT"`)
}

func TestDecodeErrorShowsDump(t *testing.T) {
	setup(t)
	code, _, stderr := execute(t, "", "decode", "--hex", "0a80")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "ERROR D001: Truncated input")
	assert.Contains(t, stderr, "hex@0x0001")
	assert.Contains(t, stderr, "0000 │ 0a 80")
}

func TestDecodeNaNField(t *testing.T) {
	setup(t)
	code, out, stderr := execute(t, "", "decode", "--hex", "0300000000000000c07f00")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "D007")
}

func TestDecodeMaxAllocation(t *testing.T) {
	setup(t)
	p, err := packet.CompressPacket(append([]byte{packet.TagUpdate}, bytes.Repeat([]byte{0x01}, 200)...))
	require.NoError(t, err)
	b, err := packet.EncodeClientbound(p)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "small.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"inspect": {"maxAllocation": 100}}`), 0644))

	code, _, stderr := execute(t, "", "decode", "--config", path, "--hex", hex.EncodeToString(b))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "D008")

	code, out, _ := execute(t, "", "decode", "--hex", hex.EncodeToString(b))
	require.Equal(t, 0, code)
	assert.Contains(t, out, `"kind": "UPDATE"`)
}

func TestDecodeJSONErrors(t *testing.T) {
	setup(t)
	code, _, stderr := execute(t, "", "decode", "--hex", "zz", "--json-errors")
	assert.Equal(t, 1, code)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(stderr), &out))
	assert.Equal(t, "D121", out["code"])
}

func TestEncode(t *testing.T) {
	setup(t)
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"encode", "SPAWN", `{"name":"bob"}`}, "02626f6200"},
		{[]string{"encode", "player_count", `{"count":128}`}, "0a8001"},
		{[]string{"encode", "HEARTBEAT"}, "05"},
		{[]string{"encode", "HEARTBEAT", "-d", "serverbound"}, "05"},
		{[]string{"encode", "UPDATE", "--body", "0102ff"}, "000102ff"},
		{[]string{"encode", "RESPAWN", "--body", "aa"}, "08aa"},
	}
	for _, tt := range tests {
		code, out, stderr := execute(t, "", tt.args...)
		require.Equal(t, 0, code, "%v: %s", tt.args, stderr)
		assert.Equal(t, tt.want+"\n", out, "%v", tt.args)
	}
}

func TestEncodeCompressRoundTrip(t *testing.T) {
	setup(t)
	code, hexOut, _ := execute(t, "", "encode", "PLAYER_COUNT", `{"count":42}`, "--compress")
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(hexOut, "02"), hexOut)

	code, out, _ := execute(t, "", "decode", "--hex", strings.TrimSpace(hexOut))
	require.Equal(t, 0, code)

	var resp struct {
		Kind  string `json:"kind"`
		Inner struct {
			Kind string         `json:"kind"`
			Data map[string]any `json:"data"`
		} `json:"inner"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "COMPRESSED", resp.Kind)
	assert.Equal(t, "PLAYER_COUNT", resp.Inner.Kind)
	assert.Equal(t, float64(42), resp.Inner.Data["count"])
}

func TestEncodeErrors(t *testing.T) {
	setup(t)
	tests := []struct {
		args []string
		code string
	}{
		{[]string{"encode", "DANCE"}, "D122"},
		{[]string{"encode", "SPAWN", `{"nmae":"x"}`}, "D122"},
		{[]string{"encode", "PLAYER_COUNT", "-d", "serverbound"}, "D122"},
		{[]string{"encode", "UPGRADE_TANK", `{"tank":"doesnotexist"}`}, "D003"},
		{[]string{"encode", "SPAWN", "-d", "up"}, "D120"},
	}
	for _, tt := range tests {
		code, _, stderr := execute(t, "", append(tt.args, "--json-errors")...)
		assert.Equal(t, 1, code, "%v", tt.args)
		assert.Contains(t, stderr, `"code":"`+tt.code+`"`, "%v", tt.args)
	}
}

func TestTables(t *testing.T) {
	setup(t)
	code, out, _ := execute(t, "", "tables")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "tanks")

	code, out, _ = execute(t, "", "tables", "stats")
	require.Equal(t, 0, code)
	assert.Equal(t, 8, strings.Count(out, "\n"))

	code, _, stderr := execute(t, "", "tables", "hats")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "D123")
}

func TestReplay(t *testing.T) {
	capDir := setup(t)
	store, err := capture.NewDirStore(capDir)
	require.NoError(t, err)

	rec := capture.NewRecorder()
	rec.Add(capture.Record{Direction: packet.Clientbound, Time: time.Unix(0, 0), Data: []byte{0x05}})
	rec.Add(capture.Record{Direction: packet.Serverbound, Time: time.Unix(1, 0), Data: []byte{0x02, 'a', 0x00}})
	id, err := rec.Save(context.Background(), store)
	require.NoError(t, err)

	code, out, _ := execute(t, "", "replay", "--list")
	require.Equal(t, 0, code)
	assert.Equal(t, id+"\n", out)

	code, out, _ = execute(t, "", "replay", id)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "HEARTBEAT(0x05)")
	assert.Contains(t, out, "SPAWN(0x02)")

	code, out, _ = execute(t, "", "replay", id, "--json")
	require.Equal(t, 0, code)
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestReplayFailures(t *testing.T) {
	capDir := setup(t)
	store, err := capture.NewDirStore(capDir)
	require.NoError(t, err)

	rec := capture.NewRecorder()
	rec.Add(capture.Record{Direction: packet.Clientbound, Data: []byte{0x0A}})
	id, err := rec.Save(context.Background(), store)
	require.NoError(t, err)

	code, out, _ := execute(t, "", "replay", id)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "error:")

	code, _, stderr := execute(t, "", "replay", "--fail-fast", id)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "D001")

	code, _, stderr = execute(t, "", "replay", "2Zf8QH6kV4nQdZ1mJ3yq7Xw9pLr")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "D05")
}

func TestVersion(t *testing.T) {
	code, out, _ := execute(t, "", "version", "--short")
	require.Equal(t, 0, code)
	assert.Equal(t, version+"\n", out)
}

func TestBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diepwire.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"capture": {"backend": "ftp"}}`), 0644))
	t.Setenv("DIEPWIRE_CONFIG", path)
	errors.DisableColors()
	defer errors.EnableColors()

	code, _, stderr := execute(t, "", "tables")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "D102")
}
