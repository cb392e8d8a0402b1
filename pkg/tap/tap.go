// Package tap connects to a game server websocket and decodes the packets
// it sends.
package tap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/diepwire/pkg/capture"
	"github.com/vango-dev/diepwire/pkg/metrics"
	"github.com/vango-dev/diepwire/pkg/names"
	"github.com/vango-dev/diepwire/pkg/packet"
)

// Handler receives every frame with its decoded packet or decode error.
type Handler func(dir packet.Direction, p *packet.Packet, err error)

// Config configures a Tap.
type Config struct {
	URL    string
	Origin string

	// Tables and Decompressor are passed to the readers. Tables defaults
	// to names.Default and Decompressor to packet.LZ4Block.
	Tables *names.Tables

	// Recorder, if set, receives a copy of every frame.
	Recorder *capture.Recorder

	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Handler Handler

	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

// Stats are running frame counters.
type Stats struct {
	Received uint64
	Sent     uint64
	Errors   uint64
	Bytes    uint64
}

// Tap is a live websocket connection.
type Tap struct {
	cfg  Config
	conn *websocket.Conn

	writeMu sync.Mutex
	closed  atomic.Bool

	received atomic.Uint64
	sent     atomic.Uint64
	errors   atomic.Uint64
	bytes    atomic.Uint64
}

// Dial opens the websocket described by cfg.
func Dial(ctx context.Context, cfg Config) (*Tap, error) {
	if cfg.Tables == nil {
		cfg.Tables = names.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cfg.Logger = cfg.Logger.With("component", "tap", "url", cfg.URL)
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	header := http.Header{}
	if cfg.Origin != "" {
		header.Set("Origin", cfg.Origin)
	}
	conn, _, err := dialer.DialContext(ctx, cfg.URL, header)
	if err != nil {
		return nil, fmt.Errorf("tap: dial: %w", err)
	}

	cfg.Metrics.TapOpened()
	cfg.Logger.Info("connected")
	return &Tap{cfg: cfg, conn: conn}, nil
}

// Run reads frames until ctx is cancelled or the server closes the
// connection. A normal close or cancellation returns nil.
func (t *Tap) Run(ctx context.Context) error {
	defer t.close()

	stop := context.AfterFunc(ctx, func() {
		t.writeMu.Lock()
		t.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		t.writeMu.Unlock()
		t.conn.Close()
	})
	defer stop()

	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("tap: read: %w", err)
		}
		if msgType != websocket.BinaryMessage {
			t.cfg.Logger.Debug("skipping non-binary frame", "type", msgType, "size", len(data))
			continue
		}
		t.received.Add(1)
		t.bytes.Add(uint64(len(data)))
		t.observe(packet.Clientbound, data)
	}
}

// Send encodes p as a serverbound packet and writes it.
func (t *Tap) Send(p *packet.Packet) error {
	if t.closed.Load() {
		return ErrClosed
	}
	w := packet.NewServerboundWriter(t.cfg.Tables)
	if err := w.Write(p); err != nil {
		return err
	}
	data := w.Bytes()

	t.writeMu.Lock()
	err := t.conn.WriteMessage(websocket.BinaryMessage, data)
	t.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("tap: write: %w", err)
	}

	t.sent.Add(1)
	t.bytes.Add(uint64(len(data)))
	if t.cfg.Recorder != nil {
		t.cfg.Recorder.Add(capture.Record{Direction: packet.Serverbound, Data: data})
	}
	return nil
}

func (t *Tap) observe(dir packet.Direction, data []byte) {
	if t.cfg.Recorder != nil {
		t.cfg.Recorder.Add(capture.Record{Direction: dir, Data: data})
	}

	start := time.Now()
	p, err := packet.DecodeClientbound(data,
		packet.WithTables(t.cfg.Tables),
		packet.WithDecompressor(packet.LZ4Block{}),
	)
	t.cfg.Metrics.ObserveDecode(dir, p, len(data), time.Since(start), err)

	if err != nil {
		t.errors.Add(1)
		t.cfg.Logger.Warn("decode failed", "size", len(data), "error", err)
	} else {
		t.cfg.Logger.Debug("packet", "kind", p.Kind, "tag", p.Header, "size", len(data))
	}
	if t.cfg.Handler != nil {
		t.cfg.Handler(dir, p, err)
	}
}

// Stats returns the current counters.
func (t *Tap) Stats() Stats {
	return Stats{
		Received: t.received.Load(),
		Sent:     t.sent.Load(),
		Errors:   t.errors.Load(),
		Bytes:    t.bytes.Load(),
	}
}

func (t *Tap) close() {
	t.closed.Store(true)
	t.conn.Close()
	t.cfg.Metrics.TapClosed()
	s := t.Stats()
	t.cfg.Logger.Info("disconnected",
		"received", s.Received,
		"sent", s.Sent,
		"errors", s.Errors,
		"bytes", s.Bytes)
}

// ErrClosed is returned by Send after the connection is closed.
var ErrClosed = errors.New("tap: connection closed")
