package inspect

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	diepErrors "github.com/vango-dev/diepwire/internal/errors"
	"github.com/vango-dev/diepwire/pkg/names"
	"github.com/vango-dev/diepwire/pkg/packet"
)

// DecodeResponse is the body of a successful decode.
type DecodeResponse struct {
	Direction packet.Direction `json:"direction"`
	Tag       string           `json:"tag"`
	Kind      packet.Kind      `json:"kind"`
	Data      packet.Payload   `json:"data"`
	Raw       string           `json:"raw,omitempty"`

	// Inner is the decoded content of a compressed packet.
	Inner *DecodeResponse `json:"inner,omitempty"`
}

// Describe builds the JSON view of a decoded packet.
func Describe(dir packet.Direction, p *packet.Packet) *DecodeResponse {
	return &DecodeResponse{
		Direction: dir,
		Tag:       fmt.Sprintf("0x%02X", p.Header),
		Kind:      p.Kind,
		Data:      p.Data,
		Raw:       hex.EncodeToString(p.Raw),
	}
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	dir, err := packet.ParseDirection(chi.URLParam(r, "direction"))
	if err != nil {
		writeError(w, http.StatusBadRequest, diepErrors.New("D120").Wrap(err))
		return
	}

	body, err := readBody(w, r, s.maxBody)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, diepErrors.New("D008").Wrap(err))
			return
		}
		writeError(w, http.StatusBadRequest, diepErrors.New("D121").Wrap(err))
		return
	}

	ctx, span := s.tracer.Start(r.Context(), "diepwire.decode",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("diepwire.direction", dir.String()),
			attribute.Int("diepwire.size", len(body)),
		),
	)
	defer span.End()

	p, err := s.decode(dir, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.DebugContext(ctx, "decode failed", "direction", dir, "size", len(body), "error", err)
		writeError(w, http.StatusUnprocessableEntity, diepErrors.Classify(err))
		return
	}
	span.SetAttributes(
		attribute.String("diepwire.tag", fmt.Sprintf("0x%02X", p.Header)),
		attribute.String("diepwire.kind", string(p.Kind)),
	)

	resp := Describe(dir, p)
	if c, ok := p.Data.(*packet.Compressed); ok && c.Payload != nil {
		inner, err := s.decodePacket(packet.Clientbound, c.Payload)
		if err != nil {
			s.logger.DebugContext(ctx, "inner decode failed", "error", err)
		} else {
			resp.Inner = Describe(packet.Clientbound, inner)
		}
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.DebugContext(ctx, "packet not representable as JSON", "kind", p.Kind, "error", err)
		writeError(w, http.StatusUnprocessableEntity, diepErrors.New("D007").
			WithDetail("The packet decoded but holds a value JSON cannot carry, such as a NaN or infinite float.").
			Wrap(err))
		return
	}
	span.SetStatus(codes.Ok, "")
}

// decode decodes one request body and records it in the metrics.
func (s *Server) decode(dir packet.Direction, body []byte) (*packet.Packet, error) {
	start := time.Now()
	p, err := s.decodePacket(dir, body)
	s.metrics.ObserveDecode(dir, p, len(body), time.Since(start), err)
	return p, err
}

func (s *Server) decodePacket(dir packet.Direction, body []byte) (*packet.Packet, error) {
	if dir == packet.Serverbound {
		return packet.DecodeServerbound(body, packet.WithTables(s.tables))
	}
	return packet.DecodeClientbound(body,
		packet.WithTables(s.tables),
		packet.WithDecompressor(s.decompressor),
		packet.WithMaxAllocation(s.maxAlloc),
	)
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]int)
	for _, kind := range []string{names.Colors, names.Tanks, names.Stats} {
		t, err := s.tables.Lookup(kind)
		if err != nil {
			writeError(w, http.StatusInternalServerError, diepErrors.Classify(err))
			return
		}
		out[kind] = t.Len()
	}
	s.respond(w, out)
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	t, err := s.tables.Lookup(chi.URLParam(r, "table"))
	if err != nil {
		writeError(w, http.StatusNotFound, diepErrors.Classify(err))
		return
	}
	s.respond(w, t)
}

// readBody returns the request body, hex-decoded when the content type is
// text/plain. Whitespace and an optional 0x prefix are ignored.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return nil, err
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "text/plain" {
		return body, nil
	}
	return ParseHex(string(body))
}

// ParseHex decodes hex text, ignoring whitespace and an optional 0x prefix.
func ParseHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}

// respond writes v with status 200, or a 500 when v cannot be encoded.
func (s *Server) respond(w http.ResponseWriter, v any) {
	if err := writeJSON(w, http.StatusOK, v); err != nil {
		s.logger.Error("encode response", "error", err)
		writeError(w, http.StatusInternalServerError, diepErrors.Classify(err))
	}
}

// writeJSON encodes v before touching w, so a value that cannot be encoded
// leaves the response unwritten.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(b, '\n'))
	return nil
}

func writeError(w http.ResponseWriter, status int, err *diepErrors.DiepError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, err.FormatJSON())
	io.WriteString(w, "\n")
}
