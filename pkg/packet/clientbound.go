package packet

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/vango-dev/diepwire/pkg/names"
	"github.com/vango-dev/diepwire/pkg/protocol"
)

// Update is the main game state packet. Its body is not decoded here and is
// left in Packet.Raw.
type Update struct{}

// Outdated tells the client its build is stale.
type Outdated struct {
	Build string `json:"build"`
}

// Compressed carries another clientbound packet as an LZ4 block.
// Payload is set only when the reader was given a decompressor; it is the
// expanded packet and is not decoded further.
type Compressed struct {
	DecompressedLength uint32 `json:"decompressedLength"`
	Block              []byte `json:"block"`
	Payload            []byte `json:"payload,omitempty"`
}

// Expand decompresses Block with d. The size limit is d's own; LZ4Block
// rejects declared lengths above its MaxSize.
func (c *Compressed) Expand(d protocol.Decompressor) ([]byte, error) {
	out, err := d.Decompress(c.Block, int(c.DecompressedLength))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompress, err)
	}
	return out, nil
}

// Notification is an on-screen message.
type Notification struct {
	Message    string         `json:"message"`
	Color      protocol.Color `json:"color"`
	Duration   float32        `json:"duration"`
	Identifier string         `json:"identifier"`
}

// ServerInfo describes the arena the client joined.
type ServerInfo struct {
	Gamemode   string `json:"gamemode"`
	ServerUUID string `json:"serverUUID"`
	HostRegion string `json:"hostRegion"`
}

// PartyInfo carries the party link code. Each byte is written as two
// uppercase hex digits, low nibble first.
type PartyInfo struct {
	PartyID string `json:"partyId"`
}

// Accept confirms the init packet.
type Accept struct{}

// Achievement lists achievement hashes.
type Achievement struct {
	Hashes []string `json:"hashes"`
}

// InvalidParty rejects the requested party.
type InvalidParty struct{}

// PlayerCount is the total number of players online.
type PlayerCount struct {
	Count uint32 `json:"count"`
}

// PowChallenge asks the client for a proof of work.
type PowChallenge struct {
	Difficulty uint32 `json:"difficulty"`
	Prefix     string `json:"prefix"`
}

// EvalChallenge asks the client to evaluate code and reply with the result.
type EvalChallenge struct {
	ID   uint32 `json:"id"`
	Code string `json:"code"`
}

func (*Update) payload()        {}
func (*Outdated) payload()      {}
func (*Compressed) payload()    {}
func (*Notification) payload()  {}
func (*ServerInfo) payload()    {}
func (*PartyInfo) payload()     {}
func (*Accept) payload()        {}
func (*Achievement) payload()   {}
func (*InvalidParty) payload()  {}
func (*PlayerCount) payload()   {}
func (*PowChallenge) payload()  {}
func (*EvalChallenge) payload() {}

// ClientboundReader decodes packets sent by the server.
type ClientboundReader struct {
	*protocol.DataReader
	decompressor protocol.Decompressor
}

// NewClientboundReader creates a reader over one packet.
func NewClientboundReader(buf []byte, opts ...ReaderOption) *ClientboundReader {
	o := applyReaderOptions(opts)
	r := &ClientboundReader{
		DataReader:   protocol.NewDataReader(buf, o.tables),
		decompressor: o.decompressor,
	}
	r.SetMaxAllocation(o.maxAlloc)
	return r
}

// DecodeClientbound decodes a single clientbound packet.
func DecodeClientbound(buf []byte, opts ...ReaderOption) (*Packet, error) {
	return NewClientboundReader(buf, opts...).Read()
}

var clientboundDecoders = map[byte]decodeEntry[*ClientboundReader]{
	TagUpdate:        {KindUpdate, (*ClientboundReader).readUpdate},
	TagOutdated:      {KindOutdated, (*ClientboundReader).readOutdated},
	TagCompressed:    {KindCompressed, (*ClientboundReader).readCompressed},
	TagNotification:  {KindNotification, (*ClientboundReader).readNotification},
	TagServerInfo:    {KindServerInfo, (*ClientboundReader).readServerInfo},
	TagHeartbeat:     {KindHeartbeat, (*ClientboundReader).readHeartbeat},
	TagPartyInfo:     {KindPartyInfo, (*ClientboundReader).readPartyInfo},
	TagAccept:        {KindAccept, (*ClientboundReader).readAccept},
	TagAchievement:   {KindAchievement, (*ClientboundReader).readAchievement},
	TagInvalidParty:  {KindInvalidParty, (*ClientboundReader).readInvalidParty},
	TagPlayerCount:   {KindPlayerCount, (*ClientboundReader).readPlayerCount},
	TagPowChallenge:  {KindPowChallenge, (*ClientboundReader).readPowChallenge},
	TagEvalChallenge: {KindEvalChallenge, (*ClientboundReader).readEvalChallenge},
}

// Read decodes the packet at the current position. Unknown tags are not an
// error; they produce a packet of kind UNKNOWN.
func (r *ClientboundReader) Read() (*Packet, error) {
	return readPacket(r, r.DataReader, Clientbound, clientboundDecoders)
}

func (r *ClientboundReader) readUpdate() (Payload, error) {
	return &Update{}, nil
}

func (r *ClientboundReader) readOutdated() (Payload, error) {
	build, err := r.ReadStringNT()
	if err != nil {
		return nil, err
	}
	return &Outdated{Build: build}, nil
}

func (r *ClientboundReader) readCompressed() (Payload, error) {
	size, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	c := &Compressed{DecompressedLength: size}
	if r.decompressor == nil {
		c.Block = r.Flush()
		return c, nil
	}
	c.Block = bytes.Clone(r.Buffer()[r.Position():])
	c.Payload, err = r.Decompress(r.decompressor, int(size))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompress, err)
	}
	return c, nil
}

func (r *ClientboundReader) readNotification() (Payload, error) {
	var n Notification
	var err error
	if n.Message, err = r.ReadStringNT(); err != nil {
		return nil, err
	}
	if n.Color, err = r.BGRColor(); err != nil {
		return nil, err
	}
	// the color is sent as a u32; its high byte is unused
	if err = r.Skip(1); err != nil {
		return nil, err
	}
	if n.Duration, err = r.ReadF32(); err != nil {
		return nil, err
	}
	if n.Identifier, err = r.ReadStringNT(); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *ClientboundReader) readServerInfo() (Payload, error) {
	var s ServerInfo
	var err error
	if s.Gamemode, err = r.ReadStringNT(); err != nil {
		return nil, err
	}
	if s.ServerUUID, err = r.ReadStringNT(); err != nil {
		return nil, err
	}
	if s.HostRegion, err = r.ReadStringNT(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ClientboundReader) readHeartbeat() (Payload, error) {
	return &Heartbeat{}, nil
}

func (r *ClientboundReader) readPartyInfo() (Payload, error) {
	const digits = "0123456789ABCDEF"
	var sb strings.Builder
	sb.Grow(2 * r.Remaining())
	for !r.EOF() {
		b, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		sb.WriteByte(digits[b&0x0F])
		sb.WriteByte(digits[b>>4])
	}
	return &PartyInfo{PartyID: sb.String()}, nil
}

func (r *ClientboundReader) readAccept() (Payload, error) {
	return &Accept{}, nil
}

func (r *ClientboundReader) readAchievement() (Payload, error) {
	count, err := r.ReadVarUint()
	if err != nil {
		return nil, err
	}
	hashes, err := protocol.ReadArray(r.Decoder, int(count), r.ReadStringNT)
	if err != nil {
		return nil, err
	}
	return &Achievement{Hashes: hashes}, nil
}

func (r *ClientboundReader) readInvalidParty() (Payload, error) {
	return &InvalidParty{}, nil
}

func (r *ClientboundReader) readPlayerCount() (Payload, error) {
	count, err := r.ReadVarUint()
	if err != nil {
		return nil, err
	}
	return &PlayerCount{Count: count}, nil
}

func (r *ClientboundReader) readPowChallenge() (Payload, error) {
	difficulty, err := r.ReadVarUint()
	if err != nil {
		return nil, err
	}
	prefix, err := r.ReadStringNT()
	if err != nil {
		return nil, err
	}
	return &PowChallenge{Difficulty: difficulty, Prefix: prefix}, nil
}

func (r *ClientboundReader) readEvalChallenge() (Payload, error) {
	id, err := r.ReadVarUint()
	if err != nil {
		return nil, err
	}
	code, err := r.ReadStringNT()
	if err != nil {
		return nil, err
	}
	return &EvalChallenge{ID: id, Code: code}, nil
}

// ClientboundWriter encodes server packets, for mock servers and tests.
type ClientboundWriter struct {
	*protocol.DataWriter
}

// NewClientboundWriter creates a writer. A nil tables uses names.Default().
func NewClientboundWriter(tables *names.Tables) *ClientboundWriter {
	return &ClientboundWriter{DataWriter: protocol.NewDataWriter(tables)}
}

// EncodeClientbound encodes p into a new buffer.
func EncodeClientbound(p *Packet) ([]byte, error) {
	w := NewClientboundWriter(nil)
	if err := w.Write(p); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

var clientboundEncoders = map[byte]func(*ClientboundWriter, *Packet) error{
	TagUpdate:        (*ClientboundWriter).writeUpdate,
	TagOutdated:      (*ClientboundWriter).writeOutdated,
	TagCompressed:    (*ClientboundWriter).writeCompressed,
	TagNotification:  (*ClientboundWriter).writeNotification,
	TagServerInfo:    (*ClientboundWriter).writeServerInfo,
	TagHeartbeat:     (*ClientboundWriter).writeEmpty,
	TagPartyInfo:     (*ClientboundWriter).writePartyInfo,
	TagAccept:        (*ClientboundWriter).writeEmpty,
	TagAchievement:   (*ClientboundWriter).writeAchievement,
	TagInvalidParty:  (*ClientboundWriter).writeEmpty,
	TagPlayerCount:   (*ClientboundWriter).writePlayerCount,
	TagPowChallenge:  (*ClientboundWriter).writePowChallenge,
	TagEvalChallenge: (*ClientboundWriter).writeEvalChallenge,
}

// Write appends p: the tag as a varuint, then the variant's fields. On error
// nothing is appended.
func (w *ClientboundWriter) Write(p *Packet) error {
	return writePacket(w, w.DataWriter, Clientbound, clientboundEncoders, p)
}

func (w *ClientboundWriter) writeEmpty(*Packet) error {
	return nil
}

// writeUpdate copies the opaque body kept in Raw.
func (w *ClientboundWriter) writeUpdate(p *Packet) error {
	w.WriteBytes(p.Raw)
	return nil
}

func (w *ClientboundWriter) writeOutdated(p *Packet) error {
	w.WriteStringNT(p.Data.(*Outdated).Build)
	return nil
}

func (w *ClientboundWriter) writeCompressed(p *Packet) error {
	c := p.Data.(*Compressed)
	w.WriteU32(c.DecompressedLength)
	w.WriteBytes(c.Block)
	return nil
}

func (w *ClientboundWriter) writeNotification(p *Packet) error {
	n := p.Data.(*Notification)
	w.WriteStringNT(n.Message)
	w.WriteBGRColor(n.Color)
	w.WriteU8(0)
	w.WriteF32(n.Duration)
	w.WriteStringNT(n.Identifier)
	return nil
}

func (w *ClientboundWriter) writeServerInfo(p *Packet) error {
	s := p.Data.(*ServerInfo)
	w.WriteStringNT(s.Gamemode)
	w.WriteStringNT(s.ServerUUID)
	w.WriteStringNT(s.HostRegion)
	return nil
}

func (w *ClientboundWriter) writePartyInfo(p *Packet) error {
	id := p.Data.(*PartyInfo).PartyID
	if len(id)%2 != 0 {
		return fmt.Errorf("%w: odd length %q", ErrInvalidPartyID, id)
	}
	// swap each digit pair back to high nibble first
	swapped := make([]byte, len(id))
	for i := 0; i < len(id); i += 2 {
		swapped[i], swapped[i+1] = id[i+1], id[i]
	}
	b, err := hex.DecodeString(string(swapped))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidPartyID, id)
	}
	w.WriteBytes(b)
	return nil
}

func (w *ClientboundWriter) writeAchievement(p *Packet) error {
	hashes := p.Data.(*Achievement).Hashes
	w.WriteVarUint(uint32(len(hashes)))
	protocol.WriteArray(hashes, w.WriteStringNT)
	return nil
}

func (w *ClientboundWriter) writePlayerCount(p *Packet) error {
	w.WriteVarUint(p.Data.(*PlayerCount).Count)
	return nil
}

func (w *ClientboundWriter) writePowChallenge(p *Packet) error {
	c := p.Data.(*PowChallenge)
	w.WriteVarUint(c.Difficulty)
	w.WriteStringNT(c.Prefix)
	return nil
}

func (w *ClientboundWriter) writeEvalChallenge(p *Packet) error {
	c := p.Data.(*EvalChallenge)
	w.WriteVarUint(c.ID)
	w.WriteStringNT(c.Code)
	return nil
}

// NewUpdate returns an update packet with an opaque body.
func NewUpdate(body []byte) *Packet {
	return &Packet{Header: TagUpdate, Kind: KindUpdate, Data: &Update{}, Raw: body}
}

// NewOutdated returns an outdated-client packet.
func NewOutdated(build string) *Packet {
	return &Packet{Header: TagOutdated, Kind: KindOutdated, Data: &Outdated{Build: build}}
}

// NewCompressed returns a compressed packet wrapping block, whose expanded
// length is size.
func NewCompressed(size uint32, block []byte) *Packet {
	return &Packet{Header: TagCompressed, Kind: KindCompressed, Data: &Compressed{DecompressedLength: size, Block: block}}
}

// NewNotification returns a notification packet.
func NewNotification(message string, color protocol.Color, duration float32, identifier string) *Packet {
	return &Packet{Header: TagNotification, Kind: KindNotification, Data: &Notification{
		Message:    message,
		Color:      color,
		Duration:   duration,
		Identifier: identifier,
	}}
}

// NewServerInfo returns a server info packet.
func NewServerInfo(gamemode, serverUUID, hostRegion string) *Packet {
	return &Packet{Header: TagServerInfo, Kind: KindServerInfo, Data: &ServerInfo{
		Gamemode:   gamemode,
		ServerUUID: serverUUID,
		HostRegion: hostRegion,
	}}
}

// NewPartyInfo returns a party info packet.
func NewPartyInfo(partyID string) *Packet {
	return &Packet{Header: TagPartyInfo, Kind: KindPartyInfo, Data: &PartyInfo{PartyID: partyID}}
}

// NewAccept returns an accept packet.
func NewAccept() *Packet {
	return &Packet{Header: TagAccept, Kind: KindAccept, Data: &Accept{}}
}

// NewAchievement returns an achievement packet.
func NewAchievement(hashes ...string) *Packet {
	return &Packet{Header: TagAchievement, Kind: KindAchievement, Data: &Achievement{Hashes: hashes}}
}

// NewInvalidParty returns an invalid party packet.
func NewInvalidParty() *Packet {
	return &Packet{Header: TagInvalidParty, Kind: KindInvalidParty, Data: &InvalidParty{}}
}

// NewPlayerCount returns a player count packet.
func NewPlayerCount(count uint32) *Packet {
	return &Packet{Header: TagPlayerCount, Kind: KindPlayerCount, Data: &PlayerCount{Count: count}}
}

// NewPowChallenge returns a proof of work challenge.
func NewPowChallenge(difficulty uint32, prefix string) *Packet {
	return &Packet{Header: TagPowChallenge, Kind: KindPowChallenge, Data: &PowChallenge{Difficulty: difficulty, Prefix: prefix}}
}

// NewEvalChallenge returns an eval challenge.
func NewEvalChallenge(id uint32, code string) *Packet {
	return &Packet{Header: TagEvalChallenge, Kind: KindEvalChallenge, Data: &EvalChallenge{ID: id, Code: code}}
}
