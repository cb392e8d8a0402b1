package packet

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/vango-dev/diepwire/pkg/names"
	"github.com/vango-dev/diepwire/pkg/protocol"
)

// InputFlags is the key and mouse state bitmask of an input packet.
type InputFlags uint32

const (
	InputFire InputFlags = 1 << iota
	InputUp
	InputLeft
	InputDown
	InputRight
	InputGodMode
	InputSuicide
	InputRightClick
	InputLevelUp
	InputGamepad
	InputSwitchClass
	InputAdblock
)

// InputFlagNames names the input bits, least significant first.
var InputFlagNames = []string{
	"fire", "up", "left", "down", "right", "godmode",
	"suicide", "rightclick", "levelUp", "gamepad", "switchClass", "adblock",
}

// Has reports whether every bit of f2 is set in f.
func (f InputFlags) Has(f2 InputFlags) bool {
	return f&f2 == f2
}

// String joins the names of the set bits with "|".
func (f InputFlags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for v := uint32(f); v != 0; v &= v - 1 {
		i := bits.TrailingZeros32(v)
		if i < len(InputFlagNames) {
			parts = append(parts, InputFlagNames[i])
		} else {
			parts = append(parts, fmt.Sprintf("bit%d", i))
		}
	}
	return strings.Join(parts, "|")
}

// MarshalText implements encoding.TextMarshaler.
func (f InputFlags) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for the form String
// produces.
func (f *InputFlags) UnmarshalText(b []byte) error {
	v, err := ParseInputFlags(strings.Split(string(b), "|"))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// ParseInputFlags ORs together the named flags. Unnamed bits may be given
// as "bitN".
func ParseInputFlags(list []string) (InputFlags, error) {
	var f InputFlags
	for _, name := range list {
		name = strings.TrimSpace(name)
		if name == "" || name == "none" {
			continue
		}
		i := indexOf(InputFlagNames, name)
		if i < 0 {
			n, err := strconv.Atoi(strings.TrimPrefix(name, "bit"))
			if !strings.HasPrefix(name, "bit") || err != nil || n < 0 || n > 31 {
				return 0, fmt.Errorf("%w: input flag %q", protocol.ErrUnknownName, name)
			}
			i = n
		}
		f |= 1 << i
	}
	return f, nil
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// Init is the first packet a client sends.
type Init struct {
	Build    string `json:"build"`
	Password string `json:"password"`
	Party    string `json:"party"`
	Token    string `json:"token"`
	Debug    uint32 `json:"debug"`
}

// Input is the per-tick input state.
type Input struct {
	Flags    InputFlags `json:"flags"`
	MouseX   float32    `json:"mouseX"`
	MouseY   float32    `json:"mouseY"`
	GamepadX float32    `json:"gamepadX"`
	GamepadY float32    `json:"gamepadY"`
}

// Spawn requests a spawn with the given name.
type Spawn struct {
	Name string `json:"name"`
}

// UpgradeStat spends points on a stat. Max caps the stat level; the client
// sends -1 for no cap.
type UpgradeStat struct {
	Stat string `json:"stat"`
	Max  int32  `json:"max"`
}

// UpgradeTank selects a tank upgrade.
type UpgradeTank struct {
	Tank string `json:"tank"`
}

// ExtensionFound reports a detected browser extension.
type ExtensionFound struct{}

// Respawn requests a respawn after death.
type Respawn struct{}

// TakeTank takes control of an unclaimed tank.
type TakeTank struct{}

// PowReply answers a PowChallenge.
type PowReply struct {
	Result string `json:"result"`
}

// EvalReply answers an EvalChallenge.
type EvalReply struct {
	ID     uint32 `json:"id"`
	Result uint32 `json:"result"`
}

func (*Init) payload()           {}
func (*Input) payload()          {}
func (*Spawn) payload()          {}
func (*UpgradeStat) payload()    {}
func (*UpgradeTank) payload()    {}
func (*ExtensionFound) payload() {}
func (*Respawn) payload()        {}
func (*TakeTank) payload()       {}
func (*PowReply) payload()       {}
func (*EvalReply) payload()      {}

// ServerboundReader decodes packets sent by the client.
type ServerboundReader struct {
	*protocol.DataReader
}

// NewServerboundReader creates a reader over one packet.
func NewServerboundReader(buf []byte, opts ...ReaderOption) *ServerboundReader {
	o := applyReaderOptions(opts)
	return &ServerboundReader{DataReader: protocol.NewDataReader(buf, o.tables)}
}

// DecodeServerbound decodes a single serverbound packet.
func DecodeServerbound(buf []byte, opts ...ReaderOption) (*Packet, error) {
	return NewServerboundReader(buf, opts...).Read()
}

var serverboundDecoders = map[byte]decodeEntry[*ServerboundReader]{
	TagInit:           {KindInit, (*ServerboundReader).readInit},
	TagInput:          {KindInput, (*ServerboundReader).readInput},
	TagSpawn:          {KindSpawn, (*ServerboundReader).readSpawn},
	TagUpgradeStat:    {KindUpgradeStat, (*ServerboundReader).readUpgradeStat},
	TagUpgradeTank:    {KindUpgradeTank, (*ServerboundReader).readUpgradeTank},
	TagHeartbeat:      {KindHeartbeat, func(*ServerboundReader) (Payload, error) { return &Heartbeat{}, nil }},
	TagExtensionFound: {KindExtensionFound, func(*ServerboundReader) (Payload, error) { return &ExtensionFound{}, nil }},
	TagRespawn:        {KindRespawn, func(*ServerboundReader) (Payload, error) { return &Respawn{}, nil }},
	TagTakeTank:       {KindTakeTank, func(*ServerboundReader) (Payload, error) { return &TakeTank{}, nil }},
	TagPowReply:       {KindPowReply, (*ServerboundReader).readPowReply},
	TagEvalReply:      {KindEvalReply, (*ServerboundReader).readEvalReply},
}

// Read decodes the packet at the current position.
func (r *ServerboundReader) Read() (*Packet, error) {
	return readPacket(r, r.DataReader, Serverbound, serverboundDecoders)
}

func (r *ServerboundReader) readInit() (Payload, error) {
	var p Init
	for _, field := range []*string{&p.Build, &p.Password, &p.Party, &p.Token} {
		s, err := r.ReadStringNT()
		if err != nil {
			return nil, err
		}
		*field = s
	}
	debug, err := r.ReadVarUint()
	if err != nil {
		return nil, err
	}
	p.Debug = debug
	return &p, nil
}

func (r *ServerboundReader) readInput() (Payload, error) {
	flags, err := r.ReadVarUint()
	if err != nil {
		return nil, err
	}
	mouse, err := r.PositionVF()
	if err != nil {
		return nil, err
	}
	gamepad, err := r.PositionVF()
	if err != nil {
		return nil, err
	}
	return &Input{
		Flags:    InputFlags(flags),
		MouseX:   mouse.X,
		MouseY:   mouse.Y,
		GamepadX: gamepad.X,
		GamepadY: gamepad.Y,
	}, nil
}

func (r *ServerboundReader) readSpawn() (Payload, error) {
	name, err := r.ReadStringNT()
	if err != nil {
		return nil, err
	}
	return &Spawn{Name: name}, nil
}

func (r *ServerboundReader) readUpgradeStat() (Payload, error) {
	stat, err := r.StatID()
	if err != nil {
		return nil, err
	}
	maxLevel, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	return &UpgradeStat{Stat: stat, Max: maxLevel}, nil
}

func (r *ServerboundReader) readUpgradeTank() (Payload, error) {
	tank, err := r.TankID()
	if err != nil {
		return nil, err
	}
	return &UpgradeTank{Tank: tank}, nil
}

func (r *ServerboundReader) readPowReply() (Payload, error) {
	result, err := r.ReadStringNT()
	if err != nil {
		return nil, err
	}
	return &PowReply{Result: result}, nil
}

func (r *ServerboundReader) readEvalReply() (Payload, error) {
	id, err := r.ReadVarUint()
	if err != nil {
		return nil, err
	}
	result, err := r.ReadVarUint()
	if err != nil {
		return nil, err
	}
	return &EvalReply{ID: id, Result: result}, nil
}

// ServerboundWriter encodes client packets.
type ServerboundWriter struct {
	*protocol.DataWriter
}

// NewServerboundWriter creates a writer. A nil tables uses names.Default().
func NewServerboundWriter(tables *names.Tables) *ServerboundWriter {
	return &ServerboundWriter{DataWriter: protocol.NewDataWriter(tables)}
}

// EncodeServerbound encodes p into a new buffer using the default tables.
func EncodeServerbound(p *Packet) ([]byte, error) {
	w := NewServerboundWriter(nil)
	if err := w.Write(p); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func writeNothing(*ServerboundWriter, *Packet) error { return nil }

var serverboundEncoders = map[byte]func(*ServerboundWriter, *Packet) error{
	TagInit:           (*ServerboundWriter).writeInit,
	TagInput:          (*ServerboundWriter).writeInput,
	TagSpawn:          (*ServerboundWriter).writeSpawn,
	TagUpgradeStat:    (*ServerboundWriter).writeUpgradeStat,
	TagUpgradeTank:    (*ServerboundWriter).writeUpgradeTank,
	TagHeartbeat:      writeNothing,
	TagExtensionFound: writeNothing,
	TagRespawn:        writeNothing,
	TagTakeTank:       writeNothing,
	TagPowReply:       (*ServerboundWriter).writePowReply,
	TagEvalReply:      (*ServerboundWriter).writeEvalReply,
}

// Write appends p: the tag as a varuint, then the variant's fields. Unknown
// stat or tank names fail with protocol.ErrUnknownName. On error nothing is
// appended.
func (w *ServerboundWriter) Write(p *Packet) error {
	return writePacket(w, w.DataWriter, Serverbound, serverboundEncoders, p)
}

func (w *ServerboundWriter) writeInit(p *Packet) error {
	i := p.Data.(*Init)
	w.WriteStringNT(i.Build)
	w.WriteStringNT(i.Password)
	w.WriteStringNT(i.Party)
	w.WriteStringNT(i.Token)
	w.WriteVarUint(i.Debug)
	return nil
}

func (w *ServerboundWriter) writeInput(p *Packet) error {
	i := p.Data.(*Input)
	w.WriteFlags(uint32(i.Flags))
	w.WritePositionVF(protocol.PositionF{X: i.MouseX, Y: i.MouseY})
	w.WritePositionVF(protocol.PositionF{X: i.GamepadX, Y: i.GamepadY})
	return nil
}

func (w *ServerboundWriter) writeSpawn(p *Packet) error {
	w.WriteStringNT(p.Data.(*Spawn).Name)
	return nil
}

func (w *ServerboundWriter) writeUpgradeStat(p *Packet) error {
	u := p.Data.(*UpgradeStat)
	if err := w.WriteStatID(u.Stat); err != nil {
		return err
	}
	w.WriteVarInt(u.Max)
	return nil
}

func (w *ServerboundWriter) writeUpgradeTank(p *Packet) error {
	return w.WriteTankID(p.Data.(*UpgradeTank).Tank)
}

func (w *ServerboundWriter) writePowReply(p *Packet) error {
	w.WriteStringNT(p.Data.(*PowReply).Result)
	return nil
}

func (w *ServerboundWriter) writeEvalReply(p *Packet) error {
	e := p.Data.(*EvalReply)
	w.WriteVarUint(e.ID)
	w.WriteVarUint(e.Result)
	return nil
}

// NewInit returns an init packet.
func NewInit(build, password, party, token string, debug uint32) *Packet {
	return &Packet{Header: TagInit, Kind: KindInit, Data: &Init{
		Build:    build,
		Password: password,
		Party:    party,
		Token:    token,
		Debug:    debug,
	}}
}

// NewInput returns an input packet.
func NewInput(flags InputFlags, mouseX, mouseY, gamepadX, gamepadY float32) *Packet {
	return &Packet{Header: TagInput, Kind: KindInput, Data: &Input{
		Flags:    flags,
		MouseX:   mouseX,
		MouseY:   mouseY,
		GamepadX: gamepadX,
		GamepadY: gamepadY,
	}}
}

// NewSpawn returns a spawn packet.
func NewSpawn(name string) *Packet {
	return &Packet{Header: TagSpawn, Kind: KindSpawn, Data: &Spawn{Name: name}}
}

// NewUpgradeStat returns a stat upgrade packet.
func NewUpgradeStat(stat string, maxLevel int32) *Packet {
	return &Packet{Header: TagUpgradeStat, Kind: KindUpgradeStat, Data: &UpgradeStat{Stat: stat, Max: maxLevel}}
}

// NewUpgradeTank returns a tank upgrade packet.
func NewUpgradeTank(tank string) *Packet {
	return &Packet{Header: TagUpgradeTank, Kind: KindUpgradeTank, Data: &UpgradeTank{Tank: tank}}
}

// NewExtensionFound returns an extension found packet.
func NewExtensionFound() *Packet {
	return &Packet{Header: TagExtensionFound, Kind: KindExtensionFound, Data: &ExtensionFound{}}
}

// NewRespawn returns a respawn packet.
func NewRespawn() *Packet {
	return &Packet{Header: TagRespawn, Kind: KindRespawn, Data: &Respawn{}}
}

// NewTakeTank returns a take tank packet.
func NewTakeTank() *Packet {
	return &Packet{Header: TagTakeTank, Kind: KindTakeTank, Data: &TakeTank{}}
}

// NewPowReply returns a proof of work reply.
func NewPowReply(result string) *Packet {
	return &Packet{Header: TagPowReply, Kind: KindPowReply, Data: &PowReply{Result: result}}
}

// NewEvalReply returns an eval reply.
func NewEvalReply(id, result uint32) *Packet {
	return &Packet{Header: TagEvalReply, Kind: KindEvalReply, Data: &EvalReply{ID: id, Result: result}}
}
