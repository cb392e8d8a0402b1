package packet

import (
	"fmt"
	"strings"
)

// Direction is the side of the connection a packet travels towards.
type Direction uint8

const (
	Clientbound Direction = iota // server to client
	Serverbound                  // client to server
)

// String returns "clientbound" or "serverbound".
func (d Direction) String() string {
	switch d {
	case Clientbound:
		return "clientbound"
	case Serverbound:
		return "serverbound"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// ParseDirection accepts "clientbound"/"serverbound" and the short forms
// "client"/"server", "in"/"out".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "clientbound", "client", "in":
		return Clientbound, nil
	case "serverbound", "server", "out":
		return Serverbound, nil
	default:
		return 0, fmt.Errorf("packet: unknown direction %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Kind is the symbolic name of a packet variant.
type Kind string

// Clientbound kinds.
const (
	KindUpdate        Kind = "UPDATE"
	KindOutdated      Kind = "OUTDATED_CLIENT"
	KindCompressed    Kind = "COMPRESSED"
	KindNotification  Kind = "NOTIFICATION"
	KindServerInfo    Kind = "SERVER_INFO"
	KindHeartbeat     Kind = "HEARTBEAT"
	KindPartyInfo     Kind = "PARTY_INFO"
	KindAccept        Kind = "ACCEPT"
	KindAchievement   Kind = "ACHIEVEMENT"
	KindInvalidParty  Kind = "INVALID_PARTY"
	KindPlayerCount   Kind = "PLAYER_COUNT"
	KindPowChallenge  Kind = "POW_CHALLENGE"
	KindEvalChallenge Kind = "EVAL_CHALLENGE"
	KindUnknown       Kind = "UNKNOWN"
)

// Serverbound kinds. Heartbeat and Unknown are shared with clientbound.
const (
	KindInit           Kind = "INIT"
	KindInput          Kind = "INPUT"
	KindSpawn          Kind = "SPAWN"
	KindUpgradeStat    Kind = "UPGRADE_STAT"
	KindUpgradeTank    Kind = "UPGRADE_TANK"
	KindExtensionFound Kind = "EXTENSION_FOUND"
	KindRespawn        Kind = "RESPAWN"
	KindTakeTank       Kind = "TAKE_TANK"
	KindPowReply       Kind = "POW_REPLY"
	KindEvalReply      Kind = "EVAL_REPLY"
)

// Clientbound tags.
const (
	TagUpdate        byte = 0x00
	TagOutdated      byte = 0x01
	TagCompressed    byte = 0x02
	TagNotification  byte = 0x03
	TagServerInfo    byte = 0x04
	TagHeartbeat     byte = 0x05 // same value in both directions
	TagPartyInfo     byte = 0x06
	TagAccept        byte = 0x07
	TagAchievement   byte = 0x08
	TagInvalidParty  byte = 0x09
	TagPlayerCount   byte = 0x0A
	TagPowChallenge  byte = 0x0B
	TagEvalChallenge byte = 0x0D
)

// Serverbound tags.
const (
	TagInit           byte = 0x00
	TagInput          byte = 0x01
	TagSpawn          byte = 0x02
	TagUpgradeStat    byte = 0x03
	TagUpgradeTank    byte = 0x04
	TagExtensionFound byte = 0x07
	TagRespawn        byte = 0x08
	TagTakeTank       byte = 0x09
	TagPowReply       byte = 0x0A
	TagEvalReply      byte = 0x0B
)

// Packet is one decoded message.
//
// Header is the tag byte that selected the variant. Raw holds whatever the
// variant's fields left unread, which is the whole body for Update and
// Unknown and normally empty otherwise.
type Packet struct {
	Header byte    `json:"header"`
	Kind   Kind    `json:"kind"`
	Data   Payload `json:"data"`
	Raw    []byte  `json:"raw,omitempty"`
}

// String returns a short description such as "HEARTBEAT(0x05)".
func (p *Packet) String() string {
	return fmt.Sprintf("%s(0x%02X)", p.Kind, p.Header)
}

// Payload is the variant-specific part of a packet. The set of
// implementations is closed; every payload type is defined in this package.
type Payload interface {
	payload()
}

// KindOf returns the kind a tag selects in the given direction.
func KindOf(d Direction, tag byte) Kind {
	var table map[byte]Kind
	switch d {
	case Clientbound:
		table = clientboundKinds
	case Serverbound:
		table = serverboundKinds
	}
	if k, ok := table[tag]; ok {
		return k
	}
	return KindUnknown
}

// TagOf returns the tag that selects kind in the given direction.
func TagOf(d Direction, k Kind) (byte, bool) {
	table := clientboundKinds
	if d == Serverbound {
		table = serverboundKinds
	}
	for tag, kind := range table {
		if kind == k {
			return tag, true
		}
	}
	return 0, false
}

// NewPayload returns a zero payload of the given kind.
func NewPayload(k Kind) (Payload, bool) {
	f, ok := payloadFactories[k]
	if !ok {
		return nil, false
	}
	return f(), true
}

var payloadFactories = map[Kind]func() Payload{
	KindUpdate:         func() Payload { return &Update{} },
	KindOutdated:       func() Payload { return &Outdated{} },
	KindCompressed:     func() Payload { return &Compressed{} },
	KindNotification:   func() Payload { return &Notification{} },
	KindServerInfo:     func() Payload { return &ServerInfo{} },
	KindHeartbeat:      func() Payload { return &Heartbeat{} },
	KindPartyInfo:      func() Payload { return &PartyInfo{} },
	KindAccept:         func() Payload { return &Accept{} },
	KindAchievement:    func() Payload { return &Achievement{} },
	KindInvalidParty:   func() Payload { return &InvalidParty{} },
	KindPlayerCount:    func() Payload { return &PlayerCount{} },
	KindPowChallenge:   func() Payload { return &PowChallenge{} },
	KindEvalChallenge:  func() Payload { return &EvalChallenge{} },
	KindInit:           func() Payload { return &Init{} },
	KindInput:          func() Payload { return &Input{} },
	KindSpawn:          func() Payload { return &Spawn{} },
	KindUpgradeStat:    func() Payload { return &UpgradeStat{} },
	KindUpgradeTank:    func() Payload { return &UpgradeTank{} },
	KindExtensionFound: func() Payload { return &ExtensionFound{} },
	KindRespawn:        func() Payload { return &Respawn{} },
	KindTakeTank:       func() Payload { return &TakeTank{} },
	KindPowReply:       func() Payload { return &PowReply{} },
	KindEvalReply:      func() Payload { return &EvalReply{} },
}

var clientboundKinds = map[byte]Kind{
	TagUpdate:        KindUpdate,
	TagOutdated:      KindOutdated,
	TagCompressed:    KindCompressed,
	TagNotification:  KindNotification,
	TagServerInfo:    KindServerInfo,
	TagHeartbeat:     KindHeartbeat,
	TagPartyInfo:     KindPartyInfo,
	TagAccept:        KindAccept,
	TagAchievement:   KindAchievement,
	TagInvalidParty:  KindInvalidParty,
	TagPlayerCount:   KindPlayerCount,
	TagPowChallenge:  KindPowChallenge,
	TagEvalChallenge: KindEvalChallenge,
}

var serverboundKinds = map[byte]Kind{
	TagInit:           KindInit,
	TagInput:          KindInput,
	TagSpawn:          KindSpawn,
	TagUpgradeStat:    KindUpgradeStat,
	TagUpgradeTank:    KindUpgradeTank,
	TagHeartbeat:      KindHeartbeat,
	TagExtensionFound: KindExtensionFound,
	TagRespawn:        KindRespawn,
	TagTakeTank:       KindTakeTank,
	TagPowReply:       KindPowReply,
	TagEvalReply:      KindEvalReply,
}

// Unknown is the payload of a packet whose tag is not recognised. The body
// is left in Packet.Raw.
type Unknown struct{}

// Heartbeat is an empty keep-alive, sent in both directions.
type Heartbeat struct{}

func (*Unknown) payload()   {}
func (*Heartbeat) payload() {}

// NewHeartbeat returns a heartbeat packet, valid in either direction.
func NewHeartbeat() *Packet {
	return &Packet{Header: TagHeartbeat, Kind: KindHeartbeat, Data: &Heartbeat{}}
}
