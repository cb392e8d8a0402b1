package packet

import (
	"github.com/vango-dev/diepwire/pkg/protocol"
)

// writePacket writes the tag as a varuint and then the fields through table.
// A tag missing from table, or a payload of another variant, fails with
// ErrUnsupportedTag, as does a nil packet. On any error the writer is truncated back to where the
// packet started.
func writePacket[W any](w W, dw *protocol.DataWriter, dir Direction, table map[byte]func(W, *Packet) error, p *Packet) error {
	if p == nil {
		return unsupported(0, nil)
	}
	encode, ok := table[p.Header]
	if !ok || payloadKind(p.Data) != KindOf(dir, p.Header) {
		return unsupported(p.Header, p.Data)
	}

	mark := dw.Len()
	dw.WriteVarUint(uint32(p.Header))
	err := encode(w, p)
	if err == nil {
		err = dw.Err()
	}
	if err != nil {
		dw.Truncate(mark)
		return err
	}
	return nil
}

// payloadKind returns the kind a payload type belongs to.
func payloadKind(data Payload) Kind {
	switch data.(type) {
	case *Update:
		return KindUpdate
	case *Outdated:
		return KindOutdated
	case *Compressed:
		return KindCompressed
	case *Notification:
		return KindNotification
	case *ServerInfo:
		return KindServerInfo
	case *Heartbeat:
		return KindHeartbeat
	case *PartyInfo:
		return KindPartyInfo
	case *Accept:
		return KindAccept
	case *Achievement:
		return KindAchievement
	case *InvalidParty:
		return KindInvalidParty
	case *PlayerCount:
		return KindPlayerCount
	case *PowChallenge:
		return KindPowChallenge
	case *EvalChallenge:
		return KindEvalChallenge
	case *Init:
		return KindInit
	case *Input:
		return KindInput
	case *Spawn:
		return KindSpawn
	case *UpgradeStat:
		return KindUpgradeStat
	case *UpgradeTank:
		return KindUpgradeTank
	case *ExtensionFound:
		return KindExtensionFound
	case *Respawn:
		return KindRespawn
	case *TakeTank:
		return KindTakeTank
	case *PowReply:
		return KindPowReply
	case *EvalReply:
		return KindEvalReply
	default:
		return KindUnknown
	}
}
