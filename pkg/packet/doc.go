// Package packet maps diep.io packets to typed values and back.
//
// A packet is a tag byte followed by a fixed sequence of fields. Each
// direction has its own tag table:
//
//	clientbound  0x00 update        0x07 accept
//	             0x01 outdated      0x08 achievement
//	             0x02 compressed    0x09 invalid party
//	             0x03 notification  0x0A player count
//	             0x04 server info   0x0B pow challenge
//	             0x05 heartbeat     0x0D eval challenge
//	             0x06 party info
//
//	serverbound  0x00 init          0x05 heartbeat
//	             0x01 input         0x07 extension found
//	             0x02 spawn         0x08 respawn
//	             0x03 upgrade stat  0x09 take tank
//	             0x04 upgrade tank  0x0A pow reply
//	                                0x0B eval reply
//
// Readers never fail on an unrecognised tag; they return a packet of kind
// UNKNOWN with the body in Raw. Field reads that run off the end of the
// buffer fail with a *DecodeError wrapping the protocol error.
//
// Writers emit the tag as a varuint followed by the fields, and fail with
// ErrUnsupportedTag for tags they do not know or payloads that do not match
// the tag.
//
// # Usage
//
//	p, err := packet.DecodeClientbound(msg, packet.WithDecompressor(packet.LZ4Block{}))
//	if err != nil {
//	    return err
//	}
//	switch data := p.Data.(type) {
//	case *packet.Notification:
//	    log.Println(data.Message)
//	case *packet.Compressed:
//	    inner, err := packet.DecodeClientbound(data.Payload)
//	    ...
//	}
//
//	b, err := packet.EncodeServerbound(packet.NewSpawn("player"))
package packet
