// Package capture records packets to a compact binary file and replays them
// through the packet readers.
//
// # File Format
//
// A capture starts with the six byte magic "DWCAP\x01", followed by records
// until the end of the file:
//
//	┌───────────┬──────────────┬─────────────┬─────────────┐
//	│ dir (u8)  │ time (i64)   │ len (vu)    │ data        │
//	└───────────┴──────────────┴─────────────┴─────────────┘
//
// dir is 0 for clientbound and 1 for serverbound, time is Unix nanoseconds
// little-endian, and len is a varuint byte count. The encoding uses the same
// protocol.Encoder and protocol.Decoder the packets do.
//
// # Storage
//
// Captures are named by KSUIDs, which sort by creation time. DirStore keeps
// them as files in a directory; S3Store keeps them as objects under a key
// prefix.
package capture
