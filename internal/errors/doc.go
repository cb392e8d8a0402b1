// Package errors provides coded, printable errors for the diepwire CLI and
// services.
//
// Library packages return plain sentinel errors. At the edge, Classify maps
// them to a registered code so the user sees what went wrong, where in the
// input it happened, and what to try next.
//
// # Error Codes
//
//   - D001-D049: packet decoding and encoding
//   - D050-D079: captures and transports
//   - D100-D119: configuration
//   - D120-D149: command line input
//
// # Usage
//
//	p, err := packet.DecodeClientbound(buf)
//	if err != nil {
//	    fmt.Fprint(os.Stderr, errors.Classify(err).WithInput("stdin", buf).Format())
//	}
//
// Format prints a hex dump around the failing offset:
//
//	ERROR D001: Truncated input
//
//	  stdin@0x0003
//
//	  → 0000 │ 0a 80 80
//	         │          ^
//
//	  The packet ended before all of its fields were read.
package errors
