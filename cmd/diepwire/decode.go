package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/diepwire/internal/errors"
	"github.com/vango-dev/diepwire/pkg/inspect"
	"github.com/vango-dev/diepwire/pkg/names"
	"github.com/vango-dev/diepwire/pkg/packet"
)

func decodeCmd(g *globals) *cobra.Command {
	var (
		direction string
		hexInput  string
		file      string
		text      bool
	)

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode one packet",
		Long: `Decode one packet and print it as JSON.

The packet is read from --hex, from --file, or from stdin. Stdin and
files are raw bytes unless --text is given, in which case they hold hex.

Examples:
  diepwire decode --hex 0a8001
  diepwire decode -d serverbound --file spawn.bin
  echo "05" | diepwire decode --text`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			dir, err := packet.ParseDirection(direction)
			if err != nil {
				return errors.New("D120").Wrap(err)
			}
			tables, err := cfg.NameTables()
			if err != nil {
				return err
			}

			source, buf, err := readInput(cmd, hexInput, file, text)
			if err != nil {
				return err
			}

			resp, err := decodeOne(dir, buf, tables, cfg.MaxAllocation())
			if err != nil {
				de := errors.Classify(err)
				if de.Input == nil {
					de.WithInput(source, buf)
				}
				return de
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return errors.New("D007").
					WithDetail("The packet decoded but holds a value JSON cannot carry, such as a NaN or infinite float.").
					Wrap(err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&direction, "direction", "d", "clientbound", "Packet direction (clientbound or serverbound)")
	cmd.Flags().StringVarP(&hexInput, "hex", "x", "", "Packet bytes as hex")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the packet from a file")
	cmd.Flags().BoolVarP(&text, "text", "t", false, "Treat stdin or file contents as hex")
	cmd.MarkFlagsMutuallyExclusive("hex", "file")
	return cmd
}

// readInput returns the packet bytes and a name for where they came from.
func readInput(cmd *cobra.Command, hexInput, file string, text bool) (string, []byte, error) {
	if hexInput != "" {
		buf, err := inspect.ParseHex(hexInput)
		if err != nil {
			return "", nil, errors.New("D121").Wrap(err)
		}
		return "hex", buf, nil
	}

	source := "stdin"
	var (
		data []byte
		err  error
	)
	if file != "" {
		source = file
		data, err = os.ReadFile(file)
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return "", nil, err
	}
	if !text {
		return source, data, nil
	}
	buf, err := inspect.ParseHex(string(data))
	if err != nil {
		return "", nil, errors.New("D121").Wrap(err)
	}
	return source, buf, nil
}

// decodeOne decodes buf and, for compressed packets, the expanded packet.
func decodeOne(dir packet.Direction, buf []byte, tables *names.Tables, maxAlloc int) (*inspect.DecodeResponse, error) {
	var (
		p   *packet.Packet
		err error
	)
	if dir == packet.Serverbound {
		p, err = packet.DecodeServerbound(buf, packet.WithTables(tables))
	} else {
		p, err = packet.DecodeClientbound(buf,
			packet.WithTables(tables),
			packet.WithDecompressor(packet.LZ4Block{MaxSize: maxAlloc}),
			packet.WithMaxAllocation(maxAlloc),
		)
	}
	if err != nil {
		return nil, err
	}

	resp := inspect.Describe(dir, p)
	if c, ok := p.Data.(*packet.Compressed); ok && c.Payload != nil {
		inner, err := packet.DecodeClientbound(c.Payload, packet.WithTables(tables))
		if err != nil {
			return nil, errors.Classify(err).WithInput("expanded", c.Payload)
		}
		resp.Inner = inspect.Describe(packet.Clientbound, inner)
	}
	return resp, nil
}
