package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/diepwire/internal/errors"
	"github.com/vango-dev/diepwire/pkg/inspect"
	"github.com/vango-dev/diepwire/pkg/names"
	"github.com/vango-dev/diepwire/pkg/packet"
)

func encodeCmd(g *globals) *cobra.Command {
	var (
		direction string
		body      string
		raw       bool
		compress  bool
	)

	cmd := &cobra.Command{
		Use:   "encode KIND [JSON]",
		Short: "Encode one packet from JSON",
		Long: `Encode one packet and print it as hex.

KIND is a packet kind such as SPAWN or PLAYER_COUNT. JSON holds the
payload fields in the form decode prints them. The direction is taken
from KIND unless it exists in both (HEARTBEAT) or --direction is set.

Kinds:
` + kindList() + `

Examples:
  diepwire encode SPAWN '{"name":"bob"}'
  diepwire encode INPUT '{"flags":"fire|up","mouseX":10,"mouseY":-4}'
  diepwire encode UPDATE --body 0102ff
  diepwire encode PLAYER_COUNT '{"count":42}' --compress`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			tables, err := cfg.NameTables()
			if err != nil {
				return err
			}

			doc := "{}"
			if len(args) == 2 {
				doc = args[1]
			}
			var extra []byte
			if body != "" {
				if extra, err = inspect.ParseHex(body); err != nil {
					return errors.New("D121").Wrap(err)
				}
			}

			dir, p, err := buildPacket(packet.Kind(strings.ToUpper(args[0])), direction, []byte(doc), extra)
			if err != nil {
				return err
			}
			out, err := encodePacket(dir, p, tables)
			if err != nil {
				return err
			}
			if compress {
				if dir != packet.Clientbound {
					return errors.Newf(errors.CategoryCLI, "only clientbound packets can be compressed")
				}
				c, err := packet.CompressPacket(out)
				if err != nil {
					return err
				}
				if out, err = encodePacket(dir, c, tables); err != nil {
					return err
				}
			}

			if raw {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(out))
			return err
		},
	}

	cmd.Flags().StringVarP(&direction, "direction", "d", "", "Packet direction (default: inferred from KIND)")
	cmd.Flags().StringVar(&body, "body", "", "Hex bytes appended after the payload fields")
	cmd.Flags().BoolVar(&raw, "raw", false, "Write raw bytes instead of hex")
	cmd.Flags().BoolVar(&compress, "compress", false, "Wrap the packet in a COMPRESSED packet")
	return cmd
}

// buildPacket resolves kind to a tag and fills its payload from doc.
func buildPacket(kind packet.Kind, direction string, doc, extra []byte) (packet.Direction, *packet.Packet, error) {
	dir, err := resolveDirection(kind, direction)
	if err != nil {
		return 0, nil, err
	}
	tag, ok := packet.TagOf(dir, kind)
	if !ok {
		return 0, nil, errors.New("D122").WithDetail(fmt.Sprintf("%s has no %s tag", kind, dir))
	}
	data, _ := packet.NewPayload(kind)

	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.DisallowUnknownFields()
	if err := dec.Decode(data); err != nil {
		return 0, nil, errors.New("D122").
			WithDetail("Invalid " + string(kind) + " fields: " + err.Error()).
			WithSuggestion("Run 'diepwire decode' on a sample packet to see the field names")
	}
	return dir, &packet.Packet{Header: tag, Kind: kind, Data: data, Raw: extra}, nil
}

func resolveDirection(kind packet.Kind, direction string) (packet.Direction, error) {
	if direction != "" {
		dir, err := packet.ParseDirection(direction)
		if err != nil {
			return 0, errors.New("D120").Wrap(err)
		}
		return dir, nil
	}
	if _, ok := packet.TagOf(packet.Clientbound, kind); ok {
		return packet.Clientbound, nil
	}
	if _, ok := packet.TagOf(packet.Serverbound, kind); ok {
		return packet.Serverbound, nil
	}
	return 0, errors.New("D122").WithDetail(fmt.Sprintf("%q is not a packet kind", kind))
}

// encodePacket writes p followed by its Raw bytes. UPDATE writes Raw itself.
func encodePacket(dir packet.Direction, p *packet.Packet, tables *names.Tables) ([]byte, error) {
	if dir == packet.Serverbound {
		w := packet.NewServerboundWriter(tables)
		if err := w.Write(p); err != nil {
			return nil, err
		}
		w.WriteBytes(p.Raw)
		return w.Bytes(), nil
	}
	w := packet.NewClientboundWriter(tables)
	if err := w.Write(p); err != nil {
		return nil, err
	}
	if p.Kind != packet.KindUpdate {
		w.WriteBytes(p.Raw)
	}
	return w.Bytes(), nil
}

func kindList() string {
	var lines []string
	for _, dir := range []packet.Direction{packet.Clientbound, packet.Serverbound} {
		var kinds []string
		for tag := 0; tag < 256; tag++ {
			if k := packet.KindOf(dir, byte(tag)); k != packet.KindUnknown {
				kinds = append(kinds, string(k))
			}
		}
		sort.Strings(kinds)
		lines = append(lines, fmt.Sprintf("  %s: %s", dir, strings.Join(kinds, ", ")))
	}
	return strings.Join(lines, "\n")
}
