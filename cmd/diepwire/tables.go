package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/diepwire/internal/errors"
	"github.com/vango-dev/diepwire/pkg/names"
)

func tablesCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "tables [colors|tanks|stats]",
		Short:     "Print the name tables",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{names.Colors, names.Tanks, names.Stats},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			tables, err := cfg.NameTables()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				for _, kind := range []string{names.Colors, names.Tanks, names.Stats} {
					t, _ := tables.Lookup(kind)
					fmt.Fprintf(out, "%-7s %d names\n", kind, t.Len())
				}
				return nil
			}

			t, err := tables.Lookup(args[0])
			if err != nil {
				return errors.New("D123").Wrap(err)
			}
			for i, name := range t.Names() {
				fmt.Fprintf(out, "%3d  %s\n", i, name)
			}
			return nil
		},
	}
	return cmd
}
