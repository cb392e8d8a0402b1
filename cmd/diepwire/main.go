package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/diepwire/internal/config"
	"github.com/vango-dev/diepwire/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globals holds the persistent flags.
type globals struct {
	configPath string
	logLevel   string
	jsonErrors bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	g := &globals{}
	root := rootCmd(g)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		if g.jsonErrors {
			fmt.Fprintln(stderr, errors.Classify(err).FormatJSON())
		} else {
			errors.Fprint(stderr, err)
		}
		return 1
	}
	return 0
}

func rootCmd(g *globals) *cobra.Command {
	root := &cobra.Command{
		Use:   "diepwire",
		Short: "Decode and encode diep.io websocket packets",
		Long: `diepwire reads and writes the binary packets a diep.io client and
server exchange over their websocket.

It can decode a single packet from hex or a file, build packets from
JSON, serve decoding over HTTP, tap a live connection and replay
recorded captures.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file (default: $DIEPWIRE_CONFIG or nearest diepwire.json/.toml)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&g.jsonErrors, "json-errors", false, "Print errors as JSON")

	root.AddCommand(
		decodeCmd(g),
		encodeCmd(g),
		serveCmd(g),
		tapCmd(g),
		replayCmd(g),
		tablesCmd(g),
		versionCmd(),
	)
	return root
}

// load resolves the configuration and installs its logger as the default.
func (g *globals) load(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFile(g.configPath)
	} else {
		cfg, err = config.Resolve()
	}
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	slog.SetDefault(cfg.Logger(cmd.ErrOrStderr()))
	return cfg, nil
}
