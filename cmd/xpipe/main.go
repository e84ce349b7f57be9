package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/xpipe"
	"github.com/bft-labs/xpipe/internal/cliconfig"
)

const helpDescription = `
Buffer line-oriented input and hand it to a command in bounded chunks.

xpipe reads its input into a fixed-size buffer, cuts the buffer at the last
complete line, and runs the given command once per chunk with that chunk as
the command's entire standard input. It waits for each child to exit before
reading more, so at most one child runs at a time. Useful for batching a
stream of samples into discrete invocations of a downstream command such as
curl.

A chunk is flushed when the buffer fills, when the idle timeout passes with
a complete line pending, or at end of input. An incomplete line is never cut
short: it is held until a newline arrives or the stream ends. A single line
larger than the buffer is a fatal error.
`

var exampleUsage = strings.TrimSpace(`
  sensor-feed | xpipe -b 4096 -- curl -s -d @- https://example.com/ingest
  xpipe -t 5s -f /var/log/samples.log -- ./store-batch
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "xpipe [flags] -- command [args...]",
		Short:   "Buffer line-oriented input and hand it to a command in bounded chunks",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.xpipe/config.toml),
			// then env, then flag overrides.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
			if changed["idle-timeout"] {
				cfg.HasIdleTimeout = true
			}

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment variables (XPIPE_*) override file config but are
			// overridden by flags (checked via changed map).
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			cfg.Command = args
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return xpipe.Run(ctx, cfg)
		},
	}

	// Everything after the first positional argument belongs to the child
	// command, including its flags.
	root.Flags().SetInterspersed(false)

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.xpipe/config.toml)")
	root.Flags().IntVarP(&cfg.BufferSize, "buffer-size", "b", cfg.BufferSize, "buffer capacity in bytes")
	root.Flags().DurationVarP(&cfg.IdleTimeout, "idle-timeout", "t", 0, "idle flush timeout (default: wait forever)")
	root.Flags().StringVarP(&cfg.Follow, "follow", "f", cfg.Follow, "read from a growing file instead of stdin")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace|debug|info|warn|error)")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("xpipe")
		os.Exit(1)
	}
}
