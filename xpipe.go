// Package xpipe buffers a line-oriented byte stream into bounded,
// newline-aligned chunks and runs a command once per chunk, with the chunk
// as the command's entire standard input.
//
// Example usage:
//
//	cfg := xpipe.DefaultConfig()
//	cfg.BufferSize = 4096
//	cfg.Command = []string{"curl", "-d", "@-", "https://example.com/ingest"}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	if err := xpipe.Run(context.Background(), cfg); err != nil {
//	    log.Fatal(err)
//	}
package xpipe

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/bft-labs/xpipe/internal/chunker"
	"github.com/bft-labs/xpipe/internal/cliconfig"
	"github.com/bft-labs/xpipe/internal/input"
	"github.com/bft-labs/xpipe/internal/pipe"
)

// Config holds the configuration for one run.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = cliconfig.Config

// DefaultConfig returns a Config with sensible default values.
// At minimum, you must set Command before calling Run.
func DefaultConfig() Config {
	return cliconfig.DefaultConfig()
}

// Logger returns the package-level zerolog logger used by xpipe.
func Logger() zerolog.Logger {
	return cliconfig.Logger()
}

// Run reads the input stream (stdin, or the followed file when cfg.Follow
// is set), chunks it, and executes cfg.Command once per chunk. It blocks
// until the stream is exhausted, the context is cancelled, or an error
// occurs. Every error is fatal to the run; there is no partial-success mode.
func Run(ctx context.Context, cfg Config) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log := cliconfig.Logger().Level(level)

	var src *input.TimedReader
	if cfg.Follow != "" {
		fr, err := input.OpenFollow(cfg.Follow)
		if err != nil {
			return err
		}
		defer fr.Close()
		src = input.NewTimedReader(fr)
	} else {
		src = input.NewTimedReader(os.Stdin)
	}

	c := chunker.New(chunker.Params{
		BufferSize:     cfg.BufferSize,
		IdleTimeout:    cfg.IdleTimeout,
		HasIdleTimeout: cfg.HasIdleTimeout,
		Command:        cfg.Command,
		Logger:         log,
	}, src, pipe.NewCommandExecutor(log))

	return c.Run(ctx)
}
