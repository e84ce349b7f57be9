// Package pipe executes the configured command once per chunk, feeding the
// chunk as the child's entire standard input.
package pipe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/rs/zerolog"
)

// ErrEmptyCommand is returned when Exec is called with no argument vector.
var ErrEmptyCommand = errors.New("xpipe: empty command")

// CommandExecutor spawns one child process per chunk. The child's output
// streams are inherited from the parent by default; tests may substitute
// writers before first use.
type CommandExecutor struct {
	Stdout io.Writer
	Stderr io.Writer

	log zerolog.Logger
}

// NewCommandExecutor returns an executor whose children write to the
// parent's stdout and stderr.
func NewCommandExecutor(log zerolog.Logger) *CommandExecutor {
	return &CommandExecutor{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		log:    log,
	}
}

// Exec runs argv with chunk as its entire standard input and waits for the
// child to terminate. The child is always reaped, whatever fails; write and
// close errors are reported even when the child itself exits cleanly, since
// they mean the chunk may not have been fully delivered.
func (e *CommandExecutor) Exec(ctx context.Context, argv []string, chunk []byte) error {
	if len(argv) == 0 {
		return ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		return fmt.Errorf("start %s: %w", argv[0], err)
	}
	e.log.Debug().Str("command", argv[0]).Int("bytes", len(chunk)).Msg("spawned child")

	_, writeErr := stdin.Write(chunk)
	closeErr := stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("command %s: %w", argv[0], err)
	}
	if writeErr != nil {
		return fmt.Errorf("write to %s: %w", argv[0], writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close stdin of %s: %w", argv[0], closeErr)
	}
	return nil
}
