package pipe

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestExecutor() (*CommandExecutor, *bytes.Buffer, *bytes.Buffer) {
	e := NewCommandExecutor(zerolog.Nop())
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	e.Stdout = stdout
	e.Stderr = stderr
	return e, stdout, stderr
}

func TestExec_FeedsChunkAsStdin(t *testing.T) {
	e, stdout, _ := newTestExecutor()

	chunk := []byte("line one\nline two\n")
	if err := e.Exec(context.Background(), []string{"cat"}, chunk); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if got := stdout.String(); got != string(chunk) {
		t.Errorf("child saw %q, want %q", got, chunk)
	}
}

func TestExec_LargeChunk(t *testing.T) {
	e, stdout, _ := newTestExecutor()

	// Larger than any pipe buffer, so the write path has to keep feeding
	// while the child drains.
	chunk := bytes.Repeat([]byte("0123456789abcde\n"), 64*1024)
	if err := e.Exec(context.Background(), []string{"cat"}, chunk); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if stdout.Len() != len(chunk) {
		t.Errorf("child saw %d bytes, want %d", stdout.Len(), len(chunk))
	}
}

func TestExec_EmptyChunk(t *testing.T) {
	e, stdout, _ := newTestExecutor()

	if err := e.Exec(context.Background(), []string{"cat"}, nil); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("child saw %d bytes, want 0", stdout.Len())
	}
}

func TestExec_NonZeroExit(t *testing.T) {
	e, _, _ := newTestExecutor()

	err := e.Exec(context.Background(), []string{"sh", "-c", "exit 3"}, []byte("data\n"))
	if err == nil {
		t.Fatal("Exec() error = nil, want exit error")
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Exec() error = %v, want *exec.ExitError", err)
	}
	if exitErr.ExitCode() != 3 {
		t.Errorf("exit code = %d, want 3", exitErr.ExitCode())
	}
}

func TestExec_CommandNotFound(t *testing.T) {
	e, _, _ := newTestExecutor()

	err := e.Exec(context.Background(), []string{"xpipe-no-such-command-zz"}, []byte("data\n"))
	if err == nil {
		t.Fatal("Exec() error = nil, want start error")
	}
	if !strings.Contains(err.Error(), "start") {
		t.Errorf("Exec() error = %v, want start failure", err)
	}
}

func TestExec_EmptyCommand(t *testing.T) {
	e, _, _ := newTestExecutor()

	if err := e.Exec(context.Background(), nil, []byte("data\n")); !errors.Is(err, ErrEmptyCommand) {
		t.Fatalf("Exec() error = %v, want ErrEmptyCommand", err)
	}
}

func TestExec_ChildStderrPassedThrough(t *testing.T) {
	e, _, stderr := newTestExecutor()

	if err := e.Exec(context.Background(), []string{"sh", "-c", "echo oops >&2"}, nil); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if got := stderr.String(); got != "oops\n" {
		t.Errorf("stderr = %q, want %q", got, "oops\n")
	}
}

func TestExec_CommandWithArgs(t *testing.T) {
	e, stdout, _ := newTestExecutor()

	chunk := []byte("keep\ndrop\nkeep\n")
	if err := e.Exec(context.Background(), []string{"grep", "keep"}, chunk); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if got := stdout.String(); got != "keep\nkeep\n" {
		t.Errorf("child output = %q, want %q", got, "keep\nkeep\n")
	}
}
