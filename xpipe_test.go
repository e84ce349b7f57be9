package xpipe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRun_InvalidLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "shouty"
	cfg.Command = []string{"cat"}

	if err := Run(context.Background(), cfg); err == nil {
		t.Fatal("Run() error = nil, want log level error")
	}
}

func TestRun_MissingFollowFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Follow = filepath.Join(t.TempDir(), "absent.log")
	cfg.Command = []string{"cat"}

	if err := Run(context.Background(), cfg); err == nil {
		t.Fatal("Run() error = nil, want open failure")
	}
}

func TestRun_FollowEndToEnd(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.log")
	out := filepath.Join(dir, "out.log")
	if err := os.WriteFile(in, []byte("a\nb\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Follow = in
	cfg.Command = []string{"sh", "-c", "cat >> " + out}

	done := make(chan error, 1)
	go func() { done <- Run(context.Background(), cfg) }()

	// Removing the followed file ends the stream and forces the final
	// flush.
	time.Sleep(100 * time.Millisecond)
	if err := os.Remove(in); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not finish after input removal")
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != "a\nb\n" {
		t.Errorf("child received %q, want %q", got, "a\nb\n")
	}
}
