// Package chunker turns an unbounded byte stream into bounded,
// newline-aligned chunks and hands each chunk to an executor.
//
// The pending buffer holds the unflushed tail of the stream. A flush
// delivers everything up to and including the last pending newline; a flush
// is forced when the buffer fills, the idle deadline passes, or the stream
// ends. A line that fills the whole buffer without a newline is
// unrecoverable and aborts the run.
package chunker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ErrLineTooLong is returned when a single line fills the entire buffer
// with no newline, leaving nothing that can be flushed.
var ErrLineTooLong = errors.New("xpipe: line exceeds buffer capacity")

// Executor runs one command invocation with a chunk as its entire standard
// input. A nil return means the child consumed the chunk and exited cleanly.
type Executor interface {
	Exec(ctx context.Context, argv []string, chunk []byte) error
}

// Source yields input bytes. A zero deadline blocks until data arrives or
// the stream ends; otherwise Read returns os.ErrDeadlineExceeded once the
// deadline passes with nothing read.
type Source interface {
	Read(p []byte, deadline time.Time) (int, error)
}

// Params configures a Chunker.
type Params struct {
	// BufferSize is the pending buffer capacity in bytes. Must be positive.
	BufferSize int

	// IdleTimeout forces a flush decision when no data arrives for this
	// long after the first byte of a chunk. Only honored when HasIdleTimeout
	// is true; zero then means "never wait for more data".
	IdleTimeout time.Duration

	// HasIdleTimeout enables the idle deadline. When false the chunker
	// blocks indefinitely for input.
	HasIdleTimeout bool

	// Command is the argument vector executed once per chunk.
	Command []string

	Logger zerolog.Logger
}

// Chunker owns the pending buffer and drives the read/flush loop. It is
// strictly serial: one read or one child at a time, never both.
type Chunker struct {
	buf        []byte
	avail      int
	timeout    time.Duration
	hasTimeout bool
	argv       []string
	src        Source
	exec       Executor
	log        zerolog.Logger
}

// New creates a Chunker reading from src and flushing through exec.
func New(p Params, src Source, exec Executor) *Chunker {
	return &Chunker{
		buf:        make([]byte, p.BufferSize),
		timeout:    p.IdleTimeout,
		hasTimeout: p.HasIdleTimeout,
		argv:       p.Command,
		src:        src,
		exec:       exec,
		log:        p.Logger,
	}
}

// Run consumes the source until end of stream, delivering every byte to
// exactly one child invocation in order. It returns the first error
// encountered; nil means the stream was exhausted and all children exited
// cleanly.
//
// The idle deadline is armed once per chunk, at the first byte that arrives
// after a flush, and is not extended by later reads. When it fires without
// a complete line pending, the partial line is held and the deadline stays
// clear until new data arrives.
func (c *Chunker) Run(ctx context.Context) error {
	var deadline time.Time

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := c.src.Read(c.buf[c.avail:], deadline)
		if n > 0 {
			if c.hasTimeout && deadline.IsZero() {
				deadline = time.Now().Add(c.timeout)
			}
			c.avail += n
		}

		var timedOut bool
		if err != nil {
			switch {
			case errors.Is(err, os.ErrDeadlineExceeded):
				timedOut = true
			case errors.Is(err, io.EOF):
				return c.finish(ctx)
			default:
				return fmt.Errorf("read input: %w", err)
			}
		}

		if c.avail < len(c.buf) && !timedOut {
			continue
		}

		flushed, err := c.flushLines(ctx)
		if err != nil {
			return err
		}
		if !flushed && c.avail == len(c.buf) {
			return ErrLineTooLong
		}
		// Holding a partial line after a timeout leaves the deadline
		// clear; it is rearmed by the next byte.
		deadline = time.Time{}
	}
}

// flushLines delivers everything up to and including the last newline in
// the pending region, then shifts the remainder to the front. It reports
// whether anything was flushed; no pending newline is not an error here.
func (c *Chunker) flushLines(ctx context.Context) (bool, error) {
	end := bytes.LastIndexByte(c.buf[:c.avail], '\n')
	if end < 0 {
		return false, nil
	}
	use := end + 1

	if err := c.exec.Exec(ctx, c.argv, c.buf[:use]); err != nil {
		return false, err
	}
	c.log.Debug().Int("bytes", use).Int("held", c.avail-use).Msg("flushed chunk")

	c.avail = copy(c.buf, c.buf[use:c.avail])
	return true, nil
}

// finish flushes whatever is pending as the final chunk, newline or not.
func (c *Chunker) finish(ctx context.Context) error {
	if c.avail == 0 {
		return nil
	}
	if err := c.exec.Exec(ctx, c.argv, c.buf[:c.avail]); err != nil {
		return err
	}
	c.log.Debug().Int("bytes", c.avail).Msg("flushed final chunk")
	c.avail = 0
	return nil
}
