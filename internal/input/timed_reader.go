package input

import (
	"io"
	"os"
	"time"
)

// pumpBufSize bounds a single read issued by the pump goroutine.
const pumpBufSize = 32 * 1024

type readResult struct {
	data []byte
	err  error
}

// TimedReader serializes reads of an io.Reader through a pump goroutine so
// callers can bound how long they wait for the next piece of data. A read
// that outlives its deadline stays pending inside the pump and its result is
// delivered by a later call, so no bytes are ever dropped.
//
// TimedReader is not safe for concurrent use; the chunker is its only caller.
type TimedReader struct {
	reqCh    chan int
	resCh    chan readResult
	pending  bool
	leftover []byte
	err      error
}

// NewTimedReader wraps r. The pump goroutine lives for the remainder of the
// process; the last outstanding read may block inside r until exit.
func NewTimedReader(r io.Reader) *TimedReader {
	t := &TimedReader{
		reqCh: make(chan int),
		resCh: make(chan readResult),
	}
	go t.pump(r)
	return t
}

func (t *TimedReader) pump(r io.Reader) {
	buf := make([]byte, pumpBufSize)
	for max := range t.reqCh {
		if max > len(buf) {
			max = len(buf)
		}
		n, err := r.Read(buf[:max])
		data := make([]byte, n)
		copy(data, buf[:n])
		t.resCh <- readResult{data: data, err: err}
		if err != nil {
			return
		}
	}
}

// Read fills p with the next available bytes. A zero deadline blocks until
// data arrives or the stream ends. When the deadline passes first, Read
// returns os.ErrDeadlineExceeded and leaves the outstanding read pending.
func (t *TimedReader) Read(p []byte, deadline time.Time) (int, error) {
	if len(t.leftover) > 0 {
		n := copy(p, t.leftover)
		t.leftover = t.leftover[n:]
		return n, nil
	}
	if t.err != nil {
		return 0, t.err
	}
	if !t.pending {
		t.reqCh <- len(p)
		t.pending = true
	}

	if deadline.IsZero() {
		return t.deliver(p, <-t.resCh)
	}

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case res := <-t.resCh:
		return t.deliver(p, res)
	case <-timer.C:
		return 0, os.ErrDeadlineExceeded
	}
}

// deliver copies a pump result into p, stashing any overflow for the next
// call. Errors become sticky once the stashed data has drained.
func (t *TimedReader) deliver(p []byte, res readResult) (int, error) {
	t.pending = false
	t.err = res.err

	n := copy(p, res.data)
	if n < len(res.data) {
		t.leftover = res.data[n:]
	}
	if n > 0 {
		return n, nil
	}
	return 0, res.err
}
