package input

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FollowReader reads a growing file tail -f style. At end of file it waits
// for fsnotify write events instead of polling and resumes reading once the
// file has grown. The stream ends only when the file is removed or renamed
// away.
//
// The watch is on the parent directory, not the file: inotify only reports
// a self-remove once the last open descriptor closes, and FollowReader
// keeps the file open for its whole lifetime, so a watch on the file itself
// would never see the unlink.
type FollowReader struct {
	f       *os.File
	path    string
	watcher *fsnotify.Watcher
}

// OpenFollow opens path for following.
func OpenFollow(path string) (*FollowReader, error) {
	path = filepath.Clean(path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		f.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	return &FollowReader{f: f, path: path, watcher: watcher}, nil
}

// Read returns the next bytes from the file, blocking at end of file until
// more data is appended. A removed or renamed file reads as end of stream.
func (r *FollowReader) Read(p []byte) (int, error) {
	for {
		n, err := r.f.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && err != io.EOF {
			return 0, err
		}

		select {
		case event, ok := <-r.watcher.Events:
			if !ok {
				return 0, io.EOF
			}
			if filepath.Clean(event.Name) != r.path {
				continue
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				return 0, io.EOF
			}
		case werr, ok := <-r.watcher.Errors:
			if !ok {
				return 0, io.EOF
			}
			return 0, werr
		}

		// The wake-up may have raced with the unlink; recheck the path so
		// a removal is never missed.
		if _, err := os.Stat(r.path); err != nil {
			return 0, io.EOF
		}
	}
}

// Close releases the watcher and the underlying file.
func (r *FollowReader) Close() error {
	werr := r.watcher.Close()
	ferr := r.f.Close()
	if werr != nil {
		return werr
	}
	return ferr
}
