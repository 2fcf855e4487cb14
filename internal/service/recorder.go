// internal/service/recorder.go
package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RecordingTimeLayout is the timestamp pattern embedded in file names
const RecordingTimeLayout = "2006-01-02_15.04.05"

// RecordingTarget is the active raw-traffic file of a recording. It is
// written only by the running read task; the accessors are safe to call
// from other goroutines.
type RecordingTarget struct {
	folder   string
	prefix   string
	interval time.Duration
	clock    Clock

	mutex    sync.RWMutex
	file     *os.File
	path     string
	openedAt time.Time
	written  int64
}

// NewRecordingTarget creates the first file of a recording
func NewRecordingTarget(folder, prefix string, interval time.Duration, clock Clock) (*RecordingTarget, error) {
	if folder == "" {
		return nil, ErrFolderNotSet
	}

	t := &RecordingTarget{
		folder:   folder,
		prefix:   prefix,
		interval: interval,
		clock:    clock,
	}

	if err := t.open(clock.Now()); err != nil {
		return nil, err
	}
	return t, nil
}

// FileName returns the recording file name for a point in time
func FileName(prefix string, at time.Time) string {
	return prefix + at.Format(RecordingTimeLayout) + ".txt"
}

func (t *RecordingTarget) open(now time.Time) error {
	path := filepath.Join(t.folder, FileName(t.prefix, now))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return wrap(ErrFileCreateFailure, err)
	}

	t.mutex.Lock()
	t.file = file
	t.path = path
	t.openedAt = now
	t.written = 0
	t.mutex.Unlock()
	return nil
}

// Write appends raw bytes to the active file
func (t *RecordingTarget) Write(p []byte) error {
	t.mutex.RLock()
	file, path := t.file, t.path
	t.mutex.RUnlock()

	if file == nil {
		return wrap(ErrFileCreateFailure, fmt.Errorf("write %s: %w", path, os.ErrClosed))
	}

	n, err := file.Write(p)

	t.mutex.Lock()
	t.written += int64(n)
	t.mutex.Unlock()

	if err != nil {
		return wrap(ErrFileCreateFailure, fmt.Errorf("write %s: %w", path, err))
	}
	return nil
}

// RotateIfDue closes the active file and opens a new one once the
// rotation interval has elapsed. It returns the closed file's path.
// A failed reopen leaves the target without an active file.
func (t *RecordingTarget) RotateIfDue() (string, bool, error) {
	now := t.clock.Now()

	t.mutex.Lock()
	if t.file == nil || now.Sub(t.openedAt) < t.interval {
		t.mutex.Unlock()
		return "", false, nil
	}
	previous := t.path
	err := t.file.Close()
	t.file = nil
	t.mutex.Unlock()

	if err != nil {
		return previous, false, wrap(ErrFileCreateFailure, err)
	}
	if err := t.open(now); err != nil {
		return previous, false, err
	}
	return previous, true, nil
}

// Close closes the active file. Closing twice is a no-op.
func (t *RecordingTarget) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}

// Path returns the active file path
func (t *RecordingTarget) Path() string {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.path
}

// OpenedAt returns when the active file was opened
func (t *RecordingTarget) OpenedAt() time.Time {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.openedAt
}

// Written returns the bytes written to the active file
func (t *RecordingTarget) Written() int64 {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.written
}
