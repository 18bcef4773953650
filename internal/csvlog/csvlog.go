// Package csvlog writes simulation CSV output. The Logger is the buffered
// per-run continuous log; the package-level WriteHeader/AppendRow functions
// serve result files shared between concurrent worker processes, serialized
// with an advisory file lock.
package csvlog

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// Logger is a buffered CSV writer owned by a single process. Every row is
// stamped with the wall-clock epoch time in its first column.
type Logger struct {
	f *os.File
	b *bufio.Writer
	w *csv.Writer
}

// Create truncates path and writes the header, with epoch_time prepended.
func Create(path string, header []string) (*Logger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csvlog: create %q: %w", path, err)
	}
	b := bufio.NewWriterSize(f, 1<<16)
	l := &Logger{f: f, b: b, w: csv.NewWriter(b)}
	if err := l.w.Write(append([]string{"epoch_time"}, header...)); err != nil {
		f.Close()
		return nil, fmt.Errorf("csvlog: header %q: %w", path, err)
	}
	return l, nil
}

func (l *Logger) Append(row []string) error {
	stamp := strconv.FormatFloat(float64(time.Now().UnixNano())/1e9, 'f', 6, 64)
	return l.w.Write(append([]string{stamp}, row...))
}

func (l *Logger) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.f.Close()
		return err
	}
	if err := l.b.Flush(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}

// withLock runs fn while holding an exclusive advisory lock on f.
func withLock(f *os.File, fn func() error) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("csvlog: lock %q: %w", f.Name(), err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)
	return fn()
}

// WriteHeader makes sure the shared file at path exists and starts with the
// given header. An already-populated file is left untouched, so any worker
// can call this without racing the others.
func WriteHeader(path string, header []string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("csvlog: open %q: %w", path, err)
	}
	defer f.Close()
	return withLock(f, func() error {
		fi, err := f.Stat()
		if err != nil {
			return err
		}
		if fi.Size() > 0 {
			return nil
		}
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return err
		}
		w.Flush()
		return w.Error()
	})
}

// AppendRow appends one row to the shared file at path under the lock.
func AppendRow(path string, row []string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("csvlog: open %q: %w", path, err)
	}
	defer f.Close()
	return withLock(f, func() error {
		w := csv.NewWriter(f)
		if err := w.Write(row); err != nil {
			return err
		}
		w.Flush()
		return w.Error()
	})
}
