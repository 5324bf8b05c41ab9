// Package registry keeps the process-group schedule ledger in a named
// shared memory segment and mediates write access to it through the
// named semaphore.
package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/ll0s0ll/TimeManager/internal/schedule"
)

const (
	// SegmentSize is the fixed size of the shared memory segment.
	SegmentSize = 65536

	// MaxSchedules caps how many records a load will return.
	MaxSchedules = 1024
)

// ErrFull is returned when the registry cannot take another record.
var ErrFull = errors.New("registry: too many schedules")

// Store maps the named segment and converts between its textual
// contents and schedule records. It performs no locking itself;
// mutating callers go through Locker.
type Store struct {
	// Name is the segment name, "/shm_timemanager" style.
	Name string
	// Dir overrides the backing directory. Empty means /dev/shm.
	Dir string
	// Probe reports whether a process group is still alive. Nil uses a
	// null signal to the group.
	Probe func(pgid int) bool

	Log *slog.Logger
}

func (st *Store) path() string {
	dir := st.Dir
	if dir == "" {
		dir = "/dev/shm"
	}
	return filepath.Join(dir, strings.TrimPrefix(st.Name, "/"))
}

func (st *Store) alive(pgid int) bool {
	if st.Probe != nil {
		return st.Probe(pgid)
	}
	return unix.Kill(-pgid, 0) == nil
}

func (st *Store) logger() *slog.Logger {
	if st.Log != nil {
		return st.Log
	}
	return slog.Default()
}

// mmap maps the segment read/write, creating and sizing it first when absent.
func (st *Store) mmap() ([]byte, error) {
	f, err := os.OpenFile(st.path(), os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("registry: open %s: %w", st.Name, err)
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("registry: stat %s: %w", st.Name, err)
	}
	if fi.Size() < SegmentSize {
		if err := f.Truncate(SegmentSize); err != nil {
			return nil, fmt.Errorf("registry: size %s: %w", st.Name, err)
		}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, SegmentSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("registry: mmap %s: %w", st.Name, err)
	}
	return data, nil
}

// Load reads every record from the segment. Lines that fail to decode
// are skipped, and records whose owning process group no longer exists
// are dropped. The erasure becomes persistent on the next Save.
func (st *Store) Load() ([]*schedule.Schedule, error) {
	data, err := st.mmap()
	if err != nil {
		return nil, err
	}

	text := string(data)
	if i := bytes.IndexByte(data, 0); i >= 0 {
		text = string(data[:i])
	}
	if err := unix.Munmap(data); err != nil {
		return nil, fmt.Errorf("registry: munmap %s: %w", st.Name, err)
	}

	var scheds []*schedule.Schedule
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		s, err := schedule.ParseRecord(line)
		if err != nil {
			// Tolerated: a torn trailing line fails here and is dropped.
			st.logger().Debug("registry: skipping record", "err", err)
			continue
		}
		if !st.alive(s.Pgid) {
			st.logger().Debug("registry: dropping dead owner", "pgid", s.Pgid)
			continue
		}
		scheds = append(scheds, s)
		if len(scheds) >= MaxSchedules {
			break
		}
	}
	return scheds, nil
}

// Save rewrites the whole segment from scheds. It fails when the
// encoded records do not fit the segment.
func (st *Store) Save(scheds []*schedule.Schedule) error {
	var buf bytes.Buffer
	for _, s := range scheds {
		buf.WriteString(schedule.EncodeRecord(s))
	}
	if buf.Len() >= SegmentSize {
		return fmt.Errorf("registry: %d encoded bytes exceed segment size %d", buf.Len(), SegmentSize)
	}

	data, err := st.mmap()
	if err != nil {
		return err
	}
	for i := range data {
		data[i] = 0
	}
	copy(data, buf.Bytes())

	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("registry: munmap %s: %w", st.Name, err)
	}
	return nil
}

// Unlink removes the shared memory object. Absence is not an error.
func (st *Store) Unlink() error {
	if err := os.Remove(st.path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("registry: unlink %s: %w", st.Name, err)
	}
	return nil
}
