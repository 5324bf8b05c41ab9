package registry

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ll0s0ll/TimeManager/internal/schedule"
	"github.com/ll0s0ll/TimeManager/internal/semaphore"
)

// Locker implements the registry write-lock protocol for one process
// group: the named semaphore provides mutual exclusion, the lock field
// in the owner's record is advisory bookkeeping lagging by at most one
// save.
type Locker struct {
	Store *Store
	Sem   *semaphore.Semaphore
	// Timeout bounds the semaphore wait. Non-positive means the
	// semaphore default.
	Timeout time.Duration
	// Pgid overrides the caller's process group, for tests. Zero means
	// the calling process's own group.
	Pgid int
}

// Owner returns the process group the locker acts for.
func (l *Locker) Owner() int { return l.pgid() }

func (l *Locker) pgid() int {
	if l.Pgid != 0 {
		return l.Pgid
	}
	pgid, err := unix.Getpgid(0)
	if err != nil {
		return unix.Getpid()
	}
	return pgid
}

// Lock acquires the write lock. A second Lock from the same process
// group while holding returns immediately without touching the
// semaphore. Returns semaphore.ErrTimeout when the holder does not
// release in time.
func (l *Locker) Lock() error {
	pgid := l.pgid()

	scheds, err := l.Store.Load()
	if err != nil {
		return err
	}
	if s := schedule.FindByPgid(pgid, scheds); s != nil && s.Lock {
		l.Store.logger().Debug("lock: already held", "pgid", pgid)
		return nil
	}

	if err := l.Sem.Acquire(l.Timeout); err != nil {
		return err
	}

	scheds, err = l.Store.Load()
	if err != nil {
		return err
	}
	if s := schedule.FindByPgid(pgid, scheds); s != nil {
		s.Lock = true
	} else {
		if len(scheds) >= MaxSchedules {
			return ErrFull
		}
		scheds = append(scheds, &schedule.Schedule{
			Pgid:    pgid,
			Lock:    true,
			Caption: schedule.DefaultCaption,
		})
	}
	return l.Store.Save(scheds)
}

// Unlock releases the write lock. Unlocking a group that holds no lock
// succeeds. When posting the semaphore fails, the lock field is
// restored so bookkeeping matches the still-held semaphore.
func (l *Locker) Unlock() error {
	pgid := l.pgid()

	scheds, err := l.Store.Load()
	if err != nil {
		return err
	}
	s := schedule.FindByPgid(pgid, scheds)
	if s == nil || !s.Lock {
		l.Store.logger().Debug("unlock: no lock held", "pgid", pgid)
		return nil
	}

	s.Lock = false
	if err := l.Store.Save(scheds); err != nil {
		return err
	}

	if err := l.Sem.Post(); err != nil {
		l.restoreLock(pgid)
		return fmt.Errorf("registry: release lock: %w", err)
	}
	return nil
}

// restoreLock re-marks pgid's record as locked after a failed post.
func (l *Locker) restoreLock(pgid int) {
	scheds, err := l.Store.Load()
	if err != nil {
		return
	}
	s := schedule.FindByPgid(pgid, scheds)
	if s == nil || s.Lock {
		return
	}
	s.Lock = true
	_ = l.Store.Save(scheds)
}
