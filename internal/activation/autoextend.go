package activation

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/ll0s0ll/TimeManager/internal/metrics"
	"github.com/ll0s0ll/TimeManager/internal/schedule"
)

// Autoextend loop defaults.
const (
	DefaultInterval = 1 * time.Second
	DefaultRange    = 3600 * time.Second
)

// SpawnLoop detaches the autoextend loop as a child in the caller's
// process group, re-executing the binary with the hidden
// autoextend-loop command, and returns the child's pid.
func SpawnLoop(extra []string) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("autoextend: locate binary: %w", err)
	}

	cmd := exec.Command(exe, append([]string{"autoextend-loop"}, extra...)...)
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("autoextend: start loop: %w", err)
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()
	return pid, nil
}

// Loop extends the caller's schedule into abutting free time and
// re-activates it on every tick.
type Loop struct {
	Activator *Activator
	Interval  time.Duration
	Range     time.Duration
	Log       *slog.Logger

	// MetricsListen exposes the loop's Prometheus counters when set.
	MetricsListen string
}

func (lp *Loop) logger() *slog.Logger {
	if lp.Log != nil {
		return lp.Log
	}
	return slog.Default()
}

// Run iterates until an error stops the loop. Each iteration takes the
// lock, grows the entry's duration by any gap that starts exactly at
// its current end, saves, and re-activates so a fresh terminator owns
// the new window end. The lock taken here is released inside Activate.
func (lp *Loop) Run() error {
	if lp.Interval <= 0 {
		lp.Interval = DefaultInterval
	}
	if lp.Range <= 0 {
		lp.Range = DefaultRange
	}
	if lp.MetricsListen != "" {
		metrics.Serve(lp.MetricsListen)
	}

	locker := lp.Activator.Locker
	for {
		if err := locker.Lock(); err != nil {
			metrics.IncLockFailures()
			return fmt.Errorf("autoextend: %w", err)
		}

		scheds, err := lp.Activator.Store.Load()
		if err != nil {
			_ = locker.Unlock()
			return err
		}
		s := schedule.FindByPgid(locker.Owner(), scheds)
		if s == nil {
			_ = locker.Unlock()
			return ErrNoSchedule
		}

		// Widen the search so the current entry abuts the first gap.
		interval := int64(lp.Interval / time.Second)
		begin := time.Now().Unix() - interval
		rangeDur := int64(lp.Range/time.Second) + interval

		gaps := schedule.Unoccupied(scheds, begin, rangeDur, s.Pgid, "")
		if Extend(s, gaps) {
			lp.logger().Debug("autoextend: extended",
				"pgid", s.Pgid, "start", s.Start, "duration", s.Duration)
			metrics.IncExtensions()
		}

		if err := lp.Activator.Store.Save(scheds); err != nil {
			_ = locker.Unlock()
			return err
		}

		// Reentrant lock inside; unlocks after the terminator is saved.
		if err := lp.Activator.Activate(); err != nil {
			_ = locker.Unlock()
			return err
		}
		metrics.IncActivations()

		time.Sleep(lp.Interval)
	}
}

// Extend grows s into every gap that begins exactly at its end and
// reports whether the duration changed.
func Extend(s *schedule.Schedule, gaps []*schedule.Schedule) bool {
	extended := false
	for _, g := range gaps {
		if s.End() == g.Start {
			s.Duration = g.End() - s.Start
			extended = true
		}
	}
	return extended
}
