// Package activation binds a process group's schedule to wall-clock
// time: it installs a terminator child that signals the group at window
// end, blocks the caller until window start, and passes stdin through
// to stdout while the window lasts.
package activation

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ll0s0ll/TimeManager/internal/registry"
	"github.com/ll0s0ll/TimeManager/internal/schedule"
)

// DefaultSignal is delivered to the process group at window end when no
// -s flag chose another one.
const DefaultSignal = syscall.SIGTERM

// ErrNoSchedule means the caller's process group has no registry entry
// to activate, a usage error.
var ErrNoSchedule = errors.New("activation: no schedule for this process group")

// Activator runs the activation sequence for the calling process group.
type Activator struct {
	Store  *registry.Store
	Locker *registry.Locker
	Log    *slog.Logger

	// Signo is the end-of-window signal. Zero means DefaultSignal.
	Signo syscall.Signal

	// SpawnExtra is appended to the hidden terminator command line,
	// forwarding flags such as -v.
	SpawnExtra []string

	// Spawn overrides terminator creation, for tests. It returns the
	// pid of the child that will signal the group at end.
	Spawn func(end int64, signo syscall.Signal) (int, error)

	// Stdin/Stdout override the passthrough endpoints, for tests.
	Stdin  io.Reader
	Stdout io.Writer

	handlersOnce sync.Once
	chldOnce     sync.Once
}

func (a *Activator) signo() syscall.Signal {
	if a.Signo != 0 {
		return a.Signo
	}
	return DefaultSignal
}

func (a *Activator) logger() *slog.Logger {
	if a.Log != nil {
		return a.Log
	}
	return slog.Default()
}

// installHandlers arranges that interrupt, termination and quit release
// the registry lock best-effort and exit with 128+signum, so a caller
// killed while sleeping before window start does not leak the lock.
func (a *Activator) installHandlers() {
	a.handlersOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
		go func() {
			sig := <-ch
			_ = a.Locker.Unlock()
			code := 128
			if s, ok := sig.(syscall.Signal); ok {
				code += int(s)
			}
			os.Exit(code)
		}()
	})
}

// Activate performs the sequence under lock-then-unlock: cancel any
// stale terminator, install the new one, persist its pid, release the
// lock, sleep to start, then copy stdin to stdout until EOF.
func (a *Activator) Activate() error {
	a.installHandlers()
	// Terminator children are not waited on; let the kernel reap them.
	a.chldOnce.Do(func() { signal.Ignore(syscall.SIGCHLD) })

	// Lock creates a stub record for a group that has none, so the
	// entry must be found before the lock is taken.
	existing, err := a.Store.Load()
	if err != nil {
		return err
	}
	if schedule.FindByPgid(a.Locker.Owner(), existing) == nil {
		return ErrNoSchedule
	}

	if err := a.Locker.Lock(); err != nil {
		return fmt.Errorf("activation: %w", err)
	}

	scheds, err := a.Store.Load()
	if err != nil {
		_ = a.Locker.Unlock()
		return err
	}

	s := schedule.FindByPgid(a.Locker.Owner(), scheds)
	if s == nil {
		_ = a.Locker.Unlock()
		return ErrNoSchedule
	}
	a.logger().Debug("activation: found schedule",
		"pgid", s.Pgid, "start", s.Start, "duration", s.Duration, "terminator", s.Terminator)

	// A second activation reschedules: cancel the previous terminator
	// so the new child owns the window end.
	if s.Terminator != 0 {
		if err := unix.Kill(s.Terminator, syscall.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
			_ = a.Locker.Unlock()
			return fmt.Errorf("activation: cancel terminator %d: %w", s.Terminator, err)
		}
	}

	pid, err := a.spawn(s.End())
	if err != nil {
		_ = a.Locker.Unlock()
		return err
	}

	s.Terminator = pid
	if err := a.Store.Save(scheds); err != nil {
		_ = a.Locker.Unlock()
		return err
	}
	if err := a.Locker.Unlock(); err != nil {
		return err
	}

	waitUntil(s.Start)

	return a.passthrough()
}

func (a *Activator) spawn(end int64) (int, error) {
	if a.Spawn != nil {
		return a.Spawn(end, a.signo())
	}
	return spawnTerminator(end, a.signo(), a.SpawnExtra)
}

// spawnTerminator re-executes the binary with the hidden terminator
// command. The child stays in the caller's process group with stdin and
// stdout detached, and is never waited on.
func spawnTerminator(end int64, signo syscall.Signal, extra []string) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("activation: locate binary: %w", err)
	}

	args := []string{"terminator",
		"--end", strconv.FormatInt(end, 10),
		"--signo", strconv.Itoa(int(signo)),
	}
	args = append(args, extra...)

	cmd := exec.Command(exe, args...)
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("activation: start terminator: %w", err)
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()
	return pid, nil
}

func (a *Activator) passthrough() error {
	in := a.Stdin
	if in == nil {
		in = os.Stdin
	}
	out := a.Stdout
	if out == nil {
		out = os.Stdout
	}
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("activation: passthrough: %w", err)
	}
	return nil
}

// waitUntil sleeps until the wall clock reaches t. A moment already in
// the past returns immediately; the sleep never undershoots.
func waitUntil(t int64) {
	if d := time.Until(time.Unix(t, 0)); d > 0 {
		time.Sleep(d)
	}
}
