package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ll0s0ll/TimeManager/internal/activation"
	"github.com/ll0s0ll/TimeManager/internal/config"
	"github.com/ll0s0ll/TimeManager/internal/crontab"
	"github.com/ll0s0ll/TimeManager/internal/history"
	"github.com/ll0s0ll/TimeManager/internal/logger"
	"github.com/ll0s0ll/TimeManager/internal/registry"
	"github.com/ll0s0ll/TimeManager/internal/schedule"
	"github.com/ll0s0ll/TimeManager/internal/semaphore"
)

// command binds the sub-command bodies together. Methods take flag
// structs so they stay testable without cobra.
type command struct {
	global *GlobalFlags

	// stdio overrides for tests
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// br buffers stdin once for the whole invocation, so a command
	// that reads the schedule line and a later passthrough (set: add
	// then activate) never lose buffered bytes between them.
	br *bufio.Reader
}

// toolbox is the per-invocation runtime: resolved config, logger, the
// registry store and its locker, and the optional history sink.
type toolbox struct {
	cfg    *config.Config
	log    *slog.Logger
	store  *registry.Store
	locker *registry.Locker
	hist   *history.Sink
}

func (tb *toolbox) close() {
	_ = tb.hist.Close()
}

func (c *command) in() *bufio.Reader {
	if c.br == nil {
		src := c.stdin
		if src == nil {
			src = os.Stdin
		}
		c.br = bufio.NewReader(src)
	}
	return c.br
}

func (c *command) out() io.Writer {
	if c.stdout != nil {
		return c.stdout
	}
	return os.Stdout
}

func (c *command) errw() io.Writer {
	if c.stderr != nil {
		return c.stderr
	}
	return os.Stderr
}

func (c *command) newToolbox() (*toolbox, error) {
	cfg, err := config.Load(c.global.ConfigPath, c.global.Database)
	if err != nil {
		if errors.Is(err, config.ErrInvalidDatabase) {
			return nil, misuse(err)
		}
		return nil, failure(err)
	}

	log := logger.New(c.errw(), c.global.Verbose)
	log.Debug("resolved registry", "shm", cfg.ShmName(), "sem", cfg.SemName())

	store := &registry.Store{Name: cfg.ShmName(), Log: log}
	locker := &registry.Locker{
		Store:   store,
		Sem:     &semaphore.Semaphore{Name: cfg.SemName()},
		Timeout: cfg.LockTimeout,
	}

	var hist *history.Sink
	if cfg.HistoryDSN != "" {
		hist, err = history.Open(cfg.HistoryDSN)
		if err != nil {
			return nil, failure(err)
		}
	}

	return &toolbox{cfg: cfg, log: log, store: store, locker: locker, hist: hist}, nil
}

func (c *command) activator(tb *toolbox, signo int) *activation.Activator {
	var extra []string
	if c.global.Verbose {
		extra = append(extra, "-v")
	}
	return &activation.Activator{
		Store:      tb.store,
		Locker:     tb.locker,
		Log:        tb.log,
		Signo:      syscall.Signal(signo),
		SpawnExtra: extra,
	}
}

// readFirstLine takes the schedule line off buffered stdin; the
// remainder stays in the shared reader for passthrough.
func (c *command) readFirstLine() (string, error) {
	line, err := c.in().ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", failure(fmt.Errorf("reading stdin: %w", err))
	}
	if line == "" {
		return "", misuse(errors.New("no schedule on stdin"))
	}
	return line, nil
}

// Add reads start:duration:caption from stdin and upserts the entry
// owned by the caller's process group.
func (c *command) Add() error {
	tb, err := c.newToolbox()
	if err != nil {
		return err
	}
	defer tb.close()

	line, err := c.readFirstLine()
	if err != nil {
		return err
	}
	in, err := schedule.ParseInput(line)
	if err != nil {
		return misuse(err)
	}
	in.Pgid = tb.locker.Owner()

	if now := time.Now().Unix(); in.End() < now {
		return misuse(fmt.Errorf("past schedule: current %d, new end %d", now, in.End()))
	}

	if err := tb.locker.Lock(); err != nil {
		return failure(err)
	}

	scheds, err := tb.store.Load()
	if err != nil {
		_ = tb.locker.Unlock()
		return failure(err)
	}

	if schedule.Conflicts(in, scheds) {
		_ = tb.locker.Unlock()
		return failure(errors.New("double booking"))
	}

	if s := schedule.FindByPgid(in.Pgid, scheds); s != nil {
		s.Start = in.Start
		s.Duration = in.Duration
		s.Caption = in.Caption
	} else {
		if len(scheds) >= registry.MaxSchedules {
			_ = tb.locker.Unlock()
			return failure(registry.ErrFull)
		}
		scheds = append(scheds, in)
	}

	if err := tb.store.Save(scheds); err != nil {
		_ = tb.locker.Unlock()
		return failure(err)
	}
	if err := tb.locker.Unlock(); err != nil {
		return failure(err)
	}

	if err := tb.hist.Record(context.Background(), history.Event{
		Pgid: in.Pgid, Op: "add", Start: in.Start, Duration: in.Duration, Caption: in.Caption,
	}); err != nil {
		tb.log.Debug("history record failed", "err", err)
	}
	return nil
}

// Activate binds the caller's entry to wall-clock time and blocks
// through the window.
func (c *command) Activate(f ActivateFlags) error {
	tb, err := c.newToolbox()
	if err != nil {
		return err
	}
	defer tb.close()

	if tb.hist != nil {
		if scheds, err := tb.store.Load(); err == nil {
			if s := schedule.FindByPgid(tb.locker.Owner(), scheds); s != nil {
				_ = tb.hist.Record(context.Background(), history.Event{
					Pgid: s.Pgid, Op: "activate", Start: s.Start, Duration: s.Duration, Caption: s.Caption,
				})
			}
		}
	}

	a := c.activator(tb, f.Signo)
	a.Stdin = c.in()
	a.Stdout = c.out()
	if err := a.Activate(); err != nil {
		if errors.Is(err, activation.ErrNoSchedule) {
			return misuse(err)
		}
		return failure(err)
	}
	return nil
}

// Set is add followed by activate; either failing terminates the
// caller's process group before reporting failure.
func (c *command) Set(f ActivateFlags) error {
	if err := c.Add(); err != nil {
		_ = c.Terminate()
		return failure(err)
	}
	if err := c.Activate(f); err != nil {
		_ = c.Terminate()
		return failure(err)
	}
	return nil
}

// Schedule prints registry entries. The default view skips entries that
// were never activated; -a prints every entry as a full record, -r
// prints every entry in schedule-string form.
func (c *command) Schedule(f ScheduleFlags) error {
	tb, err := c.newToolbox()
	if err != nil {
		return err
	}
	defer tb.close()

	scheds, err := tb.store.Load()
	if err != nil {
		return failure(err)
	}
	schedule.SortByStart(scheds)

	w := bufio.NewWriter(c.out())
	for _, s := range scheds {
		// The human view shows only activated schedules; the machine
		// forms print everything.
		if !f.All && !f.Raw && s.Terminator == 0 {
			continue
		}
		switch {
		case f.All:
			_, _ = w.WriteString(schedule.EncodeRecord(s))
		case f.Raw:
			_, _ = w.WriteString(schedule.FormatInput(s))
		default:
			_, _ = fmt.Fprintln(w, schedule.HumanString(s))
		}
	}
	if err := w.Flush(); err != nil {
		return failure(err)
	}
	return nil
}

// Unoccupied emits the first free window of the search range applied to
// the stdin schedule, then flushes the rest of stdin through.
func (c *command) Unoccupied(f UnoccupiedFlags) error {
	tb, err := c.newToolbox()
	if err != nil {
		return err
	}
	defer tb.close()

	line, err := c.readFirstLine()
	if err != nil {
		return err
	}
	in, err := schedule.ParseInput(line)
	if err != nil {
		return misuse(err)
	}

	begin := f.Begin
	if begin < 0 {
		begin = time.Now().Unix()
	}

	// Load under the lock and save right back: the liveness sweep in
	// Load becomes persistent before the gap search runs.
	if err := tb.locker.Lock(); err != nil {
		return failure(err)
	}
	scheds, err := tb.store.Load()
	if err != nil {
		_ = tb.locker.Unlock()
		return failure(err)
	}
	if err := tb.store.Save(scheds); err != nil {
		_ = tb.locker.Unlock()
		return failure(err)
	}
	if err := tb.locker.Unlock(); err != nil {
		return failure(err)
	}

	gaps := schedule.Unoccupied(scheds, begin, f.Range, tb.locker.Owner(), schedule.DefaultCaption)
	if len(gaps) == 0 {
		return notFound(errors.New("no unoccupied schedule found"))
	}

	gap := gaps[0]
	if in.Duration > gap.Duration {
		return notFound(errors.New("too long duration"))
	}
	dur := gap.Duration
	if in.Duration != 0 {
		dur = in.Duration
	}
	if _, err := fmt.Fprintf(c.out(), "%d:%d:%s\n", gap.Start, dur, in.Caption); err != nil {
		return failure(err)
	}

	if _, err := io.Copy(c.out(), c.in()); err != nil {
		return failure(err)
	}
	return nil
}

// Crontab rewrites the stdin schedule's start to the first firing of the
// positional cron expression inside the search range, then flushes the
// rest of stdin.
func (c *command) Crontab(f CrontabFlags, expr string) error {
	tb, err := c.newToolbox()
	if err != nil {
		return err
	}
	defer tb.close()

	line, err := c.readFirstLine()
	if err != nil {
		return err
	}
	in, err := schedule.ParseInput(line)
	if err != nil {
		return misuse(err)
	}

	next, err := crontab.Next(expr, time.Now(),
		time.Duration(f.RangeBackward)*time.Second,
		time.Duration(f.RangeForward)*time.Second)
	if err != nil {
		if errors.Is(err, crontab.ErrNotFound) {
			return notFound(err)
		}
		return misuse(err)
	}

	if _, err := fmt.Fprintf(c.out(), "%d:%d:%s\n", next.Unix(), in.Duration, in.Caption); err != nil {
		return failure(err)
	}
	if _, err := io.Copy(c.out(), c.in()); err != nil {
		return failure(err)
	}
	return nil
}

// Lock takes the registry write lock for the caller's process group.
func (c *command) Lock(f LockFlags) error {
	tb, err := c.newToolbox()
	if err != nil {
		return err
	}
	defer tb.close()

	if f.Timeout > 0 {
		tb.locker.Timeout = time.Duration(f.Timeout) * time.Second
	}
	if err := tb.locker.Lock(); err != nil {
		if errors.Is(err, semaphore.ErrTimeout) {
			return timedOut(err)
		}
		return failure(err)
	}
	return nil
}

// Unlock releases the registry write lock.
func (c *command) Unlock() error {
	tb, err := c.newToolbox()
	if err != nil {
		return err
	}
	defer tb.close()

	if err := tb.locker.Unlock(); err != nil {
		return failure(err)
	}
	return nil
}

// Reset unlinks the shared memory segment and the semaphore.
func (c *command) Reset() error {
	tb, err := c.newToolbox()
	if err != nil {
		return err
	}
	defer tb.close()

	if err := tb.store.Unlink(); err != nil {
		return failure(err)
	}
	if err := tb.locker.Sem.Unlink(); err != nil {
		return failure(err)
	}
	return nil
}

// Terminate sends SIGTERM to the caller's process group, provided it
// owns a registry entry.
func (c *command) Terminate() error {
	tb, err := c.newToolbox()
	if err != nil {
		return err
	}
	defer tb.close()

	scheds, err := tb.store.Load()
	if err != nil {
		return failure(err)
	}
	s := schedule.FindByPgid(tb.locker.Owner(), scheds)
	if s == nil {
		return misuse(fmt.Errorf("no schedule for pgid %d", tb.locker.Owner()))
	}

	_ = tb.hist.Record(context.Background(), history.Event{
		Pgid: s.Pgid, Op: "terminate", Start: s.Start, Duration: s.Duration, Caption: s.Caption,
	})

	if err := unix.Kill(-s.Pgid, syscall.SIGTERM); err != nil {
		return failure(fmt.Errorf("signal group %d: %w", s.Pgid, err))
	}
	return nil
}

// Autoextend detaches the extension loop and returns immediately.
func (c *command) Autoextend(f AutoextendFlags) error {
	if _, err := c.newToolbox(); err != nil {
		return err // surface config misuse before detaching
	}

	extra := []string{
		"-i", fmt.Sprintf("%d", f.Interval),
		"-r", fmt.Sprintf("%d", f.Range),
	}
	if c.global.Database != 0 {
		extra = append(extra, "-d", fmt.Sprintf("%d", c.global.Database))
	}
	if c.global.Verbose {
		extra = append(extra, "-v")
	}
	if f.MetricsListen != "" {
		extra = append(extra, "--metrics-listen", f.MetricsListen)
	}
	if f.LogFile != "" {
		extra = append(extra, "--log-file", f.LogFile)
	}

	pid, err := activation.SpawnLoop(extra)
	if err != nil {
		return failure(err)
	}
	logger.New(c.errw(), c.global.Verbose).Debug("autoextend loop started", "pid", pid)
	return nil
}

// RunAutoextendLoop is the body of the hidden autoextend-loop command.
func (c *command) RunAutoextendLoop(f AutoextendFlags) error {
	tb, err := c.newToolbox()
	if err != nil {
		return err
	}
	defer tb.close()

	if f.LogFile != "" {
		tb.log = logger.New(logger.FileWriter(f.LogFile), c.global.Verbose)
		tb.store.Log = tb.log
	}

	listen := f.MetricsListen
	if listen == "" {
		listen = tb.cfg.MetricsListen
	}

	a := c.activator(tb, 0)
	a.Log = tb.log
	lp := &activation.Loop{
		Activator:     a,
		Interval:      time.Duration(f.Interval) * time.Second,
		Range:         time.Duration(f.Range) * time.Second,
		Log:           tb.log,
		MetricsListen: listen,
	}
	if err := lp.Run(); err != nil {
		return failure(err)
	}
	return nil
}

// RunTerminator is the body of the hidden terminator command.
func (c *command) RunTerminator(f TerminatorFlags) error {
	log := logger.New(c.errw(), c.global.Verbose)
	if err := activation.RunTerminator(f.End, syscall.Signal(f.Signo), log); err != nil {
		return failure(err)
	}
	return nil
}

// History lists recorded schedule events, most recent first.
func (c *command) History(f HistoryFlags) error {
	tb, err := c.newToolbox()
	if err != nil {
		return err
	}
	defer tb.close()

	if tb.hist == nil {
		return failure(errors.New("history is disabled: no history_dsn configured"))
	}

	events, err := tb.hist.List(context.Background(), f.Limit)
	if err != nil {
		return failure(err)
	}
	w := bufio.NewWriter(c.out())
	for _, e := range events {
		_, _ = fmt.Fprintf(w, "%s %d %s %d:%d:%s\n",
			e.OccurredAt.Local().Format(time.RFC3339), e.Pgid, e.Op, e.Start, e.Duration, e.Caption)
	}
	if err := w.Flush(); err != nil {
		return failure(err)
	}
	return nil
}
