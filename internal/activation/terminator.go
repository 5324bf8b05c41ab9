package activation

import (
	"fmt"
	"log/slog"
	"syscall"

	"golang.org/x/sys/unix"
)

// RunTerminator is the body of the detached child: sleep until end,
// then deliver signo to its own process group. It outlives its parent
// on purpose; init reaps it.
func RunTerminator(end int64, signo syscall.Signal, log *slog.Logger) error {
	if log != nil {
		log.Debug("terminator: waiting", "end", end, "signo", int(signo))
	}

	waitUntil(end)

	pgid, err := unix.Getpgid(0)
	if err != nil {
		return fmt.Errorf("terminator: getpgid: %w", err)
	}
	if err := unix.Kill(-pgid, signo); err != nil {
		return fmt.Errorf("terminator: signal group %d: %w", pgid, err)
	}
	return nil
}
