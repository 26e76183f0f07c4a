// Package singleton terminates other running instances of the program so at
// most one is active per session. The guard is best-effort: every failure is
// logged and swallowed, it is never a correctness requirement for the rest
// of the system.
package singleton

import (
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const (
	// exitPollAttempts bounds how long we wait for a terminated instance
	// to actually exit before force-killing it.
	exitPollAttempts = 6
	exitPollInterval = 500 * time.Millisecond
)

// Kill finds other processes whose command line matches this program's name,
// asks them to terminate, and force-kills any still alive after a short
// grace period. Runs before any configuration is read.
func Kill(logger *slog.Logger) {
	name := filepath.Base(os.Args[0])

	out, err := exec.Command("pgrep", "-f", name).Output()
	if err != nil {
		// pgrep exits non-zero when nothing matches; either way there is
		// nothing to terminate.
		logger.Debug("could not query running instances", "error", err)
		return
	}

	pids := parsePIDs(string(out), os.Getpid())
	if len(pids) == 0 {
		return
	}

	for _, pid := range pids {
		logger.Debug("terminating existing instance", "pid", pid)
		if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
			logger.Debug("failed to signal instance", "pid", pid, "error", err)
		}
	}

	alive := pids
	for attempt := 0; attempt < exitPollAttempts; attempt++ {
		alive = stillAlive(alive)
		if len(alive) == 0 {
			return
		}
		time.Sleep(exitPollInterval)
	}

	for _, pid := range alive {
		logger.Debug("force-killing existing instance", "pid", pid)
		if err := syscall.Kill(pid, syscall.SIGKILL); err != nil {
			logger.Debug("failed to kill instance", "pid", pid, "error", err)
		}
	}
}

// parsePIDs extracts PIDs from pgrep output, excluding the current process.
func parsePIDs(out string, self int) []int {
	var pids []int
	for _, field := range strings.Fields(out) {
		pid, err := strconv.Atoi(field)
		if err != nil || pid == self {
			continue
		}
		pids = append(pids, pid)
	}
	return pids
}

// stillAlive filters pids down to the ones that still exist, using the null
// signal as an existence probe.
func stillAlive(pids []int) []int {
	var alive []int
	for _, pid := range pids {
		if syscall.Kill(pid, 0) == nil {
			alive = append(alive, pid)
		}
	}
	return alive
}
