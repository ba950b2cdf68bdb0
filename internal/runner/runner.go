// Package runner invokes one diagnostic sub-test as a bounded-time
// subprocess of the vendor diagnostic tool.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/hsmtools/hsmcheck/internal/probe"
)

// Runner shells out to the vendor diagnostic tool for a fixed slot.
type Runner struct {
	diagTool  string
	slot      int
	timeLimit time.Duration
}

// New creates a runner for the given tool path, slot, and per-probe
// time limit.
func New(diagTool string, slot int, timeLimit time.Duration) *Runner {
	return &Runner{diagTool: diagTool, slot: slot, timeLimit: timeLimit}
}

// Run executes `<diagTool> -s=<slot> -c=<probeID>` once, capturing
// stdout and stderr separately. The process gets a hard wall-clock
// deadline; on expiry it is killed best-effort and the result reports
// TimedOut with empty output. A process that cannot be started reports
// LaunchErr. The tool's exit status is deliberately ignored: it
// signals problems on stderr, not through its return code. No retries.
func (r *Runner) Run(ctx context.Context, probeID int) *probe.Result {
	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeLimit)
	defer cancel()

	cmd := exec.CommandContext(timeoutCtx, r.diagTool,
		fmt.Sprintf("-s=%d", r.slot), fmt.Sprintf("-c=%d", probeID))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Don't wait on the output pipes forever if a grandchild of the
	// diagnostic tool inherits them and outlives the kill.
	cmd.WaitDelay = time.Second

	slog.Debug("running diagnostic", "tool", r.diagTool, "slot", r.slot, "probe", probeID)

	err := cmd.Run()

	if timeoutCtx.Err() == context.DeadlineExceeded {
		// CommandContext already killed the child; a second kill is
		// a no-op safety net and its failure is swallowed.
		if cmd.Process != nil {
			if killErr := cmd.Process.Kill(); killErr != nil {
				slog.Debug("kill after deadline", "probe", probeID, "error", killErr)
			}
		}
		return &probe.Result{ProbeID: probeID, TimedOut: true}
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			slog.Debug("diagnostic failed to launch", "probe", probeID, "error", err)
			return &probe.Result{ProbeID: probeID, LaunchErr: err}
		}
	}

	slog.Debug("diagnostic finished",
		"probe", probeID,
		"stdout_bytes", stdout.Len(),
		"stderr_bytes", stderr.Len(),
	)

	return &probe.Result{
		ProbeID: probeID,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
}
