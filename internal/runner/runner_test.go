package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeTool writes a fake diagnostic tool script and returns its path.
func writeTool(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lunadiag")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunCapturesStdout(t *testing.T) {
	tool := writeTool(t, `echo "Test passed"`)
	r := New(tool, 1, 3*time.Second)

	res := r.Run(context.Background(), 3)
	if res.TimedOut {
		t.Error("unexpected timeout")
	}
	if res.LaunchErr != nil {
		t.Errorf("unexpected launch error: %v", res.LaunchErr)
	}
	if !strings.Contains(res.Stdout, "Test passed") {
		t.Errorf("stdout not captured: %q", res.Stdout)
	}
	if res.Stderr != "" {
		t.Errorf("unexpected stderr: %q", res.Stderr)
	}
	if res.ProbeID != 3 {
		t.Errorf("probe id = %d, want 3", res.ProbeID)
	}
}

func TestRunArgumentShape(t *testing.T) {
	tool := writeTool(t, `echo "args: $@"`)
	r := New(tool, 2, 3*time.Second)

	res := r.Run(context.Background(), 11)
	if !strings.Contains(res.Stdout, "-s=2") || !strings.Contains(res.Stdout, "-c=11") {
		t.Errorf("unexpected invocation arguments: %q", res.Stdout)
	}
}

func TestRunCapturesStderrSeparately(t *testing.T) {
	tool := writeTool(t, `echo "good output"
echo "device busy" 1>&2`)
	r := New(tool, 1, 3*time.Second)

	res := r.Run(context.Background(), 3)
	if !strings.Contains(res.Stdout, "good output") {
		t.Errorf("stdout not captured: %q", res.Stdout)
	}
	if !strings.Contains(res.Stderr, "device busy") {
		t.Errorf("stderr not captured: %q", res.Stderr)
	}
}

func TestRunIgnoresExitStatus(t *testing.T) {
	tool := writeTool(t, `echo "partial output"
exit 7`)
	r := New(tool, 1, 3*time.Second)

	res := r.Run(context.Background(), 3)
	if res.LaunchErr != nil {
		t.Errorf("non-zero exit must not be a launch failure: %v", res.LaunchErr)
	}
	if res.TimedOut {
		t.Error("unexpected timeout")
	}
	if !strings.Contains(res.Stdout, "partial output") {
		t.Errorf("output of failing tool not captured: %q", res.Stdout)
	}
}

func TestRunTimeout(t *testing.T) {
	tool := writeTool(t, `sleep 30`)
	r := New(tool, 1, 200*time.Millisecond)

	start := time.Now()
	res := r.Run(context.Background(), 3)
	elapsed := time.Since(start)

	if !res.TimedOut {
		t.Fatal("expected TimedOut")
	}
	if res.Stdout != "" || res.Stderr != "" {
		t.Errorf("timed-out result must have empty output, got %q / %q", res.Stdout, res.Stderr)
	}
	// Well under the 30s the child wanted: the deadline was enforced
	// and the process killed.
	if elapsed > 5*time.Second {
		t.Errorf("run took %s, deadline not enforced", elapsed)
	}
}

func TestRunLaunchFailureMissingBinary(t *testing.T) {
	r := New("/nonexistent/path/to/lunadiag", 1, 3*time.Second)

	res := r.Run(context.Background(), 3)
	if res.LaunchErr == nil {
		t.Fatal("expected LaunchErr for missing binary")
	}
	if res.TimedOut {
		t.Error("launch failure must not report a timeout")
	}
}

func TestRunLaunchFailureNotExecutable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lunadiag")
	if err := os.WriteFile(path, []byte("just data"), 0644); err != nil {
		t.Fatal(err)
	}
	r := New(path, 1, 3*time.Second)

	res := r.Run(context.Background(), 3)
	if res.LaunchErr == nil {
		t.Fatal("expected LaunchErr for non-executable file")
	}
}
