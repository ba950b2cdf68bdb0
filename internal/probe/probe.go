// Package probe defines the types shared across the diagnostic engine:
// the severity enumeration, the raw capture of one diagnostic
// invocation, and the final verdict of an evaluation run.
package probe

// Severity classifies a probe outcome. The four values map one-to-one
// onto the standard monitoring exit codes.
type Severity int

const (
	OK Severity = iota
	Warning
	Critical
	Unknown
)

// Valid reports whether s is one of the defined severities. Custom
// checkers are the only code that can hand the engine an arbitrary
// value; the classifier downgrades anything invalid to Critical.
func (s Severity) Valid() bool {
	switch s {
	case OK, Warning, Critical, Unknown:
		return true
	}
	return false
}

// ExitCode maps the severity onto its monitoring exit code. Values
// outside the defined set map to the Unknown code so the process can
// never exit with anything but 0-3.
func (s Severity) ExitCode() int {
	switch s {
	case OK:
		return 0
	case Warning:
		return 1
	case Critical:
		return 2
	default:
		return 3
	}
}

func (s Severity) String() string {
	switch s {
	case OK:
		return "OK"
	case Warning:
		return "WARNING"
	case Critical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Result is the raw capture from one diagnostic invocation. It is
// consumed immediately by the classifier and not retained.
type Result struct {
	ProbeID  int
	Stdout   string
	Stderr   string
	TimedOut bool
	// LaunchErr is set when the process could not be started at all
	// (binary missing, permission denied). Output fields are empty.
	LaunchErr error
}

// Verdict is the terminal outcome of an evaluation run: one severity
// and one message line for the monitoring system.
type Verdict struct {
	Severity Severity
	Message  string
}
