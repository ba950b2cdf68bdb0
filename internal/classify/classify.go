// Package classify turns the raw capture of one diagnostic invocation
// into a verdict using the catalog entry's acceptance criteria.
package classify

import (
	"fmt"
	"time"

	"github.com/hsmtools/hsmcheck/internal/catalog"
	"github.com/hsmtools/hsmcheck/internal/probe"
)

// Classifier evaluates probe results. TimeLimit is only used to
// compose the timeout message; enforcement lives in the runner.
type Classifier struct {
	TimeLimit time.Duration
}

// Classify applies the decision ladder to one probe result:
//
//  1. timeout or launch failure is CRITICAL,
//  2. any stderr output is CRITICAL,
//  3. a semantic checker on the definition decides,
//  4. otherwise the acceptance pattern must match stdout.
//
// A checker that returns a severity outside the defined enumeration
// violates its contract and is downgraded to CRITICAL.
func (c Classifier) Classify(def *catalog.Definition, res *probe.Result) probe.Verdict {
	failed := probe.Verdict{
		Severity: probe.Critical,
		Message:  def.Label + " FAILED.",
	}

	switch {
	case res.TimedOut:
		return probe.Verdict{
			Severity: probe.Critical,
			Message:  fmt.Sprintf("%s exceeded time limit of %s", def.Label, c.TimeLimit),
		}
	case res.LaunchErr != nil:
		return probe.Verdict{
			Severity: probe.Critical,
			Message:  fmt.Sprintf("%s failed to launch: %v", def.Label, res.LaunchErr),
		}
	case res.Stderr != "":
		return failed
	}

	if def.Check != nil {
		v := def.Check(res.Stdout)
		if v.Severity == probe.OK {
			return probe.Verdict{Severity: probe.OK}
		}
		if !v.Severity.Valid() {
			return failed
		}
		if v.Message == "" {
			v.Message = failed.Message
		}
		return v
	}

	if def.Accept == nil || !def.Accept.MatchString(res.Stdout) {
		return failed
	}
	return probe.Verdict{Severity: probe.OK}
}
