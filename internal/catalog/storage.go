package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	units "github.com/docker/go-units"

	"github.com/hsmtools/hsmcheck/internal/probe"
)

var (
	containerRe = regexp.MustCompile(`(User|SO) Container Storage Info`)
	spaceRe     = regexp.MustCompile(`(Total|Used):\s+(\d+)`)
)

// storageCheck builds the semantic checker for the token info probe.
// The tool reports per-container storage like:
//
//	User Container Storage Info:
//	       Total:     2087864
//	       Used:      1981244
//	       Free:       106620
//
// A "User" or "SO" header opens a container context, a blank line
// closes it, and seeing Used inside a context triggers the usage
// calculation. The scan stops at the first container over a threshold.
func storageCheck(warnPct, critPct float64) Checker {
	return func(stdout string) probe.Verdict {
		container := ""
		space := make(map[string]float64)

		for _, line := range strings.Split(stdout, "\n") {
			if m := containerRe.FindStringSubmatch(line); m != nil {
				container = m[1]
				continue
			}
			if container == "" {
				continue
			}
			if strings.TrimSpace(line) == "" {
				container = ""
				space = make(map[string]float64)
				continue
			}
			m := spaceRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			n, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				return malformed(container, "unparsable "+m[1]+" value")
			}
			space[m[1]] = n
			if m[1] != "Used" {
				continue
			}

			total, ok := space["Total"]
			if !ok || total == 0 {
				return malformed(container, "Used reported without a usable Total")
			}
			pct := 100.0 * n / total
			msg := fmt.Sprintf("HSM %s storage usage %.2f%% (%s of %s) exceeded threshold",
				container, pct, units.HumanSize(n), units.HumanSize(total))
			if pct >= critPct {
				return probe.Verdict{Severity: probe.Critical, Message: msg}
			}
			if pct >= warnPct {
				return probe.Verdict{Severity: probe.Warning, Message: msg}
			}
		}
		return probe.Verdict{Severity: probe.OK}
	}
}

func malformed(container, reason string) probe.Verdict {
	return probe.Verdict{
		Severity: probe.Critical,
		Message:  fmt.Sprintf("HSM %s storage info malformed: %s", container, reason),
	}
}
