// Package catalog holds the static table of lunadiag sub-tests: the
// diagnostic command number each probe corresponds to, its label, and
// the acceptance criteria applied to its output.
package catalog

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/hsmtools/hsmcheck/internal/probe"
)

// Diagnostic command numbers understood by the lunadiag utility.
const (
	Driver        = 2
	Comm          = 3
	FirmwareLevel = 4
	ProtocolLevel = 5
	Capabilities  = 6
	TokenPolicies = 7
	TSV           = 8
	DualportDump  = 9
	DualportCmd   = 10
	TokenInfo     = 11
	MechanismInfo = 12
	DebugTrace    = 16
)

// Checker is a semantic check applied to a probe's stdout in place of
// a plain pattern search. A non-OK verdict must carry its own message.
type Checker func(stdout string) probe.Verdict

// Definition describes one diagnostic sub-test. Definitions are fixed
// data; the catalog builds them once and never mutates them.
type Definition struct {
	ID     int
	Label  string
	Accept *regexp.Regexp
	Check  Checker // takes precedence over Accept when set
}

// Options tune the catalog entries that carry thresholds.
type Options struct {
	StorageWarnPct float64 // container usage percentage that degrades to WARNING
	StorageCritPct float64 // container usage percentage that degrades to CRITICAL
}

// DefaultOptions returns the thresholds the plugin shipped with.
func DefaultOptions() Options {
	return Options{StorageWarnPct: 85.0, StorageCritPct: 95.0}
}

// Catalog maps a diagnostic command number to its definition.
type Catalog struct {
	defs map[int]*Definition
	ids  []int
}

// UnknownProbeError reports a probe id with no catalog entry. It is a
// configuration error, surfaced before any process is spawned.
type UnknownProbeError struct {
	ID int
}

func (e *UnknownProbeError) Error() string {
	return fmt.Sprintf("unknown probe id %d", e.ID)
}

// New builds the catalog with the given threshold options.
func New(opts Options) *Catalog {
	defs := []*Definition{
		{
			ID:     Driver,
			Label:  "Driver Test",
			Accept: regexp.MustCompile(`drivers .+ detected`),
		},
		{
			ID:     Comm,
			Label:  "Communication Test",
			Accept: regexp.MustCompile(`Test passed`),
		},
		{
			ID:     FirmwareLevel,
			Label:  "Read Firmware Level Test",
			Accept: regexp.MustCompile(`Firmware: \d+\.\d`),
		},
		{
			ID:     ProtocolLevel,
			Label:  "Read Protocol Level Test",
			Accept: regexp.MustCompile(`Protocol level: \d+`),
		},
		{
			ID:     Capabilities,
			Label:  "Read Capabilities Test",
			Accept: regexp.MustCompile(`lunadiag\s+version \d+`),
		},
		{
			ID:     TokenPolicies,
			Label:  "Read Token Policies Test",
			Accept: regexp.MustCompile(`lunadiag\s+version \d+`),
		},
		{
			ID:     TSV,
			Label:  "Read TSV Test",
			Accept: regexp.MustCompile(`Error\s+Flag\s+=\s+0\s+`),
		},
		{
			ID:     DualportDump,
			Label:  "Read Dualport Test",
			Accept: regexp.MustCompile(`\w{4}: \w\w \w\w \w\w \w\w`),
		},
		{
			ID:     DualportCmd,
			Label:  "Read Dualport Command Test",
			Accept: regexp.MustCompile(`\w{4,}: \w\w \w\w \w\w \w\w`),
		},
		{
			ID:     TokenInfo,
			Label:  "Token Info Test",
			Accept: regexp.MustCompile(`Free:\s+\d{5,}`),
			Check:  storageCheck(opts.StorageWarnPct, opts.StorageCritPct),
		},
		{
			ID:     MechanismInfo,
			Label:  "Mechanism Info Test",
			Accept: regexp.MustCompile(`Test passed`),
		},
		{
			ID:     DebugTrace,
			Label:  "Read Debug/Trace Information Test",
			Accept: regexp.MustCompile(`lunadiag\s+version \d+`),
		},
	}

	c := &Catalog{defs: make(map[int]*Definition, len(defs))}
	for _, d := range defs {
		c.defs[d.ID] = d
		c.ids = append(c.ids, d.ID)
	}
	sort.Ints(c.ids)
	return c
}

// Lookup returns the definition for id, or an *UnknownProbeError.
func (c *Catalog) Lookup(id int) (*Definition, error) {
	def, ok := c.defs[id]
	if !ok {
		return nil, &UnknownProbeError{ID: id}
	}
	return def, nil
}

// IDs returns every catalog id in ascending numeric order. This is the
// "run everything" default, and the ordering makes the first-failure
// report deterministic.
func (c *Catalog) IDs() []int {
	ids := make([]int, len(c.ids))
	copy(ids, c.ids)
	return ids
}
