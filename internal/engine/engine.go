// Package engine orchestrates the diagnostic battery and reduces it to
// a single verdict.
package engine

import (
	"context"
	"log/slog"

	"github.com/hsmtools/hsmcheck/internal/catalog"
	"github.com/hsmtools/hsmcheck/internal/classify"
	"github.com/hsmtools/hsmcheck/internal/probe"
)

// Runner abstracts subprocess execution so tests can substitute a fake.
type Runner interface {
	Run(ctx context.Context, probeID int) *probe.Result
}

// Engine evaluates a configured probe sequence fail-fast: probes run
// strictly sequentially, and the first non-OK verdict ends the run.
// WARNING stops the run like any other non-OK severity.
type Engine struct {
	catalog    *catalog.Catalog
	runner     Runner
	classifier classify.Classifier
}

// New assembles an engine from its parts.
func New(cat *catalog.Catalog, r Runner, cls classify.Classifier) *Engine {
	return &Engine{catalog: cat, runner: r, classifier: cls}
}

// Evaluate runs the given probe ids in order and returns the first
// non-OK verdict, or {OK, "All OK"} when every probe passes. Every id
// is resolved against the catalog first; an unknown id is returned as
// an error before any process is spawned.
func (e *Engine) Evaluate(ctx context.Context, probeIDs []int) (probe.Verdict, error) {
	defs := make([]*catalog.Definition, 0, len(probeIDs))
	for _, id := range probeIDs {
		def, err := e.catalog.Lookup(id)
		if err != nil {
			return probe.Verdict{}, err
		}
		defs = append(defs, def)
	}

	for _, def := range defs {
		res := e.runner.Run(ctx, def.ID)
		verdict := e.classifier.Classify(def, res)
		slog.Debug("probe classified",
			"probe", def.ID,
			"label", def.Label,
			"severity", verdict.Severity.String(),
		)
		if verdict.Severity != probe.OK {
			return verdict, nil
		}
	}

	return probe.Verdict{Severity: probe.OK, Message: "All OK"}, nil
}
