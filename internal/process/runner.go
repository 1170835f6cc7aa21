package process

import (
	"fmt"
	"log/slog"

	"wallcal/internal/sample"
	"wallcal/internal/sequence"
	"wallcal/internal/settings"
)

// Runner samples every wall of a project in dependency order, so a wall that
// borrows its reference wall's separation results runs after that wall.
type Runner struct {
	Project   *settings.Project
	Sequences map[string]sequence.Sequence
	Detect    sample.DetectFunc
	Slate     SlateVerifier
	Log       *slog.Logger
}

// RunAll samples each wall in processing order and returns the sample sets
// keyed by wall name. The first wall failure aborts the run; partial results
// from a bad take are worthless to the solver.
func (r *Runner) RunAll() (map[string]*SampleSet, error) {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}

	ordered, err := r.Project.WallsInProcessingOrder()
	if err != nil {
		return nil, err
	}

	sets := make(map[string]*SampleSet, len(ordered))
	for _, wall := range ordered {
		seq, ok := r.Sequences[wall.Name]
		if !ok {
			return nil, fmt.Errorf("no sequence loaded for wall %q", wall.Name)
		}

		proc := New(r.Project, wall, seq, log)
		proc.Detect = r.Detect
		proc.Slate = r.Slate

		set, err := proc.RunSampling()
		if err != nil {
			return nil, fmt.Errorf("wall %q: %w", wall.Name, err)
		}
		sets[wall.Name] = set
	}
	return sets, nil
}
