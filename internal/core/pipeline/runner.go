package pipeline

import "sort"

// Evaluator is one decision component in the per-tick pipeline. Evaluate
// returns (zero, false) when the component has nothing to do this tick.
type Evaluator[In any, Out any] interface {
	Phase() Phase
	Evaluate(in In) (Out, bool)
}

// Runner executes evaluators in phase order each tick and stops at the first
// one that produces a result. Registration order between evaluators of the
// same phase is preserved.
type Runner[In any, Out any] struct {
	evals  []Evaluator[In, Out]
	sorted bool
}

func NewRunner[In any, Out any]() *Runner[In, Out] {
	return &Runner[In, Out]{
		evals: make([]Evaluator[In, Out], 0, 8),
	}
}

func (r *Runner[In, Out]) Register(e Evaluator[In, Out]) {
	r.evals = append(r.evals, e)
	r.sorted = false
}

// First runs the pipeline and returns the first non-empty result along with
// the phase that produced it.
func (r *Runner[In, Out]) First(in In) (out Out, phase Phase, ok bool) {
	r.ensureSorted()
	for _, e := range r.evals {
		if res, hit := e.Evaluate(in); hit {
			return res, e.Phase(), true
		}
	}
	return out, 0, false
}

func (r *Runner[In, Out]) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.evals, func(i, j int) bool {
			return r.evals[i].Phase() < r.evals[j].Phase()
		})
		r.sorted = true
	}
}
