package routing

import (
	"context"
	"errors"
	"time"
)

// ErrNoSolution means the bounds and the minimum-visit rule cannot be
// jointly satisfied, or nothing feasible was found within the budget.
// It is a terminal result, not a crash; no partial solution accompanies it.
var ErrNoSolution = errors.New("routing: no feasible solution")

// DefaultTimeBudget bounds the improvement phase when Options.TimeBudget
// is unset.
const DefaultTimeBudget = 15 * time.Second

// Options tunes a single solve run.
type Options struct {
	// TimeBudget is the wall-clock limit for the improvement phase.
	TimeBudget time.Duration
	// MaxIterations optionally caps improvement iterations (0 = no cap).
	MaxIterations int
	// Lambda is the penalty weight of the augmented objective. Zero
	// derives it from the initial solution cost.
	Lambda int
	// OnImprove, if set, is called whenever a better incumbent is found.
	OnImprove func(cost, iteration int)
}

// Stats describes one solve run.
type Stats struct {
	Iterations   int
	Improvements int
	Penalized    int
	InitialCost  int
	FinalCost    int
	Elapsed      time.Duration
}

// Solver owns one search over a model. It holds no global state; repeated
// library use builds a fresh Solver per solve.
type Solver struct {
	model     *Model
	opts      Options
	construct Constructor
	improve   Improver
}

// NewSolver creates a solver with the default strategies: cheapest-arc
// construction and guided local search improvement.
func NewSolver(m *Model, opts Options) *Solver {
	return &Solver{model: m, opts: opts, construct: CheapestArc{}, improve: GuidedLocalSearch{}}
}

// WithStrategies swaps the construction and improvement heuristics.
// Nil keeps the current strategy.
func (s *Solver) WithStrategies(c Constructor, i Improver) *Solver {
	if c != nil {
		s.construct = c
	}
	if i != nil {
		s.improve = i
	}
	return s
}

// Solve builds an initial feasible solution and improves it until the
// time budget expires or ctx is cancelled. The best solution found by
// true cost is returned; every intermediate state satisfies all
// dimension bounds and the minimum-visit rule. ErrNoSolution is returned
// when construction cannot place every customer.
func (s *Solver) Solve(ctx context.Context) (*Solution, Stats, error) {
	start := time.Now()
	routes, err := s.construct.Construct(s.model)
	if err != nil {
		return nil, Stats{Elapsed: time.Since(start)}, err
	}

	st := Stats{InitialCost: s.model.SolutionCost(routes)}
	best := cloneRoutes(routes)
	bestCost := st.InitialCost

	pen := NewPenalties(s.lambda(st.InitialCost))
	budget := s.opts.TimeBudget
	if budget <= 0 {
		budget = DefaultTimeBudget
	}
	deadline := start.Add(budget)

	for time.Now().Before(deadline) && ctx.Err() == nil {
		st.Iterations++
		if s.improve.Improve(s.model, routes, pen) {
			if c := s.model.SolutionCost(routes); c < bestCost {
				bestCost = c
				best = cloneRoutes(routes)
				st.Improvements++
				if s.opts.OnImprove != nil {
					s.opts.OnImprove(c, st.Iterations)
				}
			}
		} else {
			pen.Punish(s.model, routes)
			st.Penalized++
		}
		if s.opts.MaxIterations > 0 && st.Iterations >= s.opts.MaxIterations {
			break
		}
	}

	st.FinalCost = bestCost
	st.Elapsed = time.Since(start)
	return newSolution(s.model, best), st, nil
}

// lambda derives the penalty weight from the initial cost when not set
// explicitly: roughly 0.3 * cost / arcs, floored at 1.
func (s *Solver) lambda(initialCost int) int {
	if s.opts.Lambda > 0 {
		return s.opts.Lambda
	}
	arcs := len(s.model.Graph.Customers()) + s.model.Graph.NumVehicles()
	if arcs == 0 {
		return 1
	}
	l := 3 * initialCost / (10 * arcs)
	if l < 1 {
		l = 1
	}
	return l
}
