package routing

// Constructor proposes an initial feasible assignment of customers to
// vehicles, or ErrNoSolution when none exists.
type Constructor interface {
	Construct(m *Model) ([][]int, error)
}

// CheapestArc builds an initial solution greedily: vehicles take turns
// in index order, each extending its tail with the unvisited customer
// of least marginal arc cost that keeps every dimension within bounds.
// Ties go to the lowest node index, so the result is deterministic.
type CheapestArc struct{}

func (CheapestArc) Construct(m *Model) ([][]int, error) {
	g := m.Graph
	routes := make([][]int, g.NumVehicles())
	assigned := make([]bool, g.Size())
	remaining := len(g.Customers())

	for remaining > 0 {
		progress := false
		for v := range routes {
			tail := g.Start(v)
			if n := len(routes[v]); n > 0 {
				tail = routes[v][n-1]
			}
			best, bestCost := -1, 0
			for _, c := range g.Customers() {
				if assigned[c] {
					continue
				}
				cand := append(append(make([]int, 0, len(routes[v])+1), routes[v]...), c)
				if !m.RouteFeasible(v, cand) {
					continue
				}
				if cost := g.ArcCost(tail, c); best == -1 || cost < bestCost {
					best, bestCost = c, cost
				}
			}
			if best >= 0 {
				routes[v] = append(routes[v], best)
				assigned[best] = true
				remaining--
				progress = true
			}
		}
		if !progress {
			// Some customer fits no vehicle under the bounds.
			return nil, ErrNoSolution
		}
	}
	for v := range routes {
		if !m.RouteFeasible(v, routes[v]) {
			// Covers the minimum-visit rule: an idle vehicle means the
			// model is infeasible, not that the bound may be relaxed.
			return nil, ErrNoSolution
		}
	}
	return routes, nil
}
