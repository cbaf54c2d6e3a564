package routing

// Improver attempts one improving move on routes under the penalized
// objective, mutating routes in place. It reports whether a move was
// applied; the solver punishes arcs and retries when it returns false.
type Improver interface {
	Improve(m *Model, routes [][]int, pen *Penalties) bool
}

type arcKey struct{ from, to int }

// Penalties holds guided-local-search arc penalties. Frequently punished
// arcs grow more expensive under the augmented objective, steering the
// search away from revisited local optima. Arc costs are symmetric, so
// penalties are too.
type Penalties struct {
	lambda int
	counts map[arcKey]int
}

// NewPenalties creates an empty penalty table with weight lambda.
func NewPenalties(lambda int) *Penalties {
	if lambda < 1 {
		lambda = 1
	}
	return &Penalties{lambda: lambda, counts: map[arcKey]int{}}
}

func (p *Penalties) key(from, to int) arcKey {
	if to < from {
		from, to = to, from
	}
	return arcKey{from, to}
}

// RouteCost returns vehicle v's route cost under the augmented
// objective: true cost plus lambda per accumulated penalty on its arcs.
func (p *Penalties) RouteCost(m *Model, v int, customers []int) int {
	cost := m.RouteCost(v, customers)
	for _, a := range m.arcs(v, customers) {
		cost += p.lambda * p.counts[p.key(a[0], a[1])]
	}
	return cost
}

// Augmented returns the penalized objective over the whole solution.
func (p *Penalties) Augmented(m *Model, routes [][]int) int {
	total := 0
	for v, r := range routes {
		total += p.RouteCost(m, v, r)
	}
	return total
}

// Punish increments the penalty on the arcs of maximal utility
// cost/(1+count) in the current solution. Called at a local optimum.
func (p *Penalties) Punish(m *Model, routes [][]int) {
	var maxUtil float64
	var targets []arcKey
	for v, r := range routes {
		for _, a := range m.arcs(v, r) {
			k := p.key(a[0], a[1])
			u := float64(m.Graph.ArcCost(a[0], a[1])) / float64(1+p.counts[k])
			switch {
			case u > maxUtil:
				maxUtil = u
				targets = targets[:0]
				targets = append(targets, k)
			case u == maxUtil && u > 0:
				targets = append(targets, k)
			}
		}
	}
	for _, k := range targets {
		p.counts[k]++
	}
}

// GuidedLocalSearch applies the first improving feasible move found in a
// deterministic scan over intra-route 2-opt, relocation (within and
// across vehicles) and inter-route customer exchange.
type GuidedLocalSearch struct{}

func (GuidedLocalSearch) Improve(m *Model, routes [][]int, pen *Penalties) bool {
	if twoOpt(m, routes, pen) {
		return true
	}
	if relocate(m, routes, pen) {
		return true
	}
	return exchange(m, routes, pen)
}

// twoOpt reverses a segment within one route when that lowers the
// route's augmented cost and keeps it feasible.
func twoOpt(m *Model, routes [][]int, pen *Penalties) bool {
	for v, r := range routes {
		if len(r) < 2 {
			continue
		}
		before := pen.RouteCost(m, v, r)
		for i := 0; i < len(r)-1; i++ {
			for j := i + 1; j < len(r); j++ {
				cand := append([]int(nil), r...)
				for a, b := i, j; a < b; a, b = a+1, b-1 {
					cand[a], cand[b] = cand[b], cand[a]
				}
				if !m.RouteFeasible(v, cand) {
					continue
				}
				if pen.RouteCost(m, v, cand) < before {
					routes[v] = cand
					return true
				}
			}
		}
	}
	return false
}

// relocate moves one customer to another position, possibly on another
// vehicle. Moves that would empty the donor route are rejected by the
// feasibility check.
func relocate(m *Model, routes [][]int, pen *Penalties) bool {
	for v, r := range routes {
		for i := range r {
			node := r[i]
			donor := append([]int(nil), r[:i]...)
			donor = append(donor, r[i+1:]...)
			for w := range routes {
				recv := routes[w]
				if w == v {
					recv = donor
				}
				for pos := 0; pos <= len(recv); pos++ {
					if w == v && pos == i {
						continue
					}
					cand := make([]int, 0, len(recv)+1)
					cand = append(cand, recv[:pos]...)
					cand = append(cand, node)
					cand = append(cand, recv[pos:]...)
					if w == v {
						if !m.RouteFeasible(v, cand) {
							continue
						}
						if pen.RouteCost(m, v, cand) < pen.RouteCost(m, v, r) {
							routes[v] = cand
							return true
						}
						continue
					}
					if !m.RouteFeasible(v, donor) || !m.RouteFeasible(w, cand) {
						continue
					}
					before := pen.RouteCost(m, v, r) + pen.RouteCost(m, w, routes[w])
					after := pen.RouteCost(m, v, donor) + pen.RouteCost(m, w, cand)
					if after < before {
						routes[v] = donor
						routes[w] = cand
						return true
					}
				}
			}
		}
	}
	return false
}

// exchange swaps one customer between two routes.
func exchange(m *Model, routes [][]int, pen *Penalties) bool {
	for v := 0; v < len(routes); v++ {
		for w := v + 1; w < len(routes); w++ {
			before := pen.RouteCost(m, v, routes[v]) + pen.RouteCost(m, w, routes[w])
			for i := range routes[v] {
				for j := range routes[w] {
					cv := append([]int(nil), routes[v]...)
					cw := append([]int(nil), routes[w]...)
					cv[i], cw[j] = cw[j], cv[i]
					if !m.RouteFeasible(v, cv) || !m.RouteFeasible(w, cw) {
						continue
					}
					if pen.RouteCost(m, v, cv)+pen.RouteCost(m, w, cw) < before {
						routes[v] = cv
						routes[w] = cw
						return true
					}
				}
			}
		}
	}
	return false
}
