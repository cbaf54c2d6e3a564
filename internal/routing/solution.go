package routing

import "fleetnav/internal/model"

// Route is one vehicle's extracted closed tour.
type Route struct {
	VehicleID string
	Depot     string
	Stops     []string
	Path      []model.Point
	Distance  int
	Customers int
}

// Solution is the read-out of a solved model: per-vehicle ordered stops
// and realized costs. Immutable once returned.
type Solution struct {
	Routes        []Route
	TotalDistance int
}

// newSolution materializes per-vehicle next-hop chains from the final
// routes and walks each chain from the vehicle's start anchor to its end
// anchor, collecting stop names and accumulating realized arc costs.
func newSolution(m *Model, routes [][]int) *Solution {
	g := m.Graph
	sol := &Solution{Routes: make([]Route, len(routes))}
	for v, customers := range routes {
		next := make(map[int]int, len(customers)+1)
		prev := g.Start(v)
		for _, c := range customers {
			next[prev] = c
			prev = c
		}
		next[prev] = g.End(v)

		r := Route{
			VehicleID: g.Vehicle(v).ID,
			Depot:     g.Vehicle(v).Depot,
			Customers: len(customers),
		}
		cur := g.Start(v)
		r.Stops = append(r.Stops, g.Name(cur))
		r.Path = append(r.Path, g.Point(cur))
		// Hop count bounds the walk; start and end share an index on
		// closed tours, so node identity alone cannot terminate it.
		for hop := 0; hop <= len(customers); hop++ {
			nxt := next[cur]
			r.Distance += g.ArcCost(cur, nxt)
			r.Stops = append(r.Stops, g.Name(nxt))
			r.Path = append(r.Path, g.Point(nxt))
			cur = nxt
		}
		sol.TotalDistance += r.Distance
		sol.Routes[v] = r
	}
	return sol
}

// PlanRoutes converts the solution into the API's plan representation.
func (s *Solution) PlanRoutes() []model.PlanRoute {
	out := make([]model.PlanRoute, len(s.Routes))
	for i, r := range s.Routes {
		out[i] = model.PlanRoute{
			VehicleID: r.VehicleID,
			Depot:     r.Depot,
			Stops:     r.Stops,
			Path:      r.Path,
			Distance:  r.Distance,
			Customers: r.Customers,
		}
	}
	return out
}
