package routing

import (
	"fmt"

	"fleetnav/internal/matrix"
	"fleetnav/internal/model"
)

// Model bundles the routing graph with the resource dimensions the
// search must respect.
type Model struct {
	Graph *Graph
	Dims  []*Dimension
}

// BuildModel assembles the graph, cost matrix and the three standard
// dimensions (Capacity, Distance, ArcCount) from a scenario. Locations
// keep their input order as the node index space; vehicles are numbered
// depot by depot in location order, so the same scenario always yields
// the same model.
func BuildModel(sc model.Scenario) (*Model, error) {
	if len(sc.Locations) == 0 {
		return nil, fmt.Errorf("routing: scenario has no locations")
	}
	points := make([]model.Point, len(sc.Locations))
	index := make(map[string]int, len(sc.Locations))
	for i, l := range sc.Locations {
		points[i] = l.Point()
		index[l.Name] = i
	}

	var vehicles []VehicleSpec
	for _, l := range sc.Locations {
		if !l.Depot {
			continue
		}
		for k := 0; k < sc.VehiclesPerDepot[l.Name]; k++ {
			di := index[l.Name]
			vehicles = append(vehicles, VehicleSpec{
				ID:          fmt.Sprintf("veh-%d", len(vehicles)),
				Depot:       l.Name,
				Start:       di,
				End:         di,
				Capacity:    sc.Capacity,
				MaxDistance: sc.MaxDistance,
			})
		}
	}
	if len(vehicles) == 0 {
		return nil, fmt.Errorf("routing: scenario defines no vehicles")
	}
	for depot := range sc.VehiclesPerDepot {
		i, ok := index[depot]
		if !ok {
			return nil, fmt.Errorf("routing: depot %q has no location", depot)
		}
		if !sc.Locations[i].Depot {
			return nil, fmt.Errorf("routing: %q is not marked as a depot", depot)
		}
	}

	g, err := NewGraph(sc.Locations, vehicles, matrix.New(points))
	if err != nil {
		return nil, err
	}
	return &Model{
		Graph: g,
		Dims:  []*Dimension{CapacityDimension(g), DistanceDimension(g), ArcCountDimension()},
	}, nil
}

// RouteFeasible reports whether vehicle v may serve customers in the
// given order. Empty candidate routes are rejected outright: every
// vehicle must serve at least one customer.
func (m *Model) RouteFeasible(v int, customers []int) bool {
	if len(customers) == 0 {
		return false
	}
	for _, d := range m.Dims {
		if !d.Check(m.Graph, v, customers) {
			return false
		}
	}
	return true
}

// RouteCost returns the realized travel cost of vehicle v's closed tour.
func (m *Model) RouteCost(v int, customers []int) int {
	g := m.Graph
	cost := 0
	prev := g.Start(v)
	for _, c := range customers {
		cost += g.ArcCost(prev, c)
		prev = c
	}
	return cost + g.ArcCost(prev, g.End(v))
}

// SolutionCost returns the total travel cost across all vehicles.
func (m *Model) SolutionCost(routes [][]int) int {
	total := 0
	for v, r := range routes {
		total += m.RouteCost(v, r)
	}
	return total
}

// Feasible reports whether routes form a complete feasible solution:
// every customer served exactly once and every route within bounds.
func (m *Model) Feasible(routes [][]int) bool {
	if len(routes) != m.Graph.NumVehicles() {
		return false
	}
	seen := map[int]bool{}
	for v, r := range routes {
		if !m.RouteFeasible(v, r) {
			return false
		}
		for _, c := range r {
			if !m.Graph.IsCustomer(c) || seen[c] {
				return false
			}
			seen[c] = true
		}
	}
	return len(seen) == len(m.Graph.Customers())
}

// arcs lists the directed arcs of vehicle v's closed tour, depot
// anchors included.
func (m *Model) arcs(v int, customers []int) [][2]int {
	g := m.Graph
	out := make([][2]int, 0, len(customers)+1)
	prev := g.Start(v)
	for _, c := range customers {
		out = append(out, [2]int{prev, c})
		prev = c
	}
	return append(out, [2]int{prev, g.End(v)})
}

func cloneRoutes(routes [][]int) [][]int {
	out := make([][]int, len(routes))
	for i, r := range routes {
		out[i] = append([]int(nil), r...)
	}
	return out
}
