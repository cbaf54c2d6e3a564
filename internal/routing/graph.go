// Package routing implements the multi-depot vehicle routing core:
// the routing graph over an index space of locations, accumulating
// resource dimensions with bounds, a deterministic cheapest-arc
// constructor and a guided-local-search improver running under a
// wall-clock budget.
package routing

import (
	"fmt"

	"fleetnav/internal/matrix"
	"fleetnav/internal/model"
)

// VehicleSpec is one vehicle of the fleet. Start and End index the same
// depot node: tours are closed.
type VehicleSpec struct {
	ID          string
	Depot       string
	Start       int
	End         int
	Capacity    int
	MaxDistance int
}

// Graph maps the abstract index space 0..n-1 over all locations to a
// multi-vehicle path topology with per-vehicle start/end anchors.
// Arc costs are uniform across vehicles.
type Graph struct {
	names      []string
	points     []model.Point
	isCustomer []bool
	vehicles   []VehicleSpec
	m          *matrix.CostMatrix
}

// NewGraph assembles a routing graph. Vehicles must reference valid
// node indices; callers build them via BuildModel in the normal path.
func NewGraph(locations []model.Location, vehicles []VehicleSpec, m *matrix.CostMatrix) (*Graph, error) {
	if len(locations) != m.Size() {
		return nil, fmt.Errorf("routing: %d locations but matrix of size %d", len(locations), m.Size())
	}
	g := &Graph{
		names:      make([]string, len(locations)),
		points:     make([]model.Point, len(locations)),
		isCustomer: make([]bool, len(locations)),
		vehicles:   vehicles,
		m:          m,
	}
	for i, l := range locations {
		g.names[i] = l.Name
		g.points[i] = l.Point()
		g.isCustomer[i] = !l.Depot
	}
	for _, v := range vehicles {
		if v.Start < 0 || v.Start >= len(locations) || v.End < 0 || v.End >= len(locations) {
			return nil, fmt.Errorf("routing: vehicle %s anchors out of range", v.ID)
		}
		if g.isCustomer[v.Start] || g.isCustomer[v.End] {
			return nil, fmt.Errorf("routing: vehicle %s anchored at a customer node", v.ID)
		}
	}
	return g, nil
}

// Size returns the number of nodes in the index space.
func (g *Graph) Size() int { return len(g.names) }

// NumVehicles returns the fleet size.
func (g *Graph) NumVehicles() int { return len(g.vehicles) }

// Vehicle returns the descriptor for vehicle v.
func (g *Graph) Vehicle(v int) VehicleSpec { return g.vehicles[v] }

// Start returns vehicle v's start anchor node.
func (g *Graph) Start(v int) int { return g.vehicles[v].Start }

// End returns vehicle v's end anchor node.
func (g *Graph) End(v int) int { return g.vehicles[v].End }

// IsCustomer reports whether node i is a customer (not a depot).
func (g *Graph) IsCustomer(i int) bool { return g.isCustomer[i] }

// Name returns the location name of node i.
func (g *Graph) Name(i int) string { return g.names[i] }

// Point returns the coordinate of node i.
func (g *Graph) Point(i int) model.Point { return g.points[i] }

// ArcCost returns the travel cost of the directed arc from->to.
func (g *Graph) ArcCost(from, to int) int { return g.m.Cost(from, to) }

// Customers returns the customer node indices in increasing order.
func (g *Graph) Customers() []int {
	out := make([]int, 0, g.Size())
	for i := range g.isCustomer {
		if g.isCustomer[i] {
			out = append(out, i)
		}
	}
	return out
}
