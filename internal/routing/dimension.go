package routing

// Dimension is a named accumulating quantity tracked along a vehicle's
// path. The cumulative value starts at zero at the vehicle's start
// anchor, grows by Transit on each traversed arc and must stay within
// [0, Max(v)] at every stop. MinAtEnd, when positive, is a side
// constraint on the cumulative value at the vehicle's end anchor.
type Dimension struct {
	Name     string
	Transit  func(from, to int) int
	Max      func(vehicle int) int
	MinAtEnd int
}

// Check evaluates the dimension over vehicle v's candidate route
// (customer nodes only; the depot anchors are implied). It fails if the
// cumulative value exceeds the bound at any point or the end value
// falls short of MinAtEnd.
func (d *Dimension) Check(g *Graph, v int, customers []int) bool {
	bound := d.Max(v)
	cum := 0
	prev := g.Start(v)
	for _, c := range customers {
		cum += d.Transit(prev, c)
		if cum > bound {
			return false
		}
		prev = c
	}
	cum += d.Transit(prev, g.End(v))
	return cum <= bound && cum >= d.MinAtEnd
}

// CapacityDimension counts one unit per customer arrival, bounded by
// each vehicle's capacity.
func CapacityDimension(g *Graph) *Dimension {
	return &Dimension{
		Name: "Capacity",
		Transit: func(_, to int) int {
			if g.IsCustomer(to) {
				return 1
			}
			return 0
		},
		Max: func(v int) int { return g.Vehicle(v).Capacity },
	}
}

// DistanceDimension accumulates arc cost, bounded by each vehicle's
// maximum route distance.
func DistanceDimension(g *Graph) *Dimension {
	return &Dimension{
		Name:    "Distance",
		Transit: g.ArcCost,
		Max:     func(v int) int { return g.Vehicle(v).MaxDistance },
	}
}

// arcCountCap is effectively unconstrained; the dimension exists for its
// MinAtEnd side constraint.
const arcCountCap = 1000

// ArcCountDimension counts one unit per traversed arc. MinAtEnd of 2
// forces every vehicle to serve at least one customer: a bare
// start->end tour accrues exactly 1 arc. The solver enforces the same
// rule as an explicit cardinality filter on candidate routes; this
// dimension keeps the resource-style encoding checkable on its own.
func ArcCountDimension() *Dimension {
	return &Dimension{
		Name:     "ArcCount",
		Transit:  func(_, _ int) int { return 1 },
		Max:      func(int) int { return arcCountCap },
		MinAtEnd: 2,
	}
}
