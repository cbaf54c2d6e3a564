package routing

import (
	"testing"

	"fleetnav/internal/model"
)

func smallModel(t *testing.T) *Model {
	t.Helper()
	return buildModel(t, model.Scenario{
		Locations: []model.Location{
			{Name: "D", X: 0, Y: 0, Depot: true},
			{Name: "A", X: 10, Y: 0},
			{Name: "B", X: 20, Y: 0},
			{Name: "C", X: 30, Y: 0},
		},
		VehiclesPerDepot: map[string]int{"D": 1},
		Capacity:         2,
		MaxDistance:      50,
	})
}

func TestCapacityDimension(t *testing.T) {
	m := smallModel(t)
	d := CapacityDimension(m.Graph)
	if !d.Check(m.Graph, 0, []int{1, 2}) {
		t.Error("two customers should fit capacity 2")
	}
	if d.Check(m.Graph, 0, []int{1, 2, 3}) {
		t.Error("three customers must exceed capacity 2")
	}
	if !d.Check(m.Graph, 0, nil) {
		t.Error("empty route consumes no capacity")
	}
}

func TestDistanceDimension(t *testing.T) {
	m := smallModel(t)
	d := DistanceDimension(m.Graph)
	// D->A->B->D = 10+10+20 = 40 <= 50
	if !d.Check(m.Graph, 0, []int{1, 2}) {
		t.Error("tour of 40 should fit distance bound 50")
	}
	// D->A->C->D = 10+20+30 = 60 > 50; the bound must fail mid-route too.
	if d.Check(m.Graph, 0, []int{1, 3}) {
		t.Error("tour of 60 must exceed distance bound 50")
	}
}

func TestArcCountDimensionForcesNonEmptyRoutes(t *testing.T) {
	m := smallModel(t)
	d := ArcCountDimension()
	// A bare start->end tour accrues exactly one arc: below the floor.
	if d.Check(m.Graph, 0, nil) {
		t.Error("empty route must fail the >=2 arcs side constraint")
	}
	if !d.Check(m.Graph, 0, []int{1}) {
		t.Error("one customer yields two arcs and must pass")
	}
}

func TestRouteFeasibleRejectsEmptyRoute(t *testing.T) {
	m := smallModel(t)
	if m.RouteFeasible(0, nil) {
		t.Error("empty candidate routes must be rejected")
	}
	if !m.RouteFeasible(0, []int{1}) {
		t.Error("single in-bounds customer must be feasible")
	}
}

func TestBuildModelValidation(t *testing.T) {
	_, err := BuildModel(model.Scenario{})
	if err == nil {
		t.Error("empty scenario must fail")
	}

	_, err = BuildModel(model.Scenario{
		Locations:        []model.Location{{Name: "D", Depot: true}, {Name: "A", X: 1}},
		VehiclesPerDepot: map[string]int{"Ghost Depot": 1},
		Capacity:         4,
		MaxDistance:      100,
	})
	if err == nil {
		t.Error("depot without a location must fail")
	}

	_, err = BuildModel(model.Scenario{
		Locations:        []model.Location{{Name: "D", Depot: true}, {Name: "A", X: 1}},
		VehiclesPerDepot: map[string]int{"A": 1},
		Capacity:         4,
		MaxDistance:      100,
	})
	if err == nil {
		t.Error("customer used as a depot must fail")
	}
}

func TestRouteCost(t *testing.T) {
	m := smallModel(t)
	if got := m.RouteCost(0, []int{1, 2, 3}); got != 60 {
		t.Errorf("route cost: got %d, want 60", got)
	}
	if got := m.RouteCost(0, nil); got != 0 {
		t.Errorf("empty route cost: got %d, want 0", got)
	}
}
