package config

import (
	"os"
	"path/filepath"
	"testing"

	"fleetnav/internal/model"
)

func TestDefaultScenarioValid(t *testing.T) {
	if err := ValidateScenario(Default()); err != nil {
		t.Fatalf("default scenario invalid: %v", err)
	}
}

func TestValidateScenarioRejects(t *testing.T) {
	base := Default()

	cases := map[string]func(sc *model.Scenario){
		"no locations":       func(sc *model.Scenario) { sc.Locations = nil },
		"no vehicles":        func(sc *model.Scenario) { sc.VehiclesPerDepot = nil },
		"zero vehicle count": func(sc *model.Scenario) { sc.VehiclesPerDepot = map[string]int{"Depot A": 0} },
		"unknown depot":      func(sc *model.Scenario) { sc.VehiclesPerDepot = map[string]int{"Nowhere": 1} },
		"zero capacity":      func(sc *model.Scenario) { sc.Capacity = 0 },
		"zero max distance":  func(sc *model.Scenario) { sc.MaxDistance = 0 },
		"negative budget":    func(sc *model.Scenario) { sc.TimeBudgetMs = -1 },
		"duplicate name": func(sc *model.Scenario) {
			sc.Locations = append(sc.Locations, model.Location{Name: "C1", X: 1, Y: 1})
		},
		"no customers": func(sc *model.Scenario) {
			sc.Locations = []model.Location{{Name: "Depot A", Depot: true}}
			sc.VehiclesPerDepot = map[string]int{"Depot A": 1}
		},
	}
	for name, mutate := range cases {
		sc := base
		sc.Locations = append([]model.Location(nil), base.Locations...)
		sc.VehiclesPerDepot = map[string]int{}
		for k, v := range base.VehiclesPerDepot {
			sc.VehiclesPerDepot[k] = v
		}
		mutate(&sc)
		if err := ValidateScenario(sc); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoadScenarioFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	body := `
locations:
  - {name: Hub, x: 0, y: 0, depot: true}
  - {name: S1, x: 3, y: 4}
  - {name: S2, x: 6, y: 8}
vehiclesPerDepot:
  Hub: 1
capacity: 4
maxDistance: 120
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	sc, err := LoadScenarioFile(path)
	if err != nil {
		t.Fatalf("LoadScenarioFile: %v", err)
	}
	if len(sc.Locations) != 3 || !sc.Locations[0].Depot {
		t.Fatalf("unexpected scenario: %+v", sc)
	}
	if sc.VehiclesPerDepot["Hub"] != 1 {
		t.Fatalf("vehiclesPerDepot: %+v", sc.VehiclesPerDepot)
	}
	if sc.TimeBudgetMs != DefaultTimeBudgetMs {
		t.Fatalf("time budget default not applied: %d", sc.TimeBudgetMs)
	}
	if err := ValidateScenario(sc); err != nil {
		t.Fatalf("parsed scenario invalid: %v", err)
	}
}

func TestLoadScenarioFileMissing(t *testing.T) {
	if _, err := LoadScenarioFile("/nonexistent/scenario.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadScenarioFileCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.csv")
	body := `name,x,y,depot,vehicles
Hub,0,0,true,1
S1,3,4,,
S2,6,8,,
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	sc, err := LoadScenarioFile(path)
	if err != nil {
		t.Fatalf("LoadScenarioFile: %v", err)
	}
	if len(sc.Locations) != 3 || sc.VehiclesPerDepot["Hub"] != 1 {
		t.Fatalf("unexpected scenario: %+v", sc)
	}
	// CSV carries no bounds, so the built-in defaults apply
	def := Default()
	if sc.Capacity != def.Capacity || sc.MaxDistance != def.MaxDistance {
		t.Fatalf("default bounds not applied: %+v", sc)
	}
	if err := ValidateScenario(sc); err != nil {
		t.Fatalf("parsed scenario invalid: %v", err)
	}
}
