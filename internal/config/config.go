// Package config loads server and scenario configuration from the
// environment and an optional YAML scenario file.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"fleetnav/internal/model"
	"fleetnav/internal/scenario"
)

// Config carries everything the API server needs at startup.
type Config struct {
	Addr       string
	Scenario   model.Scenario
	SolveRate  float64 // POST /v1/solve requests per second
	SolveBurst int
}

// DefaultTimeBudgetMs bounds a solve when the scenario does not set one.
const DefaultTimeBudgetMs = 15000

// Default returns the built-in reference scenario: two depots 50 units
// apart, 12 customers clustered around them, two vehicles per depot.
func Default() model.Scenario {
	return model.Scenario{
		Locations: []model.Location{
			{Name: "Depot A", X: 10, Y: 50, Depot: true},
			{Name: "Depot B", X: 60, Y: 50, Depot: true},
			{Name: "C1", X: 12, Y: 45}, {Name: "C2", X: 15, Y: 55}, {Name: "C3", X: 20, Y: 48},
			{Name: "C4", X: 18, Y: 60}, {Name: "C5", X: 22, Y: 52}, {Name: "C6", X: 25, Y: 45},
			{Name: "C7", X: 58, Y: 47}, {Name: "C8", X: 62, Y: 53}, {Name: "C9", X: 65, Y: 48},
			{Name: "C10", X: 68, Y: 55}, {Name: "C11", X: 55, Y: 60}, {Name: "C12", X: 70, Y: 45},
		},
		VehiclesPerDepot: map[string]int{"Depot A": 2, "Depot B": 2},
		Capacity:         4,
		MaxDistance:      120,
		TimeBudgetMs:     DefaultTimeBudgetMs,
	}
}

// Load reads configuration from the environment. SCENARIO_FILE selects a
// YAML scenario; otherwise the built-in default is used. Validation runs
// before the config is returned, so a bad scenario fails startup.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:       ":8080",
		Scenario:   Default(),
		SolveRate:  1,
		SolveBurst: 2,
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	if path := os.Getenv("SCENARIO_FILE"); path != "" {
		sc, err := LoadScenarioFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Scenario = sc
	}
	if v := os.Getenv("SOLVE_RATE_LIMIT"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r <= 0 {
			return nil, fmt.Errorf("config: invalid SOLVE_RATE_LIMIT %q", v)
		}
		cfg.SolveRate = r
	}
	if v := os.Getenv("SOLVE_RATE_BURST"); v != "" {
		b, err := strconv.Atoi(v)
		if err != nil || b <= 0 {
			return nil, fmt.Errorf("config: invalid SOLVE_RATE_BURST %q", v)
		}
		cfg.SolveBurst = b
	}
	if err := ValidateScenario(cfg.Scenario); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadScenarioFile parses a scenario file. YAML is the native format;
// .csv files carry locations and fleet shape only, so the built-in
// capacity and distance bounds fill the gaps.
func LoadScenarioFile(path string) (model.Scenario, error) {
	var sc model.Scenario
	data, err := os.ReadFile(path)
	if err != nil {
		return sc, fmt.Errorf("config: read scenario: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		sc, err = scenario.ParseCSV(bytes.NewReader(data))
		if err != nil {
			return sc, err
		}
		def := Default()
		sc.Capacity = def.Capacity
		sc.MaxDistance = def.MaxDistance
	} else if err := yaml.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("config: parse scenario: %w", err)
	}
	if sc.TimeBudgetMs == 0 {
		sc.TimeBudgetMs = DefaultTimeBudgetMs
	}
	return sc, nil
}

// ValidateScenario rejects malformed scenarios before any search begins.
func ValidateScenario(sc model.Scenario) error {
	if len(sc.Locations) == 0 {
		return fmt.Errorf("config: scenario has no locations")
	}
	names := map[string]bool{}
	depots, customers := 0, 0
	for _, l := range sc.Locations {
		if l.Name == "" {
			return fmt.Errorf("config: location with empty name")
		}
		if names[l.Name] {
			return fmt.Errorf("config: duplicate location %q", l.Name)
		}
		names[l.Name] = true
		if l.Depot {
			depots++
		} else {
			customers++
		}
	}
	if depots == 0 {
		return fmt.Errorf("config: scenario has no depots")
	}
	if customers == 0 {
		return fmt.Errorf("config: scenario has no customers")
	}
	if len(sc.VehiclesPerDepot) == 0 {
		return fmt.Errorf("config: scenario assigns no vehicles")
	}
	for depot, count := range sc.VehiclesPerDepot {
		if !names[depot] {
			return fmt.Errorf("config: vehicle depot %q has no location", depot)
		}
		if count <= 0 {
			return fmt.Errorf("config: depot %q has vehicle count %d", depot, count)
		}
	}
	if sc.Capacity <= 0 {
		return fmt.Errorf("config: capacity must be positive, got %d", sc.Capacity)
	}
	if sc.MaxDistance <= 0 {
		return fmt.Errorf("config: maxDistance must be positive, got %d", sc.MaxDistance)
	}
	if sc.TimeBudgetMs < 0 {
		return fmt.Errorf("config: timeBudgetMs must be >= 0, got %d", sc.TimeBudgetMs)
	}
	return nil
}
