// Package scenario parses routing scenarios from external interchange
// formats. Dispatch and ingestion flows that hand over location dumps
// rarely speak YAML; CSV is the lowest common denominator.
package scenario

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fleetnav/internal/model"
)

// csvHeader is the required column order for scenario CSV files.
var csvHeader = []string{"name", "x", "y", "depot", "vehicles"}

// ParseCSV reads locations and the fleet shape from a CSV file with the
// header name,x,y,depot,vehicles. Depot rows set depot=true and carry a
// vehicle count; customer rows leave both columns empty. CSV carries no
// capacity or distance bounds; callers apply their own defaults before
// validation.
func ParseCSV(r io.Reader) (model.Scenario, error) {
	var sc model.Scenario
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return sc, fmt.Errorf("scenario: parse csv: %w", err)
	}
	if len(rows) == 0 {
		return sc, fmt.Errorf("scenario: empty csv")
	}
	if err := checkHeader(rows[0]); err != nil {
		return sc, err
	}
	sc.VehiclesPerDepot = map[string]int{}
	for i, row := range rows[1:] {
		line := i + 2
		if len(row) != len(csvHeader) {
			return sc, fmt.Errorf("scenario: line %d: want %d columns, got %d", line, len(csvHeader), len(row))
		}
		name := strings.TrimSpace(row[0])
		x, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return sc, fmt.Errorf("scenario: line %d: bad x %q", line, row[1])
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err != nil {
			return sc, fmt.Errorf("scenario: line %d: bad y %q", line, row[2])
		}
		depot := false
		if v := strings.TrimSpace(row[3]); v != "" {
			depot, err = strconv.ParseBool(v)
			if err != nil {
				return sc, fmt.Errorf("scenario: line %d: bad depot flag %q", line, row[3])
			}
		}
		sc.Locations = append(sc.Locations, model.Location{Name: name, X: x, Y: y, Depot: depot})
		if v := strings.TrimSpace(row[4]); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return sc, fmt.Errorf("scenario: line %d: bad vehicle count %q", line, row[4])
			}
			if !depot {
				return sc, fmt.Errorf("scenario: line %d: vehicles set on non-depot %q", line, name)
			}
			sc.VehiclesPerDepot[name] = n
		}
	}
	return sc, nil
}

func checkHeader(got []string) error {
	if len(got) != len(csvHeader) {
		return fmt.Errorf("scenario: bad csv header %v", got)
	}
	for i, col := range csvHeader {
		if strings.TrimSpace(strings.ToLower(got[i])) != col {
			return fmt.Errorf("scenario: bad csv header %v", got)
		}
	}
	return nil
}
