package scenario

import (
	"strings"
	"testing"
)

func TestParseCSV(t *testing.T) {
	in := `name,x,y,depot,vehicles
Hub,0,0,true,2
S1,3,4,,
S2,6,8,false,
`
	sc, err := ParseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(sc.Locations) != 3 {
		t.Fatalf("locations: got %d want 3", len(sc.Locations))
	}
	if !sc.Locations[0].Depot || sc.Locations[1].Depot || sc.Locations[2].Depot {
		t.Fatalf("depot flags wrong: %+v", sc.Locations)
	}
	if sc.VehiclesPerDepot["Hub"] != 2 {
		t.Fatalf("vehicles: got %d want 2", sc.VehiclesPerDepot["Hub"])
	}
	if sc.Locations[1].X != 3 || sc.Locations[1].Y != 4 {
		t.Fatalf("coords wrong: %+v", sc.Locations[1])
	}
}

func TestParseCSVRejectsMalformedRows(t *testing.T) {
	cases := map[string]string{
		"bad header":           "who,x,y,depot,vehicles\nHub,0,0,true,2\n",
		"bad x":                "name,x,y,depot,vehicles\nHub,zero,0,true,2\n",
		"bad depot flag":       "name,x,y,depot,vehicles\nHub,0,0,maybe,2\n",
		"vehicles on customer": "name,x,y,depot,vehicles\nS1,1,1,,3\n",
		"empty":                "",
	}
	for name, in := range cases {
		if _, err := ParseCSV(strings.NewReader(in)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
