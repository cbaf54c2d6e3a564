package model

// Core domain types for multi-depot fleet routing.

// Location is a named 2D scenario point. Depot marks a vehicle home base;
// every other location is a customer. Immutable once defined.
type Location struct {
	Name  string  `json:"name" yaml:"name"`
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Depot bool    `json:"depot,omitempty" yaml:"depot,omitempty"`
}

// Point returns the location's coordinate.
func (l Location) Point() Point { return Point{X: l.X, Y: l.Y} }

// Point is a bare 2D coordinate, used for route polylines.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Scenario is the full routing input: the location set, the fleet shape
// and the per-vehicle bounds. Vehicles start and end at their own depot
// (closed tours); several vehicles may share a depot.
type Scenario struct {
	Locations        []Location     `json:"locations" yaml:"locations"`
	VehiclesPerDepot map[string]int `json:"vehiclesPerDepot" yaml:"vehiclesPerDepot"`
	Capacity         int            `json:"capacity" yaml:"capacity"`
	MaxDistance      int            `json:"maxDistance" yaml:"maxDistance"`
	TimeBudgetMs     int            `json:"timeBudgetMs,omitempty" yaml:"timeBudgetMs,omitempty"`
}

// SolveRequest is the POST /v1/solve body. An omitted scenario uses the
// server's configured default; the scalar fields override scenario values.
type SolveRequest struct {
	TenantID     string    `json:"tenantId,omitempty"`
	Scenario     *Scenario `json:"scenario,omitempty"`
	Capacity     int       `json:"capacity,omitempty"`
	MaxDistance  int       `json:"maxDistance,omitempty"`
	TimeBudgetMs int       `json:"timeBudgetMs,omitempty"`
}

// Plan statuses.
const (
	PlanRunning    = "running"
	PlanCompleted  = "completed"
	PlanNoSolution = "no_solution"
	PlanFailed     = "failed"
)

// PlanRoute is one vehicle's closed tour in a finished plan.
type PlanRoute struct {
	VehicleID string   `json:"vehicleId"`
	Depot     string   `json:"depot"`
	Stops     []string `json:"stops"`
	Path      []Point  `json:"path,omitempty"`
	Distance  int      `json:"distance"`
	Customers int      `json:"customers"`
}

// Plan is the persisted outcome of one solve invocation.
type Plan struct {
	ID            string      `json:"id"`
	TenantID      string      `json:"tenantId"`
	Status        string      `json:"status"`
	Routes        []PlanRoute `json:"routes,omitempty"`
	TotalDistance int         `json:"totalDistance,omitempty"`
	Error         string      `json:"error,omitempty"`
	CreatedAt     string      `json:"createdAt,omitempty"`
	CompletedAt   string      `json:"completedAt,omitempty"`
}

type SubscriptionRequest struct {
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret"`
}

type Subscription struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret,omitempty"`
}
