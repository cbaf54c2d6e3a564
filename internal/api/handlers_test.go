package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fleetnav/internal/config"
	"fleetnav/internal/model"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Addr:       ":0",
		Scenario:   config.Default(),
		SolveRate:  1000,
		SolveBurst: 1000,
	}
	s, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func TestHealthReadyVersion(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != 200 {
		t.Fatalf("health: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != 200 {
		t.Fatalf("ready: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.VersionHandler(rr, httptest.NewRequest(http.MethodGet, "/version", nil))
	if rr.Code != 200 {
		t.Fatalf("version: got %d", rr.Code)
	}
}

func TestSolveWaitThenFetchPlan(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"timeBudgetMs":300}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/solve?wait=true", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.SolveHandler(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("solve: got %d body %s", rr.Code, rr.Body.String())
	}
	var plan model.Plan
	if err := json.Unmarshal(rr.Body.Bytes(), &plan); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	if plan.Status != model.PlanCompleted {
		t.Fatalf("status: got %s want %s (error: %s)", plan.Status, model.PlanCompleted, plan.Error)
	}
	if len(plan.Routes) != 4 {
		t.Fatalf("routes: got %d want 4", len(plan.Routes))
	}
	if plan.TotalDistance <= 0 {
		t.Fatalf("totalDistance: got %d", plan.TotalDistance)
	}

	// GET /v1/plans/{id}
	rr = httptest.NewRecorder()
	s.PlanByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/plans/"+plan.ID, nil))
	if rr.Code != 200 {
		t.Fatalf("get plan: got %d", rr.Code)
	}
	var fetched model.Plan
	if err := json.Unmarshal(rr.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode fetched plan: %v", err)
	}
	if fetched.TotalDistance != plan.TotalDistance {
		t.Fatalf("fetched distance %d != %d", fetched.TotalDistance, plan.TotalDistance)
	}

	// GET /v1/plans
	rr = httptest.NewRecorder()
	s.PlansIndexHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/plans?limit=10", nil))
	if rr.Code != 200 {
		t.Fatalf("list plans: got %d", rr.Code)
	}
	var idx struct {
		Items []model.Plan `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &idx); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(idx.Items) != 1 {
		t.Fatalf("list items: got %d want 1", len(idx.Items))
	}

	// GET /v1/plans/{id}/stats
	rr = httptest.NewRecorder()
	s.PlanByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/plans/"+plan.ID+"/stats", nil))
	if rr.Code != 200 {
		t.Fatalf("stats: got %d body %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "finalCost") {
		t.Fatalf("stats body missing finalCost: %s", rr.Body.String())
	}
}

func TestSolveNoSolutionReported(t *testing.T) {
	s := newTestServer(t)
	// no tour fits in 5 distance units, so the run must end without a solution
	body := []byte(`{"maxDistance":5,"timeBudgetMs":100}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/solve?wait=true", bytes.NewReader(body))
	s.SolveHandler(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("solve: got %d", rr.Code)
	}
	var plan model.Plan
	if err := json.Unmarshal(rr.Body.Bytes(), &plan); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if plan.Status != model.PlanNoSolution {
		t.Fatalf("status: got %s want %s", plan.Status, model.PlanNoSolution)
	}
	if len(plan.Routes) != 0 {
		t.Fatalf("routes on no-solution plan: %d", len(plan.Routes))
	}
	if plan.Error == "" {
		t.Fatal("no-solution plan should carry an error message")
	}
}

func TestSolveAsyncCompletes(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"timeBudgetMs":50}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(body))
	s.SolveHandler(rr, req)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("solve async: got %d", rr.Code)
	}
	var plan model.Plan
	if err := json.Unmarshal(rr.Body.Bytes(), &plan); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if plan.Status != model.PlanRunning {
		t.Fatalf("initial status: got %s want %s", plan.Status, model.PlanRunning)
	}
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		got, err := s.Store.GetPlan(context.Background(), plan.TenantID, plan.ID)
		if err != nil {
			t.Fatalf("get plan: %v", err)
		}
		if got.Status != model.PlanRunning {
			if got.Status != model.PlanCompleted {
				t.Fatalf("terminal status: got %s (error: %s)", got.Status, got.Error)
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("plan never reached a terminal status")
}

func TestSolveRejectsMalformedScenario(t *testing.T) {
	s := newTestServer(t)
	cases := []string{
		`{"scenario":{"locations":[],"vehiclesPerDepot":{},"capacity":4,"maxDistance":120}}`,
		`{"capacity":-1}`,
		`{not json`,
	}
	for _, body := range cases {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/solve?wait=true", strings.NewReader(body))
		s.SolveHandler(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %q: got %d want 400", body, rr.Code)
		}
	}
}

func TestSolveRequiresDispatcherRole(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/solve", nil)
	req.Header.Set("X-Role", "viewer")
	s.SolveHandler(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("viewer solve: got %d want 403", rr.Code)
	}
}

func TestSolveRateLimited(t *testing.T) {
	cfg := &config.Config{Addr: ":0", Scenario: config.Default(), SolveRate: 1, SolveBurst: 1}
	s, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	body := `{"timeBudgetMs":20}`
	rr := httptest.NewRecorder()
	s.SolveHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/solve?wait=true", strings.NewReader(body)))
	if rr.Code != http.StatusOK {
		t.Fatalf("first solve: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.SolveHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/solve?wait=true", strings.NewReader(body)))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second solve: got %d want 429", rr.Code)
	}
}

func TestPlanNotFound(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.PlanByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/plans/pl_missing", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d want 404", rr.Code)
	}
}

func TestEventsStreamSnapshotForFinishedPlan(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/solve?wait=true", strings.NewReader(`{"timeBudgetMs":50}`))
	s.SolveHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("solve: got %d", rr.Code)
	}
	var plan model.Plan
	if err := json.Unmarshal(rr.Body.Bytes(), &plan); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// a finished plan yields the snapshot event and the stream ends
	rr = httptest.NewRecorder()
	s.PlanByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/plans/"+plan.ID+"/events/stream", nil))
	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: got %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "event: plan.snapshot") {
		t.Fatalf("missing snapshot event: %s", rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), plan.Status) {
		t.Fatalf("snapshot missing status: %s", rr.Body.String())
	}
}

func TestSubscriptionsLifecycle(t *testing.T) {
	s := newTestServer(t)

	// unknown event type rejected
	rr := httptest.NewRecorder()
	bad := `{"url":"https://example.invalid/hook","events":["plan.teleported"],"secret":"x"}`
	s.SubscriptionsHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/subscriptions", strings.NewReader(bad)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad event: got %d want 400", rr.Code)
	}

	rr = httptest.NewRecorder()
	good := `{"url":"https://example.invalid/hook","events":["plan.completed"],"secret":"x"}`
	s.SubscriptionsHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/subscriptions", strings.NewReader(good)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: got %d body %s", rr.Code, rr.Body.String())
	}
	var sub model.Subscription
	if err := json.Unmarshal(rr.Body.Bytes(), &sub); err != nil {
		t.Fatalf("decode sub: %v", err)
	}

	rr = httptest.NewRecorder()
	s.SubscriptionsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/subscriptions", nil))
	if rr.Code != 200 || !strings.Contains(rr.Body.String(), sub.ID) {
		t.Fatalf("list: got %d body %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	s.SubscriptionByIDHandler(rr, httptest.NewRequest(http.MethodDelete, "/v1/subscriptions/"+sub.ID, nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.SubscriptionByIDHandler(rr, httptest.NewRequest(http.MethodDelete, "/v1/subscriptions/"+sub.ID, nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("delete again: got %d want 404", rr.Code)
	}
}
