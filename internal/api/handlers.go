package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"fleetnav/internal/metrics"
	"fleetnav/internal/model"
	"fleetnav/internal/routing"
	"fleetnav/internal/store"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

// SolveHandler handles POST /v1/solve. The solve runs asynchronously and
// the created plan is returned with status "running"; ?wait=true blocks
// until the time budget is spent and returns the finished plan.
func (s *Server) SolveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	pr := s.getPrincipal(r)
	if !pr.CanSolve() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "dispatcher or admin required", r.URL.Path)
		return
	}
	if !s.limiter.Allow() {
		writeProblem(w, http.StatusTooManyRequests, "Rate limited", "solve rate limit exceeded", r.URL.Path)
		return
	}
	var req model.SolveRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
	}
	tenant := pr.Tenant
	if req.TenantID != "" {
		tenant = req.TenantID
	}
	sc, err := s.resolveSolveRequest(&req)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid scenario", err.Error(), r.URL.Path)
		return
	}
	m, err := routing.BuildModel(sc)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid scenario", err.Error(), r.URL.Path)
		return
	}
	plan, err := s.Store.CreatePlan(r.Context(), model.Plan{TenantID: tenant, Status: model.PlanRunning})
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Create plan failed", err.Error(), r.URL.Path)
		return
	}
	if r.URL.Query().Get("wait") == "true" {
		plan = s.runSolve(r.Context(), plan, m, sc)
		writeJSON(w, http.StatusOK, plan)
		return
	}
	go s.runSolve(context.Background(), plan, m, sc)
	writeJSON(w, http.StatusAccepted, plan)
}

// runSolve executes one solver run and persists the outcome. Progress and
// the terminal event are published on the plan's broker channel; completed
// and failed outcomes also fan out to webhook subscribers.
func (s *Server) runSolve(ctx context.Context, plan model.Plan, m *routing.Model, sc model.Scenario) model.Plan {
	start := time.Now()
	opts := routing.Options{
		TimeBudget: time.Duration(sc.TimeBudgetMs) * time.Millisecond,
		OnImprove: func(cost, iteration int) {
			s.Broker.Publish(plan.ID, PlanEvent{Type: "plan.improved", Data: map[string]any{
				"planId": plan.ID, "cost": cost, "iteration": iteration,
			}})
		},
	}
	sol, st, err := routing.NewSolver(m, opts).Solve(ctx)
	routing.RecordStats(plan.ID, st)
	metrics.SolveDuration.Observe(time.Since(start).Seconds())
	metrics.SolveIterations.Add(float64(st.Iterations))
	metrics.SolveImprovements.Add(float64(st.Improvements))

	switch {
	case errors.Is(err, routing.ErrNoSolution):
		plan.Status = model.PlanNoSolution
		plan.Error = err.Error()
	case err != nil:
		plan.Status = model.PlanFailed
		plan.Error = err.Error()
	default:
		plan.Status = model.PlanCompleted
		plan.Routes = sol.PlanRoutes()
		plan.TotalDistance = sol.TotalDistance
	}
	metrics.SolveRuns.WithLabelValues(plan.Status).Inc()
	plan.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	if uerr := s.Store.UpdatePlan(ctx, plan.TenantID, plan); uerr != nil {
		log.Printf("update plan %s: %v", plan.ID, uerr)
	}

	data := map[string]any{"planId": plan.ID, "status": plan.Status}
	if plan.Status == model.PlanCompleted {
		data["totalDistance"] = plan.TotalDistance
		data["routes"] = len(plan.Routes)
	}
	if plan.Error != "" {
		data["error"] = plan.Error
	}
	s.Broker.Publish(plan.ID, PlanEvent{Type: "plan." + terminalSuffix(plan.Status), Data: data})
	switch plan.Status {
	case model.PlanCompleted:
		s.Pub.Emit(ctx, plan.TenantID, "plan.completed", data)
	case model.PlanFailed, model.PlanNoSolution:
		s.Pub.Emit(ctx, plan.TenantID, "plan.failed", data)
	}
	return plan
}

func terminalSuffix(status string) string {
	if status == model.PlanRunning {
		return "running"
	}
	return status
}

// PlansIndexHandler handles GET /v1/plans.
func (s *Server) PlansIndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	pr := s.getPrincipal(r)
	cursor := r.URL.Query().Get("cursor")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, next, err := s.Store.ListPlans(r.Context(), pr.Tenant, cursor, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List plans failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// PlanByIDHandler handles /v1/plans/{id} and its subresources:
// /events/stream (SSE), /ws (WebSocket) and /stats.
func (s *Server) PlanByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/plans/")
	if rest == "" || rest == r.URL.Path {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	pr := s.getPrincipal(r)

	if len(parts) == 3 && parts[1] == "events" && parts[2] == "stream" {
		s.planEventsSSE(w, r, pr.Tenant, id)
		return
	}
	if len(parts) == 2 && parts[1] == "ws" {
		s.planWS(w, r, pr.Tenant, id)
		return
	}
	if len(parts) == 2 && parts[1] == "stats" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if _, err := s.Store.GetPlan(r.Context(), pr.Tenant, id); err != nil {
			writeProblem(w, http.StatusNotFound, "Plan not found", err.Error(), r.URL.Path)
			return
		}
		st, ok := routing.GetStats(id)
		if !ok {
			writeProblem(w, http.StatusNotFound, "No stats recorded", "", r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"planId":       id,
			"iterations":   st.Iterations,
			"improvements": st.Improvements,
			"penalized":    st.Penalized,
			"initialCost":  st.InitialCost,
			"finalCost":    st.FinalCost,
			"elapsedMs":    st.Elapsed.Milliseconds(),
		})
		return
	}
	if len(parts) != 1 {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	plan, err := s.Store.GetPlan(r.Context(), pr.Tenant, id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Plan not found", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) planEventsSSE(w http.ResponseWriter, r *http.Request, tenant, id string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	plan, err := s.Store.GetPlan(r.Context(), tenant, id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Plan not found", err.Error(), r.URL.Path)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.Broker.Subscribe(id)
	defer s.Broker.Unsubscribe(id, ch)

	// snapshot first so a late subscriber sees the current state
	fmt.Fprintf(w, "event: plan.snapshot\n")
	fmt.Fprintf(w, "data: {\"planId\":\"%s\",\"status\":\"%s\"}\n\n", plan.ID, plan.Status)
	flusher.Flush()
	if plan.Status != model.PlanRunning {
		return
	}

	notify := r.Context().Done()
	for {
		select {
		case <-notify:
			return
		case evt, open := <-ch:
			if !open {
				return
			}
			b, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", string(b))
			flusher.Flush()
			if evt.Terminal() {
				return
			}
		case <-time.After(15 * time.Second):
			fmt.Fprintf(w, "event: heartbeat\n")
			fmt.Fprintf(w, "data: {\"planId\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
			flusher.Flush()
		}
	}
}

func (s *Server) planWS(w http.ResponseWriter, r *http.Request, tenant, id string) {
	plan, err := s.Store.GetPlan(r.Context(), tenant, id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Plan not found", err.Error(), r.URL.Path)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	_ = conn.WriteJSON(PlanEvent{Type: "plan.snapshot", Data: map[string]any{
		"planId": plan.ID, "status": plan.Status, "totalDistance": plan.TotalDistance,
	}})
	if plan.Status != model.PlanRunning {
		return
	}

	ch := s.Broker.Subscribe(id)
	defer s.Broker.Unsubscribe(id, ch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(1 << 16)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case evt, open := <-ch:
			if !open {
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
			if evt.Terminal() {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}

// SubscriptionsHandler handles /v1/subscriptions (POST create, GET list).
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	pr := s.getPrincipal(r)
	switch r.Method {
	case http.MethodPost:
		if !pr.IsAdmin() {
			writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
			return
		}
		var req model.SubscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		req.TenantID = pr.Tenant
		if err := validateSubscriptionRequest(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid subscription", err.Error(), r.URL.Path)
			return
		}
		sub, err := s.Store.CreateSubscription(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	case http.MethodGet:
		cursor := r.URL.Query().Get("cursor")
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		items, next, err := s.Store.ListSubscriptions(r.Context(), pr.Tenant, cursor, limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List subscriptions failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id}.
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	pr := s.getPrincipal(r)
	if !pr.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	if err := s.Store.DeleteSubscription(r.Context(), pr.Tenant, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Subscription not found", "", r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Delete subscription failed", err.Error(), r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthHandler handles GET /healthz.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler handles GET /readyz. With a Postgres store it verifies the
// database connection; the in-memory store is always ready.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	type pinger interface {
		Ping(ctx context.Context) error
	}
	if p, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
