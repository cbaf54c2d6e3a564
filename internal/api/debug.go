package api

import (
	"net/http"
	"os"
	"time"

	"fleetnav/internal/buildinfo"
)

// VersionHandler handles GET /version.
func (s *Server) VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Info())
}

// DebugJSON reports build and runtime configuration for operators.
func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"ADDR":                 s.Cfg.Addr,
			"SCENARIO_FILE":        os.Getenv("SCENARIO_FILE"),
			"SOLVE_RATE_LIMIT":     s.Cfg.SolveRate,
			"SOLVE_RATE_BURST":     s.Cfg.SolveBurst,
			"WEBHOOK_MAX_ATTEMPTS": os.Getenv("WEBHOOK_MAX_ATTEMPTS"),
			"HAS_DATABASE_URL":     os.Getenv("DATABASE_URL") != "",
			"HAS_REDIS_URL":        os.Getenv("REDIS_URL") != "",
		},
	})
}
