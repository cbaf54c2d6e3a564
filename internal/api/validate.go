package api

import (
	"fmt"

	"fleetnav/internal/config"
	"fleetnav/internal/model"
)

// resolveSolveRequest merges a solve request with the server's default
// scenario and validates the result before any search begins.
func (s *Server) resolveSolveRequest(req *model.SolveRequest) (model.Scenario, error) {
	sc := s.Cfg.Scenario
	if req.Scenario != nil {
		sc = *req.Scenario
		if sc.TimeBudgetMs == 0 {
			sc.TimeBudgetMs = config.DefaultTimeBudgetMs
		}
	}
	if req.Capacity != 0 {
		if req.Capacity < 0 {
			return sc, fmt.Errorf("capacity must be > 0")
		}
		sc.Capacity = req.Capacity
	}
	if req.MaxDistance != 0 {
		if req.MaxDistance < 0 {
			return sc, fmt.Errorf("maxDistance must be > 0")
		}
		sc.MaxDistance = req.MaxDistance
	}
	if req.TimeBudgetMs != 0 {
		if req.TimeBudgetMs < 0 {
			return sc, fmt.Errorf("timeBudgetMs must be > 0")
		}
		sc.TimeBudgetMs = req.TimeBudgetMs
	}
	return sc, config.ValidateScenario(sc)
}

func validateSubscriptionRequest(req *model.SubscriptionRequest) error {
	if req.URL == "" {
		return fmt.Errorf("url is required")
	}
	if len(req.Events) == 0 {
		return fmt.Errorf("events must not be empty")
	}
	for _, e := range req.Events {
		if e != "plan.completed" && e != "plan.failed" {
			return fmt.Errorf("unknown event type: %s (allowed: plan.completed, plan.failed)", e)
		}
	}
	return nil
}
