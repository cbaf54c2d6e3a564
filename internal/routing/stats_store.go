package routing

import "sync"

var (
	statsMu sync.Mutex
	stats   = map[string]Stats{}
)

// RecordStats keeps the solve stats for a plan so the API can expose
// them after the run completes.
func RecordStats(planID string, s Stats) {
	statsMu.Lock()
	stats[planID] = s
	statsMu.Unlock()
}

// GetStats returns the recorded stats for a plan, if any.
func GetStats(planID string) (Stats, bool) {
	statsMu.Lock()
	defer statsMu.Unlock()
	s, ok := stats[planID]
	return s, ok
}
