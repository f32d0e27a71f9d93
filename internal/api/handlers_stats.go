package api

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Stats(r.Context())
	if err != nil {
		s.log.Error("store stats failed", "error", err)
		jsonError(w, "stats unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, map[string]any{
		"store":       st,
		"stages":      s.orchestrator.Runner().Stats().Snapshot(),
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
