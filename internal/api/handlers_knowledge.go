package api

import (
	"net/http"
	"strconv"

	"github.com/dgallion1/docdialog/internal/converse"
	"github.com/dgallion1/docdialog/internal/extract"
	"github.com/dgallion1/docdialog/internal/store"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListFacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	filter := store.FactFilter{
		Category:       extract.Category(q.Get("category")),
		SourceDocument: q.Get("document"),
		Limit:          limit,
	}
	if filter.Category != "" && !extract.ValidCategory(filter.Category) {
		jsonError(w, "unknown category: "+string(filter.Category), http.StatusBadRequest)
		return
	}

	facts, err := s.store.ListFacts(r.Context(), filter)
	if err != nil {
		s.log.Error("list facts failed", "error", err)
		jsonError(w, "failed to list facts", http.StatusInternalServerError)
		return
	}
	if facts == nil {
		facts = []extract.Fact{}
	}
	writeJSON(w, map[string]any{"qa_pairs": facts})
}

func (s *Server) handleGetFact(w http.ResponseWriter, r *http.Request) {
	fact, err := s.store.GetFact(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.log.Error("get fact failed", "error", err)
		jsonError(w, "failed to load fact", http.StatusInternalServerError)
		return
	}
	if fact == nil {
		jsonError(w, "fact not found", http.StatusNotFound)
		return
	}
	writeJSON(w, fact)
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	convs, err := s.store.ListConversations(r.Context(), limit)
	if err != nil {
		s.log.Error("list conversations failed", "error", err)
		jsonError(w, "failed to list conversations", http.StatusInternalServerError)
		return
	}
	if convs == nil {
		convs = []converse.Conversation{}
	}
	writeJSON(w, map[string]any{"conversations": convs})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.store.GetConversation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.log.Error("get conversation failed", "error", err)
		jsonError(w, "failed to load conversation", http.StatusInternalServerError)
		return
	}
	if conv == nil {
		jsonError(w, "conversation not found", http.StatusNotFound)
		return
	}
	writeJSON(w, conv)
}

// queryLimit parses ?limit=. It writes the error response itself and
// reports false when the value is invalid.
func queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		jsonError(w, "limit must be a non-negative integer", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}
