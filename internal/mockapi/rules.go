package mockapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// handleListRules returns all automation rules.
func (s *Server) handleListRules(w http.ResponseWriter, _ *http.Request) {
	rules := s.store.listRules()
	writeJSON(w, http.StatusOK, map[string]any{
		"rules": rules,
		"count": len(rules),
	})
}

// handleCreateRule creates an automation rule, assigning a rule_id if the
// body did not provide one.
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	id, _ := doc["rule_id"].(string)
	if id == "" {
		id = uuid.NewString()
		doc["rule_id"] = id
	}
	doc["created_at"] = time.Now().UTC().Format(time.RFC3339)

	s.store.putRule(id, doc)
	writeJSON(w, http.StatusCreated, doc)
}

// handleGetRule returns a single rule by id.
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.store.getRule(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "rule not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleReplaceRule replaces a rule document.
func (s *Server) handleReplaceRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.store.getRule(id); !ok {
		writeNotFound(w, "rule not found")
		return
	}

	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	doc["rule_id"] = id
	doc["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	s.store.putRule(id, doc)
	writeJSON(w, http.StatusOK, doc)
}

// handlePatchRule merges the given fields into an existing rule. Used mainly
// for toggling the enabled flag.
func (s *Server) handlePatchRule(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	delete(fields, "rule_id")

	doc, ok := s.store.patchRule(chi.URLParam(r, "id"), fields)
	if !ok {
		writeNotFound(w, "rule not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteRule removes a rule.
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if !s.store.deleteRule(chi.URLParam(r, "id")) {
		writeNotFound(w, "rule not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}
