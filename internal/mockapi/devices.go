package mockapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// handleListDevices returns all registered devices.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.store.listDevices()
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleCreateDevice registers a device. The body must carry a device_id;
// registering an existing id is a conflict.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	id, _ := doc["device_id"].(string)
	if id == "" {
		writeBadRequest(w, "device_id is required")
		return
	}

	doc["registered_at"] = time.Now().UTC().Format(time.RFC3339)
	if !s.store.putDevice(id, doc, false) {
		writeError(w, http.StatusConflict, ErrCodeConflict, "device already registered")
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

// handleGetDevice returns a single device by id.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.store.getDevice(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleUpdateDevice replaces a device document.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.store.getDevice(id); !ok {
		writeNotFound(w, "device not found")
		return
	}

	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	doc["device_id"] = id
	doc["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	s.store.putDevice(id, doc, true)
	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteDevice removes a device.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	if !s.store.deleteDevice(chi.URLParam(r, "id")) {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// handleDeviceStatus returns a synthetic online status for a device.
func (s *Server) handleDeviceStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.store.getDevice(id); !ok {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": id,
		"online":    true,
		"last_seen": time.Now().UTC().Format(time.RFC3339),
	})
}
