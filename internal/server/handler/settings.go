package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/eveexchange/backend/internal/domain"
	"github.com/eveexchange/backend/internal/service"
)

// SettingsHandler serves the user settings and API key endpoints.
type SettingsHandler struct {
	settings *service.SettingsService
	logger   *slog.Logger
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(settings *service.SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

// settingsResponse is the wire form of a settings row.
type settingsResponse struct {
	UserName   string `json:"userName"`
	Premium    bool   `json:"premium"`
	HomeRegion int64  `json:"homeRegion"`
}

// Get returns the authenticated user's settings.
// GET /api/settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	us, err := h.settings.Get(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		UserName:   us.UserName,
		Premium:    us.Premium,
		HomeRegion: us.HomeRegion,
	})
}

// Update stores the authenticated user's settings.
// PUT /api/settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	var req settingsResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	us, err := h.settings.Update(r.Context(), domain.UserSettings{
		UserID:     userID,
		UserName:   req.UserName,
		HomeRegion: req.HomeRegion,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		UserName:   us.UserName,
		Premium:    us.Premium,
		HomeRegion: us.HomeRegion,
	})
}

// apiKeyResponse is the wire form of an API key record. The plaintext
// credential appears only in the creation response.
type apiKeyResponse struct {
	KeyID     string `json:"keyID"`
	Label     string `json:"label"`
	CreatedAt string `json:"createdAt,omitempty"`
	Key       string `json:"key,omitempty"`
}

// CreateAPIKey mints a new API key for the authenticated user.
// POST /api/settings/keys
func (h *SettingsHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	key, plaintext, err := h.settings.CreateAPIKey(r.Context(), userID, req.Label)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, apiKeyResponse{
		KeyID: key.KeyID,
		Label: key.Label,
		Key:   plaintext,
	})
}

// ListAPIKeys returns the authenticated user's keys.
// GET /api/settings/keys
func (h *SettingsHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	keys, err := h.settings.ListAPIKeys(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]apiKeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, apiKeyResponse{
			KeyID:     k.KeyID,
			Label:     k.Label,
			CreatedAt: k.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// DeleteAPIKey removes one of the authenticated user's keys.
// DELETE /api/settings/keys/{id}
func (h *SettingsHandler) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid key id")
		return
	}
	if err := h.settings.DeleteAPIKey(r.Context(), userID, id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
