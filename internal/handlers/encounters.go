package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/campaign-engine/internal/services/events"
	"github.com/jwebster45206/campaign-engine/pkg/campaign"
	"github.com/jwebster45206/campaign-engine/pkg/engine"
	"github.com/jwebster45206/campaign-engine/pkg/storage"
)

// ResolveRequest closes out an encounter with a table-decided outcome.
type ResolveRequest struct {
	Outcome        string      `json:"outcome"`
	DefeatedNPCIDs []uuid.UUID `json:"defeated_npc_ids,omitempty"`
	Notes          string      `json:"notes,omitempty"`
}

type ResolveResponse struct {
	ConsequenceText string `json:"consequence_text"`
}

// EncountersHandler resolves encounters.
type EncountersHandler struct {
	store       storage.Store
	resolver    *engine.Resolver
	broadcaster *events.Broadcaster
	logger      *slog.Logger
}

func NewEncountersHandler(store storage.Store, broadcaster *events.Broadcaster, logger *slog.Logger) *EncountersHandler {
	return &EncountersHandler{
		store:       store,
		resolver:    engine.NewResolver(store, logger),
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// ServeHTTP handles encounter resolution.
// POST /v1/encounters/{id}/resolve
func (h *EncountersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/encounters"), "/")
	segments := strings.Split(path, "/")
	if len(segments) != 2 || segments[1] != "resolve" {
		writeError(h.logger, w, http.StatusNotFound, "Not found")
		return
	}
	if r.Method != http.MethodPost {
		writeError(h.logger, w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
		return
	}

	encounterID, err := uuid.Parse(segments[0])
	if err != nil {
		h.logger.Warn("Invalid encounter ID", "id", segments[0], "error", err)
		writeError(h.logger, w, http.StatusBadRequest, "Invalid encounter ID format")
		return
	}

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(h.logger, w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	outcome, ok := campaign.ParseOutcome(req.Outcome)
	if !ok {
		writeError(h.logger, w, http.StatusBadRequest, "Invalid outcome. Expected one of: victory, draw, defeat, retreat")
		return
	}

	consequence, err := h.resolver.Resolve(r.Context(), encounterID, outcome, req.DefeatedNPCIDs, req.Notes)
	if err != nil {
		if errors.Is(err, engine.ErrEncounterNotFound) {
			writeError(h.logger, w, http.StatusNotFound, "Encounter not found")
			return
		}
		h.logger.Error("Failed to resolve encounter", "error", err, "id", encounterID.String())
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to resolve encounter")
		return
	}

	if campaignID, err := h.store.FindEncounterCampaign(r.Context(), encounterID); err == nil && campaignID != uuid.Nil {
		if err := h.broadcaster.PublishCampaignUpdated(r.Context(), campaignID, "encounter"); err != nil {
			h.logger.Warn("Failed to publish campaign event", "error", err)
		}
	}

	h.logger.Info("Encounter resolved", "id", encounterID.String(), "outcome", string(outcome))
	writeJSON(h.logger, w, http.StatusOK, ResolveResponse{ConsequenceText: consequence})
}
