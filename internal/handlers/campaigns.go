package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/campaign-engine/internal/services"
	"github.com/jwebster45206/campaign-engine/internal/services/events"
	"github.com/jwebster45206/campaign-engine/pkg/campaign"
	"github.com/jwebster45206/campaign-engine/pkg/engine"
	"github.com/jwebster45206/campaign-engine/pkg/prompts"
	"github.com/jwebster45206/campaign-engine/pkg/storage"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v with the given status. Encode failures are logged,
// not surfaced; headers are already gone by then.
func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(logger *slog.Logger, w http.ResponseWriter, status int, msg string) {
	writeJSON(logger, w, status, ErrorResponse{Error: msg})
}

// SceneView is a scene with its outgoing choices and encounter attached,
// the shape clients render from.
type SceneView struct {
	campaign.Scene
	Choices   []campaign.Choice   `json:"choices,omitempty"`
	Encounter *campaign.Encounter `json:"encounter,omitempty"`
}

// StateResponse is the campaign state with the current scene embedded.
type StateResponse struct {
	State        *campaign.State `json:"state"`
	CurrentScene *SceneView      `json:"current_scene,omitempty"`
}

// CampaignsHandler handles campaign lifecycle and play operations.
type CampaignsHandler struct {
	store       storage.Store
	generator   services.GeneratorService
	builder     *engine.Builder
	navigator   *engine.Navigator
	broadcaster *events.Broadcaster
	party       *PartyHandler
	logger      *slog.Logger
}

func NewCampaignsHandler(store storage.Store, generator services.GeneratorService, broadcaster *events.Broadcaster, logger *slog.Logger) *CampaignsHandler {
	return &CampaignsHandler{
		store:       store,
		generator:   generator,
		builder:     engine.NewBuilder(store, logger),
		navigator:   engine.NewNavigator(store, logger),
		broadcaster: broadcaster,
		party:       NewPartyHandler(store, logger),
		logger:      logger,
	}
}

// ServeHTTP routes campaign requests.
// Routes:
// GET    /v1/campaigns                      - List campaigns
// POST   /v1/campaigns/generate             - Generate a new campaign
// GET    /v1/campaigns/{id}                 - Read full campaign
// DELETE /v1/campaigns/{id}                 - Delete campaign
// GET    /v1/campaigns/{id}/state           - State with embedded current scene
// GET    /v1/campaigns/{id}/logs            - Campaign log, oldest first
// POST   /v1/campaigns/{id}/choose          - Take a choice from the current scene
// POST   /v1/campaigns/{id}/checks          - Record a skill check result
// GET    /v1/campaigns/{id}/events          - SSE stream of campaign events
// .../party                                  - Acolyte sheets (see PartyHandler)
func (h *CampaignsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/campaigns"), "/")
	var segments []string
	if path != "" {
		segments = strings.Split(path, "/")
	}

	if len(segments) == 0 {
		w.Header().Set("Content-Type", "application/json")
		if r.Method != http.MethodGet {
			writeError(h.logger, w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
			return
		}
		h.handleList(w, r)
		return
	}

	if segments[0] == "generate" {
		w.Header().Set("Content-Type", "application/json")
		if len(segments) != 1 || r.Method != http.MethodPost {
			writeError(h.logger, w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleGenerate(w, r)
		return
	}

	campaignID, err := uuid.Parse(segments[0])
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		h.logger.Warn("Invalid campaign ID", "id", segments[0], "error", err)
		writeError(h.logger, w, http.StatusBadRequest, "Invalid campaign ID format")
		return
	}

	if len(segments) >= 2 && segments[1] == "party" {
		h.party.Handle(w, r, campaignID, segments[2:])
		return
	}

	// The events stream sets its own headers.
	if len(segments) == 2 && segments[1] == "events" {
		h.handleEvents(w, r, campaignID)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if len(segments) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, campaignID)
		case http.MethodDelete:
			h.handleDelete(w, r, campaignID)
		default:
			writeError(h.logger, w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}
		return
	}

	if len(segments) == 2 {
		switch {
		case segments[1] == "state" && r.Method == http.MethodGet:
			h.handleState(w, r, campaignID)
			return
		case segments[1] == "logs" && r.Method == http.MethodGet:
			h.handleLogs(w, r, campaignID)
			return
		case segments[1] == "choose" && r.Method == http.MethodPost:
			h.handleChoose(w, r, campaignID)
			return
		case segments[1] == "checks" && r.Method == http.MethodPost:
			h.handleChecks(w, r, campaignID)
			return
		}
	}

	writeError(h.logger, w, http.StatusNotFound, "Not found")
}

func (h *CampaignsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.ListCampaigns(r.Context())
	if err != nil {
		h.logger.Error("Failed to list campaigns", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to list campaigns")
		return
	}
	if summaries == nil {
		summaries = []campaign.Summary{}
	}
	writeJSON(h.logger, w, http.StatusOK, summaries)
}

func (h *CampaignsHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var brief prompts.Brief
	if err := json.NewDecoder(r.Body).Decode(&brief); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(h.logger, w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	h.logger.Info("Generating campaign",
		"num_players", brief.NumPlayers,
		"avg_exp", brief.AvgExp,
		"world", brief.World)

	desc, err := h.generator.GenerateCampaign(r.Context(), brief)
	if err != nil {
		h.logger.Error("Campaign generation failed", "error", err)
		if errors.Is(err, engine.ErrGenerationInput) {
			writeError(h.logger, w, http.StatusBadGateway, "Generator produced an unusable campaign description")
			return
		}
		writeError(h.logger, w, http.StatusBadGateway, "Campaign generation failed")
		return
	}

	campaignID, err := h.builder.Build(r.Context(), desc)
	if err != nil {
		h.logger.Error("Failed to build campaign", "error", err)
		if errors.Is(err, engine.ErrGenerationInput) {
			writeError(h.logger, w, http.StatusBadGateway, "Generator produced an unusable campaign description")
			return
		}
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to build campaign")
		return
	}

	g, err := h.store.GetGraph(r.Context(), campaignID)
	if err != nil || g == nil {
		h.logger.Error("Failed to read generated campaign", "error", err, "id", campaignID.String())
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to read generated campaign")
		return
	}

	if err := h.broadcaster.PublishCampaignUpdated(r.Context(), campaignID, "generated"); err != nil {
		h.logger.Warn("Failed to publish campaign event", "error", err)
	}

	h.logger.Info("Campaign generated", "id", campaignID.String(), "title", g.Campaign.Title)
	writeJSON(h.logger, w, http.StatusCreated, g)
}

func (h *CampaignsHandler) handleRead(w http.ResponseWriter, r *http.Request, campaignID uuid.UUID) {
	g, err := h.store.GetGraph(r.Context(), campaignID)
	if err != nil {
		h.logger.Error("Failed to load campaign", "error", err, "id", campaignID.String())
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to load campaign")
		return
	}
	if g == nil {
		writeError(h.logger, w, http.StatusNotFound, "Campaign not found")
		return
	}
	writeJSON(h.logger, w, http.StatusOK, g)
}

func (h *CampaignsHandler) handleDelete(w http.ResponseWriter, r *http.Request, campaignID uuid.UUID) {
	if err := h.store.DeleteCampaign(r.Context(), campaignID); err != nil {
		h.logger.Error("Failed to delete campaign", "error", err, "id", campaignID.String())
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to delete campaign")
		return
	}
	h.logger.Debug("Campaign deleted", "id", campaignID.String())
	w.WriteHeader(http.StatusNoContent)
}

func (h *CampaignsHandler) handleState(w http.ResponseWriter, r *http.Request, campaignID uuid.UUID) {
	resp, status, err := h.stateResponse(r, campaignID)
	if err != nil {
		h.logger.Error("Failed to load campaign state", "error", err, "id", campaignID.String())
		writeError(h.logger, w, status, err.Error())
		return
	}
	writeJSON(h.logger, w, http.StatusOK, resp)
}

// stateResponse assembles the current state with its scene view.
func (h *CampaignsHandler) stateResponse(r *http.Request, campaignID uuid.UUID) (*StateResponse, int, error) {
	g, err := h.store.GetGraph(r.Context(), campaignID)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to load campaign")
	}
	if g == nil {
		return nil, http.StatusNotFound, fmt.Errorf("campaign not found")
	}

	resp := &StateResponse{State: &g.State}
	if g.State.CurrentSceneID != uuid.Nil {
		if sc := g.Scene(g.State.CurrentSceneID); sc != nil {
			resp.CurrentScene = &SceneView{
				Scene:     *sc,
				Choices:   g.SceneChoices(sc.ID),
				Encounter: g.SceneEncounter(sc.ID),
			}
		}
	}
	return resp, http.StatusOK, nil
}

func (h *CampaignsHandler) handleLogs(w http.ResponseWriter, r *http.Request, campaignID uuid.UUID) {
	c, err := h.store.GetCampaign(r.Context(), campaignID)
	if err != nil {
		h.logger.Error("Failed to load campaign", "error", err, "id", campaignID.String())
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to load campaign")
		return
	}
	if c == nil {
		writeError(h.logger, w, http.StatusNotFound, "Campaign not found")
		return
	}

	logs, err := h.store.ListLogs(r.Context(), campaignID)
	if err != nil {
		h.logger.Error("Failed to list logs", "error", err, "id", campaignID.String())
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to list logs")
		return
	}
	if logs == nil {
		logs = []campaign.LogEntry{}
	}
	writeJSON(h.logger, w, http.StatusOK, logs)
}

// ChooseRequest selects one choice from the current scene.
type ChooseRequest struct {
	ChoiceID uuid.UUID `json:"choice_id"`
}

func (h *CampaignsHandler) handleChoose(w http.ResponseWriter, r *http.Request, campaignID uuid.UUID) {
	var req ChooseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(h.logger, w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.ChoiceID == uuid.Nil {
		writeError(h.logger, w, http.StatusBadRequest, "choice_id field is required")
		return
	}

	_, err := h.navigator.Advance(r.Context(), campaignID, req.ChoiceID)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrChoiceNotFound):
			writeError(h.logger, w, http.StatusNotFound, "Choice not found for this campaign")
		case errors.Is(err, engine.ErrChoiceNotAvailable):
			writeError(h.logger, w, http.StatusConflict, "Choice does not belong to the current scene")
		case errors.Is(err, engine.ErrStateNotInitialized):
			writeError(h.logger, w, http.StatusConflict, "Campaign state not initialized")
		default:
			h.logger.Error("Failed to advance campaign", "error", err, "id", campaignID.String())
			writeError(h.logger, w, http.StatusInternalServerError, "Failed to advance campaign")
		}
		return
	}

	if err := h.broadcaster.PublishCampaignUpdated(r.Context(), campaignID, "choice"); err != nil {
		h.logger.Warn("Failed to publish campaign event", "error", err)
	}

	resp, status, err := h.stateResponse(r, campaignID)
	if err != nil {
		writeError(h.logger, w, status, err.Error())
		return
	}
	writeJSON(h.logger, w, http.StatusOK, resp)
}

// CheckRequest records a skill check rolled at the table.
type CheckRequest struct {
	Name       string `json:"name"`
	Skill      string `json:"skill"`
	Difficulty int    `json:"difficulty"`
	Success    bool   `json:"success"`
	Degrees    *int   `json:"degrees,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

func (h *CampaignsHandler) handleChecks(w http.ResponseWriter, r *http.Request, campaignID uuid.UUID) {
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(h.logger, w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	c, err := h.store.GetCampaign(r.Context(), campaignID)
	if err != nil {
		h.logger.Error("Failed to load campaign", "error", err, "id", campaignID.String())
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to load campaign")
		return
	}
	if c == nil {
		writeError(h.logger, w, http.StatusNotFound, "Campaign not found")
		return
	}

	result := "failed"
	if req.Success {
		result = "succeeded"
	}
	content := fmt.Sprintf("Check '%s' (%s, difficulty %d) %s", req.Name, req.Skill, req.Difficulty, result)
	if req.Degrees != nil {
		content += fmt.Sprintf(", degrees: %d", *req.Degrees)
	}
	content += "."
	if req.Notes != "" {
		content += " Note: " + req.Notes
	}

	entry := &campaign.LogEntry{
		CampaignID: campaignID,
		Kind:       campaign.LogKindCheck,
		Content:    content,
	}
	if err := h.store.AppendLog(r.Context(), entry); err != nil {
		h.logger.Error("Failed to append check log", "error", err, "id", campaignID.String())
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to record check")
		return
	}

	if err := h.broadcaster.PublishLogAppended(r.Context(), entry); err != nil {
		h.logger.Warn("Failed to publish log event", "error", err)
	}

	writeJSON(h.logger, w, http.StatusCreated, entry)
}
