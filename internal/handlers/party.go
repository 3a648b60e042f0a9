package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/campaign-engine/pkg/campaign"
	"github.com/jwebster45206/campaign-engine/pkg/party"
	"github.com/jwebster45206/campaign-engine/pkg/storage"
)

// PartyHandler manages acolyte sheets for a campaign. It is routed to by
// CampaignsHandler with the campaign id already parsed.
// Routes:
// GET  .../party                    - List sheets
// POST .../party                    - Create a sheet
// GET  .../party/{sheetID}          - Read one sheet
// POST .../party/{sheetID}/damage   - Apply damage to wounds
// POST .../party/{sheetID}/heal     - Restore wounds
type PartyHandler struct {
	store  storage.Store
	logger *slog.Logger
}

func NewPartyHandler(store storage.Store, logger *slog.Logger) *PartyHandler {
	return &PartyHandler{store: store, logger: logger}
}

func (h *PartyHandler) Handle(w http.ResponseWriter, r *http.Request, campaignID uuid.UUID, segments []string) {
	w.Header().Set("Content-Type", "application/json")

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

	switch len(segments) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r, campaignID)
		case http.MethodPost:
			h.handleCreate(w, r, campaignID)
		default:
			writeError(h.logger, w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, POST")
		}
		return

	case 1, 2:
		sheetID, err := uuid.Parse(segments[0])
		if err != nil {
			writeError(h.logger, w, http.StatusBadRequest, "Invalid sheet ID format")
			return
		}
		if len(segments) == 1 {
			if r.Method != http.MethodGet {
				writeError(h.logger, w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
				return
			}
			h.handleRead(w, r, campaignID, sheetID)
			return
		}
		if r.Method != http.MethodPost {
			writeError(h.logger, w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		switch segments[1] {
		case "damage":
			h.handleWounds(w, r, campaignID, sheetID, true)
		case "heal":
			h.handleWounds(w, r, campaignID, sheetID, false)
		default:
			writeError(h.logger, w, http.StatusNotFound, "Not found")
		}
		return
	}

	writeError(h.logger, w, http.StatusNotFound, "Not found")
}

func (h *PartyHandler) handleList(w http.ResponseWriter, r *http.Request, campaignID uuid.UUID) {
	sheets, err := h.store.ListSheets(r.Context(), campaignID)
	if err != nil {
		h.logger.Error("Failed to list sheets", "error", err, "campaign_id", campaignID.String())
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to list sheets")
		return
	}
	if sheets == nil {
		sheets = []party.Sheet{}
	}
	writeJSON(h.logger, w, http.StatusOK, sheets)
}

func (h *PartyHandler) handleCreate(w http.ResponseWriter, r *http.Request, campaignID uuid.UUID) {
	var sheet party.Sheet
	if err := json.NewDecoder(r.Body).Decode(&sheet); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(h.logger, w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if sheet.Name == "" {
		writeError(h.logger, w, http.StatusBadRequest, "name field is required")
		return
	}
	if sheet.MaxWounds <= 0 {
		writeError(h.logger, w, http.StatusBadRequest, "max_wounds must be positive")
		return
	}

	sheet.ID = uuid.New()
	sheet.CampaignID = campaignID
	if sheet.Wounds <= 0 || sheet.Wounds > sheet.MaxWounds {
		sheet.Wounds = sheet.MaxWounds
	}

	// Building the acolyte validates the sheet's numbers.
	if _, err := party.NewAcolyte(&sheet); err != nil {
		h.logger.Warn("Invalid sheet", "error", err)
		writeError(h.logger, w, http.StatusBadRequest, "Invalid sheet: "+err.Error())
		return
	}

	if err := h.store.SaveSheet(r.Context(), &sheet); err != nil {
		h.logger.Error("Failed to save sheet", "error", err, "id", sheet.ID.String())
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to save sheet")
		return
	}

	h.appendSystemLog(r, campaignID, fmt.Sprintf("%s joins the party.", sheet.Name))

	h.logger.Debug("Sheet created", "id", sheet.ID.String(), "campaign_id", campaignID.String())
	writeJSON(h.logger, w, http.StatusCreated, sheet)
}

func (h *PartyHandler) handleRead(w http.ResponseWriter, r *http.Request, campaignID, sheetID uuid.UUID) {
	sheet, err := h.store.GetSheet(r.Context(), campaignID, sheetID)
	if err != nil {
		h.logger.Error("Failed to load sheet", "error", err, "id", sheetID.String())
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to load sheet")
		return
	}
	if sheet == nil {
		writeError(h.logger, w, http.StatusNotFound, "Sheet not found")
		return
	}
	writeJSON(h.logger, w, http.StatusOK, sheet)
}

// WoundsRequest applies damage or healing to a sheet.
type WoundsRequest struct {
	Amount int `json:"amount"`
}

func (h *PartyHandler) handleWounds(w http.ResponseWriter, r *http.Request, campaignID, sheetID uuid.UUID, damage bool) {
	var req WoundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(h.logger, w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.Amount <= 0 {
		writeError(h.logger, w, http.StatusBadRequest, "amount must be positive")
		return
	}

	sheet, err := h.store.GetSheet(r.Context(), campaignID, sheetID)
	if err != nil {
		h.logger.Error("Failed to load sheet", "error", err, "id", sheetID.String())
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to load sheet")
		return
	}
	if sheet == nil {
		writeError(h.logger, w, http.StatusNotFound, "Sheet not found")
		return
	}

	var content string
	if damage {
		remaining := sheet.ApplyDamage(req.Amount)
		content = fmt.Sprintf("%s takes %d damage (%d/%d wounds).", sheet.Name, req.Amount, remaining, sheet.MaxWounds)
		if remaining == 0 {
			content = fmt.Sprintf("%s takes %d damage and falls (0/%d wounds).", sheet.Name, req.Amount, sheet.MaxWounds)
		}
	} else {
		remaining := sheet.Heal(req.Amount)
		content = fmt.Sprintf("%s recovers %d wounds (%d/%d wounds).", sheet.Name, req.Amount, remaining, sheet.MaxWounds)
	}

	if err := h.store.SaveSheet(r.Context(), sheet); err != nil {
		h.logger.Error("Failed to save sheet", "error", err, "id", sheet.ID.String())
		writeError(h.logger, w, http.StatusInternalServerError, "Failed to save sheet")
		return
	}

	h.appendSystemLog(r, campaignID, content)

	writeJSON(h.logger, w, http.StatusOK, sheet)
}

func (h *PartyHandler) appendSystemLog(r *http.Request, campaignID uuid.UUID, content string) {
	entry := &campaign.LogEntry{
		CampaignID: campaignID,
		Kind:       campaign.LogKindSystem,
		Content:    content,
	}
	if err := h.store.AppendLog(r.Context(), entry); err != nil {
		h.logger.Warn("Failed to append party log", "error", err, "campaign_id", campaignID.String())
	}
}
