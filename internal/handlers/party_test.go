package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/campaign-engine/pkg/campaign"
	"github.com/jwebster45206/campaign-engine/pkg/party"
)

func testSheetBody() []byte {
	body, _ := json.Marshal(party.Sheet{
		Name:      "Sister Calpurnia",
		Career:    "Adepta Sororitas",
		Homeworld: "Ophelia VII",
		Chars: party.Characteristics{
			WeaponSkill:    42,
			BallisticSkill: 35,
			Strength:       34,
			Toughness:      38,
			Agility:        33,
			Intelligence:   30,
			Perception:     32,
			Willpower:      45,
			Fellowship:     31,
		},
		MaxWounds: 14,
		Armour:    5,
		Skills:    map[string]int{"dodge": 10},
		Gear:      []string{"bolt pistol", "chainsword"},
	})
	return body
}

func createSheet(t *testing.T, h *CampaignsHandler, campaignID uuid.UUID) party.Sheet {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/campaigns/"+campaignID.String()+"/party", bytes.NewBuffer(testSheetBody()))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var sheet party.Sheet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sheet))
	return sheet
}

func TestPartyHandler_CreateAndList(t *testing.T) {
	h, store, _ := setupCampaignsHandler(t)
	g := generateCampaign(t, h)

	sheet := createSheet(t, h, g.Campaign.ID)
	assert.NotEqual(t, uuid.Nil, sheet.ID)
	assert.Equal(t, g.Campaign.ID, sheet.CampaignID)
	assert.Equal(t, 14, sheet.Wounds, "fresh sheet starts at full wounds")

	req := httptest.NewRequest(http.MethodGet, "/v1/campaigns/"+g.Campaign.ID.String()+"/party", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var sheets []party.Sheet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sheets))
	require.Len(t, sheets, 1)
	assert.Equal(t, "Sister Calpurnia", sheets[0].Name)

	// Joining the party is logged
	logs, err := store.ListLogs(context.Background(), g.Campaign.ID)
	require.NoError(t, err)
	last := logs[len(logs)-1]
	assert.Equal(t, campaign.LogKindSystem, last.Kind)
	assert.Contains(t, last.Content, "Sister Calpurnia joins the party.")
}

func TestPartyHandler_CreateValidation(t *testing.T) {
	h, _, _ := setupCampaignsHandler(t)
	g := generateCampaign(t, h)

	req := httptest.NewRequest(http.MethodPost, "/v1/campaigns/"+g.Campaign.ID.String()+"/party", bytes.NewBufferString(`{"name":""}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/campaigns/"+g.Campaign.ID.String()+"/party", bytes.NewBufferString(`{"name":"Hax","max_wounds":0}`))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPartyHandler_UnknownCampaign(t *testing.T) {
	h, _, _ := setupCampaignsHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/campaigns/"+uuid.NewString()+"/party", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPartyHandler_DamageAndHeal(t *testing.T) {
	h, store, _ := setupCampaignsHandler(t)
	g := generateCampaign(t, h)
	sheet := createSheet(t, h, g.Campaign.ID)

	base := "/v1/campaigns/" + g.Campaign.ID.String() + "/party/" + sheet.ID.String()

	req := httptest.NewRequest(http.MethodPost, base+"/damage", bytes.NewBufferString(`{"amount":5}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got party.Sheet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 9, got.Wounds)

	req = httptest.NewRequest(http.MethodPost, base+"/heal", bytes.NewBufferString(`{"amount":20}`))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 14, got.Wounds, "healing caps at max wounds")

	logs, err := store.ListLogs(context.Background(), g.Campaign.ID)
	require.NoError(t, err)
	var damageLogged, healLogged bool
	for _, l := range logs {
		if l.Kind != campaign.LogKindSystem {
			continue
		}
		if l.Content == "Sister Calpurnia takes 5 damage (9/14 wounds)." {
			damageLogged = true
		}
		if l.Content == "Sister Calpurnia recovers 20 wounds (14/14 wounds)." {
			healLogged = true
		}
	}
	assert.True(t, damageLogged, "damage log entry missing")
	assert.True(t, healLogged, "heal log entry missing")
}

func TestPartyHandler_DamageToZero(t *testing.T) {
	h, _, _ := setupCampaignsHandler(t)
	g := generateCampaign(t, h)
	sheet := createSheet(t, h, g.Campaign.ID)

	base := "/v1/campaigns/" + g.Campaign.ID.String() + "/party/" + sheet.ID.String()
	req := httptest.NewRequest(http.MethodPost, base+"/damage", bytes.NewBufferString(`{"amount":99}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got party.Sheet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 0, got.Wounds)
}

func TestPartyHandler_SheetNotFound(t *testing.T) {
	h, _, _ := setupCampaignsHandler(t)
	g := generateCampaign(t, h)

	req := httptest.NewRequest(http.MethodGet, "/v1/campaigns/"+g.Campaign.ID.String()+"/party/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
