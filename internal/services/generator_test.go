package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/jwebster45206/campaign-engine/pkg/engine"
	"github.com/jwebster45206/campaign-engine/pkg/prompts"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestDecodeGeneratedCampaign(t *testing.T) {
	raw := `{"campaign":{"title":"Ashes"},"scenes":[{"name":"Opening","scene_type":"intro"}]}`
	gen, err := decodeGeneratedCampaign(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.Campaign == nil || gen.Campaign.Title != "Ashes" {
		t.Errorf("unexpected summary: %+v", gen.Campaign)
	}
	if len(gen.Scenes) != 1 || gen.Scenes[0].SceneKind != "intro" {
		t.Errorf("unexpected scenes: %+v", gen.Scenes)
	}
}

func TestDecodeGeneratedCampaign_Fenced(t *testing.T) {
	raw := "```json\n{\"campaign\":{\"title\":\"Fenced\"}}\n```"
	gen, err := decodeGeneratedCampaign(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.Campaign.Title != "Fenced" {
		t.Errorf("unexpected title: %q", gen.Campaign.Title)
	}
}

func TestDecodeGeneratedCampaign_Invalid(t *testing.T) {
	_, err := decodeGeneratedCampaign("the model apologizes and refuses")
	if !errors.Is(err, engine.ErrGenerationInput) {
		t.Errorf("expected ErrGenerationInput, got %v", err)
	}
}

func TestOllamaService_GenerateCampaign(t *testing.T) {
	var gotReq map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		resp := map[string]string{
			"response": `{"campaign":{"title":"Wire Test"}}`,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc := NewOllamaService(server.URL, "llama3.2", testLogger())
	gen, err := svc.GenerateCampaign(context.Background(), prompts.Brief{NumPlayers: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.Campaign.Title != "Wire Test" {
		t.Errorf("unexpected title: %q", gen.Campaign.Title)
	}
	if gotReq["format"] != "json" {
		t.Errorf("expected json format request, got %v", gotReq["format"])
	}
	if gotReq["system"] != prompts.GenerationSystemPrompt {
		t.Error("system prompt not sent")
	}
}

func TestOllamaService_GenerateCampaignAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model melted", http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewOllamaService(server.URL, "llama3.2", testLogger())
	if _, err := svc.GenerateCampaign(context.Background(), prompts.Brief{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestMockGeneratorService(t *testing.T) {
	m := NewMockGeneratorService()
	gen, err := m.GenerateCampaign(context.Background(), prompts.Brief{NumPlayers: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.Campaign == nil || gen.Campaign.Title == "" {
		t.Error("canned campaign missing summary")
	}
	if len(gen.Scenes) < 3 {
		t.Errorf("canned campaign too small: %d scenes", len(gen.Scenes))
	}
	if m.LastBrief.NumPlayers != 5 {
		t.Errorf("brief not recorded: %+v", m.LastBrief)
	}
}
