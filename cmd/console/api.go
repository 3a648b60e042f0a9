package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/campaign-engine/pkg/campaign"
	"github.com/jwebster45206/campaign-engine/pkg/prompts"
)

// ErrorResponse matches the API error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SceneView mirrors the scene object embedded in state responses.
type SceneView struct {
	campaign.Scene
	Choices   []campaign.Choice   `json:"choices,omitempty"`
	Encounter *campaign.Encounter `json:"encounter,omitempty"`
}

// StateView mirrors the /state and /choose response bodies.
type StateView struct {
	State        *campaign.State `json:"state"`
	CurrentScene *SceneView      `json:"current_scene,omitempty"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// apiError turns a non-2xx response into an error, preferring the
// API's own error message when the body parses.
func apiError(action string, statusCode int, body []byte) error {
	var errorResp ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
		return fmt.Errorf("failed to %s: API returned status %d: %s", action, statusCode, string(body))
	}
	return fmt.Errorf("failed to %s: %s", action, errorResp.Error)
}

func listCampaigns(client *http.Client, baseURL string) ([]campaign.Summary, error) {
	resp, err := client.Get(baseURL + "/v1/campaigns")
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("list campaigns", resp.StatusCode, body)
	}

	var summaries []campaign.Summary
	if err := json.Unmarshal(body, &summaries); err != nil {
		return nil, fmt.Errorf("failed to parse campaign list: %w", err)
	}
	return summaries, nil
}

func generateCampaign(client *http.Client, baseURL string, brief prompts.Brief) (*campaign.Graph, error) {
	jsonData, err := json.Marshal(brief)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/campaigns/generate",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, apiError("generate campaign", resp.StatusCode, body)
	}

	var g campaign.Graph
	if err := json.Unmarshal(body, &g); err != nil {
		return nil, fmt.Errorf("failed to parse campaign response: %w", err)
	}
	return &g, nil
}

func getGraph(client *http.Client, baseURL string, campaignID uuid.UUID) (*campaign.Graph, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/campaigns/%s", baseURL, campaignID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("get campaign", resp.StatusCode, body)
	}

	var g campaign.Graph
	if err := json.Unmarshal(body, &g); err != nil {
		return nil, fmt.Errorf("failed to parse campaign response: %w", err)
	}
	return &g, nil
}

func getState(client *http.Client, baseURL string, campaignID uuid.UUID) (*StateView, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/campaigns/%s/state", baseURL, campaignID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("get state", resp.StatusCode, body)
	}

	var sv StateView
	if err := json.Unmarshal(body, &sv); err != nil {
		return nil, fmt.Errorf("failed to parse state response: %w", err)
	}
	return &sv, nil
}

func getLogs(client *http.Client, baseURL string, campaignID uuid.UUID) ([]campaign.LogEntry, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/campaigns/%s/logs", baseURL, campaignID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("get logs", resp.StatusCode, body)
	}

	var logs []campaign.LogEntry
	if err := json.Unmarshal(body, &logs); err != nil {
		return nil, fmt.Errorf("failed to parse log response: %w", err)
	}
	return logs, nil
}

// ChooseRequest matches the API request structure.
type ChooseRequest struct {
	ChoiceID uuid.UUID `json:"choice_id"`
}

func chooseOption(client *http.Client, baseURL string, campaignID, choiceID uuid.UUID) (*StateView, error) {
	jsonData, err := json.Marshal(ChooseRequest{ChoiceID: choiceID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/campaigns/%s/choose", baseURL, campaignID),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("take choice", resp.StatusCode, body)
	}

	var sv StateView
	if err := json.Unmarshal(body, &sv); err != nil {
		return nil, fmt.Errorf("failed to parse state response: %w", err)
	}
	return &sv, nil
}

// ResolveRequest matches the API request structure.
type ResolveRequest struct {
	Outcome        string      `json:"outcome"`
	DefeatedNPCIDs []uuid.UUID `json:"defeated_npc_ids,omitempty"`
	Notes          string      `json:"notes,omitempty"`
}

// ResolveResponse matches the API response structure.
type ResolveResponse struct {
	ConsequenceText string `json:"consequence_text"`
}

func resolveEncounter(client *http.Client, baseURL string, encounterID uuid.UUID, outcome, notes string) (string, error) {
	jsonData, err := json.Marshal(ResolveRequest{Outcome: outcome, Notes: notes})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/encounters/%s/resolve", baseURL, encounterID),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apiError("resolve encounter", resp.StatusCode, body)
	}

	var rr ResolveResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return "", fmt.Errorf("failed to parse resolve response: %w", err)
	}
	return rr.ConsequenceText, nil
}

// CheckRequest matches the API request structure.
type CheckRequest struct {
	Name       string `json:"name"`
	Skill      string `json:"skill"`
	Difficulty int    `json:"difficulty"`
	Success    bool   `json:"success"`
	Degrees    *int   `json:"degrees,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

func recordCheck(client *http.Client, baseURL string, campaignID uuid.UUID, req CheckRequest) (*campaign.LogEntry, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/campaigns/%s/checks", baseURL, campaignID),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, apiError("record check", resp.StatusCode, body)
	}

	var entry campaign.LogEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse log entry: %w", err)
	}
	return &entry, nil
}

// SSEEvent represents an event from the SSE stream
type SSEEvent struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// listenToSSE connects to the SSE endpoint and streams events to a channel.
// The caller provides a client without a timeout; the stream stays open
// until ctx is cancelled.
func listenToSSE(ctx context.Context, client *http.Client, baseURL string, campaignID uuid.UUID, eventChan chan<- SSEEvent) error {
	url := fmt.Sprintf("%s/v1/campaigns/%s/events", baseURL, campaignID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to SSE: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("SSE connection failed with status %d: %s", resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	var currentEvent SSEEvent

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()

		if line == "" {
			// Empty line signals end of event
			if currentEvent.Type != "" {
				eventChan <- currentEvent
				currentEvent = SSEEvent{}
			}
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			currentEvent.Type = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			dataJSON := strings.TrimPrefix(line, "data: ")
			var data map[string]interface{}
			if err := json.Unmarshal([]byte(dataJSON), &data); err == nil {
				currentEvent.Data = data
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading SSE stream: %w", err)
	}

	return nil
}
