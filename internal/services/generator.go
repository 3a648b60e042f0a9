package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwebster45206/campaign-engine/pkg/campaign"
	"github.com/jwebster45206/campaign-engine/pkg/engine"
	"github.com/jwebster45206/campaign-engine/pkg/prompts"
)

// GeneratorService defines the interface for campaign generation providers.
type GeneratorService interface {
	// InitModel prepares the provider's model on startup.
	InitModel(ctx context.Context, modelName string) error

	// GenerateCampaign produces a campaign description from a brief.
	GenerateCampaign(ctx context.Context, brief prompts.Brief) (*campaign.GeneratedCampaign, error)

	// IsModelReady checks if the specified model is ready for use.
	IsModelReady(ctx context.Context, modelName string) (bool, error)
}

// decodeGeneratedCampaign parses raw model output into a campaign
// description. Models occasionally wrap JSON in a markdown fence; strip it
// before decoding. Undecodable output is a generation-input failure.
func decodeGeneratedCampaign(raw string) (*campaign.GeneratedCampaign, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	var gen campaign.GeneratedCampaign
	if err := json.Unmarshal([]byte(trimmed), &gen); err != nil {
		return nil, fmt.Errorf("%w: undecodable model output: %v", engine.ErrGenerationInput, err)
	}
	return &gen, nil
}
