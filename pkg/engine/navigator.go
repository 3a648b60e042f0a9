package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jwebster45206/campaign-engine/pkg/campaign"
	"github.com/jwebster45206/campaign-engine/pkg/storage"
)

// Navigator advances a campaign's current-scene pointer along choice
// edges. A choice is only playable while its origin scene is current;
// anything else is rejected so stale or foreign choices cannot replay.
type Navigator struct {
	store  storage.Store
	logger *slog.Logger
}

// NewNavigator creates a new navigator
func NewNavigator(store storage.Store, logger *slog.Logger) *Navigator {
	return &Navigator{
		store:  store,
		logger: logger,
	}
}

// Advance applies the given choice to the campaign and returns the
// resulting state. A choice without a target scene is a dead end: the
// pointer stays where it is and the caller decides how the session ends.
// Every successful advance appends a "choice" log entry, dead ends
// included. There is no undo; history lives only in the log.
func (n *Navigator) Advance(ctx context.Context, campaignID, choiceID uuid.UUID) (*campaign.State, error) {
	var result *campaign.State

	err := n.store.Mutate(ctx, campaignID, func(tx storage.Tx) error {
		state, err := tx.State()
		if err != nil {
			return fmt.Errorf("failed to load campaign state: %w", err)
		}
		if state == nil {
			return fmt.Errorf("%w: campaign %s", ErrStateNotInitialized, campaignID)
		}

		choice, err := tx.Choice(choiceID)
		if err != nil {
			return fmt.Errorf("failed to load choice: %w", err)
		}
		if choice == nil {
			return fmt.Errorf("%w: choice %s", ErrChoiceNotFound, choiceID)
		}

		if choice.SceneID != state.CurrentSceneID {
			return fmt.Errorf("%w: choice %s originates at scene %s", ErrChoiceNotAvailable, choiceID, choice.SceneID)
		}

		if choice.TargetID != uuid.Nil {
			state.CurrentSceneID = choice.TargetID
		}
		tx.SetState(state)
		tx.AppendLog(campaign.LogKindChoice, choice.SceneID, "Choice: "+choice.Label)

		result = state
		return nil
	})
	if err != nil {
		return nil, err
	}

	n.logger.Info("Campaign advanced",
		"campaign_id", campaignID,
		"choice_id", choiceID,
		"current_scene_id", result.CurrentSceneID)

	return result, nil
}
