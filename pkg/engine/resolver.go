package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jwebster45206/campaign-engine/pkg/campaign"
	"github.com/jwebster45206/campaign-engine/pkg/storage"
)

// Fallback consequence sentences used when an encounter carries no text
// for the supplied outcome.
var outcomeFallbacks = map[campaign.Outcome]string{
	campaign.OutcomeVictory: "The acolytes prevail, and the immediate threat is broken.",
	campaign.OutcomeDraw:    "Neither side gains the upper hand; the fight ends in a tense stalemate.",
	campaign.OutcomeDefeat:  "The enemy overwhelms the acolytes, and the situation turns dire.",
	campaign.OutcomeRetreat: "The acolytes fall back, living to fight another day.",
}

// Resolver runs the encounter state machine: pending -> resolved, with
// no transition out of resolved. Resolving an already-resolved encounter
// re-applies the transition; that replay appends a fresh log entry and
// may re-mutate NPC status, intentionally (see docs on Resolve).
type Resolver struct {
	store  storage.Store
	logger *slog.Logger
}

// NewResolver creates a new encounter resolver
func NewResolver(store storage.Store, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:  store,
		logger: logger,
	}
}

// Resolve marks the encounter resolved with the given outcome, sets the
// listed NPCs of the same campaign to dead (foreign IDs are ignored, not
// errors), appends an "encounter" log entry under the owning scene, and
// returns the narrative consequence text: the encounter's own text for
// the outcome, or a fixed fallback sentence when that text is empty.
// Non-empty notes are appended as a delimited GM addendum.
//
// Resolution is not guarded against replay: resolving twice re-runs the
// side effects and logs again. Deduplication is the caller's concern.
func (r *Resolver) Resolve(ctx context.Context, encounterID uuid.UUID, outcome campaign.Outcome, defeatedNPCs []uuid.UUID, notes string) (string, error) {
	campaignID, err := r.store.FindEncounterCampaign(ctx, encounterID)
	if err != nil {
		return "", fmt.Errorf("failed to look up encounter: %w", err)
	}
	if campaignID == uuid.Nil {
		return "", fmt.Errorf("%w: encounter %s", ErrEncounterNotFound, encounterID)
	}

	var consequence string

	err = r.store.Mutate(ctx, campaignID, func(tx storage.Tx) error {
		enc, err := tx.Encounter(encounterID)
		if err != nil {
			return fmt.Errorf("failed to load encounter: %w", err)
		}
		if enc == nil {
			return fmt.Errorf("%w: encounter %s", ErrEncounterNotFound, encounterID)
		}

		enc.Status = campaign.EncounterResolved
		enc.Outcome = outcome
		tx.SetEncounter(enc)

		for _, npcID := range defeatedNPCs {
			npc, err := tx.NPC(npcID)
			if err != nil {
				return fmt.Errorf("failed to load NPC %s: %w", npcID, err)
			}
			if npc == nil {
				// Unknown or belongs to another campaign; skip.
				continue
			}
			npc.Status = campaign.NPCDead
			tx.SetNPC(npc)
		}

		consequence = enc.ConsequenceText(outcome)
		if consequence == "" {
			consequence = outcomeFallbacks[outcome]
			if consequence == "" {
				consequence = "The encounter is resolved."
			}
		}
		if notes != "" {
			consequence += "\n\n[GM notes] " + notes
		}

		tx.AppendLog(campaign.LogKindEncounter, enc.SceneID, consequence)
		return nil
	})
	if err != nil {
		return "", err
	}

	r.logger.Info("Encounter resolved",
		"campaign_id", campaignID,
		"encounter_id", encounterID,
		"outcome", outcome,
		"defeated_npcs", len(defeatedNPCs))

	return consequence, nil
}
