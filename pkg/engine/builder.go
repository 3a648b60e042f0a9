package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/campaign-engine/pkg/campaign"
	"github.com/jwebster45206/campaign-engine/pkg/storage"
)

// PlaceholderTitle is substituted when the generated summary carries no title.
const PlaceholderTitle = "Untitled Campaign"

// Builder materializes a generated campaign description into a persisted
// graph. The description addresses scenes and locations by list position;
// the builder assigns persistent identities in a first pass and resolves
// the positional references in a second, so forward references to scenes
// later in the list work. The whole graph is handed to the store in one
// atomic write.
type Builder struct {
	store  storage.Store
	logger *slog.Logger
}

// NewBuilder creates a new graph builder
func NewBuilder(store storage.Store, logger *slog.Logger) *Builder {
	return &Builder{
		store:  store,
		logger: logger,
	}
}

// Build creates and persists a complete campaign graph from desc and
// returns the new campaign's ID. Only a missing top-level summary is an
// error; every optional field inside the description degrades to a
// documented default, because the description comes from a generative
// source that is allowed to be inconsistent.
func (b *Builder) Build(ctx context.Context, desc *campaign.GeneratedCampaign) (uuid.UUID, error) {
	if desc == nil || desc.Campaign == nil {
		return uuid.Nil, fmt.Errorf("%w: missing campaign summary", ErrGenerationInput)
	}

	title := desc.Campaign.Title
	if title == "" {
		title = PlaceholderTitle
	}

	g := &campaign.Graph{
		Campaign: campaign.Campaign{
			ID:        uuid.New(),
			Title:     title,
			World:     desc.Campaign.World,
			Premise:   desc.Campaign.Premise,
			IntroText: desc.Campaign.IntroText,
			CreatedAt: time.Now(),
		},
	}
	campaignID := g.Campaign.ID

	// Pass 1: locations. The slice index is the identity arena for
	// scenes' location_index references.
	locationIDs := make([]uuid.UUID, 0, len(desc.Locations))
	for i, loc := range desc.Locations {
		name := loc.Name
		if name == "" {
			name = fmt.Sprintf("Location %d", i+1)
		}
		l := campaign.Location{
			ID:          uuid.New(),
			CampaignID:  campaignID,
			Name:        name,
			Description: loc.Description,
			ASCIIMap:    loc.ASCIIMap,
		}
		g.Locations = append(g.Locations, l)
		locationIDs = append(locationIDs, l.ID)
	}

	// Pass 1: NPCs. Order carries no meaning.
	for _, npc := range desc.NPCs {
		name := npc.Name
		if name == "" {
			name = "Unnamed NPC"
		}
		g.NPCs = append(g.NPCs, campaign.NPC{
			ID:          uuid.New(),
			CampaignID:  campaignID,
			Name:        name,
			Role:        npc.Role,
			Faction:     npc.Faction,
			Description: npc.Description,
			Notes:       npc.Notes,
			Status:      campaign.NPCAlive,
		})
	}

	// Pass 1: scenes, encounters, and choices with unresolved targets.
	type pendingTarget struct {
		choiceIdx int // index into g.Choices
		toScene   *int
	}
	sceneIDs := make([]uuid.UUID, 0, len(desc.Scenes))
	var pending []pendingTarget

	for i, s := range desc.Scenes {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("Scene %d", i+1)
		}

		var locationID uuid.UUID
		if s.LocationIndex != nil && *s.LocationIndex >= 0 && *s.LocationIndex < len(locationIDs) {
			locationID = locationIDs[*s.LocationIndex]
		}

		kind := campaign.ParseSceneKind(s.SceneKind)
		if s.Encounter != nil {
			// An encounter implies a combat scene; a generator that
			// declared another kind is corrected, not rejected.
			kind = campaign.SceneKindCombat
		}

		scene := campaign.Scene{
			ID:         uuid.New(),
			CampaignID: campaignID,
			LocationID: locationID,
			Name:       name,
			Kind:       kind,
			OrderIndex: s.OrderIndex,
			PlayerText: s.PlayerText,
			GMNotes:    s.GMNotes,
			Dialogues:  s.Dialogues,
		}
		g.Scenes = append(g.Scenes, scene)
		sceneIDs = append(sceneIDs, scene.ID)

		if s.Encounter != nil {
			g.Encounters = append(g.Encounters, campaign.Encounter{
				ID:          uuid.New(),
				SceneID:     scene.ID,
				CampaignID:  campaignID,
				Objectives:  s.Encounter.Objectives,
				NPCSummary:  s.Encounter.NPCSummary,
				VictoryText: s.Encounter.VictoryText,
				DrawText:    s.Encounter.DrawText,
				DefeatText:  s.Encounter.DefeatText,
				RetreatText: s.Encounter.RetreatText,
				Status:      campaign.EncounterPending,
			})
		}

		for _, ch := range s.Choices {
			label := ch.Label
			if label == "" {
				label = "Choice"
			}
			g.Choices = append(g.Choices, campaign.Choice{
				ID:          uuid.New(),
				SceneID:     scene.ID,
				Label:       label,
				Description: ch.Description,
				ResultHint:  ch.ResultHint,
			})
			pending = append(pending, pendingTarget{
				choiceIdx: len(g.Choices) - 1,
				toScene:   ch.ToSceneIndex,
			})
		}
	}

	// Pass 2: resolve choice targets. Out-of-range and absent indices
	// stay unresolved — a dead end is a valid terminal edge.
	for _, p := range pending {
		if p.toScene != nil && *p.toScene >= 0 && *p.toScene < len(sceneIDs) {
			g.Choices[p.choiceIdx].TargetID = sceneIDs[*p.toScene]
		}
	}

	// Seed navigation state: first intro scene by order key, else first
	// scene overall by the same ordering.
	g.State = campaign.State{CampaignID: campaignID}
	if first := firstScene(g.Scenes, campaign.SceneKindIntro); first != uuid.Nil {
		g.State.CurrentSceneID = first
	} else if first := firstScene(g.Scenes, ""); first != uuid.Nil {
		g.State.CurrentSceneID = first
	}

	g.Logs = append(g.Logs, campaign.LogEntry{
		CampaignID: campaignID,
		Kind:       campaign.LogKindSystem,
		Content:    "Campaign generated.",
	})

	if err := b.store.CreateCampaign(ctx, g); err != nil {
		return uuid.Nil, fmt.Errorf("failed to persist campaign graph: %w", err)
	}

	b.logger.Info("Campaign graph built",
		"campaign_id", campaignID,
		"title", g.Campaign.Title,
		"locations", len(g.Locations),
		"npcs", len(g.NPCs),
		"scenes", len(g.Scenes),
		"choices", len(g.Choices),
		"encounters", len(g.Encounters))

	return campaignID, nil
}

// firstScene returns the ID of the first scene of the given kind,
// ordered by order key (nil keys last) with input order breaking ties.
// An empty kind matches any scene. Returns uuid.Nil when nothing matches.
func firstScene(scenes []campaign.Scene, kind campaign.SceneKind) uuid.UUID {
	idx := make([]int, 0, len(scenes))
	for i, s := range scenes {
		if kind == "" || s.Kind == kind {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return uuid.Nil
	}
	sort.SliceStable(idx, func(a, b int) bool {
		oa, ob := scenes[idx[a]].OrderIndex, scenes[idx[b]].OrderIndex
		switch {
		case oa == nil:
			return false
		case ob == nil:
			return true
		default:
			return *oa < *ob
		}
	})
	return scenes[idx[0]].ID
}
