package engine

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/campaign-engine/pkg/campaign"
	"github.com/jwebster45206/campaign-engine/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func intPtr(i int) *int { return &i }

// threeSceneDescription is the canonical branching description used
// across engine tests: intro at location 0, social with a choice into
// the combat scene, combat with an encounter and a dead-end choice.
func threeSceneDescription() *campaign.GeneratedCampaign {
	return &campaign.GeneratedCampaign{
		Campaign: &campaign.GeneratedSummary{
			Title:     "The Null Hour",
			World:     "Hive Tarsus",
			Premise:   "A clock that counts backwards, and a cult that listens.",
			IntroText: "The summons arrives at midnight.",
		},
		Locations: []campaign.GeneratedLocation{
			{Name: "Clocktower District", Description: "Rust and incense."},
			{Name: "Undervault", ASCIIMap: "####\n#..#\n####"},
		},
		NPCs: []campaign.GeneratedNPC{
			{Name: "Magos Dren", Role: "quest giver", Faction: "Adeptus Mechanicus"},
			{Name: "Cult Magus Veil", Role: "antagonist", Faction: "heretical cult"},
		},
		Scenes: []campaign.GeneratedScene{
			{
				Name:          "Arrival",
				SceneKind:     "intro",
				LocationIndex: intPtr(0),
				OrderIndex:    intPtr(0),
				PlayerText:    "You arrive as the bells stop.",
				Choices: []campaign.GeneratedChoice{
					{Label: "Question the crowd", ToSceneIndex: intPtr(1)},
				},
			},
			{
				Name:          "The Informant",
				SceneKind:     "social",
				LocationIndex: intPtr(0),
				OrderIndex:    intPtr(1),
				Choices: []campaign.GeneratedChoice{
					{Label: "Descend into the vault", ToSceneIndex: intPtr(2)},
				},
			},
			{
				Name:          "The Vault",
				SceneKind:     "combat",
				LocationIndex: intPtr(1),
				OrderIndex:    intPtr(2),
				Encounter: &campaign.GeneratedEncounter{
					Objectives:  "Silence the magus before the ritual completes.",
					NPCSummary:  "Cult Magus Veil and six chanting initiates.",
					VictoryText: "The chant dies with its conductor.",
				},
				Choices: []campaign.GeneratedChoice{
					{Label: "Stand your ground"}, // dead end
				},
			},
		},
	}
}

func TestBuilder_Build(t *testing.T) {
	store := storage.NewMemoryStore()
	builder := NewBuilder(store, testLogger())
	ctx := context.Background()

	id, err := builder.Build(ctx, threeSceneDescription())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	g, err := store.GetGraph(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, g)

	assert.Equal(t, "The Null Hour", g.Campaign.Title)
	assert.Len(t, g.Locations, 2)
	assert.Len(t, g.NPCs, 2)
	assert.Len(t, g.Scenes, 3)
	assert.Len(t, g.Choices, 3)
	assert.Len(t, g.Encounters, 1)

	// Every entity references the campaign.
	for _, l := range g.Locations {
		assert.Equal(t, id, l.CampaignID)
	}
	for _, n := range g.NPCs {
		assert.Equal(t, id, n.CampaignID)
		assert.Equal(t, campaign.NPCAlive, n.Status)
	}
	for _, s := range g.Scenes {
		assert.Equal(t, id, s.CampaignID)
	}

	// Choice targets resolve to scenes of the same campaign.
	for _, c := range g.Choices {
		origin := g.Scene(c.SceneID)
		require.NotNil(t, origin)
		if c.TargetID != uuid.Nil {
			target := g.Scene(c.TargetID)
			require.NotNil(t, target, "choice target must be a scene of this campaign")
			assert.Equal(t, origin.CampaignID, target.CampaignID)
		}
	}

	// The intro scene's single choice leads to the social scene, the
	// social scene's to the combat scene, and the combat scene's choice
	// is a dead end.
	intro, social, combat := g.Scenes[0], g.Scenes[1], g.Scenes[2]
	assert.Equal(t, campaign.SceneKindIntro, intro.Kind)
	assert.Equal(t, social.ID, g.SceneChoices(intro.ID)[0].TargetID)
	assert.Equal(t, combat.ID, g.SceneChoices(social.ID)[0].TargetID)
	assert.Equal(t, uuid.Nil, g.SceneChoices(combat.ID)[0].TargetID)

	// The encounter hangs off the combat scene, pending.
	enc := g.SceneEncounter(combat.ID)
	require.NotNil(t, enc)
	assert.Equal(t, campaign.EncounterPending, enc.Status)
	assert.Empty(t, enc.Outcome)

	// State points at the intro scene.
	assert.Equal(t, intro.ID, g.State.CurrentSceneID)

	// Exactly one seeded system log entry.
	logs, err := store.ListLogs(ctx, id)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, campaign.LogKindSystem, logs[0].Kind)
}

func TestBuilder_Build_MissingSummary(t *testing.T) {
	store := storage.NewMemoryStore()
	builder := NewBuilder(store, testLogger())
	ctx := context.Background()

	_, err := builder.Build(ctx, nil)
	assert.ErrorIs(t, err, ErrGenerationInput)

	_, err = builder.Build(ctx, &campaign.GeneratedCampaign{})
	assert.ErrorIs(t, err, ErrGenerationInput)

	// Nothing was written.
	campaigns, err := store.ListCampaigns(ctx)
	require.NoError(t, err)
	assert.Empty(t, campaigns)
}

func TestBuilder_Build_Defaults(t *testing.T) {
	store := storage.NewMemoryStore()
	builder := NewBuilder(store, testLogger())
	ctx := context.Background()

	// Well-formed but maximally sparse: everything optional is missing.
	desc := &campaign.GeneratedCampaign{
		Campaign: &campaign.GeneratedSummary{},
		Locations: []campaign.GeneratedLocation{
			{},
		},
		NPCs: []campaign.GeneratedNPC{
			{},
		},
		Scenes: []campaign.GeneratedScene{
			{
				Choices: []campaign.GeneratedChoice{{}},
			},
		},
	}

	id, err := builder.Build(ctx, desc)
	require.NoError(t, err)

	g, err := store.GetGraph(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, PlaceholderTitle, g.Campaign.Title)
	assert.Equal(t, "Location 1", g.Locations[0].Name)
	assert.Equal(t, "Unnamed NPC", g.NPCs[0].Name)
	assert.Equal(t, "Scene 1", g.Scenes[0].Name)
	assert.Equal(t, campaign.SceneKindSocial, g.Scenes[0].Kind, "unknown scene kind falls back to social")
	assert.Equal(t, "Choice", g.Choices[0].Label)
	assert.Equal(t, uuid.Nil, g.Choices[0].TargetID, "omitted target index is a dead end")
	assert.Equal(t, g.Scenes[0].ID, g.State.CurrentSceneID, "no intro scene: first scene becomes current")
}

func TestBuilder_Build_OutOfRangeIndices(t *testing.T) {
	store := storage.NewMemoryStore()
	builder := NewBuilder(store, testLogger())
	ctx := context.Background()

	desc := &campaign.GeneratedCampaign{
		Campaign: &campaign.GeneratedSummary{Title: "Index Soup"},
		Locations: []campaign.GeneratedLocation{
			{Name: "Only Location"},
		},
		Scenes: []campaign.GeneratedScene{
			{
				Name:          "Lost",
				LocationIndex: intPtr(7), // out of range
				Choices: []campaign.GeneratedChoice{
					{Label: "Nowhere", ToSceneIndex: intPtr(-1)},
					{Label: "Also nowhere", ToSceneIndex: intPtr(99)},
				},
			},
		},
	}

	id, err := builder.Build(ctx, desc)
	require.NoError(t, err, "out-of-range indices must degrade, not fail")

	g, err := store.GetGraph(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, uuid.Nil, g.Scenes[0].LocationID, "out-of-range location index means no location")
	for _, c := range g.Choices {
		assert.Equal(t, uuid.Nil, c.TargetID)
	}
}

func TestBuilder_Build_ForwardAndBackwardReferences(t *testing.T) {
	store := storage.NewMemoryStore()
	builder := NewBuilder(store, testLogger())
	ctx := context.Background()

	desc := &campaign.GeneratedCampaign{
		Campaign: &campaign.GeneratedSummary{Title: "Loops"},
		Scenes: []campaign.GeneratedScene{
			{
				Name:    "First",
				Choices: []campaign.GeneratedChoice{{Label: "Ahead", ToSceneIndex: intPtr(1)}},
			},
			{
				Name:    "Second",
				Choices: []campaign.GeneratedChoice{{Label: "Back", ToSceneIndex: intPtr(0)}},
			},
		},
	}

	id, err := builder.Build(ctx, desc)
	require.NoError(t, err)

	g, err := store.GetGraph(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, g.Scenes[1].ID, g.SceneChoices(g.Scenes[0].ID)[0].TargetID, "forward reference")
	assert.Equal(t, g.Scenes[0].ID, g.SceneChoices(g.Scenes[1].ID)[0].TargetID, "backward reference")
}

func TestBuilder_Build_IntroSelection(t *testing.T) {
	tests := []struct {
		name     string
		scenes   []campaign.GeneratedScene
		expected int // input index of the expected current scene, -1 for none
	}{
		{
			name: "intro preferred over earlier scenes",
			scenes: []campaign.GeneratedScene{
				{Name: "A", SceneKind: "social"},
				{Name: "B", SceneKind: "intro"},
			},
			expected: 1,
		},
		{
			name: "order key beats input order",
			scenes: []campaign.GeneratedScene{
				{Name: "A", SceneKind: "intro", OrderIndex: intPtr(5)},
				{Name: "B", SceneKind: "intro", OrderIndex: intPtr(1)},
			},
			expected: 1,
		},
		{
			name: "nil order keys sort last",
			scenes: []campaign.GeneratedScene{
				{Name: "A", SceneKind: "intro"},
				{Name: "B", SceneKind: "intro", OrderIndex: intPtr(9)},
			},
			expected: 1,
		},
		{
			name: "no intro falls back to first scene",
			scenes: []campaign.GeneratedScene{
				{Name: "A", SceneKind: "final"},
				{Name: "B", SceneKind: "social"},
			},
			expected: 0,
		},
		{
			name:     "no scenes leaves state unset",
			scenes:   nil,
			expected: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			builder := NewBuilder(store, testLogger())
			ctx := context.Background()

			id, err := builder.Build(ctx, &campaign.GeneratedCampaign{
				Campaign: &campaign.GeneratedSummary{Title: "Selection"},
				Scenes:   tt.scenes,
			})
			require.NoError(t, err)

			g, err := store.GetGraph(ctx, id)
			require.NoError(t, err)

			if tt.expected < 0 {
				assert.Equal(t, uuid.Nil, g.State.CurrentSceneID)
			} else {
				assert.Equal(t, g.Scenes[tt.expected].ID, g.State.CurrentSceneID)
			}
		})
	}
}

func TestBuilder_Build_EncounterCoercesCombatKind(t *testing.T) {
	store := storage.NewMemoryStore()
	builder := NewBuilder(store, testLogger())
	ctx := context.Background()

	id, err := builder.Build(ctx, &campaign.GeneratedCampaign{
		Campaign: &campaign.GeneratedSummary{Title: "Mislabelled"},
		Scenes: []campaign.GeneratedScene{
			{
				Name:      "Ambush",
				SceneKind: "social",
				Encounter: &campaign.GeneratedEncounter{Objectives: "Survive."},
			},
		},
	})
	require.NoError(t, err)

	g, err := store.GetGraph(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, campaign.SceneKindCombat, g.Scenes[0].Kind)
	require.NotNil(t, g.SceneEncounter(g.Scenes[0].ID))
}
