package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/campaign-engine/pkg/campaign"
	"github.com/jwebster45206/campaign-engine/pkg/party"
	pstorage "github.com/jwebster45206/campaign-engine/pkg/storage"
)

func setupTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	// Start miniredis
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := NewRedisStore("redis://"+mr.Addr(), logger)
	if err != nil {
		t.Fatalf("Failed to create redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

// testGraph builds a small two-scene graph with one encounter, one NPC
// and one seeded log entry.
func testGraph() *campaign.Graph {
	campaignID := uuid.New()
	sceneA := campaign.Scene{
		ID:         uuid.New(),
		CampaignID: campaignID,
		Name:       "Docks",
		Kind:       campaign.SceneKindIntro,
	}
	sceneB := campaign.Scene{
		ID:         uuid.New(),
		CampaignID: campaignID,
		Name:       "Warehouse",
		Kind:       campaign.SceneKindCombat,
	}
	return &campaign.Graph{
		Campaign: campaign.Campaign{
			ID:        campaignID,
			Title:     "Smoke on the Water",
			World:     "Port Wander",
			CreatedAt: time.Now(),
		},
		NPCs: []campaign.NPC{
			{ID: uuid.New(), CampaignID: campaignID, Name: "Dockmaster Ferro", Status: campaign.NPCAlive},
		},
		Scenes: []campaign.Scene{sceneA, sceneB},
		Choices: []campaign.Choice{
			{ID: uuid.New(), SceneID: sceneA.ID, TargetID: sceneB.ID, Label: "Follow the smugglers"},
		},
		Encounters: []campaign.Encounter{
			{ID: uuid.New(), SceneID: sceneB.ID, CampaignID: campaignID, Status: campaign.EncounterPending},
		},
		State: campaign.State{CampaignID: campaignID, CurrentSceneID: sceneA.ID},
		Logs: []campaign.LogEntry{
			{CampaignID: campaignID, Kind: campaign.LogKindSystem, Content: "Campaign generated."},
		},
	}
}

func TestRedisStore_CreateAndGetGraph(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	g := testGraph()
	require.NoError(t, store.CreateCampaign(ctx, g))

	got, err := store.GetGraph(ctx, g.Campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, g.Campaign.ID, got.Campaign.ID)
	assert.Equal(t, "Smoke on the Water", got.Campaign.Title)
	assert.Len(t, got.Scenes, 2)
	assert.Len(t, got.Choices, 1)
	assert.Len(t, got.Encounters, 1)
	assert.Equal(t, g.State.CurrentSceneID, got.State.CurrentSceneID)

	// Seeded log entry got identity, sequence and timestamp.
	require.Len(t, got.Logs, 1)
	assert.NotEqual(t, uuid.Nil, got.Logs[0].ID)
	assert.Equal(t, uint64(1), got.Logs[0].Seq)
	assert.False(t, got.Logs[0].CreatedAt.IsZero())
}

func TestRedisStore_GetMissing(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	g, err := store.GetGraph(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, g)

	c, err := store.GetCampaign(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, c)

	s, err := store.GetState(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, s)

	id, err := store.FindEncounterCampaign(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, id)
}

func TestRedisStore_ListCampaigns(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	older := testGraph()
	older.Campaign.CreatedAt = time.Now().Add(-time.Hour)
	newer := testGraph()

	require.NoError(t, store.CreateCampaign(ctx, older))
	require.NoError(t, store.CreateCampaign(ctx, newer))

	summaries, err := store.ListCampaigns(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, newer.Campaign.ID, summaries[0].ID, "newest first")
	assert.Equal(t, older.Campaign.ID, summaries[1].ID)
}

func TestRedisStore_FindEncounterCampaign(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	g := testGraph()
	require.NoError(t, store.CreateCampaign(ctx, g))

	id, err := store.FindEncounterCampaign(ctx, g.Encounters[0].ID)
	require.NoError(t, err)
	assert.Equal(t, g.Campaign.ID, id)
}

func TestRedisStore_AppendAndListLogs(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	g := testGraph()
	require.NoError(t, store.CreateCampaign(ctx, g))

	for _, content := range []string{"first", "second", "third"} {
		entry := &campaign.LogEntry{
			CampaignID: g.Campaign.ID,
			Kind:       campaign.LogKindCheck,
			Content:    content,
		}
		require.NoError(t, store.AppendLog(ctx, entry))
	}

	logs, err := store.ListLogs(ctx, g.Campaign.ID)
	require.NoError(t, err)
	require.Len(t, logs, 4) // seeded + three appended

	// Sequence numbers are strictly increasing, order is stable.
	for i := 1; i < len(logs); i++ {
		assert.Greater(t, logs[i].Seq, logs[i-1].Seq)
	}
	assert.Equal(t, "first", logs[1].Content)
	assert.Equal(t, "third", logs[3].Content)
}

func TestRedisStore_Mutate(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	g := testGraph()
	require.NoError(t, store.CreateCampaign(ctx, g))

	err := store.Mutate(ctx, g.Campaign.ID, func(tx pstorage.Tx) error {
		state, err := tx.State()
		if err != nil {
			return err
		}
		state.CurrentSceneID = g.Scenes[1].ID
		tx.SetState(state)

		npc, err := tx.NPC(g.NPCs[0].ID)
		if err != nil {
			return err
		}
		npc.Status = campaign.NPCDead
		tx.SetNPC(npc)

		tx.AppendLog(campaign.LogKindChoice, g.Scenes[0].ID, "Choice: Follow the smugglers")
		return nil
	})
	require.NoError(t, err)

	got, err := store.GetGraph(ctx, g.Campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, g.Scenes[1].ID, got.State.CurrentSceneID)
	assert.Equal(t, campaign.NPCDead, got.NPCs[0].Status)
	require.Len(t, got.Logs, 2)
	assert.Equal(t, campaign.LogKindChoice, got.Logs[1].Kind)
	assert.Equal(t, uint64(2), got.Logs[1].Seq)
}

func TestRedisStore_MutateErrorDiscardsWrites(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	g := testGraph()
	require.NoError(t, store.CreateCampaign(ctx, g))

	boom := errors.New("boom")
	err := store.Mutate(ctx, g.Campaign.ID, func(tx pstorage.Tx) error {
		state, _ := tx.State()
		state.CurrentSceneID = g.Scenes[1].ID
		tx.SetState(state)
		tx.AppendLog(campaign.LogKindInfo, uuid.Nil, "never persisted")
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.GetGraph(ctx, g.Campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, g.Scenes[0].ID, got.State.CurrentSceneID, "failed mutation writes nothing")
	assert.Len(t, got.Logs, 1)
}

func TestRedisStore_MutateScopedLookups(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	g := testGraph()
	other := testGraph()
	require.NoError(t, store.CreateCampaign(ctx, g))
	require.NoError(t, store.CreateCampaign(ctx, other))

	err := store.Mutate(ctx, g.Campaign.ID, func(tx pstorage.Tx) error {
		// A choice of another campaign is invisible inside this unit of work.
		c, err := tx.Choice(other.Choices[0].ID)
		if err != nil {
			return err
		}
		assert.Nil(t, c)

		n, err := tx.NPC(other.NPCs[0].ID)
		if err != nil {
			return err
		}
		assert.Nil(t, n)
		return nil
	})
	require.NoError(t, err)
}

func TestRedisStore_DeleteCampaign(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	g := testGraph()
	require.NoError(t, store.CreateCampaign(ctx, g))
	require.NoError(t, store.DeleteCampaign(ctx, g.Campaign.ID))

	got, err := store.GetGraph(ctx, g.Campaign.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	id, err := store.FindEncounterCampaign(ctx, g.Encounters[0].ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, id, "encounter index removed with the campaign")

	summaries, err := store.ListCampaigns(ctx)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestRedisStore_Sheets(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	campaignID := uuid.New()
	sheet := &party.Sheet{
		ID:         uuid.New(),
		CampaignID: campaignID,
		Name:       "Brother Castus",
		Career:     "Guardsman",
		Wounds:     12,
		MaxWounds:  12,
	}
	require.NoError(t, store.SaveSheet(ctx, sheet))

	got, err := store.GetSheet(ctx, campaignID, sheet.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Brother Castus", got.Name)

	missing, err := store.GetSheet(ctx, campaignID, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	sheets, err := store.ListSheets(ctx, campaignID)
	require.NoError(t, err)
	assert.Len(t, sheets, 1)
}
