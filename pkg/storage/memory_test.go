package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/campaign-engine/pkg/campaign"
)

func memTestGraph() *campaign.Graph {
	campaignID := uuid.New()
	scene := campaign.Scene{
		ID:         uuid.New(),
		CampaignID: campaignID,
		Name:       "Shrine",
		Kind:       campaign.SceneKindIntro,
	}
	return &campaign.Graph{
		Campaign: campaign.Campaign{
			ID:        campaignID,
			Title:     "Ashes of the Shrine",
			CreatedAt: time.Now(),
		},
		NPCs: []campaign.NPC{
			{ID: uuid.New(), CampaignID: campaignID, Name: "Confessor Hale", Status: campaign.NPCAlive},
		},
		Scenes: []campaign.Scene{scene},
		State:  campaign.State{CampaignID: campaignID, CurrentSceneID: scene.ID},
		Logs: []campaign.LogEntry{
			{CampaignID: campaignID, Kind: campaign.LogKindSystem, Content: "Campaign generated."},
		},
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	g := memTestGraph()
	require.NoError(t, store.CreateCampaign(ctx, g))

	got, err := store.GetGraph(ctx, g.Campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ashes of the Shrine", got.Campaign.Title)

	logs, err := store.ListLogs(ctx, g.Campaign.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, uint64(1), logs[0].Seq)
	assert.NotEqual(t, uuid.Nil, logs[0].ID)
}

func TestMemoryStore_ReadsAreCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	g := memTestGraph()
	require.NoError(t, store.CreateCampaign(ctx, g))

	got, err := store.GetGraph(ctx, g.Campaign.ID)
	require.NoError(t, err)
	got.Campaign.Title = "Vandalized"
	got.NPCs[0].Status = campaign.NPCDead

	again, err := store.GetGraph(ctx, g.Campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ashes of the Shrine", again.Campaign.Title)
	assert.Equal(t, campaign.NPCAlive, again.NPCs[0].Status)
}

func TestMemoryStore_MutateCommitAndRollback(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	g := memTestGraph()
	require.NoError(t, store.CreateCampaign(ctx, g))

	require.NoError(t, store.Mutate(ctx, g.Campaign.ID, func(tx Tx) error {
		npc, err := tx.NPC(g.NPCs[0].ID)
		if err != nil {
			return err
		}
		npc.Status = campaign.NPCMissing
		tx.SetNPC(npc)
		tx.AppendLog(campaign.LogKindInfo, uuid.Nil, "Confessor Hale vanishes.")
		return nil
	}))

	got, err := store.GetGraph(ctx, g.Campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.NPCMissing, got.NPCs[0].Status)

	boom := errors.New("boom")
	err = store.Mutate(ctx, g.Campaign.ID, func(tx Tx) error {
		npc, _ := tx.NPC(g.NPCs[0].ID)
		npc.Status = campaign.NPCDead
		tx.SetNPC(npc)
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err = store.GetGraph(ctx, g.Campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.NPCMissing, got.NPCs[0].Status, "failed mutation discarded")
}

func TestMemoryStore_ConcurrentMutates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	g := memTestGraph()
	require.NoError(t, store.CreateCampaign(ctx, g))

	// Concurrent log appends through Mutate must serialize: every entry
	// lands with a unique sequence number.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Mutate(ctx, g.Campaign.ID, func(tx Tx) error {
				tx.AppendLog(campaign.LogKindInfo, uuid.Nil, "tick")
				return nil
			})
		}()
	}
	wg.Wait()

	logs, err := store.ListLogs(ctx, g.Campaign.ID)
	require.NoError(t, err)
	require.Len(t, logs, 21)
	seen := make(map[uint64]bool)
	for _, l := range logs {
		assert.False(t, seen[l.Seq], "duplicate sequence %d", l.Seq)
		seen[l.Seq] = true
	}
}

func TestMemoryStore_DeleteCampaign(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	g := memTestGraph()
	require.NoError(t, store.CreateCampaign(ctx, g))
	require.NoError(t, store.DeleteCampaign(ctx, g.Campaign.ID))

	got, err := store.GetGraph(ctx, g.Campaign.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
