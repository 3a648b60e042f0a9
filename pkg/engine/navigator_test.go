package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/campaign-engine/pkg/campaign"
	"github.com/jwebster45206/campaign-engine/pkg/storage"
)

// buildTestCampaign materializes the shared three-scene description and
// returns the store, the campaign ID and its graph.
func buildTestCampaign(t *testing.T) (*storage.MemoryStore, uuid.UUID, *campaign.Graph) {
	t.Helper()

	store := storage.NewMemoryStore()
	builder := NewBuilder(store, testLogger())

	id, err := builder.Build(context.Background(), threeSceneDescription())
	require.NoError(t, err)

	g, err := store.GetGraph(context.Background(), id)
	require.NoError(t, err)
	return store, id, g
}

func TestNavigator_Advance(t *testing.T) {
	store, id, g := buildTestCampaign(t)
	nav := NewNavigator(store, testLogger())
	ctx := context.Background()

	intro, social, combat := g.Scenes[0], g.Scenes[1], g.Scenes[2]

	// Two sequential valid choices move the pointer along the chosen
	// edges, in order.
	state, err := nav.Advance(ctx, id, g.SceneChoices(intro.ID)[0].ID)
	require.NoError(t, err)
	assert.Equal(t, social.ID, state.CurrentSceneID)

	state, err = nav.Advance(ctx, id, g.SceneChoices(social.ID)[0].ID)
	require.NoError(t, err)
	assert.Equal(t, combat.ID, state.CurrentSceneID)

	// One "choice" log entry per advance, after the seeded system entry.
	logs, err := store.ListLogs(ctx, id)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, campaign.LogKindChoice, logs[1].Kind)
	assert.Equal(t, "Choice: Question the crowd", logs[1].Content)
	assert.Equal(t, campaign.LogKindChoice, logs[2].Kind)
}

func TestNavigator_Advance_DeadEnd(t *testing.T) {
	store, id, g := buildTestCampaign(t)
	nav := NewNavigator(store, testLogger())
	ctx := context.Background()

	intro, social, combat := g.Scenes[0], g.Scenes[1], g.Scenes[2]

	_, err := nav.Advance(ctx, id, g.SceneChoices(intro.ID)[0].ID)
	require.NoError(t, err)
	_, err = nav.Advance(ctx, id, g.SceneChoices(social.ID)[0].ID)
	require.NoError(t, err)

	// The combat scene's choice has no target: the pointer stays put
	// and a "choice" entry is still appended.
	state, err := nav.Advance(ctx, id, g.SceneChoices(combat.ID)[0].ID)
	require.NoError(t, err)
	assert.Equal(t, combat.ID, state.CurrentSceneID, "dead-end choice leaves current scene unchanged")

	logs, err := store.ListLogs(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, campaign.LogKindChoice, logs[len(logs)-1].Kind)
	assert.Equal(t, "Choice: Stand your ground", logs[len(logs)-1].Content)
}

func TestNavigator_Advance_Errors(t *testing.T) {
	store, id, g := buildTestCampaign(t)
	nav := NewNavigator(store, testLogger())
	ctx := context.Background()

	intro, social := g.Scenes[0], g.Scenes[1]

	t.Run("unknown choice", func(t *testing.T) {
		_, err := nav.Advance(ctx, id, uuid.New())
		assert.ErrorIs(t, err, ErrChoiceNotFound)
	})

	t.Run("choice from a non-current scene", func(t *testing.T) {
		// Current scene is the intro; the social scene's choice is not
		// yet exposed.
		_, err := nav.Advance(ctx, id, g.SceneChoices(social.ID)[0].ID)
		assert.ErrorIs(t, err, ErrChoiceNotAvailable)
	})

	t.Run("stale choice cannot replay", func(t *testing.T) {
		introChoice := g.SceneChoices(intro.ID)[0].ID
		_, err := nav.Advance(ctx, id, introChoice)
		require.NoError(t, err)

		_, err = nav.Advance(ctx, id, introChoice)
		assert.ErrorIs(t, err, ErrChoiceNotAvailable)
	})

	t.Run("choice from another campaign", func(t *testing.T) {
		otherStore := store // same store, second campaign
		builder := NewBuilder(otherStore, testLogger())
		otherID, err := builder.Build(ctx, threeSceneDescription())
		require.NoError(t, err)

		otherGraph, err := otherStore.GetGraph(ctx, otherID)
		require.NoError(t, err)
		foreignChoice := otherGraph.Choices[0].ID

		_, err = nav.Advance(ctx, id, foreignChoice)
		assert.ErrorIs(t, err, ErrChoiceNotFound)
	})

	t.Run("unknown campaign has no state", func(t *testing.T) {
		_, err := nav.Advance(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, ErrStateNotInitialized)
	})
}

func TestNavigator_Advance_ErrorWritesNothing(t *testing.T) {
	store, id, g := buildTestCampaign(t)
	nav := NewNavigator(store, testLogger())
	ctx := context.Background()

	social := g.Scenes[1]
	_, err := nav.Advance(ctx, id, g.SceneChoices(social.ID)[0].ID)
	require.ErrorIs(t, err, ErrChoiceNotAvailable)

	// Failed advance must not move the pointer or log anything.
	state, err := store.GetState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, g.Scenes[0].ID, state.CurrentSceneID)

	logs, err := store.ListLogs(ctx, id)
	require.NoError(t, err)
	assert.Len(t, logs, 1, "only the seeded system entry")
}
