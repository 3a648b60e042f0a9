package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/campaign-engine/pkg/campaign"
	"github.com/jwebster45206/campaign-engine/pkg/party"
	pstorage "github.com/jwebster45206/campaign-engine/pkg/storage"
)

// Key layout:
//
//	campaigns                    ZSET of campaign IDs scored by creation time
//	campaign:{id}                campaign summary JSON
//	campaign:{id}:graph          full subgraph JSON (everything but the log)
//	campaign:{id}:log            LIST of log entry JSON, append order
//	campaign:{id}:logseq         log sequence counter
//	campaign:{id}:lock           mutation lock (SET NX, expiring)
//	campaign:{id}:sheets         HASH of sheet ID -> party sheet JSON
//	encounter:{id}               owning campaign ID (reverse index)
//
// The whole subgraph lives in one value, so a graph write is one SET and
// is atomic by itself; multi-key writes (create, delete, commit) go
// through one TxPipeline so readers never observe a partial campaign.

const (
	lockTTL       = 30 * time.Second
	lockRetryWait = 50 * time.Millisecond
)

// RedisStore implements the Store interface on Redis.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStore implements Store interface
var _ pstorage.Store = (*RedisStore)(nil)

// NewRedisStore creates a new Redis store from a redis:// URL.
func NewRedisStore(redisURL string, logger *slog.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return &RedisStore{
		client: redis.NewClient(opt),
		logger: logger,
	}, nil
}

// Client exposes the underlying connection for collaborators that share
// it, such as the pub/sub event broadcaster.
func (r *RedisStore) Client() *redis.Client {
	return r.client
}

// Health and lifecycle methods

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStore) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Campaign graph operations

func (r *RedisStore) CreateCampaign(ctx context.Context, g *campaign.Graph) error {
	id := g.Campaign.ID

	// Seeded log entries are stamped before the pipeline; the campaign
	// is invisible until EXEC, so the lock is not needed yet.
	now := time.Now()
	logs := make([]campaign.LogEntry, len(g.Logs))
	for i := range g.Logs {
		logs[i] = g.Logs[i]
		if logs[i].ID == uuid.Nil {
			logs[i].ID = uuid.New()
		}
		logs[i].Seq = uint64(i + 1)
		logs[i].CreatedAt = now
	}

	stored := *g
	stored.Logs = nil

	graphData, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to marshal campaign graph: %w", err)
	}
	summaryData, err := json.Marshal(g.Campaign.Summary())
	if err != nil {
		return fmt.Errorf("failed to marshal campaign summary: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, graphKey(id), graphData, 0)
	pipe.Set(ctx, summaryKey(id), summaryData, 0)
	pipe.ZAdd(ctx, "campaigns", redis.Z{
		Score:  float64(g.Campaign.CreatedAt.UnixNano()),
		Member: id.String(),
	})
	for _, e := range g.Encounters {
		pipe.Set(ctx, encounterKey(e.ID), id.String(), 0)
	}
	for i := range logs {
		data, err := json.Marshal(&logs[i])
		if err != nil {
			return fmt.Errorf("failed to marshal log entry: %w", err)
		}
		pipe.RPush(ctx, logKey(id), data)
	}
	pipe.Set(ctx, logSeqKey(id), len(logs), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to persist campaign graph", "campaign_id", id, "error", err)
		return fmt.Errorf("failed to persist campaign graph: %w", err)
	}
	return nil
}

func (r *RedisStore) ListCampaigns(ctx context.Context) ([]campaign.Summary, error) {
	// Newest first
	ids, err := r.client.ZRevRange(ctx, "campaigns", 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	if len(ids) == 0 {
		return []campaign.Summary{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = "campaign:" + id
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign summaries: %w", err)
	}

	summaries := make([]campaign.Summary, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue // deleted between ZREVRANGE and MGET
		}
		var summary campaign.Summary
		if err := json.Unmarshal([]byte(s), &summary); err != nil {
			r.logger.Warn("Skipping undecodable campaign summary", "error", err)
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (r *RedisStore) GetCampaign(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	g, err := r.loadGraph(ctx, id)
	if err != nil || g == nil {
		return nil, err
	}
	c := g.Campaign
	return &c, nil
}

func (r *RedisStore) GetGraph(ctx context.Context, id uuid.UUID) (*campaign.Graph, error) {
	g, err := r.loadGraph(ctx, id)
	if err != nil || g == nil {
		return nil, err
	}
	logs, err := r.ListLogs(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Logs = logs
	return g, nil
}

func (r *RedisStore) GetState(ctx context.Context, campaignID uuid.UUID) (*campaign.State, error) {
	g, err := r.loadGraph(ctx, campaignID)
	if err != nil || g == nil {
		return nil, err
	}
	s := g.State
	return &s, nil
}

func (r *RedisStore) GetScene(ctx context.Context, campaignID, sceneID uuid.UUID) (*campaign.Scene, error) {
	g, err := r.loadGraph(ctx, campaignID)
	if err != nil || g == nil {
		return nil, err
	}
	sc := g.Scene(sceneID)
	if sc == nil {
		return nil, nil
	}
	out := *sc
	return &out, nil
}

func (r *RedisStore) FindEncounterCampaign(ctx context.Context, encounterID uuid.UUID) (uuid.UUID, error) {
	val, err := r.client.Get(ctx, encounterKey(encounterID)).Result()
	if err != nil {
		if err == redis.Nil {
			return uuid.Nil, nil
		}
		return uuid.Nil, fmt.Errorf("failed to look up encounter: %w", err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt encounter index for %s: %w", encounterID, err)
	}
	return id, nil
}

// Audit log operations

func (r *RedisStore) AppendLog(ctx context.Context, entry *campaign.LogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	seq, err := r.client.Incr(ctx, logSeqKey(entry.CampaignID)).Result()
	if err != nil {
		return fmt.Errorf("failed to assign log sequence: %w", err)
	}
	entry.Seq = uint64(seq)
	entry.CreatedAt = time.Now()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}
	if err := r.client.RPush(ctx, logKey(entry.CampaignID), data).Err(); err != nil {
		r.logger.Error("Failed to append log entry", "campaign_id", entry.CampaignID, "error", err)
		return fmt.Errorf("failed to append log entry: %w", err)
	}
	return nil
}

func (r *RedisStore) ListLogs(ctx context.Context, campaignID uuid.UUID) ([]campaign.LogEntry, error) {
	values, err := r.client.LRange(ctx, logKey(campaignID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}

	logs := make([]campaign.LogEntry, 0, len(values))
	for _, v := range values {
		var entry campaign.LogEntry
		if err := json.Unmarshal([]byte(v), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal log entry: %w", err)
		}
		logs = append(logs, entry)
	}
	// List order is append order already; sort keeps the contract exact
	// (created-at ascending, sequence breaking ties).
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].CreatedAt.Equal(logs[j].CreatedAt) {
			return logs[i].Seq < logs[j].Seq
		}
		return logs[i].CreatedAt.Before(logs[j].CreatedAt)
	})
	return logs, nil
}

func (r *RedisStore) DeleteCampaign(ctx context.Context, id uuid.UUID) error {
	g, err := r.loadGraph(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.ZRem(ctx, "campaigns", id.String())
	pipe.Del(ctx, graphKey(id), summaryKey(id), logKey(id), logSeqKey(id), sheetsKey(id))
	if g != nil {
		for _, e := range g.Encounters {
			pipe.Del(ctx, encounterKey(e.ID))
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	return nil
}

// Mutate runs fn under the campaign's lock and commits staged writes in
// one transaction pipeline.
func (r *RedisStore) Mutate(ctx context.Context, campaignID uuid.UUID, fn func(tx pstorage.Tx) error) error {
	unlock, err := r.acquireLock(ctx, campaignID)
	if err != nil {
		return err
	}
	defer unlock()

	g, err := r.loadGraph(ctx, campaignID)
	if err != nil {
		return err
	}

	tx := &redisTx{campaignID: campaignID, graph: g}
	if err := fn(tx); err != nil {
		return err
	}
	if g == nil {
		// fn succeeded without touching anything persistable.
		return nil
	}

	seq, err := r.client.Get(ctx, logSeqKey(campaignID)).Int64()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to read log sequence: %w", err)
	}

	tx.apply()
	graphData, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal campaign graph: %w", err)
	}

	now := time.Now()
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, graphKey(campaignID), graphData, 0)
	for i := range tx.logs {
		entry := tx.logs[i]
		entry.ID = uuid.New()
		entry.Seq = uint64(seq) + uint64(i) + 1
		entry.CreatedAt = now
		data, err := json.Marshal(&entry)
		if err != nil {
			return fmt.Errorf("failed to marshal log entry: %w", err)
		}
		pipe.RPush(ctx, logKey(campaignID), data)
	}
	if len(tx.logs) > 0 {
		pipe.Set(ctx, logSeqKey(campaignID), seq+int64(len(tx.logs)), 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to commit campaign mutation", "campaign_id", campaignID, "error", err)
		return fmt.Errorf("failed to commit campaign mutation: %w", err)
	}
	return nil
}

// Party sheet operations

func (r *RedisStore) SaveSheet(ctx context.Context, sheet *party.Sheet) error {
	data, err := json.Marshal(sheet)
	if err != nil {
		return fmt.Errorf("failed to marshal sheet: %w", err)
	}
	if err := r.client.HSet(ctx, sheetsKey(sheet.CampaignID), sheet.ID.String(), data).Err(); err != nil {
		return fmt.Errorf("failed to save sheet: %w", err)
	}
	return nil
}

func (r *RedisStore) GetSheet(ctx context.Context, campaignID, sheetID uuid.UUID) (*party.Sheet, error) {
	val, err := r.client.HGet(ctx, sheetsKey(campaignID), sheetID.String()).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load sheet: %w", err)
	}
	var sheet party.Sheet
	if err := json.Unmarshal([]byte(val), &sheet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sheet: %w", err)
	}
	return &sheet, nil
}

func (r *RedisStore) ListSheets(ctx context.Context, campaignID uuid.UUID) ([]party.Sheet, error) {
	values, err := r.client.HGetAll(ctx, sheetsKey(campaignID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sheets: %w", err)
	}
	sheets := make([]party.Sheet, 0, len(values))
	for _, v := range values {
		var sheet party.Sheet
		if err := json.Unmarshal([]byte(v), &sheet); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sheet: %w", err)
		}
		sheets = append(sheets, sheet)
	}
	sort.Slice(sheets, func(i, j int) bool { return sheets[i].Name < sheets[j].Name })
	return sheets, nil
}

// Internal helpers

func (r *RedisStore) loadGraph(ctx context.Context, id uuid.UUID) (*campaign.Graph, error) {
	val, err := r.client.Get(ctx, graphKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		r.logger.Error("Failed to load campaign graph", "campaign_id", id, "error", err)
		return nil, fmt.Errorf("failed to load campaign graph: %w", err)
	}
	var g campaign.Graph
	if err := json.Unmarshal([]byte(val), &g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal campaign graph: %w", err)
	}
	return &g, nil
}

// acquireLock serializes mutations per campaign. The lock expires on its
// own so a crashed holder cannot wedge the campaign forever.
func (r *RedisStore) acquireLock(ctx context.Context, campaignID uuid.UUID) (func(), error) {
	key := lockKey(campaignID)
	for {
		ok, err := r.client.SetNX(ctx, key, "1", lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire campaign lock: %w", err)
		}
		if ok {
			return func() {
				if err := r.client.Del(context.WithoutCancel(ctx), key).Err(); err != nil {
					r.logger.Warn("Failed to release campaign lock", "campaign_id", campaignID, "error", err)
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled while waiting for campaign lock: %w", ctx.Err())
		case <-time.After(lockRetryWait):
		}
	}
}

func graphKey(id uuid.UUID) string     { return "campaign:" + id.String() + ":graph" }
func summaryKey(id uuid.UUID) string   { return "campaign:" + id.String() }
func logKey(id uuid.UUID) string       { return "campaign:" + id.String() + ":log" }
func logSeqKey(id uuid.UUID) string    { return "campaign:" + id.String() + ":logseq" }
func lockKey(id uuid.UUID) string      { return "campaign:" + id.String() + ":lock" }
func sheetsKey(id uuid.UUID) string    { return "campaign:" + id.String() + ":sheets" }
func encounterKey(id uuid.UUID) string { return "encounter:" + id.String() }

// redisTx stages writes against the in-memory copy of one campaign's
// graph; apply folds them back in before the commit pipeline runs.
type redisTx struct {
	campaignID uuid.UUID
	graph      *campaign.Graph // nil when the campaign does not exist

	state      *campaign.State
	encounters map[uuid.UUID]*campaign.Encounter
	npcs       map[uuid.UUID]*campaign.NPC
	logs       []campaign.LogEntry
}

var _ pstorage.Tx = (*redisTx)(nil)

func (t *redisTx) State() (*campaign.State, error) {
	if t.state != nil {
		s := *t.state
		return &s, nil
	}
	if t.graph == nil {
		return nil, nil
	}
	s := t.graph.State
	return &s, nil
}

func (t *redisTx) Scene(id uuid.UUID) (*campaign.Scene, error) {
	if t.graph == nil {
		return nil, nil
	}
	sc := t.graph.Scene(id)
	if sc == nil {
		return nil, nil
	}
	out := *sc
	return &out, nil
}

func (t *redisTx) Choice(id uuid.UUID) (*campaign.Choice, error) {
	if t.graph == nil {
		return nil, nil
	}
	for _, c := range t.graph.Choices {
		if c.ID == id {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (t *redisTx) Encounter(id uuid.UUID) (*campaign.Encounter, error) {
	if e, ok := t.encounters[id]; ok {
		out := *e
		return &out, nil
	}
	if t.graph == nil {
		return nil, nil
	}
	for _, e := range t.graph.Encounters {
		if e.ID == id {
			out := e
			return &out, nil
		}
	}
	return nil, nil
}

func (t *redisTx) NPC(id uuid.UUID) (*campaign.NPC, error) {
	if n, ok := t.npcs[id]; ok {
		out := *n
		return &out, nil
	}
	if t.graph == nil {
		return nil, nil
	}
	for _, n := range t.graph.NPCs {
		if n.ID == id {
			out := n
			return &out, nil
		}
	}
	return nil, nil
}

func (t *redisTx) SetState(s *campaign.State) {
	cp := *s
	t.state = &cp
}

func (t *redisTx) SetEncounter(e *campaign.Encounter) {
	if t.encounters == nil {
		t.encounters = make(map[uuid.UUID]*campaign.Encounter)
	}
	cp := *e
	t.encounters[e.ID] = &cp
}

func (t *redisTx) SetNPC(n *campaign.NPC) {
	if t.npcs == nil {
		t.npcs = make(map[uuid.UUID]*campaign.NPC)
	}
	cp := *n
	t.npcs[n.ID] = &cp
}

func (t *redisTx) AppendLog(kind campaign.LogKind, sceneID uuid.UUID, content string) {
	t.logs = append(t.logs, campaign.LogEntry{
		CampaignID: t.campaignID,
		SceneID:    sceneID,
		Kind:       kind,
		Content:    content,
	})
}

// apply folds staged writes into the graph copy.
func (t *redisTx) apply() {
	if t.graph == nil {
		return
	}
	if t.state != nil {
		t.graph.State = *t.state
	}
	for id, e := range t.encounters {
		for i := range t.graph.Encounters {
			if t.graph.Encounters[i].ID == id {
				t.graph.Encounters[i] = *e
			}
		}
	}
	for id, n := range t.npcs {
		for i := range t.graph.NPCs {
			if t.graph.NPCs[i].ID == id {
				t.graph.NPCs[i] = *n
			}
		}
	}
}
