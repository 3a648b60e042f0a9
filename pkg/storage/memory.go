package storage

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/campaign-engine/pkg/campaign"
	"github.com/jwebster45206/campaign-engine/pkg/party"
)

// MemoryStore is an in-memory implementation of Store. It backs unit
// tests and doubles as a single-process deployment mode. All reads
// return copies so callers cannot alias store-owned data.
type MemoryStore struct {
	mu     sync.RWMutex
	graphs map[uuid.UUID]*campaign.Graph
	sheets map[uuid.UUID]map[uuid.UUID]*party.Sheet
	seq    map[uuid.UUID]uint64

	locks sync.Map // campaignID -> *sync.Mutex, serializes Mutate per campaign

	pingError error
}

// Ensure MemoryStore implements Store interface
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		graphs: make(map[uuid.UUID]*campaign.Graph),
		sheets: make(map[uuid.UUID]map[uuid.UUID]*party.Sheet),
		seq:    make(map[uuid.UUID]uint64),
	}
}

// SetPingError configures the store to fail health checks, for tests.
func (m *MemoryStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) CreateCampaign(ctx context.Context, g *campaign.Graph) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := copyGraph(g)
	now := time.Now()
	for i := range stored.Logs {
		m.seq[stored.Campaign.ID]++
		stamped := &stored.Logs[i]
		if stamped.ID == uuid.Nil {
			stamped.ID = uuid.New()
		}
		stamped.Seq = m.seq[stored.Campaign.ID]
		stamped.CreatedAt = now
	}
	m.graphs[stored.Campaign.ID] = stored
	return nil
}

func (m *MemoryStore) ListCampaigns(ctx context.Context) ([]campaign.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summaries := make([]campaign.Summary, 0, len(m.graphs))
	for _, g := range m.graphs {
		summaries = append(summaries, g.Campaign.Summary())
	}
	// Newest first
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (m *MemoryStore) GetCampaign(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.graphs[id]
	if !ok {
		return nil, nil
	}
	c := g.Campaign
	return &c, nil
}

func (m *MemoryStore) GetGraph(ctx context.Context, id uuid.UUID) (*campaign.Graph, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.graphs[id]
	if !ok {
		return nil, nil
	}
	return copyGraph(g), nil
}

func (m *MemoryStore) GetState(ctx context.Context, campaignID uuid.UUID) (*campaign.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.graphs[campaignID]
	if !ok {
		return nil, nil
	}
	s := g.State
	s.Flags = maps.Clone(g.State.Flags)
	return &s, nil
}

func (m *MemoryStore) GetScene(ctx context.Context, campaignID, sceneID uuid.UUID) (*campaign.Scene, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.graphs[campaignID]
	if !ok {
		return nil, nil
	}
	sc := g.Scene(sceneID)
	if sc == nil {
		return nil, nil
	}
	out := *sc
	out.Dialogues = slices.Clone(sc.Dialogues)
	return &out, nil
}

func (m *MemoryStore) FindEncounterCampaign(ctx context.Context, encounterID uuid.UUID) (uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, g := range m.graphs {
		for i := range g.Encounters {
			if g.Encounters[i].ID == encounterID {
				return id, nil
			}
		}
	}
	return uuid.Nil, nil
}

func (m *MemoryStore) AppendLog(ctx context.Context, entry *campaign.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLogLocked(entry)
}

// appendLogLocked assigns identity, sequence and timestamp, then appends.
// Caller must hold mu.
func (m *MemoryStore) appendLogLocked(entry *campaign.LogEntry) error {
	g, ok := m.graphs[entry.CampaignID]
	if !ok {
		// Log writes never reject; an entry for an unknown campaign is
		// dropped after stamping so the caller still sees success.
		return nil
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	m.seq[entry.CampaignID]++
	entry.Seq = m.seq[entry.CampaignID]
	entry.CreatedAt = time.Now()
	g.Logs = append(g.Logs, *entry)
	return nil
}

func (m *MemoryStore) ListLogs(ctx context.Context, campaignID uuid.UUID) ([]campaign.LogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.graphs[campaignID]
	if !ok {
		return nil, nil
	}
	logs := slices.Clone(g.Logs)
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].CreatedAt.Equal(logs[j].CreatedAt) {
			return logs[i].Seq < logs[j].Seq
		}
		return logs[i].CreatedAt.Before(logs[j].CreatedAt)
	})
	return logs, nil
}

func (m *MemoryStore) DeleteCampaign(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.graphs, id)
	delete(m.sheets, id)
	delete(m.seq, id)
	return nil
}

func (m *MemoryStore) Mutate(ctx context.Context, campaignID uuid.UUID, fn func(tx Tx) error) error {
	lock, _ := m.locks.LoadOrStore(campaignID, &sync.Mutex{})
	lock.(*sync.Mutex).Lock()
	defer lock.(*sync.Mutex).Unlock()

	tx := &memTx{store: m, campaignID: campaignID}
	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	tx.commitLocked()
	return nil
}

func (m *MemoryStore) SaveSheet(ctx context.Context, sheet *party.Sheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byID, ok := m.sheets[sheet.CampaignID]
	if !ok {
		byID = make(map[uuid.UUID]*party.Sheet)
		m.sheets[sheet.CampaignID] = byID
	}
	cp := *sheet
	cp.Skills = maps.Clone(sheet.Skills)
	cp.Gear = slices.Clone(sheet.Gear)
	byID[sheet.ID] = &cp
	return nil
}

func (m *MemoryStore) GetSheet(ctx context.Context, campaignID, sheetID uuid.UUID) (*party.Sheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sheets[campaignID][sheetID]
	if !ok {
		return nil, nil
	}
	cp := *s
	cp.Skills = maps.Clone(s.Skills)
	cp.Gear = slices.Clone(s.Gear)
	return &cp, nil
}

func (m *MemoryStore) ListSheets(ctx context.Context, campaignID uuid.UUID) ([]party.Sheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byID := m.sheets[campaignID]
	out := make([]party.Sheet, 0, len(byID))
	for _, s := range byID {
		cp := *s
		cp.Skills = maps.Clone(s.Skills)
		cp.Gear = slices.Clone(s.Gear)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// memTx stages writes against one campaign and applies them on commit.
type memTx struct {
	store      *MemoryStore
	campaignID uuid.UUID

	state      *campaign.State
	encounters map[uuid.UUID]*campaign.Encounter
	npcs       map[uuid.UUID]*campaign.NPC
	logs       []campaign.LogEntry
}

var _ Tx = (*memTx)(nil)

func (t *memTx) graph() *campaign.Graph {
	return t.store.graphs[t.campaignID]
}

func (t *memTx) State() (*campaign.State, error) {
	if t.state != nil {
		s := *t.state
		return &s, nil
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	g := t.graph()
	if g == nil {
		return nil, nil
	}
	s := g.State
	return &s, nil
}

func (t *memTx) Scene(id uuid.UUID) (*campaign.Scene, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	g := t.graph()
	if g == nil {
		return nil, nil
	}
	sc := g.Scene(id)
	if sc == nil {
		return nil, nil
	}
	out := *sc
	return &out, nil
}

func (t *memTx) Choice(id uuid.UUID) (*campaign.Choice, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	g := t.graph()
	if g == nil {
		return nil, nil
	}
	for _, c := range g.Choices {
		if c.ID == id {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (t *memTx) Encounter(id uuid.UUID) (*campaign.Encounter, error) {
	if e, ok := t.encounters[id]; ok {
		out := *e
		return &out, nil
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	g := t.graph()
	if g == nil {
		return nil, nil
	}
	for _, e := range g.Encounters {
		if e.ID == id {
			out := e
			return &out, nil
		}
	}
	return nil, nil
}

func (t *memTx) NPC(id uuid.UUID) (*campaign.NPC, error) {
	if n, ok := t.npcs[id]; ok {
		out := *n
		return &out, nil
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	g := t.graph()
	if g == nil {
		return nil, nil
	}
	for _, n := range g.NPCs {
		if n.ID == id {
			out := n
			return &out, nil
		}
	}
	return nil, nil
}

func (t *memTx) SetState(s *campaign.State) {
	cp := *s
	t.state = &cp
}

func (t *memTx) SetEncounter(e *campaign.Encounter) {
	if t.encounters == nil {
		t.encounters = make(map[uuid.UUID]*campaign.Encounter)
	}
	cp := *e
	t.encounters[e.ID] = &cp
}

func (t *memTx) SetNPC(n *campaign.NPC) {
	if t.npcs == nil {
		t.npcs = make(map[uuid.UUID]*campaign.NPC)
	}
	cp := *n
	t.npcs[n.ID] = &cp
}

func (t *memTx) AppendLog(kind campaign.LogKind, sceneID uuid.UUID, content string) {
	t.logs = append(t.logs, campaign.LogEntry{
		CampaignID: t.campaignID,
		SceneID:    sceneID,
		Kind:       kind,
		Content:    content,
	})
}

// commitLocked applies staged writes. Caller must hold store.mu.
func (t *memTx) commitLocked() {
	g := t.graph()
	if g == nil {
		return
	}
	if t.state != nil {
		g.State = *t.state
	}
	for id, e := range t.encounters {
		for i := range g.Encounters {
			if g.Encounters[i].ID == id {
				g.Encounters[i] = *e
			}
		}
	}
	for id, n := range t.npcs {
		for i := range g.NPCs {
			if g.NPCs[i].ID == id {
				g.NPCs[i] = *n
			}
		}
	}
	for i := range t.logs {
		entry := t.logs[i]
		_ = t.store.appendLogLocked(&entry)
	}
}

// copyGraph returns a structural copy of g deep enough that the caller
// cannot mutate store-owned slices.
func copyGraph(g *campaign.Graph) *campaign.Graph {
	out := &campaign.Graph{
		Campaign:   g.Campaign,
		Locations:  slices.Clone(g.Locations),
		NPCs:       slices.Clone(g.NPCs),
		Scenes:     slices.Clone(g.Scenes),
		Choices:    slices.Clone(g.Choices),
		Encounters: slices.Clone(g.Encounters),
		State:      g.State,
		Logs:       slices.Clone(g.Logs),
	}
	for i := range out.Scenes {
		out.Scenes[i].Dialogues = slices.Clone(out.Scenes[i].Dialogues)
	}
	out.State.Flags = maps.Clone(g.State.Flags)
	return out
}
