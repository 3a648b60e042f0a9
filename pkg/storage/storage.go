package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwebster45206/campaign-engine/pkg/campaign"
	"github.com/jwebster45206/campaign-engine/pkg/party"
)

// HealthChecker defines basic health check capabilities
type HealthChecker interface {
	// Ping tests the service connection
	Ping(ctx context.Context) error
}

// Closer defines cleanup capabilities
type Closer interface {
	// Close closes the service connection
	Close() error
}

// Store is the persistence boundary for campaign graphs. Read methods
// return nil (not an error) when the requested record does not exist;
// callers decide whether absence is an error in their context.
//
// Consistency contract: CreateCampaign persists a whole graph atomically
// or not at all. Mutate serializes all mutations of one campaign's
// subgraph and commits the staged writes atomically; returning an error
// from the callback discards them. Log entries are append-only and
// totally ordered per campaign (created-at ascending, sequence number
// breaking ties).
type Store interface {
	HealthChecker
	Closer

	// CreateCampaign atomically persists a complete campaign subgraph.
	CreateCampaign(ctx context.Context, g *campaign.Graph) error

	// ListCampaigns returns campaign summaries, newest first.
	ListCampaigns(ctx context.Context) ([]campaign.Summary, error)

	// GetCampaign retrieves a campaign record by ID.
	GetCampaign(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error)

	// GetGraph retrieves a campaign's full subgraph.
	GetGraph(ctx context.Context, id uuid.UUID) (*campaign.Graph, error)

	// GetState retrieves a campaign's navigation state.
	GetState(ctx context.Context, campaignID uuid.UUID) (*campaign.State, error)

	// GetScene retrieves one scene of a campaign.
	GetScene(ctx context.Context, campaignID, sceneID uuid.UUID) (*campaign.Scene, error)

	// FindEncounterCampaign resolves an encounter ID to its owning
	// campaign. Returns uuid.Nil when the encounter is unknown.
	FindEncounterCampaign(ctx context.Context, encounterID uuid.UUID) (uuid.UUID, error)

	// AppendLog appends one audit entry, assigning its ID, sequence
	// number and creation timestamp. It never rejects a well-formed entry.
	AppendLog(ctx context.Context, entry *campaign.LogEntry) error

	// ListLogs returns all audit entries for a campaign in order.
	ListLogs(ctx context.Context, campaignID uuid.UUID) ([]campaign.LogEntry, error)

	// DeleteCampaign removes a campaign and its entire subgraph.
	DeleteCampaign(ctx context.Context, id uuid.UUID) error

	// Mutate runs fn inside a unit of work scoped to one campaign.
	Mutate(ctx context.Context, campaignID uuid.UUID, fn func(tx Tx) error) error

	// SaveSheet persists a party sheet (create or update).
	SaveSheet(ctx context.Context, sheet *party.Sheet) error

	// GetSheet retrieves a party sheet by campaign and sheet ID.
	GetSheet(ctx context.Context, campaignID, sheetID uuid.UUID) (*party.Sheet, error)

	// ListSheets returns all party sheets of a campaign.
	ListSheets(ctx context.Context, campaignID uuid.UUID) ([]party.Sheet, error)
}

// Tx is a unit of work over a single campaign's subgraph. Reads observe
// the committed state plus this unit's staged writes; staged writes
// become visible atomically when the callback passed to Store.Mutate
// returns nil. Lookups of entities belonging to another campaign return
// nil, same as lookups of unknown IDs.
type Tx interface {
	State() (*campaign.State, error)
	Scene(id uuid.UUID) (*campaign.Scene, error)
	Choice(id uuid.UUID) (*campaign.Choice, error)
	Encounter(id uuid.UUID) (*campaign.Encounter, error)
	NPC(id uuid.UUID) (*campaign.NPC, error)

	SetState(s *campaign.State)
	SetEncounter(e *campaign.Encounter)
	SetNPC(n *campaign.NPC)

	// AppendLog stages an audit entry; ID, sequence number and timestamp
	// are assigned at commit. sceneID may be uuid.Nil.
	AppendLog(kind campaign.LogKind, sceneID uuid.UUID, content string)
}
