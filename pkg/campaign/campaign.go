package campaign

import (
	"time"

	"github.com/google/uuid"
)

// Campaign is the root entity of one adventure. It owns every other
// entity transitively; deleting a campaign deletes its whole subgraph.
type Campaign struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	World     string    `json:"world,omitempty"` // setting or subsector label
	Premise   string    `json:"premise,omitempty"`
	IntroText string    `json:"intro_text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary is the list-view projection of a campaign.
type Summary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	World     string    `json:"world,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary returns the list-view projection of c.
func (c *Campaign) Summary() Summary {
	return Summary{
		ID:        c.ID,
		Title:     c.Title,
		World:     c.World,
		CreatedAt: c.CreatedAt,
	}
}

// Location is a place in the campaign world.
type Location struct {
	ID          uuid.UUID `json:"id"`
	CampaignID  uuid.UUID `json:"campaign_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ASCIIMap    string    `json:"ascii_map,omitempty"` // multiline map sketch for the GM screen
}

// NPC is a non-player character. Status is the only mutable field;
// it moves to NPCDead when the NPC is listed as defeated during
// encounter resolution.
type NPC struct {
	ID          uuid.UUID `json:"id"`
	CampaignID  uuid.UUID `json:"campaign_id"`
	Name        string    `json:"name"`
	Role        string    `json:"role,omitempty"`
	Faction     string    `json:"faction,omitempty"`
	Description string    `json:"description,omitempty"`
	Notes       string    `json:"notes,omitempty"` // GM-only secrets and hooks
	Status      NPCStatus `json:"status"`
}

// DialogueLine is one line of an example dialogue embedded in a scene.
type DialogueLine struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Scene is a node of the campaign graph: one narrative beat the
// players experience.
type Scene struct {
	ID         uuid.UUID `json:"id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	LocationID uuid.UUID `json:"location_id,omitempty"` // Nil when the scene has no location
	Name       string    `json:"name"`
	Kind       SceneKind `json:"kind"`
	OrderIndex *int      `json:"order_index,omitempty"` // optional sort key, nil sorts last
	PlayerText string    `json:"player_text,omitempty"` // read aloud to players
	GMNotes    string    `json:"gm_notes,omitempty"`

	Dialogues []DialogueLine `json:"dialogues,omitempty"`
}

// Choice is a directed edge of the campaign graph: a player decision
// leading from one scene to another. A choice with a Nil TargetID is a
// dead end; taking it does not move the current scene.
type Choice struct {
	ID          uuid.UUID `json:"id"`
	SceneID     uuid.UUID `json:"scene_id"`
	TargetID    uuid.UUID `json:"target_id,omitempty"` // Nil = dead end
	Label       string    `json:"label"`
	Description string    `json:"description,omitempty"`
	ResultHint  string    `json:"result_hint,omitempty"`
}

// Encounter is the combat sub-state attached 1:1 to a combat scene.
// It carries narrative consequence text per outcome; the outcome itself
// is supplied by the GM when the encounter is resolved.
type Encounter struct {
	ID         uuid.UUID `json:"id"`
	SceneID    uuid.UUID `json:"scene_id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	Objectives string    `json:"objectives,omitempty"`
	NPCSummary string    `json:"npc_summary,omitempty"`

	VictoryText string `json:"victory_text,omitempty"`
	DrawText    string `json:"draw_text,omitempty"`
	DefeatText  string `json:"defeat_text,omitempty"`
	RetreatText string `json:"retreat_text,omitempty"`

	Status  EncounterStatus `json:"status"`
	Outcome Outcome         `json:"outcome,omitempty"` // set only once resolved
}

// ConsequenceText returns the narrative text for the given outcome, or
// empty when the encounter carries none for it.
func (e *Encounter) ConsequenceText(o Outcome) string {
	switch o {
	case OutcomeVictory:
		return e.VictoryText
	case OutcomeDraw:
		return e.DrawText
	case OutcomeDefeat:
		return e.DefeatText
	case OutcomeRetreat:
		return e.RetreatText
	default:
		return ""
	}
}

// State is the single mutable navigation record of one campaign: the
// current scene pointer plus branch-bookkeeping flags. Only the
// navigator mutates it.
type State struct {
	CampaignID     uuid.UUID       `json:"campaign_id"`
	CurrentSceneID uuid.UUID       `json:"current_scene_id,omitempty"` // Nil = no navigable position
	Flags          map[string]bool `json:"flags,omitempty"`
}

// LogEntry is one append-only audit record. Entries are never updated
// or deleted; per-campaign order is creation time ascending with the
// sequence number breaking ties.
type LogEntry struct {
	ID         uuid.UUID `json:"id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	SceneID    uuid.UUID `json:"scene_id,omitempty"` // Nil when not scene-scoped
	Seq        uint64    `json:"seq"`                // assigned at append, per campaign
	Kind       LogKind   `json:"kind"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
