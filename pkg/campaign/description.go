package campaign

// This file defines the flat, index-addressed description format produced
// by the generation provider. Cross-references between scenes use list
// positions (to_scene_index, location_index) because the generator cannot
// know persistent identities; the graph builder resolves them in a second
// pass. Every field except the top-level campaign summary is optional —
// the generator is an imperfect source and missing pieces degrade to
// documented defaults instead of failing the build.

// GeneratedCampaign is the whole description: one summary plus ordered
// lists of locations, NPCs and scenes.
type GeneratedCampaign struct {
	Campaign  *GeneratedSummary   `json:"campaign"`
	Locations []GeneratedLocation `json:"locations,omitempty"`
	NPCs      []GeneratedNPC      `json:"npcs,omitempty"`
	Scenes    []GeneratedScene    `json:"scenes,omitempty"`
}

// GeneratedSummary describes the campaign record itself.
type GeneratedSummary struct {
	Title     string `json:"title,omitempty"`
	World     string `json:"world,omitempty"`
	Premise   string `json:"premise,omitempty"`
	IntroText string `json:"intro_text,omitempty"`
}

// GeneratedLocation describes one location. Its position in the list is
// its address for scenes' location_index references.
type GeneratedLocation struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	ASCIIMap    string `json:"ascii_map,omitempty"`
}

// GeneratedNPC describes one NPC. List order carries no meaning.
type GeneratedNPC struct {
	Name        string `json:"name,omitempty"`
	Role        string `json:"role,omitempty"`
	Faction     string `json:"faction,omitempty"`
	Description string `json:"description,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// GeneratedScene describes one scene. LocationIndex addresses the
// locations list; an out-of-range or absent index means no location.
type GeneratedScene struct {
	Name          string              `json:"name,omitempty"`
	SceneKind     string              `json:"scene_type,omitempty"`
	LocationIndex *int                `json:"location_index,omitempty"`
	OrderIndex    *int                `json:"order_index,omitempty"`
	PlayerText    string              `json:"player_text,omitempty"`
	GMNotes       string              `json:"gm_notes,omitempty"`
	Dialogues     []DialogueLine      `json:"dialogues,omitempty"`
	Encounter     *GeneratedEncounter `json:"encounter,omitempty"`
	Choices       []GeneratedChoice   `json:"choices,omitempty"`
}

// GeneratedEncounter describes the combat sub-state of a scene.
type GeneratedEncounter struct {
	Objectives  string `json:"objectives,omitempty"`
	NPCSummary  string `json:"npc_summary,omitempty"`
	VictoryText string `json:"victory_text,omitempty"`
	DrawText    string `json:"draw_text,omitempty"`
	DefeatText  string `json:"defeat_text,omitempty"`
	RetreatText string `json:"escape_text,omitempty"` // generator emits "escape_text"
}

// GeneratedChoice describes one outgoing edge of a scene. ToSceneIndex
// addresses the scenes list; nil or out-of-range means a dead end.
type GeneratedChoice struct {
	Label        string `json:"label,omitempty"`
	Description  string `json:"description,omitempty"`
	ResultHint   string `json:"result_hint,omitempty"`
	ToSceneIndex *int   `json:"to_scene_index,omitempty"`
}
