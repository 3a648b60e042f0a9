package campaign

import "github.com/google/uuid"

// Graph bundles one campaign's complete subgraph for atomic
// materialization: the store either persists all of it or none of it.
type Graph struct {
	Campaign   Campaign    `json:"campaign"`
	Locations  []Location  `json:"locations,omitempty"`
	NPCs       []NPC       `json:"npcs,omitempty"`
	Scenes     []Scene     `json:"scenes,omitempty"`
	Choices    []Choice    `json:"choices,omitempty"`
	Encounters []Encounter `json:"encounters,omitempty"`
	State      State       `json:"state"`
	Logs       []LogEntry  `json:"logs,omitempty"`
}

// Scene returns the scene with the given id, or nil.
func (g *Graph) Scene(id uuid.UUID) *Scene {
	for i := range g.Scenes {
		if g.Scenes[i].ID == id {
			return &g.Scenes[i]
		}
	}
	return nil
}

// SceneChoices returns the choices originating at the given scene, in
// creation order.
func (g *Graph) SceneChoices(sceneID uuid.UUID) []Choice {
	var out []Choice
	for _, c := range g.Choices {
		if c.SceneID == sceneID {
			out = append(out, c)
		}
	}
	return out
}

// SceneEncounter returns the encounter attached to the given scene, or nil.
func (g *Graph) SceneEncounter(sceneID uuid.UUID) *Encounter {
	for i := range g.Encounters {
		if g.Encounters[i].SceneID == sceneID {
			return &g.Encounters[i]
		}
	}
	return nil
}
