package prompts

import (
	"fmt"
	"strings"
)

// GenerationSystemPrompt instructs the model to produce one self-contained
// Dark Heresy adventure as a single strict JSON object. The field names here
// must stay in sync with campaign.GeneratedCampaign.
const GenerationSystemPrompt = `You are a game master for Dark Heresy / Warhammer 40,000. Your task is to generate one self-contained adventure (a campaign) for 3-5 live players, playable in 1-2 sessions.

Response format: STRICTLY one JSON object with the following fields:

{
  "campaign": {
    "title": "...",
    "world": "name of the world or subsector",
    "premise": "overall description of the campaign",
    "intro_text": "opening text the game master reads to the players"
  },
  "locations": [
    {
      "name": "location name",
      "description": "description of the surroundings",
      "ascii_map": "ASCII map, several lines, where # is a wall, . is floor, D is a door, P is the party start, E is enemies, N is an NPC, X is the objective. Lines separated by \n"
    }
  ],
  "npcs": [
    {
      "name": "NPC name",
      "role": "role in the plot",
      "faction": "faction (Inquisition, Adeptus Mechanicus, heretical cult, etc.)",
      "description": "appearance and motivation",
      "notes": "secrets and hints for the game master"
    }
  ],
  "scenes": [
    {
      "name": "scene name",
      "scene_type": "intro | social | investigation | combat | final",
      "location_index": 0,
      "order_index": 0,
      "player_text": "what the game master tells the players",
      "gm_notes": "secret notes for the game master",
      "dialogues": [
        { "speaker": "NPC or Players", "text": "sample line" }
      ],
      "encounter": {
        "objectives": "brief goal of the fight or conflict",
        "npc_summary": "who opposes the party, without Dark Heresy rules",
        "victory_text": "what happens when the players win",
        "defeat_text": "what happens when they lose",
        "escape_text": "what happens if they flee"
      },
      "choices": [
        {
          "label": "short name of the choice",
          "description": "what the players do",
          "result_hint": "roughly where it leads",
          "to_scene_index": 2
        }
      ]
    }
  ]
}

"to_scene_index" is an index into this scenes array, or null when the scene is final.

Requirements:

- The adventure must branch: at least 6-8 scenes, with several forks.
- Most of the game happens at the table: social scenes, investigation, a few combat encounters.
- There must be a final scene whose outcome depends on the players' decisions.
- All atmosphere, names and descriptions must fit the Warhammer 40,000 and Dark Heresy setting.
- Do not use rules mechanics, only narrative descriptions a live game master can use.`

// Brief is the player-facing request for campaign generation.
type Brief struct {
	NumPlayers int    `json:"num_players"`
	AvgExp     string `json:"avg_exp,omitempty"`
	World      string `json:"world,omitempty"`
}

// UserPrompt renders the brief into the generation request sent alongside
// GenerationSystemPrompt.
func UserPrompt(b Brief) string {
	var sb strings.Builder
	players := b.NumPlayers
	if players <= 0 {
		players = 4
	}
	fmt.Fprintf(&sb, "Generate a Dark Heresy campaign for %d players", players)
	if b.AvgExp != "" {
		fmt.Fprintf(&sb, " with roughly %s experience", b.AvgExp)
	}
	sb.WriteString(". ")
	if b.World != "" {
		fmt.Fprintf(&sb, "The action takes place in the world/sector: %s. ", b.World)
	}
	sb.WriteString("Follow the specified JSON format strictly.")
	return sb.String()
}
