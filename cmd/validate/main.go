// Command validate builds a generated campaign description from a JSON
// file the way the API would and reports what came out of it. Useful for
// checking model output by hand before pointing a provider at the engine.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/jwebster45206/campaign-engine/pkg/campaign"
	"github.com/jwebster45206/campaign-engine/pkg/engine"
	"github.com/jwebster45206/campaign-engine/pkg/storage"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <campaign.json>\n", os.Args[0])
		os.Exit(1)
	}

	if err := run(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}
}

func run(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var desc campaign.GeneratedCampaign
	if err := json.Unmarshal(data, &desc); err != nil {
		return fmt.Errorf("file %s is not a campaign description: %w", filename, err)
	}

	store := storage.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	id, err := engine.NewBuilder(store, logger).Build(context.Background(), &desc)
	if err != nil {
		return err
	}

	g, err := store.GetGraph(context.Background(), id)
	if err != nil || g == nil {
		return fmt.Errorf("failed to read built campaign: %w", err)
	}

	fmt.Printf("Campaign %q builds cleanly.\n", g.Campaign.Title)
	fmt.Printf("  Locations:  %d\n", len(g.Locations))
	fmt.Printf("  NPCs:       %d\n", len(g.NPCs))
	fmt.Printf("  Scenes:     %d\n", len(g.Scenes))
	fmt.Printf("  Choices:    %d\n", len(g.Choices))
	fmt.Printf("  Encounters: %d\n", len(g.Encounters))

	for _, w := range warnings(g) {
		fmt.Printf("  warning: %s\n", w)
	}
	return nil
}

// warnings flags graph shapes that build fine but usually mean the
// model output needs a second look.
func warnings(g *campaign.Graph) []string {
	var out []string

	reachable := make(map[uuid.UUID]bool)
	for _, c := range g.Choices {
		if c.TargetID != uuid.Nil {
			reachable[c.TargetID] = true
		} else {
			out = append(out, fmt.Sprintf("choice %q is a dead end", c.Label))
		}
	}

	for i := range g.Scenes {
		s := &g.Scenes[i]
		if s.Kind != campaign.SceneKindIntro && !reachable[s.ID] {
			out = append(out, fmt.Sprintf("scene %q is unreachable", s.Name))
		}
		hasChoices := false
		for _, c := range g.Choices {
			if c.SceneID == s.ID {
				hasChoices = true
				break
			}
		}
		if !hasChoices && s.Kind != campaign.SceneKindFinal {
			out = append(out, fmt.Sprintf("non-final scene %q has no choices", s.Name))
		}
		if s.PlayerText == "" {
			out = append(out, fmt.Sprintf("scene %q has no player text", s.Name))
		}
	}

	if g.Campaign.IntroText == "" {
		out = append(out, "campaign has no intro text")
	}
	return out
}
