package services

import (
	"context"

	"github.com/jwebster45206/campaign-engine/pkg/campaign"
	"github.com/jwebster45206/campaign-engine/pkg/prompts"
)

// MockGeneratorService is a deterministic GeneratorService for tests and
// local development without a model backend.
type MockGeneratorService struct {
	// Generated overrides the canned description when set.
	Generated *campaign.GeneratedCampaign
	// Err is returned from GenerateCampaign when set.
	Err error
	// LastBrief records the most recent generation request.
	LastBrief prompts.Brief
}

var _ GeneratorService = (*MockGeneratorService)(nil)

func NewMockGeneratorService() *MockGeneratorService {
	return &MockGeneratorService{}
}

func (m *MockGeneratorService) InitModel(ctx context.Context, modelName string) error {
	return nil
}

func (m *MockGeneratorService) IsModelReady(ctx context.Context, modelName string) (bool, error) {
	return true, nil
}

func (m *MockGeneratorService) GenerateCampaign(ctx context.Context, brief prompts.Brief) (*campaign.GeneratedCampaign, error) {
	m.LastBrief = brief
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Generated != nil {
		return m.Generated, nil
	}
	return cannedCampaign(), nil
}

func intPtr(i int) *int { return &i }

// cannedCampaign is a small branching adventure used when no description is
// injected. It exercises every description field the builder reads.
func cannedCampaign() *campaign.GeneratedCampaign {
	return &campaign.GeneratedCampaign{
		Campaign: &campaign.GeneratedSummary{
			Title:     "The Widow of Hive Tarsus",
			World:     "Tarsus, Calixis Sector",
			Premise:   "A rejuvenat clinic in the underhive is harvesting more than tithes.",
			IntroText: "The summons arrives on vellum sealed with the Inquisitorial rosette.",
		},
		Locations: []campaign.GeneratedLocation{
			{
				Name:        "Clinic Apsis",
				Description: "Whitewashed walls over rusting rockcrete, reeking of counterseptic.",
				ASCIIMap:    "#####\n#P..D\n#..N#\n##X##",
			},
			{
				Name:        "Effluent Vaults",
				Description: "Drainage galleries below the clinic, knee-deep in runoff.",
			},
		},
		NPCs: []campaign.GeneratedNPC{
			{
				Name:        "Magos Veyra Thall",
				Role:        "Clinic patron",
				Faction:     "Adeptus Mechanicus",
				Description: "Brass-throated, unfailingly courteous.",
				Notes:       "Knows the clinic's donors never leave whole.",
			},
			{
				Name:    "Brother Cask",
				Role:    "Orderly",
				Faction: "Heretical cult",
			},
		},
		Scenes: []campaign.GeneratedScene{
			{
				Name:          "Arrival",
				SceneKind:     "intro",
				LocationIndex: intPtr(0),
				OrderIndex:    intPtr(0),
				PlayerText:    "The clinic doors part with a hiss of sterilized air.",
				GMNotes:       "Thall greets the acolytes personally.",
				Dialogues: []campaign.DialogueLine{
					{Speaker: "Magos Veyra Thall", Text: "Welcome. Few visitors arrive so well armed."},
				},
				Choices: []campaign.GeneratedChoice{
					{Label: "Question the Magos", ToSceneIndex: intPtr(1)},
					{Label: "Slip into the vaults", ToSceneIndex: intPtr(2)},
				},
			},
			{
				Name:          "The Patron's Parlor",
				SceneKind:     "social",
				LocationIndex: intPtr(0),
				OrderIndex:    intPtr(1),
				PlayerText:    "Thall receives you beneath a fresco of the Omnissiah.",
				Choices: []campaign.GeneratedChoice{
					{Label: "Press for the donor ledgers", ToSceneIndex: intPtr(2)},
				},
			},
			{
				Name:          "What Waits Below",
				SceneKind:     "combat",
				LocationIndex: intPtr(1),
				OrderIndex:    intPtr(2),
				PlayerText:    "Something pale moves against the current.",
				Encounter: &campaign.GeneratedEncounter{
					Objectives:  "Survive the vault and find the harvest caches.",
					NPCSummary:  "Brother Cask and two augmented orderlies.",
					VictoryText: "Cask's rebreather floods; the caches lie open.",
					DefeatText:  "The current takes the fallen toward the grinders.",
					RetreatText: "You surface in an access shaft, marked now as intruders.",
				},
				Choices: []campaign.GeneratedChoice{
					{Label: "End it", Description: "Confront Thall with the evidence", ToSceneIndex: intPtr(3)},
				},
			},
			{
				Name:       "Judgment",
				SceneKind:  "final",
				OrderIndex: intPtr(3),
				PlayerText: "The Magos does not run. She merely asks who sent you.",
				Choices: []campaign.GeneratedChoice{
					{Label: "Pronounce sentence"},
				},
			},
		},
	}
}
