package campaign

import "testing"

func TestParseSceneKind(t *testing.T) {
	cases := map[string]SceneKind{
		"intro":         SceneKindIntro,
		"combat":        SceneKindCombat,
		"investigation": SceneKindInvestigation,
		"final":         SceneKindFinal,
		"social":        SceneKindSocial,
		"":              SceneKindSocial,
		"banquet":       SceneKindSocial,
	}
	for in, want := range cases {
		if got := ParseSceneKind(in); got != want {
			t.Errorf("ParseSceneKind(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseOutcome(t *testing.T) {
	for _, s := range []string{"victory", "draw", "defeat", "retreat"} {
		o, ok := ParseOutcome(s)
		if !ok || string(o) != s {
			t.Errorf("ParseOutcome(%q) = %q, %v", s, o, ok)
		}
	}
	if _, ok := ParseOutcome("stalemate"); ok {
		t.Error("expected unknown outcome to be rejected")
	}
}

func TestEncounterConsequenceText(t *testing.T) {
	e := Encounter{
		VictoryText: "won",
		DefeatText:  "lost",
	}
	if got := e.ConsequenceText(OutcomeVictory); got != "won" {
		t.Errorf("victory text = %q", got)
	}
	if got := e.ConsequenceText(OutcomeDraw); got != "" {
		t.Errorf("expected empty draw text, got %q", got)
	}
}
