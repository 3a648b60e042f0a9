package display

import "testing"

func TestLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"victory", "Victory"},
		{"npc_dead", "NPC Dead"},
		{"log.appended", "Log Appended"},
		{"campaign.updated", "Campaign Updated"},
		{"gm_notes", "GM Notes"},
		{"INVESTIGATION", "Investigation"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Label(tt.in); got != tt.want {
			t.Errorf("Label(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
