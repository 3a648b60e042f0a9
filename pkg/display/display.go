// Package display renders internal identifiers as human-readable labels
// for the console and log views.
package display

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Words rendered in full caps instead of title case.
var capWords = map[string]string{
	"npc": "NPC",
	"gm":  "GM",
	"id":  "ID",
	"hp":  "HP",
}

var titler = cases.Title(language.English)

// Label turns an identifier like "npc_dead", "log.appended" or "victory"
// into a display label ("NPC Dead", "Log Appended", "Victory"). Dots,
// underscores and hyphens all act as word separators.
func Label(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == ' '
	})
	for i, w := range words {
		if capped, ok := capWords[strings.ToLower(w)]; ok {
			words[i] = capped
			continue
		}
		words[i] = titler.String(strings.ToLower(w))
	}
	return strings.Join(words, " ")
}
