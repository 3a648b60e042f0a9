package campaign

import "strings"

// SceneKind classifies a scene within a campaign. The set is closed:
// values coming from generated content are parsed with ParseSceneKind,
// which falls back to SceneKindSocial for anything unrecognized.
type SceneKind string

const (
	SceneKindIntro         SceneKind = "intro"
	SceneKindSocial        SceneKind = "social"
	SceneKindInvestigation SceneKind = "investigation"
	SceneKindCombat        SceneKind = "combat"
	SceneKindFinal         SceneKind = "final" // terminal
)

// ParseSceneKind normalizes a raw scene kind string. Unknown values
// degrade to SceneKindSocial rather than failing, because the value
// originates from generated content.
func ParseSceneKind(s string) SceneKind {
	switch SceneKind(strings.ToLower(strings.TrimSpace(s))) {
	case SceneKindIntro:
		return SceneKindIntro
	case SceneKindSocial:
		return SceneKindSocial
	case SceneKindInvestigation:
		return SceneKindInvestigation
	case SceneKindCombat:
		return SceneKindCombat
	case SceneKindFinal:
		return SceneKindFinal
	default:
		return SceneKindSocial
	}
}

// LogKind classifies an audit log entry.
type LogKind string

const (
	LogKindInfo      LogKind = "info"
	LogKindChoice    LogKind = "choice"
	LogKindCheck     LogKind = "check"
	LogKindEncounter LogKind = "encounter"
	LogKindSystem    LogKind = "system"
)

// ParseLogKind normalizes a raw log kind string, falling back to
// LogKindInfo for unknown values.
func ParseLogKind(s string) LogKind {
	switch LogKind(strings.ToLower(strings.TrimSpace(s))) {
	case LogKindInfo, LogKindChoice, LogKindCheck, LogKindEncounter, LogKindSystem:
		return LogKind(strings.ToLower(strings.TrimSpace(s)))
	default:
		return LogKindInfo
	}
}

// Outcome is the result tag of a resolved encounter.
type Outcome string

const (
	OutcomeVictory Outcome = "victory"
	OutcomeDraw    Outcome = "draw"
	OutcomeDefeat  Outcome = "defeat"
	OutcomeRetreat Outcome = "retreat"
)

// ParseOutcome validates an outcome tag supplied by a caller. Unlike the
// kind parsers there is no fallback: an encounter outcome is caller input,
// not generated content, so an unknown tag is rejected.
func ParseOutcome(s string) (Outcome, bool) {
	switch Outcome(strings.ToLower(strings.TrimSpace(s))) {
	case OutcomeVictory:
		return OutcomeVictory, true
	case OutcomeDraw:
		return OutcomeDraw, true
	case OutcomeDefeat:
		return OutcomeDefeat, true
	case OutcomeRetreat:
		return OutcomeRetreat, true
	default:
		return "", false
	}
}

// EncounterStatus is the lifecycle state of an encounter.
// pending is initial, resolved is terminal.
type EncounterStatus string

const (
	EncounterPending  EncounterStatus = "pending"
	EncounterResolved EncounterStatus = "resolved"
)

// NPCStatus tracks whether an NPC is still in play.
type NPCStatus string

const (
	NPCAlive   NPCStatus = "alive"
	NPCDead    NPCStatus = "dead" // terminal
	NPCMissing NPCStatus = "missing"
)

// ParseNPCStatus normalizes a raw NPC status, falling back to NPCAlive.
func ParseNPCStatus(s string) NPCStatus {
	switch NPCStatus(strings.ToLower(strings.TrimSpace(s))) {
	case NPCAlive, NPCDead, NPCMissing:
		return NPCStatus(strings.ToLower(strings.TrimSpace(s)))
	default:
		return NPCAlive
	}
}
