// Package engine implements the campaign core: materializing generated
// campaign descriptions into persistent graphs, advancing a campaign's
// current scene along choice edges, and resolving combat encounters into
// narrative consequences.
package engine

import "errors"

// Sentinel errors of the three engine operations. Callers match them
// with errors.Is; the wrapped message carries the identity involved.
var (
	// ErrGenerationInput marks a description that is malformed beyond
	// recovery (undecodable, or missing its campaign summary). Partial
	// data inside a well-formed description is never an error.
	ErrGenerationInput = errors.New("generated campaign description is malformed")

	// ErrStateNotInitialized marks a campaign that exists without
	// navigation state. Graphs built by this engine always have state;
	// this guards against externally created data.
	ErrStateNotInitialized = errors.New("campaign state not initialized")

	// ErrChoiceNotFound marks a choice ID that is unknown or belongs to
	// a different campaign.
	ErrChoiceNotFound = errors.New("choice not found for this campaign")

	// ErrChoiceNotAvailable marks a choice whose origin scene is not the
	// campaign's current scene.
	ErrChoiceNotAvailable = errors.New("choice does not belong to the current scene")

	// ErrEncounterNotFound marks an unknown encounter ID.
	ErrEncounterNotFound = errors.New("encounter not found")
)
