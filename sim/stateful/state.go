// Package stateful defines how simulation objects expose their state so that
// it can be saved after a run and restored before the next one.
package stateful

// A Decoder fills target with one entry of a saved state document.
type Decoder func(target any) error

// A State is a named piece of simulation state that can be saved and restored.
type State interface {
	// Name identifies the state within a saved document.
	Name() string

	// SaveState returns a value that a Codec can encode.
	SaveState() any

	// LoadState restores the state from a saved entry. Loading must not
	// trigger any event.
	LoadState(decode Decoder) error
}
