// Package simulation bundles a scheduler with the named states of a model so
// that the model can be inspected, saved and restored as a whole.
package simulation

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/sarchlab/vsim/sim"
	"github.com/sarchlab/vsim/sim/stateful"
)

// A Simulation provides the services required to define a simulation.
type Simulation struct {
	scheduler *sim.Scheduler
	codec     stateful.Codec
	states    map[string]stateful.State
}

// NewSimulation creates a simulation driven by s. States are encoded in YAML
// unless another codec is set.
func NewSimulation(s *sim.Scheduler) *Simulation {
	return &Simulation{
		scheduler: s,
		codec:     stateful.YAMLCodec{},
		states:    make(map[string]stateful.State),
	}
}

// WithCodec sets the codec used by Save and Load.
func (s *Simulation) WithCodec(c stateful.Codec) *Simulation {
	s.codec = c
	return s
}

// Scheduler returns the scheduler driving the simulation.
func (s *Simulation) Scheduler() *sim.Scheduler {
	return s.scheduler
}

// RegisterState adds a state to the simulation. Names must be unique.
func (s *Simulation) RegisterState(st stateful.State) {
	name := st.Name()
	if name == "" {
		panic("state must be named before registration")
	}

	if _, ok := s.states[name]; ok {
		panic("state " + name + " already registered")
	}

	s.states[name] = st
}

// GetStateByName returns the state with the given name, or nil.
func (s *Simulation) GetStateByName(name string) stateful.State {
	return s.states[name]
}

// StateNames returns the names of all registered states, sorted.
func (s *Simulation) StateNames() []string {
	names := make([]string, 0, len(s.states))
	for name := range s.states {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Snapshot returns the saved value of every state.
func (s *Simulation) Snapshot() map[string]any {
	data := make(map[string]any, len(s.states))
	for name, st := range s.states {
		data[name] = st.SaveState()
	}

	return data
}

// Save writes the value of every state.
func (s *Simulation) Save(w io.Writer) error {
	return s.codec.Encode(w, s.Snapshot())
}

// Load restores the states found in r. States absent from r keep their
// value. An entry that matches no registered state is an error. Loading is
// all or nothing: if one entry fails to load, every state keeps the value it
// had before the call.
func (s *Simulation) Load(r io.Reader) error {
	decoders, err := s.codec.Decode(r)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(decoders))
	for name := range decoders {
		if _, ok := s.states[name]; !ok {
			return errors.Errorf("unknown state %q", name)
		}

		names = append(names, name)
	}

	sort.Strings(names)

	backup, err := s.backup(names)
	if err != nil {
		return err
	}

	for i, name := range names {
		if err := s.states[name].LoadState(decoders[name]); err != nil {
			s.restore(names[:i], backup)
			return errors.Wrapf(err, "load state %q", name)
		}
	}

	return nil
}

// backup encodes the current value of the named states.
func (s *Simulation) backup(names []string) (map[string]stateful.Decoder, error) {
	data := make(map[string]any, len(names))
	for _, name := range names {
		data[name] = s.states[name].SaveState()
	}

	buf := new(bytes.Buffer)
	if err := s.codec.Encode(buf, data); err != nil {
		return nil, errors.Wrap(err, "back up states")
	}

	return s.codec.Decode(buf)
}

func (s *Simulation) restore(names []string, backup map[string]stateful.Decoder) {
	for _, name := range names {
		if err := s.states[name].LoadState(backup[name]); err != nil {
			panic(errors.Wrapf(err, "restore state %q", name))
		}
	}
}

// SaveFile saves the states into filename. A .json extension selects JSON;
// anything else is written as YAML.
func (s *Simulation) SaveFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.WithStack(err)
	}
	defer file.Close()

	if err := s.withFileCodec(filename).Save(file); err != nil {
		return errors.Wrapf(err, "save %s", filename)
	}

	return file.Close()
}

// LoadFile restores the states from filename.
func (s *Simulation) LoadFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.WithStack(err)
	}
	defer file.Close()

	return errors.Wrapf(s.withFileCodec(filename).Load(file), "load %s", filename)
}

func (s *Simulation) withFileCodec(filename string) *Simulation {
	var codec stateful.Codec = stateful.YAMLCodec{}
	if filepath.Ext(filename) == ".json" {
		codec = stateful.JSONCodec{}
	}

	clone := *s
	clone.codec = codec

	return &clone
}
