package stateful

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Codec determines how states are encoded.
type Codec interface {
	Encode(w io.Writer, data map[string]any) error
	Decode(r io.Reader) (map[string]Decoder, error)
}

// YAMLCodec stores states as a YAML mapping from state name to value.
type YAMLCodec struct{}

// Encode writes the data map as YAML.
func (c YAMLCodec) Encode(w io.Writer, data map[string]any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(data); err != nil {
		return errors.Wrap(err, "encode yaml state")
	}

	return encoder.Close()
}

// Decode reads a YAML mapping and returns a decoder per entry.
func (c YAMLCodec) Decode(r io.Reader) (map[string]Decoder, error) {
	var nodes map[string]yaml.Node

	if err := yaml.NewDecoder(r).Decode(&nodes); err != nil {
		return nil, errors.Wrap(err, "decode yaml state")
	}

	decoders := make(map[string]Decoder, len(nodes))

	for name, node := range nodes {
		n := node
		decoders[name] = n.Decode
	}

	return decoders, nil
}

// JSONCodec stores states as a JSON object from state name to value.
type JSONCodec struct{}

// Encode writes the data map as JSON to the provided writer.
func (c JSONCodec) Encode(w io.Writer, data map[string]any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return errors.Wrap(encoder.Encode(data), "encode json state")
}

// Decode reads a JSON object and returns a decoder per entry.
func (c JSONCodec) Decode(r io.Reader) (map[string]Decoder, error) {
	var raws map[string]json.RawMessage

	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, errors.Wrap(err, "decode json state")
	}

	decoders := make(map[string]Decoder, len(raws))

	for name, raw := range raws {
		msg := raw
		decoders[name] = func(target any) error {
			return json.Unmarshal(msg, target)
		}
	}

	return decoders, nil
}
