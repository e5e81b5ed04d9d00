package codec

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// JSONCodec reads and writes model documents as JSON
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec { return &JSONCodec{} }

// Format returns "json"
func (c *JSONCodec) Format() string { return "json" }

// Parse decodes a model document. Unknown keys are ignored so documents exported
// by modelling tools with extra metadata still load.
func (c *JSONCodec) Parse(r io.Reader) (*ModelDocument, error) {
	doc := &ModelDocument{}
	if err := json.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse JSON model")
	}
	return doc, nil
}

// Export writes doc as indented JSON
func (c *JSONCodec) Export(doc *ModelDocument, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(doc), "failed to encode JSON model")
}

// YAMLCodec reads and writes model documents as YAML
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec { return &YAMLCodec{} }

// Format returns "yaml"
func (c *YAMLCodec) Format() string { return "yaml" }

// Parse decodes a model document. An empty stream is an empty document.
func (c *YAMLCodec) Parse(r io.Reader) (*ModelDocument, error) {
	doc := &ModelDocument{}
	if err := yaml.NewDecoder(r).Decode(doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to parse YAML model")
	}
	return doc, nil
}

// Export writes doc as YAML with two-space indentation
func (c *YAMLCodec) Export(doc *ModelDocument, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "failed to encode YAML model")
	}
	return enc.Close()
}
