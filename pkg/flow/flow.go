// Package flow loads wizard definitions from YAML or JSON files.
//
// A flow file lists the steps in order:
//
//	name: home-loan
//	steps:
//	  - id: auth
//	    kind: auth
//	    title: Verify your number
//	  - id: property_type
//	    kind: choice
//	    title: Property type
//	    options: [flat, villa]   # shorthand: value doubles as label
//
// Documents are decoded into a generic map first and then into typed
// definitions, so unknown keys are reported instead of silently ignored.
package flow

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/sequencer"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultFlow []byte

// Definition is a parsed flow file.
type Definition struct {
	Name        string        `json:"name" yaml:"name" mapstructure:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Steps       []domain.Step `json:"steps" yaml:"steps" mapstructure:"steps"`
}

// Sequencer validates the steps and returns a sequencer over them.
func (d *Definition) Sequencer() (*sequencer.Sequencer, error) {
	seq, err := sequencer.New(d.Steps)
	if err != nil {
		return nil, fmt.Errorf("flow %q: %w", d.Name, err)
	}
	return seq, nil
}

// Default returns the built-in home loan flow.
func Default() *Definition {
	def, err := Parse(defaultFlow)
	if err != nil {
		panic(fmt.Sprintf("flow: embedded default flow is invalid: %v", err))
	}
	return def
}

// DefaultSource returns the YAML source of the built-in flow.
func DefaultSource() []byte {
	return append([]byte(nil), defaultFlow...)
}

// LoadFile reads a flow from a .yaml, .yml or .json file.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		return decode(raw)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return def, nil
}

// Parse decodes a YAML flow document and validates its steps.
func Parse(data []byte) (*Definition, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse flow: %w", err)
	}
	return decode(raw)
}

func decode(raw map[string]any) (*Definition, error) {
	if raw == nil {
		return nil, fmt.Errorf("failed to parse flow: empty document")
	}

	var def Definition
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &def,
		TagName:     "mapstructure",
		ErrorUnused: true,
		DecodeHook:  optionShorthandHook,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode flow: %w", err)
	}

	if _, err := def.Sequencer(); err != nil {
		return nil, err
	}
	return &def, nil
}

var optionType = reflect.TypeOf(domain.Option{})

// optionShorthandHook accepts a bare string where an option is expected.
func optionShorthandHook(from, to reflect.Type, data any) (any, error) {
	if to != optionType || from.Kind() != reflect.String {
		return data, nil
	}
	s := data.(string)
	return domain.Option{Value: s, Label: s}, nil
}
