package compiler

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// document is the typed schema shared by every input format.
type document struct {
	Name        string          `mapstructure:"name"`
	Description string          `mapstructure:"description"`
	States      []stateDoc      `mapstructure:"states"`
	Events      []eventDoc      `mapstructure:"events"`
	Variables   []variableDoc   `mapstructure:"variables"`
	Fields      []fieldDoc      `mapstructure:"fields"`
	Transitions []transitionDoc `mapstructure:"transitions"`
}

type stateDoc struct {
	ID       string            `mapstructure:"id"`
	Label    string            `mapstructure:"label"`
	Initial  bool              `mapstructure:"initial"`
	Final    bool              `mapstructure:"final"`
	Metadata map[string]string `mapstructure:"metadata"`
}

type eventDoc struct {
	Name string `mapstructure:"name"`
	Kind string `mapstructure:"kind"`
}

type variableDoc struct {
	Name    string   `mapstructure:"name"`
	Type    string   `mapstructure:"type"`
	Min     *int64   `mapstructure:"min"`
	Max     *int64   `mapstructure:"max"`
	Values  []string `mapstructure:"values"`
	Initial any      `mapstructure:"initial"`
}

type fieldDoc struct {
	ID      string           `mapstructure:"id"`
	Name    string           `mapstructure:"name"`
	Options []fieldOptionDoc `mapstructure:"options"`
}

type fieldOptionDoc struct {
	Name  string `mapstructure:"name"`
	Value int64  `mapstructure:"value"`
}

type transitionDoc struct {
	ID     string   `mapstructure:"id"`
	From   string   `mapstructure:"from"`
	To     string   `mapstructure:"to"`
	Event  string   `mapstructure:"event"`
	Guard  guardDoc `mapstructure:"guard"`
	Action string   `mapstructure:"action"`
}

type guardDoc struct {
	Type       string         `mapstructure:"type"`
	Expression string         `mapstructure:"expression"`
	Conditions []conditionDoc `mapstructure:"conditions"`
}

type conditionDoc struct {
	FieldID  string `mapstructure:"field_id"`
	Operator string `mapstructure:"operator"`
	Value    *int64 `mapstructure:"value"`
	Option   string `mapstructure:"option"`
}

var (
	guardDocType = reflect.TypeOf(guardDoc{})
	int64Type    = reflect.TypeOf(int64(0))
)

// guardShorthandHook lets a guard be written as a bare expression string.
func guardShorthandHook(from, to reflect.Type, data any) (any, error) {
	if to != guardDocType {
		return data, nil
	}
	if s, ok := data.(string); ok {
		return map[string]any{"type": "manual", "expression": s}, nil
	}
	return data, nil
}

// integerHook rejects fractional numbers bound for int64 fields, which
// mapstructure would otherwise truncate.
func integerHook(from, to reflect.Type, data any) (any, error) {
	if to != int64Type {
		return data, nil
	}
	switch n := data.(type) {
	case float64:
		if n != math.Trunc(n) {
			return nil, fmt.Errorf("expected an integer, got %v", n)
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("expected an integer, got %s", n)
		}
		return i, nil
	}
	return data, nil
}

// decodeDocument decodes a generic map into the document schema. Unknown
// keys are errors.
func decodeDocument(raw map[string]any) (*document, error) {
	var doc document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &doc,
		ErrorUnused: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			guardShorthandHook,
			integerHook,
		),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, err
	}
	return &doc, nil
}
