package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/efsmcheck/internal/ir"
)

// timeLayout stores timestamps as sortable UTC text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at %q: %w", s, err)
	}
	return t, nil
}

// marshalCanonical renders v as canonical JSON TEXT.
func marshalCanonical(what string, v any) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", what, err)
	}
	return string(data), nil
}

// marshalTrace stores a nil trace as [] so every row parses as an array.
func marshalTrace(trace []string) (string, error) {
	if trace == nil {
		trace = []string{}
	}
	return marshalCanonical("trace", trace)
}

func unmarshalTrace(data string) ([]string, error) {
	trace := []string{}
	if err := json.Unmarshal([]byte(data), &trace); err != nil {
		return nil, fmt.Errorf("unmarshal trace: %w", err)
	}
	return trace, nil
}

func unmarshalVariables(data string) (ir.VariableState, error) {
	var vs ir.VariableState
	if err := json.Unmarshal([]byte(data), &vs); err != nil {
		return nil, fmt.Errorf("unmarshal variables: %w", err)
	}
	return vs, nil
}

func unmarshalLocation(data string) (ir.Location, error) {
	var loc ir.Location
	if err := json.Unmarshal([]byte(data), &loc); err != nil {
		return ir.Location{}, fmt.Errorf("unmarshal location: %w", err)
	}
	return loc, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
