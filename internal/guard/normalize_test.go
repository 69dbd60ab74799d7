package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSource(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"x > 1", "x > 1"},
		{"c-1", "c - 1"},
		{"mode == 'OPEN'", `mode == "OPEN"`},
		{`mode == "a-b"`, `mode == "a-b"`},
		{"mode == 'a-b'", `mode == "a-b"`},
		{`s == 'say "hi"'`, `s == "say \"hi\""`},
		{`s == 'it\'s'`, `s == "it's"`},
		{"x > 1e-3", "x > 1e-3"},
		{"e-3", "e - 3"},
		{"x1e-3", "x1e - 3"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeSource(tt.in))
		})
	}
}
