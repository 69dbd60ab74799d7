package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/efsmcheck/internal/ids"
)

var _ ids.Generator = (*FixedRunID)(nil)

func TestFixedRunID(t *testing.T) {
	gen := NewFixedRunID("run-a")
	assert.Equal(t, "run-a", gen.Generate())
	assert.Equal(t, "run-a", gen.Generate())
}

func TestFixedRunID_EmptyDefault(t *testing.T) {
	assert.Equal(t, DefaultRunID, NewFixedRunID("").Generate())
}
