package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/efsmcheck/internal/engine"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("boom"), ExitFailure},
		{"exit error", NewExitError(ExitCommandError, "bad"), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("outer: %w", NewExitError(ExitFailure, "findings")), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitError(t *testing.T) {
	inner := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "recording run", inner)
	assert.Equal(t, "recording run: disk full", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "bad", NewExitError(ExitFailure, "bad").Error())
}

func TestOutputFormatter_Error(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: FormatText, Writer: &buf, Verbose: true}
	require.NoError(t, f.Error("E006", "unknown state", "transitions[0].to"))
	assert.Equal(t, "Error [E006]: unknown state\nDetails: transitions[0].to\n", buf.String())

	buf.Reset()
	f.Format = FormatJSON
	require.NoError(t, f.Error("E006", "unknown state", nil))
	resp := decodeResponse(t, buf.String())
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, &CLIError{Code: "E006", Message: "unknown state"}, resp.Error)
}

func TestOutputFormatter_Emit(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: FormatText, Writer: &buf}
	require.NoError(t, f.Emit(map[string]int{"n": 1}, func(w io.Writer) error {
		_, err := io.WriteString(w, "text\n")
		return err
	}))
	assert.Equal(t, "text\n", buf.String())

	buf.Reset()
	f.Format = FormatJSON
	require.NoError(t, f.Success(map[string]int{"n": 1}))
	assert.JSONEq(t, `{"status":"ok","data":{"n":1}}`, buf.String())
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: FormatJSON, Writer: &out, ErrWriter: &errOut}
	f.VerboseLog("hidden")
	assert.Empty(t, errOut.String())

	f.Verbose = true
	f.VerboseLog("loaded %d", 3)
	assert.Equal(t, "loaded 3\n", errOut.String())
	assert.Empty(t, out.String())
}

func TestLimitFlags_Apply(t *testing.T) {
	base := engine.Limits{MaxDepth: 100, MaxNodes: 1000, Timeout: time.Minute}
	assert.Equal(t, base, LimitFlags{}.apply(base))
	assert.Equal(t,
		engine.Limits{MaxDepth: 5, MaxNodes: 1000, Timeout: time.Second},
		LimitFlags{MaxDepth: 5, Timeout: time.Second}.apply(base))
}
