package compiler

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	cueerrors "cuelang.org/go/cue/errors"
)

// Load error codes (E001-E009)
const (
	ErrCodeRead             = "E001" // file could not be read
	ErrCodeFormat           = "E002" // unsupported document format
	ErrCodeSyntax           = "E003" // document does not parse
	ErrCodeSchema           = "E004" // unknown key or wrong value type
	ErrCodeDuplicateID      = "E005" // duplicate state, transition, event, or field id
	ErrCodeUnknownState     = "E006" // transition references a missing state
	ErrCodeInvalidEventKind = "E007" // event kind outside the closed set
	ErrCodeInvalidVariable  = "E008" // variable missing a name or with a bad initial value
	ErrCodeInvalidGuard     = "E009" // unknown guard type, field, or operator
)

// LoadError is a model document error. Path is the element path within
// the document, e.g. "transitions[2].to". Line is 1-based and zero when
// the format carries no positions.
type LoadError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
	Line    int    `json:"line,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	switch {
	case e.Line > 0 && e.Path != "":
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Path, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("[%s] line %d: %s", e.Code, e.Line, e.Message)
	case e.Path != "":
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
	default:
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err is a *LoadError with the given code. An
// empty code matches any LoadError.
func IsLoadError(err error, code string) bool {
	var le *LoadError
	if !errors.As(err, &le) {
		return false
	}
	return code == "" || le.Code == code
}

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

// yamlSyntaxError extracts the line yaml.v3 embeds in its messages.
func yamlSyntaxError(err error) *LoadError {
	le := &LoadError{Code: ErrCodeSyntax, Message: err.Error(), Err: err}
	if m := yamlLinePattern.FindStringSubmatch(err.Error()); m != nil {
		le.Line, _ = strconv.Atoi(m[1])
	}
	return le
}

// cueSyntaxError extracts position info from CUE errors. CUE may report
// several errors; the first one with a position wins.
func cueSyntaxError(err error) *LoadError {
	le := &LoadError{Code: ErrCodeSyntax, Message: err.Error(), Err: err}
	for _, e := range cueerrors.Errors(err) {
		if positions := cueerrors.Positions(e); len(positions) > 0 {
			le.Message = e.Error()
			le.Line = positions[0].Line()
			break
		}
	}
	return le
}
