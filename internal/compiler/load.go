package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/efsmcheck/internal/ir"
)

// Format is a model document format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCUE  Format = "cue"
)

// cueModelPath is the field of a CUE instance holding the model. A CUE
// file without it is decoded from its root.
const cueModelPath = "model"

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", &LoadError{
			Code:    ErrCodeFormat,
			Message: fmt.Sprintf("unsupported model format %q (want .yaml, .yml, .json, or .cue)", filepath.Ext(path)),
		}
	}
}

// Load reads and compiles the model document at path. The model name
// defaults to the file name without its extension.
func Load(path string) (*ir.Model, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Message: fmt.Sprintf("reading model: %v", err), Err: err}
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(data, format, name)
}

// Parse compiles a model document held in memory. defaultName is used when
// the document has no name.
func Parse(data []byte, format Format, defaultName string) (*ir.Model, error) {
	var (
		raw   map[string]any
		lines lineIndex
		err   error
	)
	switch format {
	case FormatYAML:
		raw, lines, err = parseYAML(data)
	case FormatJSON:
		raw, err = parseJSON(data)
	case FormatCUE:
		raw, err = parseCUE(data, defaultName+".cue")
	default:
		return nil, &LoadError{Code: ErrCodeFormat, Message: fmt.Sprintf("unsupported model format %q", format)}
	}
	if err != nil {
		return nil, err
	}

	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeSchema, Message: err.Error(), Err: err}
	}
	if doc.Name == "" {
		doc.Name = defaultName
	}
	return compile(doc, lines)
}

func parseYAML(data []byte) (map[string]any, lineIndex, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, nil, yamlSyntaxError(err)
	}
	raw := map[string]any{}
	if len(root.Content) == 0 {
		return raw, lineIndex{}, nil
	}
	if err := root.Decode(&raw); err != nil {
		return nil, nil, yamlSyntaxError(err)
	}
	return raw, indexLines(root.Content[0]), nil
}

func parseJSON(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, &LoadError{Code: ErrCodeSyntax, Message: fmt.Sprintf("invalid JSON: %v", err), Err: err}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// parseCUE evaluates the source and exports the model value as JSON, so
// CUE numbers reach the decoder in the same shape as JSON ones.
func parseCUE(data []byte, filename string) (map[string]any, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, cueSyntaxError(err)
	}
	if m := v.LookupPath(cue.ParsePath(cueModelPath)); m.Exists() {
		v = m
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueSyntaxError(err)
	}
	exported, err := v.MarshalJSON()
	if err != nil {
		return nil, cueSyntaxError(err)
	}
	return parseJSON(exported)
}
