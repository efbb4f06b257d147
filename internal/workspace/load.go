package workspace

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Format is a document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCUE  Format = "cue"
)

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", fmt.Errorf("unsupported workspace extension %q (want .yaml, .yml, .json or .cue)", filepath.Ext(path))
	}
}

// LoadError is a document decoding or validation failure.
type LoadError struct {
	Path    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Load reads and decodes the document at path.
func Load(path string) (*Document, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	doc, err := Parse(data, format, path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Parse decodes a document. name is used in error messages only.
func Parse(data []byte, format Format, name string) (*Document, error) {
	var (
		doc *Document
		err error
	)
	switch format {
	case FormatYAML:
		doc, err = parseYAML(data)
	case FormatJSON:
		doc, err = parseJSON(data)
	case FormatCUE:
		doc, err = parseCUE(data, name)
	default:
		return nil, fmt.Errorf("unsupported workspace format %q", format)
	}
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			if le.Path == "" {
				le.Path = name
			}
			return nil, le
		}
		return nil, &LoadError{Path: name, Message: err.Error()}
	}
	if err := validate(doc); err != nil {
		return nil, &LoadError{Path: name, Message: err.Error()}
	}
	return doc, nil
}

func parseYAML(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &doc, nil
}

func parseJSON(data []byte) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &doc, nil
}

func parseCUE(data []byte, name string) (*Document, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile workspace schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Workspace"))

	v := ctx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, cueError(err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(err)
	}

	var doc Document
	if err := unified.Decode(&doc); err != nil {
		return nil, cueError(err)
	}
	return &doc, nil
}

// cueError keeps the position of the first CUE error.
func cueError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	le := &LoadError{Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

// validate checks structural rules the decoders cannot.
func validate(doc *Document) error {
	seen := make(map[string]bool, len(doc.Blocks))
	for i, b := range doc.Blocks {
		if b.ID == "" {
			return fmt.Errorf("blocks[%d]: id is required", i)
		}
		if seen[b.ID] {
			return fmt.Errorf("blocks[%d]: duplicate block id %q", i, b.ID)
		}
		seen[b.ID] = true
	}
	for i, v := range doc.Variables {
		if v.ID == "" {
			return fmt.Errorf("variables[%d]: id is required", i)
		}
	}
	return nil
}

// Save writes doc to path as YAML or JSON, by extension. CUE is read-only.
func Save(path string, doc *Document) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	var data []byte
	switch format {
	case FormatYAML:
		data, err = MarshalYAML(doc)
	case FormatJSON:
		data, err = json.MarshalIndent(doc, "", "  ")
	default:
		return fmt.Errorf("cannot save workspace as %s", format)
	}
	if err != nil {
		return fmt.Errorf("encode workspace: %w", err)
	}
	if format == FormatJSON {
		data = append(data, '\n')
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write workspace: %w", err)
	}
	return nil
}

// MarshalYAML encodes doc as YAML with two-space indentation.
func MarshalYAML(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
