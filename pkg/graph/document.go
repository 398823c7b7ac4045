package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/hierbundle/pkg/core/bundle"
)

// Document input formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// DefaultDelimiter separates identifier segments when a document names none.
const DefaultDelimiter = "."

var (
	// ErrEmptyDocument is returned for documents without any records.
	ErrEmptyDocument = errors.New("document has no nodes")
	// ErrInvalidDocument wraps every decoding failure.
	ErrInvalidDocument = errors.New("invalid document")
)

// Document is hierarchical, relational input: one record per leaf (or per
// group, when records nest) plus optional explicit edges.
type Document struct {
	Delimiter string       `json:"delimiter,omitempty" mapstructure:"delimiter"`
	Nodes     []Record     `json:"nodes" mapstructure:"nodes"`
	Edges     []EdgeRecord `json:"edges,omitempty" mapstructure:"edges"`
}

// Record describes one node. A record with children is a group and its name
// is a prefix of its children's identifiers; otherwise it is a leaf.
type Record struct {
	Name     string   `json:"name" mapstructure:"name"`
	Size     float64  `json:"size,omitempty" mapstructure:"size"`
	Imports  []string `json:"imports,omitempty" mapstructure:"imports"`
	Children []Record `json:"children,omitempty" mapstructure:"children"`
}

// EdgeRecord is an explicit relation between two leaves.
type EdgeRecord struct {
	From     string  `json:"from" mapstructure:"from"`
	To       string  `json:"to" mapstructure:"to"`
	Weight   float64 `json:"weight,omitempty" mapstructure:"weight"`
	Directed bool    `json:"directed,omitempty" mapstructure:"directed"`
}

// DelimiterOr returns the document's delimiter, or fallback when unset.
func (d Document) DelimiterOr(fallback string) string {
	if d.Delimiter != "" {
		return d.Delimiter
	}
	if fallback != "" {
		return fallback
	}
	return DefaultDelimiter
}

// Identifiers returns the full identifier of every leaf record in document
// order. Duplicates are kept so that hierarchy construction can report them.
func (d Document) Identifiers(delimiter string) []string {
	var out []string
	walkRecords(d.Nodes, "", delimiter, func(id string, r Record) {
		if len(r.Children) == 0 {
			out = append(out, id)
		}
	})
	return out
}

// Relations returns the document's edges: imports in record order first,
// then explicit edges. Imports are directed from the importing leaf.
func (d Document) Relations(delimiter string) []bundle.Edge {
	var out []bundle.Edge
	walkRecords(d.Nodes, "", delimiter, func(id string, r Record) {
		for _, imp := range r.Imports {
			out = append(out, bundle.Edge{Source: id, Target: imp, Directed: true})
		}
	})
	for _, e := range d.Edges {
		out = append(out, bundle.Edge{Source: e.From, Target: e.To, Weight: e.Weight, Directed: e.Directed})
	}
	return out
}

// Sizes returns the size of every leaf record that declares one.
func (d Document) Sizes(delimiter string) map[string]float64 {
	out := make(map[string]float64)
	walkRecords(d.Nodes, "", delimiter, func(id string, r Record) {
		if r.Size != 0 && len(r.Children) == 0 {
			out[id] = r.Size
		}
	})
	return out
}

func walkRecords(rs []Record, prefix, delim string, fn func(id string, r Record)) {
	for _, r := range rs {
		id := r.Name
		if prefix != "" {
			id = prefix + delim + r.Name
		}
		fn(id, r)
		walkRecords(r.Children, id, delim, fn)
	}
}

// ParseDocument decodes a document in the given format (json, yaml or
// toml). The top level may be the document object or, for JSON and YAML, a
// bare list of records.
func ParseDocument(data []byte, format string) (Document, error) {
	var raw any
	switch strings.ToLower(format) {
	case FormatJSON, "":
		if err := json.Unmarshal(data, &raw); err != nil {
			return Document{}, fmt.Errorf("%w: decode json: %w", ErrInvalidDocument, err)
		}
	case FormatYAML, "yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Document{}, fmt.Errorf("%w: decode yaml: %w", ErrInvalidDocument, err)
		}
	case FormatTOML:
		var m map[string]any
		if err := toml.Unmarshal(data, &m); err != nil {
			return Document{}, fmt.Errorf("%w: decode toml: %w", ErrInvalidDocument, err)
		}
		raw = m
	default:
		return Document{}, fmt.Errorf("%w: unsupported format %q", ErrInvalidDocument, format)
	}
	return decodeDocument(raw)
}

func decodeDocument(raw any) (Document, error) {
	if list, ok := raw.([]any); ok {
		raw = map[string]any{"nodes": list}
	}
	if _, ok := raw.(map[string]any); !ok {
		return Document{}, fmt.Errorf("%w: must be an object or a list of records, got %T", ErrInvalidDocument, raw)
	}

	var doc Document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return Document{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if len(doc.Nodes) == 0 {
		return Document{}, ErrEmptyDocument
	}
	return doc, nil
}

// FormatFromPath returns the document format implied by a file extension,
// defaulting to JSON.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	}
	return FormatJSON
}

// ReadDocumentFile reads and parses a document, choosing the format from the
// file extension.
func ReadDocumentFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseDocument(data, FormatFromPath(path))
}

// MarshalDocument serializes a document to pretty-printed JSON.
func MarshalDocument(d Document) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
