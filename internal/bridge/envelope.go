package bridge

import (
	"encoding/json"
	"fmt"

	"rulemark/internal/pkg/errors"
)

// Action selects the worker behavior for one request envelope.
type Action string

const (
	ActionSummary        Action = "summary"
	ActionRender         Action = "render"
	ActionRenderMultiple Action = "render_multiple"
	ActionRenderFile     Action = "render_file"
)

// Request is the envelope delivered to the worker on stdin. One request maps
// to exactly one worker invocation. Construct via the action-specific
// constructors below; requests are immutable once built.
type Request struct {
	Action     Action   `json:"action"`
	Type       string   `json:"type,omitempty"`
	Types      []string `json:"types,omitempty"`
	FilePath   string   `json:"filePath,omitempty"`
	Limit      *int     `json:"limit,omitempty"`
	SaveToFile bool     `json:"saveToFile,omitempty"`
}

// RenderOpts carries the optional parameters shared by the render actions.
type RenderOpts struct {
	// Limit constrains the result count; nil renders everything.
	Limit *int
	// Persist instructs the worker to write files itself, in addition to
	// returning entries.
	Persist bool
}

// Limit is a convenience for building *int option values.
func Limit(n int) *int {
	return &n
}

// SummaryRequest builds a dataset-summary request.
func SummaryRequest() Request {
	return Request{Action: ActionSummary}
}

// RenderRequest builds a single-type render request.
func RenderRequest(entityType string, opts RenderOpts) Request {
	return Request{
		Action:     ActionRender,
		Type:       entityType,
		Limit:      opts.Limit,
		SaveToFile: opts.Persist,
	}
}

// RenderMultipleRequest builds a batched multi-type render request.
func RenderMultipleRequest(entityTypes []string, opts RenderOpts) Request {
	return Request{
		Action:     ActionRenderMultiple,
		Types:      entityTypes,
		Limit:      opts.Limit,
		SaveToFile: opts.Persist,
	}
}

// RenderFileRequest builds a render request for one input JSON document.
func RenderFileRequest(filePath string, opts RenderOpts) Request {
	return Request{
		Action:     ActionRenderFile,
		FilePath:   filePath,
		Limit:      opts.Limit,
		SaveToFile: opts.Persist,
	}
}

// responseEnvelope is the single JSON value the worker must write to stdout.
// data is present iff success is true; error is present iff success is false.
type responseEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// TypeSummary describes one entity type in the dataset summary.
type TypeSummary struct {
	Count int `json:"count"`
}

// Summary maps entity type names to their dataset counts.
type Summary map[string]TypeSummary

// Reference is one typed cross-reference extracted from a rendered entry,
// e.g. a damage type, condition, or linked spell.
type Reference struct {
	TagType string          `json:"tagType"`
	Content json.RawMessage `json:"content,omitempty"`
}

// Metadata is the structured metadata attached to a rendered entry.
// Raw preserves the worker's metadata object verbatim for metadata artifacts.
type Metadata struct {
	Type       string          `json:"type"`
	Page       int             `json:"page,omitempty"`
	References []Reference     `json:"references,omitempty"`
	Raw        json.RawMessage `json:"-"`
}

// Entry is one rendered rule record. Owned solely by the caller after return;
// the worker shares no state with it.
type Entry struct {
	Name     string   `json:"name"`
	Source   string   `json:"source"`
	Markdown string   `json:"markdown"`
	Metadata Metadata `json:"metadata"`
}

// FileResult bundles the outcome of a render_file action.
type FileResult struct {
	EntityType string  `json:"entityType"`
	Entries    []Entry `json:"entries"`
}

// decodeSummary validates and decodes a summary payload. Every type entry
// must carry a count.
func decodeSummary(data json.RawMessage) (Summary, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeProtocol, "bridge.decode", "summary payload is not an object")
	}

	out := make(Summary, len(raw))
	for entityType, v := range raw {
		var info struct {
			Count *int `json:"count"`
		}
		if err := json.Unmarshal(v, &info); err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeProtocol, "bridge.decode",
				fmt.Sprintf("summary entry %q is not an object", entityType))
		}
		if info.Count == nil {
			return nil, errors.Protocol(fmt.Sprintf("summary entry %q is missing count", entityType))
		}
		out[entityType] = TypeSummary{Count: *info.Count}
	}
	return out, nil
}

// decodeEntries validates and decodes a render payload (list of entries).
func decodeEntries(data json.RawMessage) ([]Entry, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeProtocol, "bridge.decode", "render payload is not a list")
	}

	out := make([]Entry, 0, len(raw))
	for i, v := range raw {
		e, err := decodeEntry(v)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeProtocol, "bridge.decode",
				fmt.Sprintf("entry %d is malformed", i))
		}
		out = append(out, e)
	}
	return out, nil
}

// decodeEntrySets validates and decodes a render_multiple payload.
func decodeEntrySets(data json.RawMessage) (map[string][]Entry, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeProtocol, "bridge.decode", "render_multiple payload is not an object")
	}

	out := make(map[string][]Entry, len(raw))
	for entityType, v := range raw {
		entries, err := decodeEntries(v)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeProtocol, "bridge.decode",
				fmt.Sprintf("entries for type %q are malformed", entityType))
		}
		out[entityType] = entries
	}
	return out, nil
}

// decodeFileResult validates and decodes a render_file payload.
func decodeFileResult(data json.RawMessage) (*FileResult, error) {
	var raw struct {
		EntityType string          `json:"entityType"`
		Results    json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeProtocol, "bridge.decode", "render_file payload is not an object")
	}
	if raw.EntityType == "" {
		return nil, errors.Protocol("render_file payload is missing entityType")
	}

	entries := []Entry{}
	if len(raw.Results) > 0 {
		var err error
		entries, err = decodeEntries(raw.Results)
		if err != nil {
			return nil, err
		}
	}

	return &FileResult{EntityType: raw.EntityType, Entries: entries}, nil
}

// decodeEntry rejects entries missing required fields instead of defaulting
// them, so a malformed payload surfaces as PROTOCOL_ERROR at the boundary.
func decodeEntry(data json.RawMessage) (Entry, error) {
	var raw struct {
		Name     string          `json:"name"`
		Source   string          `json:"source"`
		Markdown *string         `json:"markdown"`
		Metadata json.RawMessage `json:"metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Entry{}, err
	}
	if raw.Name == "" {
		return Entry{}, fmt.Errorf("missing name")
	}
	if raw.Source == "" {
		return Entry{}, fmt.Errorf("missing source")
	}
	if raw.Markdown == nil {
		return Entry{}, fmt.Errorf("missing markdown")
	}
	if len(raw.Metadata) == 0 {
		return Entry{}, fmt.Errorf("missing metadata")
	}

	meta, err := decodeMetadata(raw.Metadata)
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Name:     raw.Name,
		Source:   raw.Source,
		Markdown: *raw.Markdown,
		Metadata: meta,
	}, nil
}

func decodeMetadata(data json.RawMessage) (Metadata, error) {
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("metadata is not an object: %w", err)
	}
	if meta.Type == "" {
		return Metadata{}, fmt.Errorf("metadata is missing type")
	}
	for i, ref := range meta.References {
		if ref.TagType == "" {
			return Metadata{}, fmt.Errorf("reference %d is missing tagType", i)
		}
	}
	meta.Raw = data
	return meta, nil
}
