// Package output writes rendered entries as caller-owned artifacts: a
// markdown file with YAML frontmatter per entry, and optionally the entry's
// verbatim metadata as a JSON document for graph/vector ingestion.
package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"rulemark/internal/bridge"
	"rulemark/internal/ports"
)

// Writer persists entries through a storage provider. Object keys look like
// <markdownPrefix>/<entityType>/<Name>_<SOURCE>.md and
// <metadataPrefix>/<entityType>/<Name>_<SOURCE>.json.
type Writer struct {
	sp             ports.StorageProvider
	markdownPrefix string
	metadataPrefix string
}

func NewWriter(sp ports.StorageProvider, markdownPrefix, metadataPrefix string) *Writer {
	return &Writer{
		sp:             sp,
		markdownPrefix: markdownPrefix,
		metadataPrefix: metadataPrefix,
	}
}

type frontmatter struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source,omitempty"`
	Type   string `yaml:"type"`
	Page   int    `yaml:"page,omitempty"`
}

// WriteEntry writes one entry's markdown document.
func (w *Writer) WriteEntry(ctx context.Context, entityType string, e bridge.Entry) error {
	fm, err := yaml.Marshal(frontmatter{
		Name:   e.Name,
		Source: e.Source,
		Type:   e.Metadata.Type,
		Page:   e.Metadata.Page,
	})
	if err != nil {
		return fmt.Errorf("failed to encode frontmatter for %s: %w", e.Name, err)
	}

	var body bytes.Buffer
	body.WriteString("---\n")
	body.Write(fm)
	body.WriteString("---\n\n")
	body.WriteString(e.Markdown)

	key := path.Join(w.markdownPrefix, entityType, EntryFilename(e.Name, e.Source)+".md")
	_, err = w.sp.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   key,
		ContentType: "text/markdown; charset=utf-8",
		Reader:      &body,
		Size:        int64(body.Len()),
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// WriteMetadata writes one entry's metadata verbatim as indented JSON.
// No-op when the writer has no metadata prefix configured.
func (w *Writer) WriteMetadata(ctx context.Context, entityType string, e bridge.Entry) error {
	if w.metadataPrefix == "" {
		return nil
	}

	var body bytes.Buffer
	if err := json.Indent(&body, e.Metadata.Raw, "", "  "); err != nil {
		return fmt.Errorf("failed to encode metadata for %s: %w", e.Name, err)
	}

	key := path.Join(w.metadataPrefix, entityType, EntryFilename(e.Name, e.Source)+".json")
	_, err := w.sp.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   key,
		ContentType: "application/json",
		Reader:      &body,
		Size:        int64(body.Len()),
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// EntryFilename builds a filesystem-safe base name for an entry.
func EntryFilename(name, source string) string {
	return sanitize(name) + "_" + sanitize(source)
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "..", "")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	if s == "" {
		return "entry"
	}
	return s
}
