package output

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rulemark/internal/adapters/storage/localfs"
	"rulemark/internal/bridge"
)

func testEntry() bridge.Entry {
	return bridge.Entry{
		Name:     "Acid Arrow",
		Source:   "PHB",
		Markdown: "# Acid Arrow\n\nA shimmering green arrow...",
		Metadata: bridge.Metadata{
			Type: "spell",
			Page: 259,
			References: []bridge.Reference{
				{TagType: "damage", Content: json.RawMessage(`"acid"`)},
			},
			Raw: json.RawMessage(`{"type":"spell","page":259,"references":[{"tagType":"damage","content":"acid"}]}`),
		},
	}
}

func TestWriteEntry(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(localfs.New(root), "rendered", "")

	if err := w.WriteEntry(context.Background(), "spell", testEntry()); err != nil {
		t.Fatalf("WriteEntry failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(root, "rendered", "spell", "Acid_Arrow_PHB.md"))
	if err != nil {
		t.Fatalf("expected markdown file: %v", err)
	}

	body := string(got)
	if !strings.HasPrefix(body, "---\n") {
		t.Error("expected frontmatter fence at start")
	}
	for _, want := range []string{"name: Acid Arrow", "source: PHB", "type: spell", "page: 259", "# Acid Arrow"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected body to contain %q:\n%s", want, body)
		}
	}
}

func TestWriteEntryOmitsEmptyPage(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(localfs.New(root), "rendered", "")

	e := testEntry()
	e.Metadata.Page = 0

	if err := w.WriteEntry(context.Background(), "spell", e); err != nil {
		t.Fatalf("WriteEntry failed: %v", err)
	}

	got, _ := os.ReadFile(filepath.Join(root, "rendered", "spell", "Acid_Arrow_PHB.md"))
	if strings.Contains(string(got), "page:") {
		t.Error("frontmatter should omit page when absent")
	}
}

func TestWriteMetadata(t *testing.T) {
	root := t.TempDir()
	fs := localfs.New(root)
	w := NewWriter(fs, "rendered", "metadata")

	if err := w.WriteMetadata(context.Background(), "spell", testEntry()); err != nil {
		t.Fatalf("WriteMetadata failed: %v", err)
	}

	rc, _, _, err := fs.GetObject(context.Background(), "metadata/spell/Acid_Arrow_PHB.json")
	if err != nil {
		t.Fatalf("expected metadata object: %v", err)
	}
	defer rc.Close()

	raw, _ := io.ReadAll(rc)
	var meta map[string]any
	if err := json.Unmarshal(raw, &meta); err != nil {
		t.Fatalf("metadata is not valid JSON: %v", err)
	}
	if meta["type"] != "spell" {
		t.Errorf("expected verbatim metadata, got %v", meta)
	}
	refs, ok := meta["references"].([]any)
	if !ok || len(refs) != 1 {
		t.Errorf("expected references to survive verbatim, got %v", meta["references"])
	}
}

func TestWriteMetadataNoPrefixIsNoop(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(localfs.New(root), "rendered", "")

	if err := w.WriteMetadata(context.Background(), "spell", testEntry()); err != nil {
		t.Fatalf("expected noop, got: %v", err)
	}

	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Errorf("expected no files written, got %v", entries)
	}
}

func TestEntryFilename(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"Acid Arrow", "PHB", "Acid_Arrow_PHB"},
		{"Antimagic Field / Cone", "XGE", "Antimagic_Field___Cone_XGE"},
		{"../../etc/passwd", "EVIL", "__etc_passwd_EVIL"},
		{"", "", "entry_entry"},
	}

	for _, tt := range tests {
		if got := EntryFilename(tt.name, tt.source); got != tt.want {
			t.Errorf("EntryFilename(%q,%q)=%q, want %q", tt.name, tt.source, got, tt.want)
		}
	}
}
