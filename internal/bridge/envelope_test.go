package bridge

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRequestConstructors(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "summary",
			req:  SummaryRequest(),
			want: `{"action":"summary"}`,
		},
		{
			name: "render with limit",
			req:  RenderRequest("spell", RenderOpts{Limit: Limit(5), Persist: true}),
			want: `{"action":"render","type":"spell","limit":5,"saveToFile":true}`,
		},
		{
			name: "render without limit omits the field",
			req:  RenderRequest("monster", RenderOpts{}),
			want: `{"action":"render","type":"monster"}`,
		},
		{
			name: "render multiple",
			req:  RenderMultipleRequest([]string{"action", "item"}, RenderOpts{Limit: Limit(2)}),
			want: `{"action":"render_multiple","types":["action","item"],"limit":2}`,
		},
		{
			name: "render file",
			req:  RenderFileRequest("/data/filtered_spells.json", RenderOpts{}),
			want: `{"action":"render_file","filePath":"/data/filtered_spells.json"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.req)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("envelope mismatch:\n got %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestDecodeSummary(t *testing.T) {
	sum, err := decodeSummary([]byte(`{"spell":{"count":3,"source":"PHB"},"monster":{"count":0}}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	want := Summary{"spell": {Count: 3}, "monster": {Count: 0}}
	if diff := cmp.Diff(want, sum); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeSummaryMissingCount(t *testing.T) {
	_, err := decodeSummary([]byte(`{"spell":{"name":"Spells"}}`))
	if err == nil {
		t.Fatal("expected missing count to be rejected")
	}
}

func TestDecodeSummaryNotAnObject(t *testing.T) {
	_, err := decodeSummary([]byte(`[1,2,3]`))
	if err == nil {
		t.Fatal("expected non-object summary to be rejected")
	}
}

func TestDecodeEntries(t *testing.T) {
	data := []byte(`[{
		"name": "Fireball",
		"source": "PHB",
		"markdown": "# Fireball\n\nA bright streak...",
		"metadata": {
			"type": "spell",
			"page": 241,
			"references": [
				{"tagType": "damage", "content": "fire"},
				{"tagType": "spell", "content": {"name": "Delayed Blast Fireball"}}
			]
		}
	}]`)

	entries, err := decodeEntries(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.Name != "Fireball" || e.Source != "PHB" {
		t.Errorf("unexpected identity: %s/%s", e.Name, e.Source)
	}
	if e.Metadata.Type != "spell" || e.Metadata.Page != 241 {
		t.Errorf("unexpected metadata: %+v", e.Metadata)
	}
	if len(e.Metadata.References) != 2 || e.Metadata.References[0].TagType != "damage" {
		t.Errorf("unexpected references: %+v", e.Metadata.References)
	}
	if len(e.Metadata.Raw) == 0 {
		t.Error("expected raw metadata bytes to be preserved")
	}
}

func TestDecodeEntriesRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing name", `[{"source":"PHB","markdown":"x","metadata":{"type":"spell"}}]`},
		{"missing source", `[{"name":"X","markdown":"x","metadata":{"type":"spell"}}]`},
		{"missing markdown", `[{"name":"X","source":"PHB","metadata":{"type":"spell"}}]`},
		{"missing metadata", `[{"name":"X","source":"PHB","markdown":"x"}]`},
		{"missing metadata type", `[{"name":"X","source":"PHB","markdown":"x","metadata":{"page":1}}]`},
		{"reference without tagType", `[{"name":"X","source":"PHB","markdown":"x","metadata":{"type":"spell","references":[{"content":"fire"}]}}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeEntries([]byte(tt.data)); err == nil {
				t.Error("expected malformed entry to be rejected")
			}
		})
	}
}

func TestDecodeEntriesAllowsEmptyMarkdown(t *testing.T) {
	entries, err := decodeEntries([]byte(`[{"name":"X","source":"PHB","markdown":"","metadata":{"type":"spell"}}]`))
	if err != nil {
		t.Fatalf("empty markdown body should be accepted: %v", err)
	}
	if entries[0].Markdown != "" {
		t.Errorf("unexpected markdown: %q", entries[0].Markdown)
	}
}

func TestDecodeFileResult(t *testing.T) {
	data := []byte(`{"entityType":"condition","results":[{"name":"Blinded","source":"PHB","markdown":"# Blinded","metadata":{"type":"condition"}}]}`)

	res, err := decodeFileResult(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if res.EntityType != "condition" || len(res.Entries) != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestDecodeFileResultMissingEntityType(t *testing.T) {
	_, err := decodeFileResult([]byte(`{"results":[]}`))
	if err == nil {
		t.Fatal("expected missing entityType to be rejected")
	}
}
