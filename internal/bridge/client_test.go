package bridge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rulemark/internal/pkg/errors"
)

// writeStub writes a shell script standing in for the engine entry point.
// The client is configured with /bin/sh as the runtime, so the "script" is
// interpreted by sh and can fake any worker behavior.
func writeStub(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "render-service.mjs")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("failed to write stub worker: %v", err)
	}
	return path
}

func newStubClient(t *testing.T, body string, timeout time.Duration) *Client {
	t.Helper()

	c, err := New(Config{
		ScriptPath: writeStub(t, body),
		Runtime:    "/bin/sh",
		Timeout:    timeout,
	})
	if err != nil {
		t.Fatalf("failed to construct client: %v", err)
	}
	return c
}

const spellStub = `
req=$(cat)
case "$req" in
*'"action":"summary"'*)
	echo '{"success":true,"data":{"spell":{"count":3},"monster":{"count":1}}}'
	;;
*'"limit":2'*)
	echo '{"success":true,"data":[{"name":"Acid Arrow","source":"PHB","markdown":"# Acid Arrow","metadata":{"type":"spell","page":259,"references":[{"tagType":"damage","content":"acid"}]}},{"name":"Bless","source":"PHB","markdown":"# Bless","metadata":{"type":"spell","references":[]}}]}'
	;;
*)
	echo '{"success":true,"data":[{"name":"Acid Arrow","source":"PHB","markdown":"# Acid Arrow","metadata":{"type":"spell","page":259,"references":[{"tagType":"damage","content":"acid"}]}},{"name":"Bless","source":"PHB","markdown":"# Bless","metadata":{"type":"spell","references":[]}},{"name":"Charm Person","source":"PHB","markdown":"# Charm Person","metadata":{"type":"spell","references":[{"tagType":"condition","content":"charmed"}]}}]}'
	;;
esac
`

func TestNewMissingScript(t *testing.T) {
	_, err := New(Config{
		ScriptPath: filepath.Join(t.TempDir(), "no-such-service.mjs"),
		Runtime:    "/bin/sh",
	})
	if err == nil {
		t.Fatal("expected construction to fail")
	}
	if !errors.IsCode(err, errors.CodeEndpointNotFound) {
		t.Errorf("expected ENDPOINT_NOT_FOUND, got %v", err)
	}
}

func TestNewMissingRuntime(t *testing.T) {
	_, err := New(Config{
		ScriptPath: writeStub(t, spellStub),
		Runtime:    "/definitely/not/a/node",
	})
	if err == nil {
		t.Fatal("expected construction to fail")
	}
	if !errors.IsCode(err, errors.CodeUnavailable) {
		t.Errorf("expected SERVICE_UNAVAILABLE, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	c := newStubClient(t, spellStub, 0)

	sum, err := c.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum["spell"].Count != 3 {
		t.Errorf("expected spell count=3, got %d", sum["spell"].Count)
	}
	if sum["monster"].Count != 1 {
		t.Errorf("expected monster count=1, got %d", sum["monster"].Count)
	}
}

func TestRenderTypeMatchesSummaryCount(t *testing.T) {
	c := newStubClient(t, spellStub, 0)
	ctx := context.Background()

	sum, err := c.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}

	entries, err := c.RenderType(ctx, "spell", RenderOpts{})
	if err != nil {
		t.Fatalf("RenderType failed: %v", err)
	}
	if len(entries) != sum["spell"].Count {
		t.Errorf("expected %d entries, got %d", sum["spell"].Count, len(entries))
	}

	for _, e := range entries {
		if e.Metadata.Type != "spell" {
			t.Errorf("entry %q has metadata type %q, want spell", e.Name, e.Metadata.Type)
		}
	}
}

func TestRenderTypeLimit(t *testing.T) {
	c := newStubClient(t, spellStub, 0)

	entries, err := c.RenderType(context.Background(), "spell", RenderOpts{Limit: Limit(2)})
	if err != nil {
		t.Fatalf("RenderType failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// First two in declared order.
	if entries[0].Name != "Acid Arrow" || entries[1].Name != "Bless" {
		t.Errorf("unexpected order: %q, %q", entries[0].Name, entries[1].Name)
	}
}

func TestRenderTypeIdempotent(t *testing.T) {
	c := newStubClient(t, spellStub, 0)
	ctx := context.Background()

	first, err := c.RenderType(ctx, "spell", RenderOpts{})
	if err != nil {
		t.Fatalf("first render failed: %v", err)
	}
	second, err := c.RenderType(ctx, "spell", RenderOpts{})
	if err != nil {
		t.Fatalf("second render failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("entry counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Name != second[i].Name || first[i].Source != second[i].Source {
			t.Errorf("entry %d differs: (%s,%s) vs (%s,%s)",
				i, first[i].Name, first[i].Source, second[i].Name, second[i].Source)
		}
	}
}

func TestRenderTypeEmptyType(t *testing.T) {
	c := newStubClient(t, spellStub, 0)

	_, err := c.RenderType(context.Background(), "  ", RenderOpts{})
	if !errors.IsCode(err, errors.CodeValidation) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestRenderTypes(t *testing.T) {
	stub := `
echo '{"success":true,"data":{"action":[{"name":"Dash","source":"PHB","markdown":"# Dash","metadata":{"type":"action"}}],"item":[{"name":"Rope","source":"PHB","markdown":"# Rope","metadata":{"type":"item"}}]}}'
`
	c := newStubClient(t, stub, 0)

	sets, err := c.RenderTypes(context.Background(), []string{"action", "item"}, RenderOpts{})
	if err != nil {
		t.Fatalf("RenderTypes failed: %v", err)
	}
	if len(sets["action"]) != 1 || sets["action"][0].Name != "Dash" {
		t.Errorf("unexpected action entries: %+v", sets["action"])
	}
	if len(sets["item"]) != 1 || sets["item"][0].Name != "Rope" {
		t.Errorf("unexpected item entries: %+v", sets["item"])
	}
}

func TestRenderFile(t *testing.T) {
	stub := `
echo '{"success":true,"data":{"entityType":"condition","results":[{"name":"Blinded","source":"PHB","markdown":"# Blinded","metadata":{"type":"condition"}}]}}'
`
	c := newStubClient(t, stub, 0)

	input := filepath.Join(t.TempDir(), "filtered_conditions.json")
	if err := os.WriteFile(input, []byte(`{"condition":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := c.RenderFile(context.Background(), input, RenderOpts{})
	if err != nil {
		t.Fatalf("RenderFile failed: %v", err)
	}
	if res.EntityType != "condition" {
		t.Errorf("expected entityType=condition, got %s", res.EntityType)
	}
	if len(res.Entries) != 1 || res.Entries[0].Name != "Blinded" {
		t.Errorf("unexpected entries: %+v", res.Entries)
	}
}

func TestRenderFileMissingInputDoesNotSpawn(t *testing.T) {
	// The stub drops a sentinel file when invoked; a missing input must fail
	// before any worker process is spawned.
	sentinel := filepath.Join(t.TempDir(), "spawned")
	c := newStubClient(t, "touch "+sentinel+"\necho '{\"success\":true,\"data\":[]}'\n", 0)

	_, err := c.RenderFile(context.Background(), filepath.Join(t.TempDir(), "nonexistent.json"), RenderOpts{})
	if !errors.IsCode(err, errors.CodeInputNotFound) {
		t.Fatalf("expected INPUT_NOT_FOUND, got %v", err)
	}
	if _, statErr := os.Stat(sentinel); statErr == nil {
		t.Error("worker was spawned for a missing input file")
	}
}

func TestWorkerReportedFailure(t *testing.T) {
	stub := `
echo '{"success":false,"error":"Unknown entity type: widget"}'
`
	c := newStubClient(t, stub, 0)

	_, err := c.RenderType(context.Background(), "widget", RenderOpts{})
	if !errors.IsCode(err, errors.CodeService) {
		t.Fatalf("expected SERVICE_ERROR, got %v", err)
	}

	var e *errors.Error
	if !errors.As(err, &e) {
		t.Fatal("expected *errors.Error")
	}
	if e.Message != "Unknown entity type: widget" {
		t.Errorf("worker message not preserved verbatim: %q", e.Message)
	}
}

func TestWorkerCrashDistinctFromFailureEnvelope(t *testing.T) {
	// Non-zero exit with empty output is the crash path, not SERVICE_ERROR.
	c := newStubClient(t, "echo 'boom' >&2\nexit 1\n", 0)

	_, err := c.RenderType(context.Background(), "spell", RenderOpts{})
	if !errors.IsCode(err, errors.CodeUnavailable) {
		t.Fatalf("expected SERVICE_UNAVAILABLE, got %v", err)
	}
	if errors.IsCode(err, errors.CodeService) {
		t.Error("crash must not be classified as a worker-reported failure")
	}

	fields := errors.GetFields(err)
	if fields["stderr"] != "boom" {
		t.Errorf("expected stderr tail to be attached, got %v", fields)
	}
}

func TestEmptyOutput(t *testing.T) {
	c := newStubClient(t, "exit 0\n", 0)

	_, err := c.RenderType(context.Background(), "spell", RenderOpts{})
	if !errors.IsCode(err, errors.CodeProtocol) {
		t.Errorf("expected PROTOCOL_ERROR for empty output, got %v", err)
	}
}

func TestGarbageOutput(t *testing.T) {
	c := newStubClient(t, "echo 'not a json envelope'\n", 0)

	_, err := c.RenderType(context.Background(), "spell", RenderOpts{})
	if !errors.IsCode(err, errors.CodeProtocol) {
		t.Errorf("expected PROTOCOL_ERROR for garbage output, got %v", err)
	}
}

func TestTrailingOutput(t *testing.T) {
	stub := `
echo '{"success":true,"data":[]}'
echo 'stray log line on stdout'
`
	c := newStubClient(t, stub, 0)

	_, err := c.RenderType(context.Background(), "spell", RenderOpts{})
	if !errors.IsCode(err, errors.CodeProtocol) {
		t.Errorf("expected PROTOCOL_ERROR for trailing bytes, got %v", err)
	}
}

func TestMissingDataOnSuccess(t *testing.T) {
	c := newStubClient(t, "echo '{\"success\":true}'\n", 0)

	_, err := c.RenderType(context.Background(), "spell", RenderOpts{})
	if !errors.IsCode(err, errors.CodeProtocol) {
		t.Errorf("expected PROTOCOL_ERROR when data is absent on success, got %v", err)
	}
}

func TestTimeout(t *testing.T) {
	c := newStubClient(t, "sleep 10\n", 300*time.Millisecond)

	start := time.Now()
	_, err := c.RenderType(context.Background(), "spell", RenderOpts{})
	elapsed := time.Since(start)

	if !errors.IsTimeout(err) {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	if elapsed > 5*time.Second {
		t.Errorf("call did not respect the wall-clock budget: took %s", elapsed)
	}
}

// A killed worker can leave behind a child that inherited its stdout pipe.
// The budget must still bound the call; the orphan holding the pipe open must
// not stall the client until the orphan exits.
func TestTimeoutOrphanedChildHoldingStdout(t *testing.T) {
	stub := `
sleep 10 &
wait
`
	c := newStubClient(t, stub, 300*time.Millisecond)

	start := time.Now()
	_, err := c.RenderType(context.Background(), "spell", RenderOpts{})
	elapsed := time.Since(start)

	if !errors.IsTimeout(err) {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	if elapsed > 5*time.Second {
		t.Errorf("orphaned child held the call past the budget: took %s", elapsed)
	}
}
