// Package bridge implements the request/response bridge to the rendering
// engine: a synchronous RPC over a worker process's stdin/stdout, one fresh
// process per call. Isolation over throughput: a crashed or hung worker
// affects only the one call that owns it.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"rulemark/internal/pkg/errors"
	"rulemark/internal/pkg/logger"
)

// DefaultTimeout is the wall-clock budget for one worker invocation.
const DefaultTimeout = 60 * time.Second

// stderrTailLimit bounds how much worker stderr is attached to errors.
const stderrTailLimit = 2000

// Config holds the bridge client configuration. Runtime discovery happens at
// construction, never lazily.
type Config struct {
	// ScriptPath is the engine entry-point script (render-service.mjs).
	ScriptPath string
	// Runtime is the node executable. Empty means discover via FindRuntime.
	Runtime string
	// Timeout is the per-call budget. Zero means DefaultTimeout.
	Timeout time.Duration
	// Log is optional; a default logger is used when nil.
	Log *logger.Logger
}

// Client invokes the rendering engine, one worker process per call.
// It performs no retries and no caching; retry policy belongs to callers.
type Client struct {
	scriptPath string
	runtime    string
	timeout    time.Duration
	log        *logger.Logger
}

// New validates the configuration and returns a client. It fails fast with
// ENDPOINT_NOT_FOUND if the engine script is missing and SERVICE_UNAVAILABLE
// if no runtime executable can be located.
func New(cfg Config) (*Client, error) {
	log := cfg.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("bridge")

	script, err := filepath.Abs(cfg.ScriptPath)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeEndpointNotFound, "bridge.new", "invalid engine script path")
	}
	if st, err := os.Stat(script); err != nil || st.IsDir() {
		return nil, errors.EndpointNotFound(script)
	}

	runtime := cfg.Runtime
	if runtime == "" {
		runtime, err = FindRuntime()
		if err != nil {
			return nil, err
		}
	} else if st, err := os.Stat(runtime); err != nil || st.IsDir() {
		return nil, errors.Unavailable("runtime executable: " + runtime)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	log.Debug("bridge client configured",
		"script", script,
		"runtime", runtime,
		"timeout", timeout.String(),
	)

	return &Client{
		scriptPath: script,
		runtime:    runtime,
		timeout:    timeout,
		log:        log,
	}, nil
}

// Summary queries the dataset for available entity types and counts.
// Caching-free pass-through: every call hits a fresh worker.
func (c *Client) Summary(ctx context.Context) (Summary, error) {
	data, err := c.call(ctx, SummaryRequest())
	if err != nil {
		return nil, err
	}
	return decodeSummary(data)
}

// RenderType renders all entries of one entity type. The type is validated
// engine-side; an unknown type surfaces as SERVICE_ERROR.
func (c *Client) RenderType(ctx context.Context, entityType string, opts RenderOpts) ([]Entry, error) {
	if strings.TrimSpace(entityType) == "" {
		return nil, errors.Validation("entity type is required")
	}

	data, err := c.call(ctx, RenderRequest(entityType, opts))
	if err != nil {
		return nil, err
	}
	return decodeEntries(data)
}

// RenderTypes renders several entity types in a single worker invocation,
// amortizing process-startup cost across types.
func (c *Client) RenderTypes(ctx context.Context, entityTypes []string, opts RenderOpts) (map[string][]Entry, error) {
	if len(entityTypes) == 0 {
		return nil, errors.Validation("at least one entity type is required")
	}

	data, err := c.call(ctx, RenderMultipleRequest(entityTypes, opts))
	if err != nil {
		return nil, err
	}
	return decodeEntrySets(data)
}

// RenderFile renders entries from one input JSON document; the engine infers
// the entity type from file content. The path is checked before any worker
// process is spawned.
func (c *Client) RenderFile(ctx context.Context, filePath string, opts RenderOpts) (*FileResult, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, errors.InputNotFound(filePath)
	}
	if st, err := os.Stat(abs); err != nil || st.IsDir() {
		return nil, errors.InputNotFound(abs)
	}

	data, err := c.call(ctx, RenderFileRequest(abs, opts))
	if err != nil {
		return nil, err
	}
	return decodeFileResult(data)
}

// call runs one worker invocation: serialize the request envelope, feed it on
// stdin, block until exit or timeout, and decode exactly one response
// envelope from stdout.
func (c *Client) call(ctx context.Context, req Request) (json.RawMessage, error) {
	const op = "bridge.call"

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeInternal, op, "failed to encode request envelope")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.runtime, c.scriptPath, "--stdin")
	cmd.Dir = filepath.Dir(c.scriptPath)
	cmd.Stdin = bytes.NewReader(payload)
	// On deadline only the direct child is killed; an orphaned grandchild can
	// keep the stdout pipe open and stall Run past the budget. WaitDelay
	// forces pipe teardown shortly after cancellation.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	c.log.Debug("worker finished",
		"action", string(req.Action),
		"duration_ms", elapsed.Milliseconds(),
		"stdout_bytes", stdout.Len(),
		"stderr_bytes", stderr.Len(),
	)

	// Timeout wins over whatever exit state the killed worker reports.
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, errors.Timeout(string(req.Action)).
			WithField("timeout", c.timeout.String())
	}

	// A non-zero exit is a hard failure regardless of any output content.
	if runErr != nil {
		e := errors.WrapWithCode(runErr, errors.CodeUnavailable, op, "worker process failed")
		if tail := stderrTail(stderr.String()); tail != "" {
			e = e.WithField("stderr", tail)
		}
		return nil, e
	}

	// Empty stdout with a zero exit means the worker crashed silently, which
	// is distinct from a returned empty result inside a valid envelope.
	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		e := errors.Protocol("worker produced no output")
		if tail := stderrTail(stderr.String()); tail != "" {
			e = e.WithField("stderr", tail)
		}
		return nil, e
	}

	// Stdout must contain exactly one envelope; extra bytes (log lines mixed
	// into stdout) are a protocol violation.
	dec := json.NewDecoder(bytes.NewReader(out))
	var env responseEnvelope
	if err := dec.Decode(&env); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeProtocol, op, "worker output is not a response envelope")
	}
	if dec.More() {
		return nil, errors.Protocol("trailing data after response envelope")
	}

	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "worker reported failure without an error message"
		}
		return nil, errors.Service(msg)
	}

	// Payload must be present and well-formed iff success is true.
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil, errors.Protocol("successful response is missing data payload")
	}

	return env.Data, nil
}

func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTailLimit {
		s = s[len(s)-stderrTailLimit:]
	}
	return s
}
