package bridge

import (
	"os"
	"os/exec"

	"rulemark/internal/pkg/errors"
)

// runtimeFallbacks are checked when the runtime is not on PATH. Matches the
// usual install locations on Linux and macOS (including Homebrew on ARM).
var runtimeFallbacks = []string{
	"/usr/local/bin/node",
	"/usr/bin/node",
	"/opt/homebrew/bin/node",
}

// FindRuntime locates the Node.js executable that hosts the rendering engine.
// It searches PATH first, then a fixed fallback list. Call it once at startup
// and thread the result into Config; there is no process-wide cached lookup.
func FindRuntime() (string, error) {
	if p, err := exec.LookPath("node"); err == nil {
		return p, nil
	}

	for _, p := range runtimeFallbacks {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}

	return "", errors.Unavailable("node runtime").
		WithField("searched", runtimeFallbacks)
}
