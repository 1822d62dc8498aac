package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"rulemark/internal/ports"
)

type InputHandler struct {
	sp       ports.StorageProvider
	workRoot string
}

func NewInputHandler(sp ports.StorageProvider, workRoot string) *InputHandler {
	return &InputHandler{
		sp:       sp,
		workRoot: workRoot,
	}
}

// Materialize downloads the ruleset's curated input files to a local job
// directory so the rendering engine can read them by path.
func (ih *InputHandler) Materialize(ctx context.Context, jobID string, files []string) ([]string, error) {
	baseDir := filepath.Join(ih.workRoot, "jobs", jobID, "inputs")
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create inputs directory: %w", err)
	}

	paths := make([]string, 0, len(files))
	for _, name := range files {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		localPath, err := ih.materializeInput(ctx, baseDir, name)
		if err != nil {
			return nil, err
		}
		paths = append(paths, localPath)
	}

	return paths, nil
}

func (ih *InputHandler) materializeInput(ctx context.Context, baseDir, name string) (string, error) {
	objectKey := "inputs/" + name

	rc, _, _, err := ih.sp.GetObject(ctx, objectKey)
	if err != nil {
		return "", fmt.Errorf("download input failed file=%s: %w", name, err)
	}
	defer rc.Close()

	localPath := filepath.Join(baseDir, SanitizeFilename(name))

	f, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to save input locally file=%s: %w", name, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return "", fmt.Errorf("failed to save input locally file=%s: %w", name, err)
	}

	return localPath, nil
}
