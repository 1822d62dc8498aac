package processor

import (
	"os"
	"path/filepath"
)

type Cleanup struct {
	workRoot     string
	cleanupLocal bool
}

func NewCleanup(workRoot string, cleanupLocal bool) *Cleanup {
	return &Cleanup{
		workRoot:     workRoot,
		cleanupLocal: cleanupLocal,
	}
}

// CleanupJob removes the job's materialized inputs. Errors are ignored; stale
// temp files are a nuisance, not a fault.
func (c *Cleanup) CleanupJob(jobID string) {
	if !c.cleanupLocal {
		return
	}

	jobDir := filepath.Join(c.workRoot, "jobs", jobID)
	_ = os.RemoveAll(jobDir)
}
