package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"rulemark/internal/models"
	"rulemark/internal/repositories"
)

// defaults for storage prefixes when neither the job params nor the ruleset
// defaults name them.
const (
	defaultMarkdownPrefix = "rendered"
	defaultMetadataPrefix = "metadata"
)

type ParsedJob struct {
	Kind           string
	RulesetID      string
	Files          []string
	MarkdownPrefix string
	MetadataPrefix string
	KeepFiles      bool
	MergedParams   map[string]any
}

type JobParser struct {
	rulesets *repositories.RulesetRepository
}

func NewJobParser(pool *pgxpool.Pool) *JobParser {
	return &JobParser{rulesets: repositories.NewRulesetRepository(pool)}
}

func (jp *JobParser) Parse(ctx context.Context, job *models.Job) (*ParsedJob, error) {
	params := job.Params
	if params == nil {
		params = map[string]any{}
	}

	j := &ParsedJob{
		Kind:         job.Kind,
		MergedParams: params,
	}

	switch job.Kind {
	case models.KindRenderAll:
		// nothing to resolve
	case models.KindRenderSet:
		rulesetID, _ := params["ruleset_id"].(string)
		rulesetID = strings.TrimSpace(rulesetID)
		if rulesetID == "" {
			return nil, fmt.Errorf("params.ruleset_id is required for render_set")
		}

		set, err := jp.rulesets.Get(ctx, rulesetID)
		if err != nil {
			return nil, fmt.Errorf("ruleset not found: %s", rulesetID)
		}
		if len(set.Files) == 0 {
			return nil, fmt.Errorf("ruleset has no files: %s", rulesetID)
		}

		j.RulesetID = rulesetID
		j.Files = set.Files

		// Merge: ruleset defaults under job params
		j.MergedParams = mergeMaps(set.Defaults, params)
	default:
		return nil, fmt.Errorf("unknown job kind: %q", job.Kind)
	}

	j.MarkdownPrefix = stringParam(j.MergedParams, "markdown_prefix", defaultMarkdownPrefix)
	j.MetadataPrefix = stringParam(j.MergedParams, "metadata_prefix", defaultMetadataPrefix)
	j.KeepFiles = IsTruthy(j.MergedParams["keep_files"])

	return j, nil
}

func stringParam(params map[string]any, key, def string) string {
	if s, ok := params[key].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return def
}

func mergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any)
	for k, v := range base {
		result[k] = v
	}
	for k, v := range override {
		result[k] = v
	}
	return result
}
