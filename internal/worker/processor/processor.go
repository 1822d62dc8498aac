package processor

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"rulemark/internal/batch"
	"rulemark/internal/bridge"
	"rulemark/internal/models"
	"rulemark/internal/output"
	"rulemark/internal/pkg/errors"
	"rulemark/internal/pkg/logger"
	"rulemark/internal/ports"
	"rulemark/internal/repositories"
)

type Deps struct {
	Pool         *pgxpool.Pool
	SP           ports.StorageProvider
	Bridge       *bridge.Client
	WorkRoot     string
	CleanupLocal bool
	Log          *logger.Logger
}

type Processor struct {
	pool   *pgxpool.Pool
	sp     ports.StorageProvider
	bridge *bridge.Client
	log    *logger.Logger

	jobs         *repositories.JobRepository
	jobParser    *JobParser
	inputHandler *InputHandler
	report       *ReportHandler
	cleanup      *Cleanup
}

func New(d Deps) *Processor {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("processor")

	p := &Processor{
		pool:   d.Pool,
		sp:     d.SP,
		bridge: d.Bridge,
		log:    log,
	}

	p.jobs = repositories.NewJobRepository(d.Pool)
	p.jobParser = NewJobParser(d.Pool)
	p.inputHandler = NewInputHandler(d.SP, d.WorkRoot)
	p.report = NewReportHandler(d.SP)
	p.cleanup = NewCleanup(d.WorkRoot, d.CleanupLocal)

	return p
}

// ProcessJob drives one queued job end to end.
func (p *Processor) ProcessJob(ctx context.Context, jobID string) error {
	log := p.log.FromContext(ctx).WithJobID(jobID)

	// 1. Fetch and parse the job
	log.Debug("fetching job")
	job, err := p.jobs.Get(ctx, jobID)
	if err != nil {
		return p.failJob(ctx, jobID, errors.Wrap(err, "processor.fetch", "failed to fetch job"))
	}

	log.Debug("parsing job params")
	parsed, err := p.jobParser.Parse(ctx, job)
	if err != nil {
		return p.failJob(ctx, jobID, errors.WrapWithCode(err, errors.CodeValidation, "processor.parse", "failed to parse job params"))
	}

	// 2. Mark as running
	log.Debug("marking job as running")
	if err := p.jobs.MarkRunning(ctx, jobID); err != nil {
		return p.failJob(ctx, jobID, errors.Wrap(err, "processor.status", "failed to mark job as running"))
	}

	// 3. Materialize curated input files for render_set
	var inputPaths []string
	if parsed.Kind == models.KindRenderSet {
		log.Debug("materializing inputs", "files", len(parsed.Files))
		inputPaths, err = p.inputHandler.Materialize(ctx, jobID, parsed.Files)
		if err != nil {
			return p.failJob(ctx, jobID, errors.Wrap(err, "processor.inputs", "failed to materialize inputs"))
		}
		log.Debug("inputs materialized", "count", len(inputPaths))
	}

	// 4. Run the batch
	sink := output.NewWriter(p.sp, parsed.MarkdownPrefix, parsed.MetadataPrefix)
	orch := batch.New(p.bridge, sink, log)

	log.Info("starting batch", "kind", parsed.Kind)
	var res *batch.Result
	switch parsed.Kind {
	case models.KindRenderAll:
		res, err = orch.RenderAll(ctx)
	case models.KindRenderSet:
		res, err = orch.RenderSet(ctx, inputPaths)
	}
	if err != nil {
		return p.failJob(ctx, jobID, errors.Wrap(err, "processor.render", "batch render failed"))
	}
	log.Debug("batch completed", "entries", res.Entries, "errors", res.Errors)

	// 5. Persist the batch report
	log.Debug("writing batch report")
	reportKey, err := p.report.Write(ctx, jobID, res)
	if err != nil {
		return p.failJob(ctx, jobID, errors.Wrap(err, "processor.report", "failed to write batch report"))
	}

	// 6. Clean up materialized inputs
	if !parsed.KeepFiles {
		p.cleanup.CleanupJob(jobID)
		log.Debug("cleanup completed")
	}

	// 7. Mark as done. Unit failures are accounted in the report; only an
	// orchestrator-level fault fails the job.
	return p.jobs.MarkDone(ctx, jobID, reportKey, res.Entries, res.Errors)
}

func (p *Processor) failJob(ctx context.Context, jobID string, cause error) error {
	log := p.log.FromContext(ctx).WithJobID(jobID)

	msg := ""
	if cause != nil {
		msg = cause.Error()
		if len(msg) > 2000 {
			msg = msg[:2000]
		}

		var domainErr *errors.Error
		if errors.As(cause, &domainErr) {
			log.Error("job failed",
				"code", string(domainErr.Code),
				"op", domainErr.Op,
				"message", domainErr.Message,
			)
		} else {
			log.Error("job failed", "error", msg)
		}
	}

	_ = p.jobs.MarkFailed(ctx, jobID, msg)

	return cause
}
