package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"rulemark/internal/httpapi/util"
	"rulemark/internal/httpkit"
	"rulemark/internal/models"
	"rulemark/internal/repositories"
)

type CreateJobRequest struct {
	Kind   string         `json:"kind"`
	Params map[string]any `json:"params,omitempty"`
}

func (h *Handler) PostJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateJobRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid json body", nil)
		return
	}
	if req.Params == nil {
		req.Params = map[string]any{}
	}

	req.Kind = strings.TrimSpace(req.Kind)
	switch req.Kind {
	case models.KindRenderAll:
		// no required params
	case models.KindRenderSet:
		rulesetID, _ := req.Params["ruleset_id"].(string)
		if strings.TrimSpace(rulesetID) == "" {
			httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "params.ruleset_id is required for render_set", map[string]any{"field": "params.ruleset_id"})
			return
		}
		if _, err := h.rulesets.Get(ctx, rulesetID); err != nil {
			httpkit.WriteErr(w, 404, "RULESET_NOT_FOUND", "ruleset not found", map[string]any{"ruleset_id": rulesetID})
			return
		}
	default:
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "kind must be render_all or render_set", map[string]any{"field": "kind"})
		return
	}

	job := &models.Job{
		ID:     util.NewID("job"),
		Kind:   req.Kind,
		Status: models.JobQueued,
		Params: req.Params,
	}

	if err := h.jobs.Create(ctx, job); err != nil {
		h.log.FromContext(ctx).WithError(err).Error("job insert failed")
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db insert failed", nil)
		return
	}

	if err := h.rdb.LPush(ctx, h.queue, job.ID).Err(); err != nil {
		h.log.FromContext(ctx).WithError(err).Error("queue push failed")
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "queue push failed", nil)
		return
	}

	httpkit.WriteJSON(w, 201, map[string]any{"job": job})
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}

	jobs, err := h.jobs.List(ctx, limit)
	if err != nil {
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db query failed", nil)
		return
	}
	if jobs == nil {
		jobs = []models.Job{}
	}

	httpkit.WriteJSON(w, 200, map[string]any{"jobs": jobs})
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "jobId")

	job, err := h.jobs.Get(ctx, jobID)
	if err != nil {
		httpkit.WriteErr(w, 404, "JOB_NOT_FOUND", "job not found", map[string]any{"job_id": jobID})
		return
	}

	httpkit.WriteJSON(w, 200, map[string]any{"job": job})
}

// GetJobReport streams the batch report artifact produced by the worker.
func (h *Handler) GetJobReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "jobId")

	job, err := h.jobs.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrJobNotFound) {
			httpkit.WriteErr(w, 404, "JOB_NOT_FOUND", "job not found", map[string]any{"job_id": jobID})
			return
		}
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db query failed", nil)
		return
	}
	if job.ReportKey == "" {
		httpkit.WriteErr(w, 404, "REPORT_NOT_READY", "job has no report yet", map[string]any{"job_id": jobID, "status": job.Status})
		return
	}

	rc, ct, size, err := h.sp.GetObject(ctx, job.ReportKey)
	if err != nil {
		httpkit.WriteErr(w, 404, "REPORT_FILE_MISSING", "report file missing", map[string]any{"object_key": job.ReportKey})
		return
	}
	defer rc.Close()

	if ct == "" {
		ct = "application/json"
	}
	w.Header().Set("Content-Type", ct)
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	_, _ = io.Copy(w, rc)
}
