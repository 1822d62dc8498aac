package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"rulemark/internal/httpapi/util"
	"rulemark/internal/httpkit"
	"rulemark/internal/models"
	"rulemark/internal/repositories"
)

type CreateRulesetRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Files       []string       `json:"files"`
	Defaults    map[string]any `json:"defaults,omitempty"`
}

func (h *Handler) PostRuleset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRulesetRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid json body", nil)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "name is required", map[string]any{"field": "name"})
		return
	}
	if len(req.Files) == 0 {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "files must not be empty", map[string]any{"field": "files"})
		return
	}
	for _, f := range req.Files {
		if strings.TrimSpace(f) == "" {
			httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "files must not contain blank entries", map[string]any{"field": "files"})
			return
		}
	}

	set := &models.Ruleset{
		ID:          util.NewID("set"),
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Files:       req.Files,
		Defaults:    req.Defaults,
	}

	if err := h.rulesets.Create(ctx, set); err != nil {
		if errors.Is(err, repositories.ErrRulesetNameExists) {
			httpkit.WriteErr(w, 409, "RULESET_NAME_EXISTS", "ruleset name already exists", map[string]any{"field": "name"})
			return
		}
		h.log.FromContext(ctx).WithError(err).Error("ruleset insert failed")
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db insert failed", nil)
		return
	}

	httpkit.WriteJSON(w, 201, map[string]any{"ruleset": set})
}

func (h *Handler) ListRulesets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sets, err := h.rulesets.List(ctx)
	if err != nil {
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db query failed", nil)
		return
	}
	if sets == nil {
		sets = []models.Ruleset{}
	}

	httpkit.WriteJSON(w, 200, map[string]any{"rulesets": sets})
}

func (h *Handler) GetRuleset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rulesetID := chi.URLParam(r, "rulesetId")

	set, err := h.rulesets.Get(ctx, rulesetID)
	if err != nil {
		httpkit.WriteErr(w, 404, "RULESET_NOT_FOUND", "ruleset not found", map[string]any{"ruleset_id": rulesetID})
		return
	}

	httpkit.WriteJSON(w, 200, map[string]any{"ruleset": set})
}

func (h *Handler) DeleteRuleset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rulesetID := chi.URLParam(r, "rulesetId")

	if err := h.rulesets.Delete(ctx, rulesetID); err != nil {
		if errors.Is(err, repositories.ErrRulesetNotFound) {
			httpkit.WriteErr(w, 404, "RULESET_NOT_FOUND", "ruleset not found", map[string]any{"ruleset_id": rulesetID})
			return
		}
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db delete failed", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
