package handlers

import (
	"net/http"
	"strings"

	"rulemark/internal/bridge"
	"rulemark/internal/httpkit"
)

// GetSummary returns the engine's per-type record counts.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := h.bridge.Summary(ctx)
	if err != nil {
		h.log.FromContext(ctx).WithError(err).Error("summary failed")
		httpkit.WriteDomainErr(w, err)
		return
	}

	httpkit.WriteJSON(w, 200, map[string]any{"summary": summary})
}

type RenderRequest struct {
	Type  string   `json:"type,omitempty"`
	Types []string `json:"types,omitempty"`
	Limit *int     `json:"limit,omitempty"`
}

// PostRender renders one or more entity types synchronously and returns the
// entries inline. Large corpora belong in an async job, not here.
func (h *Handler) PostRender(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RenderRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid json body", nil)
		return
	}

	req.Type = strings.TrimSpace(req.Type)
	if req.Type == "" && len(req.Types) == 0 {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "type or types is required", map[string]any{"field": "type"})
		return
	}
	if req.Type != "" && len(req.Types) > 0 {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "type and types are mutually exclusive", map[string]any{"field": "types"})
		return
	}

	opts := bridge.RenderOpts{Limit: req.Limit}
	log := h.log.FromContext(ctx)

	if req.Type != "" {
		entries, err := h.bridge.RenderType(ctx, req.Type, opts)
		if err != nil {
			log.WithError(err).Error("render failed", "type", req.Type)
			httpkit.WriteDomainErr(w, err)
			return
		}
		httpkit.WriteJSON(w, 200, map[string]any{"entries": map[string][]bridge.Entry{req.Type: entries}})
		return
	}

	sets, err := h.bridge.RenderTypes(ctx, req.Types, opts)
	if err != nil {
		log.WithError(err).Error("render failed", "types", req.Types)
		httpkit.WriteDomainErr(w, err)
		return
	}
	httpkit.WriteJSON(w, 200, map[string]any{"entries": sets})
}
