package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"rulemark/internal/httpkit"
	"rulemark/internal/ports"
)

// Input files are curated rule JSON uploaded for render_set jobs. They live
// in storage under inputs/ and are referenced by name from ruleset files.

func (h *Handler) PostInput(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid multipart form", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "file is required", map[string]any{"field": "file"})
		return
	}
	defer file.Close()

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = header.Filename
	}
	name = sanitizeInputName(name)
	if name == "" {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "name is required", map[string]any{"field": "name"})
		return
	}
	if !strings.HasSuffix(name, ".json") {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "input must be a .json file", map[string]any{"field": "name"})
		return
	}

	objectKey := fmt.Sprintf("inputs/%s", name)

	out, err := h.sp.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   objectKey,
		ContentType: "application/json",
		Reader:      file,
		Size:        header.Size,
	})
	if err != nil {
		h.log.FromContext(ctx).WithError(err).Error("input upload failed", "object_key", objectKey)
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "storage put failed", nil)
		return
	}

	httpkit.WriteJSON(w, 201, map[string]any{
		"input": map[string]any{
			"name":       name,
			"object_key": out.ObjectKey,
			"size_bytes": out.Size,
			"provider":   h.sp.Provider(),
		},
	})
}

func (h *Handler) StreamInput(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name := sanitizeInputName(chi.URLParam(r, "inputName"))
	objectKey := fmt.Sprintf("inputs/%s", name)

	rc, ct, size, err := h.sp.GetObject(ctx, objectKey)
	if err != nil {
		httpkit.WriteErr(w, 404, "INPUT_NOT_FOUND", "input file not found", map[string]any{"name": name})
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

func (h *Handler) DeleteInput(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name := sanitizeInputName(chi.URLParam(r, "inputName"))
	objectKey := fmt.Sprintf("inputs/%s", name)

	if err := h.sp.DeleteObject(ctx, objectKey); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			httpkit.WriteErr(w, 404, "INPUT_NOT_FOUND", "input file not found", map[string]any{"name": name})
			return
		}
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "storage delete failed", map[string]any{"object_key": objectKey})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// sanitizeInputName keeps uploads from escaping the inputs/ prefix.
func sanitizeInputName(name string) string {
	name = strings.TrimSpace(name)
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
