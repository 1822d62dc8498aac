package httpapi

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"rulemark/internal/bridge"
	"rulemark/internal/httpapi/handlers"
	"rulemark/internal/httpkit"
	"rulemark/internal/pkg/logger"
	"rulemark/internal/pkg/middleware"
	"rulemark/internal/ports"
)

type Deps struct {
	Pool   *pgxpool.Pool
	RDB    *redis.Client
	SP     ports.StorageProvider
	Bridge *bridge.Client
	Log    *logger.Logger
	Queue  string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	if d.Log == nil {
		d.Log = logger.NewDefault()
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(d.Log))
	r.Use(middleware.Recovery(d.Log))

	// ---- CORS (Swagger UI + future frontend) ----
	allowedOrigins := envCSV("CORS_ALLOWED_ORIGINS", []string{
		"http://localhost:8081",
		"http://localhost:5173",
	})
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAgeSeconds:    600,
	}))

	h := handlers.New(handlers.Deps{
		Pool:   d.Pool,
		RDB:    d.RDB,
		SP:     d.SP,
		Bridge: d.Bridge,
		Log:    d.Log,
		Queue:  d.Queue,
	})

	// ---- HEALTH ----
	r.Get("/health", h.Health)

	// ---- ENGINE ----
	r.Get("/summary", h.GetSummary)
	r.Post("/render", h.PostRender)

	// ---- INPUTS ----
	r.Post("/inputs", h.PostInput)
	r.Get("/inputs/{inputName}", h.StreamInput)
	r.Delete("/inputs/{inputName}", h.DeleteInput)

	// ---- RULESETS ----
	r.Post("/rulesets", h.PostRuleset)
	r.Get("/rulesets", h.ListRulesets)
	r.Get("/rulesets/{rulesetId}", h.GetRuleset)
	r.Delete("/rulesets/{rulesetId}", h.DeleteRuleset)

	// ---- JOBS ----
	r.Post("/jobs", h.PostJob)
	r.Get("/jobs", h.ListJobs)
	r.Get("/jobs/{jobId}", h.GetJob)
	r.Get("/jobs/{jobId}/report", h.GetJobReport)

	return r
}

func envCSV(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
