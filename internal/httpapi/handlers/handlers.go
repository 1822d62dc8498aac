package handlers

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"rulemark/internal/bridge"
	"rulemark/internal/pkg/logger"
	"rulemark/internal/ports"
	"rulemark/internal/repositories"
)

type Deps struct {
	Pool   *pgxpool.Pool
	RDB    *redis.Client
	SP     ports.StorageProvider
	Bridge *bridge.Client
	Log    *logger.Logger
	Queue  string
}

type Handler struct {
	pool     *pgxpool.Pool
	rdb      *redis.Client
	sp       ports.StorageProvider
	bridge   *bridge.Client
	log      *logger.Logger
	queue    string
	jobs     *repositories.JobRepository
	rulesets *repositories.RulesetRepository
}

func New(d Deps) *Handler {
	if d.Log == nil {
		d.Log = logger.NewDefault()
	}
	return &Handler{
		pool:     d.Pool,
		rdb:      d.RDB,
		sp:       d.SP,
		bridge:   d.Bridge,
		log:      d.Log.WithComponent("httpapi"),
		queue:    d.Queue,
		jobs:     repositories.NewJobRepository(d.Pool),
		rulesets: repositories.NewRulesetRepository(d.Pool),
	}
}
