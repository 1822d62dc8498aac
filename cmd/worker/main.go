package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"rulemark/internal/bridge"
	"rulemark/internal/pkg/logger"
	"rulemark/internal/storage"
	"rulemark/internal/worker"
	"rulemark/internal/worker/util"
)

func main() {
	log := logger.New(logger.Config{
		Level:       util.Env("LOG_LEVEL", "info"),
		Format:      util.Env("LOG_FORMAT", "json"),
		ServiceName: "rulemark-worker",
	})

	log.Info("starting rulemark worker", "version", "0.1.0")

	dbURL := util.MustEnv("DATABASE_URL")
	redisAddr := util.MustEnv("REDIS_ADDR")
	engineScript := util.MustEnv("ENGINE_SCRIPT")
	workRoot := util.Env("WORK_ROOT", "/data")
	queueName := util.Env("JOB_QUEUE_NAME", "rulemark:jobs")
	cleanupLocal := util.BoolEnv("CLEANUP_LOCAL", true)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	sp, err := storage.NewProvider()
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}

	// Build the bridge once at startup; a missing script or runtime is a
	// deployment problem, not a per-job one.
	client, err := bridge.New(bridge.Config{
		ScriptPath: engineScript,
		Runtime:    util.Env("NODE_RUNTIME", ""),
		Log:        log,
	})
	if err != nil {
		log.LogFatal("failed to initialize engine bridge", err)
	}

	deps := worker.Deps{
		Pool:         pool,
		RDB:          rdb,
		SP:           sp,
		Bridge:       client,
		Log:          log,
		QueueName:    queueName,
		WorkRoot:     workRoot,
		CleanupLocal: cleanupLocal,
	}

	if err := worker.Run(ctx, deps); err != nil && !errors.Is(err, context.Canceled) {
		log.LogFatal("worker stopped", err)
	}
	log.Info("worker stopped")
}
