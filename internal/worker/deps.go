package worker

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"rulemark/internal/bridge"
	"rulemark/internal/pkg/logger"
	"rulemark/internal/ports"
)

type Deps struct {
	Pool         *pgxpool.Pool
	RDB          *redis.Client
	SP           ports.StorageProvider
	Bridge       *bridge.Client
	Log          *logger.Logger
	QueueName    string
	WorkRoot     string
	CleanupLocal bool
}
