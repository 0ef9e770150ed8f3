package services

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/soslookup/ilsos-api/internal/config"
	"github.com/soslookup/ilsos-api/internal/scraper"
)

// Container holds the service dependencies shared by the API handlers.
type Container struct {
	config      *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client

	Cache   *CacheService
	Scraper *scraper.Scraper
}

// NewContainer wires Redis, the cache, and the scraper. A failed Redis
// connection degrades to memory-only caching instead of aborting startup.
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	container := &Container{
		config: cfg,
		logger: logger,
	}

	container.initRedis()
	container.Cache = NewCacheService(container.redisClient, cfg.Redis.CacheTTL, logger)
	container.Cache.StartCleanupRoutine()
	container.Scraper = scraper.New(cfg, logger)

	return container, nil
}

func (c *Container) initRedis() {
	c.redisClient = redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", c.config.Redis.Host, c.config.Redis.Port),
		Password:     c.config.Redis.Password,
		DB:           c.config.Redis.DB,
		PoolSize:     c.config.Redis.PoolSize,
		DialTimeout:  c.config.Redis.DialTimeout,
		ReadTimeout:  c.config.Redis.ReadTimeout,
		WriteTimeout: c.config.Redis.WriteTimeout,
	})

	if err := c.redisClient.Ping(context.Background()).Err(); err != nil {
		c.logger.Warn("Redis connection failed, running without cache")
		c.redisClient = nil
	} else {
		c.logger.Info("Redis connection established")
	}
}

// Close releases held connections.
func (c *Container) Close() error {
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}
	return nil
}

// Health aggregates per-service health.
func (c *Container) Health() map[string]interface{} {
	health := make(map[string]interface{})
	health["cache"] = c.Cache.Health()
	return health
}

// GetConfig returns the configuration.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the logger.
func (c *Container) GetLogger() *logrus.Logger {
	return c.logger
}
