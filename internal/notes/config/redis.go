package config

import (
	"time"

	"cleannote/pkg/db/redis"
	"cleannote/pkg/resilience"
)

// RedisConfig configures the optional GetByID cache.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" env:"NOTES_REDIS_ENABLED" env-default:"false"`
	Host     string        `yaml:"host" env:"NOTES_REDIS_HOST" env-default:"localhost"`
	Port     int           `yaml:"port" env:"NOTES_REDIS_PORT" env-default:"6379"`
	Password string        `yaml:"password" env:"NOTES_REDIS_PASSWORD" env-default:""`
	DB       int           `yaml:"db" env:"NOTES_REDIS_DB" env-default:"0"`
	PoolSize int           `yaml:"pool_size" env:"NOTES_REDIS_POOL_SIZE" env-default:"10"`
	Timeout  time.Duration `yaml:"timeout" env:"NOTES_REDIS_TIMEOUT" env-default:"3s"`
	TTL      time.Duration `yaml:"ttl" env:"NOTES_REDIS_TTL" env-default:"15m"`

	// Consecutive Redis failures after which the cache is bypassed for BreakerTimeout.
	BreakerThreshold int           `yaml:"breaker_threshold" env:"NOTES_REDIS_BREAKER_THRESHOLD" env-default:"5"`
	BreakerTimeout   time.Duration `yaml:"breaker_timeout" env:"NOTES_REDIS_BREAKER_TIMEOUT" env-default:"30s"`
}

// ClientConfig converts to the connection settings used by pkg/db/redis.
func (c *RedisConfig) ClientConfig() *redis.Config {
	return &redis.Config{
		Host:     c.Host,
		Port:     c.Port,
		Password: c.Password,
		DB:       c.DB,
		PoolSize: c.PoolSize,
		Timeout:  c.Timeout,
	}
}

// BreakerConfig returns the circuit breaker settings for cache calls.
func (c *RedisConfig) BreakerConfig() resilience.BreakerConfig {
	return resilience.BreakerConfig{
		ErrorThreshold:   c.BreakerThreshold,
		Timeout:          c.BreakerTimeout,
		SuccessThreshold: 1,
	}
}
