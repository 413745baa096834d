// Package redis provides the shared Redis connections: a main instance for
// conversation state and rate limiting, and a dedicated instance for the
// forecast task queue.
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AlexYAT/vedic-astrologer-bot/pkg/logger"

	redis "github.com/redis/go-redis/v9"
)

const (
	// DefaultPoolSize is the connection pool size.
	DefaultPoolSize = 100
	// DefaultTimeout bounds individual operations.
	DefaultTimeout = 5 * time.Second
	// DefaultMinIdleConns keeps warm connections around.
	DefaultMinIdleConns = 10
	// DefaultMaxRetries for transient failures.
	DefaultMaxRetries = 3
	// DefaultIdleTimeout for pooled connections.
	DefaultIdleTimeout = 5 * time.Minute
)

// Instance names the two databases the app uses.
type Instance string

const (
	MainDB  Instance = "main"  // conversation state, rate limiting
	QueueDB Instance = "queue" // forecast task queue
)

// Client wraps a go-redis client with operation timeouts.
type Client struct {
	Client  *redis.Client
	Context context.Context
}

// Config collects connection settings for one instance.
type Config struct {
	Address      string
	Username     string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	Timeout      time.Duration
}

// Manager holds every configured instance.
type ManagerType struct {
	instances map[Instance]*Client
	mutex     sync.RWMutex
}

var (
	once sync.Once

	// Manager is the global instance registry.
	Manager *ManagerType

	// Redis is the main instance, kept for the shorter call sites.
	Redis *Client
)

// InitRedis connects both instances. Called once from bootstrap.
func InitRedis(address, username, password string, mainDB, queueDB int) {
	once.Do(func() {
		Manager = &ManagerType{
			instances: make(map[Instance]*Client),
		}

		base := Config{
			Address:      address,
			Username:     username,
			Password:     password,
			PoolSize:     DefaultPoolSize,
			MinIdleConns: DefaultMinIdleConns,
			Timeout:      DefaultTimeout,
		}

		mainConfig := base
		mainConfig.DB = mainDB
		Manager.instances[MainDB] = NewClient(mainConfig)

		queueConfig := base
		queueConfig.DB = queueDB
		Manager.instances[QueueDB] = NewClient(queueConfig)

		Redis = Manager.instances[MainDB]
	})
}

// NewClient builds and pings one Redis client.
func NewClient(config Config) *Client {
	rds := &Client{
		Context: context.Background(),
	}

	rds.Client = redis.NewClient(&redis.Options{
		Addr:         config.Address,
		Username:     config.Username,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,

		PoolTimeout:     config.Timeout,
		ConnMaxIdleTime: DefaultIdleTimeout,
		ConnMaxLifetime: 24 * time.Hour,

		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,

		MaxRetries:      DefaultMaxRetries,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
	})

	if err := rds.Ping(); err != nil {
		panic(fmt.Sprintf("redis connection failed: %v", err))
	}

	return rds
}

// GetRedis returns the named instance, falling back to main.
func GetRedis(instance Instance) *Client {
	Manager.mutex.RLock()
	defer Manager.mutex.RUnlock()

	if client, ok := Manager.instances[instance]; ok {
		return client
	}
	return Redis
}

// Ping checks connectivity.
func (rds *Client) Ping() error {
	ctx, cancel := context.WithTimeout(rds.Context, DefaultTimeout)
	defer cancel()

	_, err := rds.Client.Ping(ctx).Result()
	return err
}

// Set stores a key with an expiration. Returns false on failure.
func (rds *Client) Set(key string, value interface{}, expiration time.Duration) bool {
	ctx, cancel := context.WithTimeout(rds.Context, DefaultTimeout)
	defer cancel()

	if err := rds.Client.Set(ctx, key, value, expiration).Err(); err != nil {
		logger.ErrorString("Redis", "Set", err.Error())
		return false
	}
	return true
}

// Get fetches a key, returning "" when absent.
func (rds *Client) Get(key string) string {
	ctx, cancel := context.WithTimeout(rds.Context, DefaultTimeout)
	defer cancel()

	result, err := rds.Client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			logger.ErrorString("Redis", "Get", err.Error())
		}
		return ""
	}
	return result
}

// Has reports whether a key exists.
func (rds *Client) Has(key string) bool {
	ctx, cancel := context.WithTimeout(rds.Context, DefaultTimeout)
	defer cancel()

	n, err := rds.Client.Exists(ctx, key).Result()
	if err != nil {
		logger.ErrorString("Redis", "Has", err.Error())
		return false
	}
	return n > 0
}

// Del removes keys.
func (rds *Client) Del(keys ...string) bool {
	ctx, cancel := context.WithTimeout(rds.Context, DefaultTimeout)
	defer cancel()

	if err := rds.Client.Del(ctx, keys...).Err(); err != nil {
		logger.ErrorString("Redis", "Del", err.Error())
		return false
	}
	return true
}
