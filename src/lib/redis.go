package lib

import (
	"log"
	"os"
	"time"

	"dsb/src/catalog"
	"dsb/src/config"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}

// NewCatalogCache picks the cache backing for the service catalog. Without a
// reachable redis the catalog falls back to a process-local cache.
func NewCatalogCache() catalog.Cache {
	ttl := config.CATALOG_CACHE_TTL_SECONDS * time.Second
	if rdb := GetRedisClient(); rdb != nil {
		return catalog.NewRedisCache(rdb, ttl)
	}
	log.Println("[redis] client unavailable, using in-process catalog cache")
	return catalog.NewMemoryCache(ttl)
}
