package server

import (
	"strconv"
	"strings"

	rediscache "yatube/internal/cache"
	"yatube/internal/featureflags"
	"yatube/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
)

const (
	cacheHeader        = "X-Cache"
	indexCacheMaxBytes = 16 << 20
)

// indexCache caches whole index page responses for INDEX_CACHE_TTL. Entries
// expire by time only; new posts show up once the TTL has passed. Responses
// live in Redis when it is configured and in process memory otherwise.
func (s *Server) indexCache() fiber.Handler {
	ttl := s.config.IndexCacheTTL
	if ttl <= 0 {
		ttl = rediscache.IndexPageTTL
	}

	cfg := cache.Config{
		Expiration:  ttl,
		CacheHeader: cacheHeader,
		// Called before the handler and again after it: disabled cache, or
		// nothing worth keeping.
		Next: func(c *fiber.Ctx) bool {
			if !s.featureFlags.EnabledOr(featureflags.IndexCache, currentUserID(c), true) {
				return true
			}
			status := c.Response().StatusCode()
			return status != fiber.StatusOK
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			format := "html"
			if wantsJSON(c) {
				format = "json"
			}
			return rediscache.IndexPageKey(format, c.Path()+"?page="+indexPageParam(c), currentUserID(c))
		},
		MaxBytes: indexCacheMaxBytes,
	}
	if s.redis != nil {
		cfg.Storage = rediscache.NewStorage(s.redis, "")
	}
	handler := cache.New(cfg)

	return func(c *fiber.Ctx) error {
		err := handler(c)
		if result := strings.ToLower(string(c.Response().Header.Peek(cacheHeader))); result != "" {
			observability.IndexCache.WithLabelValues(result).Inc()
		}
		return err
	}
}

// indexPageParam is the page query value as the paginator will read it.
// Other query parameters do not change the page, so they stay out of the key.
func indexPageParam(c *fiber.Ctx) string {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query("page")))
	if err != nil || n < 1 {
		n = 1
	}
	return strconv.Itoa(n)
}
