// Package observability provides metrics and tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// PostsCreated counts newly published posts.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_posts_created_total",
		Help: "Total number of posts created",
	})

	// PostsEdited counts successful post edits.
	PostsEdited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_posts_edited_total",
		Help: "Total number of posts edited",
	})

	// CommentsCreated counts stored comments.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_comments_created_total",
		Help: "Total number of comments created",
	})

	// Follows counts follow graph changes by action (follow, unfollow).
	Follows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_follows_total",
		Help: "Total number of follow and unfollow actions that changed the graph",
	}, []string{"action"})

	// IndexCache counts index page cache lookups by result (hit, miss, unreachable).
	IndexCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_index_cache_total",
		Help: "Index page cache lookups by result",
	}, []string{"result"})

	// EventsPublished counts domain events handed to the broker by type and outcome.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_events_published_total",
		Help: "Domain events published by type and outcome",
	}, []string{"type", "outcome"})
)
