// Package api exposes the resolvers over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guohuiyuan/music-stream/model"
	"github.com/guohuiyuan/music-stream/provider"
	"github.com/guohuiyuan/music-stream/saavn"
	"github.com/guohuiyuan/music-stream/stream"
)

type StreamResolver interface {
	ResolveStream(ctx context.Context, q model.TrackQuery) stream.Outcome
}

type CatalogSearcher interface {
	ResolveTrace(ctx context.Context, title, artist string, opts saavn.Options) (*model.CatalogCandidate, saavn.Trace, error)
	SearchAll(ctx context.Context, query string, limit int) ([]model.CatalogCandidate, saavn.Trace, error)
}

type Recommender interface {
	Similar(ctx context.Context, title, artist string, limit int) ([]model.Video, error)
}

type FeedFetcher interface {
	Fetch(ctx context.Context, channelIDs []string, perChannelLimit int) []model.FeedItem
}

type Subscriptions interface {
	Subscribe(ctx context.Context, token string, channelIDs []string) error
	Channels(ctx context.Context, token string) ([]string, error)
}

// Handlers exposes the HTTP handlers. Nil dependencies leave their routes unregistered.
type Handlers struct {
	Stream        StreamResolver
	Catalog       CatalogSearcher
	Recommend     Recommender
	Feeds         FeedFetcher
	Subscriptions Subscriptions
	Registry      provider.InstanceSource
}

// Options configures the router's middleware.
type Options struct {
	Origins   []string
	RateLimit float64
	Burst     int
}

// NewRouter wires middleware and routes.
func NewRouter(h *Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(), securityHeaders(), cors(opts.Origins), rateLimit(opts.RateLimit, opts.Burst))

	r.GET("/health", h.HandleHealth)

	g := r.Group("/api")
	if h.Stream != nil {
		g.GET("/stream", h.HandleStream)
	}
	if h.Catalog != nil {
		g.GET("/jiosaavn/search", h.HandleCatalogSearch)
		g.GET("/jiosaavn/search/all", h.HandleCatalogSearchAll)
	}
	if h.Recommend != nil {
		g.GET("/similar", h.HandleSimilar)
	}
	if h.Feeds != nil {
		g.GET("/feed/unauthenticated", h.HandleChannelFeed)
		g.GET("/feed/channels/:channels", h.HandleChannelFeed)
		if h.Subscriptions != nil {
			g.GET("/feed", h.HandleFeed)
			g.POST("/feed/subscriptions", h.HandleSubscribe)
		}
	}
	if h.Registry != nil {
		g.GET("/instances", h.HandleInstances)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Route not found",
			"message": "Cannot " + c.Request.Method + " " + c.Request.URL.Path,
		})
	})
	return r
}
