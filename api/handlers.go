package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guohuiyuan/music-stream/feed"
	"github.com/guohuiyuan/music-stream/lastfm"
	"github.com/guohuiyuan/music-stream/model"
	"github.com/guohuiyuan/music-stream/saavn"
	"github.com/sirupsen/logrus"
)

const (
	cachePrivate = "private"
	cachePublic  = "public, s-maxage=120"
)

func timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// flag reports whether a query parameter is "1" or "true".
func flag(c *gin.Context, name string) bool {
	v := c.Query(name)
	return v == "1" || strings.EqualFold(v, "true")
}

// intQuery parses name, falling back to def and clamping to [lo, hi].
func intQuery(c *gin.Context, name string, def, lo, hi int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		n = def
	}
	return min(max(n, lo), hi)
}

// HandleStream resolves a playable URL.
// GET /api/stream?id=&title=&artist=
func (h *Handlers) HandleStream(c *gin.Context) {
	q := model.TrackQuery{VideoID: c.Query("id"), Title: c.Query("title"), Artist: c.Query("artist")}
	out := h.Stream.ResolveStream(c.Request.Context(), q)

	body := gin.H{
		"requestedId":     q.VideoID,
		"requestedTitle":  q.Title,
		"requestedArtist": q.Artist,
		"timestamp":       timestamp(),
	}

	switch out.Status {
	case http.StatusOK:
		res := out.Result
		body["success"] = true
		body["service"] = res.Service
		if res.Instance != "" {
			body["instance"] = res.Instance
		}
		if res.StreamURL != "" {
			body["streamUrl"] = res.StreamURL
		}
		body["streamingUrls"] = res.StreamingURLs
		body["metadata"] = res.Metadata
	case http.StatusBadRequest:
		body = gin.H{
			"success": false,
			"error":   "Missing required parameters: id, title, and artist are required",
			"details": out.Err.Error(),
		}
	case http.StatusNotFound:
		body["success"] = false
		body["error"] = "No streaming data found from any source"
	default:
		logrus.Errorf("[api] stream %s: %v", q.VideoID, out.Err)
		body["success"] = false
		body["error"] = "Internal server error"
	}
	c.JSON(out.Status, body)
}

// HandleCatalogSearch returns the catalog entry matching title and artist.
// GET /api/jiosaavn/search?title=&artist=[&strict=1][&debug=1]
func (h *Handlers) HandleCatalogSearch(c *gin.Context) {
	title, artist := strings.TrimSpace(c.Query("title")), strings.TrimSpace(c.Query("artist"))
	if title == "" || artist == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing title or artist parameters"})
		return
	}

	cand, trace, err := h.Catalog.ResolveTrace(c.Request.Context(), title, artist, saavn.Options{Strict: flag(c, "strict")})
	if err != nil {
		c.JSON(model.HTTPStatus(err), gin.H{"error": "JioSaavn search failed: " + err.Error()})
		return
	}

	artists := make([]model.Artist, 0, len(cand.Artists.Primary)+len(cand.Artists.Featured)+len(cand.Artists.All))
	artists = append(artists, cand.Artists.Primary...)
	artists = append(artists, cand.Artists.Featured...)
	artists = append(artists, cand.Artists.All...)

	body := gin.H{
		"id":          cand.ID,
		"name":        cand.Name,
		"year":        cand.Year,
		"copyright":   cand.Copyright,
		"duration":    cand.DurationSeconds,
		"label":       cand.Label,
		"albumName":   cand.Album.Name,
		"artists":     artists,
		"downloadUrl": cand.DownloadURL,
		"image":       cand.Thumbnail,
		"language":    cand.Language,
		"hasLyrics":   cand.HasLyrics,
	}
	if flag(c, "debug") {
		body["_debug"] = gin.H{
			"queriedUrl":     trace.QueriedURL,
			"timeMs":         trace.TimeMs,
			"matchedArtists": cand.Artists,
		}
	}
	c.JSON(http.StatusOK, body)
}

// HandleCatalogSearchAll lists every catalog hit for a free-text query.
// GET /api/jiosaavn/search/all?q=&limit=
func (h *Handlers) HandleCatalogSearchAll(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query parameter 'q'"})
		return
	}
	limit := intQuery(c, "limit", 10, 1, 50)

	results, trace, err := h.Catalog.SearchAll(c.Request.Context(), query, limit)
	if err != nil {
		c.JSON(model.HTTPStatus(err), gin.H{"error": "JioSaavn search all failed: " + err.Error()})
		return
	}

	body := gin.H{"query": query, "total": len(results), "results": results}
	if flag(c, "debug") {
		body["_debug"] = trace
	}
	c.JSON(http.StatusOK, body)
}

// HandleSimilar lists videos for tracks similar to title and artist.
// GET /api/similar?title=&artist=&limit=
func (h *Handlers) HandleSimilar(c *gin.Context) {
	title, artist := strings.TrimSpace(c.Query("title")), strings.TrimSpace(c.Query("artist"))
	if title == "" || artist == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing title or artist parameter"})
		return
	}

	videos, err := h.Recommend.Similar(c.Request.Context(), title, artist, intQuery(c, "limit", 5, 1, 50))
	if err != nil {
		status := model.HTTPStatus(err)
		if errors.Is(err, lastfm.ErrNoAPIKey) {
			status = http.StatusServiceUnavailable
		}
		logrus.Warnf("[api] similar %s - %s: %v", title, artist, err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, videos)
}

func feedError(c *gin.Context, status int, msg string) {
	c.Header("Cache-Control", cachePrivate)
	c.JSON(status, gin.H{"error": true, "message": msg})
}

// HandleFeed returns the uploads of every channel the token follows.
// GET /api/feed?authToken=[&preview=1]
func (h *Handlers) HandleFeed(c *gin.Context) {
	token := strings.TrimSpace(c.Query("authToken"))
	if token == "" {
		feedError(c, http.StatusBadRequest, "session is a required parameter")
		return
	}

	ids, err := h.Subscriptions.Channels(c.Request.Context(), token)
	if err != nil || len(ids) == 0 {
		if err != nil {
			logrus.Errorf("[api] feed channels: %v", err)
		}
		feedError(c, http.StatusUnauthorized, "Authentication failed")
		return
	}

	items := h.Feeds.Fetch(c.Request.Context(), ids, 0)
	if flag(c, "preview") {
		items = feed.Top(items, feed.PreviewSize)
	}
	c.Header("Cache-Control", cachePrivate)
	c.JSON(http.StatusOK, items)
}

// HandleChannelFeed returns the uploads of an explicit channel list.
// GET /api/feed/unauthenticated?channels=a,b[&preview=1]
// GET /api/feed/channels/:channels[?preview=1]
func (h *Handlers) HandleChannelFeed(c *gin.Context) {
	raw := c.Param("channels")
	if raw == "" {
		raw = c.Query("channels")
	}
	ids := feed.ParseIDs(raw)
	if len(ids) == 0 {
		feedError(c, http.StatusBadRequest, "No valid channel IDs provided")
		return
	}

	limit := 0
	if flag(c, "preview") {
		limit = feed.PreviewSize
	}
	c.Header("Cache-Control", cachePublic)
	c.JSON(http.StatusOK, h.Feeds.Fetch(c.Request.Context(), ids, limit))
}

type subscribeRequest struct {
	AuthToken string   `json:"authToken" binding:"required"`
	Channels  []string `json:"channels" binding:"required,min=1"`
}

// HandleSubscribe adds channels to a token.
// POST /api/feed/subscriptions {"authToken": "...", "channels": ["UC..."]}
func (h *Handlers) HandleSubscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		feedError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	if err := h.Subscriptions.Subscribe(ctx, req.AuthToken, req.Channels); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, feed.ErrEmptyToken) {
			status = http.StatusBadRequest
		}
		feedError(c, status, err.Error())
		return
	}
	ids, err := h.Subscriptions.Channels(ctx, req.AuthToken)
	if err != nil {
		feedError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{"authToken": req.AuthToken, "channels": ids})
}

// concurrencyReporter is implemented by feed.Aggregator.
type concurrencyReporter interface {
	Concurrency() int
}

// HandleHealth reports liveness plus the feed fan-out limit when feeds are enabled.
// GET /health
func (h *Handlers) HandleHealth(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if r, ok := h.Feeds.(concurrencyReporter); ok {
		body["feedConcurrency"] = r.Concurrency()
	}
	c.JSON(http.StatusOK, body)
}

// HandleInstances shows the instance lists currently in use.
// GET /api/instances
func (h *Handlers) HandleInstances(c *gin.Context) {
	c.JSON(http.StatusOK, h.Registry.Instances(c.Request.Context()))
}
