// Package saavn resolves tracks against the regional music catalog, which hands
// out direct download URLs.
package saavn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/guohuiyuan/music-stream/match"
	"github.com/guohuiyuan/music-stream/model"
	"github.com/guohuiyuan/music-stream/utils"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "https://saavn-ytify.vercel.app/api"
	DefaultTimeout = 15 * time.Second
	searchLimit    = 10
)

// Options tune a single Resolve call.
type Options struct {
	Strict bool
}

// Trace describes the upstream call behind a result, for debug output.
type Trace struct {
	QueriedURL string        `json:"queriedUrl"`
	Elapsed    time.Duration `json:"-"`
	TimeMs     int64         `json:"timeMs"`
}

// Client talks to the catalog search API.
type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		client:  utils.DefaultClient,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve finds the catalog entry for title and artist.
//
// Loose mode searches "title artist" and, when no hit matches both, settles for
// the first title match. Strict mode searches the title alone, treats artist as
// a comma separated list and never relaxes the artist check.
func (c *Client) Resolve(ctx context.Context, title, artist string, opts Options) (*model.CatalogCandidate, error) {
	cand, _, err := c.ResolveTrace(ctx, title, artist, opts)
	return cand, err
}

// ResolveTrace is Resolve plus the trace of the upstream call.
func (c *Client) ResolveTrace(ctx context.Context, title, artist string, opts Options) (*model.CatalogCandidate, Trace, error) {
	mode := match.Loose
	query := title + " " + artist
	requested := []string{artist}
	if opts.Strict {
		mode = match.Strict
		query = title
		requested = match.SplitArtists(artist)
	}

	candidates, trace, err := c.search(ctx, query, searchLimit)
	if err != nil {
		return nil, trace, err
	}
	if len(candidates) == 0 {
		return nil, trace, fmt.Errorf("%w: no catalog results for %q", model.ErrNotFound, query)
	}

	picked := pick(candidates, title, requested, mode)
	if picked.IsAbsent() {
		logrus.Debugf("[saavn] no %s match among %d results for %q", mode, len(candidates), title)
		return nil, trace, fmt.Errorf("%w: music stream not found in catalog results", model.ErrNotFound)
	}
	cand := picked.MustGet()
	return &cand, trace, nil
}

// pick walks candidates in upstream order; the catalog's own ranking is kept.
func pick(candidates []model.CatalogCandidate, title string, requested []string, mode match.Mode) mo.Option[model.CatalogCandidate] {
	for _, cand := range candidates {
		if match.TitleMatches(title, cand.Name, mode) && match.ArtistSetMatches(requested, cand.ArtistNames(), mode) {
			return mo.Some(cand)
		}
	}
	if mode == match.Strict {
		return mo.None[model.CatalogCandidate]()
	}
	for _, cand := range candidates {
		if match.TitleMatches(title, cand.Name, mode) {
			logrus.Debugf("[saavn] falling back to title-only match %q", cand.Display())
			return mo.Some(cand)
		}
	}
	return mo.None[model.CatalogCandidate]()
}

// SearchAll returns every normalized hit for a free-text query. An empty result
// is not an error.
func (c *Client) SearchAll(ctx context.Context, query string, limit int) ([]model.CatalogCandidate, Trace, error) {
	return c.search(ctx, query, limit)
}

// Lookup adapts Resolve to the orchestrator: loose matching, and every failure
// folded into an unsuccessful result.
func (c *Client) Lookup(ctx context.Context, q model.TrackQuery) model.StreamResult {
	cand, err := c.Resolve(ctx, q.Title, q.Artist, Options{})
	if err != nil {
		logrus.Infof("[saavn] %s: %v", q.Display(), err)
		return model.Failed(model.ServiceSaavn, err.Error())
	}
	return toStreamResult(cand)
}

func toStreamResult(cand *model.CatalogCandidate) model.StreamResult {
	urls := make([]model.StreamURL, 0, len(cand.Links))
	for _, l := range cand.Links {
		urls = append(urls, model.StreamURL{URL: l.URL, Type: "download", Quality: l.Quality, Source: string(model.ServiceSaavn)})
	}
	if len(urls) == 0 && cand.DownloadURL != "" {
		urls = append(urls, model.StreamURL{URL: cand.DownloadURL, Type: "download", Source: string(model.ServiceSaavn)})
	}
	if cand.DownloadURL == "" {
		return model.Failed(model.ServiceSaavn, "matched catalog entry has no download url")
	}
	return model.StreamResult{
		Service:       model.ServiceSaavn,
		Success:       true,
		StreamURL:     cand.DownloadURL,
		StreamingURLs: urls,
		Metadata:      cand,
	}
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]model.CatalogCandidate, Trace, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", "0")
	params.Set("limit", fmt.Sprint(limit))
	trace := Trace{QueriedURL: c.baseURL + "/search/songs?" + params.Encode()}

	start := time.Now()
	body, err := utils.Get(ctx, c.client, trace.QueriedURL, c.timeout)
	trace.Elapsed = time.Since(start)
	trace.TimeMs = trace.Elapsed.Milliseconds()
	if err != nil {
		return nil, trace, fmt.Errorf("%w: catalog search: %v", model.ErrUpstreamUnreachable, err)
	}
	logrus.Debugf("[saavn] %s took %s", trace.QueriedURL, trace.Elapsed)

	var envelope struct {
		Success bool `json:"success"`
		Data    *struct {
			Results []json.RawMessage `json:"results"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, trace, fmt.Errorf("%w: %v", model.ErrUpstreamFormat, err)
	}
	if !envelope.Success || envelope.Data == nil {
		return nil, trace, fmt.Errorf("%w: missing success envelope", model.ErrUpstreamFormat)
	}

	candidates := make([]model.CatalogCandidate, 0, len(envelope.Data.Results))
	for i, raw := range envelope.Data.Results {
		cand, err := parseSong(raw)
		if err != nil {
			logrus.Debugf("[saavn] skip result %d: %v", i, err)
			continue
		}
		candidates = append(candidates, cand)
	}
	return candidates, trace, nil
}

var errNotObject = errors.New("result is not an object")
