// Package instances keeps the list of proxy mirrors both networks may be reached through.
package instances

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/guohuiyuan/music-stream/model"
	"github.com/guohuiyuan/music-stream/utils"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	DefaultSource          = "https://raw.githubusercontent.com/n-ce/Uma/main/dynamic_instances.json"
	DefaultRefreshInterval = 5 * time.Minute
	DefaultFetchTimeout    = 10 * time.Second
)

// DefaultFallback is served when the remote document has never been fetched successfully.
var DefaultFallback = model.InstanceSet{
	Piped:     []string{"https://api.piped.private.coffee"},
	Invidious: []string{"https://invidious.nikkosphere.com", "https://yt.omada.cafe"},
}

var errNoInstances = errors.New("document lists no instances")

// Registry serves the current InstanceSet. It never fails: a broken upstream
// degrades to the last good copy, then to the fallback.
type Registry struct {
	source   string
	client   *http.Client
	refresh  time.Duration
	timeout  time.Duration
	fallback model.InstanceSet

	mu    sync.Mutex // guards cache
	cache *gache.Cache[*model.InstanceSet]
	last  atomic.Pointer[model.InstanceSet]
}

// Option configures a Registry.
type Option func(*Registry)

func WithSource(url string) Option {
	return func(r *Registry) { r.source = url }
}

func WithHTTPClient(c *http.Client) Option {
	return func(r *Registry) { r.client = c }
}

func WithRefreshInterval(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.refresh = d
		}
	}
}

func WithFetchTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithFallback(set model.InstanceSet) Option {
	return func(r *Registry) { r.fallback = set.Clone() }
}

// New builds a Registry. The fresh copy lives in a gache cache backed by an
// in-memory filesystem, so nothing touches disk.
func New(opts ...Option) *Registry {
	r := &Registry{
		source:   DefaultSource,
		client:   utils.DefaultClient,
		refresh:  DefaultRefreshInterval,
		timeout:  DefaultFetchTimeout,
		fallback: DefaultFallback.Clone(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.cache = gache.New[*model.InstanceSet](&gache.Options{
		Path:       "/instances.json",
		Lifetime:   r.refresh,
		FileSystem: &memFs{fs: afero.NewMemMapFs()},
	})
	return r
}

// Instances returns a copy of the current instance set.
func (r *Registry) Instances(ctx context.Context) model.InstanceSet {
	if set, ok := r.cached(); ok {
		return set
	}

	set, err := r.fetch(ctx)
	if err != nil {
		if last := r.last.Load(); last != nil {
			logrus.Warnf("[instances] refresh failed, keeping last good list: %v", err)
			return last.Clone()
		}
		logrus.Warnf("[instances] refresh failed, using fallback list: %v", err)
		return r.fallback.Clone()
	}

	r.last.Store(&set)
	r.mu.Lock()
	if err := r.cache.Set(&set); err != nil {
		logrus.Debugf("[instances] cache write failed: %v", err)
	}
	r.mu.Unlock()
	return set.Clone()
}

func (r *Registry) cached() (model.InstanceSet, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, expired, err := r.cache.Get()
	if err != nil || expired || set == nil || set.Empty() {
		return model.InstanceSet{}, false
	}
	return set.Clone(), true
}

func (r *Registry) fetch(ctx context.Context) (model.InstanceSet, error) {
	var doc struct {
		Piped     []string `json:"piped"`
		Invidious []string `json:"invidious"`
	}
	if err := utils.GetJSON(ctx, r.client, r.source, r.timeout, &doc); err != nil {
		return model.InstanceSet{}, fmt.Errorf("fetch %s: %w", r.source, err)
	}

	set := model.InstanceSet{
		Piped:     cleanList(doc.Piped),
		Invidious: cleanList(doc.Invidious),
	}
	if set.Empty() {
		return model.InstanceSet{}, fmt.Errorf("%w: %w", model.ErrUpstreamFormat, errNoInstances)
	}
	logrus.Debugf("[instances] loaded %d piped, %d invidious", len(set.Piped), len(set.Invidious))
	return set, nil
}

// cleanList trims trailing slashes and drops blanks and duplicates, keeping order.
func cleanList(urls []string) []string {
	out := lo.Map(urls, func(u string, _ int) string {
		return strings.TrimRight(strings.TrimSpace(u), "/")
	})
	return lo.Uniq(lo.Compact(out))
}
