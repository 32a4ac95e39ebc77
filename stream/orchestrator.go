// Package stream picks one playable source for a track: the catalog first, then
// the two proxy networks raced against each other.
package stream

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/guohuiyuan/music-stream/model"
	"github.com/guohuiyuan/music-stream/provider"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Outcome is what the HTTP layer needs to answer a stream request.
type Outcome struct {
	Status int
	Result model.StreamResult
	Err    error
}

// Orchestrator holds the three sources. Primary outranks Secondary when both succeed.
type Orchestrator struct {
	catalog   provider.CatalogSource
	primary   provider.StreamSource
	secondary provider.StreamSource
}

func New(catalog provider.CatalogSource, primary, secondary provider.StreamSource) *Orchestrator {
	return &Orchestrator{catalog: catalog, primary: primary, secondary: secondary}
}

// ResolveStream never panics; a panic in any source becomes a 500 outcome.
func (o *Orchestrator) ResolveStream(ctx context.Context, q model.TrackQuery) (out Outcome) {
	if err := q.Validate(); err != nil {
		return Outcome{Status: http.StatusBadRequest, Err: err}
	}

	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("[stream] panic resolving %s: %v\n%s", q.Display(), r, debug.Stack())
			out = Outcome{Status: http.StatusInternalServerError, Err: fmt.Errorf("%w: %v", model.ErrInternal, r)}
		}
	}()

	if res := o.catalog.Lookup(ctx, q); res.Success {
		logrus.Infof("[stream] %s served by %s", q.VideoID, res.Service)
		return Outcome{Status: http.StatusOK, Result: res}
	}

	a, b, err := o.race(ctx, q.VideoID)
	if err != nil {
		return Outcome{Status: http.StatusInternalServerError, Err: err}
	}

	res, err := pick(a, b)
	if err != nil {
		logrus.Infof("[stream] %s: %s: %s; %s: %s", q.VideoID, a.Service, a.Error, b.Service, b.Error)
		return Outcome{Status: model.HTTPStatus(err), Err: err}
	}
	logrus.Infof("[stream] %s served by %s (%s)", q.VideoID, res.Service, res.Instance)
	return Outcome{Status: http.StatusOK, Result: res}
}

// race runs both proxy networks concurrently and waits for both to settle.
// Neither is cancelled when the other finishes first.
func (o *Orchestrator) race(ctx context.Context, videoID string) (a, b model.StreamResult, err error) {
	var g errgroup.Group
	g.Go(func() error {
		return guard(func() { a = o.primary.Resolve(ctx, videoID) })
	})
	g.Go(func() error {
		return guard(func() { b = o.secondary.Resolve(ctx, videoID) })
	})
	err = g.Wait()
	return a, b, err
}

// guard turns a panic inside a worker goroutine into an error, since recover
// only works on the goroutine that panicked.
func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("[stream] panic in proxy resolver: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("%w: %v", model.ErrInternal, r)
		}
	}()
	fn()
	return nil
}

// pick applies the fixed priority: network A, then network B.
func pick(a, b model.StreamResult) (model.StreamResult, error) {
	switch {
	case a.Success:
		return a, nil
	case b.Success:
		return b, nil
	default:
		return model.StreamResult{}, model.ErrAllSourcesExhausted
	}
}
