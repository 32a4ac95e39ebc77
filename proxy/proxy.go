// Package proxy walks a network's mirror list until one instance yields audio.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guohuiyuan/music-stream/model"
	"github.com/guohuiyuan/music-stream/provider"
	"github.com/sirupsen/logrus"
)

const DefaultProbeTimeout = 10 * time.Second

// ErrNoAudio is returned by a Probe whose instance answered but had nothing playable.
var ErrNoAudio = errors.New("no audio streams")

// Network is one proxy network's schema: where its mirrors are listed and how a
// single mirror is asked for a video.
type Network interface {
	Name() model.Service
	Instances(set model.InstanceSet) []string
	// Probe queries one instance. A nil error means the result is usable.
	Probe(ctx context.Context, instance, videoID string) (model.StreamResult, error)
}

// Resolver tries a network's instances strictly in order.
type Resolver struct {
	network  Network
	registry provider.InstanceSource
	timeout  time.Duration
}

type Option func(*Resolver)

// WithProbeTimeout bounds each instance attempt.
func WithProbeTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func New(network Network, registry provider.InstanceSource, opts ...Option) *Resolver {
	r := &Resolver{network: network, registry: registry, timeout: DefaultProbeTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Name() model.Service {
	return r.network.Name()
}

// Resolve returns the first usable result. The list is walked one instance at
// a time so the highest ranked reachable mirror wins, not the fastest.
func (r *Resolver) Resolve(ctx context.Context, videoID string) model.StreamResult {
	name := r.network.Name()
	list := r.network.Instances(r.registry.Instances(ctx))
	if len(list) == 0 {
		return model.Failed(name, "no instances available")
	}

	for _, instance := range list {
		if err := ctx.Err(); err != nil {
			return model.Failed(name, fmt.Sprintf("cancelled: %v", err))
		}

		res, err := r.probe(ctx, instance, videoID)
		if err != nil {
			logrus.Debugf("[%s] instance %s failed: %v", name, instance, err)
			continue
		}
		res.Service = name
		res.Instance = instance
		res.Success = true
		res.Error = ""
		logrus.Debugf("[%s] %s resolved via %s", name, videoID, instance)
		return res
	}

	return model.Failed(name, "no working instances found")
}

func (r *Resolver) probe(ctx context.Context, instance, videoID string) (model.StreamResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.network.Probe(ctx, instance, videoID)
	if err != nil {
		return res, err
	}
	if len(res.StreamingURLs) == 0 {
		return res, ErrNoAudio
	}
	return res, nil
}
