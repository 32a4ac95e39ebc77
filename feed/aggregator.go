package feed

import (
	"context"
	"sort"
	"sync"

	"github.com/guohuiyuan/music-stream/model"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// PreviewSize 预览模式下保留的条数
const PreviewSize = 5

// ChannelSource lists a channel's recent uploads.
type ChannelSource interface {
	ChannelVideos(ctx context.Context, channelID string) ([]model.FeedItem, error)
}

// Aggregator fetches many channels with bounded concurrency.
type Aggregator struct {
	source ChannelSource
	sem    chan struct{}
}

// NewAggregator creates an Aggregator. If concurrency <= 0 it defaults to 3.
func NewAggregator(source ChannelSource, concurrency int) *Aggregator {
	if concurrency <= 0 {
		concurrency = 3
	}
	return &Aggregator{source: source, sem: make(chan struct{}, concurrency)}
}

// Concurrency returns the max concurrent channel fetches.
func (a *Aggregator) Concurrency() int {
	return cap(a.sem)
}

// Fetch merges the uploads of every channel, newest first then most viewed.
// A channel that fails is left out. Shorts are dropped. perChannelLimit <= 0
// keeps everything.
func (a *Aggregator) Fetch(ctx context.Context, channelIDs []string, perChannelLimit int) []model.FeedItem {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		all []model.FeedItem
	)

	for _, id := range channelIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()

			select {
			case a.sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-a.sem }()

			items, err := a.source.ChannelVideos(ctx, id)
			if err != nil {
				logrus.Warnf("[feed] channel %s: %v", id, err)
				return
			}
			items = dropShorts(items)
			sortFeed(items)
			if perChannelLimit > 0 && len(items) > perChannelLimit {
				items = items[:perChannelLimit]
			}

			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	sortFeed(all)
	if all == nil {
		all = []model.FeedItem{}
	}
	return all
}

// Top keeps the first n items overall.
func Top(items []model.FeedItem, n int) []model.FeedItem {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func dropShorts(items []model.FeedItem) []model.FeedItem {
	return lo.Reject(items, func(it model.FeedItem, _ int) bool { return it.IsShort })
}

func sortFeed(items []model.FeedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Uploaded != items[j].Uploaded {
			return items[i].Uploaded > items[j].Uploaded
		}
		return items[i].Views > items[j].Views
	})
}
