// Package recommend turns a track into playable similar tracks: Last.fm names
// them, a video search finds each one.
package recommend

import (
	"context"
	"strings"

	"github.com/guohuiyuan/music-stream/model"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const searchConcurrency = 4

type SimilarFinder interface {
	SimilarTracks(ctx context.Context, title, artist string, limit int) ([]model.SimilarTrack, error)
}

type VideoSearcher interface {
	Search(ctx context.Context, query string) ([]model.Video, error)
}

type Service struct {
	similar  SimilarFinder
	searcher VideoSearcher
}

func New(similar SimilarFinder, searcher VideoSearcher) *Service {
	return &Service{similar: similar, searcher: searcher}
}

// Similar returns one video per similar track, in Last.fm's order. Tracks the
// search can't place are dropped.
func (s *Service) Similar(ctx context.Context, title, artist string, limit int) ([]model.Video, error) {
	tracks, err := s.similar.SimilarTracks(ctx, title, artist, limit)
	if err != nil {
		return nil, err
	}

	found := make([]*model.Video, len(tracks))
	var g errgroup.Group
	g.SetLimit(searchConcurrency)
	for i, t := range tracks {
		g.Go(func() error {
			query := t.Title + " " + t.Artist
			videos, err := s.searcher.Search(ctx, query)
			if err != nil {
				logrus.Debugf("[recommend] search %q: %v", query, err)
				return nil
			}
			if len(videos) == 0 {
				return nil
			}
			best := closest(query, videos)
			found[i] = &best
			return nil
		})
	}
	_ = g.Wait()

	return lo.FilterMap(found, func(v *model.Video, _ int) (model.Video, bool) {
		if v == nil {
			return model.Video{}, false
		}
		return *v, true
	}), nil
}

// closest picks the result whose title is nearest to the query by edit distance.
func closest(query string, videos []model.Video) model.Video {
	q := strings.ToLower(query)
	return lo.MinBy(videos, func(a, b model.Video) bool {
		return levenshtein.Distance(q, strings.ToLower(a.Title)) < levenshtein.Distance(q, strings.ToLower(b.Title))
	})
}
