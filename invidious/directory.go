package invidious

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/guohuiyuan/music-stream/model"
	"github.com/guohuiyuan/music-stream/provider"
	"github.com/guohuiyuan/music-stream/utils"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const DefaultDirectoryTimeout = 10 * time.Second

// shortMaxSeconds 以内的视频视为 short
const shortMaxSeconds = 60

var errNoInstances = errors.New("no invidious instances available")

// Directory answers search and channel queries, trying the registry's
// invidious instances in order until one responds.
type Directory struct {
	client   *http.Client
	registry provider.InstanceSource
	timeout  time.Duration
}

func NewDirectory(client *http.Client, registry provider.InstanceSource, timeout time.Duration) *Directory {
	if client == nil {
		client = utils.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultDirectoryTimeout
	}
	return &Directory{client: client, registry: registry, timeout: timeout}
}

type listItem struct {
	Type          any             `json:"type"`
	Title         any             `json:"title"`
	VideoID       any             `json:"videoId"`
	Author        any             `json:"author"`
	AuthorID      any             `json:"authorId"`
	AuthorURL     any             `json:"authorUrl"`
	LengthSeconds any             `json:"lengthSeconds"`
	ViewCount     any             `json:"viewCount"`
	Published     any             `json:"published"`
	IsShort       any             `json:"isShort"`
	LiveNow       any             `json:"liveNow"`
	IsUpcoming    any             `json:"isUpcoming"`
	Thumbnails    json.RawMessage `json:"videoThumbnails"`
}

func (it listItem) id() string {
	id, _ := it.VideoID.(string)
	return id
}

// Search runs a video search.
func (d *Directory) Search(ctx context.Context, query string) ([]model.Video, error) {
	path := "/api/v1/search?" + url.Values{"q": {query}, "type": {"video"}}.Encode()

	var items []listItem
	if err := d.walk(ctx, path, func(body []byte) error { return decodeItems(body, &items) }); err != nil {
		return nil, err
	}

	videos := lo.FilterMap(items, func(it listItem, _ int) (model.Video, bool) {
		kind := utils.ParseAnyString(it.Type)
		if it.id() == "" || (kind != "" && kind != "video") {
			return model.Video{}, false
		}
		return model.Video{
			ID:         it.id(),
			Title:      utils.ParseAnyString(it.Title),
			Author:     utils.ParseAnyString(it.Author),
			Duration:   formatSeconds(utils.ParseAnyInt64(it.LengthSeconds)),
			ChannelURL: utils.ParseAnyString(it.AuthorURL),
		}, true
	})
	return videos, nil
}

// ChannelVideos lists a channel's latest uploads. Newer instances wrap the list
// in {"videos": [...]}, older ones return the bare array.
func (d *Directory) ChannelVideos(ctx context.Context, channelID string) ([]model.FeedItem, error) {
	path := "/api/v1/channels/" + url.PathEscape(channelID) + "/videos"

	var items []listItem
	err := d.walk(ctx, path, func(body []byte) error {
		if t := bytes.TrimSpace(body); len(t) > 0 && t[0] == '[' {
			return decodeItems(body, &items)
		}
		var wrapped struct {
			Videos json.RawMessage `json:"videos"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return err
		}
		items = utils.DecodeList[listItem](wrapped.Videos)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return lo.FilterMap(items, func(it listItem, _ int) (model.FeedItem, bool) {
		if it.id() == "" || utils.ParseAnyBool(it.IsUpcoming) {
			return model.FeedItem{}, false
		}
		var thumb string
		if thumbs := parseThumbnails(it.Thumbnails); len(thumbs) > 0 {
			thumb = thumbs[0].URL
		}
		length := utils.ParseAnyInt64(it.LengthSeconds)
		return model.FeedItem{
			ID:        it.id(),
			AuthorID:  lo.CoalesceOrEmpty(utils.ParseAnyString(it.AuthorID), channelID),
			Author:    utils.ParseAnyString(it.Author),
			Title:     utils.ParseAnyString(it.Title),
			Duration:  strconv.FormatInt(length, 10),
			Views:     utils.ParseAnyInt64(it.ViewCount),
			Uploaded:  utils.ParseAnyInt64(it.Published) * 1000,
			IsShort:   utils.ParseAnyBool(it.IsShort) || (length > 0 && length <= shortMaxSeconds),
			Thumbnail: thumb,
		}, true
	}), nil
}

// walk GETs path on each instance in turn and stops at the first body decode accepts.
func (d *Directory) walk(ctx context.Context, path string, decode func([]byte) error) error {
	list := d.registry.Instances(ctx).Invidious
	if len(list) == 0 {
		return errNoInstances
	}

	var lastErr error
	for _, instance := range list {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, err := utils.Get(ctx, d.client, base(instance)+path, d.timeout)
		if err == nil {
			if err = decode(body); err == nil {
				return nil
			}
		}
		logrus.Debugf("[invidious] %s%s failed: %v", instance, path, err)
		lastErr = err
	}
	return fmt.Errorf("%w: every invidious instance failed: %v", model.ErrUpstreamUnreachable, lastErr)
}

// decodeItems accepts a JSON array, dropping elements that aren't objects.
func decodeItems(body []byte, items *[]listItem) error {
	if t := bytes.TrimSpace(body); len(t) == 0 || t[0] != '[' {
		return fmt.Errorf("%w: expected a list", utils.ErrDecode)
	}
	*items = utils.DecodeList[listItem](body)
	return nil
}

func formatSeconds(sec int64) string {
	if sec <= 0 {
		return ""
	}
	if sec >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", sec/3600, sec%3600/60, sec%60)
	}
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}
