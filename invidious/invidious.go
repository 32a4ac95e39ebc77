// Package invidious speaks the invidious API (network B): video streams,
// search and channel uploads.
package invidious

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/guohuiyuan/music-stream/model"
	"github.com/guohuiyuan/music-stream/proxy"
	"github.com/guohuiyuan/music-stream/utils"
	"github.com/samber/lo"
)

// Network implements proxy.Network.
type Network struct {
	client *http.Client
}

var _ proxy.Network = (*Network)(nil)

func New(client *http.Client) *Network {
	if client == nil {
		client = utils.DefaultClient
	}
	return &Network{client: client}
}

func (n *Network) Name() model.Service { return model.ServiceInvidious }

func (n *Network) Instances(set model.InstanceSet) []string { return set.Invidious }

// Probe calls GET <instance>/api/v1/videos/<id> and keeps the audio-only adaptive formats.
func (n *Network) Probe(ctx context.Context, instance, videoID string) (model.StreamResult, error) {
	endpoint := base(instance) + "/api/v1/videos/" + url.PathEscape(videoID)

	var resp videoResponse
	if err := utils.GetJSON(ctx, n.client, endpoint, 0, &resp); err != nil {
		return model.StreamResult{}, err
	}
	if msg := utils.ParseAnyString(resp.Error); msg != "" {
		return model.StreamResult{}, fmt.Errorf("instance error: %s", msg)
	}
	res := toResult(videoID, &resp)
	if len(res.StreamingURLs) == 0 {
		return model.StreamResult{}, proxy.ErrNoAudio
	}
	return res, nil
}

func base(instance string) string {
	return strings.TrimRight(instance, "/")
}

// adaptiveFormat 中的字段在不同版本里可能是字符串也可能是数字, 全部用 any 接收
type adaptiveFormat struct {
	URL             any `json:"url"`
	Itag            any `json:"itag"`
	Type            any `json:"type"`
	MimeType        any `json:"mimeType"`
	Bitrate         any `json:"bitrate"`
	Clen            any `json:"clen"`
	Container       any `json:"container"`
	Encoding        any `json:"encoding"`
	AudioQuality    any `json:"audioQuality"`
	AudioSampleRate any `json:"audioSampleRate"`
	AudioChannels   any `json:"audioChannels"`
}

func (f adaptiveFormat) url() string {
	u, _ := f.URL.(string)
	return u
}

func (f adaptiveFormat) isAudio() bool {
	return strings.Contains(utils.ParseAnyString(f.Type), "audio") || strings.Contains(utils.ParseAnyString(f.MimeType), "audio")
}

type thumbnail struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

type rawThumbnail struct {
	Quality any `json:"quality"`
	URL     any `json:"url"`
	Width   any `json:"width"`
	Height  any `json:"height"`
}

// parseThumbnails 丢弃没有地址的条目, 不是数组时返回空列表
func parseThumbnails(raw json.RawMessage) []thumbnail {
	return lo.FilterMap(utils.DecodeList[rawThumbnail](raw), func(t rawThumbnail, _ int) (thumbnail, bool) {
		u, _ := t.URL.(string)
		return thumbnail{
			Quality: utils.ParseAnyString(t.Quality),
			URL:     u,
			Width:   utils.ParseAnyInt(t.Width),
			Height:  utils.ParseAnyInt(t.Height),
		}, u != ""
	})
}

type videoResponse struct {
	Error            any             `json:"error"`
	Type             any             `json:"type"`
	Title            any             `json:"title"`
	VideoID          any             `json:"videoId"`
	VideoThumbnails  json.RawMessage `json:"videoThumbnails"`
	Description      any             `json:"description"`
	Published        any             `json:"published"`
	PublishedText    any             `json:"publishedText"`
	Keywords         any             `json:"keywords"`
	ViewCount        any             `json:"viewCount"`
	LikeCount        any             `json:"likeCount"`
	Genre            any             `json:"genre"`
	Author           any             `json:"author"`
	AuthorID         any             `json:"authorId"`
	AuthorURL        any             `json:"authorUrl"`
	AuthorVerified   any             `json:"authorVerified"`
	SubCountText     any             `json:"subCountText"`
	LengthSeconds    any             `json:"lengthSeconds"`
	IsFamilyFriendly any             `json:"isFamilyFriendly"`
	LiveNow          any             `json:"liveNow"`
	IsUpcoming       any             `json:"isUpcoming"`
	DashURL          any             `json:"dashUrl"`
	AdaptiveFormats  json.RawMessage `json:"adaptiveFormats"`
}

// Metadata is what the invidious response tells us about the video.
type Metadata struct {
	ID               string      `json:"id"`
	Type             string      `json:"type"`
	Title            string      `json:"title"`
	VideoID          string      `json:"videoId"`
	VideoThumbnails  []thumbnail `json:"videoThumbnails"`
	Description      string      `json:"description"`
	Published        int64       `json:"published"`
	PublishedText    string      `json:"publishedText"`
	Keywords         []string    `json:"keywords"`
	ViewCount        int64       `json:"viewCount"`
	LikeCount        int64       `json:"likeCount"`
	Genre            string      `json:"genre"`
	Author           string      `json:"author"`
	AuthorID         string      `json:"authorId"`
	AuthorURL        string      `json:"authorUrl"`
	AuthorVerified   bool        `json:"authorVerified"`
	SubCountText     string      `json:"subCountText"`
	LengthSeconds    int64       `json:"lengthSeconds"`
	IsFamilyFriendly bool        `json:"isFamilyFriendly"`
	LiveNow          bool        `json:"liveNow"`
	IsUpcoming       bool        `json:"isUpcoming"`
	DashURL          string      `json:"dashUrl"`
}

// toResult is the only place invidious field names meet the shared result shape.
func toResult(videoID string, resp *videoResponse) model.StreamResult {
	audio := lo.Filter(utils.DecodeList[adaptiveFormat](resp.AdaptiveFormats), func(f adaptiveFormat, _ int) bool {
		return f.isAudio() && f.url() != ""
	})
	urls := lo.Map(audio, func(f adaptiveFormat, _ int) model.StreamURL {
		return model.StreamURL{
			URL:             f.url(),
			Type:            lo.CoalesceOrEmpty(utils.ParseAnyString(f.Type), utils.ParseAnyString(f.MimeType)),
			Bitrate:         utils.ParseAnyInt64(f.Bitrate),
			Itag:            utils.ParseAnyInt(f.Itag),
			ContentLength:   utils.ParseAnyInt64(f.Clen),
			Container:       utils.ParseAnyString(f.Container),
			Encoding:        utils.ParseAnyString(f.Encoding),
			AudioQuality:    utils.ParseAnyString(f.AudioQuality),
			AudioSampleRate: utils.ParseAnyInt(f.AudioSampleRate),
			AudioChannels:   utils.ParseAnyInt(f.AudioChannels),
		}
	})

	var best string
	if len(urls) > 0 {
		best = lo.MaxBy(urls, func(a, b model.StreamURL) bool { return a.Bitrate > b.Bitrate }).URL
	}

	keywords := utils.ParseAnyStrings(resp.Keywords)
	return model.StreamResult{
		Service:       model.ServiceInvidious,
		StreamURL:     best,
		StreamingURLs: urls,
		Metadata: &Metadata{
			ID:               videoID,
			Type:             utils.ParseAnyString(resp.Type),
			Title:            utils.ParseAnyString(resp.Title),
			VideoID:          utils.ParseAnyString(resp.VideoID),
			VideoThumbnails:  parseThumbnails(resp.VideoThumbnails),
			Description:      utils.ParseAnyString(resp.Description),
			Published:        utils.ParseAnyInt64(resp.Published),
			PublishedText:    utils.ParseAnyString(resp.PublishedText),
			Keywords:         lo.Ternary(keywords == nil, []string{}, keywords),
			ViewCount:        utils.ParseAnyInt64(resp.ViewCount),
			LikeCount:        utils.ParseAnyInt64(resp.LikeCount),
			Genre:            utils.ParseAnyString(resp.Genre),
			Author:           utils.ParseAnyString(resp.Author),
			AuthorID:         utils.ParseAnyString(resp.AuthorID),
			AuthorURL:        utils.ParseAnyString(resp.AuthorURL),
			AuthorVerified:   utils.ParseAnyBool(resp.AuthorVerified),
			SubCountText:     utils.ParseAnyString(resp.SubCountText),
			LengthSeconds:    utils.ParseAnyInt64(resp.LengthSeconds),
			IsFamilyFriendly: utils.ParseAnyBool(resp.IsFamilyFriendly),
			LiveNow:          utils.ParseAnyBool(resp.LiveNow),
			IsUpcoming:       utils.ParseAnyBool(resp.IsUpcoming),
			DashURL:          utils.ParseAnyString(resp.DashURL),
		},
	}
}
