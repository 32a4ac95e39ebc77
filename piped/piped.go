// Package piped speaks the piped proxy API (network A).
package piped

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

func (n *Network) Name() model.Service { return model.ServicePiped }

func (n *Network) Instances(set model.InstanceSet) []string { return set.Piped }

// Probe calls GET <instance>/streams/<id>. The caller's context carries the timeout.
func (n *Network) Probe(ctx context.Context, instance, videoID string) (model.StreamResult, error) {
	endpoint := strings.TrimRight(instance, "/") + "/streams/" + url.PathEscape(videoID)

	var resp streamsResponse
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

// 上游各版本的字段类型并不一致 (数字/字符串/浮点), 所以除了流列表之外都用 any 接收
type audioStream struct {
	URL            any `json:"url"`
	Format         any `json:"format"`
	Quality        any `json:"quality"`
	MimeType       any `json:"mimeType"`
	Codec          any `json:"codec"`
	AudioTrackID   any `json:"audioTrackId"`
	AudioTrackName any `json:"audioTrackName"`
	VideoOnly      any `json:"videoOnly"`
	Itag           any `json:"itag"`
	Bitrate        any `json:"bitrate"`
	ContentLength  any `json:"contentLength"`
}

type streamsResponse struct {
	Error                   any             `json:"error"`
	Title                   any             `json:"title"`
	Description             any             `json:"description"`
	UploadDate              any             `json:"uploadDate"`
	Uploader                any             `json:"uploader"`
	UploaderURL             any             `json:"uploaderUrl"`
	UploaderAvatar          any             `json:"uploaderAvatar"`
	UploaderVerified        any             `json:"uploaderVerified"`
	UploaderSubscriberCount any             `json:"uploaderSubscriberCount"`
	ThumbnailURL            any             `json:"thumbnailUrl"`
	Duration                any             `json:"duration"`
	Views                   any             `json:"views"`
	Likes                   any             `json:"likes"`
	Category                any             `json:"category"`
	License                 any             `json:"license"`
	Visibility              any             `json:"visibility"`
	Tags                    any             `json:"tags"`
	Livestream              any             `json:"livestream"`
	ProxyURL                any             `json:"proxyUrl"`
	AudioStreams            json.RawMessage `json:"audioStreams"`
}

// Metadata is what the piped response tells us about the video.
type Metadata struct {
	ID                      string   `json:"id"`
	Title                   string   `json:"title"`
	Uploader                string   `json:"uploader"`
	UploaderURL             string   `json:"uploaderUrl"`
	UploaderAvatar          string   `json:"uploaderAvatar"`
	UploaderVerified        bool     `json:"uploaderVerified"`
	UploaderSubscriberCount int64    `json:"uploaderSubscriberCount"`
	Thumbnail               string   `json:"thumbnail"`
	Duration                int64    `json:"duration"`
	Views                   int64    `json:"views"`
	Likes                   int64    `json:"likes"`
	Description             string   `json:"description"`
	UploadDate              string   `json:"uploadDate"`
	Category                string   `json:"category"`
	License                 string   `json:"license"`
	Visibility              string   `json:"visibility"`
	Tags                    []string `json:"tags"`
	Livestream              bool     `json:"livestream"`
	ProxyURL                string   `json:"proxyUrl"`
}

// toResult is the only place piped field names meet the shared result shape.
func toResult(videoID string, resp *streamsResponse) model.StreamResult {
	urls := lo.FilterMap(utils.DecodeList[audioStream](resp.AudioStreams), func(s audioStream, _ int) (model.StreamURL, bool) {
		u, _ := s.URL.(string)
		return model.StreamURL{
			URL:            u,
			Format:         utils.ParseAnyString(s.Format),
			Quality:        utils.ParseAnyString(s.Quality),
			MimeType:       utils.ParseAnyString(s.MimeType),
			Codec:          utils.ParseAnyString(s.Codec),
			Bitrate:        utils.ParseAnyInt64(s.Bitrate),
			Itag:           utils.ParseAnyInt(s.Itag),
			ContentLength:  utils.ParseAnyInt64(s.ContentLength),
			AudioTrackID:   utils.ParseAnyString(s.AudioTrackID),
			AudioTrackName: utils.ParseAnyString(s.AudioTrackName),
			VideoOnly:      utils.ParseAnyBool(s.VideoOnly),
		}, u != ""
	})

	tags := utils.ParseAnyStrings(resp.Tags)
	if tags == nil {
		tags = []string{}
	}
	var best string
	if len(urls) > 0 {
		best = lo.MaxBy(urls, func(a, b model.StreamURL) bool { return a.Bitrate > b.Bitrate }).URL
	}
	return model.StreamResult{
		Service:       model.ServicePiped,
		StreamURL:     best,
		StreamingURLs: urls,
		Metadata: &Metadata{
			ID:                      videoID,
			Title:                   utils.ParseAnyString(resp.Title),
			Uploader:                utils.ParseAnyString(resp.Uploader),
			UploaderURL:             utils.ParseAnyString(resp.UploaderURL),
			UploaderAvatar:          utils.ParseAnyString(resp.UploaderAvatar),
			UploaderVerified:        utils.ParseAnyBool(resp.UploaderVerified),
			UploaderSubscriberCount: utils.ParseAnyInt64(resp.UploaderSubscriberCount),
			Thumbnail:               utils.ParseAnyString(resp.ThumbnailURL),
			Duration:                utils.ParseAnyInt64(resp.Duration),
			Views:                   utils.ParseAnyInt64(resp.Views),
			Likes:                   utils.ParseAnyInt64(resp.Likes),
			Description:             utils.ParseAnyString(resp.Description),
			UploadDate:              utils.ParseAnyString(resp.UploadDate),
			Category:                utils.ParseAnyString(resp.Category),
			License:                 utils.ParseAnyString(resp.License),
			Visibility:              utils.ParseAnyString(resp.Visibility),
			Tags:                    tags,
			Livestream:              utils.ParseAnyBool(resp.Livestream),
			ProxyURL:                utils.ParseAnyString(resp.ProxyURL),
		},
	}
}
