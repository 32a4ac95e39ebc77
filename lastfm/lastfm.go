// Package lastfm fetches similar tracks from the Last.fm web service.
package lastfm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/guohuiyuan/music-stream/model"
	"github.com/guohuiyuan/music-stream/utils"
	"github.com/samber/lo"
)

const (
	DefaultBaseURL = "https://ws.audioscrobbler.com/2.0/"
	DefaultTimeout = 10 * time.Second
)

var ErrNoAPIKey = errors.New("lastfm api key not configured")

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	timeout time.Duration
}

func New(apiKey, baseURL string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = utils.DefaultClient
	}
	return &Client{apiKey: apiKey, baseURL: baseURL, client: client, timeout: DefaultTimeout}
}

type similarResponse struct {
	Error         int    `json:"error"`
	Message       string `json:"message"`
	SimilarTracks struct {
		Track []struct {
			Name   string `json:"name"`
			Artist struct {
				Name string `json:"name"`
			} `json:"artist"`
		} `json:"track"`
	} `json:"similartracks"`
}

// SimilarTracks calls track.getsimilar. Entries without a title or artist are dropped.
func (c *Client) SimilarTracks(ctx context.Context, title, artist string, limit int) ([]model.SimilarTrack, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	params := url.Values{
		"method":  {"track.getsimilar"},
		"artist":  {artist},
		"track":   {title},
		"api_key": {c.apiKey},
		"limit":   {strconv.Itoa(limit)},
		"format":  {"json"},
	}

	var resp similarResponse
	if err := utils.GetJSON(ctx, c.client, c.baseURL+"?"+params.Encode(), c.timeout, &resp); err != nil {
		var se *utils.StatusError
		if errors.As(err, &se) || errors.Is(err, utils.ErrDecode) {
			return nil, fmt.Errorf("%w: lastfm: %v", model.ErrUpstreamFormat, err)
		}
		return nil, fmt.Errorf("%w: lastfm: %v", model.ErrUpstreamUnreachable, err)
	}
	if resp.Error != 0 {
		return nil, fmt.Errorf("%w: lastfm error %d: %s", model.ErrUpstreamFormat, resp.Error, lo.CoalesceOrEmpty(resp.Message, "unknown"))
	}

	tracks := make([]model.SimilarTrack, 0, len(resp.SimilarTracks.Track))
	for _, t := range resp.SimilarTracks.Track {
		name, by := strings.TrimSpace(t.Name), strings.TrimSpace(t.Artist.Name)
		if name == "" || by == "" {
			continue
		}
		tracks = append(tracks, model.SimilarTrack{Title: name, Artist: by})
	}
	return tracks, nil
}
