package model

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// TrackQuery 是一次流解析请求的身份 (video id + title + artist)
type TrackQuery struct {
	VideoID string `json:"id"`
	Title   string `json:"title"`
	Artist  string `json:"artist"` // 可能是逗号分隔的多位歌手
}

// Validate reports every missing field at once so the client can fix the request in one go.
func (q TrackQuery) Validate() error {
	var missing []string
	if strings.TrimSpace(q.VideoID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(q.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(q.Artist) == "" {
		missing = append(missing, "artist")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required parameters: %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// Display 用于简单的日志打印
func (q TrackQuery) Display() string {
	return q.Title + " - " + q.Artist
}

// Artist 是目录服务返回的歌手条目
type Artist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Role string `json:"role"`
}

// ArtistCredits 对应上游的 {primary, featured, all} 结构
type ArtistCredits struct {
	Primary  []Artist `json:"primary"`
	Featured []Artist `json:"featured"`
	All      []Artist `json:"all"`
}

// Album 专辑的名称和 ID
type Album struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// QualityLink 是上游多码率列表中的一项, quality 可能是 "320kbps" 或 "320"
type QualityLink struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
}

// CatalogCandidate 是目录搜索结果中的一首歌, 只在匹配过程中存在
type CatalogCandidate struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Year            string        `json:"year"`
	DurationSeconds int           `json:"duration"`
	Label           string        `json:"label"`
	Copyright       string        `json:"copyright,omitempty"`
	Album           Album         `json:"album"`
	Artists         ArtistCredits `json:"artists"`
	DownloadURL     string        `json:"downloadUrl"`
	Links           []QualityLink `json:"downloadUrls,omitempty"`
	Thumbnail       string        `json:"image"`
	Language        string        `json:"language"`
	HasLyrics       bool          `json:"hasLyrics"`
	URL             string        `json:"url,omitempty"`
}

// ArtistNames returns the names used for matching: every primary artist plus
// the "all" entries credited as singers, de-duplicated in first-seen order.
func (c *CatalogCandidate) ArtistNames() []string {
	names := lo.Map(c.Artists.Primary, func(a Artist, _ int) string { return strings.TrimSpace(a.Name) })
	for _, a := range c.Artists.All {
		if a.Role == "singer" || a.Role == "primary_artists" {
			names = append(names, strings.TrimSpace(a.Name))
		}
	}
	return lo.Uniq(lo.Compact(names))
}

// Display 用于简单的日志打印
func (c *CatalogCandidate) Display() string {
	return c.Name + " - " + strings.Join(c.ArtistNames(), ", ")
}

// SimilarTrack 是推荐服务返回的一首相似歌曲
type SimilarTrack struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Video 是视频搜索的结果
type Video struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	Duration   string `json:"duration,omitempty"`
	ChannelURL string `json:"channelUrl,omitempty"`
}
