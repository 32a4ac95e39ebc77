package saavn

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/guohuiyuan/music-stream/model"
	"github.com/guohuiyuan/music-stream/utils"
	"github.com/samber/lo"
)

// rawSong 是上游搜索结果的原始结构, 字段类型并不稳定, 所以全部用 any 或 RawMessage 接收
type rawSong struct {
	ID        any             `json:"id"`
	Name      any             `json:"name"`
	Year      any             `json:"year"`
	Duration  any             `json:"duration"`
	Label     any             `json:"label"`
	Copyright any             `json:"copyright"`
	Language  any             `json:"language"`
	HasLyrics any             `json:"hasLyrics"`
	URL       any             `json:"url"`
	Download  json.RawMessage `json:"downloadUrl"`
	Image     json.RawMessage `json:"image"`
	Album     json.RawMessage `json:"album"`
	Artists   json.RawMessage `json:"artists"`
}

type rawArtist struct {
	Name any `json:"name"`
	ID   any `json:"id"`
	Role any `json:"role"`
}

// rawLink 同时兼容 {quality, url} 和 {quality, link}, quality 也可能是数字
type rawLink struct {
	Quality any `json:"quality"`
	URL     any `json:"url"`
	Link    any `json:"link"`
}

func parseSong(raw json.RawMessage) (model.CatalogCandidate, error) {
	if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '{' {
		return model.CatalogCandidate{}, errNotObject
	}
	var s rawSong
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.CatalogCandidate{}, err
	}

	links := parseLinks(s.Download)
	download := bestLink(links)
	if download == "" {
		// 没有多码率列表时, 接受字符串形式的 downloadUrl 或者裸 url
		var str string
		if json.Unmarshal(s.Download, &str) == nil && str != "" {
			download = str
		} else {
			download = asString(s.URL)
		}
	}

	var thumb string
	if images := parseLinks(s.Image); len(images) > 0 {
		thumb = images[len(images)-1].URL
	}

	return model.CatalogCandidate{
		ID:              utils.ParseAnyString(s.ID),
		Name:            strings.TrimSpace(utils.ParseAnyString(s.Name)),
		Year:            utils.ParseAnyString(s.Year),
		DurationSeconds: utils.ParseAnyInt(s.Duration),
		Label:           utils.ParseAnyString(s.Label),
		Copyright:       utils.ParseAnyString(s.Copyright),
		Album:           parseAlbum(s.Album),
		Artists:         parseCredits(s.Artists),
		DownloadURL:     download,
		Links:           links,
		Thumbnail:       thumb,
		Language:        utils.ParseAnyString(s.Language),
		HasLyrics:       utils.ParseAnyBool(s.HasLyrics),
		URL:             asString(s.URL),
	}, nil
}

// asString 只接受真正的字符串, 用于地址类字段
func asString(v any) string {
	s, _ := v.(string)
	return s
}

// parseAlbum 接受 {name, id} 对象, 也接受只有专辑名的字符串
func parseAlbum(raw json.RawMessage) model.Album {
	var v any
	if json.Unmarshal(raw, &v) != nil {
		return model.Album{}
	}
	switch a := v.(type) {
	case map[string]any:
		return model.Album{Name: utils.ParseAnyString(a["name"]), ID: utils.ParseAnyString(a["id"])}
	case string:
		return model.Album{Name: a}
	}
	return model.Album{}
}

// parseCredits 接受 {primary, featured, all} 对象; 直接给出数组时当作 primary
func parseCredits(raw json.RawMessage) model.ArtistCredits {
	if t := bytes.TrimSpace(raw); len(t) > 0 && t[0] == '[' {
		return model.ArtistCredits{Primary: mapArtists(raw)}
	}
	var credits struct {
		Primary  json.RawMessage `json:"primary"`
		Featured json.RawMessage `json:"featured"`
		All      json.RawMessage `json:"all"`
	}
	if json.Unmarshal(raw, &credits) != nil {
		return model.ArtistCredits{}
	}
	return model.ArtistCredits{
		Primary:  mapArtists(credits.Primary),
		Featured: mapArtists(credits.Featured),
		All:      mapArtists(credits.All),
	}
}

func mapArtists(raw json.RawMessage) []model.Artist {
	return lo.FilterMap(utils.DecodeList[rawArtist](raw), func(a rawArtist, _ int) (model.Artist, bool) {
		name := strings.TrimSpace(utils.ParseAnyString(a.Name))
		return model.Artist{Name: name, ID: utils.ParseAnyString(a.ID), Role: utils.ParseAnyString(a.Role)}, name != ""
	})
}

// parseLinks 解析 [{quality,url}] 列表, 不是数组时返回 nil, 没有地址的条目被丢弃
func parseLinks(raw json.RawMessage) []model.QualityLink {
	if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '[' {
		return nil
	}
	return lo.FilterMap(utils.DecodeList[rawLink](raw), func(l rawLink, _ int) (model.QualityLink, bool) {
		u := lo.CoalesceOrEmpty(asString(l.URL), asString(l.Link))
		return model.QualityLink{Quality: utils.ParseAnyString(l.Quality), URL: u}, u != ""
	})
}

// qualityTiers 按优先级排列, 每一档同时识别 "320kbps" 和 "320" 两种写法
var qualityTiers = [][]string{
	{"320kbps", "320"},
	{"160kbps", "160"},
}

// bestLink 依次尝试 320 和 160 档, 都没有时取列表最后一项
func bestLink(links []model.QualityLink) string {
	if len(links) == 0 {
		return ""
	}
	for _, tier := range qualityTiers {
		for _, alias := range tier {
			if l, ok := lo.Find(links, func(l model.QualityLink) bool { return strings.EqualFold(strings.TrimSpace(l.Quality), alias) }); ok {
				return l.URL
			}
		}
	}
	return links[len(links)-1].URL
}
