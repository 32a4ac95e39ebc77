package invidious

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/guohuiyuan/music-stream/model"
	"github.com/guohuiyuan/music-stream/proxy"
)

const videoBody = `{
  "title": "Shape of You",
  "videoId": "JGwWNGJdvx8",
  "author": "Ed Sheeran",
  "lengthSeconds": 263,
  "adaptiveFormats": [
    {"url": "https://i/video", "type": "video/mp4; codecs=\"avc1\"", "bitrate": "2000000", "itag": "137"},
    {"url": "https://i/m4a", "type": "audio/mp4; codecs=\"mp4a.40.2\"", "bitrate": "129000", "itag": "140", "clen": "4240000", "container": "m4a", "audioQuality": "AUDIO_QUALITY_MEDIUM", "audioSampleRate": 44100, "audioChannels": 2},
    {"url": "https://i/opus", "mimeType": "audio/webm; codecs=\"opus\"", "bitrate": 140000, "itag": 251}
  ]
}`

type fixed model.InstanceSet

func (f fixed) Instances(context.Context) model.InstanceSet { return model.InstanceSet(f) }

func handler(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProbeKeepsAudioOnly(t *testing.T) {
	srv := handler(t, map[string]string{"/api/v1/videos/JGwWNGJdvx8": videoBody})

	res, err := New(nil).Probe(context.Background(), srv.URL, "JGwWNGJdvx8")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if len(res.StreamingURLs) != 2 {
		t.Fatalf("expected two audio formats, got %+v", res.StreamingURLs)
	}
	m4a := res.StreamingURLs[0]
	if m4a.Bitrate != 129000 || m4a.Itag != 140 || m4a.ContentLength != 4240000 || m4a.AudioChannels != 2 {
		t.Errorf("string fields not converted: %+v", m4a)
	}
	if res.StreamURL != "https://i/opus" {
		t.Errorf("expected highest bitrate audio, got %q", res.StreamURL)
	}
	if meta, ok := res.Metadata.(*Metadata); !ok || meta.Author != "Ed Sheeran" || meta.Keywords == nil {
		t.Errorf("unexpected metadata %+v", res.Metadata)
	}
}

func TestProbeEmptyAdaptiveFormats(t *testing.T) {
	srv := handler(t, map[string]string{"/api/v1/videos/x": `{"title": "x", "adaptiveFormats": []}`})
	_, err := New(nil).Probe(context.Background(), srv.URL, "x")
	if !errors.Is(err, proxy.ErrNoAudio) {
		t.Fatalf("got %v", err)
	}

	res := proxy.New(New(nil), fixed{Invidious: []string{srv.URL}}).Resolve(context.Background(), "x")
	if res.Success {
		t.Fatalf("empty formats must not count as success: %+v", res)
	}
}

func TestDirectorySearch(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	up := handler(t, map[string]string{"/api/v1/search": `[
		{"type": "video", "title": "Perfect", "videoId": "2Vv-BfVoq4g", "author": "Ed Sheeran", "lengthSeconds": 280},
		{"type": "channel", "author": "Ed Sheeran"},
		{"type": "video", "title": "Long mix", "videoId": "mix", "lengthSeconds": 3723}
	]`})

	dir := NewDirectory(nil, fixed{Invidious: []string{down.URL, up.URL}}, 0)
	videos, err := dir.Search(context.Background(), "perfect ed sheeran")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("expected channel entries dropped, got %+v", videos)
	}
	if videos[0].ID != "2Vv-BfVoq4g" || videos[0].Duration != "4:40" {
		t.Errorf("unexpected first video %+v", videos[0])
	}
	if videos[1].Duration != "1:02:03" {
		t.Errorf("unexpected duration %q", videos[1].Duration)
	}
}

func TestDirectoryChannelVideos(t *testing.T) {
	wrapped := handler(t, map[string]string{"/api/v1/channels/UC1/videos": `{"videos": [
		{"title": "New single", "videoId": "a", "author": "Artist", "authorId": "UC1", "lengthSeconds": 200, "viewCount": 10, "published": 1700000000},
		{"title": "teaser", "videoId": "b", "lengthSeconds": 30, "published": 1700000100},
		{"title": "premiere", "videoId": "c", "isUpcoming": true}
	]}`})
	bare := handler(t, map[string]string{"/api/v1/channels/UC2/videos": `[
		{"title": "Old", "videoId": "d", "lengthSeconds": 100, "published": 1600000000}
	]`})

	items, err := NewDirectory(nil, fixed{Invidious: []string{wrapped.URL}}, 0).ChannelVideos(context.Background(), "UC1")
	if err != nil {
		t.Fatalf("ChannelVideos: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected upcoming entry dropped, got %+v", items)
	}
	if items[0].Uploaded != 1700000000000 || items[0].IsShort {
		t.Errorf("unexpected first item %+v", items[0])
	}
	if !items[1].IsShort || items[1].AuthorID != "UC1" {
		t.Errorf("short not detected or author id missing: %+v", items[1])
	}

	items, err = NewDirectory(nil, fixed{Invidious: []string{bare.URL}}, 0).ChannelVideos(context.Background(), "UC2")
	if err != nil || len(items) != 1 || items[0].ID != "d" {
		t.Fatalf("bare array not accepted: %+v %v", items, err)
	}
}

func TestDirectoryAllInstancesFail(t *testing.T) {
	_, err := NewDirectory(nil, fixed{}, 0).Search(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error without instances")
	}

	srv := handler(t, map[string]string{})
	_, err = NewDirectory(nil, fixed{Invidious: []string{srv.URL}}, 0).ChannelVideos(context.Background(), "UC")
	if !errors.Is(err, model.ErrUpstreamUnreachable) {
		t.Fatalf("got %v", err)
	}
}

func TestProbeToleratesFieldTypes(t *testing.T) {
	body := `{
  "title": "Shape of You",
  "published": "1483660800",
  "viewCount": 1.5e9,
  "likeCount": "n/a",
  "lengthSeconds": "263",
  "keywords": ["pop", 3, null],
  "videoThumbnails": {"broken": true},
  "adaptiveFormats": [
    42,
    {"url": "https://i/m4a", "type": "audio/mp4", "bitrate": "129000", "audioSampleRate": "44100"},
    {"url": ["nope"], "type": "audio/webm"}
  ]
}`
	srv := handler(t, map[string]string{"/api/v1/videos/JGwWNGJdvx8": body})

	res, err := New(nil).Probe(context.Background(), srv.URL, "JGwWNGJdvx8")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if len(res.StreamingURLs) != 1 || res.StreamURL != "https://i/m4a" || res.StreamingURLs[0].AudioSampleRate != 44100 {
		t.Fatalf("unexpected streams %+v", res.StreamingURLs)
	}
	meta := res.Metadata.(*Metadata)
	if meta.Published != 1483660800 || meta.ViewCount != 1500000000 || meta.LikeCount != 0 || meta.LengthSeconds != 263 {
		t.Errorf("numbers not converted: %+v", meta)
	}
	if len(meta.Keywords) != 2 || meta.VideoThumbnails == nil || len(meta.VideoThumbnails) != 0 {
		t.Errorf("lists not sanitised: %v %v", meta.Keywords, meta.VideoThumbnails)
	}
}
