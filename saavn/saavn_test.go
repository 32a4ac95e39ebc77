package saavn

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/guohuiyuan/music-stream/model"
)

const shapeOfYou = `{
  "success": true,
  "data": {
    "results": [
      {
        "id": "abc",
        "name": "Shape of You (Acoustic)",
        "year": 2017,
        "duration": "245",
        "artists": {"primary": [{"name": "Someone Else", "id": "9", "role": "primary_artists"}]},
        "downloadUrl": [{"quality": "96kbps", "url": "https://cdn/acoustic-96.mp4"}]
      },
      {
        "id": "def",
        "name": "Shape Of You",
        "year": "2017",
        "duration": 233,
        "label": "Atlantic",
        "album": {"name": "Divide", "id": 42},
        "artists": {
          "primary": [{"name": "Ed Sheeran", "id": "1", "role": "primary_artists"}],
          "all": [{"name": "Ed Sheeran", "id": "1", "role": "singer"}, {"name": "Steve Mac", "id": "2", "role": "music"}]
        },
        "downloadUrl": [
          {"quality": "48kbps", "url": "https://cdn/def-48.mp4"},
          {"quality": "160kbps", "url": "https://cdn/def-160.mp4"},
          {"quality": "320kbps", "url": "https://cdn/def-320.mp4"}
        ],
        "image": [{"quality": "50x50", "url": "https://img/small.jpg"}, {"quality": "500x500", "link": "https://img/big.jpg"}],
        "hasLyrics": "true"
      }
    ]
  }
}`

func newCatalog(t *testing.T, status int, body string, queries *[]string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/songs" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if queries != nil {
			*queries = append(*queries, r.URL.Query().Get("query"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(WithBaseURL(srv.URL))
}

func TestResolveLooseMatch(t *testing.T) {
	var queries []string
	c := newCatalog(t, http.StatusOK, shapeOfYou, &queries)

	cand, err := c.Resolve(context.Background(), "Shape of You", "Ed Sheeran", Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cand.ID != "def" {
		t.Fatalf("expected the Ed Sheeran entry, got %q", cand.ID)
	}
	if cand.DownloadURL != "https://cdn/def-320.mp4" {
		t.Errorf("expected the 320 tier, got %q", cand.DownloadURL)
	}
	if cand.Thumbnail != "https://img/big.jpg" {
		t.Errorf("unexpected thumbnail %q", cand.Thumbnail)
	}
	if cand.DurationSeconds != 233 || cand.Year != "2017" || cand.Album.ID != "42" || !cand.HasLyrics {
		t.Errorf("fields not normalized: %+v", cand)
	}
	if len(queries) != 1 || queries[0] != "Shape of You Ed Sheeran" {
		t.Errorf("unexpected queries %v", queries)
	}
}

func TestResolveLooseFallsBackToTitle(t *testing.T) {
	c := newCatalog(t, http.StatusOK, shapeOfYou, nil)

	cand, err := c.Resolve(context.Background(), "Shape of You", "Nobody Known", Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// the first title match in upstream order
	if cand.ID != "abc" {
		t.Errorf("expected title-only fallback to the first hit, got %q", cand.ID)
	}
}

func TestResolveStrict(t *testing.T) {
	var queries []string
	c := newCatalog(t, http.StatusOK, shapeOfYou, &queries)

	cand, err := c.Resolve(context.Background(), "Shape of You", "Ed%20Sheeran", Options{Strict: true})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cand.ID != "def" {
		t.Errorf("unexpected candidate %q", cand.ID)
	}
	if queries[0] != "Shape of You" {
		t.Errorf("strict mode should search by title only, got %q", queries[0])
	}

	_, err = c.Resolve(context.Background(), "Shape of You", "Ed Sheeran, Beyonce", Options{Strict: true})
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("strict mode must not relax the artist check, got %v", err)
	}
}

func TestResolveErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"missing envelope", http.StatusOK, `{"data": null}`, model.ErrUpstreamFormat},
		{"not success", http.StatusOK, `{"success": false, "data": {"results": []}}`, model.ErrUpstreamFormat},
		{"not json", http.StatusOK, `<html>`, model.ErrUpstreamFormat},
		{"empty", http.StatusOK, `{"success": true, "data": {"results": []}}`, model.ErrNotFound},
		{"no title match", http.StatusOK, shapeOfYou, model.ErrNotFound},
		{"upstream down", http.StatusServiceUnavailable, ``, model.ErrUpstreamUnreachable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newCatalog(t, tc.status, tc.body, nil)
			_, err := c.Resolve(context.Background(), "Perfect", "Ed Sheeran", Options{})
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestResolveSurvivesSchemaDrift(t *testing.T) {
	body := `{"success": true, "data": {"results": [
		"not an object",
		{"name": "Perfect", "downloadUrl": "https://cdn/perfect.mp4", "artists": null},
		{"name": 12}
	]}}`
	c := newCatalog(t, http.StatusOK, body, nil)

	cand, err := c.Resolve(context.Background(), "Perfect", "Ed Sheeran", Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cand.DownloadURL != "https://cdn/perfect.mp4" {
		t.Errorf("string download url not accepted: %q", cand.DownloadURL)
	}
}

func TestParseSongFieldTypes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"album as string", `{"name": "Perfect", "album": "Divide", "artists": {"primary": [{"name": "Ed Sheeran"}]}, "downloadUrl": [{"quality": "320kbps", "url": "https://cdn/320.mp4"}]}`},
		{"numeric label", `{"name": "Perfect", "label": 5, "language": ["en"], "artists": {"primary": [{"name": "Ed Sheeran"}]}, "downloadUrl": [{"quality": "320kbps", "url": "https://cdn/320.mp4"}]}`},
		{"artists as array", `{"name": "Perfect", "artists": [{"name": "Ed Sheeran", "id": 1}, "junk"], "downloadUrl": [{"quality": "320kbps", "url": "https://cdn/320.mp4"}]}`},
		{"numeric quality", `{"name": "Perfect", "artists": {"primary": [{"name": "Ed Sheeran"}]}, "downloadUrl": [{"quality": 320, "url": "https://cdn/320.mp4"}, {"quality": "96kbps", "url": "https://cdn/96.mp4"}]}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cand, err := parseSong([]byte(c.raw))
			if err != nil {
				t.Fatalf("parseSong: %v", err)
			}
			if cand.DownloadURL != "https://cdn/320.mp4" {
				t.Errorf("expected the 320 link, got %q", cand.DownloadURL)
			}
			if names := cand.ArtistNames(); len(names) != 1 || names[0] != "Ed Sheeran" {
				t.Errorf("unexpected artists %v", names)
			}
		})
	}

	cand, _ := parseSong([]byte(cases[0].raw))
	if cand.Album.Name != "Divide" {
		t.Errorf("album name from string not kept: %+v", cand.Album)
	}
	cand, _ = parseSong([]byte(cases[1].raw))
	if cand.Label != "5" || cand.Language != "" {
		t.Errorf("unexpected label/language %q %q", cand.Label, cand.Language)
	}
}

func TestBestLink(t *testing.T) {
	cases := []struct {
		links []model.QualityLink
		want  string
	}{
		{nil, ""},
		{[]model.QualityLink{{Quality: "96kbps", URL: "a"}, {Quality: "320", URL: "b"}, {Quality: "160kbps", URL: "c"}}, "b"},
		{[]model.QualityLink{{Quality: "96kbps", URL: "a"}, {Quality: "160", URL: "c"}}, "c"},
		{[]model.QualityLink{{Quality: "12kbps", URL: "a"}, {Quality: "48kbps", URL: "z"}}, "z"},
	}
	for _, c := range cases {
		if got := bestLink(c.links); got != c.want {
			t.Errorf("bestLink(%v) = %q, want %q", c.links, got, c.want)
		}
	}
}

func TestLookup(t *testing.T) {
	c := newCatalog(t, http.StatusOK, shapeOfYou, nil)
	res := c.Lookup(context.Background(), model.TrackQuery{VideoID: "x", Title: "Shape of You", Artist: "Ed Sheeran"})
	if !res.Success || res.Service != model.ServiceSaavn {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Instance != "" {
		t.Errorf("catalog results carry no instance, got %q", res.Instance)
	}
	if res.StreamURL != "https://cdn/def-320.mp4" || len(res.StreamingURLs) != 3 {
		t.Errorf("unexpected urls %q %v", res.StreamURL, res.StreamingURLs)
	}

	var calls atomic.Int32
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()
	failed := New(WithBaseURL(down.URL)).Lookup(context.Background(), model.TrackQuery{Title: "a", Artist: "b"})
	if failed.Success || failed.Error == "" {
		t.Errorf("expected a failure result, got %+v", failed)
	}
	if calls.Load() != 1 {
		t.Errorf("expected exactly one upstream attempt, got %d", calls.Load())
	}
}

func TestSearchAll(t *testing.T) {
	c := newCatalog(t, http.StatusOK, `{"success": true, "data": {"results": []}}`, nil)
	results, trace, err := c.SearchAll(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("SearchAll: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
	if trace.QueriedURL == "" {
		t.Error("trace should record the queried url")
	}
}
