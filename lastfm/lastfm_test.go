package lastfm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/guohuiyuan/music-stream/model"
)

func TestSimilarTracks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("method") != "track.getsimilar" || q.Get("track") != "Shape of You" || q.Get("api_key") != "k" || q.Get("limit") != "3" {
			t.Errorf("unexpected query %v", q)
		}
		_, _ = w.Write([]byte(`{"similartracks": {"track": [
			{"name": "Perfect", "artist": {"name": "Ed Sheeran"}},
			{"name": "", "artist": {"name": "Nobody"}},
			{"name": "Closer", "artist": {"name": "The Chainsmokers"}}
		]}}`))
	}))
	defer srv.Close()

	tracks, err := New("k", srv.URL, nil).SimilarTracks(context.Background(), "Shape of You", "Ed Sheeran", 3)
	if err != nil {
		t.Fatalf("SimilarTracks: %v", err)
	}
	if len(tracks) != 2 || tracks[0].Title != "Perfect" || tracks[1].Artist != "The Chainsmokers" {
		t.Fatalf("unexpected tracks %+v", tracks)
	}
}

func TestSimilarTracksErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": 6, "message": "Track not found"}`))
	}))
	defer srv.Close()

	if _, err := New("k", srv.URL, nil).SimilarTracks(context.Background(), "x", "y", 5); !errors.Is(err, model.ErrUpstreamFormat) {
		t.Errorf("api error: got %v", err)
	}
	if _, err := New("", srv.URL, nil).SimilarTracks(context.Background(), "x", "y", 5); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("missing key: got %v", err)
	}
}
