package spotify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"radiofeed/internal/track"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSpotify struct {
	tokenCalls  atomic.Int32
	searchCalls atomic.Int32
	lastQuery   string
	lastAuth    string
}

func (f *fakeSpotify) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})

	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		f.searchCalls.Add(1)
		f.lastQuery = r.URL.Query().Get("q")
		f.lastAuth = r.Header.Get("Authorization")

		items := []any{}
		if f.lastQuery == `track:"Bohemian Rhapsody" artist:"Queen"` {
			items = append(items, map[string]any{
				"name": "Bohemian Rhapsody",
				"album": map[string]any{
					"name":   "A Night at the Opera",
					"images": []any{map[string]any{"url": "https://i.scdn.co/image/opera", "height": 640, "width": 640}},
				},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"tracks": map[string]any{"items": items, "total": len(items)}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestResolver(t *testing.T, f *fakeSpotify, secret string) *CoverResolver {
	t.Helper()
	srv := f.server(t)
	r, err := NewCoverResolver("id", secret, srv.Client(), zap.NewNop(),
		WithEndpoints(srv.URL+"/api/token", srv.URL+"/v1/"))
	require.NoError(t, err)
	return r
}

func TestCoverResolver_Resolve(t *testing.T) {
	f := &fakeSpotify{}
	r := newTestResolver(t, f, "secret")

	cover, err := r.Resolve(t.Context(), "Queen", "Bohemian Rhapsody")
	require.NoError(t, err)
	assert.Equal(t, "https://i.scdn.co/image/opera", cover)
	assert.Equal(t, "Bearer tok", f.lastAuth)

	// Повтор берется из кэша, токен запрашивается один раз
	cover, err = r.Resolve(t.Context(), "queen ", "bohemian rhapsody")
	require.NoError(t, err)
	assert.Equal(t, "https://i.scdn.co/image/opera", cover)
	assert.Equal(t, int32(1), f.searchCalls.Load())
	assert.Equal(t, int32(1), f.tokenCalls.Load())

	cover, err = r.Resolve(t.Context(), "Nobody", "Nothing")
	require.NoError(t, err)
	assert.Empty(t, cover)
}

func TestCoverResolver_Enrich(t *testing.T) {
	f := &fakeSpotify{}
	r := newTestResolver(t, f, "secret")

	records := []track.Record{
		{Station: "Radio 357", Artist: "Queen", Title: "Bohemian Rhapsody"},
		{Station: "Radio 357", Artist: "Kult", Title: "Arahja", CoverURL: "https://cdn/kult.webp"},
		{Station: "Radio 357", Title: "Jingle"},
	}

	got := r.Enrich(t.Context(), records)
	require.Len(t, got, 3)
	assert.Equal(t, "https://i.scdn.co/image/opera", got[0].CoverURL)
	assert.Equal(t, "https://cdn/kult.webp", got[1].CoverURL)
	assert.Empty(t, got[2].CoverURL)
	assert.Empty(t, records[0].CoverURL, "input is not mutated")
	assert.Equal(t, int32(2), f.searchCalls.Load())
}

func TestCoverResolver_TokenFailure(t *testing.T) {
	f := &fakeSpotify{}
	r := newTestResolver(t, f, "wrong")

	_, err := r.Resolve(t.Context(), "Queen", "Bohemian Rhapsody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	got := r.Enrich(t.Context(), []track.Record{{Artist: "Queen", Title: "Bohemian Rhapsody"}})
	assert.Empty(t, got[0].CoverURL)
}

func TestNewCoverResolver_RequiresCredentials(t *testing.T) {
	_, err := NewCoverResolver("", "secret", nil, nil)
	assert.Error(t, err)
}

func TestSearchQuery(t *testing.T) {
	assert.Equal(t, `track:"Bohemian Rhapsody" artist:"Queen"`, SearchQuery("Queen", "Bohemian Rhapsody"))
	assert.Equal(t, `track:"Newsbeat"`, SearchQuery("", "Newsbeat"))
	assert.Equal(t, `track:"Say Hello" artist:"Rosie"`, SearchQuery(`"Rosie"`, `Say "Hello"`))
}
