// Package spotify ищет обложки треков через Spotify Web API.
package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"radiofeed/internal/track"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
)

const defaultTokenURL = "https://accounts.spotify.com/api/token"

// tokenTransport добавляет токен к каждому запросу
type tokenTransport struct {
	base      http.RoundTripper
	token     string
	tokenType string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", t.tokenType+" "+t.token)

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// Option настраивает CoverResolver
type Option func(*CoverResolver)

// WithEndpoints подменяет адреса токена и API
func WithEndpoints(tokenURL, apiBaseURL string) Option {
	return func(r *CoverResolver) {
		r.tokenURL = tokenURL
		r.apiBaseURL = apiBaseURL
	}
}

// CoverResolver находит обложки для записей без обложки.
// Не потокобезопасен: используется одним запуском последовательно.
type CoverResolver struct {
	clientID     string
	clientSecret string
	tokenURL     string
	apiBaseURL   string
	httpClient   *http.Client
	logger       *zap.Logger

	client *spotify.Client
	cache  map[string]string
}

// NewCoverResolver создает резолвер с Client Credentials Flow
func NewCoverResolver(clientID, clientSecret string, httpClient *http.Client, logger *zap.Logger, opts ...Option) (*CoverResolver, error) {
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("spotify client ID and secret are required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &CoverResolver{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     defaultTokenURL,
		httpClient:   httpClient,
		logger:       logger,
		cache:        make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Enrich возвращает копию записей, где пустые обложки заполнены найденными.
// Ошибки поиска логируются, запись остается без обложки.
func (r *CoverResolver) Enrich(ctx context.Context, records []track.Record) []track.Record {
	out := make([]track.Record, len(records))
	resolved := 0

	for i, rec := range records {
		out[i] = rec
		if rec.CoverURL != "" || rec.Title == "" {
			continue
		}

		cover, err := r.Resolve(ctx, rec.Artist, rec.Title)
		if err != nil {
			r.logger.Warn("Failed to resolve cover",
				zap.String("station", rec.Station),
				zap.String("track", rec.ArtistTitle()),
				zap.Error(err))
			if ctx.Err() != nil {
				copy(out[i+1:], records[i+1:])
				break
			}
			continue
		}
		if cover != "" {
			out[i] = rec.WithCover(cover)
			resolved++
		}
	}

	r.logger.Debug("Resolved covers", zap.Int("resolved", resolved))
	return out
}

// Resolve возвращает ссылку на обложку альбома первого найденного трека или пустую строку
func (r *CoverResolver) Resolve(ctx context.Context, artist, title string) (string, error) {
	key := cacheKey(artist, title)
	if cover, ok := r.cache[key]; ok {
		return cover, nil
	}

	client, err := r.spotifyClient(ctx)
	if err != nil {
		return "", err
	}

	result, err := client.Search(ctx, SearchQuery(artist, title), spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return "", fmt.Errorf("spotify search failed: %w", err)
	}

	cover := ""
	if result.Tracks != nil && len(result.Tracks.Tracks) > 0 {
		if images := result.Tracks.Tracks[0].Album.Images; len(images) > 0 {
			cover = images[0].URL
		}
	}

	r.cache[key] = cover
	return cover, nil
}

// spotifyClient получает токен один раз за запуск
func (r *CoverResolver) spotifyClient(ctx context.Context) (*spotify.Client, error) {
	if r.client != nil {
		return r.client, nil
	}

	data := url.Values{}
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	credentials := base64.StdEncoding.EncodeToString([]byte(r.clientID + ":" + r.clientSecret))
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			r.logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResponse.AccessToken == "" {
		return nil, errors.New("no access token received")
	}
	if tokenResponse.TokenType == "" {
		tokenResponse.TokenType = "Bearer"
	}

	tokenClient := &http.Client{
		Timeout: r.httpClient.Timeout,
		Transport: &tokenTransport{
			base:      r.httpClient.Transport,
			token:     tokenResponse.AccessToken,
			tokenType: tokenResponse.TokenType,
		},
	}

	var opts []spotify.ClientOption
	if r.apiBaseURL != "" {
		opts = append(opts, spotify.WithBaseURL(r.apiBaseURL))
	}
	r.client = spotify.New(tokenClient, opts...)

	r.logger.Debug("Created Spotify client", zap.Int("expires_in", tokenResponse.ExpiresIn))
	return r.client, nil
}

// SearchQuery строит запрос поиска трека по названию и артисту
func SearchQuery(artist, title string) string {
	q := `track:"` + unquote(title) + `"`
	if artist = unquote(artist); artist != "" {
		q += ` artist:"` + artist + `"`
	}
	return q
}

func unquote(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

func cacheKey(artist, title string) string {
	return strings.ToLower(strings.TrimSpace(artist)) + "|" + strings.ToLower(strings.TrimSpace(title))
}
