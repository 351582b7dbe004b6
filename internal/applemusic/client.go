package applemusic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL    = "https://api.music.apple.com/v1"
	DefaultStorefront = "us"
	DefaultLimit      = 25

	maxErrorBody = 4 << 10
)

// Client is an HTTP client for the Apple Music API.
type Client struct {
	tokens     TokenProvider
	httpClient *http.Client
	baseURL    string
	origin     string
	storefront string
}

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	Tokens     TokenProvider // Required: supplies the developer token
	BaseURL    string        // Optional: defaults to https://api.music.apple.com/v1
	Storefront string        // Optional: defaults to "us"
	Timeout    time.Duration // Optional: HTTP timeout, defaults to 10s
	HTTPClient *http.Client  // Optional: overrides Timeout
}

// NewClient creates a new Apple Music API client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	storefront := cfg.Storefront
	if storefront == "" {
		storefront = DefaultStorefront
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	tokens := cfg.Tokens
	if tokens == nil {
		tokens = StaticToken("")
	}

	return &Client{
		tokens:     tokens,
		httpClient: httpClient,
		baseURL:    baseURL,
		origin:     originOf(baseURL),
		storefront: storefront,
	}
}

// Storefront returns the catalog storefront this client queries.
func (c *Client) Storefront() string {
	return c.storefront
}

// WithStorefront returns a client for another storefront sharing this
// client's transport and token source. An empty storefront returns c.
func (c *Client) WithStorefront(storefront string) *Client {
	if storefront == "" || storefront == c.storefront {
		return c
	}
	clone := *c
	clone.storefront = storefront
	return &clone
}

// SearchByArtist searches the catalog for artists.
func (c *Client) SearchByArtist(ctx context.Context, name string, limit int) (*SearchResponse, error) {
	return c.search(ctx, name, "artists", limit)
}

// SearchByTitle searches the catalog for songs.
func (c *Client) SearchByTitle(ctx context.Context, title string, limit int) (*SearchResponse, error) {
	return c.search(ctx, title, "songs", limit)
}

// SearchByArtistAndTitle searches for artists and songs matching both terms.
func (c *Client) SearchByArtistAndTitle(ctx context.Context, artist, title string, limit int) (*SearchResponse, error) {
	return c.search(ctx, artist+" "+title, "artists,songs", limit)
}

// SearchStorefrontPlaylists searches catalog playlists by name.
func (c *Client) SearchStorefrontPlaylists(ctx context.Context, name string, limit int) (*SearchResponse, error) {
	return c.search(ctx, name, "playlists", limit)
}

func (c *Client) search(ctx context.Context, term, types string, limit int) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("types", types)
	params.Set("limit", strconv.Itoa(normalizeLimit(limit)))

	endpoint := fmt.Sprintf("/catalog/%s/search?%s&term=%s",
		url.PathEscape(c.storefront), params.Encode(), EncodeTerm(term))

	var resp SearchResponse
	if err := c.get(ctx, endpoint, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSongDetails returns a single catalog song.
func (c *Client) GetSongDetails(ctx context.Context, id string) (*Song, error) {
	endpoint := fmt.Sprintf("/catalog/%s/songs/%s", url.PathEscape(c.storefront), url.PathEscape(id))

	var resp SongResponse
	if err := c.get(ctx, endpoint, "", &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, ErrNoDataReturned
	}
	return &resp.Data[0], nil
}

// GetUserPlaylists lists playlists in the user's library.
func (c *Client) GetUserPlaylists(ctx context.Context, limit, offset int, userToken string) (*UserPlaylistsResponse, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(normalizeLimit(limit)))
	params.Set("offset", strconv.Itoa(offset))

	var resp UserPlaylistsResponse
	if err := c.get(ctx, "/me/library/playlists?"+params.Encode(), userToken, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetUserPlaylistDetails returns one library playlist.
func (c *Client) GetUserPlaylistDetails(ctx context.Context, id, userToken string) (*Playlist, error) {
	var resp PlaylistResponse
	if err := c.get(ctx, "/me/library/playlists/"+url.PathEscape(id), userToken, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, ErrNoDataReturned
	}
	return &resp.Data[0], nil
}

// SearchUserPlaylists filters library playlists by name.
func (c *Client) SearchUserPlaylists(ctx context.Context, name string, limit int, userToken string) (*UserPlaylistsResponse, error) {
	endpoint := fmt.Sprintf("/me/library/playlists?limit=%d&term=%s", normalizeLimit(limit), EncodeTerm(name))

	var resp UserPlaylistsResponse
	if err := c.get(ctx, endpoint, userToken, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChartQuery selects a page of storefront chart playlists.
type ChartQuery struct {
	Chart  ChartType  // Optional
	Genre  ChartGenre // Optional; GenreAll means no filter
	Limit  int
	Offset int
}

// GetStorefrontCharts lists chart playlists for the client's storefront.
func (c *Client) GetStorefrontCharts(ctx context.Context, query ChartQuery) (*StorefrontChartsResponse, error) {
	params := url.Values{}
	params.Set("filter[storefront-chart]", c.storefront)
	if query.Chart != "" {
		params.Set("filter[chart]", string(query.Chart))
	}
	if query.Genre != "" && query.Genre != GenreAll {
		params.Set("filter[genre]", string(query.Genre))
	}
	params.Set("limit", strconv.Itoa(normalizeLimit(query.Limit)))
	params.Set("offset", strconv.Itoa(query.Offset))

	endpoint := fmt.Sprintf("/catalog/%s/playlists?%s", url.PathEscape(c.storefront), params.Encode())

	var resp StorefrontChartsResponse
	if err := c.get(ctx, endpoint, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetStorefrontPlaylistDetails returns one catalog playlist.
func (c *Client) GetStorefrontPlaylistDetails(ctx context.Context, id string) (*Playlist, error) {
	endpoint := fmt.Sprintf("/catalog/%s/playlists/%s", url.PathEscape(c.storefront), url.PathEscape(id))

	var resp PlaylistResponse
	if err := c.get(ctx, endpoint, "", &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, ErrNoDataReturned
	}
	return &resp.Data[0], nil
}

// Next follows a pagination path such as ResultPage.Next into out.
// Library pages need the user token; catalog pages pass "".
func (c *Client) Next(ctx context.Context, next, userToken string, out any) error {
	if next == "" {
		return errors.New("no next page")
	}
	return c.do(ctx, c.origin+next, userToken, out)
}

func (c *Client) get(ctx context.Context, endpoint, userToken string, out any) error {
	return c.do(ctx, c.baseURL+endpoint, userToken, out)
}

// do issues a GET and decodes the JSON body into out.
func (c *Client) do(ctx context.Context, fullURL, userToken string, out any) error {
	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("developer token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if userToken != "" {
		req.Header.Set("Music-User-Token", userToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodingError{Err: err}
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// originOf strips the path from the base URL; pagination links are host-relative.
func originOf(baseURL string) string {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return baseURL
	}
	return parsed.Scheme + "://" + parsed.Host
}
