// Package sonos is a client for the node-sonos-http-api bridge, which exposes
// each room's transport controls as plain GET endpoints.
package sonos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultHost    = "localhost"
	DefaultPort    = 5005
	DefaultTimeout = 10 * time.Second

	// maxResponseBody caps a bridge response; detailed queues are the largest.
	maxResponseBody = 4 << 20
)

// Config configures a Client. Zero values fall back to the defaults above.
type Config struct {
	Host        string
	Port        int
	DefaultRoom string
	Timeout     time.Duration
	HTTPClient  *http.Client
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Client talks to one bridge. It is safe for concurrent use.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a bridge client with a pooled transport.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: cfg.Timeout}).DialContext,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Client{
		cfg:        cfg,
		baseURL:    "http://" + net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		httpClient: httpClient,
	}
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// WithEndpoint returns a client for another bridge that shares this client's
// transport and default room. Empty host or zero port keep the current value.
func (c *Client) WithEndpoint(host string, port int) *Client {
	cfg := c.cfg
	if host != "" {
		cfg.Host = host
	}
	if port != 0 {
		cfg.Port = port
	}
	cfg.HTTPClient = c.httpClient
	return NewClient(cfg)
}

// ResolveRoom returns room, or the default room when room is empty.
func (c *Client) ResolveRoom(room string) (string, error) {
	if room != "" {
		return room, nil
	}
	if c.cfg.DefaultRoom != "" {
		return c.cfg.DefaultRoom, nil
	}
	return "", ErrNoRoomSpecified
}

func (c *Client) Play(ctx context.Context, room string) error {
	return c.action(ctx, room, "play")
}

func (c *Client) Pause(ctx context.Context, room string) error {
	return c.action(ctx, room, "pause")
}

func (c *Client) Stop(ctx context.Context, room string) error {
	return c.action(ctx, room, "stop")
}

func (c *Client) Next(ctx context.Context, room string) error {
	return c.action(ctx, room, "next")
}

func (c *Client) Previous(ctx context.Context, room string) error {
	return c.action(ctx, room, "previous")
}

func (c *Client) Mute(ctx context.Context, room string) error {
	return c.action(ctx, room, "mute")
}

func (c *Client) Unmute(ctx context.Context, room string) error {
	return c.action(ctx, room, "unmute")
}

// SetVolume sets an absolute volume. Range checking is left to callers.
func (c *Client) SetVolume(ctx context.Context, room string, volume int) error {
	return c.action(ctx, room, "volume", strconv.Itoa(volume))
}

func (c *Client) SetShuffle(ctx context.Context, room string, enabled bool) error {
	state := "off"
	if enabled {
		state = "on"
	}
	return c.action(ctx, room, "shuffle", state)
}

func (c *Client) ClearQueue(ctx context.Context, room string) error {
	return c.action(ctx, room, "clearqueue")
}

// AddToQueue appends a track URI to the room's queue.
func (c *Client) AddToQueue(ctx context.Context, room, uri string) error {
	return c.action(ctx, room, "queue", uri)
}

// JoinRoom adds room to the group that target belongs to.
func (c *Client) JoinRoom(ctx context.Context, room, target string) error {
	return c.action(ctx, room, "join", target)
}

// LeaveGroup removes room from its current group.
func (c *Client) LeaveGroup(ctx context.Context, room string) error {
	return c.action(ctx, room, "leave")
}

// GetQueue lists the room's queue.
func (c *Client) GetQueue(ctx context.Context, room string, opts QueueOptions) ([]QueueItem, error) {
	segments := []string{"queue"}
	if opts.Limit != nil {
		segments = append(segments, strconv.Itoa(*opts.Limit))
		if opts.Offset != nil {
			segments = append(segments, strconv.Itoa(*opts.Offset))
		}
	}
	if opts.Detailed {
		segments = append(segments, "detailed")
	}

	var items []QueueItem
	if err := c.roomJSON(ctx, room, &items, segments...); err != nil {
		return nil, err
	}
	return items, nil
}

// GetState returns the room's transport, track and volume state.
func (c *Client) GetState(ctx context.Context, room string) (State, error) {
	var state State
	if err := c.roomJSON(ctx, room, &state, "state"); err != nil {
		return State{}, err
	}
	return state, nil
}

// GetZones returns the household's groups.
func (c *Client) GetZones(ctx context.Context) ([]Zone, error) {
	var zones []Zone
	if err := c.getJSON(ctx, "zones", []string{"zones"}, &zones); err != nil {
		return nil, err
	}
	return zones, nil
}

// GetRooms returns every room name, in zone order.
func (c *Client) GetRooms(ctx context.Context) ([]string, error) {
	zones, err := c.GetZones(ctx)
	if err != nil {
		return nil, err
	}
	rooms := make([]string, 0, len(zones))
	for _, zone := range zones {
		for _, member := range zone.Members {
			rooms = append(rooms, member.RoomName)
		}
	}
	return rooms, nil
}

// PlayAppleMusic plays, queues next, or appends an Apple Music item.
func (c *Client) PlayAppleMusic(ctx context.Context, room string, contentType ContentType, id string, mode PlaybackMode) error {
	if !contentType.valid() {
		return fmt.Errorf("%w: %q", ErrInvalidContentType, contentType)
	}
	if !mode.valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPlaybackMode, mode)
	}
	return c.action(ctx, room, "applemusic", string(mode), string(contentType)+":"+id)
}

func (c *Client) PlayAppleMusicPlaylist(ctx context.Context, room, playlistID string, mode PlaybackMode) error {
	return c.PlayAppleMusic(ctx, room, ContentPlaylist, playlistID, mode)
}

// PlayStorefrontPlaylist plays a catalog (chart or editorial) playlist.
func (c *Client) PlayStorefrontPlaylist(ctx context.Context, room, playlistID string, mode PlaybackMode) error {
	return c.PlayAppleMusic(ctx, room, ContentPlaylist, playlistID, mode)
}

func (c *Client) action(ctx context.Context, room string, segments ...string) error {
	roomName, err := c.ResolveRoom(room)
	if err != nil {
		return err
	}
	_, err = c.get(ctx, strings.Join(segments, "/"), append([]string{roomName}, segments...))
	return err
}

func (c *Client) roomJSON(ctx context.Context, room string, out any, segments ...string) error {
	roomName, err := c.ResolveRoom(room)
	if err != nil {
		return err
	}
	return c.getJSON(ctx, strings.Join(segments, "/"), append([]string{roomName}, segments...), out)
}

func (c *Client) getJSON(ctx context.Context, action string, segments []string, out any) error {
	body, err := c.get(ctx, action, segments)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &RequestFailedError{Action: action, StatusCode: http.StatusOK, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) get(ctx context.Context, action string, segments []string) ([]byte, error) {
	escaped := make([]string, len(segments))
	for i, segment := range segments {
		escaped[i] = url.PathEscape(segment)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+strings.Join(escaped, "/"), nil)
	if err != nil {
		return nil, &RequestFailedError{Action: action, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestFailedError{Action: action, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return nil, &RequestFailedError{Action: action, StatusCode: resp.StatusCode, Err: err}
	}
	if len(body) > maxResponseBody {
		return nil, &RequestFailedError{Action: action, StatusCode: resp.StatusCode, Err: ErrResponseTooLarge}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestFailedError{Action: action, StatusCode: resp.StatusCode}
	}
	return body, nil
}
