package tools

import (
	"context"
	"fmt"

	"github.com/strefethen/music-agent-go/internal/sonos"
)

var sonosEndpoint = map[string]property{
	"room": str("The Sonos room/zone name (optional if default room is set)"),
	"host": str("Optional host address for the Sonos HTTP API (default: localhost)"),
	"port": integer("Optional port for the Sonos HTTP API (default: 5005)"),
}

var playbackModeProp = str("Playback mode: play now, play next, or add to the end of the queue (default: now)", "now", "next", "queue")

type sonosTools struct {
	client *sonos.Client
}

// RegisterSonos adds the Sonos toolset.
func RegisterSonos(r *Registry, client *sonos.Client) {
	t := &sonosTools{client: client}
	roomOnly := schema(sonosEndpoint)

	r.mustRegister(
		Tool{Name: "play", Description: "Play music on a Sonos speaker", InputSchema: roomOnly,
			Handler: t.roomAction((*sonos.Client).Play, "Playback started in room: %s")},
		Tool{Name: "pause", Description: "Pause music on a Sonos speaker", InputSchema: roomOnly,
			Handler: t.roomAction((*sonos.Client).Pause, "Playback paused in room: %s")},
		Tool{Name: "stop", Description: "Stop music on a Sonos speaker", InputSchema: roomOnly,
			Handler: t.roomAction((*sonos.Client).Stop, "Playback stopped in room: %s")},
		Tool{Name: "next", Description: "Skip to next track on a Sonos speaker", InputSchema: roomOnly,
			Handler: t.roomAction((*sonos.Client).Next, "Skipped to next track in room: %s")},
		Tool{Name: "previous", Description: "Skip to previous track on a Sonos speaker", InputSchema: roomOnly,
			Handler: t.roomAction((*sonos.Client).Previous, "Skipped to previous track in room: %s")},
		Tool{Name: "clearQueue", Description: "Clear the queue on a Sonos speaker", InputSchema: roomOnly,
			Handler: t.roomAction((*sonos.Client).ClearQueue, "Queue cleared in room: %s")},
		Tool{Name: "leaveGroup", Description: "Remove a Sonos speaker from its group", InputSchema: roomOnly,
			Handler: t.roomAction((*sonos.Client).LeaveGroup, "Room %s left its group")},
		Tool{
			Name:        "setVolume",
			Description: "Set volume on a Sonos speaker",
			InputSchema: schema(merge(sonosEndpoint, map[string]property{
				"volume": boundedInt("Volume level (0-100)", 0, 100),
			}), "volume"),
			Handler: t.setVolume,
		},
		Tool{
			Name:        "setShuffle",
			Description: "Enable or disable shuffle mode on a Sonos speaker",
			InputSchema: schema(merge(sonosEndpoint, map[string]property{
				"enabled": boolean("Whether to enable or disable shuffle mode"),
			}), "enabled"),
			Handler: t.setShuffle,
		},
		Tool{
			Name:        "addToQueue",
			Description: "Add a track URI to the queue on a Sonos speaker",
			InputSchema: schema(merge(sonosEndpoint, map[string]property{
				"uri": str("The track URI to add"),
			}), "uri"),
			Handler: t.addToQueue,
		},
		Tool{
			Name:        "getQueue",
			Description: "Get the current queue from a Sonos speaker",
			InputSchema: schema(merge(sonosEndpoint, map[string]property{
				"limit":    integer("Maximum number of items to return"),
				"offset":   integer("Number of items to skip (requires limit)"),
				"detailed": boolean("Include track URIs"),
			})),
			Handler: t.getQueue,
		},
		Tool{
			Name:        "getState",
			Description: "Get the current state of a Sonos speaker",
			InputSchema: roomOnly,
			Handler:     t.getState,
		},
		Tool{
			Name:        "getRooms",
			Description: "Get a list of available Sonos rooms/zones",
			InputSchema: schema(map[string]property{
				"host": sonosEndpoint["host"],
				"port": sonosEndpoint["port"],
			}),
			Handler: t.getRooms,
		},
		Tool{
			Name:        "joinRoom",
			Description: "Join a Sonos speaker to a group",
			InputSchema: schema(merge(sonosEndpoint, map[string]property{
				"room":       str("The Sonos room/zone name that will join the group (optional if default room is set)"),
				"targetRoom": str("The room that is already in the target group"),
			}), "targetRoom"),
			Handler: t.joinRoom,
		},
		Tool{
			Name: "playAppleMusic",
			Description: "Play Apple Music content on a Sonos speaker. Use this to play Apple Music songs, albums " +
				"or playlists now, next, or to add them to the queue.",
			InputSchema: schema(merge(sonosEndpoint, map[string]property{
				"contentType": str("Type of Apple Music content", "song", "album", "playlist"),
				"contentId":   str("Apple Music content ID"),
				"mode":        playbackModeProp,
			}), "contentType", "contentId"),
			Handler: t.playAppleMusic,
		},
		Tool{
			Name:        "playAppleMusicPlaylist",
			Description: "Play an Apple Music library or catalog playlist on a Sonos speaker",
			InputSchema: schema(merge(sonosEndpoint, map[string]property{
				"playlistId": str("Apple Music playlist ID"),
				"mode":       playbackModeProp,
			}), "playlistId"),
			Handler: t.playPlaylist("Playing Apple Music playlist %s in room: %s", (*sonos.Client).PlayAppleMusicPlaylist),
		},
		Tool{
			Name:        "playStorefrontPlaylist",
			Description: "Play an Apple Music storefront (chart or editorial) playlist on a Sonos speaker",
			InputSchema: schema(merge(sonosEndpoint, map[string]property{
				"playlistId": str("Storefront playlist ID, e.g. pl.f4d106fed2bd41149aaacabb233eb5eb"),
				"mode":       playbackModeProp,
			}), "playlistId"),
			Handler: t.playPlaylist("Playing Apple Music storefront playlist with ID %s in room: %s", (*sonos.Client).PlayStorefrontPlaylist),
		},
	)
}

func (t *sonosTools) clientFor(args Args) (*sonos.Client, error) {
	host := args.OptionalString("host")
	port, err := args.IntOr("port", 0)
	if err != nil {
		return nil, err
	}
	if host == "" && port == 0 {
		return t.client, nil
	}
	return t.client.WithEndpoint(host, port), nil
}

func roomLabel(room string) string {
	if room == "" {
		return "default room"
	}
	return room
}

func (t *sonosTools) roomAction(fn func(*sonos.Client, context.Context, string) error, format string) HandlerFunc {
	return func(ctx context.Context, args Args) (any, error) {
		c, err := t.clientFor(args)
		if err != nil {
			return nil, err
		}
		room := args.OptionalString("room")
		if err := fn(c, ctx, room); err != nil {
			return nil, err
		}
		return fmt.Sprintf(format, roomLabel(room)), nil
	}
}

func (t *sonosTools) setVolume(ctx context.Context, args Args) (any, error) {
	volume, err := args.Volume("volume")
	if err != nil {
		return nil, err
	}
	c, err := t.clientFor(args)
	if err != nil {
		return nil, err
	}
	room := args.OptionalString("room")
	if err := c.SetVolume(ctx, room, volume); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Volume set to %d in room: %s", volume, roomLabel(room)), nil
}

func (t *sonosTools) setShuffle(ctx context.Context, args Args) (any, error) {
	enabled, err := args.RequiredBool("enabled")
	if err != nil {
		return nil, err
	}
	c, err := t.clientFor(args)
	if err != nil {
		return nil, err
	}
	room := args.OptionalString("room")
	if err := c.SetShuffle(ctx, room, enabled); err != nil {
		return nil, err
	}
	status := "disabled"
	if enabled {
		status = "enabled"
	}
	return fmt.Sprintf("Shuffle mode %s in room: %s", status, roomLabel(room)), nil
}

func (t *sonosTools) addToQueue(ctx context.Context, args Args) (any, error) {
	uri, err := args.RequiredString("uri")
	if err != nil {
		return nil, err
	}
	c, err := t.clientFor(args)
	if err != nil {
		return nil, err
	}
	room := args.OptionalString("room")
	if err := c.AddToQueue(ctx, room, uri); err != nil {
		return nil, err
	}
	return "Added track to queue in room: " + roomLabel(room), nil
}

func (t *sonosTools) getQueue(ctx context.Context, args Args) (any, error) {
	limit, err := args.OptionalInt("limit")
	if err != nil {
		return nil, err
	}
	offset, err := args.OptionalInt("offset")
	if err != nil {
		return nil, err
	}
	detailed, _, err := args.Bool("detailed")
	if err != nil {
		return nil, err
	}
	c, err := t.clientFor(args)
	if err != nil {
		return nil, err
	}
	return c.GetQueue(ctx, args.OptionalString("room"), sonos.QueueOptions{Limit: limit, Offset: offset, Detailed: detailed})
}

func (t *sonosTools) getState(ctx context.Context, args Args) (any, error) {
	c, err := t.clientFor(args)
	if err != nil {
		return nil, err
	}
	return c.GetState(ctx, args.OptionalString("room"))
}

func (t *sonosTools) getRooms(ctx context.Context, args Args) (any, error) {
	c, err := t.clientFor(args)
	if err != nil {
		return nil, err
	}
	return c.GetRooms(ctx)
}

func (t *sonosTools) joinRoom(ctx context.Context, args Args) (any, error) {
	target, err := args.RequiredString("targetRoom")
	if err != nil {
		return nil, err
	}
	c, err := t.clientFor(args)
	if err != nil {
		return nil, err
	}
	room := args.OptionalString("room")
	if err := c.JoinRoom(ctx, room, target); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Room %s joined group with %s", roomLabel(room), target), nil
}

func playbackMode(args Args) (sonos.PlaybackMode, error) {
	raw := args.OptionalString("mode")
	if raw == "" {
		return sonos.PlaybackNow, nil
	}
	mode, err := sonos.ParsePlaybackMode(raw)
	if err != nil {
		return "", &ArgumentError{Name: "mode", Reason: "must be one of: now, next, queue"}
	}
	return mode, nil
}

func (t *sonosTools) playAppleMusic(ctx context.Context, args Args) (any, error) {
	rawType, err := args.RequiredString("contentType")
	if err != nil {
		return nil, err
	}
	contentType, err := sonos.ParseContentType(rawType)
	if err != nil {
		return nil, &ArgumentError{Name: "contentType", Reason: "must be one of: song, album, playlist"}
	}
	id, err := args.RequiredString("contentId")
	if err != nil {
		return nil, err
	}
	mode, err := playbackMode(args)
	if err != nil {
		return nil, err
	}
	c, err := t.clientFor(args)
	if err != nil {
		return nil, err
	}
	room := args.OptionalString("room")
	if err := c.PlayAppleMusic(ctx, room, contentType, id, mode); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Playing Apple Music %s %s with ID %s in room: %s", mode, contentType, id, roomLabel(room)), nil
}

type playlistFunc func(c *sonos.Client, ctx context.Context, room, playlistID string, mode sonos.PlaybackMode) error

func (t *sonosTools) playPlaylist(format string, fn playlistFunc) HandlerFunc {
	return func(ctx context.Context, args Args) (any, error) {
		id, err := args.RequiredString("playlistId")
		if err != nil {
			return nil, err
		}
		mode, err := playbackMode(args)
		if err != nil {
			return nil, err
		}
		c, err := t.clientFor(args)
		if err != nil {
			return nil, err
		}
		room := args.OptionalString("room")
		if err := fn(c, ctx, room, id, mode); err != nil {
			return nil, err
		}
		return fmt.Sprintf(format, id, roomLabel(room)), nil
	}
}
