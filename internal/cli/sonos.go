package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strefethen/music-agent-go/internal/sonos"
	"github.com/strefethen/music-agent-go/internal/tools"
)

type sonosFlags struct {
	room string
	host string
	port int
}

func newSonosCommand(app *App) *cobra.Command {
	flags := &sonosFlags{}
	cmd := &cobra.Command{
		Use:   "sonos",
		Short: "Control Sonos rooms through the HTTP bridge",
	}
	cmd.PersistentFlags().StringVarP(&flags.room, "room", "r", "", "room name (default SONOS_DEFAULT_ROOM)")
	cmd.PersistentFlags().StringVar(&flags.host, "host", "", "bridge host (default SONOS_HOST)")
	cmd.PersistentFlags().IntVar(&flags.port, "port", 0, "bridge port (default SONOS_PORT)")

	run := func(cmd *cobra.Command, tool string, args tools.Args) error {
		return app.runSonos(cmd, flags, tool, args)
	}
	simple := func(use, short, tool string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, tool, nil)
			},
		}
	}

	cmd.AddCommand(
		simple("play", "Resume playback", "play"),
		simple("pause", "Pause playback", "pause"),
		simple("stop", "Stop playback", "stop"),
		simple("next", "Skip to the next track", "next"),
		simple("previous", "Go back to the previous track", "previous"),
		simple("clear-queue", "Remove every track from the queue", "clearQueue"),
		simple("leave", "Leave the current group", "leaveGroup"),
		simple("state", "Show the room's playback state", "getState"),
		simple("rooms", "List room names", "getRooms"),
		&cobra.Command{
			Use:   "volume <0-100>",
			Short: "Set the room volume",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, "setVolume", tools.Args{"volume": args[0]})
			},
		},
		&cobra.Command{
			Use:   "shuffle <on|off>",
			Short: "Turn shuffle on or off",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, "setShuffle", tools.Args{"enabled": args[0]})
			},
		},
		&cobra.Command{
			Use:   "add <uri>",
			Short: "Append a URI to the queue",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, "addToQueue", tools.Args{"uri": args[0]})
			},
		},
		&cobra.Command{
			Use:   "join <room>",
			Short: "Join another room's group",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, "joinRoom", tools.Args{"targetRoom": args[0]})
			},
		},
		newSonosQueueCommand(run),
	)
	cmd.AddCommand(newSonosPlayCommands(run)...)
	cmd.AddCommand(
		app.sonosDirect(flags, "mute", "Mute the room", func(cmd *cobra.Command, c *sonos.Client, room string) error {
			if err := c.Mute(cmd.Context(), room); err != nil {
				return err
			}
			return printResult(cmd, fmt.Sprintf("Muted %s", room))
		}),
		app.sonosDirect(flags, "unmute", "Unmute the room", func(cmd *cobra.Command, c *sonos.Client, room string) error {
			if err := c.Unmute(cmd.Context(), room); err != nil {
				return err
			}
			return printResult(cmd, fmt.Sprintf("Unmuted %s", room))
		}),
		&cobra.Command{
			Use:   "zones",
			Short: "Show zones with their coordinators and members",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				zones, err := app.sonos(flags.host, flags.port, flags.room).GetZones(cmd.Context())
				if err != nil {
					return err
				}
				return printResult(cmd, zones)
			},
		},
	)
	return cmd
}

type sonosRun func(cmd *cobra.Command, tool string, args tools.Args) error

func newSonosQueueCommand(run sonosRun) *cobra.Command {
	var (
		limit    int
		offset   int
		detailed bool
	)
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show the room's queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args := tools.Args{"detailed": detailed}
			if cmd.Flags().Changed("limit") {
				args["limit"] = limit
			}
			if cmd.Flags().Changed("offset") {
				args["offset"] = offset
			}
			return run(cmd, "getQueue", args)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of items")
	cmd.Flags().IntVar(&offset, "offset", 0, "items to skip, used with --limit")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include album art and URIs")
	return cmd
}

func newSonosPlayCommands(run sonosRun) []*cobra.Command {
	withMode := func(cmd *cobra.Command, mode *string) *cobra.Command {
		cmd.Flags().StringVarP(mode, "mode", "m", string(sonos.PlaybackNow), "now, next or queue")
		return cmd
	}

	var appleMode, playlistMode, storefrontMode string
	return []*cobra.Command{
		withMode(&cobra.Command{
			Use:   "play-apple <song|album|playlist> <id>",
			Short: "Play Apple Music content by catalog ID",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, "playAppleMusic", tools.Args{"contentType": args[0], "contentId": args[1], "mode": appleMode})
			},
		}, &appleMode),
		withMode(&cobra.Command{
			Use:   "play-playlist <id>",
			Short: "Play one of the user's library playlists",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, "playAppleMusicPlaylist", tools.Args{"playlistId": args[0], "mode": playlistMode})
			},
		}, &playlistMode),
		withMode(&cobra.Command{
			Use:   "play-storefront <id>",
			Short: "Play a catalog playlist",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, "playStorefrontPlaylist", tools.Args{"playlistId": args[0], "mode": storefrontMode})
			},
		}, &storefrontMode),
	}
}

func (a *App) runSonos(cmd *cobra.Command, flags *sonosFlags, tool string, args tools.Args) error {
	client := a.sonos(flags.host, flags.port, flags.room)
	registry, err := tools.Build(tools.Deps{Sonos: client}, []tools.Toolset{tools.ToolsetSonos}, true)
	if err != nil {
		return err
	}
	if flags.room != "" {
		if args == nil {
			args = tools.Args{}
		}
		args["room"] = flags.room
	}
	return callTool(cmd, registry, tool, args)
}

// sonosDirect builds a room command that calls the client without a tool.
func (a *App) sonosDirect(flags *sonosFlags, use, short string, fn func(*cobra.Command, *sonos.Client, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := a.sonos(flags.host, flags.port, flags.room)
			room, err := client.ResolveRoom("")
			if err != nil {
				return err
			}
			return fn(cmd, client, room)
		},
	}
}
