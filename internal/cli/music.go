package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/strefethen/music-agent-go/internal/applemusic"
	"github.com/strefethen/music-agent-go/internal/tools"
)

type musicFlags struct {
	storefront string
	limit      int
	userToken  string
}

func newMusicCommand(app *App) *cobra.Command {
	flags := &musicFlags{}
	cmd := &cobra.Command{
		Use:     "music",
		Aliases: []string{"apple"},
		Short:   "Search the Apple Music catalog and library",
	}
	cmd.PersistentFlags().StringVarP(&flags.storefront, "storefront", "s", "", "storefront code (default APPLE_STOREFRONT)")
	cmd.PersistentFlags().IntVarP(&flags.limit, "limit", "l", 0, "results per type, 1-25")
	cmd.PersistentFlags().StringVar(&flags.userToken, "user-token", "", "music user token (default APPLE_MUSIC_USER_TOKEN)")

	run := func(cmd *cobra.Command, tool string, args tools.Args) error {
		return app.runMusic(cmd, flags, tool, args)
	}
	oneArg := func(use, short, tool, arg string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, tool, tools.Args{arg: strings.Join(args, " ")})
			},
		}
	}

	var chart, genre string
	var offset int
	charts := &cobra.Command{
		Use:   "charts",
		Short: "Show storefront charts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, "getStorefrontCharts", tools.Args{"chart": chart, "genre": genre, "offset": offset})
		},
	}
	charts.Flags().StringVar(&chart, "chart", "", "chart: "+joinValues(applemusic.ChartTypes))
	charts.Flags().StringVar(&genre, "genre", "", "genre: "+joinValues(applemusic.ChartGenres))
	charts.Flags().IntVar(&offset, "offset", 0, "results to skip")

	var playlistOffset int
	playlists := &cobra.Command{
		Use:   "playlists",
		Short: "List the user's library playlists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, "getUserPlaylists", tools.Args{"offset": playlistOffset})
		},
	}
	playlists.Flags().IntVar(&playlistOffset, "offset", 0, "playlists to skip")

	cmd.AddCommand(
		oneArg("artist <name>", "Search by artist", "searchByArtist", "artist"),
		oneArg("title <title>", "Search songs and albums by title", "searchByTitle", "title"),
		oneArg("song <id>", "Show catalog song details", "getSongDetails", "id"),
		oneArg("search-playlists <name>", "Search the user's library playlists", "searchUserPlaylists", "name"),
		oneArg("storefront-search <name>", "Search catalog playlists", "searchStorefrontPlaylists", "name"),
		oneArg("storefront-playlist <id>", "Show a catalog playlist and its tracks", "getStorefrontPlaylistDetails", "playlistId"),
		&cobra.Command{
			Use:   "search <artist> <title>",
			Short: "Search by artist and title together",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, "searchByArtistAndTitle", tools.Args{"artist": args[0], "title": args[1]})
			},
		},
		&cobra.Command{
			Use:   "playlist <id>",
			Short: "Show a library playlist and its tracks",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := app.appleMusic(flags.storefront)
				if err != nil {
					return err
				}
				playlist, err := client.GetUserPlaylistDetails(cmd.Context(), args[0], app.userToken(flags))
				if err != nil {
					return err
				}
				return printResult(cmd, applemusic.SummarizePlaylistDetail(playlist))
			},
		},
		charts,
		playlists,
		newTokenCommand(app),
	)
	return cmd
}

func (a *App) userToken(flags *musicFlags) string {
	if flags.userToken != "" {
		return flags.userToken
	}
	return a.cfg.AppleMusic.UserToken
}

func (a *App) runMusic(cmd *cobra.Command, flags *musicFlags, tool string, args tools.Args) error {
	client, err := a.appleMusic(flags.storefront)
	if err != nil {
		return err
	}
	deps := tools.Deps{AppleMusic: client, AppleUserToken: a.userToken(flags)}
	registry, err := tools.Build(deps, []tools.Toolset{tools.ToolsetAppleMusic}, true)
	if err != nil {
		return err
	}
	if args == nil {
		args = tools.Args{}
	}
	if flags.limit > 0 {
		args["limit"] = flags.limit
	}
	return callTool(cmd, registry, tool, args)
}

// tokenReport is printed by "music token --validate".
type tokenReport struct {
	Token     string    `json:"token"`
	Valid     bool      `json:"valid"`
	KeyID     string    `json:"kid"`
	Issuer    string    `json:"iss"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newTokenCommand(app *App) *cobra.Command {
	var (
		validate bool
		expiry   int
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a developer token with the configured key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			factory, err := app.tokenFactory(expiry)
			if err != nil {
				return err
			}
			token, err := factory.GenerateToken()
			if err != nil {
				return err
			}
			if !validate {
				return printResult(cmd, token)
			}
			claims, err := applemusic.DecodeClaims(token)
			if err != nil {
				return err
			}
			return printResult(cmd, tokenReport{
				Token:     token,
				Valid:     factory.ValidateToken(token),
				KeyID:     claims.KeyID,
				Issuer:    claims.Issuer,
				IssuedAt:  claims.IssuedAt.UTC(),
				ExpiresAt: claims.ExpiresAt.UTC(),
			})
		},
	}
	cmd.Flags().BoolVar(&validate, "validate", false, "verify the signed token and print its claims")
	cmd.Flags().IntVar(&expiry, "expiry", 0, "lifetime in seconds (default APPLE_TOKEN_EXPIRY_SECONDS)")
	return cmd
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
