package tools

import (
	"context"
	"strings"

	"github.com/strefethen/music-agent-go/internal/applemusic"
)

// PlaylistPage is a page of flattened playlists plus the path of the next page.
type PlaylistPage struct {
	Playlists []applemusic.Item `json:"playlists"`
	Next      string            `json:"next,omitempty"`
}

var (
	storefrontProp = str("Apple Music storefront country code (default: configured storefront)")
	limitProp      = integer("Maximum number of results (default: 25)")
)

type appleMusicTools struct {
	client    *applemusic.Client
	userToken string
}

// RegisterAppleMusic adds the Apple Music toolset. userToken is the default
// Music-User-Token for library tools; callers may also pass one per call.
func RegisterAppleMusic(r *Registry, client *applemusic.Client, userToken string) {
	t := &appleMusicTools{client: client, userToken: userToken}

	userTokenProp := str("Music-User-Token for library access (default: configured token)")
	chartNames := make([]string, 0, len(applemusic.ChartTypes))
	for _, c := range applemusic.ChartTypes {
		chartNames = append(chartNames, string(c))
	}
	genreNames := make([]string, 0, len(applemusic.ChartGenres))
	for _, g := range applemusic.ChartGenres {
		genreNames = append(genreNames, string(g))
	}

	r.mustRegister(
		Tool{
			Name:        "searchByArtist",
			Description: "Search the Apple Music catalog for an artist",
			InputSchema: schema(map[string]property{
				"artist":     str("The artist name to search for"),
				"storefront": storefrontProp,
				"limit":      limitProp,
			}, "artist"),
			Handler: t.searchByArtist,
		},
		Tool{
			Name:        "searchByTitle",
			Description: "Search the Apple Music catalog for songs by title",
			InputSchema: schema(map[string]property{
				"title":      str("The song title to search for"),
				"storefront": storefrontProp,
				"limit":      limitProp,
			}, "title"),
			Handler: t.searchByTitle,
		},
		Tool{
			Name:        "searchByArtistAndTitle",
			Description: "Search the Apple Music catalog for a song by artist and title",
			InputSchema: schema(map[string]property{
				"artist":     str("The artist name"),
				"title":      str("The song title"),
				"storefront": storefrontProp,
				"limit":      limitProp,
			}, "artist", "title"),
			Handler: t.searchByArtistAndTitle,
		},
		Tool{
			Name:        "getSongDetails",
			Description: "Get details for an Apple Music catalog song",
			InputSchema: schema(map[string]property{
				"id":         str("The Apple Music song ID"),
				"storefront": storefrontProp,
			}, "id"),
			Handler: t.getSongDetails,
		},
		Tool{
			Name:        "getStorefrontCharts",
			Description: "List Apple Music chart playlists for a storefront",
			InputSchema: schema(map[string]property{
				"chart":      str("Chart to list", chartNames...),
				"genre":      str("Genre filter (default: all)", genreNames...),
				"storefront": storefrontProp,
				"limit":      limitProp,
				"offset":     integer("Number of playlists to skip"),
			}),
			Handler: t.getStorefrontCharts,
		},
		Tool{
			Name:        "searchStorefrontPlaylists",
			Description: "Search Apple Music catalog playlists by name",
			InputSchema: schema(map[string]property{
				"name":       str("The playlist name to search for"),
				"storefront": storefrontProp,
				"limit":      limitProp,
			}, "name"),
			Handler: t.searchStorefrontPlaylists,
		},
		Tool{
			Name:        "getStorefrontPlaylistDetails",
			Description: "Get an Apple Music catalog playlist with its tracks",
			InputSchema: schema(map[string]property{
				"playlistId": str("Catalog playlist ID, e.g. pl.f4d106fed2bd41149aaacabb233eb5eb"),
				"storefront": storefrontProp,
			}, "playlistId"),
			Handler: t.getStorefrontPlaylistDetails,
		},
		Tool{
			Name:        "getUserPlaylists",
			Description: "List playlists in the user's Apple Music library",
			InputSchema: schema(map[string]property{
				"limit":     limitProp,
				"offset":    integer("Number of playlists to skip"),
				"userToken": userTokenProp,
			}),
			Handler: t.getUserPlaylists,
		},
		Tool{
			Name:        "searchUserPlaylists",
			Description: "Search playlists in the user's Apple Music library by name",
			InputSchema: schema(map[string]property{
				"name":      str("The playlist name to search for"),
				"limit":     limitProp,
				"userToken": userTokenProp,
			}, "name"),
			Handler: t.searchUserPlaylists,
		},
	)
}

func (t *appleMusicTools) catalog(args Args) *applemusic.Client {
	return t.client.WithStorefront(strings.ToLower(args.OptionalString("storefront")))
}

func (t *appleMusicTools) token(args Args) (string, error) {
	if token := args.OptionalString("userToken"); token != "" {
		return token, nil
	}
	if t.userToken == "" {
		return "", &ArgumentError{Name: "userToken", Reason: "is required when no Music-User-Token is configured"}
	}
	return t.userToken, nil
}

func (t *appleMusicTools) searchByArtist(ctx context.Context, args Args) (any, error) {
	artist, err := args.RequiredString("artist")
	if err != nil {
		return nil, err
	}
	limit, err := args.IntOr("limit", 0)
	if err != nil {
		return nil, err
	}
	resp, err := t.catalog(args).SearchByArtist(ctx, artist, limit)
	if err != nil {
		return nil, err
	}
	return applemusic.SummarizeSearch(resp), nil
}

func (t *appleMusicTools) searchByTitle(ctx context.Context, args Args) (any, error) {
	title, err := args.RequiredString("title")
	if err != nil {
		return nil, err
	}
	limit, err := args.IntOr("limit", 0)
	if err != nil {
		return nil, err
	}
	resp, err := t.catalog(args).SearchByTitle(ctx, title, limit)
	if err != nil {
		return nil, err
	}
	return applemusic.SummarizeSearch(resp), nil
}

func (t *appleMusicTools) searchByArtistAndTitle(ctx context.Context, args Args) (any, error) {
	artist, err := args.RequiredString("artist")
	if err != nil {
		return nil, err
	}
	title, err := args.RequiredString("title")
	if err != nil {
		return nil, err
	}
	limit, err := args.IntOr("limit", 0)
	if err != nil {
		return nil, err
	}
	resp, err := t.catalog(args).SearchByArtistAndTitle(ctx, artist, title, limit)
	if err != nil {
		return nil, err
	}
	return applemusic.SummarizeSearch(resp), nil
}

func (t *appleMusicTools) getSongDetails(ctx context.Context, args Args) (any, error) {
	id, err := args.RequiredString("id")
	if err != nil {
		return nil, err
	}
	song, err := t.catalog(args).GetSongDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	return applemusic.SummarizeSong(song), nil
}

func (t *appleMusicTools) getStorefrontCharts(ctx context.Context, args Args) (any, error) {
	query := applemusic.ChartQuery{}
	if raw := args.OptionalString("chart"); raw != "" {
		chart, err := applemusic.ParseChartType(raw)
		if err != nil {
			return nil, &ArgumentError{Name: "chart", Reason: err.Error()}
		}
		query.Chart = chart
	}
	if raw := args.OptionalString("genre"); raw != "" {
		genre, err := applemusic.ParseChartGenre(raw)
		if err != nil {
			return nil, &ArgumentError{Name: "genre", Reason: err.Error()}
		}
		query.Genre = genre
	}
	var err error
	if query.Limit, err = args.IntOr("limit", 0); err != nil {
		return nil, err
	}
	if query.Offset, err = args.IntOr("offset", 0); err != nil {
		return nil, err
	}

	resp, err := t.catalog(args).GetStorefrontCharts(ctx, query)
	if err != nil {
		return nil, err
	}
	return PlaylistPage{Playlists: applemusic.SummarizePlaylists(resp.Data), Next: resp.Next}, nil
}

func (t *appleMusicTools) searchStorefrontPlaylists(ctx context.Context, args Args) (any, error) {
	name, err := args.RequiredString("name")
	if err != nil {
		return nil, err
	}
	limit, err := args.IntOr("limit", 0)
	if err != nil {
		return nil, err
	}
	resp, err := t.catalog(args).SearchStorefrontPlaylists(ctx, name, limit)
	if err != nil {
		return nil, err
	}
	return PlaylistPage{Playlists: applemusic.SummarizeSearch(resp).Playlists}, nil
}

func (t *appleMusicTools) getStorefrontPlaylistDetails(ctx context.Context, args Args) (any, error) {
	id, err := args.RequiredString("playlistId")
	if err != nil {
		return nil, err
	}
	playlist, err := t.catalog(args).GetStorefrontPlaylistDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	return applemusic.SummarizePlaylistDetail(playlist), nil
}

func (t *appleMusicTools) getUserPlaylists(ctx context.Context, args Args) (any, error) {
	token, err := t.token(args)
	if err != nil {
		return nil, err
	}
	limit, err := args.IntOr("limit", 0)
	if err != nil {
		return nil, err
	}
	offset, err := args.IntOr("offset", 0)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.GetUserPlaylists(ctx, limit, offset, token)
	if err != nil {
		return nil, err
	}
	return PlaylistPage{Playlists: applemusic.SummarizePlaylists(resp.Data), Next: resp.Next}, nil
}

func (t *appleMusicTools) searchUserPlaylists(ctx context.Context, args Args) (any, error) {
	name, err := args.RequiredString("name")
	if err != nil {
		return nil, err
	}
	token, err := t.token(args)
	if err != nil {
		return nil, err
	}
	limit, err := args.IntOr("limit", 0)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.SearchUserPlaylists(ctx, name, limit, token)
	if err != nil {
		return nil, err
	}
	return PlaylistPage{Playlists: applemusic.SummarizePlaylists(resp.Data), Next: resp.Next}, nil
}
