package applemusic

// artworkSize is the square edge used when templating artwork URLs.
const artworkSize = 300

// Item is the flattened form of a catalog resource returned to tools and the CLI.
type Item struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Name        string   `json:"name"`
	ArtistName  string   `json:"artist_name,omitempty"`
	AlbumName   string   `json:"album_name,omitempty"`
	CuratorName string   `json:"curator_name,omitempty"`
	Description string   `json:"description,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	DurationMs  *int     `json:"duration_ms,omitempty"`
	TrackCount  *int     `json:"track_count,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty"`
	ISRC        string   `json:"isrc,omitempty"`
	URL         string   `json:"url,omitempty"`
	ArtworkURL  string   `json:"artwork_url,omitempty"`
}

// SearchSummary groups flattened search results by type.
type SearchSummary struct {
	Artists   []Item `json:"artists,omitempty"`
	Songs     []Item `json:"songs,omitempty"`
	Albums    []Item `json:"albums,omitempty"`
	Playlists []Item `json:"playlists,omitempty"`
}

// Total counts every item across types.
func (s SearchSummary) Total() int {
	return len(s.Artists) + len(s.Songs) + len(s.Albums) + len(s.Playlists)
}

// SummarizeSearch flattens a search response.
func SummarizeSearch(resp *SearchResponse) SearchSummary {
	var summary SearchSummary
	if resp == nil {
		return summary
	}
	if page := resp.Results.Artists; page != nil {
		for i := range page.Data {
			summary.Artists = append(summary.Artists, SummarizeArtist(&page.Data[i]))
		}
	}
	if page := resp.Results.Songs; page != nil {
		for i := range page.Data {
			summary.Songs = append(summary.Songs, SummarizeSong(&page.Data[i]))
		}
	}
	if page := resp.Results.Albums; page != nil {
		for i := range page.Data {
			summary.Albums = append(summary.Albums, SummarizeAlbum(&page.Data[i]))
		}
	}
	if page := resp.Results.Playlists; page != nil {
		summary.Playlists = SummarizePlaylists(page.Data)
	}
	return summary
}

// SummarizeSong flattens a song.
func SummarizeSong(song *Song) Item {
	item := Item{ID: song.ID, Kind: "song"}
	if attrs := song.Attributes; attrs != nil {
		item.Name = attrs.Name
		item.ArtistName = attrs.ArtistName
		item.AlbumName = attrs.AlbumName
		item.Genres = attrs.GenreNames
		item.DurationMs = attrs.DurationInMillis
		item.ReleaseDate = attrs.ReleaseDate
		item.ISRC = attrs.ISRC
		item.URL = attrs.URL
		item.ArtworkURL = attrs.Artwork.ArtworkURL(artworkSize, artworkSize)
	}
	return item
}

// SummarizeArtist flattens an artist.
func SummarizeArtist(artist *Artist) Item {
	item := Item{ID: artist.ID, Kind: "artist"}
	if attrs := artist.Attributes; attrs != nil {
		item.Name = attrs.Name
		item.Genres = attrs.GenreNames
		item.URL = attrs.URL
		item.ArtworkURL = attrs.Artwork.ArtworkURL(artworkSize, artworkSize)
	}
	return item
}

// SummarizeAlbum flattens an album.
func SummarizeAlbum(album *Album) Item {
	item := Item{ID: album.ID, Kind: "album"}
	if attrs := album.Attributes; attrs != nil {
		item.Name = attrs.Name
		item.ArtistName = attrs.ArtistName
		item.Genres = attrs.GenreNames
		item.TrackCount = attrs.TrackCount
		item.ReleaseDate = attrs.ReleaseDate
		item.URL = attrs.URL
		item.ArtworkURL = attrs.Artwork.ArtworkURL(artworkSize, artworkSize)
	}
	return item
}

// SummarizePlaylist flattens a playlist.
func SummarizePlaylist(playlist *Playlist) Item {
	item := Item{ID: playlist.ID, Kind: "playlist"}
	if attrs := playlist.Attributes; attrs != nil {
		item.Name = attrs.Name
		item.CuratorName = attrs.CuratorName
		item.TrackCount = attrs.TrackCount
		item.URL = attrs.URL
		item.ArtworkURL = attrs.Artwork.ArtworkURL(artworkSize, artworkSize)
		if attrs.Description != nil {
			item.Description = attrs.Description.Short
			if item.Description == "" {
				item.Description = attrs.Description.Standard
			}
		}
	}
	return item
}

// SummarizePlaylists flattens a playlist slice, never returning nil.
func SummarizePlaylists(playlists []Playlist) []Item {
	items := make([]Item, 0, len(playlists))
	for i := range playlists {
		items = append(items, SummarizePlaylist(&playlists[i]))
	}
	return items
}

// PlaylistDetail is a flattened playlist with its included tracks.
type PlaylistDetail struct {
	Item
	Tracks []Item `json:"tracks"`
}

// SummarizePlaylistDetail flattens a playlist and any tracks the API embedded.
func SummarizePlaylistDetail(playlist *Playlist) PlaylistDetail {
	detail := PlaylistDetail{Item: SummarizePlaylist(playlist), Tracks: []Item{}}
	if rel := playlist.Relationships; rel != nil && rel.Tracks != nil {
		for i := range rel.Tracks.Data {
			detail.Tracks = append(detail.Tracks, SummarizeSong(&rel.Tracks.Data[i]))
		}
	}
	return detail
}
