package applemusic

import (
	"strconv"
	"strings"
)

// SearchResponse represents the Apple Music API search response.
// Apple returns results grouped by type under the "results" key.
type SearchResponse struct {
	Results SearchResults `json:"results"`
}

// SearchResults contains one page of each requested resource type.
type SearchResults struct {
	Songs     *ResultPage[Song]     `json:"songs,omitempty"`
	Artists   *ResultPage[Artist]   `json:"artists,omitempty"`
	Albums    *ResultPage[Album]    `json:"albums,omitempty"`
	Playlists *ResultPage[Playlist] `json:"playlists,omitempty"`
}

// ResultPage is one page of search results.
type ResultPage[T any] struct {
	Data []T    `json:"data"`
	Href string `json:"href,omitempty"`
	Next string `json:"next,omitempty"`
}

// Relationship is a nested, forward-paginated collection.
type Relationship[T any] struct {
	Href string `json:"href,omitempty"`
	Data []T    `json:"data,omitempty"`
	Next string `json:"next,omitempty"`
}

// SongResponse wraps song lookups.
type SongResponse struct {
	Data []Song `json:"data"`
}

// PlaylistResponse wraps single playlist lookups.
type PlaylistResponse struct {
	Data []Playlist `json:"data"`
}

// UserPlaylistsResponse lists playlists in the user's library.
type UserPlaylistsResponse struct {
	Data []Playlist `json:"data"`
	Next string     `json:"next,omitempty"`
}

// StorefrontChartsResponse lists chart playlists for a storefront.
type StorefrontChartsResponse struct {
	Data []Playlist  `json:"data"`
	Meta *ChartsMeta `json:"meta,omitempty"`
	Next string      `json:"next,omitempty"`
}

// ChartsMeta carries chart ordering metadata.
type ChartsMeta struct {
	Results *ChartResults `json:"results,omitempty"`
}

// ChartResults lists the chart keys in display order.
type ChartResults struct {
	Order    []string `json:"order,omitempty"`
	RawOrder []string `json:"raw-order,omitempty"`
}

// Song is a catalog or library track.
type Song struct {
	ID            string             `json:"id"`
	Type          string             `json:"type"`
	Href          string             `json:"href"`
	Attributes    *SongAttributes    `json:"attributes,omitempty"`
	Relationships *SongRelationships `json:"relationships,omitempty"`
}

// SongAttributes contains the metadata for a song.
type SongAttributes struct {
	Name             string      `json:"name"`
	ArtistName       string      `json:"artistName"`
	AlbumName        string      `json:"albumName,omitempty"`
	ComposerName     string      `json:"composerName,omitempty"`
	Artwork          *Artwork    `json:"artwork,omitempty"`
	DiscNumber       *int        `json:"discNumber,omitempty"`
	TrackNumber      *int        `json:"trackNumber,omitempty"`
	DurationInMillis *int        `json:"durationInMillis,omitempty"`
	GenreNames       []string    `json:"genreNames,omitempty"`
	ISRC             string      `json:"isrc,omitempty"`
	Previews         []Preview   `json:"previews,omitempty"`
	ReleaseDate      string      `json:"releaseDate,omitempty"`
	URL              string      `json:"url,omitempty"`
	PlayParams       *PlayParams `json:"playParams,omitempty"`
}

// SongRelationships links a song to its albums and artists.
type SongRelationships struct {
	Albums  *Relationship[Album]  `json:"albums,omitempty"`
	Artists *Relationship[Artist] `json:"artists,omitempty"`
}

// Artist is a catalog artist.
type Artist struct {
	ID            string               `json:"id"`
	Type          string               `json:"type"`
	Href          string               `json:"href"`
	Attributes    *ArtistAttributes    `json:"attributes,omitempty"`
	Relationships *ArtistRelationships `json:"relationships,omitempty"`
}

// ArtistAttributes contains the metadata for an artist.
type ArtistAttributes struct {
	Name       string   `json:"name"`
	GenreNames []string `json:"genreNames,omitempty"`
	URL        string   `json:"url,omitempty"`
	Artwork    *Artwork `json:"artwork,omitempty"`
}

// ArtistRelationships links an artist to albums.
type ArtistRelationships struct {
	Albums *Relationship[Album] `json:"albums,omitempty"`
}

// Album is a catalog album.
type Album struct {
	ID            string              `json:"id"`
	Type          string              `json:"type"`
	Href          string              `json:"href"`
	Attributes    *AlbumAttributes    `json:"attributes,omitempty"`
	Relationships *AlbumRelationships `json:"relationships,omitempty"`
}

// AlbumAttributes contains the metadata for an album.
type AlbumAttributes struct {
	Name           string          `json:"name"`
	ArtistName     string          `json:"artistName"`
	Artwork        *Artwork        `json:"artwork,omitempty"`
	ContentRating  string          `json:"contentRating,omitempty"`
	Copyright      string          `json:"copyright,omitempty"`
	EditorialNotes *EditorialNotes `json:"editorialNotes,omitempty"`
	GenreNames     []string        `json:"genreNames,omitempty"`
	IsComplete     *bool           `json:"isComplete,omitempty"`
	IsSingle       *bool           `json:"isSingle,omitempty"`
	ReleaseDate    string          `json:"releaseDate,omitempty"`
	TrackCount     *int            `json:"trackCount,omitempty"`
	URL            string          `json:"url,omitempty"`
}

// AlbumRelationships links an album to its artists and tracks.
type AlbumRelationships struct {
	Artists *Relationship[Artist] `json:"artists,omitempty"`
	Tracks  *Relationship[Song]   `json:"tracks,omitempty"`
}

// Playlist is a catalog, chart or library playlist.
type Playlist struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	Href          string                 `json:"href"`
	Attributes    *PlaylistAttributes    `json:"attributes,omitempty"`
	Relationships *PlaylistRelationships `json:"relationships,omitempty"`
}

// PlaylistAttributes contains the metadata for a playlist.
type PlaylistAttributes struct {
	Name             string          `json:"name"`
	Description      *EditorialNotes `json:"description,omitempty"`
	CuratorName      string          `json:"curatorName,omitempty"`
	PlaylistType     string          `json:"playlistType,omitempty"`
	URL              string          `json:"url,omitempty"`
	Artwork          *Artwork        `json:"artwork,omitempty"`
	IsPublic         *bool           `json:"isPublic,omitempty"`
	TrackCount       *int            `json:"trackCount,omitempty"`
	LastModifiedDate string          `json:"lastModifiedDate,omitempty"`
	DateAdded        string          `json:"dateAdded,omitempty"`
	PlayParams       *PlayParams     `json:"playParams,omitempty"`
}

// PlaylistRelationships links a playlist to its tracks and curator.
type PlaylistRelationships struct {
	Tracks  *Relationship[Song]    `json:"tracks,omitempty"`
	Curator *Relationship[Curator] `json:"curator,omitempty"`
}

// Curator is an Apple or third-party playlist curator.
type Curator struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Href       string             `json:"href"`
	Attributes *CuratorAttributes `json:"attributes,omitempty"`
}

// CuratorAttributes contains the metadata for a curator.
type CuratorAttributes struct {
	Name    string   `json:"name"`
	URL     string   `json:"url,omitempty"`
	Artwork *Artwork `json:"artwork,omitempty"`
}

// Artwork represents image artwork with dimensions.
type Artwork struct {
	Width      *int   `json:"width,omitempty"`
	Height     *int   `json:"height,omitempty"`
	URL        string `json:"url"`
	BgColor    string `json:"bgColor,omitempty"`
	TextColor1 string `json:"textColor1,omitempty"`
	TextColor2 string `json:"textColor2,omitempty"`
	TextColor3 string `json:"textColor3,omitempty"`
	TextColor4 string `json:"textColor4,omitempty"`
}

// Preview is an audio preview asset.
type Preview struct {
	URL string `json:"url"`
}

// PlayParams contains playback parameters for a resource.
type PlayParams struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// EditorialNotes contains text descriptions.
type EditorialNotes struct {
	Standard string `json:"standard,omitempty"`
	Short    string `json:"short,omitempty"`
}

// ArtworkURL returns the artwork URL with the {w}x{h} placeholders filled in.
func (a *Artwork) ArtworkURL(width, height int) string {
	if a == nil || a.URL == "" {
		return ""
	}
	return strings.NewReplacer(
		"{w}", strconv.Itoa(width),
		"{h}", strconv.Itoa(height),
	).Replace(a.URL)
}
