package applemusic

import "fmt"

// ChartType selects a storefront chart.
type ChartType string

const (
	ChartMostPlayed   ChartType = "most-played"
	ChartDailyGlobal  ChartType = "daily-global"
	ChartDailyCountry ChartType = "daily-country"
	ChartCityCharts   ChartType = "city-charts"
	ChartTopAlbums    ChartType = "top-albums"
	ChartTopSongs     ChartType = "top-songs"
	ChartTopPlaylists ChartType = "top-playlists"
	ChartTrending     ChartType = "trending"
)

var chartDisplayNames = map[ChartType]string{
	ChartMostPlayed:   "Most Played",
	ChartDailyGlobal:  "Daily Global",
	ChartDailyCountry: "Daily Country",
	ChartCityCharts:   "City Charts",
	ChartTopAlbums:    "Top Albums",
	ChartTopSongs:     "Top Songs",
	ChartTopPlaylists: "Top Playlists",
	ChartTrending:     "Trending",
}

// ChartTypes lists every known chart in display order.
var ChartTypes = []ChartType{
	ChartMostPlayed, ChartDailyGlobal, ChartDailyCountry, ChartCityCharts,
	ChartTopAlbums, ChartTopSongs, ChartTopPlaylists, ChartTrending,
}

// DisplayName returns the human readable chart name.
func (c ChartType) DisplayName() string {
	if name, ok := chartDisplayNames[c]; ok {
		return name
	}
	return string(c)
}

// ParseChartType accepts the wire value of a chart.
func ParseChartType(value string) (ChartType, error) {
	chart := ChartType(value)
	if _, ok := chartDisplayNames[chart]; !ok {
		return "", fmt.Errorf("unknown chart type %q", value)
	}
	return chart, nil
}

// ChartGenre narrows a chart to a genre. GenreAll disables the filter.
type ChartGenre string

const (
	GenreAll         ChartGenre = "all"
	GenreAlternative ChartGenre = "alternative"
	GenreClassical   ChartGenre = "classical"
	GenreCountry     ChartGenre = "country"
	GenreElectronic  ChartGenre = "electronic"
	GenreHipHopRap   ChartGenre = "hip-hop-rap"
	GenreJazz        ChartGenre = "jazz"
	GenreKPop        ChartGenre = "kpop"
	GenreLatin       ChartGenre = "latin"
	GenrePop         ChartGenre = "pop"
	GenreRBSoul      ChartGenre = "r-b-soul"
	GenreRock        ChartGenre = "rock"
)

var genreDisplayNames = map[ChartGenre]string{
	GenreAll:         "All Genres",
	GenreAlternative: "Alternative",
	GenreClassical:   "Classical",
	GenreCountry:     "Country",
	GenreElectronic:  "Electronic",
	GenreHipHopRap:   "Hip-Hop/Rap",
	GenreJazz:        "Jazz",
	GenreKPop:        "K-Pop",
	GenreLatin:       "Latin",
	GenrePop:         "Pop",
	GenreRBSoul:      "R&B/Soul",
	GenreRock:        "Rock",
}

// ChartGenres lists every known genre in display order.
var ChartGenres = []ChartGenre{
	GenreAll, GenreAlternative, GenreClassical, GenreCountry, GenreElectronic, GenreHipHopRap,
	GenreJazz, GenreKPop, GenreLatin, GenrePop, GenreRBSoul, GenreRock,
}

// DisplayName returns the human readable genre name.
func (g ChartGenre) DisplayName() string {
	if name, ok := genreDisplayNames[g]; ok {
		return name
	}
	return string(g)
}

// ParseChartGenre accepts the wire value of a genre.
func ParseChartGenre(value string) (ChartGenre, error) {
	genre := ChartGenre(value)
	if _, ok := genreDisplayNames[genre]; !ok {
		return "", fmt.Errorf("unknown chart genre %q", value)
	}
	return genre, nil
}
