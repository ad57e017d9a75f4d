package models

import "strings"

// SpotifyArtist represents an artist in a proxied Spotify search result.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyImage represents album artwork.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyAlbum represents album information.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

// SpotifyTrack represents a track returned by GET /api/spotify/search/tracks.
type SpotifyTrack struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Artists      []SpotifyArtist   `json:"artists"`
	Album        SpotifyAlbum      `json:"album"`
	DurationMS   int               `json:"duration_ms"`
	ExternalURLs map[string]string `json:"external_urls"`
	PreviewURL   string            `json:"preview_url"`
}

// SpotifySearchResponse wraps the search result items.
type SpotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

// ArtistNames joins the artist names with ", ".
func (t SpotifyTrack) ArtistNames() string {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// CoverURL is the first album image, or "" when the album has none.
func (t SpotifyTrack) CoverURL() string {
	if len(t.Album.Images) == 0 {
		return ""
	}
	return t.Album.Images[0].URL
}

// TrackRequest maps the search result onto a playlist entry.
func (t SpotifyTrack) TrackRequest() TrackRequest {
	return TrackRequest{
		SpotifyID:     t.ID,
		Title:         t.Name,
		ArtistName:    t.ArtistNames(),
		AlbumImageURL: t.CoverURL(),
	}
}
