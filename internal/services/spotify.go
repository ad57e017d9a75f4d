// Spotify track search, proxied by the Stagelog backend, and the playlist
// builder used when composing a review.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/stagelog/internal/models"
	"github.com/desertthunder/stagelog/internal/shared"
)

const (
	DefaultSearchLimit = 10
	// BuilderSearchLimit is the page size used while building a playlist.
	BuilderSearchLimit = 30
	maxSearchLimit     = 50
)

// SpotifyService searches tracks through GET /api/spotify/search/tracks.
type SpotifyService struct {
	d *Dispatcher
}

func NewSpotifyService(d *Dispatcher) *SpotifyService {
	return &SpotifyService{d: d}
}

// SearchTracks returns up to limit tracks matching keyword. A non-positive
// limit uses [DefaultSearchLimit].
func (s *SpotifyService) SearchTracks(ctx context.Context, keyword string, limit int) ([]models.SpotifyTrack, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: search keyword", shared.ErrMissingArgument)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	resp, err := call[models.SpotifySearchResponse](ctx, s.d, Request{
		Method: http.MethodGet,
		Path:   "/api/spotify/search/tracks",
		Query:  url.Values{"keyword": {keyword}, "limit": {strconv.Itoa(limit)}},
	})
	if err != nil {
		return nil, err
	}
	return resp.Tracks.Items, nil
}

// PlaylistBuilder is an ordered, duplicate-free list of tracks for a review.
// It is not safe for concurrent use.
type PlaylistBuilder struct {
	Title  string
	tracks []models.TrackRequest
}

// NewPlaylistBuilder starts from an existing track list, e.g. a review being edited.
func NewPlaylistBuilder(title string, tracks []models.TrackRequest) *PlaylistBuilder {
	b := &PlaylistBuilder{Title: title}
	for _, t := range tracks {
		_ = b.AddManual(t)
	}
	return b
}

// AddSpotify appends a search result.
func (b *PlaylistBuilder) AddSpotify(t models.SpotifyTrack) error {
	return b.add(t.TrackRequest())
}

// AddManual appends a hand-entered track; Spotify ID and title are required.
func (b *PlaylistBuilder) AddManual(t models.TrackRequest) error {
	t.SpotifyID = strings.TrimSpace(t.SpotifyID)
	t.Title = strings.TrimSpace(t.Title)
	fe := shared.FieldErrors{}
	if t.SpotifyID == "" {
		fe["spotifyId"] = "spotify ID is required"
	}
	if t.Title == "" {
		fe["title"] = "title is required"
	}
	if err := fe.Err(); err != nil {
		return err
	}
	return b.add(t)
}

func (b *PlaylistBuilder) add(t models.TrackRequest) error {
	if b.Contains(t.SpotifyID) {
		return fmt.Errorf("%w: %s", shared.ErrDuplicateTrack, t.Title)
	}
	b.tracks = append(b.tracks, t)
	return nil
}

func (b *PlaylistBuilder) Contains(spotifyID string) bool {
	for _, t := range b.tracks {
		if t.SpotifyID == spotifyID {
			return true
		}
	}
	return false
}

// Remove deletes the track at index.
func (b *PlaylistBuilder) Remove(index int) error {
	if index < 0 || index >= len(b.tracks) {
		return fmt.Errorf("%w: %d", shared.ErrTrackIndex, index)
	}
	b.tracks = append(b.tracks[:index], b.tracks[index+1:]...)
	return nil
}

// Move relocates the track at from to position to.
func (b *PlaylistBuilder) Move(from, to int) error {
	if from < 0 || from >= len(b.tracks) {
		return fmt.Errorf("%w: %d", shared.ErrTrackIndex, from)
	}
	if to < 0 || to >= len(b.tracks) {
		return fmt.Errorf("%w: %d", shared.ErrTrackIndex, to)
	}
	t := b.tracks[from]
	b.tracks = append(b.tracks[:from], b.tracks[from+1:]...)
	b.tracks = append(b.tracks[:to], append([]models.TrackRequest{t}, b.tracks[to:]...)...)
	return nil
}

func (b *PlaylistBuilder) Len() int { return len(b.tracks) }

// Tracks returns a copy of the current list.
func (b *PlaylistBuilder) Tracks() []models.TrackRequest {
	return append([]models.TrackRequest(nil), b.tracks...)
}

// Apply sets the playlist fields of r. An empty builder clears them.
func (b *PlaylistBuilder) Apply(r *models.ReviewRequest) {
	r.Tracks = b.Tracks()
	r.PlaylistTitle = ""
	if len(r.Tracks) > 0 {
		r.PlaylistTitle = b.Title
	}
}
