package models

// Track is a playlist entry attached to a saved review.
type Track struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	ArtistName    string `json:"artistName"`
	AlbumImageURL string `json:"albumImageUrl"`
	SpotifyID     string `json:"spotifyId"`
}

// TrackRequest is a playlist entry as sent when creating or updating a review.
type TrackRequest struct {
	SpotifyID     string `json:"spotifyId"`
	Title         string `json:"title"`
	ArtistName    string `json:"artistName"`
	AlbumImageURL string `json:"albumImageUrl"`
}

type ReviewListItem struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"createdAt"`
}

// ReviewDetail is a full review. Content is HTML and is kept verbatim.
type ReviewDetail struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	CreatedAt     string  `json:"createdAt"`
	PlaylistTitle string  `json:"playlistTitle,omitempty"`
	Tracks        []Track `json:"tracks"`
}

// ReviewRequest is the body of both create (POST) and update (PUT).
type ReviewRequest struct {
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	PlaylistTitle string         `json:"playlistTitle,omitempty"`
	Tracks        []TrackRequest `json:"tracks,omitempty"`
}

// Request converts a saved review back into an editable request.
func (r ReviewDetail) Request() ReviewRequest {
	req := ReviewRequest{Title: r.Title, Content: r.Content, PlaylistTitle: r.PlaylistTitle}
	for _, t := range r.Tracks {
		req.Tracks = append(req.Tracks, TrackRequest{
			SpotifyID:     t.SpotifyID,
			Title:         t.Title,
			ArtistName:    t.ArtistName,
			AlbumImageURL: t.AlbumImageURL,
		})
	}
	return req
}
