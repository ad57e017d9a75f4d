package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/stagelog/internal/models"
	"github.com/desertthunder/stagelog/internal/shared"
	tu "github.com/desertthunder/stagelog/internal/testing"
)

func loggedIn(t *testing.T) (*Client, *tu.FakeBackend) {
	t.Helper()
	f := tu.NewFakeBackend(t)
	c := newTestClient(t, f.URL, nil)
	_, err := c.Auth.Login(context.Background(), "stagefan", "abc123!@")
	require.NoError(t, err)
	return c, f
}

func TestPerformanceService(t *testing.T) {
	ctx := context.Background()
	c, _ := loggedIn(t)

	t.Run("list pages", func(t *testing.T) {
		first, err := c.Performances.List(ctx, models.PerformanceFilters{})
		require.NoError(t, err)
		assert.Len(t, first.Content, models.DefaultPageSize)
		assert.Equal(t, 8, first.TotalElements)
		assert.True(t, first.HasNext())

		second, err := c.Performances.List(ctx, models.PerformanceFilters{Page: 1})
		require.NoError(t, err)
		assert.Len(t, second.Content, 2)
		assert.False(t, second.HasNext())
	})

	t.Run("keyword", func(t *testing.T) {
		page, err := c.Performances.List(ctx, models.PerformanceFilters{Keyword: "Performance 3"})
		require.NoError(t, err)
		require.Len(t, page.Content, 1)
		assert.Equal(t, int64(3), page.Content[0].ID)
	})

	t.Run("get", func(t *testing.T) {
		p, err := c.Performances.Get(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "Performance 2", p.Title)
		assert.Equal(t, "https://img.stagelog.test/2.jpg", p.PosterURL)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := c.Performances.Get(ctx, 999)
		assert.ErrorIs(t, err, shared.ErrPerformanceNotFound)
		assert.Equal(t, http.StatusNotFound, StatusCode(err))
	})

	t.Run("calendar", func(t *testing.T) {
		entries, err := c.Performances.Calendar(ctx, 2025, 3)
		require.NoError(t, err)
		assert.Len(t, entries, 8)

		entries, err = c.Performances.Calendar(ctx, 2025, 4)
		require.NoError(t, err)
		assert.Empty(t, entries)

		_, err = c.Performances.Calendar(ctx, 2025, 13)
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
	})
}

func TestFilterQuery(t *testing.T) {
	festival := true
	q := filterQuery(models.PerformanceFilters{IsFestival: &festival, Keyword: "jazz", Page: -1})
	assert.Equal(t, "0", q.Get("page"))
	assert.Equal(t, "6", q.Get("size"))
	assert.Equal(t, models.SortStartDate, q.Get("sort"))
	assert.Equal(t, "true", q.Get("isFestival"))
	assert.Equal(t, "jazz", q.Get("keyword"))

	q = filterQuery(models.DefaultPerformanceFilters())
	assert.False(t, q.Has("isFestival"))
	assert.False(t, q.Has("keyword"))
}

func TestReviewService(t *testing.T) {
	ctx := context.Background()
	c, f := loggedIn(t)

	content := `<p>Loved the <strong>encore</strong></p>`
	b := NewPlaylistBuilder("Setlist", nil)
	require.NoError(t, b.AddSpotify(models.SpotifyTrack{ID: "sp1", Name: "Hype Boy", Artists: []models.SpotifyArtist{{Name: "NewJeans"}}}))
	req := models.ReviewRequest{Title: "Great night", Content: content}
	b.Apply(&req)

	id, err := c.Reviews.Create(ctx, req)
	require.NoError(t, err)
	assert.NotZero(t, id)

	got, err := c.Reviews.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, content, got.Content, "content is stored verbatim")
	assert.Equal(t, "Setlist", got.PlaylistTitle)
	require.Len(t, got.Tracks, 1)
	assert.Equal(t, "sp1", got.Tracks[0].SpotifyID)

	list, err := c.Reviews.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	edit := got.Request()
	edit.Title = "Greatest night"
	updated, err := c.Reviews.Update(ctx, id, edit)
	require.NoError(t, err)
	assert.Equal(t, "Greatest night", updated.Title)
	stored, _ := f.Review(id)
	assert.Equal(t, "Greatest night", stored.Title)

	require.NoError(t, c.Reviews.Delete(ctx, id))
	_, err = c.Reviews.Get(ctx, id)
	assert.ErrorIs(t, err, shared.ErrReviewNotFound)

	_, err = c.Reviews.Create(ctx, models.ReviewRequest{Title: "", Content: content})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestInterestedService(t *testing.T) {
	ctx := context.Background()
	c, _ := loggedIn(t)

	id, err := c.Interested.Add(ctx, 3)
	require.NoError(t, err)
	assert.NotZero(t, id)

	items, err := c.Interested.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(3), items[0].PerformanceID)
	assert.Equal(t, "Olympic Hall", items[0].Venue)

	on, err := c.Interested.Toggle(ctx, 3)
	require.NoError(t, err)
	assert.False(t, on)

	on, err = c.Interested.Toggle(ctx, 4)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, c.Interested.Remove(ctx, 4))
	items, err = c.Interested.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	err = c.Interested.Remove(ctx, 4)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestSpotifySearch(t *testing.T) {
	ctx := context.Background()
	c, _ := loggedIn(t)

	tracks, err := c.Spotify.SearchTracks(ctx, "newjeans", 0)
	require.NoError(t, err)
	assert.Len(t, tracks, 2)

	tracks, err = c.Spotify.SearchTracks(ctx, "ditto", 0)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "sp2", tracks[0].ID)

	tracks, err = c.Spotify.SearchTracks(ctx, "newjeans", 1)
	require.NoError(t, err)
	assert.Len(t, tracks, 1)

	_, err = c.Spotify.SearchTracks(ctx, "   ", 0)
	assert.ErrorIs(t, err, shared.ErrMissingArgument)
}

func TestPlaylistBuilder(t *testing.T) {
	hype := models.SpotifyTrack{ID: "sp1", Name: "Hype Boy", Artists: []models.SpotifyArtist{{Name: "NewJeans"}}}

	b := NewPlaylistBuilder("Encore", []models.TrackRequest{{SpotifyID: "m1", Title: "Opening"}})
	require.NoError(t, b.AddSpotify(hype))
	require.NoError(t, b.AddManual(models.TrackRequest{SpotifyID: " m2 ", Title: " Closing "}))
	assert.Equal(t, 3, b.Len())
	assert.True(t, b.Contains("m2"))

	assert.ErrorIs(t, b.AddSpotify(hype), shared.ErrDuplicateTrack)
	assert.ErrorIs(t, b.AddManual(models.TrackRequest{}), shared.ErrInvalidInput)

	require.NoError(t, b.Move(2, 0))
	ids := func() []string {
		var out []string
		for _, tr := range b.Tracks() {
			out = append(out, tr.SpotifyID)
		}
		return out
	}
	assert.Equal(t, []string{"m2", "m1", "sp1"}, ids())

	require.NoError(t, b.Move(0, 2))
	assert.Equal(t, []string{"m1", "sp1", "m2"}, ids())

	assert.ErrorIs(t, b.Move(0, 3), shared.ErrTrackIndex)
	assert.ErrorIs(t, b.Remove(-1), shared.ErrTrackIndex)
	require.NoError(t, b.Remove(1))
	assert.Equal(t, []string{"m1", "m2"}, ids())

	var req models.ReviewRequest
	b.Apply(&req)
	assert.Equal(t, "Encore", req.PlaylistTitle)
	assert.Len(t, req.Tracks, 2)

	empty := NewPlaylistBuilder("Unused", nil)
	req.PlaylistTitle = "stale"
	empty.Apply(&req)
	assert.Empty(t, req.PlaylistTitle)
	assert.Empty(t, req.Tracks)
}

func TestAPIService(t *testing.T) {
	ctx := context.Background()
	c, f := loggedIn(t)

	resp, err := c.API.Get(ctx, "/api/performances?size=2&page=0")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, resp.IsJSON)
	body, ok := resp.JSONData.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, body["size"])

	resp, err = c.API.Post(ctx, "/api/interested-performances", []byte(`{"performanceId":1}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = c.API.Do(ctx, "delete", "/api/interested-performances/1", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = c.API.Get(ctx, "/api/performances/404")
	assert.Equal(t, http.StatusNotFound, StatusCode(err))

	// stale tokens recover through the same dispatcher
	f.SetAccessToken("rotated")
	_, err = c.API.Get(ctx, "/api/reviews")
	require.NoError(t, err)
	assert.Equal(t, 1, f.Count(http.MethodPost, "/api/auth/refresh"))
}
