package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/stagelog/internal/shared"
)

// SpotifySearch lists tracks matching a keyword, for use with `reviews create --track`.
func (r *Runner) SpotifySearch(ctx context.Context, cmd *cli.Command) error {
	keyword := cmd.StringArg("keyword")
	if keyword == "" {
		return fmt.Errorf("%w: keyword", shared.ErrMissingArgument)
	}
	limit := cmd.Int("limit")

	if err := r.requireSession(ctx); err != nil {
		return err
	}

	r.logger.Debugf("searching spotify tracks with limit %v", limit)

	tracks, err := r.client.Spotify.SearchTracks(ctx, keyword, limit)
	if err != nil {
		return fmt.Errorf("failed to search tracks: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}
	if len(tracks) == 0 {
		r.writePlain("No tracks match %q\n", keyword)
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Tracks matching %q", keyword))
	for i, t := range tracks {
		duration := (time.Duration(t.DurationMS) * time.Millisecond).Round(time.Second)
		r.writePlain("%2d. %s - %s [%s]\n", i+1, t.ArtistNames(), t.Name, duration)
		r.writePlain("    %s\n", t.ID)
	}
	return nil
}
