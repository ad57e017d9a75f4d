package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/stagelog/internal/formatter"
	"github.com/desertthunder/stagelog/internal/models"
	"github.com/desertthunder/stagelog/internal/services"
	"github.com/desertthunder/stagelog/internal/shared"
	"github.com/desertthunder/stagelog/internal/tasks"
)

// ReviewsList prints the signed-in user's reviews.
func (r *Runner) ReviewsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	reviews, err := r.client.Reviews.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list reviews: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(reviews, true)
	}

	if len(reviews) == 0 {
		r.writePlain("No reviews yet. Write one with `stagelog reviews create`.\n")
		return nil
	}
	r.writePlainHeader(fmt.Sprintf("Your reviews (%d)", len(reviews)))
	for _, rv := range reviews {
		r.writePlain("%-6d %-16s %s\n", rv.ID, formatter.FormatDateTime(rv.CreatedAt), rv.Title)
	}
	return nil
}

// ReviewsShow prints a review as Markdown, raw HTML or JSON.
func (r *Runner) ReviewsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	review, err := r.client.Reviews.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get review %d: %w", id, err)
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(review, true)
	case cmd.Bool("html"):
		r.writePlain("%s\n", review.Content)
		return nil
	}

	out, err := formatter.ReviewToMarkdown(review)
	if err != nil {
		return err
	}
	r.writePlain("%s", out)
	return nil
}

// ReviewsCreate writes a new review. Input is validated before any request is sent.
func (r *Runner) ReviewsCreate(ctx context.Context, cmd *cli.Command) error {
	content, err := reviewContent(cmd)
	if err != nil {
		return err
	}
	req := models.ReviewRequest{Title: cmd.String("title"), Content: content}
	if err := shared.ValidateReview(req.Title, req.Content); err != nil {
		return err
	}

	if err := r.requireSession(ctx); err != nil {
		return err
	}

	playlist := services.NewPlaylistBuilder(cmd.String("playlist-title"), nil)
	if err := r.addTracks(ctx, playlist, cmd.StringSlice("track")); err != nil {
		return err
	}
	playlist.Apply(&req)

	id, err := r.client.Reviews.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	r.writePlain("✓ Review %d created with %d track(s)\n", id, len(req.Tracks))
	return nil
}

// ReviewsEdit loads a review, applies the flags that were given and saves it.
func (r *Runner) ReviewsEdit(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	current, err := r.client.Reviews.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get review %d: %w", id, err)
	}

	req := current.Request()
	if cmd.IsSet("title") {
		req.Title = cmd.String("title")
	}
	if cmd.IsSet("content") || cmd.IsSet("content-file") {
		if req.Content, err = reviewContent(cmd); err != nil {
			return err
		}
	}
	if err := shared.ValidateReview(req.Title, req.Content); err != nil {
		return err
	}

	title := req.PlaylistTitle
	if cmd.IsSet("playlist-title") {
		title = cmd.String("playlist-title")
	}
	tracks := req.Tracks
	if cmd.Bool("clear-tracks") {
		tracks = nil
	}
	playlist := services.NewPlaylistBuilder(title, tracks)

	// highest position first so earlier removals do not shift later ones
	positions := cmd.IntSlice("remove-track")
	sort.Sort(sort.Reverse(sort.IntSlice(positions)))
	for _, pos := range positions {
		if err := playlist.Remove(pos - 1); err != nil {
			return err
		}
	}
	if err := r.addTracks(ctx, playlist, cmd.StringSlice("track")); err != nil {
		return err
	}
	playlist.Apply(&req)

	updated, err := r.client.Reviews.Update(ctx, id, req)
	if err != nil {
		return fmt.Errorf("failed to update review %d: %w", id, err)
	}
	r.writePlain("✓ Review %d updated (%d track(s))\n", updated.ID, len(updated.Tracks))
	return nil
}

// ReviewsDelete removes a review.
func (r *Runner) ReviewsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	if err := r.client.Reviews.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete review %d: %w", id, err)
	}
	r.writePlain("✓ Review %d deleted\n", id)
	return nil
}

// ReviewsExport downloads every review concurrently and writes them to disk.
func (r *Runner) ReviewsExport(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.ExportOpts{
		PoolOpts: tasks.PoolOpts{
			Workers:   r.config.Export.Workers,
			RateLimit: r.config.Export.RateLimit,
		},
		Format:    r.config.Export.Format,
		OutputDir: r.config.Export.OutputDir,
	}
	if cmd.IsSet("format") {
		opts.Format = cmd.String("format")
	}
	if cmd.IsSet("output") {
		opts.OutputDir = cmd.String("output")
	}
	if cmd.IsSet("workers") {
		opts.Workers = cmd.Int("workers")
	}
	if cmd.IsSet("rate-limit") {
		opts.RateLimit = cmd.Float("rate-limit")
	}
	if opts.Format != "" && !formatter.ValidFormat(opts.Format) {
		return fmt.Errorf("%w: format must be one of %v, got %q", shared.ErrInvalidFlag, formatter.Formats, opts.Format)
	}

	if err := r.requireSession(ctx); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.drainProgress(progress, done)

	result, err := r.engine.ExportReviews(ctx, progress, opts)
	close(progress)
	<-done

	if result != nil {
		r.writePlainln("Exported %d of %d review(s) as %s", result.SuccessfulExports, result.TotalReviews, result.Format)
		if result.OutputDirectory != "" {
			r.writePlain("  Directory: %s\n", result.OutputDirectory)
		}
		if result.ManifestPath != "" {
			r.writePlain("  Manifest:  %s\n", result.ManifestPath)
		}
		for _, res := range result.Results {
			if res.Error != nil {
				r.writePlain("  ✗ %d %s: %v\n", res.ReviewID, res.Title, res.Error)
			}
		}
	}
	if err != nil {
		return err
	}
	if result.FailedExports > 0 {
		return fmt.Errorf("%d review(s) failed to export", result.FailedExports)
	}
	return nil
}

// reviewContent reads the HTML body from --content or --content-file.
func reviewContent(cmd *cli.Command) (string, error) {
	content, file := cmd.String("content"), cmd.String("content-file")
	if content != "" && file != "" {
		return "", fmt.Errorf("%w: cannot specify both --content and --content-file", shared.ErrInvalidArgument)
	}
	if file == "" {
		return content, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read content file: %w", err)
	}
	return string(data), nil
}

// addTracks searches Spotify for each query and appends the first match.
func (r *Runner) addTracks(ctx context.Context, playlist *services.PlaylistBuilder, queries []string) error {
	for _, q := range queries {
		found, err := r.client.Spotify.SearchTracks(ctx, q, 1)
		if err != nil {
			return fmt.Errorf("failed to search track %q: %w", q, err)
		}
		if len(found) == 0 {
			return fmt.Errorf("%w: no Spotify track matches %q", shared.ErrInvalidArgument, q)
		}
		if err := playlist.AddSpotify(found[0]); err != nil {
			if errors.Is(err, shared.ErrDuplicateTrack) {
				r.logger.Warn("track already in playlist", "track", found[0].Name)
				continue
			}
			return err
		}
		r.logger.Debug("added track", "query", q, "track", found[0].Name, "artists", found[0].ArtistNames())
	}
	return nil
}
