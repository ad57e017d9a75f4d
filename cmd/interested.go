package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/stagelog/internal/formatter"
)

// InterestedAdd bookmarks a performance.
func (r *Runner) InterestedAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	if _, err := r.client.Interested.Add(ctx, id); err != nil {
		return fmt.Errorf("failed to add performance %d: %w", id, err)
	}
	r.writePlain("★ Performance %d marked as interested\n", id)
	return nil
}

// InterestedList prints bookmarked performances with their D-day.
func (r *Runner) InterestedList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	items, err := r.client.Interested.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list interested performances: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, true)
	}
	if len(items) == 0 {
		r.writePlain("No interested performances\n")
		return nil
	}

	now := r.now()
	r.writePlainHeader(fmt.Sprintf("Interested (%d)", len(items)))
	for _, p := range items {
		r.writePlain("%-6d %-8s %-23s %s", p.PerformanceID, formatter.DDay(p.StartDate, now), formatter.FormatDateRange(p.StartDate, p.EndDate), p.Title)
		if p.Venue != "" {
			r.writePlain(" @ %s", p.Venue)
		}
		r.writePlain("\n")
	}
	return nil
}

// InterestedRemove drops a bookmark.
func (r *Runner) InterestedRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	if err := r.client.Interested.Remove(ctx, id); err != nil {
		return fmt.Errorf("failed to remove performance %d: %w", id, err)
	}
	r.writePlain("☆ Performance %d removed from interested\n", id)
	return nil
}
