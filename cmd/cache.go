package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/stagelog/internal/formatter"
	"github.com/desertthunder/stagelog/internal/tasks"
)

// CacheSync downloads every interested performance into the offline cache.
func (r *Runner) CacheSync(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.PoolOpts{
		Workers:   r.config.Export.Workers,
		RateLimit: r.config.Export.RateLimit,
	}
	if cmd.IsSet("workers") {
		opts.Workers = cmd.Int("workers")
	}
	if cmd.IsSet("rate-limit") {
		opts.RateLimit = cmd.Float("rate-limit")
	}

	if err := r.requireSession(ctx); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.drainProgress(progress, done)

	result, err := r.engine.SyncInterested(ctx, progress, opts)
	close(progress)
	<-done

	if result != nil {
		r.writePlainln("Cached %d of %d performance(s)", result.Cached, result.Total)
		for _, res := range result.Results {
			if res.Error != nil {
				r.writePlain("  ✗ %d %s: %v\n", res.PerformanceID, res.Title, res.Error)
			}
		}
	}
	return err
}

// CacheList prints what is available offline.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	cached, err := r.stores.Performances.List(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(cached, true)
	}
	if len(cached) == 0 {
		r.writePlain("Cache is empty. Run `stagelog cache sync`.\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Cached performances (%d)", len(cached)))
	for _, c := range cached {
		r.writePlain("%-6d %-23s %-40s fetched %s\n",
			c.Detail.ID,
			formatter.FormatDateRange(c.Detail.StartDate, c.Detail.EndDate),
			c.Detail.Title,
			c.FetchedAt.Local().Format(time.DateTime),
		)
	}
	return nil
}

// CacheShow prints one cached performance without touching the network.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.connect(ctx); err != nil {
		return err
	}

	cached, err := r.stores.Performances.Get(ctx, id)
	if err != nil {
		return err
	}
	r.writePlain("%s", formatter.PerformanceText(cached.Detail, r.now()))
	r.writePlain("  %-8s %s\n", "Cached:", cached.FetchedAt.Local().Format(time.DateTime))
	return nil
}

// CacheClear empties the offline cache.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	n, err := r.stores.Performances.Clear(ctx)
	if err != nil {
		return err
	}
	r.writePlain("✓ Removed %d cached performance(s)\n", n)
	return nil
}
