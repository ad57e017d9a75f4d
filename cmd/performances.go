package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/stagelog/internal/formatter"
	"github.com/desertthunder/stagelog/internal/models"
	"github.com/desertthunder/stagelog/internal/shared"
)

// PerformancesList prints one page of the catalogue.
func (r *Runner) PerformancesList(ctx context.Context, cmd *cli.Command) error {
	filters := models.DefaultPerformanceFilters()
	if page := cmd.Int("page"); page > 1 {
		filters.Page = page - 1
	} else if page < 1 {
		return fmt.Errorf("%w: --page must be at least 1", shared.ErrInvalidFlag)
	}
	if size := cmd.Int("size"); size > 0 {
		filters.Size = size
	}
	switch sort := cmd.String("sort"); sort {
	case models.SortStartDate, models.SortEndDate, models.SortTitle:
		filters.Sort = sort
	default:
		return fmt.Errorf("%w: --sort must be startDate, endDate or title, got %q", shared.ErrInvalidFlag, sort)
	}
	filters.Keyword = cmd.String("keyword")

	festival, concert := cmd.Bool("festival"), cmd.Bool("concert")
	switch {
	case festival && concert:
		return fmt.Errorf("%w: --festival and --concert are mutually exclusive", shared.ErrInvalidFlag)
	case festival:
		filters.IsFestival = &festival
	case concert:
		isFestival := false
		filters.IsFestival = &isFestival
	}

	if err := r.requireSession(ctx); err != nil {
		return err
	}

	page, err := r.client.Performances.List(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list performances: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, true)
	}

	if len(page.Content) == 0 {
		r.writePlain("No performances found\n")
		return nil
	}
	if err := formatter.PerformanceTable(r.output, page.Content, r.now()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	r.writePlainln("Page %d of %d (%d performances)", page.Number+1, max(page.TotalPages, 1), page.TotalElements)
	if page.HasNext() {
		r.writePlain("Next: stagelog performances list --page %d\n", page.Number+2)
	}
	return nil
}

// PerformancesShow prints one performance, from the API or with --offline
// from the local cache.
func (r *Runner) PerformancesShow(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd, "id")
	if err != nil {
		return err
	}

	var detail models.PerformanceDetail
	if cmd.Bool("offline") {
		if err := r.connect(ctx); err != nil {
			return err
		}
		cached, err := r.stores.Performances.Get(ctx, id)
		if err != nil {
			return err
		}
		detail = cached.Detail
		r.logger.Debug("read from cache", "id", id, "fetched_at", cached.FetchedAt)
	} else {
		if err := r.requireSession(ctx); err != nil {
			return err
		}
		if detail, err = r.client.Performances.Get(ctx, id); err != nil {
			return fmt.Errorf("failed to get performance %d: %w", id, err)
		}
		if cmd.Bool("cache") && r.stores != nil {
			entry := &models.CachedPerformance{Detail: detail, FetchedAt: r.now()}
			if err := r.stores.Performances.Upsert(ctx, entry); err != nil {
				r.logger.Warn("failed to cache performance", "id", id, "error", err)
			}
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(detail, true)
	}
	r.writePlain("%s", formatter.PerformanceText(detail, r.now()))
	return nil
}

// PerformancesCalendar lists the performances in a month.
func (r *Runner) PerformancesCalendar(ctx context.Context, cmd *cli.Command) error {
	now := r.now()
	year, month := cmd.Int("year"), cmd.Int("month")
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: --month must be 1-12, got %d", shared.ErrInvalidFlag, month)
	}

	if err := r.requireSession(ctx); err != nil {
		return err
	}

	items, err := r.client.Performances.Calendar(ctx, year, month)
	if err != nil {
		return fmt.Errorf("failed to load calendar: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, true)
	}
	r.writePlain("%s", formatter.CalendarText(year, month, items))
	return nil
}
