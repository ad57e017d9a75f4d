// package tasks implements bulk review export and performance cache sync.
package tasks

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/stagelog/internal/formatter"
	"github.com/desertthunder/stagelog/internal/models"
	"github.com/desertthunder/stagelog/internal/repositories"
	"github.com/desertthunder/stagelog/internal/services"
	"github.com/desertthunder/stagelog/internal/shared"
)

// ReviewSource lists and fetches the signed-in user's reviews.
type ReviewSource interface {
	List(ctx context.Context) ([]models.ReviewListItem, error)
	Get(ctx context.Context, id int64) (models.ReviewDetail, error)
}

// InterestedSource lists the signed-in user's interested performances.
type InterestedSource interface {
	List(ctx context.Context) ([]models.InterestedPerformanceItem, error)
}

// PerformanceSource fetches performance details.
type PerformanceSource interface {
	Get(ctx context.Context, id int64) (models.PerformanceDetail, error)
}

// Engine runs bulk operations over one API client.
type Engine struct {
	reviews      ReviewSource
	interested   InterestedSource
	performances PerformanceSource
	cache        repositories.PerformanceCache
	logger       *log.Logger
	now          func() time.Time
}

// NewEngine creates an Engine over c. cache may be nil when only exports are run.
func NewEngine(c *services.Client, cache repositories.PerformanceCache, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{
		reviews:      c.Reviews,
		interested:   c.Interested,
		performances: c.Performances,
		cache:        cache,
		logger:       shared.WithLogger(logger, "component", "tasks"),
		now:          time.Now,
	}
}

// sessionLost reports whether err means the session is gone, after which
// every remaining request would fail the same way.
func sessionLost(err error) bool {
	return errors.Is(err, shared.ErrRefreshFailed) || errors.Is(err, shared.ErrSessionRejected)
}

// ExportOpts contains configuration for review exports.
type ExportOpts struct {
	PoolOpts
	Format    string // Export format: json, yaml, markdown, csv (default: json)
	OutputDir string // Base output directory (default: stagelog_export_{epoch})
}

// ReviewExportResult is the outcome for one review.
type ReviewExportResult struct {
	ReviewID int64
	Title    string
	Files    []string
	Error    error
}

// ExportResult summarises an export run.
type ExportResult struct {
	TotalReviews      int
	SuccessfulExports int
	FailedExports     int
	Format            string
	OutputDirectory   string
	ManifestPath      string
	Results           []ReviewExportResult
}

type manifestEntry struct {
	ReviewID int64    `json:"reviewId"`
	Title    string   `json:"title"`
	Files    []string `json:"files,omitempty"`
	Error    string   `json:"error,omitempty"`
}

type exportManifest struct {
	ExportedAt time.Time       `json:"exportedAt"`
	Format     string          `json:"format"`
	Total      int             `json:"total"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	Reviews    []manifestEntry `json:"reviews"`
}

// ExportReviews writes every review of the signed-in user to opts.OutputDir.
//
// Per-review failures are recorded in the result. A lost session stops the run
// and is returned as the error alongside the partial result.
func (e *Engine) ExportReviews(ctx context.Context, prog chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	if e.reviews == nil {
		return nil, fmt.Errorf("%w: review service not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if !formatter.ValidFormat(opts.Format) {
		return nil, fmt.Errorf("%w: export format %q", shared.ErrInvalidArgument, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("stagelog_export_%d", e.now().Unix())
	}

	sendProgress(prog, fetchingReviewsUpdate())
	items, err := e.reviews.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	sendProgress(prog, foundReviewsUpdate(len(items)))

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		TotalReviews:    len(items),
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		Results:         make([]ReviewExportResult, 0, len(items)),
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var fatal error

	export := func(ctx context.Context, item models.ReviewListItem) ReviewExportResult {
		res := ReviewExportResult{ReviewID: item.ID, Title: item.Title}
		detail, err := e.reviews.Get(ctx, item.ID)
		if err != nil {
			res.Error = fmt.Errorf("failed to fetch review: %w", err)
			return res
		}
		res.Files, res.Error = formatter.WriteReviewExport(detail, opts.Format, opts.OutputDir)
		return res
	}

	runPool(runCtx, items, opts.PoolOpts, export, func(_ int, res ReviewExportResult) {
		result.Results = append(result.Results, res)
		if res.Error != nil {
			result.FailedExports++
			e.logger.Warn("review export failed", "id", res.ReviewID, "error", res.Error)
			if fatal == nil && sessionLost(res.Error) {
				fatal = res.Error
				cancel()
			}
		} else {
			result.SuccessfulExports++
		}
		sendProgress(prog, reviewExportedUpdate(len(result.Results), len(items), res))
	})

	// reviews never started count as failed
	result.FailedExports = result.TotalReviews - result.SuccessfulExports
	slices.SortFunc(result.Results, byReviewID)

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(e.manifest(result), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	sendProgress(prog, manifestUpdate(manifestPath))

	if fatal != nil {
		return result, fmt.Errorf("export stopped: %w", fatal)
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func byReviewID(a, b ReviewExportResult) int { return cmp.Compare(a.ReviewID, b.ReviewID) }

func byPerformanceID(a, b PerformanceSyncResult) int {
	return cmp.Compare(a.PerformanceID, b.PerformanceID)
}

func (e *Engine) manifest(r *ExportResult) exportManifest {
	m := exportManifest{
		ExportedAt: e.now().UTC(),
		Format:     r.Format,
		Total:      r.TotalReviews,
		Succeeded:  r.SuccessfulExports,
		Failed:     r.FailedExports,
		Reviews:    make([]manifestEntry, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		entry := manifestEntry{ReviewID: res.ReviewID, Title: res.Title}
		for _, f := range res.Files {
			entry.Files = append(entry.Files, filepath.Base(f))
		}
		if res.Error != nil {
			entry.Error = res.Error.Error()
		}
		m.Reviews = append(m.Reviews, entry)
	}
	return m
}

// PerformanceSyncResult is the outcome for one interested performance.
type PerformanceSyncResult struct {
	PerformanceID int64
	Title         string
	Error         error
}

// SyncResult summarises a cache sync.
type SyncResult struct {
	Total   int
	Cached  int
	Failed  int
	Results []PerformanceSyncResult
}

// SyncInterested fetches the detail of every interested performance and
// upserts it into the cache.
func (e *Engine) SyncInterested(ctx context.Context, prog chan<- ProgressUpdate, opts PoolOpts) (*SyncResult, error) {
	if e.interested == nil || e.performances == nil {
		return nil, fmt.Errorf("%w: performance services not initialized", shared.ErrServiceUnavailable)
	}
	if e.cache == nil {
		return nil, fmt.Errorf("%w: performance cache not configured", shared.ErrServiceUnavailable)
	}

	sendProgress(prog, fetchingInterestedUpdate())
	items, err := e.interested.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list interested performances: %w", err)
	}

	result := &SyncResult{Total: len(items), Results: make([]PerformanceSyncResult, 0, len(items))}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var fatal error

	fetch := func(ctx context.Context, item models.InterestedPerformanceItem) PerformanceSyncResult {
		res := PerformanceSyncResult{PerformanceID: item.PerformanceID, Title: item.Title}
		detail, err := e.performances.Get(ctx, item.PerformanceID)
		if err != nil {
			res.Error = fmt.Errorf("failed to fetch performance: %w", err)
			return res
		}
		if err := e.cache.Upsert(ctx, &models.CachedPerformance{Detail: detail}); err != nil {
			res.Error = fmt.Errorf("failed to cache performance: %w", err)
		}
		return res
	}

	runPool(runCtx, items, opts, fetch, func(_ int, res PerformanceSyncResult) {
		result.Results = append(result.Results, res)
		if res.Error == nil {
			result.Cached++
		} else {
			e.logger.Warn("performance sync failed", "id", res.PerformanceID, "error", res.Error)
			if fatal == nil && sessionLost(res.Error) {
				fatal = res.Error
				cancel()
			}
		}
		sendProgress(prog, performanceSyncedUpdate(len(result.Results), len(items), res))
	})

	result.Failed = result.Total - result.Cached
	slices.SortFunc(result.Results, byPerformanceID)
	e.logger.Info("performance cache synced", "cached", result.Cached, "failed", result.Failed)

	if fatal != nil {
		return result, fmt.Errorf("sync stopped: %w", fatal)
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}
