package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/stagelog/internal/models"
)

// PerformanceRepository implements [PerformanceCache] on the performance_cache table.
//
// The detail is stored as its JSON payload; title and dates are copied into
// columns so listing does not decode every row's ordering key.
type PerformanceRepository struct {
	db *sql.DB
}

// NewPerformanceRepository creates a new [PerformanceRepository] with the given database connection
func NewPerformanceRepository(db *sql.DB) *PerformanceRepository {
	return &PerformanceRepository{db: db}
}

// Upsert inserts p or replaces the cached copy with the same performance ID.
func (r *PerformanceRepository) Upsert(ctx context.Context, p *models.CachedPerformance) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if p.FetchedAt.IsZero() {
		p.FetchedAt = time.Now()
	}

	payload, err := p.Payload()
	if err != nil {
		return fmt.Errorf("failed to encode performance: %w", err)
	}

	query := `
		INSERT INTO performance_cache (performance_id, title, start_date, end_date, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(performance_id) DO UPDATE SET
			title = excluded.title,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`
	d := p.Detail
	if _, err := r.db.ExecContext(ctx, query, d.ID, d.Title, d.StartDate, d.EndDate, payload, p.FetchedAt.UTC()); err != nil {
		return fmt.Errorf("failed to cache performance %d: %w", d.ID, err)
	}
	return nil
}

// Get retrieves the cached performance with id.
func (r *PerformanceRepository) Get(ctx context.Context, id int64) (*models.CachedPerformance, error) {
	query := `SELECT payload, fetched_at FROM performance_cache WHERE performance_id = ?`

	var (
		payload   []byte
		fetchedAt time.Time
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query performance: %w", err)
	}
	return decodeCached(payload, fetchedAt)
}

// List returns every cached performance ordered by start date.
func (r *PerformanceRepository) List(ctx context.Context) ([]*models.CachedPerformance, error) {
	query := `
		SELECT payload, fetched_at
		FROM performance_cache
		ORDER BY start_date ASC, performance_id ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query performances: %w", err)
	}
	defer rows.Close()

	var out []*models.CachedPerformance
	for rows.Next() {
		var (
			payload   []byte
			fetchedAt time.Time
		)
		if err := rows.Scan(&payload, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan performance: %w", err)
		}
		p, err := decodeCached(payload, fetchedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

// Delete removes one cached performance.
func (r *PerformanceRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM performance_cache WHERE performance_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete performance: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return notFound(id)
	}
	return nil
}

// Clear empties the cache and returns how many entries were removed.
func (r *PerformanceRepository) Clear(ctx context.Context) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM performance_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear performance cache: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}

func decodeCached(payload []byte, fetchedAt time.Time) (*models.CachedPerformance, error) {
	var d models.PerformanceDetail
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("failed to decode cached performance: %w", err)
	}
	return &models.CachedPerformance{Detail: d, FetchedAt: fetchedAt}, nil
}
