package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/stagelog/internal/models"
	"github.com/desertthunder/stagelog/internal/session"
	"github.com/desertthunder/stagelog/internal/shared"
)

// PerformanceCache stores performance details for offline display.
type PerformanceCache interface {
	Upsert(ctx context.Context, p *models.CachedPerformance) error
	Get(ctx context.Context, id int64) (*models.CachedPerformance, error)
	List(ctx context.Context) ([]*models.CachedPerformance, error)
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context) (int, error)
}

// Stores bundles the backends opened for one storage driver.
type Stores struct {
	Credentials  session.Backend
	Performances PerformanceCache
	close        func() error
}

// Close releases the underlying database.
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open returns the stores for cfg.Driver. The memory driver keeps
// credentials in process and the cache in an in-memory SQLite database.
func Open(cfg shared.StorageConfig) (*Stores, error) {
	switch cfg.Driver {
	case shared.DriverSQLite, "":
		db, err := shared.OpenStore(cfg)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Credentials:  NewCredentialRepository(db),
			Performances: NewPerformanceRepository(db),
			close:        db.Close,
		}, nil
	case shared.DriverBolt:
		db, err := OpenBolt(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Credentials:  NewBoltCredentialRepository(db),
			Performances: NewBoltPerformanceRepository(db),
			close:        db.Close,
		}, nil
	case shared.DriverMemory:
		db, err := shared.OpenStore(shared.StorageConfig{Path: ":memory:"})
		if err != nil {
			return nil, err
		}
		return &Stores{
			Credentials:  session.NewMemoryBackend(),
			Performances: NewPerformanceRepository(db),
			close:        db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownDriver, cfg.Driver)
	}
}

var (
	_ session.Backend  = (*CredentialRepository)(nil)
	_ session.Backend  = (*BoltCredentialRepository)(nil)
	_ PerformanceCache = (*PerformanceRepository)(nil)
	_ PerformanceCache = (*BoltPerformanceRepository)(nil)
)

func notFound(id int64) error {
	return fmt.Errorf("%w: %d is not cached", shared.ErrPerformanceNotFound, id)
}

// IsNotFound reports whether err means the entry is not cached.
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrPerformanceNotFound)
}
