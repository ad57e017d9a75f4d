package repositories

import (
	"cmp"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.etcd.io/bbolt"

	"github.com/desertthunder/stagelog/internal/models"
)

var (
	credentialsBucket  = []byte("credentials")
	performancesBucket = []byte("performance_cache")
)

// OpenBolt opens (creating if needed) the bbolt file at path with both buckets present.
func OpenBolt(path string) (*bbolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{credentialsBucket, performancesBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// BoltCredentialRepository is a [session.Backend] in a bbolt bucket.
type BoltCredentialRepository struct {
	db *bbolt.DB
}

func NewBoltCredentialRepository(db *bbolt.DB) *BoltCredentialRepository {
	return &BoltCredentialRepository{db: db}
}

// Save writes every entry in one bbolt transaction.
func (r *BoltCredentialRepository) Save(ctx context.Context, entries map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(credentialsBucket)
		for k, v := range entries {
			if err := b.Put([]byte(k), v); err != nil {
				return fmt.Errorf("failed to save credential %s: %w", k, err)
			}
		}
		return nil
	})
}

func (r *BoltCredentialRepository) Load(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(keys))
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(credentialsBucket)
		for _, k := range keys {
			// values are only valid inside the transaction
			if v := b.Get([]byte(k)); v != nil {
				out[k] = append([]byte(nil), v...)
			}
		}
		return nil
	})
	return out, err
}

func (r *BoltCredentialRepository) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(credentialsBucket)
		for _, k := range keys {
			if err := b.Delete([]byte(k)); err != nil {
				return fmt.Errorf("failed to delete credential %s: %w", k, err)
			}
		}
		return nil
	})
}

// BoltPerformanceRepository implements [PerformanceCache] in a bbolt bucket
// keyed by the big-endian performance ID.
type BoltPerformanceRepository struct {
	db *bbolt.DB
}

func NewBoltPerformanceRepository(db *bbolt.DB) *BoltPerformanceRepository {
	return &BoltPerformanceRepository{db: db}
}

type boltPerformance struct {
	Detail    models.PerformanceDetail `json:"detail"`
	FetchedAt time.Time                `json:"fetchedAt"`
}

func idKey(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func (r *BoltPerformanceRepository) Upsert(ctx context.Context, p *models.CachedPerformance) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if p.FetchedAt.IsZero() {
		p.FetchedAt = time.Now()
	}
	data, err := json.Marshal(boltPerformance{Detail: p.Detail, FetchedAt: p.FetchedAt.UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode performance: %w", err)
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(performancesBucket).Put(idKey(p.Detail.ID), data)
	})
}

func (r *BoltPerformanceRepository) Get(ctx context.Context, id int64) (*models.CachedPerformance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out *models.CachedPerformance
	err := r.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(performancesBucket).Get(idKey(id))
		if v == nil {
			return notFound(id)
		}
		p, err := decodeBolt(v)
		out = p
		return err
	})
	return out, err
}

// List returns every cached performance ordered by start date, as the SQLite cache does.
func (r *BoltPerformanceRepository) List(ctx context.Context) ([]*models.CachedPerformance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*models.CachedPerformance
	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(performancesBucket).ForEach(func(_, v []byte) error {
			p, err := decodeBolt(v)
			if err != nil {
				return err
			}
			out = append(out, p)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b *models.CachedPerformance) int {
		return cmp.Or(
			cmp.Compare(a.Detail.StartDate, b.Detail.StartDate),
			cmp.Compare(a.Detail.ID, b.Detail.ID),
		)
	})
	return out, nil
}

func (r *BoltPerformanceRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(performancesBucket)
		if b.Get(idKey(id)) == nil {
			return notFound(id)
		}
		return b.Delete(idKey(id))
	})
}

func (r *BoltPerformanceRepository) Clear(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	err := r.db.Update(func(tx *bbolt.Tx) error {
		n = tx.Bucket(performancesBucket).Stats().KeyN
		if err := tx.DeleteBucket(performancesBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(performancesBucket)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clear performance cache: %w", err)
	}
	return n, nil
}

func decodeBolt(v []byte) (*models.CachedPerformance, error) {
	var bp boltPerformance
	if err := json.Unmarshal(v, &bp); err != nil {
		return nil, fmt.Errorf("failed to decode cached performance: %w", err)
	}
	return &models.CachedPerformance{Detail: bp.Detail, FetchedAt: bp.FetchedAt}, nil
}
