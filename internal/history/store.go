// Package history archives completed diagnostic runs in a local bbolt
// database so past reports can be listed and re-exported.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketRuns  = []byte("runs")
	bucketIndex = []byte("run_index")
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("run not found")

// Record is one archived engine invocation. Report holds the full
// serialized report so an old run can be exported again verbatim.
type Record struct {
	ID          string          `json:"id"`
	Target      string          `json:"target"`
	Status      string          `json:"status"`
	Probes      []string        `json:"probes"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
	ElapsedMS   float64         `json:"elapsed_ms"`
	Report      json.RawMessage `json:"report,omitempty"`
}

// Store wraps the bbolt database.
type Store struct {
	db *bolt.DB
}

// Open creates or opens the run database, creating parent directories
// as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRuns); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketIndex)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init history buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores a run. A missing ID is assigned; the record is indexed
// by start time so listing returns newest first.
func (s *Store) Append(rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketRuns).Put([]byte(rec.ID), data); err != nil {
			return err
		}
		return tx.Bucket(bucketIndex).Put(indexKey(rec), []byte(rec.ID))
	})
}

// Get returns one run by id.
func (s *Store) Get(id string) (*Record, error) {
	var rec *Record
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketRuns).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		rec = &Record{}
		return json.Unmarshal(data, rec)
	})
	return rec, err
}

// List returns up to limit runs, newest first. limit <= 0 means all.
func (s *Store) List(limit int) ([]*Record, error) {
	var out []*Record
	err := s.db.View(func(tx *bolt.Tx) error {
		runs := tx.Bucket(bucketRuns)
		c := tx.Bucket(bucketIndex).Cursor()
		for k, id := c.Last(); k != nil; k, id = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			data := runs.Get(id)
			if data == nil {
				continue
			}
			rec := &Record{}
			if err := json.Unmarshal(data, rec); err != nil {
				return fmt.Errorf("decode run %s: %w", id, err)
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// Latest returns the most recent run.
func (s *Store) Latest() (*Record, error) {
	recs, err := s.List(1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[0], nil
}

// Delete removes one run and its index entry.
func (s *Store) Delete(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		runs := tx.Bucket(bucketRuns)
		data := runs.Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		rec := &Record{}
		if err := json.Unmarshal(data, rec); err != nil {
			return err
		}
		if err := tx.Bucket(bucketIndex).Delete(indexKey(rec)); err != nil {
			return err
		}
		return runs.Delete([]byte(id))
	})
}

// indexKey orders runs chronologically; the id suffix keeps keys unique
// when two runs share a timestamp.
func indexKey(rec *Record) []byte {
	return []byte(rec.StartedAt.UTC().Format(time.RFC3339Nano) + "/" + rec.ID)
}
