package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/taskbridge/backend/domain"
)

// Entry is one recorded delivery attempt. The journal is an operational
// history, never a redelivery queue: entries are not replayed to clients.
type Entry struct {
	ID           string           `json:"id"`
	Kind         domain.EventKind `json:"kind"`
	TargetUserID string           `json:"target_user_id"`
	Payload      json.RawMessage  `json:"payload"`
	Delivered    int              `json:"delivered"`
	EmittedAt    time.Time        `json:"emitted_at"`
}

// Store wraps BoltDB to keep a retention-bounded log of emitted events.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "events"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Record appends the event. Keys are timestamp-ordered so Recent and
// Cleanup can walk the bucket chronologically.
func (s *Store) Record(event domain.Event, delivered int) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	entry := Entry{
		ID:           uuid.NewString(),
		Kind:         event.Kind,
		TargetUserID: event.TargetUserID,
		Payload:      payload,
		Delivered:    delivered,
		EmittedAt:    event.EmittedAt,
	}
	if entry.EmittedAt.IsZero() {
		entry.EmittedAt = time.Now()
	}

	value, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	key := []byte(fmt.Sprintf("%020d_%s", entry.EmittedAt.UnixNano(), entry.ID))

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(key, value)
	})
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.Last(); k != nil && len(entries) < limit; k, v = c.Prev() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
		return nil
	})
	return entries, err
}

// Cleanup removes entries emitted before the provided timestamp.
func (s *Store) Cleanup(olderThan time.Time) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	cutoff := []byte(fmt.Sprintf("%020d", olderThan.UnixNano()))
	return s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, _ := c.First(); k != nil && string(k) < string(cutoff); k, _ = c.First() {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
}

// Size returns the number of journaled entries.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
