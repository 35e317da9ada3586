// Package scanmarker persists the "last full scan" timestamp per source
// root in a local embedded database, so the daemon does not repeat a full
// scan it already completed earlier the same day after a restart.
package scanmarker

import (
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

const keyPrefix = "scan:last:"

// Store is a small badger-backed key-value store mapping source root to
// the timestamp its last full scan completed.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the badger database rooted at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("scanmarker: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// LastScan returns when sourceRoot's full scan last completed, and false
// if no scan has ever completed for it.
func (s *Store) LastScan(sourceRoot string) (time.Time, bool, error) {
	var (
		when  time.Time
		found bool
	)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(sourceRoot))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			parsed, err := time.Parse(time.RFC3339, string(val))
			if err != nil {
				return err
			}
			when = parsed
			found = true
			return nil
		})
	})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("scanmarker: read %s: %w", sourceRoot, err)
	}
	return when, found, nil
}

// RecordScanComplete persists ts as sourceRoot's last completed full-scan
// timestamp, overwriting any prior value.
func (s *Store) RecordScanComplete(sourceRoot string, ts time.Time) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(sourceRoot), []byte(ts.Format(time.RFC3339)))
	})
	if err != nil {
		return fmt.Errorf("scanmarker: write %s: %w", sourceRoot, err)
	}
	return nil
}

// HasRunToday reports whether sourceRoot's last full scan completed on
// the same calendar day as now, in loc.
func (s *Store) HasRunToday(sourceRoot string, now time.Time, loc *time.Location) (bool, error) {
	last, found, err := s.LastScan(sourceRoot)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	localLast := last.In(loc)
	localNow := now.In(loc)
	y1, m1, d1 := localLast.Date()
	y2, m2, d2 := localNow.Date()
	return y1 == y2 && m1 == m2 && d1 == d2, nil
}

func key(sourceRoot string) []byte {
	return []byte(keyPrefix + sourceRoot)
}
