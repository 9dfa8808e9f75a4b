package csvdb

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// ErrLockTimeout reports that a collection lock could not be acquired within
// the configured timeout.
var ErrLockTimeout = errors.New("storage lock acquisition timed out")

// StorageError wraps any I/O failure reading or writing a collection. It is
// surfaced to the caller as-is and never retried.
type StorageError struct {
	Collection string
	Op         string
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(collection, op string, err error) error {
	return &StorageError{Collection: collection, Op: op, Err: err}
}

// row maps column names to raw values for a single record.
type row map[string]string

// table is one CSV-backed collection. All access happens between lock and
// unlock; the lock is a single-slot semaphore so acquisition times out with a
// bounded error instead of blocking a caller indefinitely.
type table struct {
	name    string
	path    string
	header  []string
	sem     chan struct{}
	timeout time.Duration
}

func newTable(dir, name string, header []string, timeout time.Duration) *table {
	return &table{
		name:    name,
		path:    filepath.Join(dir, name+".csv"),
		header:  header,
		sem:     make(chan struct{}, 1),
		timeout: timeout,
	}
}

func (t *table) lock() error {
	select {
	case t.sem <- struct{}{}:
		return nil
	case <-time.After(t.timeout):
		return storageErr(t.name, "lock", ErrLockTimeout)
	}
}

func (t *table) unlock() { <-t.sem }

// ensure materializes the collection with its canonical header if the
// underlying file does not exist yet.
func (t *table) ensure() error {
	if _, err := os.Stat(t.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return storageErr(t.name, "stat", err)
	}
	staged, err := t.stage(t.header, nil)
	if err != nil {
		return err
	}
	return staged.commit()
}

// load reads the whole collection, returning the on-disk header and one row
// per record. Columns outside the canonical header are kept so a later save
// never drops them.
func (t *table) load() ([]string, []row, error) {
	if err := t.ensure(); err != nil {
		return nil, nil, err
	}
	f, err := os.Open(t.path)
	if err != nil {
		return nil, nil, storageErr(t.name, "open", err)
	}
	defer func() { _ = f.Close() }()

	rdr := csv.NewReader(f)
	rdr.FieldsPerRecord = -1
	records, err := rdr.ReadAll()
	if err != nil {
		return nil, nil, storageErr(t.name, "read", err)
	}
	if len(records) == 0 {
		return append([]string(nil), t.header...), nil, nil
	}

	header := records[0]
	rows := make([]row, 0, len(records)-1)
	for _, rec := range records[1:] {
		r := make(row, len(header))
		for i, col := range header {
			if i < len(rec) {
				r[col] = rec[i]
			}
		}
		rows = append(rows, r)
	}
	return header, rows, nil
}

// save rewrites the whole collection under the given header.
func (t *table) save(header []string, rows []row) error {
	staged, err := t.stage(header, rows)
	if err != nil {
		return err
	}
	return staged.commit()
}

// stagedWrite is a fully written temp file awaiting an atomic rename over the
// collection. Multi-collection operations stage every collection first and
// only then commit each one, so a failure while staging leaves nothing
// half-written.
type stagedWrite struct {
	collection string
	tmp        string
	path       string
}

func (t *table) stage(header []string, rows []row) (*stagedWrite, error) {
	f, err := os.CreateTemp(filepath.Dir(t.path), t.name+".*.tmp")
	if err != nil {
		return nil, storageErr(t.name, "stage", err)
	}

	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	for _, r := range rows {
		rec := make([]string, len(header))
		for i, col := range header {
			rec[i] = r[col]
		}
		records = append(records, rec)
	}

	err = csv.NewWriter(f).WriteAll(records)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return nil, storageErr(t.name, "stage", err)
	}
	return &stagedWrite{collection: t.name, tmp: f.Name(), path: t.path}, nil
}

func (s *stagedWrite) commit() error {
	if err := os.Rename(s.tmp, s.path); err != nil {
		_ = os.Remove(s.tmp)
		return storageErr(s.collection, "commit", err)
	}
	return nil
}

func (s *stagedWrite) discard() {
	if s != nil {
		_ = os.Remove(s.tmp)
	}
}
