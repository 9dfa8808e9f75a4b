// Package csvdb persists the four record collections (users, credentials,
// grades, eca) as flat CSV files, one file per collection, and implements the
// domain repositories on top of them. Every operation re-reads its
// collections from disk inside a per-collection critical section and writes
// back through a staged temp file plus atomic rename.
package csvdb

import (
	"os"

	"github.com/shule-project/shule/core"
)

// canonical headers
var (
	usersHeader = []string{
		"username", "full_name", "role", "email", "phone", "address",
		"department", "year_of_study", "enrollment_date",
	}
	credentialsHeader = []string{"username", "password"}
	gradesHeader      = []string{"username", "subject", "grade"}
	ecaHeader         = []string{"username", "activity", "role", "hours_per_week", "description"}
)

type DB struct {
	users       *table
	credentials *table
	grades      *table
	eca         *table
}

// Open prepares the storage directory, materializes any missing collection
// with its canonical header and converts legacy wide-form grade/eca files to
// the canonical long form.
func Open(conf *core.Config) (*DB, error) {
	dir := conf.Storage.DataDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storageErr(dir, "mkdir", err)
	}

	timeout := conf.Storage.LockTimeout
	db := &DB{
		users:       newTable(dir, "users", usersHeader, timeout),
		credentials: newTable(dir, "credentials", credentialsHeader, timeout),
		grades:      newTable(dir, "grades", gradesHeader, timeout),
		eca:         newTable(dir, "eca", ecaHeader, timeout),
	}
	for _, t := range db.lockOrder() {
		if err := t.ensure(); err != nil {
			return nil, err
		}
	}
	if _, err := db.ImportLegacy(); err != nil {
		return nil, err
	}
	return db, nil
}

// lockOrder returns every collection in the fixed global acquisition order:
// users, credentials, grades, eca. Multi-collection operations must acquire
// their locks in this order to stay deadlock-free.
func (db *DB) lockOrder() []*table {
	return []*table{db.users, db.credentials, db.grades, db.eca}
}

// lockTables acquires the given collections in the fixed global order and
// returns a release function that unlocks them in reverse.
func (db *DB) lockTables(tables ...*table) (func(), error) {
	want := make(map[*table]bool, len(tables))
	for _, t := range tables {
		want[t] = true
	}

	locked := make([]*table, 0, len(tables))
	release := func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].unlock()
		}
	}
	for _, t := range db.lockOrder() {
		if !want[t] {
			continue
		}
		if err := t.lock(); err != nil {
			release()
			return nil, err
		}
		locked = append(locked, t)
	}
	return release, nil
}
