package csvdb

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func Test_table_ensure(t *testing.T) {
	dir := t.TempDir()
	tbl := newTable(dir, "grades", gradesHeader, time.Second)

	if err := tbl.ensure(); err != nil {
		t.Fatalf("ensure() failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "grades.csv"))
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if got, want := string(data), "username,subject,grade\n"; got != want {
		t.Errorf("ensure() wrote %q, want %q", got, want)
	}

	// a second ensure must not touch the existing file
	if err := tbl.save(gradesHeader, []row{{"username": "awe", "subject": "Math", "grade": "90"}}); err != nil {
		t.Fatalf("save() failed: %v", err)
	}
	if err := tbl.ensure(); err != nil {
		t.Fatalf("ensure() failed: %v", err)
	}
	_, rows, err := tbl.load()
	if err != nil {
		t.Fatalf("load() failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("load() returned %d rows, want 1", len(rows))
	}
}

func Test_table_roundTrip(t *testing.T) {
	tbl := newTable(t.TempDir(), "grades", gradesHeader, time.Second)

	want := []row{
		{"username": "awe", "subject": "Math", "grade": "90"},
		{"username": "kim", "subject": "Art", "grade": "75.5"},
	}
	if err := tbl.save(gradesHeader, want); err != nil {
		t.Fatalf("save() failed: %v", err)
	}
	header, rows, err := tbl.load()
	if err != nil {
		t.Fatalf("load() failed: %v", err)
	}
	if len(header) != len(gradesHeader) {
		t.Errorf("load() header = %v, want %v", header, gradesHeader)
	}
	if len(rows) != len(want) {
		t.Fatalf("load() returned %d rows, want %d", len(rows), len(want))
	}
	for i, r := range rows {
		for col, val := range want[i] {
			if r[col] != val {
				t.Errorf("row %d: %s = %q, want %q", i, col, r[col], val)
			}
		}
	}
}

// columns outside the canonical header must survive a load/save cycle.
func Test_table_keepsUnknownColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grades.csv")
	raw := "username,subject,grade,comment\nawe,Math,90,needs work\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	tbl := newTable(dir, "grades", gradesHeader, time.Second)
	header, rows, err := tbl.load()
	if err != nil {
		t.Fatalf("load() failed: %v", err)
	}
	if rows[0]["comment"] != "needs work" {
		t.Errorf("load() dropped unknown column, got %v", rows[0])
	}
	if err := tbl.save(header, rows); err != nil {
		t.Fatalf("save() failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if string(data) != raw {
		t.Errorf("save() rewrote file as %q, want %q", string(data), raw)
	}
}

func Test_table_lockTimeout(t *testing.T) {
	tbl := newTable(t.TempDir(), "grades", gradesHeader, 10*time.Millisecond)

	if err := tbl.lock(); err != nil {
		t.Fatalf("lock() failed: %v", err)
	}
	defer tbl.unlock()

	err := tbl.lock()
	if !errors.Is(err, ErrLockTimeout) {
		t.Errorf("lock() error = %v, want ErrLockTimeout", err)
	}
	var serr *StorageError
	if !errors.As(err, &serr) || serr.Collection != "grades" {
		t.Errorf("lock() error = %#v, want StorageError for grades", err)
	}
}

func Test_stagedWrite_discard(t *testing.T) {
	tbl := newTable(t.TempDir(), "grades", gradesHeader, time.Second)
	staged, err := tbl.stage(gradesHeader, nil)
	if err != nil {
		t.Fatalf("stage() failed: %v", err)
	}
	staged.discard()
	if _, err := os.Stat(staged.tmp); !os.IsNotExist(err) {
		t.Errorf("discard() left temp file behind: %v", err)
	}
	if _, err := os.Stat(tbl.path); !os.IsNotExist(err) {
		t.Errorf("discard() touched the collection file: %v", err)
	}
}
