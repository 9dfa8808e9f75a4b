package csvdb

import "strings"

// Historical data directories carry two incompatible layouts for grades and
// eca: the canonical long form (one row per record) and a legacy wide form
// (one row per student, one column per subject or per activity slot).
// ImportLegacy detects wide files and rewrites them in long form, once. It
// reports whether any collection was converted.
func (db *DB) ImportLegacy() (bool, error) {
	gradesConverted, err := db.importLegacyGrades()
	if err != nil {
		return false, err
	}
	ecaConverted, err := db.importLegacyECA()
	if err != nil {
		return gradesConverted, err
	}
	return gradesConverted || ecaConverted, nil
}

// isWide reports whether header belongs to a wide-form file: it has a
// username column plus columns outside the canonical set, while missing at
// least one canonical column. A long-form file that merely gained an unknown
// extra column is left alone.
func isWide(header, canonical []string) bool {
	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}
	hasExtra := false
	known := make(map[string]bool, len(canonical))
	for _, col := range canonical {
		known[col] = true
	}
	for _, col := range header {
		if !known[col] {
			hasExtra = true
			break
		}
	}
	hasAllCanonical := true
	for _, col := range canonical {
		if !present[col] {
			hasAllCanonical = false
			break
		}
	}
	return present["username"] && hasExtra && !hasAllCanonical
}

// absent reports pandas-style empty cells.
func absent(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "nan")
}

// importLegacyGrades converts a wide grades file (one column per subject,
// column name = subject) into long rows.
func (db *DB) importLegacyGrades() (bool, error) {
	if err := db.grades.lock(); err != nil {
		return false, err
	}
	defer db.grades.unlock()

	header, rows, err := db.grades.load()
	if err != nil {
		return false, err
	}
	if !isWide(header, gradesHeader) {
		return false, nil
	}

	long := make([]row, 0, len(rows))
	for _, r := range rows {
		username := r["username"]
		for _, col := range header {
			if col == "username" || absent(r[col]) {
				continue
			}
			long = append(long, row{
				"username": username,
				"subject":  col,
				"grade":    strings.TrimSpace(r[col]),
			})
		}
	}
	if err = db.grades.save(gradesHeader, long); err != nil {
		return false, err
	}
	return true, nil
}

// importLegacyECA converts a wide eca file (activity1..activityN columns
// holding activity names) into long rows. The wide layout never stored
// roles, hours or descriptions, so those come out zero-valued.
func (db *DB) importLegacyECA() (bool, error) {
	if err := db.eca.lock(); err != nil {
		return false, err
	}
	defer db.eca.unlock()

	header, rows, err := db.eca.load()
	if err != nil {
		return false, err
	}
	if !isWide(header, ecaHeader) {
		return false, nil
	}

	long := make([]row, 0, len(rows))
	for _, r := range rows {
		username := r["username"]
		for _, col := range header {
			if col == "username" || absent(r[col]) {
				continue
			}
			long = append(long, row{
				"username":       username,
				"activity":       strings.TrimSpace(r[col]),
				"role":           "",
				"hours_per_week": "0",
				"description":    "",
			})
		}
	}
	if err = db.eca.save(ecaHeader, long); err != nil {
		return false, err
	}
	return true, nil
}
