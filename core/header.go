package core

import "strings"

// Index maps lower-cased column names to their zero-based position in a row.
// It is built once per input source and never modified afterwards.
type Index struct {
	positions map[string]int
}

// BuildIndex indexes the fields of a header row. Names are matched
// case-insensitively; when a name repeats, the last position wins.
func BuildIndex(header []string) Index {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[normalizeColumn(name)] = i
	}
	return Index{positions: positions}
}

// Lookup returns the value of column in fields, or "" when the header has no
// such column or the row is shorter than the header position.
func (ix Index) Lookup(fields []string, column string) string {
	pos, ok := ix.positions[normalizeColumn(column)]
	if !ok || pos >= len(fields) {
		return ""
	}
	return fields[pos]
}

// Has reports whether the header contains column.
func (ix Index) Has(column string) bool {
	_, ok := ix.positions[normalizeColumn(column)]
	return ok
}

// Require fails with a *MissingColumnError naming every absent column.
func (ix Index) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !ix.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnError{Columns: missing}
	}
	return nil
}

func normalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
