package mirror

import (
	"strconv"
	"strings"
	"time"
)

// Entry is one parsed remote directory entry.
type Entry struct {
	Name  string
	Size  int64
	IsDir bool
	// Mode is the permission string when the listing carried one.
	Mode string
}

//nolint:gochecknoglobals // Lookup table, read only
var months = map[string]bool{
	"Jan": true, "Feb": true, "Mar": true, "Apr": true, "May": true, "Jun": true,
	"Jul": true, "Aug": true, "Sep": true, "Oct": true, "Nov": true, "Dec": true,
}

// ParseListing parses `ls -la` output. Lines are either long-format rows or bare names,
// optionally suffixed with "/" for directories. A long-format row is anchored on its date:
// a month abbreviation followed by day and time-or-year, an ISO `YYYY-MM-DD HH:MM` pair, or,
// for month names in another locale, the fixed nine-column layout. Blank, "total ", symlink
// and self/parent rows are skipped, as are the mirror's reserved files. Duplicate names are
// kept in order; the last one wins when materialized.
func ParseListing(output string) []Entry {
	entries, _ := parseListing(output)

	return entries
}

// parseListing also returns the number of long-format rows whose columns could not be read.
func parseListing(output string) ([]Entry, int) {
	var (
		entries  []Entry
		unparsed int
	)

	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		if line == "" || strings.HasPrefix(line, "total ") || strings.Contains(line, " -> ") {
			continue
		}

		entry, result := parseLine(line)

		switch result {
		case lineParsed:
			entries = append(entries, entry)
		case lineUnparsed:
			unparsed++
		case lineRejected:
		}
	}

	return entries, unparsed
}

type lineResult int

const (
	lineParsed lineResult = iota
	// lineRejected is a readable row whose name the mirror refuses.
	lineRejected
	// lineUnparsed is a long-format row without a recognisable date column.
	lineUnparsed
)

// nameColumn is the first name token of the nine-column `ls -l` layout.
const nameColumn = 8

func parseLine(line string) (Entry, lineResult) {
	tokens := strings.Fields(line)

	var entry Entry

	if sizeAt, nameAt := dateAnchor(tokens); nameAt > 0 {
		entry.Mode = tokens[0]
		entry.Name = strings.Join(tokens[nameAt:], " ")
		entry.IsDir = strings.HasPrefix(entry.Mode, "d")

		if size, err := strconv.ParseInt(tokens[sizeAt], 10, 64); err == nil && size >= 0 { //nolint:noinlineerr // non-numeric size means 0
			entry.Size = size
		}
	} else {
		if looksLikeMode(tokens[0]) && len(tokens) > 1 {
			return Entry{}, lineUnparsed
		}

		entry.Name = line
	}

	if strings.HasSuffix(entry.Name, "/") {
		entry.IsDir = true
		entry.Name = strings.TrimRight(entry.Name, "/")
	}

	if entry.IsDir {
		entry.Size = 0
	}

	if !acceptableName(entry.Name) {
		return Entry{}, lineRejected
	}

	return entry, lineParsed
}

// dateAnchor returns the indexes of the size and first name token of a long-format row, or
// (-1, -1) when the row has no usable date column.
func dateAnchor(tokens []string) (int, int) {
	if month := monthAnchor(tokens); month > 0 {
		return month - 1, month + 3
	}

	if iso := isoAnchor(tokens); iso > 0 {
		return iso - 1, iso + 2
	}

	if len(tokens) > nameColumn && looksLikeMode(tokens[0]) && isNumber(tokens[nameColumn-4]) {
		return nameColumn - 4, nameColumn
	}

	return -1, -1
}

// monthAnchor returns the index of the month token of a long-format row, or -1. A month needs
// a token before it (the size) and at least one name token after the day and time-or-year.
// Anchors with a numeric size and day are preferred so owner or group names that look like
// months do not shift the columns.
func monthAnchor(tokens []string) int {
	fallback := -1

	for i := 1; i+3 < len(tokens); i++ {
		if !months[tokens[i]] {
			continue
		}

		if isNumber(tokens[i-1]) && isDay(tokens[i+1]) {
			return i
		}

		if fallback < 0 {
			fallback = i
		}
	}

	return fallback
}

// isoAnchor returns the index of a `YYYY-MM-DD` token preceded by a size and followed by a
// time and at least one name token, or -1.
func isoAnchor(tokens []string) int {
	for i := 1; i+2 < len(tokens); i++ {
		if isNumber(tokens[i-1]) && isISODate(tokens[i]) && strings.Contains(tokens[i+1], ":") {
			return i
		}
	}

	return -1
}

func isISODate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)

	return err == nil
}

// looksLikeMode reports a permission string such as "drwxr-xr-x" or "-rw-r--r--@".
func looksLikeMode(s string) bool {
	if len(s) < 10 || !strings.ContainsRune("-dlbcps", rune(s[0])) {
		return false
	}

	for _, c := range s[1:10] {
		if !strings.ContainsRune("rwxsStT-", c) {
			return false
		}
	}

	return true
}

func isNumber(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)

	return err == nil
}

func isDay(s string) bool {
	day, err := strconv.Atoi(s)

	return err == nil && day >= 1 && day <= 31
}

func acceptableName(name string) bool {
	switch {
	case name == "", name == ".", name == "..":
		return false
	case IsReservedName(name):
		return false
	case strings.Contains(name, "/"):
		return false
	default:
		return true
	}
}
