package remote

import (
	"bytes"
	"strconv"
	"strings"
)

// ProgressLine is one parsed progress report of the transfer tool.
type ProgressLine struct {
	Bytes int64
	// Speed is in bytes per second.
	Speed float64
	// FileDone is set on the final report for a file (rsync appends "xfr#N, to-chk=M/T").
	FileDone bool
}

//nolint:gochecknoglobals // Unit table, read only
var speedUnits = map[string]float64{
	"B":  1,
	"kB": 1 << 10,
	"KB": 1 << 10,
	"MB": 1 << 20,
	"GB": 1 << 30,
	"TB": 1 << 40,
}

// ParseProgressLine parses `<bytes> <pct>% <speed>/s <eta> [(xfr#N, to-chk=M/T)]`.
// Lines that do not start with a byte count or carry no speed token are rejected.
func ParseProgressLine(line string) (ProgressLine, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 { //nolint:mnd // bytes plus speed at minimum
		return ProgressLine{}, false
	}

	count, err := strconv.ParseInt(strings.ReplaceAll(fields[0], ",", ""), 10, 64)
	if err != nil || count < 0 {
		return ProgressLine{}, false
	}

	speed, found := -1.0, false

	for _, field := range fields[1:] {
		if !strings.HasSuffix(field, "/s") {
			continue
		}

		speed, found = parseSpeed(strings.TrimSuffix(field, "/s"))

		break
	}

	if !found {
		return ProgressLine{}, false
	}

	return ProgressLine{
		Bytes:    count,
		Speed:    speed,
		FileDone: strings.Contains(line, "xfr#") || strings.Contains(line, "to-chk="),
	}, true
}

func parseSpeed(token string) (float64, bool) {
	end := 0
	for end < len(token) && (token[end] >= '0' && token[end] <= '9' || token[end] == '.' || token[end] == ',') {
		end++
	}

	if end == 0 {
		return 0, false
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(token[:end], ",", ""), 64)
	if err != nil {
		return 0, false
	}

	unit := token[end:]
	if unit == "" {
		unit = "B"
	}

	scale, ok := speedUnits[unit]
	if !ok {
		return 0, false
	}

	return value * scale, true
}

// ScanProgressLines is a bufio.SplitFunc that splits on '\r' as well as '\n', since progress
// tools redraw their line with carriage returns. Empty segments are skipped.
func ScanProgressLines(data []byte, atEOF bool) (int, []byte, error) {
	start := 0
	for start < len(data) && (data[start] == '\r' || data[start] == '\n') {
		start++
	}

	if atEOF && start == len(data) {
		return len(data), nil, nil
	}

	if i := bytes.IndexAny(data[start:], "\r\n"); i >= 0 {
		return start + i + 1, data[start : start+i], nil
	}

	if atEOF {
		return len(data), data[start:], nil
	}

	return start, nil, nil
}

// dirAccumulator folds per-file progress reports into a running directory total.
type dirAccumulator struct {
	base int64
	last int64
}

// add records one report and returns the directory-wide byte count.
func (d *dirAccumulator) add(line ProgressLine) int64 {
	if line.FileDone {
		d.base += line.Bytes
		d.last = 0

		return d.base
	}

	// A smaller count than the last one means a new file started without a final report.
	if line.Bytes < d.last {
		d.base += d.last
	}

	d.last = line.Bytes

	return d.base + d.last
}
