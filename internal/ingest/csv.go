// Package ingest reads detection lists from CSV files.
//
// Each row is range, azimuth, elevation, time, doppler followed by any
// number of extra columns, which are carried through untouched. A header
// row is recognised when its first field is not a number.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/scantrack/internal/monitoring"
	"github.com/banshee-data/scantrack/internal/tracking"
)

// ErrMalformedRow marks a row that could not be turned into a detection.
// Malformed rows are skipped, never fatal.
var ErrMalformedRow = errors.New("malformed detection row")

const minColumns = 5

// ReadStats summarises one read.
type ReadStats struct {
	Rows       int  // data rows seen, excluding the header
	Detections int  // rows accepted
	Malformed  int  // rows skipped
	Header     bool // a header row was present
}

// ReadDetections parses detections from r and returns them sorted by time.
// Rows with equal timestamps keep their input order.
func ReadDetections(r io.Reader) ([]tracking.Detection, ReadStats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var (
		stats ReadStats
		dets  []tracking.Detection
		first = true
	)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				stats.Rows++
				stats.Malformed++
				monitoring.Diagf("skipping line %d: %v: %v", pe.Line, ErrMalformedRow, pe.Err)
				first = false
				continue
			}
			return nil, stats, fmt.Errorf("failed to read detections: %w", err)
		}

		if first {
			first = false
			if len(record) > 0 && !isNumeric(record[0]) {
				stats.Header = true
				continue
			}
		}

		stats.Rows++
		line, _ := reader.FieldPos(0)
		det, err := parseRow(record)
		if err != nil {
			stats.Malformed++
			monitoring.Diagf("skipping line %d: %v", line, err)
			continue
		}
		dets = append(dets, det)
	}

	sort.SliceStable(dets, func(i, j int) bool { return dets[i].Time < dets[j].Time })
	stats.Detections = len(dets)
	if stats.Malformed > 0 {
		monitoring.Opsf("skipped %d malformed detection rows of %d", stats.Malformed, stats.Rows)
	}
	return dets, stats, nil
}

// ReadDetectionsFile opens path and reads detections from it.
func ReadDetectionsFile(path string) ([]tracking.Detection, ReadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ReadStats{}, fmt.Errorf("failed to open detections file: %w", err)
	}
	defer f.Close()

	dets, stats, err := ReadDetections(f)
	if err != nil {
		return nil, stats, fmt.Errorf("%s: %w", path, err)
	}
	return dets, stats, nil
}

func parseRow(record []string) (tracking.Detection, error) {
	if len(record) < minColumns {
		return tracking.Detection{}, fmt.Errorf("%w: want at least %d columns, got %d", ErrMalformedRow, minColumns, len(record))
	}

	var vals [minColumns]float64
	names := [minColumns]string{"range", "azimuth", "elevation", "time", "doppler"}
	for i := range vals {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return tracking.Detection{}, fmt.Errorf("%w: invalid %s %q", ErrMalformedRow, names[i], record[i])
		}
		vals[i] = v
	}
	if vals[0] < 0 {
		return tracking.Detection{}, fmt.Errorf("%w: negative range %v", ErrMalformedRow, vals[0])
	}

	det := tracking.Detection{
		Range:     vals[0],
		Azimuth:   vals[1],
		Elevation: vals[2],
		Time:      vals[3],
		Doppler:   vals[4],
	}
	if len(record) > minColumns {
		det.Extra = append([]string(nil), record[minColumns:]...)
	}
	return det, nil
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}
