// Package testutil provides shared test fixtures for detection files.
//
// It deliberately depends only on internal/units so that package-internal
// tests anywhere in the module can import it without cycles.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/scantrack/internal/units"
)

// DetectionHeader is the canonical CSV header row.
const DetectionHeader = "range,azimuth,elevation,time,doppler"

// DetectionRow formats a CSV row for a detection at the Cartesian
// sensor-frame position (x, y, z).
func DetectionRow(x, y, z, t, doppler float64) string {
	az, el, r := units.Cart2Sph(x, y, z)
	return fmt.Sprintf("%.9f,%.9f,%.9f,%.6f,%.3f", r, az, el, t, doppler)
}

// ConstantVelocityRows returns one row per step of a target moving from p0
// at velocity v, sampled every dt seconds starting at t0.
func ConstantVelocityRows(p0, v [3]float64, t0, dt float64, steps int, doppler float64) []string {
	rows := make([]string, 0, steps)
	for i := 0; i < steps; i++ {
		ts := t0 + float64(i)*dt
		elapsed := float64(i) * dt
		rows = append(rows, DetectionRow(
			p0[0]+v[0]*elapsed,
			p0[1]+v[1]*elapsed,
			p0[2]+v[2]*elapsed,
			ts, doppler,
		))
	}
	return rows
}

// WriteDetectionsCSV writes rows under a header into dir/name and returns
// the path.
func WriteDetectionsCSV(t *testing.T, dir, name string, rows []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := DetectionHeader + "\n" + strings.Join(rows, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write detections fixture: %v", err)
	}
	return path
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
