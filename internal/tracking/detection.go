package tracking

import (
	"fmt"

	"github.com/banshee-data/scantrack/internal/units"
)

// Detection is a single sensor return. Angles are in degrees, Time in
// seconds. Extra carries any trailing input columns verbatim.
type Detection struct {
	Range     float64
	Azimuth   float64
	Elevation float64
	Time      float64
	Doppler   float64
	Extra     []string
}

// Cartesian returns the detection position in the sensor frame.
func (d Detection) Cartesian() [3]float64 {
	x, y, z := units.Sph2Cart(d.Azimuth, d.Elevation, d.Range)
	return [3]float64{x, y, z}
}

func (d Detection) String() string {
	return fmt.Sprintf("r=%.2f az=%.2f el=%.2f t=%.3f dop=%.2f", d.Range, d.Azimuth, d.Elevation, d.Time, d.Doppler)
}

// ScanBatch is a group of detections treated as simultaneous.
// Time is the timestamp of the latest detection in the batch.
type ScanBatch struct {
	Index      int
	Time       float64
	Detections []Detection
}

// HistoryEntry records a detection assigned to a track together with the
// confirmation state the track held after taking it.
type HistoryEntry struct {
	Detection Detection
	State     ConfirmationState
}
