package tracking

import "github.com/banshee-data/scantrack/internal/units"

// detAt builds a detection at a Cartesian sensor-frame position.
func detAt(x, y, z, t, doppler float64) Detection {
	az, el, r := units.Cart2Sph(x, y, z)
	return Detection{Range: r, Azimuth: az, Elevation: el, Time: t, Doppler: doppler}
}

// detAtTime builds a bare detection carrying only a timestamp.
func detAtTime(t float64) Detection {
	return Detection{Range: 1000, Time: t}
}

// newTestTrack starts a track at pos whose filter has the given initial
// covariance and no noise, predicted to t0.
func newTestTrack(id TrackID, pos [3]float64, cov, doppler float64) *Track {
	f := NewFilter(FilterConfig{InitialCovariance: cov})
	f.Initialize(pos[0], pos[1], pos[2], 0, 0, 0, 0)
	f.Predict(0)
	return &Track{ID: id, State: Poss1, Filter: f, HitCount: 1, LastDoppler: doppler}
}

func ids(tracks []*Track) []TrackID {
	out := make([]TrackID, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, t.ID)
	}
	return out
}
