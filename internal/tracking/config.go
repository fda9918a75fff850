package tracking

import (
	"fmt"

	"github.com/banshee-data/scantrack/internal/config"
)

// Config holds the tracking session parameters.
type Config struct {
	MaxTimeDiff float64   // batching window (seconds)
	BatchMode   BatchMode // how the window is measured

	RangeThreshold   float64 // single-detection correlation distance
	DopplerThreshold float64 // maximum Doppler disagreement for a pair
	Chi2Significance float64 // gating significance level, df = 3

	Mode      ConfirmationMode
	MaxMisses int // consecutive misses tolerated before termination
	MaxTracks int // registry capacity

	Filter FilterConfig
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTrackerTuning())
}

// ConfigFromTuning builds a Config from a loaded TrackerTuning.
func ConfigFromTuning(cfg *config.TrackerTuning) Config {
	mode := BatchByGap
	if cfg.GetBatchMode() == config.BatchModeWindow {
		mode = BatchByWindow
	}
	return Config{
		MaxTimeDiff:      cfg.GetMaxTimeDiff(),
		BatchMode:        mode,
		RangeThreshold:   cfg.GetRangeThreshold(),
		DopplerThreshold: cfg.GetDopplerThreshold(),
		Chi2Significance: cfg.GetChi2Significance(),
		Mode:             ConfirmationMode(cfg.GetConfirmationMode()),
		MaxMisses:        cfg.GetMaxMisses(),
		MaxTracks:        cfg.GetMaxTracks(),
		Filter: FilterConfig{
			InitialCovariance: cfg.GetInitialCovariance(),
			ProcessNoise:      cfg.GetProcessNoise(),
			MeasurementNoise:  cfg.GetMeasurementNoise(),
		},
	}
}

// Validate checks the fields NewTracker depends on.
func (c Config) Validate() error {
	if _, err := Progression(c.Mode); err != nil {
		return err
	}
	if c.MaxTracks < 1 {
		return fmt.Errorf("max tracks must be at least 1, got %d", c.MaxTracks)
	}
	if c.Chi2Significance <= 0 || c.Chi2Significance >= 1 {
		return fmt.Errorf("chi-square significance must be in (0, 1), got %f", c.Chi2Significance)
	}
	if c.MaxTimeDiff < 0 {
		return fmt.Errorf("max time diff must be non-negative, got %f", c.MaxTimeDiff)
	}
	return nil
}
