package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the conventional location of a tracker tuning file.
const DefaultConfigPath = "config/tracker.defaults.json"

// Batch modes accepted by batch_mode.
const (
	BatchModeGap    = "gap"
	BatchModeWindow = "window"
)

// TrackerTuning is the root configuration for the tracking session.
// Every field is optional; the Get* methods supply defaults for anything
// the JSON leaves out, so partial files are safe.
type TrackerTuning struct {
	// Batching
	MaxTimeDiff *float64 `json:"max_time_diff,omitempty"` // seconds
	BatchMode   *string  `json:"batch_mode,omitempty"`    // "gap" or "window"

	// Association
	DopplerThreshold *float64 `json:"doppler_threshold,omitempty"`
	RangeThreshold   *float64 `json:"range_threshold,omitempty"`
	Chi2Significance *float64 `json:"chi2_significance,omitempty"`

	// Lifecycle
	ConfirmationMode *int `json:"confirmation_mode,omitempty"`
	FirmThreshold    *int `json:"firm_threshold,omitempty"` // legacy alias of confirmation_mode
	MaxMisses        *int `json:"max_misses,omitempty"`
	MaxTracks        *int `json:"max_tracks,omitempty"`

	// Filter
	InitialCovariance *float64 `json:"initial_covariance,omitempty"`
	ProcessNoise      *float64 `json:"process_noise,omitempty"`
	MeasurementNoise  *float64 `json:"measurement_noise,omitempty"`
}

// EmptyTrackerTuning returns a TrackerTuning with all fields unset.
func EmptyTrackerTuning() *TrackerTuning {
	return &TrackerTuning{}
}

// LoadTrackerTuning loads a TrackerTuning from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadTrackerTuning(path string) (*TrackerTuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTrackerTuning()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configured values are usable.
func (c *TrackerTuning) Validate() error {
	if c.MaxTimeDiff != nil && *c.MaxTimeDiff < 0 {
		return fmt.Errorf("max_time_diff must be non-negative, got %f", *c.MaxTimeDiff)
	}
	if c.BatchMode != nil {
		switch *c.BatchMode {
		case BatchModeGap, BatchModeWindow:
		default:
			return fmt.Errorf("batch_mode must be %q or %q, got %q", BatchModeGap, BatchModeWindow, *c.BatchMode)
		}
	}
	if c.DopplerThreshold != nil && *c.DopplerThreshold <= 0 {
		return fmt.Errorf("doppler_threshold must be positive, got %f", *c.DopplerThreshold)
	}
	if c.RangeThreshold != nil && *c.RangeThreshold <= 0 {
		return fmt.Errorf("range_threshold must be positive, got %f", *c.RangeThreshold)
	}
	if c.Chi2Significance != nil {
		if *c.Chi2Significance <= 0 || *c.Chi2Significance >= 1 {
			return fmt.Errorf("chi2_significance must be between 0 and 1 (exclusive), got %f", *c.Chi2Significance)
		}
	}
	if c.ConfirmationMode != nil && c.FirmThreshold != nil && *c.ConfirmationMode != *c.FirmThreshold {
		return fmt.Errorf("confirmation_mode (%d) and firm_threshold (%d) disagree", *c.ConfirmationMode, *c.FirmThreshold)
	}
	switch mode := c.GetConfirmationMode(); mode {
	case 3, 5, 7:
	default:
		return fmt.Errorf("confirmation_mode must be 3, 5 or 7, got %d", mode)
	}
	if c.MaxMisses != nil && *c.MaxMisses < 0 {
		return fmt.Errorf("max_misses must be non-negative, got %d", *c.MaxMisses)
	}
	if c.MaxTracks != nil && *c.MaxTracks < 1 {
		return fmt.Errorf("max_tracks must be at least 1, got %d", *c.MaxTracks)
	}
	if c.InitialCovariance != nil && *c.InitialCovariance <= 0 {
		return fmt.Errorf("initial_covariance must be positive, got %f", *c.InitialCovariance)
	}
	if c.ProcessNoise != nil && *c.ProcessNoise < 0 {
		return fmt.Errorf("process_noise must be non-negative, got %f", *c.ProcessNoise)
	}
	if c.MeasurementNoise != nil && *c.MeasurementNoise < 0 {
		return fmt.Errorf("measurement_noise must be non-negative, got %f", *c.MeasurementNoise)
	}
	return nil
}

// GetMaxTimeDiff returns the batching window in seconds.
func (c *TrackerTuning) GetMaxTimeDiff() float64 {
	if c.MaxTimeDiff == nil {
		return 0.050
	}
	return *c.MaxTimeDiff
}

// GetBatchMode returns the batching policy.
func (c *TrackerTuning) GetBatchMode() string {
	if c.BatchMode == nil || *c.BatchMode == "" {
		return BatchModeGap
	}
	return *c.BatchMode
}

// GetDopplerThreshold returns the doppler_threshold value or the default.
func (c *TrackerTuning) GetDopplerThreshold() float64 {
	if c.DopplerThreshold == nil {
		return 100
	}
	return *c.DopplerThreshold
}

// GetRangeThreshold returns the range_threshold value or the default.
func (c *TrackerTuning) GetRangeThreshold() float64 {
	if c.RangeThreshold == nil {
		return 100
	}
	return *c.RangeThreshold
}

// GetChi2Significance returns the gating significance level or the default.
func (c *TrackerTuning) GetChi2Significance() float64 {
	if c.Chi2Significance == nil {
		return 0.05
	}
	return *c.Chi2Significance
}

// GetConfirmationMode returns the progression length (3, 5 or 7).
// confirmation_mode wins over the legacy firm_threshold key.
func (c *TrackerTuning) GetConfirmationMode() int {
	if c.ConfirmationMode != nil {
		return *c.ConfirmationMode
	}
	if c.FirmThreshold != nil {
		return *c.FirmThreshold
	}
	return 3
}

// GetMaxMisses returns the consecutive-miss limit or the default.
func (c *TrackerTuning) GetMaxMisses() int {
	if c.MaxMisses == nil {
		return 3
	}
	return *c.MaxMisses
}

// GetMaxTracks returns the track id registry capacity or the default.
func (c *TrackerTuning) GetMaxTracks() int {
	if c.MaxTracks == nil {
		return 100
	}
	return *c.MaxTracks
}

// GetInitialCovariance returns the initial_covariance value or the default.
func (c *TrackerTuning) GetInitialCovariance() float64 {
	if c.InitialCovariance == nil {
		return 1e4
	}
	return *c.InitialCovariance
}

// GetProcessNoise returns the process_noise value or the default.
func (c *TrackerTuning) GetProcessNoise() float64 {
	if c.ProcessNoise == nil {
		return 20
	}
	return *c.ProcessNoise
}

// GetMeasurementNoise returns the measurement_noise value or the default.
func (c *TrackerTuning) GetMeasurementNoise() float64 {
	if c.MeasurementNoise == nil {
		return 1
	}
	return *c.MeasurementNoise
}
