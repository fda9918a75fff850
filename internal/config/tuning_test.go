package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }

func TestEmptyTrackerTuningDefaults(t *testing.T) {
	cfg := EmptyTrackerTuning()

	if got := cfg.GetMaxTimeDiff(); got != 0.050 {
		t.Errorf("GetMaxTimeDiff() = %f, want 0.050", got)
	}
	if got := cfg.GetBatchMode(); got != BatchModeGap {
		t.Errorf("GetBatchMode() = %q, want %q", got, BatchModeGap)
	}
	if got := cfg.GetDopplerThreshold(); got != 100 {
		t.Errorf("GetDopplerThreshold() = %f, want 100", got)
	}
	if got := cfg.GetRangeThreshold(); got != 100 {
		t.Errorf("GetRangeThreshold() = %f, want 100", got)
	}
	if got := cfg.GetChi2Significance(); got != 0.05 {
		t.Errorf("GetChi2Significance() = %f, want 0.05", got)
	}
	if got := cfg.GetConfirmationMode(); got != 3 {
		t.Errorf("GetConfirmationMode() = %d, want 3", got)
	}
	if got := cfg.GetMaxMisses(); got != 3 {
		t.Errorf("GetMaxMisses() = %d, want 3", got)
	}
	if got := cfg.GetMaxTracks(); got != 100 {
		t.Errorf("GetMaxTracks() = %d, want 100", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("empty config should validate, got %v", err)
	}
}

func TestLoadTrackerTuning(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "tracker.json")

	testJSON := `{
  "max_time_diff": 0.1,
  "batch_mode": "window",
  "doppler_threshold": 50,
  "confirmation_mode": 5,
  "max_misses": 4,
  "max_tracks": 8
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTrackerTuning(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetMaxTimeDiff() != 0.1 {
		t.Errorf("GetMaxTimeDiff() = %f, want 0.1", cfg.GetMaxTimeDiff())
	}
	if cfg.GetBatchMode() != BatchModeWindow {
		t.Errorf("GetBatchMode() = %q, want window", cfg.GetBatchMode())
	}
	if cfg.GetDopplerThreshold() != 50 {
		t.Errorf("GetDopplerThreshold() = %f, want 50", cfg.GetDopplerThreshold())
	}
	if cfg.GetConfirmationMode() != 5 {
		t.Errorf("GetConfirmationMode() = %d, want 5", cfg.GetConfirmationMode())
	}
	if cfg.GetMaxMisses() != 4 {
		t.Errorf("GetMaxMisses() = %d, want 4", cfg.GetMaxMisses())
	}
	if cfg.GetMaxTracks() != 8 {
		t.Errorf("GetMaxTracks() = %d, want 8", cfg.GetMaxTracks())
	}
	// Unset fields keep their defaults.
	if cfg.GetRangeThreshold() != 100 {
		t.Errorf("GetRangeThreshold() = %f, want default 100", cfg.GetRangeThreshold())
	}
}

func TestLoadTrackerTuningErrors(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadTrackerTuning(filepath.Join(tmpDir, "nope.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("wrong extension", func(t *testing.T) {
		path := filepath.Join(tmpDir, "tracker.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := LoadTrackerTuning(path)
		if err == nil || !strings.Contains(err.Error(), ".json") {
			t.Errorf("expected extension error, got %v", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(tmpDir, "bad.json")
		if err := os.WriteFile(path, []byte(`{"max_misses": "x"`), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadTrackerTuning(path); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		path := filepath.Join(tmpDir, "mode.json")
		if err := os.WriteFile(path, []byte(`{"confirmation_mode": 4}`), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := LoadTrackerTuning(path)
		if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TrackerTuning
		wantErr bool
	}{
		{name: "empty", cfg: TrackerTuning{}},
		{name: "mode 7", cfg: TrackerTuning{ConfirmationMode: ptrInt(7)}},
		{name: "firm threshold alias", cfg: TrackerTuning{FirmThreshold: ptrInt(5)}},
		{name: "alias disagrees", cfg: TrackerTuning{ConfirmationMode: ptrInt(3), FirmThreshold: ptrInt(5)}, wantErr: true},
		{name: "bad mode", cfg: TrackerTuning{ConfirmationMode: ptrInt(6)}, wantErr: true},
		{name: "negative window", cfg: TrackerTuning{MaxTimeDiff: ptrFloat64(-1)}, wantErr: true},
		{name: "bad batch mode", cfg: TrackerTuning{BatchMode: ptrString("sliding")}, wantErr: true},
		{name: "zero doppler", cfg: TrackerTuning{DopplerThreshold: ptrFloat64(0)}, wantErr: true},
		{name: "zero range", cfg: TrackerTuning{RangeThreshold: ptrFloat64(0)}, wantErr: true},
		{name: "significance one", cfg: TrackerTuning{Chi2Significance: ptrFloat64(1)}, wantErr: true},
		{name: "significance zero", cfg: TrackerTuning{Chi2Significance: ptrFloat64(0)}, wantErr: true},
		{name: "negative misses", cfg: TrackerTuning{MaxMisses: ptrInt(-1)}, wantErr: true},
		{name: "zero tracks", cfg: TrackerTuning{MaxTracks: ptrInt(0)}, wantErr: true},
		{name: "zero initial covariance", cfg: TrackerTuning{InitialCovariance: ptrFloat64(0)}, wantErr: true},
		{name: "zero noise allowed", cfg: TrackerTuning{ProcessNoise: ptrFloat64(0), MeasurementNoise: ptrFloat64(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestShippedDefaultsMatchBuiltins(t *testing.T) {
	path := filepath.Join("..", "..", DefaultConfigPath)
	cfg, err := LoadTrackerTuning(path)
	if err != nil {
		t.Fatalf("LoadTrackerTuning(%q) error: %v", path, err)
	}
	builtin := EmptyTrackerTuning()

	if cfg.GetMaxTimeDiff() != builtin.GetMaxTimeDiff() ||
		cfg.GetBatchMode() != builtin.GetBatchMode() ||
		cfg.GetDopplerThreshold() != builtin.GetDopplerThreshold() ||
		cfg.GetRangeThreshold() != builtin.GetRangeThreshold() ||
		cfg.GetChi2Significance() != builtin.GetChi2Significance() ||
		cfg.GetConfirmationMode() != builtin.GetConfirmationMode() ||
		cfg.GetMaxMisses() != builtin.GetMaxMisses() ||
		cfg.GetMaxTracks() != builtin.GetMaxTracks() ||
		cfg.GetInitialCovariance() != builtin.GetInitialCovariance() ||
		cfg.GetProcessNoise() != builtin.GetProcessNoise() ||
		cfg.GetMeasurementNoise() != builtin.GetMeasurementNoise() {
		t.Errorf("%s drifted from the built-in defaults", DefaultConfigPath)
	}
}
