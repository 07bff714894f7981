package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadDefaultsFile verifies that the canonical defaults file loads
// correctly and that the motion model, gate, track cap, and spread limits
// hold valid values.
func TestLoadDefaultsFile(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	if cfg.MotionModel == nil {
		t.Fatal("MotionModel must be set")
	}
	if cfg.GetMotionModel() != MotionModelConstAcc {
		t.Errorf("expected CONST_ACC default, got %v", cfg.GetMotionModel())
	}
	if cfg.GetTrGate() <= 0 {
		t.Errorf("GetTrGate() must be positive, got %f", cfg.GetTrGate())
	}
	if cfg.GetTrMaxTracks() <= 0 {
		t.Errorf("GetTrMaxTracks() must be positive, got %d", cfg.GetTrMaxTracks())
	}
	lim := cfg.GetKFSpreadLim()
	if len(lim) != 6 {
		t.Fatalf("GetKFSpreadLim() must return 6 entries, got %d", len(lim))
	}
}

func TestEmptyConfigFallsBackToDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()

	if got := cfg.GetMotionModel(); got != MotionModelConstAcc {
		t.Errorf("expected default motion model CONST_ACC, got %v", got)
	}
	if got := cfg.GetTrGate(); got != 4.5 {
		t.Errorf("expected default gate 4.5, got %f", got)
	}
	if got := cfg.GetTrMaxTracks(); got != 2 {
		t.Errorf("expected default max tracks 2, got %d", got)
	}
	lim := cfg.GetKFSpreadLim()
	want := [6]float64{0.2, 0.2, 2, 1.2, 1.2, 0.2}
	if lim != want {
		t.Errorf("expected default spread limits %v, got %v", want, lim)
	}
}

func TestLoadTuningConfigRejectsNonJSONExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.txt")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTuningConfig(path); err == nil {
		t.Fatal("expected error for non-.json extension")
	}
}

func TestLoadTuningConfigRejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	big := make([]byte, 2*1024*1024)
	for i := range big {
		big[i] = ' '
	}
	if err := os.WriteFile(path, big, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTuningConfig(path); err == nil {
		t.Fatal("expected error for oversized config file")
	}
}

func TestLoadTuningConfigPartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	content := `{"tr_gate": 6.0, "motion_model": "CONST_VEL"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetTrGate() != 6.0 {
		t.Errorf("expected overridden gate 6.0, got %f", cfg.GetTrGate())
	}
	if cfg.GetMotionModel() != MotionModelConstVel {
		t.Errorf("expected overridden motion model CONST_VEL, got %v", cfg.GetMotionModel())
	}
	// Fields not mentioned in the partial config still fall back to defaults.
	if cfg.GetTrMaxTracks() != 2 {
		t.Errorf("expected default max tracks 2, got %d", cfg.GetTrMaxTracks())
	}
}

func TestValidateRejectsUnknownMotionModel(t *testing.T) {
	cfg := EmptyTuningConfig()
	bogus := "NOT_A_MODEL"
	cfg.MotionModel = &bogus
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown motion model")
	}
}

func TestValidateRejectsWrongSpreadLimLength(t *testing.T) {
	cfg := EmptyTuningConfig()
	cfg.KFSpreadLim = []float64{1, 2, 3}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for wrong-length spread limit")
	}
}
