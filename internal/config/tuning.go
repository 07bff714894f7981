package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// MotionModel selects the Kalman motion model family.
type MotionModel string

const (
	MotionModelConstVel MotionModel = "CONST_VEL"
	MotionModelConstAcc MotionModel = "CONST_ACC"
)

// TuningConfig represents the process-wide tracker configuration (spec §6).
// Fields are pointer-optional so a partial JSON file only overrides the keys
// it mentions; the Get* accessors supply the documented default otherwise.
type TuningConfig struct {
	MotionModel *string `json:"motion_model,omitempty"`

	KFRStd   *float64 `json:"kf_r_std,omitempty"`
	KFQStd   *float64 `json:"kf_q_std,omitempty"`
	KFPInit  *float64 `json:"kf_p_init,omitempty"`
	KFAN     *float64 `json:"kf_a_n,omitempty"`
	KFASpr   *float64 `json:"kf_a_spr,omitempty"`
	KFEstPts *int     `json:"kf_est_pointnum,omitempty"`
	KFEnable *bool    `json:"kf_enable_est,omitempty"`

	// KFSpreadLim holds the per-axis spread clamp [x,y,z,vx,vy,vz].
	KFSpreadLim []float64 `json:"kf_spread_lim,omitempty"`

	DopplerThreshold          *float64 `json:"doppler_threshold,omitempty"`
	NumDynamicPointsThreshold *int     `json:"num_dynamic_points_threshold,omitempty"`
	TrackVelocityThreshold    *float64 `json:"tr_vel_thres,omitempty"`

	MinVelocityStopNoPoints        *float64 `json:"min_velocity_stop_no_points,omitempty"`
	MinVelocityStopNoDynamicPoints *float64 `json:"min_velocity_stop_no_dynamic_points,omitempty"`
	MinVelocitySlowDown            *float64 `json:"min_velocity_slow_down,omitempty"`

	TrGate      *float64 `json:"tr_gate,omitempty"`
	TrMaxTracks *int     `json:"tr_max_tracks,omitempty"`
	TrLifeDyn   *float64 `json:"tr_lifetime_dynamic,omitempty"`
	TrLifeStat  *float64 `json:"tr_lifetime_static,omitempty"`
	TrZThresh   *float64 `json:"tr_z_thresh,omitempty"`

	DBEps         *float64 `json:"db_eps,omitempty"`
	DBMinSamples  *int     `json:"db_min_samples_min,omitempty"`
	DBZWeight     *float64 `json:"db_z_weight,omitempty"`
	DBRangeWeight *float64 `json:"db_range_weight,omitempty"`

	FBFramesBatch *int `json:"fb_frames_batch,omitempty"`

	SensorHeight *float64 `json:"s_height,omitempty"`
	SensorTilt   *float64 `json:"s_tilt,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields nil.
// Use LoadTuningConfig to load actual values from a defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file is
// validated to have a .json extension and to be under the max file size.
// Fields omitted from the JSON retain their default values, so partial
// configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath, searching the current directory and common parent
// directories. Panics if the file cannot be loaded; intended for tests and
// binaries that have already validated the config's presence.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are internally consistent.
// A configuration-mismatch here is fatal at startup per spec §7.
func (c *TuningConfig) Validate() error {
	if c.MotionModel != nil {
		switch MotionModel(*c.MotionModel) {
		case MotionModelConstVel, MotionModelConstAcc:
		default:
			return fmt.Errorf("motion_model must be CONST_VEL or CONST_ACC, got %q", *c.MotionModel)
		}
	}
	if c.KFSpreadLim != nil && len(c.KFSpreadLim) != 6 {
		return fmt.Errorf("kf_spread_lim must have 6 entries, got %d", len(c.KFSpreadLim))
	}
	if c.TrMaxTracks != nil && *c.TrMaxTracks < 0 {
		return fmt.Errorf("tr_max_tracks must be non-negative, got %d", *c.TrMaxTracks)
	}
	return nil
}

func (c *TuningConfig) GetMotionModel() MotionModel {
	if c.MotionModel == nil {
		return MotionModelConstAcc
	}
	return MotionModel(*c.MotionModel)
}

func (c *TuningConfig) GetKFRStd() float64 {
	if c.KFRStd == nil {
		return 0.1
	}
	return *c.KFRStd
}

func (c *TuningConfig) GetKFQStd() float64 {
	if c.KFQStd == nil {
		return 1.0
	}
	return *c.KFQStd
}

func (c *TuningConfig) GetKFPInit() float64 {
	if c.KFPInit == nil {
		return 0.1
	}
	return *c.KFPInit
}

func (c *TuningConfig) GetKFAN() float64 {
	if c.KFAN == nil {
		return 0.9
	}
	return *c.KFAN
}

func (c *TuningConfig) GetKFASpr() float64 {
	if c.KFASpr == nil {
		return 0.9
	}
	return *c.KFASpr
}

func (c *TuningConfig) GetKFEstPointNum() int {
	if c.KFEstPts == nil {
		return 30
	}
	return *c.KFEstPts
}

func (c *TuningConfig) GetKFEnableEst() bool {
	if c.KFEnable == nil {
		return false
	}
	return *c.KFEnable
}

func (c *TuningConfig) GetKFSpreadLim() [6]float64 {
	if len(c.KFSpreadLim) != 6 {
		return [6]float64{0.2, 0.2, 2, 1.2, 1.2, 0.2}
	}
	var out [6]float64
	copy(out[:], c.KFSpreadLim)
	return out
}

func (c *TuningConfig) GetDopplerThreshold() float64 {
	if c.DopplerThreshold == nil {
		return 0
	}
	return *c.DopplerThreshold
}

func (c *TuningConfig) GetNumDynamicPointsThreshold() int {
	if c.NumDynamicPointsThreshold == nil {
		return 3
	}
	return *c.NumDynamicPointsThreshold
}

func (c *TuningConfig) GetTrackVelocityThreshold() float64 {
	if c.TrackVelocityThreshold == nil {
		return 0.3
	}
	return *c.TrackVelocityThreshold
}

func (c *TuningConfig) GetMinVelocityStopNoPoints() float64 {
	if c.MinVelocityStopNoPoints == nil {
		return 0.04
	}
	return *c.MinVelocityStopNoPoints
}

func (c *TuningConfig) GetMinVelocityStopNoDynamicPoints() float64 {
	if c.MinVelocityStopNoDynamicPoints == nil {
		return 0.04
	}
	return *c.MinVelocityStopNoDynamicPoints
}

func (c *TuningConfig) GetMinVelocitySlowDown() float64 {
	if c.MinVelocitySlowDown == nil {
		return 1.0
	}
	return *c.MinVelocitySlowDown
}

func (c *TuningConfig) GetTrGate() float64 {
	if c.TrGate == nil {
		return 4.5
	}
	return *c.TrGate
}

func (c *TuningConfig) GetTrMaxTracks() int {
	if c.TrMaxTracks == nil {
		return 2
	}
	return *c.TrMaxTracks
}

func (c *TuningConfig) GetTrLifetimeDynamic() float64 {
	if c.TrLifeDyn == nil {
		return 1.0
	}
	return *c.TrLifeDyn
}

func (c *TuningConfig) GetTrLifetimeStatic() float64 {
	if c.TrLifeStat == nil {
		return 3.0
	}
	return *c.TrLifeStat
}

func (c *TuningConfig) GetTrZThresh() float64 {
	if c.TrZThresh == nil {
		return 2.5
	}
	return *c.TrZThresh
}

func (c *TuningConfig) GetDBEps() float64 {
	if c.DBEps == nil {
		return 0.3
	}
	return *c.DBEps
}

func (c *TuningConfig) GetDBMinSamples() int {
	if c.DBMinSamples == nil {
		return 40
	}
	return *c.DBMinSamples
}

func (c *TuningConfig) GetDBZWeight() float64 {
	if c.DBZWeight == nil {
		return 0.4
	}
	return *c.DBZWeight
}

func (c *TuningConfig) GetDBRangeWeight() float64 {
	if c.DBRangeWeight == nil {
		return 0.03
	}
	return *c.DBRangeWeight
}

func (c *TuningConfig) GetFBFramesBatch() int {
	if c.FBFramesBatch == nil {
		return 1
	}
	return *c.FBFramesBatch
}

func (c *TuningConfig) GetSensorHeight() float64 {
	if c.SensorHeight == nil {
		return 1.0
	}
	return *c.SensorHeight
}

func (c *TuningConfig) GetSensorTilt() float64 {
	if c.SensorTilt == nil {
		return 0
	}
	return *c.SensorTilt
}
