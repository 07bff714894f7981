package track

import (
	"fmt"

	"github.com/banshee-data/radar.track/internal/config"
	"github.com/banshee-data/radar.track/internal/motion"
)

// Config is the explicit, process-wide configuration record threaded from
// the driver into the Buffer at construction (spec §9 "Global mutable
// configuration ... should become an explicit configuration record").
type Config struct {
	Model motion.Model

	PInit           float64
	GroupDispInit   float64
	AN, ASpr        float64
	EstPointNum     int
	EnableEst       bool
	SpreadLim       [6]float64
	VelThreshold    float64 // cluster STATIC/DYNAMIC boundary, TR_VEL_THRES

	DopplerThreshold          float64
	NumDynamicPointsThreshold int

	MinVelocityStopNoPoints        float64
	MinVelocityStopNoDynamicPoints float64
	MinVelocitySlowDown            float64

	Gate      float64
	MaxTracks int

	LifetimeDynamic float64
	LifetimeStatic  float64

	ZThresh float64

	DBEps         float64
	DBMinSamples  int
	DBZWeight     float64
	DBRangeWeight float64

	FBFramesBatch int

	// BatchCapacity bounds the per-track ring buffer of recent per-frame
	// point sets (spec §3 "batch"), used by downstream visualization/
	// keypoint consumers, not by the tracker algorithm itself.
	BatchCapacity int
}

// NewConfigFromTuning builds a Config from a loaded TuningConfig, resolving
// the motion model selection into a concrete internal/motion.Model
// instance. A mismatched motion model name is a configuration mismatch,
// fatal at startup (spec §7).
func NewConfigFromTuning(tc *config.TuningConfig) (Config, error) {
	var model motion.Model
	switch tc.GetMotionModel() {
	case config.MotionModelConstAcc:
		model = motion.ConstAcc{QVariance: tc.GetKFQStd()}
	case config.MotionModelConstVel:
		model = motion.ConstVel{QVariance: tc.GetKFQStd()}
	default:
		return Config{}, fmt.Errorf("unrecognized motion model %q", tc.GetMotionModel())
	}

	return Config{
		Model:         model,
		PInit:         tc.GetKFPInit(),
		GroupDispInit: 0.1, // KF_GROUP_DISP_EST_INIT (original_source/src/constants.py)
		AN:            tc.GetKFAN(),
		ASpr:          tc.GetKFASpr(),
		EstPointNum:   tc.GetKFEstPointNum(),
		EnableEst:     tc.GetKFEnableEst(),
		SpreadLim:     tc.GetKFSpreadLim(),
		VelThreshold:  tc.GetTrackVelocityThreshold(),

		DopplerThreshold:          tc.GetDopplerThreshold(),
		NumDynamicPointsThreshold: tc.GetNumDynamicPointsThreshold(),

		MinVelocityStopNoPoints:        tc.GetMinVelocityStopNoPoints(),
		MinVelocityStopNoDynamicPoints: tc.GetMinVelocityStopNoDynamicPoints(),
		MinVelocitySlowDown:            tc.GetMinVelocitySlowDown(),

		Gate:      tc.GetTrGate(),
		MaxTracks: tc.GetTrMaxTracks(),

		LifetimeDynamic: tc.GetTrLifetimeDynamic(),
		LifetimeStatic:  tc.GetTrLifetimeStatic(),

		ZThresh: tc.GetTrZThresh(),

		DBEps:         tc.GetDBEps(),
		DBMinSamples:  tc.GetDBMinSamples(),
		DBZWeight:     tc.GetDBZWeight(),
		DBRangeWeight: tc.GetDBRangeWeight(),

		FBFramesBatch: tc.GetFBFramesBatch(),
		BatchCapacity: 30,
	}, nil
}
