package track

import (
	"math"
	"testing"

	"github.com/banshee-data/radar.track/internal/motion"
	"github.com/banshee-data/radar.track/internal/point"
)

func testConfig() Config {
	return Config{
		Model:                          motion.ConstAcc{QVariance: 1},
		PInit:                          0.1,
		GroupDispInit:                  0.1,
		AN:                             0.3,
		ASpr:                           0.3,
		EstPointNum:                    5,
		EnableEst:                      true,
		SpreadLim:                      [6]float64{0.2, 0.2, 2, 1.2, 1.2, 0.2},
		VelThreshold:                   0.3,
		DopplerThreshold:               0.1,
		NumDynamicPointsThreshold:      2,
		MinVelocityStopNoPoints:        0.2,
		MinVelocityStopNoDynamicPoints: 0.2,
		MinVelocitySlowDown:            0.5,
		Gate:                           4.5,
		MaxTracks:                      5,
		LifetimeDynamic:                1.0,
		LifetimeStatic:                 2.0,
		ZThresh:                        2.5,
		DBEps:                          0.5,
		DBMinSamples:                   3,
		DBZWeight:                      0.5,
		DBRangeWeight:                  0.05,
		FBFramesBatch:                  3,
		BatchCapacity:                  10,
	}
}

func dynamicCluster(cfg Config, n int) point.Cluster {
	pts := make([]point.Point, n)
	for i := range pts {
		pts[i] = point.Point{X: 1, Y: 2, Z: 1, VX: 0.5, VY: 0.5, VZ: 0, Doppler: 0.5, Intensity: 1}
	}
	return point.NewCluster(pts, cfg.VelThreshold)
}

func staticCluster(cfg Config, n int) point.Cluster {
	pts := make([]point.Point, n)
	for i := range pts {
		pts[i] = point.Point{X: 1, Y: 2, Z: 1, VX: 0, VY: 0, VZ: 0, Doppler: 0, Intensity: 1}
	}
	return point.NewCluster(pts, cfg.VelThreshold)
}

func TestNewTrackStartsDynamicWhenManyDopplerPoints(t *testing.T) {
	cfg := testConfig()
	c := dynamicCluster(cfg, 5)
	tr := NewTrack(1, c, cfg, [3]float64{})
	if tr.Mode != point.Dynamic {
		t.Fatalf("expected DYNAMIC start mode, got %s", tr.Mode)
	}
	if tr.Status != StatusActive {
		t.Fatalf("expected ACTIVE status at spawn")
	}
}

func TestNewTrackStartsStaticWhenFewDopplerPoints(t *testing.T) {
	cfg := testConfig()
	c := staticCluster(cfg, 5)
	tr := NewTrack(1, c, cfg, [3]float64{})
	if tr.Mode != point.Static {
		t.Fatalf("expected STATIC start mode, got %s", tr.Mode)
	}
}

func TestUpdateNoPointsIncrementsLifetime(t *testing.T) {
	cfg := testConfig()
	tr := NewTrack(1, staticCluster(cfg, 3), cfg, [3]float64{})
	tr.State.Predict(0.1)
	tr.Update(nil, 0.1)
	if tr.Lifetime != 0.1 {
		t.Fatalf("expected lifetime to accumulate to 0.1, got %f", tr.Lifetime)
	}
}

func TestUpdateWithPointsResetsLifetime(t *testing.T) {
	cfg := testConfig()
	tr := NewTrack(1, dynamicCluster(cfg, 3), cfg, [3]float64{})
	tr.State.Predict(0.1)
	tr.Update(nil, 0.1)
	if tr.Lifetime == 0 {
		t.Fatalf("expected nonzero lifetime after a no-points frame")
	}

	tr.State.Predict(tr.Lifetime + 0.1)
	tr.Update(dynamicCluster(cfg, 5).Points, 0.1)
	if tr.Lifetime != 0 {
		t.Fatalf("expected lifetime reset to 0 after association, got %f", tr.Lifetime)
	}
}

func TestHandleNoPointsKeepsDynamicAboveStopThreshold(t *testing.T) {
	cfg := testConfig()
	tr := NewTrack(1, dynamicCluster(cfg, 3), cfg, [3]float64{})
	// prior velocity is whatever NewTrack seeded via the centroid velocity
	// (vx=0.5,vy=0.5 -> ||v||=0.707), above MinVelocityStopNoPoints (0.2),
	// so mode should remain DYNAMIC on a single no-points frame.
	tr.State.Predict(0.1)
	tr.Update(nil, 0.1)
	if tr.Mode != point.Dynamic {
		t.Fatalf("expected mode to remain DYNAMIC while prior velocity exceeds stop threshold, got %s", tr.Mode)
	}
}

func TestApplyFullUpdateSnapsFreshTrackOnLargeResidual(t *testing.T) {
	cfg := testConfig()
	seed := dynamicCluster(cfg, 5)
	tr := NewTrack(1, seed, cfg, [3]float64{})

	tr.State.Predict(0.1)

	shifted := make([]point.Point, 5)
	for i := range shifted {
		shifted[i] = point.Point{X: seed.Centroid[0] + 2.0, Y: 2, Z: 1, VX: 0.5, VY: 0.5, VZ: 0, Doppler: 0.5, Intensity: 1}
	}

	xBefore := tr.State.PriorMean().AtVec(0)
	tr.Update(shifted, 0.1)
	xAfter := tr.State.PosteriorMean().AtVec(0)

	if math.Abs(xAfter-xBefore) < 1e-9 {
		t.Fatalf("expected snap adjustment to move posterior x away from the unadjusted prior")
	}
}

func TestApplyFullUpdateSecondAssociationStaysDynamic(t *testing.T) {
	cfg := testConfig()
	seed := dynamicCluster(cfg, 5)
	tr := NewTrack(1, seed, cfg, [3]float64{})

	tr.State.Predict(0.1)
	tr.Update(dynamicCluster(cfg, 5).Points, 0.1) // first association, lifetime was 0 -> may snap

	// Second association: lifetime is 0 again (reset by the first one), but
	// the snap rule no longer applies since the track has already been
	// associated once. This test exercises that steady-state full-update
	// path and checks that the track stays DYNAMIC.
	tr.State.Predict(0.1)
	shifted := make([]point.Point, 5)
	for i := range shifted {
		shifted[i] = point.Point{X: seed.Centroid[0] + 0.1, Y: 2, Z: 1, VX: 0.5, VY: 0.5, VZ: 0, Doppler: 0.5, Intensity: 1}
	}
	tr.Update(shifted, 0.1)
	if tr.Mode != point.Dynamic {
		t.Fatalf("expected mode to remain DYNAMIC after a second full update")
	}
}

func TestRmReflectsSpreadEstimate(t *testing.T) {
	cfg := testConfig()
	tr := NewTrack(1, dynamicCluster(cfg, 5), cfg, [3]float64{})
	rm := tr.Rm()
	for i := 0; i < 6; i++ {
		want := (tr.SpreadEst[i] / 2) * (tr.SpreadEst[i] / 2)
		if math.Abs(rm.At(i, i)-want) > 1e-9 {
			t.Errorf("Rm[%d][%d] = %f, want %f", i, i, rm.At(i, i), want)
		}
	}
}

func TestGroupDispersionOfSinglePointClusterIsZero(t *testing.T) {
	cfg := testConfig()
	c := point.NewCluster([]point.Point{{X: 1, Y: 2, Z: 1}}, cfg.VelThreshold)
	d := groupDispersion(c)
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			if d.At(i, j) != 0 {
				t.Fatalf("expected zero group dispersion for single-point cluster, got %f at (%d,%d)", d.At(i, j), i, j)
			}
		}
	}
}
