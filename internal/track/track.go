// Package track implements the Kalman track core, the Associator, the
// track-lifecycle state machine, the DBSCAN-based Spawner, and the Retirer
// (spec §3, §4.2-§4.6).
package track

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/radar.track/internal/kalman"
	"github.com/banshee-data/radar.track/internal/point"
	"github.com/banshee-data/radar.track/internal/trackmon"
)

// Status is the track's lifecycle flag (spec §3).
type Status int

const (
	StatusActive Status = iota
	StatusInactive
)

// Track is the core tracking entity (spec §3 "Track (T)"). It never holds a
// reference back to its owning Buffer (spec §9 "Cyclic/back references");
// the Buffer addresses tracks by stable integer id.
type Track struct {
	ID      int64
	Cluster point.Cluster
	State   *kalman.State
	Mode    point.Motion
	Status  Status

	Lifetime float64

	NEst         float64
	SpreadEst    [6]float64
	GroupDispEst *mat.Dense

	LastAssocN        int
	LastAssocDynamicN int

	// Batch is a fixed-capacity ring buffer of recent per-frame point sets,
	// used for visualization and downstream keypoint models; the tracker
	// algorithm itself never reads it back (spec §3).
	Batch []point.Cluster

	// Color is assigned once at spawn time for visualization (spec §6);
	// any stable 3-component value suffices.
	Color [3]float64

	cfg Config

	// associated is set once the track has received its first association.
	associated bool
}

// NewTrack constructs a track from a spawning cluster (spec §4.5, §4.6
// lifecycle). At construction the track starts DYNAMIC if its spawning
// cluster had more than NumDynamicPointsThreshold dynamic points, else
// STATIC (spec §4.4).
func NewTrack(id int64, cluster point.Cluster, cfg Config, color [3]float64) *Track {
	t := &Track{
		ID:           id,
		Cluster:      cluster,
		State:        kalman.New(cfg.Model, cluster.Centroid, cfg.PInit),
		Status:       StatusActive,
		GroupDispEst: mat.NewDense(6, 6, nil),
		Batch:        make([]point.Cluster, 0, cfg.BatchCapacity),
		Color:        color,
		cfg:          cfg,
	}
	for i := 0; i < 6; i++ {
		t.GroupDispEst.Set(i, i, cfg.GroupDispInit)
	}

	if cluster.NumDynamicPoints(cfg.DopplerThreshold) > cfg.NumDynamicPointsThreshold {
		t.Mode = point.Dynamic
	} else {
		t.Mode = point.Static
	}

	t.refreshEstimators(cluster)
	t.pushBatch(cluster)
	return t
}

func (t *Track) pushBatch(c point.Cluster) {
	if cap(t.Batch) == 0 {
		return
	}
	if len(t.Batch) == cap(t.Batch) {
		copy(t.Batch, t.Batch[1:])
		t.Batch = t.Batch[:len(t.Batch)-1]
	}
	t.Batch = append(t.Batch, c)
}

// Rm returns R_m = diag((spread_est/2)^2) (spec §4.2).
func (t *Track) Rm() *mat.Dense {
	rm := mat.NewDense(6, 6, nil)
	for i := 0; i < 6; i++ {
		half := t.SpreadEst[i] / 2
		rm.Set(i, i, half*half)
	}
	return rm
}

// GatingCov returns C_j = P_prior[:6,:6] + R_m + group_disp_est, the
// combined covariance used by the Associator (spec §4.3).
func (t *Track) GatingCov() *mat.Dense {
	c := mat.NewDense(6, 6, nil)
	c.Add(t.State.PredictedMeasurementCov(), t.Rm())
	c.Add(c, t.GroupDispEst)
	return c
}

// refreshEstimators recomputes N_est, spread_est, and group_disp_est after
// a successful association (spec §4.2 "Estimators").
func (t *Track) refreshEstimators(c point.Cluster) {
	count := float64(c.Count())

	if t.cfg.EnableEst {
		if count > t.NEst {
			t.NEst = count
		} else {
			t.NEst = (1-t.cfg.AN)*t.NEst + t.cfg.AN*count
		}
	} else {
		t.NEst = math.Max(float64(t.cfg.EstPointNum), count)
	}

	if count > 1 {
		for m := 0; m < 6; m++ {
			raw := (c.Max[m] - c.Min[m]) * (count + 1) / (count - 1)
			l := t.cfg.SpreadLim[m]
			clamped := math.Max(l, math.Min(2*l, raw))
			if t.cfg.EnableEst {
				if clamped > t.SpreadEst[m] {
					t.SpreadEst[m] = clamped
				} else {
					t.SpreadEst[m] = (1-t.cfg.ASpr)*t.SpreadEst[m] + t.cfg.ASpr*clamped
				}
			} else {
				t.SpreadEst[m] = clamped
			}
		}
	}
	// Single-point clusters skip the spread estimator update entirely;
	// R_m retains its previous value (spec §8 boundary case).

	d := groupDispersion(c)
	a := count / t.NEst
	var scaledD mat.Dense
	scaledD.Scale(a, d)
	var scaledOld mat.Dense
	scaledOld.Scale(1-a, t.GroupDispEst)
	var next mat.Dense
	next.Add(&scaledOld, &scaledD)
	t.GroupDispEst = mat.DenseCopyOf(&next)
}

// groupDispersion computes D[i,j] = mean_k((p_k[i]-c[i])*(p_k[j]-c[j]))
// (spec §4.2). For a single-point cluster this is the zero matrix.
func groupDispersion(c point.Cluster) *mat.Dense {
	d := mat.NewDense(6, 6, nil)
	n := c.Count()
	if n == 0 {
		return d
	}
	for _, p := range c.Points {
		v := p.Vec6()
		for i := 0; i < 6; i++ {
			for j := 0; j < 6; j++ {
				d.Set(i, j, d.At(i, j)+(v[i]-c.Centroid[i])*(v[j]-c.Centroid[j]))
			}
		}
	}
	d.Scale(1/float64(n), d)
	return d
}

// Rc computes the combined measurement covariance used by the Kalman
// update (spec §4.2):
// R_c = R_m/N + ((N_est-N)/((N_est-1)*N)) * group_disp_est.
func (t *Track) Rc(n int) *mat.Dense {
	nf := float64(n)
	rc := mat.NewDense(6, 6, nil)
	rc.Scale(1/nf, t.Rm())

	if t.NEst > 1 {
		coeff := (t.NEst - nf) / ((t.NEst - 1) * nf)
		var term mat.Dense
		term.Scale(coeff, t.GroupDispEst)
		rc.Add(rc, &term)
	}
	return rc
}

// Update runs the per-track state machine after association (spec §4.4),
// given the points assigned to this track this frame and the frame's dt.
func (t *Track) Update(assigned []point.Point, dt float64) {
	n := len(assigned)
	t.LastAssocN = n

	if n == 0 {
		t.handleNoPoints()
		t.Lifetime += dt
		return
	}

	cluster := point.NewCluster(assigned, t.cfg.VelThreshold)
	nDyn := cluster.NumDynamicPoints(t.cfg.DopplerThreshold)
	t.LastAssocDynamicN = nDyn
	t.Cluster = cluster
	t.pushBatch(cluster)

	// Capture "is this the track's first association since spawn" before
	// the lifetime reset below — the snap rule (spec §4.2) fires only on
	// that first association, and only while the pre-reset lifetime is
	// still 0 (no coasting frame since spawn). Lifetime alone cannot tell,
	// since it becomes 0 again after every successful association (spec
	// §4.4's closing rule).
	wasFresh := t.Lifetime == 0 && !t.associated
	t.associated = true
	t.Lifetime = 0 // any routed points reset lifetime (spec §4.4)

	v := velocityXY(t.State.PriorMean())

	if nDyn > t.cfg.NumDynamicPointsThreshold {
		t.applyFullUpdate(cluster, n, wasFresh)
		return
	}

	switch t.Mode {
	case point.Static:
		// STATIC, n>0, n_dyn<=THR: no-op, treated as noise around a
		// static object.
		t.State.SetPriorAsPosterior()
	case point.Dynamic:
		switch {
		case v < t.cfg.MinVelocityStopNoDynamicPoints:
			t.Mode = point.Static
			t.State.SetPriorAsPosterior()
		case v < t.cfg.MinVelocitySlowDown:
			// Hold velocity: accept the prediction without a measurement
			// update (spec §4.4 "hold velocity" branch — operationally
			// identical to "keep DYNAMIC without measurement update";
			// see DESIGN.md).
			t.State.SetPriorAsPosterior()
		default:
			t.State.SetPriorAsPosterior()
		}
	}
}

func (t *Track) handleNoPoints() {
	switch t.Mode {
	case point.Dynamic:
		v := velocityXY(t.State.PriorMean())
		if v < t.cfg.MinVelocityStopNoPoints {
			t.Mode = point.Static
		}
		t.State.SetPriorAsPosterior()
	case point.Static:
		// no-op: no update, no lifetime reset (handled by caller).
	}
}

// applyFullUpdate performs the Kalman update and estimator refresh for the
// "many dynamic points" row of the state machine (spec §4.4), including the
// fresh-track snap rule.
func (t *Track) applyFullUpdate(cluster point.Cluster, n int, wasFresh bool) {
	t.Mode = point.Dynamic

	z := mat.NewVecDense(6, cluster.Centroid[:])
	rc := t.Rc(n)
	t.State.Update(z, rc)

	t.refreshEstimators(cluster)

	// Fresh-track snap rule (spec §4.2, §9 Open Question resolution): on
	// first-frame association, if the x-axis residual exceeds 0.6, nudge
	// by 0.4x the residual.
	if wasFresh {
		residual := cluster.Centroid[0] - t.State.PriorMean().AtVec(0)
		if math.Abs(residual) > 0.6 {
			t.State.AdjustX0(0.4 * residual)
		}
	}
	trackmon.Tracef("track %d: full update, n=%d, mode=%s", t.ID, n, t.Mode)
}

// velocityXY returns ||x[vx,vy]||_2 from a state vector (spec §4.4's v).
func velocityXY(x *mat.VecDense) float64 {
	vx, vy := x.AtVec(3), x.AtVec(4)
	return math.Sqrt(vx*vx + vy*vy)
}
