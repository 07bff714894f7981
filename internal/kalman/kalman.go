// Package kalman implements the generic linear-Gaussian filter used by the
// track core. Per spec §9 ("Filter library dependency"), a standard linear
// Kalman primitive is sufficient; this package is written against
// gonum.org/v1/gonum/mat rather than a source-specific hand-rolled filter,
// so the same code serves both the 9-state constant-acceleration and the
// 6-state constant-velocity motion models (internal/motion.Model).
package kalman

import (
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/radar.track/internal/motion"
)

// State is a single track's Kalman filter instance: prior/posterior mean
// and covariance, plus the fixed H and time-parameterized F/Q supplied by
// the selected motion model (spec §3 "Kalman state (K)").
type State struct {
	model motion.Model

	x *mat.VecDense
	P *mat.Dense

	xPrior *mat.VecDense
	PPrior *mat.Dense
}

// New constructs a filter instance seeded from a cluster centroid 6-vector
// (position, velocity). P is initialized to pInit*I (spec §3: "P = pI").
func New(model motion.Model, centroid6 [6]float64, pInit float64) *State {
	x := model.StateVec(centroid6)
	n := model.Dim()
	p := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		p.Set(i, i, pInit)
	}
	xPrior := mat.NewVecDense(n, nil)
	xPrior.CloneFromVec(x)
	pPrior := mat.NewDense(n, n, nil)
	pPrior.CloneFrom(p)
	return &State{model: model, x: x, P: p, xPrior: xPrior, PPrior: pPrior}
}

// Predict computes x_prior = F(dt)*x, P_prior = F*P*F^T + Q(dt) (spec §4.2).
// Callers are responsible for skipping this call entirely while a track is
// in STATIC mode, per spec §4.2 ("prediction is skipped entirely when
// mode = STATIC").
func (s *State) Predict(dt float64) {
	f := s.model.F(dt)
	q := s.model.Q(dt)
	n := s.model.Dim()

	xPrior := mat.NewVecDense(n, nil)
	xPrior.MulVec(f, s.x)

	var fp mat.Dense
	fp.Mul(f, s.P)
	var fpft mat.Dense
	fpft.Mul(&fp, f.T())

	pPrior := mat.NewDense(n, n, nil)
	pPrior.Add(&fpft, q)

	s.xPrior = xPrior
	s.PPrior = pPrior
}

// PriorMean returns x_prior (the a priori state mean), exposed per spec §9
// ("predict_x / a priori access": the Associator reads x_prior before any
// update is applied).
func (s *State) PriorMean() *mat.VecDense {
	return s.xPrior
}

// PriorCov returns P_prior (the a priori state covariance).
func (s *State) PriorCov() *mat.Dense {
	return s.PPrior
}

// PosteriorMean returns x (the current a posteriori state mean).
func (s *State) PosteriorMean() *mat.VecDense {
	return s.x
}

// PosteriorCov returns P (the current a posteriori state covariance).
func (s *State) PosteriorCov() *mat.Dense {
	return s.P
}

// PredictedMeasurement returns H*x_prior, the predicted 6-vector
// measurement (position+velocity) used by the Associator (spec §4.3
// "ĥ_j = H · x_prior").
func (s *State) PredictedMeasurement() *mat.VecDense {
	h := s.model.H()
	out := mat.NewVecDense(s.model.MeasDim(), nil)
	out.MulVec(h, s.xPrior)
	return out
}

// PredictedMeasurementCov returns H*P_prior*H^T, the 6x6 submatrix of the
// prior covariance restricted to the measured (position+velocity)
// dimensions — spec §4.3's "P_prior[:6,:6]" term, computed generically via
// the model's selector H rather than assuming a fixed index range, so it
// holds for both the 6-state and 9-state models.
func (s *State) PredictedMeasurementCov() *mat.Dense {
	h := s.model.H()
	var hp mat.Dense
	hp.Mul(h, s.PPrior)
	out := mat.NewDense(s.model.MeasDim(), s.model.MeasDim(), nil)
	out.Mul(&hp, h.T())
	return out
}

// Update performs the standard Kalman measurement update of (x, P) against
// measurement z with noise covariance Rc (spec §4.2's R_c), starting from
// the current prior (x_prior, P_prior).
func (s *State) Update(z *mat.VecDense, rc *mat.Dense) {
	h := s.model.H()
	measDim := s.model.MeasDim()
	stateDim := s.model.Dim()

	predicted := s.PredictedMeasurement()
	innovation := mat.NewVecDense(measDim, nil)
	innovation.SubVec(z, predicted)

	var hp mat.Dense
	hp.Mul(h, s.PPrior)

	var hpht mat.Dense
	hpht.Mul(&hp, h.T())

	sMat := mat.NewDense(measDim, measDim, nil)
	sMat.Add(&hpht, rc)

	var sInv mat.Dense
	if err := sInv.Inverse(sMat); err != nil {
		// Degenerate/near-singular innovation covariance: leave the state
		// unchanged rather than propagate (spec §7 "degenerate geometry").
		return
	}

	var pht mat.Dense
	pht.Mul(s.PPrior, h.T())

	var gain mat.Dense
	gain.Mul(&pht, &sInv)

	var correction mat.VecDense
	correction.MulVec(&gain, innovation)

	newX := mat.NewVecDense(stateDim, nil)
	newX.AddVec(s.xPrior, &correction)

	identity := mat.NewDense(stateDim, stateDim, nil)
	for i := 0; i < stateDim; i++ {
		identity.Set(i, i, 1)
	}
	var gh mat.Dense
	gh.Mul(&gain, h)
	var imgh mat.Dense
	imgh.Sub(identity, &gh)

	newP := mat.NewDense(stateDim, stateDim, nil)
	newP.Mul(&imgh, s.PPrior)

	s.x = newX
	s.P = newP
}

// SetPriorAsPosterior copies x_prior/P_prior into x/P without running an
// update — used when a track is skipped this frame but its prediction
// still stands as the new posterior (e.g. DYNAMIC-no-update branches of
// the state machine, spec §4.4).
func (s *State) SetPriorAsPosterior() {
	s.x = s.xPrior
	s.P = s.PPrior
}

// AdjustX0 adds delta to the first state component (x position). Used for
// the fresh-track snap rule (spec §4.2 / §9 Open Question resolution).
func (s *State) AdjustX0(delta float64) {
	s.x.SetVec(0, s.x.AtVec(0)+delta)
}

// Dim returns the underlying model's state dimension.
func (s *State) Dim() int { return s.model.Dim() }
