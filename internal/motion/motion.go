// Package motion defines the two interchangeable Kalman motion models used
// by the track core (spec §4.2, §9 "Runtime polymorphism over motion
// models"). The model is selected once at configuration time; per-frame code
// dispatches through the Model interface, never switches on model kind.
package motion

import "gonum.org/v1/gonum/mat"

// Model is a constant-order linear motion model: state dimension, the fixed
// measurement selector H, and the time-parameterized state transition F(dt)
// and process noise Q(dt).
type Model interface {
	// Dim returns the state dimension (6 or 9).
	Dim() int
	// MeasDim returns the measurement dimension (always 6: position+velocity).
	MeasDim() int
	// StateVec builds the initial state vector from a 6-vector centroid
	// (position, velocity), zero-padding any trailing acceleration terms.
	StateVec(centroid6 [6]float64) *mat.VecDense
	// F returns the Dim()xDim() state transition matrix for elapsed time dt.
	F(dt float64) *mat.Dense
	// Q returns the Dim()xDim() process noise covariance for elapsed time dt.
	Q(dt float64) *mat.Dense
	// H returns the fixed MeasDim()xDim() measurement selector matrix.
	H() *mat.Dense
}

// discreteWhiteNoiseBlock3 returns the 3x3 process-noise covariance for a
// single [pos,vel,accel] chain driven by continuous white noise and
// integrated over dt (the same entries as filterpy's
// Q_continuous_white_noise(dim=3, dt, var)). Every entry vanishes at dt=0.
func discreteWhiteNoiseBlock3(dt, variance float64) *mat.Dense {
	dt2 := dt * dt
	dt3 := dt2 * dt
	dt4 := dt3 * dt
	dt5 := dt4 * dt
	q := mat.NewDense(3, 3, []float64{
		dt5 / 20, dt4 / 8, dt3 / 6,
		dt4 / 8, dt3 / 3, dt2 / 2,
		dt3 / 6, dt2 / 2, dt,
	})
	q.Scale(variance, q)
	return q
}
