// Package normalize implements the Normalizer stage: it converts raw
// sensor-frame detections into world-frame points with a decomposed
// Cartesian velocity, and applies the scene-bound gates (spec §4.1).
package normalize

import (
	"math"

	"github.com/banshee-data/radar.track/internal/point"
)

// Frame is the raw per-frame detection record (spec §4.1): equal-length
// parallel arrays of sensor-frame coordinates, Doppler, and intensity.
type Frame struct {
	X, Y, Z   []float64
	Doppler   []float64
	Intensity []float64
}

// Config holds the sensor extrinsics and scene gates needed to normalize a
// frame.
type Config struct {
	// TiltRadians is the sensor tilt about the x-axis (S_TILT in radians).
	TiltRadians float64
	// Height is the sensor mount height (S_HEIGHT), translated along z.
	Height float64
	// ZMax is the scene ceiling gate (TR_Z_THRESH).
	ZMax float64
}

// Normalize converts a raw frame into world-frame points, applying the
// rigid transform and the scene gates. Rejected or malformed detections are
// silently dropped (spec §4.1, §7 "bad detection record").
func Normalize(frame Frame, cfg Config) []point.Point {
	n := len(frame.X)
	out := make([]point.Point, 0, n)

	sinT, cosT := math.Sincos(cfg.TiltRadians)

	for i := 0; i < n; i++ {
		x, y, z := frame.X[i], valueAt(frame.Y, i), valueAt(frame.Z, i)
		doppler := valueAt(frame.Doppler, i)
		intensity := valueAt(frame.Intensity, i)

		if !isFinite(x) || !isFinite(y) || !isFinite(z) || !isFinite(doppler) || !isFinite(intensity) {
			continue // bad detection record (spec §7)
		}

		r := math.Sqrt(x*x + y*y + z*z)
		var vx, vy, vz float64
		if r == 0 {
			vx, vy, vz = 0, doppler, 0
		} else {
			vx, vy, vz = doppler*x/r, doppler*y/r, doppler*z/r
		}

		// Single rigid transform: rotate about the x-axis by the sensor
		// tilt, then translate along z by the sensor height. Velocity
		// receives the same rotation without translation (spec §4.1).
		wx, wy, wz := rotateX(x, y, z, sinT, cosT)
		wz += cfg.Height
		wvx, wvy, wvz := rotateX(vx, vy, vz, sinT, cosT)

		if !(wz > 0 && wz <= cfg.ZMax && wy > 0) {
			continue // scene gate (spec §4.1)
		}

		out = append(out, point.Point{
			X: wx, Y: wy, Z: wz,
			VX: wvx, VY: wvy, VZ: wvz,
			Doppler:   doppler,
			Intensity: intensity,
		})
	}
	return out
}

// rotateX rotates a 3-vector about the x-axis by angle theta (given as its
// sine/cosine), matching
// original_source/src/Utils.py transform_point_sensor_to_world_axis's
// rotation matrix.
func rotateX(x, y, z, sinT, cosT float64) (float64, float64, float64) {
	return x, y*cosT - z*sinT, y*sinT + z*cosT
}

func valueAt(xs []float64, i int) float64 {
	if i < len(xs) {
		return xs[i]
	}
	return math.NaN()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
