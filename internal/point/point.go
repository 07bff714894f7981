// Package point defines the detection point and point-cluster types that
// flow through the tracking pipeline.
package point

import "math"

// Point is an immutable detection in world frame: position, Cartesian
// velocity decomposed from the radial Doppler return, the raw Doppler
// value, and signal intensity.
type Point struct {
	X, Y, Z    float64
	VX, VY, VZ float64
	Doppler    float64
	Intensity  float64
}

// Vec6 returns the position+velocity 6-vector used for gating and Kalman
// measurement (spec §3, §4.3).
func (p Point) Vec6() [6]float64 {
	return [6]float64{p.X, p.Y, p.Z, p.VX, p.VY, p.VZ}
}

// Motion is a track or cluster's behavioral label.
type Motion int

const (
	Static Motion = iota
	Dynamic
)

func (m Motion) String() string {
	if m == Dynamic {
		return "DYNAMIC"
	}
	return "STATIC"
}

// Cluster is a non-empty multiset of points with derived attributes:
// centroid over the first six components, per-dimension min/max, count,
// and a motion label (spec §3).
type Cluster struct {
	Points   []Point
	Centroid [6]float64
	Min      [6]float64
	Max      [6]float64
	Motion   Motion
}

// NewCluster computes centroid, min/max, and motion label for a non-empty
// set of points. velThreshold is V_THRES from spec §3/§4.2.
func NewCluster(points []Point, velThreshold float64) Cluster {
	c := Cluster{Points: points}
	if len(points) == 0 {
		return c
	}
	for i := range c.Min {
		c.Min[i] = math.Inf(1)
		c.Max[i] = math.Inf(-1)
	}
	var sum [6]float64
	for _, p := range points {
		v := p.Vec6()
		for i := 0; i < 6; i++ {
			sum[i] += v[i]
			if v[i] < c.Min[i] {
				c.Min[i] = v[i]
			}
			if v[i] > c.Max[i] {
				c.Max[i] = v[i]
			}
		}
	}
	n := float64(len(points))
	for i := 0; i < 6; i++ {
		c.Centroid[i] = sum[i] / n
	}

	velNorm := math.Sqrt(c.Centroid[3]*c.Centroid[3] + c.Centroid[4]*c.Centroid[4] + c.Centroid[5]*c.Centroid[5])
	if velNorm < velThreshold {
		c.Motion = Static
	} else {
		c.Motion = Dynamic
	}
	return c
}

// Count returns the number of points in the cluster.
func (c Cluster) Count() int {
	return len(c.Points)
}

// NumDynamicPoints returns the number of points whose raw Doppler exceeds
// dopplerThreshold (spec §4.4's n_dyn).
func (c Cluster) NumDynamicPoints(dopplerThreshold float64) int {
	n := 0
	for _, p := range c.Points {
		if p.Doppler > dopplerThreshold {
			n++
		}
	}
	return n
}
