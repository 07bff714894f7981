package point

import (
	"math"
	"testing"
)

func TestNewClusterCentroidAndMotion(t *testing.T) {
	points := []Point{
		{X: 0, Y: 1, Z: 1, VX: 0, VY: 0.5, VZ: 0, Doppler: 0.5},
		{X: 0.1, Y: 1, Z: 1, VX: 0, VY: 0.6, VZ: 0, Doppler: 0.6},
		{X: -0.1, Y: 1, Z: 1, VX: 0, VY: 0.4, VZ: 0, Doppler: 0.4},
		{X: 0, Y: 1.1, Z: 1, VX: 0, VY: 0.55, VZ: 0, Doppler: 0.55},
	}
	c := NewCluster(points, 0.3)

	if c.Count() != 4 {
		t.Fatalf("expected 4 points, got %d", c.Count())
	}
	if math.Abs(c.Centroid[0]-0) > 1e-9 {
		t.Errorf("expected centroid x ~0, got %f", c.Centroid[0])
	}
	if c.Motion != Dynamic {
		t.Errorf("expected Dynamic motion (vel norm > 0.3), got %v", c.Motion)
	}
}

func TestNewClusterStaticMotion(t *testing.T) {
	points := []Point{
		{X: 0, Y: 1, Z: 1, VX: 0, VY: 0, VZ: 0, Doppler: 0},
		{X: 0.05, Y: 1, Z: 1, VX: 0, VY: 0, VZ: 0, Doppler: 0},
	}
	c := NewCluster(points, 0.3)
	if c.Motion != Static {
		t.Errorf("expected Static motion, got %v", c.Motion)
	}
}

func TestNumDynamicPoints(t *testing.T) {
	points := []Point{
		{Doppler: 0.5},
		{Doppler: -0.2},
		{Doppler: 0.1},
		{Doppler: 0},
	}
	c := NewCluster(points, 0.3)
	if got := c.NumDynamicPoints(0); got != 2 {
		t.Errorf("expected 2 dynamic points (doppler > 0), got %d", got)
	}
}

func TestClusterMinMax(t *testing.T) {
	points := []Point{
		{X: -1, Y: 2, Z: 0},
		{X: 1, Y: 3, Z: 0.5},
	}
	c := NewCluster(points, 0.3)
	if c.Min[0] != -1 || c.Max[0] != 1 {
		t.Errorf("expected min/max x = -1/1, got %f/%f", c.Min[0], c.Max[0])
	}
	if c.Min[1] != 2 || c.Max[1] != 3 {
		t.Errorf("expected min/max y = 2/3, got %f/%f", c.Min[1], c.Max[1])
	}
}
