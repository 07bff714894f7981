package track

import (
	"testing"

	"github.com/banshee-data/radar.track/internal/point"
)

func TestDBSCANGroupsDensePointsIntoOneCluster(t *testing.T) {
	pts := []point.Point{
		{X: 0, Y: 5, Z: 1},
		{X: 0.1, Y: 5, Z: 1},
		{X: 0.2, Y: 5, Z: 1},
		{X: 0.1, Y: 5.1, Z: 1},
	}
	clusters := dbscan(pts, 0.5, 3, 0.5, 0.05)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d: %v", len(clusters), clusters)
	}
	if len(clusters[0]) != 4 {
		t.Fatalf("expected all 4 points in the cluster, got %d", len(clusters[0]))
	}
}

func TestDBSCANLabelsSparsePointsAsNoise(t *testing.T) {
	pts := []point.Point{
		{X: 0, Y: 5, Z: 1},
		{X: 50, Y: 5, Z: 1},
		{X: -50, Y: 5, Z: 1},
	}
	clusters := dbscan(pts, 0.5, 3, 0.5, 0.05)
	if len(clusters) != 0 {
		t.Fatalf("expected no clusters among mutually-far points, got %d", len(clusters))
	}
}

func TestDBSCANEmptyInputReturnsNil(t *testing.T) {
	if clusters := dbscan(nil, 0.5, 3, 0.5, 0.05); clusters != nil {
		t.Fatalf("expected nil for empty input, got %v", clusters)
	}
}

func TestDBSCANWeightedDistDownweightsFarRangePoints(t *testing.T) {
	near := dbscanWeightedDist(
		point.Point{X: 0, Y: 1, Z: 0}, point.Point{X: 1, Y: 1, Z: 0}, 0.5, 0.05)
	far := dbscanWeightedDist(
		point.Point{X: 0, Y: 20, Z: 0}, point.Point{X: 1, Y: 20, Z: 0}, 0.5, 0.05)
	if far >= near {
		t.Fatalf("expected range-weighting to shrink distance for far points: near=%f far=%f", near, far)
	}
}

func TestClusterBufferOrdersDeterministicallyByCentroid(t *testing.T) {
	cfg := testConfig()
	pts := []point.Point{
		// cluster A, centroid near (10, 5)
		{X: 10, Y: 5, Z: 1}, {X: 10.1, Y: 5, Z: 1}, {X: 9.9, Y: 5.1, Z: 1},
		// cluster B, centroid near (0, 5)
		{X: 0, Y: 5, Z: 1}, {X: 0.1, Y: 5, Z: 1}, {X: -0.1, Y: 5.1, Z: 1},
	}
	clusters := clusterBuffer(pts, cfg)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	if clusters[0].Centroid[0] > clusters[1].Centroid[0] {
		t.Fatalf("expected clusters ordered by ascending centroid X, got %f then %f",
			clusters[0].Centroid[0], clusters[1].Centroid[0])
	}
}
