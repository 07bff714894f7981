package track

import (
	"sort"

	"github.com/banshee-data/radar.track/internal/point"
)

// dbscanWeightedDist computes the custom, non-true-metric distance used by
// the Spawner's clusterer (spec §4.5, §9): z-axis down-weighting plus a
// range-dependent down-weighting. Because the weight term depends on both
// points' y-coordinates, this is not a true metric (it need not satisfy the
// triangle inequality), which is why a uniform-grid spatial index cannot be
// used to bound candidate neighbors (see DESIGN.md).
func dbscanWeightedDist(a, b point.Point, zWeight, rangeWeight float64) float64 {
	weight := 1 - ((a.Y+b.Y)/2)*rangeWeight
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return weight * (dx*dx + dy*dy + zWeight*dz*dz)
}

// dbscan runs density-based clustering over pts using the weighted distance
// above, a naive O(N^2) region query (spec §9: buffers stay small enough
// that this is acceptable, and the metric's asymmetry rules out a spatial
// grid), and a label/expand pass mirroring the teacher's queue-based
// DBSCAN structure. Returns clusters, each a non-empty slice of point
// indices into pts. Output order is not significant; callers sort by
// centroid for determinism.
func dbscan(pts []point.Point, eps float64, minSamples int, zWeight, rangeWeight float64) [][]int {
	n := len(pts)
	if n == 0 {
		return nil
	}

	labels := make([]int, n) // 0=unvisited, -1=noise, >0=clusterID
	clusterID := 0

	// regionQuery includes the point itself in its neighborhood (matching
	// the teacher's RegionQuery and sklearn's DBSCAN convention), so
	// minSamples counts a point's neighborhood including itself.
	regionQuery := func(i int) []int {
		var neighbors []int
		for j := 0; j < n; j++ {
			if dbscanWeightedDist(pts[i], pts[j], zWeight, rangeWeight) <= eps {
				neighbors = append(neighbors, j)
			}
		}
		return neighbors
	}

	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}
		neighbors := regionQuery(i)
		if len(neighbors) < minSamples {
			labels[i] = -1
			continue
		}
		clusterID++
		labels[i] = clusterID

		queue := append([]int(nil), neighbors...)
		for k := 0; k < len(queue); k++ {
			idx := queue[k]
			if labels[idx] == -1 {
				labels[idx] = clusterID
			}
			if labels[idx] != 0 {
				continue
			}
			labels[idx] = clusterID
			newNeighbors := regionQuery(idx)
			if len(newNeighbors) >= minSamples {
				queue = append(queue, newNeighbors...)
			}
		}
	}

	buckets := make([][]int, clusterID+1)
	for i, label := range labels {
		if label >= 1 {
			buckets[label] = append(buckets[label], i)
		}
	}

	clusters := make([][]int, 0, clusterID)
	for cid := 1; cid <= clusterID; cid++ {
		if len(buckets[cid]) > 0 {
			clusters = append(clusters, buckets[cid])
		}
	}
	return clusters
}

// clusterBuffer runs the Spawner's clusterer over the accumulated
// unassigned-point buffer and returns new clusters, ordered deterministically
// by centroid (X, then Y) so replay runs are reproducible, mirroring
// dbscan_clusterer.go's `Cluster` sort.
func clusterBuffer(pts []point.Point, cfg Config) []point.Cluster {
	idxClusters := dbscan(pts, cfg.DBEps, cfg.DBMinSamples, cfg.DBZWeight, cfg.DBRangeWeight)
	if len(idxClusters) == 0 {
		return nil
	}

	out := make([]point.Cluster, 0, len(idxClusters))
	for _, idxs := range idxClusters {
		members := make([]point.Point, len(idxs))
		for i, idx := range idxs {
			members[i] = pts[idx]
		}
		out = append(out, point.NewCluster(members, cfg.VelThreshold))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Centroid[0] != out[j].Centroid[0] {
			return out[i].Centroid[0] < out[j].Centroid[0]
		}
		return out[i].Centroid[1] < out[j].Centroid[1]
	})
	return out
}
