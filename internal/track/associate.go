package track

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/radar.track/internal/point"
	"github.com/banshee-data/radar.track/internal/trackmon"
)

// gateInfo holds the per-track quantities computed once before scoring
// points against that track (spec §4.3).
type gateInfo struct {
	track  *Track
	hHat   *mat.VecDense
	cInv   *mat.Dense
	logDet float64
	valid  bool // false when C_j is singular/near-singular (degenerate geometry, spec §7)
}

// Associate scores each normalized point against each active track using
// the Mahalanobis-style gating score (spec §4.3), and returns, for each
// track id, the points assigned to it, plus the set of unassigned points.
// tracks are scored in ascending id order (a sorted copy is taken here, so
// callers may pass them in any order), and ties (equal score) break toward
// the lower-id track via the strict "<" comparison below.
func Associate(tracks []*Track, points []point.Point, gate float64) (assigned map[int64][]point.Point, unassigned []point.Point) {
	sorted := make([]*Track, len(tracks))
	copy(sorted, tracks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	gates := make([]gateInfo, len(sorted))
	for i, tr := range sorted {
		gates[i] = buildGate(tr)
	}

	assigned = make(map[int64][]point.Point, len(sorted))
	for _, p := range points {
		bestIdx := -1
		bestScore := math.Inf(1)
		pv := p.Vec6()

		for i, g := range gates {
			if !g.valid {
				continue // degenerate geometry: ungated, do not propagate (spec §7)
			}
			y := mat.NewVecDense(6, nil)
			y.SubVec(mat.NewVecDense(6, pv[:]), g.hHat)

			var cy mat.VecDense
			cy.MulVec(g.cInv, y)
			quad := mat.Dot(y, &cy)

			score := g.logDet + quad
			if score >= gate {
				continue // ungated
			}
			if score < bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			unassigned = append(unassigned, p)
			continue
		}
		id := sorted[bestIdx].ID
		assigned[id] = append(assigned[id], p)
		trackmon.Tracef("point assigned to track %d, score=%f", id, bestScore)
	}
	return assigned, unassigned
}

func buildGate(tr *Track) gateInfo {
	c := tr.GatingCov()

	var inv mat.Dense
	if err := inv.Inverse(c); err != nil {
		return gateInfo{track: tr, valid: false}
	}
	det := mat.Det(c)
	if det <= 0 {
		return gateInfo{track: tr, valid: false}
	}

	return gateInfo{
		track:  tr,
		hHat:   tr.State.PredictedMeasurement(),
		cInv:   &inv,
		logDet: math.Log(det),
		valid:  true,
	}
}
