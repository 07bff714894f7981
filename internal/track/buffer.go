package track

import (
	"github.com/banshee-data/radar.track/internal/point"
	"github.com/banshee-data/radar.track/internal/trackmon"
)

// Buffer owns every live track plus the frame buffer of recently unassigned
// points, and orchestrates the per-frame Predict/Associate/Update/Spawn/
// Retire cycle (spec §3 "TrackBuffer", §5 driver loop). A Buffer is not
// safe for concurrent use; the driver calls Step from a single goroutine
// (spec §5).
type Buffer struct {
	cfg    Config
	tracks []*Track
	nextID int64

	// frameBufferFrames is a sliding window of at most cfg.FBFramesBatch+1
	// per-frame unassigned-point slices (spec §4.5's frame buffer), mirroring
	// BatchedData's deque-of-frames accumulation.
	frameBufferFrames [][]point.Point

	// OnRetire, if set, is called with each track immediately before it is
	// dropped from the buffer (spec §4.6), letting a caller export it (e.g.
	// internal/storage/sqlite) without the buffer knowing about storage.
	OnRetire func(tr *Track)
}

// NewBuffer constructs an empty track buffer.
func NewBuffer(cfg Config) *Buffer {
	return &Buffer{cfg: cfg}
}

// Tracks returns the buffer's current tracks (both ACTIVE and any
// not-yet-compacted INACTIVE stragglers are never returned; Retire compacts
// immediately). Callers must not retain the slice across the next Step call.
func (b *Buffer) Tracks() []*Track {
	return b.tracks
}

// Step runs one full frame through the pipeline: prediction, association,
// per-track update, spawning, and retirement (spec §5's per-frame order:
// Predict -> Associate -> Update -> Spawn -> Retire). points must already be
// normalized (internal/normalize) world-frame points. dt is the elapsed time
// since the previous frame.
func (b *Buffer) Step(points []point.Point, dt float64) {
	b.predictAll(dt)

	assigned, unassigned := Associate(b.tracks, points, b.cfg.Gate)

	for _, tr := range b.tracks {
		tr.Update(assigned[tr.ID], dt)
	}

	b.spawn(unassigned)
	b.retire()
}

// predictAll advances every track's Kalman prior. Prediction is skipped
// entirely for STATIC tracks (spec §4.2), and uses the cumulative elapsed
// time since the track's last association reset rather than just this
// frame's dt (spec §12 "cumulative predict time", supplemented from
// original_source/src/Tracking.py's `track.predict_state(track.lifetime +
// self.dt)` — this call happens before Update() touches Lifetime, so
// `Lifetime` here still holds the pre-this-frame elapsed time).
func (b *Buffer) predictAll(dt float64) {
	for _, tr := range b.tracks {
		if tr.Mode == point.Static {
			continue
		}
		tr.State.Predict(tr.Lifetime + dt)
	}
}

// PredictOnly runs a predict-only iteration for a frame the source reported
// as a gap (spec §6 "On ok=false, the frame is to be skipped (predict-only
// iteration)"; spec §5's timing contract: tracks still drift forward by dt,
// but no association or update is performed). Retire still runs afterward
// so a track crossing its lifetime limit during a gap is evicted on
// schedule rather than only on the next real frame.
func (b *Buffer) PredictOnly(dt float64) {
	b.predictAll(dt)
	for _, tr := range b.tracks {
		tr.Lifetime += dt
	}
	b.retire()
}

// retire marks tracks whose lifetime has exceeded the mode-appropriate
// limit INACTIVE and compacts them out of the buffer (spec §4.6). Keyed off
// Track.Mode rather than the last cluster's motion label (see DESIGN.md
// Open Questions §3).
func (b *Buffer) retire() {
	kept := b.tracks[:0]
	for _, tr := range b.tracks {
		limit := b.cfg.LifetimeStatic
		if tr.Mode == point.Dynamic {
			limit = b.cfg.LifetimeDynamic
		}
		if tr.Lifetime > limit {
			tr.Status = StatusInactive
			trackmon.Diagf("track %d retired: lifetime %f exceeded %s limit %f", tr.ID, tr.Lifetime, tr.Mode, limit)
			if b.OnRetire != nil {
				b.OnRetire(tr)
			}
			continue
		}
		kept = append(kept, tr)
	}
	b.tracks = kept
}

// spawn accumulates this frame's unassigned points into the frame buffer
// and, while under the track cap, attempts to cluster the accumulated
// buffer into new tracks (spec §4.5). On any successful clustering the
// entire buffer is cleared, mirroring BatchedData.clear() in
// original_source/src/Tracking.py.
func (b *Buffer) spawn(unassigned []point.Point) {
	b.frameBufferFrames = append(b.frameBufferFrames, unassigned)
	if len(b.frameBufferFrames) > b.cfg.FBFramesBatch+1 {
		b.frameBufferFrames = b.frameBufferFrames[1:]
	}

	var effective []point.Point
	for _, frame := range b.frameBufferFrames {
		effective = append(effective, frame...)
	}
	if len(effective) == 0 || len(b.tracks) >= b.cfg.MaxTracks {
		return
	}

	clusters := clusterBuffer(effective, b.cfg)
	if len(clusters) == 0 {
		return
	}
	b.frameBufferFrames = nil

	for _, c := range clusters {
		if len(b.tracks) >= b.cfg.MaxTracks {
			break
		}
		id := b.nextID
		b.nextID++
		tr := NewTrack(id, c, b.cfg, spawnColor(id))
		b.tracks = append(b.tracks, tr)
		trackmon.Diagf("track %d spawned: mode=%s, n=%d", tr.ID, tr.Mode, c.Count())
	}
}

// spawnColor derives a stable, visually distinct color for a new track id
// (spec §6), matching the teacher's practice of assigning track colors once
// at spawn time rather than reassigning on every frame.
func spawnColor(id int64) [3]float64 {
	hues := [][3]float64{
		{0.89, 0.29, 0.20}, {0.20, 0.59, 0.86}, {0.18, 0.80, 0.44},
		{0.95, 0.77, 0.06}, {0.61, 0.35, 0.71}, {0.90, 0.49, 0.13},
	}
	return hues[int(id)%len(hues)]
}
