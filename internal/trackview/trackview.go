// Package trackview exposes the read-only track view (spec.md §6) over
// Server-Sent Events, grounded on internal/serialmux/serialmux.go's SSE-tail
// subscriber pattern: per-subscriber channel, http.Flusher-driven writes, and
// a tailscale.com/tsweb admin route for introspection.
package trackview

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"tailscale.com/tsweb"

	"github.com/banshee-data/radar.track/internal/track"
)

// Snapshot is the immutable, JSON-serializable view of one track, matching
// spec.md §6's consumer contract exactly: id, mode, lifetime, state.x,
// state.P, cluster.centroid, cluster.point_num, color.
type Snapshot struct {
	ID       int64       `json:"id"`
	Mode     string      `json:"mode"`
	Lifetime float64     `json:"lifetime"`
	StateX   []float64   `json:"state_x"`
	StateP   [][]float64 `json:"state_p"`
	Centroid [6]float64  `json:"cluster_centroid"`
	PointNum int         `json:"cluster_point_num"`
	Color    [3]float64  `json:"color"`
}

// BuildSnapshots converts live tracks into their wire representation. Called
// once per frame by the driver after Buffer.Step (spec.md §6: "After each
// pipeline tick, consumers may enumerate active tracks").
func BuildSnapshots(tracks []*track.Track) []Snapshot {
	out := make([]Snapshot, len(tracks))
	for i, tr := range tracks {
		x := tr.State.PosteriorMean()
		p := tr.State.PosteriorCov()
		n, _ := p.Dims()

		stateX := make([]float64, x.Len())
		for j := 0; j < x.Len(); j++ {
			stateX[j] = x.AtVec(j)
		}
		stateP := make([][]float64, n)
		for r := 0; r < n; r++ {
			row := make([]float64, n)
			for c := 0; c < n; c++ {
				row[c] = p.At(r, c)
			}
			stateP[r] = row
		}

		out[i] = Snapshot{
			ID:       tr.ID,
			Mode:     tr.Mode.String(),
			Lifetime: tr.Lifetime,
			StateX:   stateX,
			StateP:   stateP,
			Centroid: tr.Cluster.Centroid,
			PointNum: tr.Cluster.Count(),
			Color:    tr.Color,
		}
	}
	return out
}

// Hub fans out each frame's track snapshots to any number of SSE
// subscribers, mirroring serialmux.SerialMux's subscriber map.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]chan []Snapshot
}

// NewHub constructs an empty subscriber hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]chan []Snapshot)}
}

// Publish fans the frame's snapshots out to every current subscriber.
// A subscriber whose channel is full misses this frame (it stays
// subscribed) rather than blocking the tracking loop.
func (h *Hub) Publish(snapshots []Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subscribers {
		select {
		case ch <- snapshots:
		default:
			// Subscriber isn't draining fast enough; skip this frame for it
			// rather than block the per-frame hot path (spec.md §5 budget).
			_ = id
		}
	}
}

func (h *Hub) subscribe() (string, chan []Snapshot) {
	id := uuid.NewString()
	ch := make(chan []Snapshot, 4)
	h.mu.Lock()
	h.subscribers[id] = ch
	h.mu.Unlock()
	return id, ch
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
	}
}

// AttachAdminRoutes wires the SSE track stream and a debug introspection
// route onto mux, following the teacher's tsweb.Debugger admin-route
// convention (internal/serialmux/serialmux.go AttachAdminRoutes). A
// hand-written gRPC/protobuf service is deliberately not built here; see
// DESIGN.md for why those teacher dependencies are dropped.
func (h *Hub) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.HandleFunc("tracks", "stream live track snapshots over SSE", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		id, ch := h.subscribe()
		defer h.unsubscribe(id)

		w.Write([]byte(": ping\n\n"))
		flusher.Flush()

		for {
			select {
			case snapshots, ok := <-ch:
				if !ok {
					return
				}
				payload, err := json.Marshal(snapshots)
				if err != nil {
					continue
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
					return
				}
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	})
}
