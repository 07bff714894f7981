// Package source implements the pull-based detection source (spec.md §6):
// a live serial sensor driver and an offline CSV replay reader, both
// assembling per-point detection rows into per-frame batches consumed by
// internal/normalize.
package source

import "github.com/banshee-data/radar.track/internal/normalize"

// Frame is the raw per-frame detection batch handed to the Normalizer.
type Frame = normalize.Frame

// Source is the pull interface the driver loop reads from (spec.md §6): one
// call per frame, returning whether a frame was available, its monotonic
// frame index, and the frame itself.
type Source interface {
	Read() (ok bool, frameIndex int64, frame *Frame, err error)
}

// Row is a single detection record as it appears on the wire, before frames
// are assembled: one sensor point, tagged with the frame it belongs to.
type Row struct {
	FrameIndex int64
	X, Y, Z    float64
	Doppler    float64
	Intensity  float64
}

// completedFrame pairs an assembled Frame with its frame index.
type completedFrame struct {
	index int64
	frame Frame
}

// frameAssembler groups a stream of per-point Rows into per-frame Frame
// batches, flushing the current frame whenever a row's frame index changes.
// Both the serial driver and the CSV replay reader share this logic because
// both sources emit one row per detection rather than one message per frame.
type frameAssembler struct {
	haveCurrent  bool
	currentIndex int64
	buf          Frame
	completed    []completedFrame
}

func (a *frameAssembler) feed(row Row) {
	if a.haveCurrent && row.FrameIndex != a.currentIndex {
		a.flush()
	}
	a.haveCurrent = true
	a.currentIndex = row.FrameIndex

	a.buf.X = append(a.buf.X, row.X)
	a.buf.Y = append(a.buf.Y, row.Y)
	a.buf.Z = append(a.buf.Z, row.Z)
	a.buf.Doppler = append(a.buf.Doppler, row.Doppler)
	a.buf.Intensity = append(a.buf.Intensity, row.Intensity)
}

// flush closes out the in-progress frame, if any, and queues it.
func (a *frameAssembler) flush() {
	if len(a.buf.X) == 0 {
		return
	}
	a.completed = append(a.completed, completedFrame{index: a.currentIndex, frame: a.buf})
	a.buf = Frame{}
}

// pop dequeues the oldest completed frame, if any.
func (a *frameAssembler) pop() (completedFrame, bool) {
	if len(a.completed) == 0 {
		return completedFrame{}, false
	}
	f := a.completed[0]
	a.completed = a.completed[1:]
	return f, true
}
