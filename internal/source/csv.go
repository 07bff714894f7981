package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/banshee-data/radar.track/internal/trackmon"
)

var _ Source = (*CSVReplay)(nil)

// CSVReplay is the offline replay Source, grounded on
// original_source/src/Utils.py's OfflineManager: it reads numbered CSV logs
// (<N>.csv, 1-indexed) from a directory in increasing order, maintaining a
// bounded read-ahead buffer of assembled frames so a mid-file stop point can
// resume without reopening from the start of the file.
//
// CSV column order: frame_index,x,y,z,doppler,intensity,posix_ms.
type CSVReplay struct {
	dir           string
	readAheadSize int

	fileIndex int   // next file to open, 1-indexed
	rowCursor int   // rows already consumed from the current file on a prior batch
	lastFrame int64 // highest frame index seen so far; 0 means none yet
	exhausted bool  // no further numbered file exists

	assembler  frameAssembler
	frameCount int64
}

// NewCSVReplay constructs a replay reader over dir, reading readAheadSize
// frames at a time (FB_READ_BUFFER_SIZE in original_source/src/constants.py).
func NewCSVReplay(dir string, readAheadSize int) *CSVReplay {
	return &CSVReplay{dir: dir, readAheadSize: readAheadSize, fileIndex: 1}
}

// Read implements Source. frameCount advances by exactly 1 per call,
// mirroring OfflineManager.get_data's frame_count bookkeeping: gaps in the
// numbered sequence (a frame index with zero detections) surface as
// ok=false with no error, not as exhaustion.
func (r *CSVReplay) Read() (bool, int64, *Frame, error) {
	r.frameCount++

	if r.frameCount > r.lastFrame {
		if err := r.readNextBatch(); err != nil {
			return false, r.frameCount, nil, err
		}
	}

	for {
		cf, ok := r.assembler.pop()
		if !ok {
			break
		}
		if cf.index == r.frameCount {
			f := cf.frame
			return true, r.frameCount, &f, nil
		}
		if cf.index > r.frameCount {
			// Put it back; frames are consumed in order and we haven't
			// reached this one yet (shouldn't normally happen since rows
			// are read monotonically, but guards against out-of-order logs).
			r.assembler.completed = append([]completedFrame{cf}, r.assembler.completed...)
			break
		}
	}

	if r.exhausted && r.frameCount > r.lastFrame {
		return false, r.frameCount, nil, io.EOF
	}
	return false, r.frameCount, nil, nil
}

// readNextBatch reads rows from the current/following numbered files until
// readAheadSize distinct frames have been assembled or the file sequence is
// exhausted (spec.md §7 "source exhaustion").
func (r *CSVReplay) readNextBatch() error {
	for r.distinctFrameCount() < r.readAheadSize {
		path := filepath.Join(r.dir, fmt.Sprintf("%d.csv", r.fileIndex))
		f, err := os.Open(path)
		if os.IsNotExist(err) {
			r.assembler.flush()
			r.exhausted = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("opening replay file %s: %w", path, err)
		}

		consumedToEOF, err := r.consumeFile(f)
		closeErr := f.Close()
		if err != nil {
			return fmt.Errorf("reading replay file %s: %w", path, err)
		}
		if closeErr != nil {
			return fmt.Errorf("closing replay file %s: %w", path, closeErr)
		}

		if consumedToEOF {
			r.fileIndex++
			r.rowCursor = 0
		} else {
			break // hit the read-ahead cap mid-file; resume here next time
		}
	}
	return nil
}

// consumeFile reads rows from f, skipping rowCursor already-consumed rows,
// feeding the rest to the assembler until readAheadSize frames are
// assembled or the file ends. Returns true if the file was read to EOF.
func (r *CSVReplay) consumeFile(f *os.File) (bool, error) {
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	index := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return true, nil
		}
		if err != nil {
			return false, err
		}

		if index < r.rowCursor {
			index++
			continue
		}

		row, err := parseRow(record)
		if err != nil {
			trackmon.Opsf("csv replay: dropping malformed row %v: %v", record, err)
			index++
			continue
		}
		r.assembler.feed(row)
		if row.FrameIndex > r.lastFrame {
			r.lastFrame = row.FrameIndex
		}
		index++

		if r.distinctFrameCount() >= r.readAheadSize {
			r.assembler.flush()
			r.rowCursor = index
			return false, nil
		}
	}
}

// distinctFrameCount reports how many frames are currently queued or still
// being accumulated, used to bound the read-ahead (mirrors
// OfflineManager.read_next_frames' `len(self.pointclouds)`, which counts the
// in-progress frame too).
func (r *CSVReplay) distinctFrameCount() int {
	n := len(r.assembler.completed)
	if r.assembler.haveCurrent && len(r.assembler.buf.X) > 0 {
		n++
	}
	return n
}

func parseRow(record []string) (Row, error) {
	if len(record) < 6 {
		return Row{}, fmt.Errorf("expected at least 6 columns, got %d", len(record))
	}
	frameIndex, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("frame_index: %w", err)
	}
	x, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return Row{}, fmt.Errorf("x: %w", err)
	}
	y, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return Row{}, fmt.Errorf("y: %w", err)
	}
	z, err := strconv.ParseFloat(record[3], 64)
	if err != nil {
		return Row{}, fmt.Errorf("z: %w", err)
	}
	doppler, err := strconv.ParseFloat(record[4], 64)
	if err != nil {
		return Row{}, fmt.Errorf("doppler: %w", err)
	}
	intensity, err := strconv.ParseFloat(record[5], 64)
	if err != nil {
		return Row{}, fmt.Errorf("intensity: %w", err)
	}
	return Row{FrameIndex: frameIndex, X: x, Y: y, Z: z, Doppler: doppler, Intensity: intensity}, nil
}
