package source

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"go.bug.st/serial"

	"github.com/banshee-data/radar.track/internal/trackmon"
)

var _ Source = (*RadarPort)(nil)

// RadarPort is the live sensor driver Source, grounded directly on the
// teacher's serial.go RadarPort: same 115200-8N1 mode, the same
// events/commands channel pair, and the same Monitor(ctx) select-loop
// structure, generalized to parse the sensor's per-point line protocol into
// assembled Frames instead of passing raw lines to a caller.
type RadarPort struct {
	port     serial.Port
	commands chan string
	frames   chan completedFrame
	errs     chan error
}

// NewRadarPort opens portName at the sensor's fixed UART configuration.
func NewRadarPort(portName string) (*RadarPort, error) {
	mode := &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: 1,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("opening radar serial port %s: %w", portName, err)
	}
	return &RadarPort{
		port:     port,
		commands: make(chan string),
		frames:   make(chan completedFrame, 8),
		errs:     make(chan error, 1),
	}, nil
}

// SendCommand queues a configuration command for the port's write side.
func (p *RadarPort) SendCommand(command string) {
	p.commands <- command
}

// Close closes the underlying serial port.
func (p *RadarPort) Close() error {
	return p.port.Close()
}

// Monitor reads lines from the serial port, assembles them into frames, and
// publishes completed frames to the internal channel Read drains. It
// returns when ctx is cancelled or the port read loop ends.
func (p *RadarPort) Monitor(ctx context.Context) error {
	defer close(p.frames)
	scan := bufio.NewScanner(p.port)
	var assembler frameAssembler

	for {
		select {
		case <-ctx.Done():
			return nil
		case command := <-p.commands:
			if _, err := p.port.Write([]byte(command)); err != nil {
				trackmon.Opsf("radar port: error writing command: %v", err)
			}
		default:
			if !scan.Scan() {
				assembler.flush()
				p.drain(&assembler)
				return scan.Err()
			}
			row, err := parseSerialLine(scan.Text())
			if err != nil {
				trackmon.Opsf("radar port: dropping malformed line: %v", err)
				continue
			}
			assembler.feed(row)
			p.drain(&assembler)
		}
	}
}

// drain publishes any frames the assembler has completed so far, blocking
// only as long as the channel buffer requires.
func (p *RadarPort) drain(a *frameAssembler) {
	for {
		cf, ok := a.pop()
		if !ok {
			return
		}
		p.frames <- cf
	}
}

// Read implements Source by pulling the next assembled frame. It blocks
// until Monitor has produced one or the port has closed.
func (p *RadarPort) Read() (bool, int64, *Frame, error) {
	cf, ok := <-p.frames
	if !ok {
		select {
		case err := <-p.errs:
			return false, 0, nil, err
		default:
			return false, 0, nil, nil
		}
	}
	f := cf.frame
	return true, cf.index, &f, nil
}

// parseSerialLine parses one sensor line of the form
// "frame_index,x,y,z,doppler,intensity" — the same six-field shape as the
// offline CSV log rows (spec.md §6), since the sensor firmware emits one
// line per detection.
func parseSerialLine(line string) (Row, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	record := make([]string, len(fields))
	copy(record, fields)
	return parseRow(record)
}
