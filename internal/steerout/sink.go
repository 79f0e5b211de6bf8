// Package steerout sends per-frame steering errors to a motor controller
// over a serial line.
//
// Each frame is one ASCII line: "S<angle>\n" with the angle in degrees to
// one decimal place, clamped to the configured limit. Frames without any
// lane produce "S0.0\n" so the controller recentres.
package steerout

import (
	"fmt"
	"io"
	"log"
	"math"
	"sync"

	"go.bug.st/serial"

	"github.com/banshee-data/lanekeeper/internal/lane"
)

// DefaultMaxAngle is the clamp applied to outgoing angles.
const DefaultMaxAngle = 45.0

// Porter is the minimal port the sink writes to.
type Porter interface {
	io.WriteCloser
}

// Sender delivers steering estimates somewhere.
type Sender interface {
	Send(est lane.SteeringEstimate) error
	Close() error
}

// Sink writes steering commands to a Porter.
type Sink struct {
	mu       sync.Mutex
	port     Porter
	maxAngle float64
	sent     int
	closed   bool
}

var (
	_ Sender = (*Sink)(nil)
	_ Sender = DisabledSink{}
)

// NewSink wraps port. A maxAngle <= 0 selects DefaultMaxAngle.
func NewSink(port Porter, maxAngle float64) *Sink {
	if maxAngle <= 0 {
		maxAngle = DefaultMaxAngle
	}
	return &Sink{port: port, maxAngle: maxAngle}
}

// Open opens the serial device at path and returns a Sink on it.
func Open(path string, opts PortOptions, maxAngle float64) (*Sink, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	log.Printf("steering output on %s at %d baud", path, mode.BaudRate)
	return NewSink(port, maxAngle), nil
}

// Command renders the line sent for est.
func (s *Sink) Command(est lane.SteeringEstimate) string {
	angle := math.Max(-s.maxAngle, math.Min(s.maxAngle, est.Angle))
	if est.Branch == lane.BranchNone {
		angle = 0
	}
	// Avoid "-0.0" on the wire.
	if math.Abs(angle) < 0.05 {
		angle = 0
	}
	return fmt.Sprintf("S%.1f\n", angle)
}

// Send writes one steering command.
func (s *Sink) Send(est lane.SteeringEstimate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("steering sink closed")
	}
	if _, err := io.WriteString(s.port, s.Command(est)); err != nil {
		return fmt.Errorf("failed to write steering command: %w", err)
	}
	s.sent++
	return nil
}

// Sent returns the number of commands written.
func (s *Sink) Sent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

// Close closes the underlying port. Further sends fail.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.port.Close()
}

// DisabledSink discards estimates; used when no controller is attached.
type DisabledSink struct{}

func (DisabledSink) Send(lane.SteeringEstimate) error { return nil }
func (DisabledSink) Close() error                     { return nil }
