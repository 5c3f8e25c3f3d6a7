package notification

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/loungeclock/internal/app/summary"
	"github.com/osa030/loungeclock/internal/domain/station"
)

// ErrStreamClosed is returned by Send on a closed ChanStream.
var ErrStreamClosed = errors.New("stream closed")

// Kind tells subscribers why a notification was sent.
type Kind int

const (
	KindTick    Kind = iota // Periodic refresh
	KindChanged             // A station changed state
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindTick:
		return "tick"
	case KindChanged:
		return "changed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Change describes the mutation behind a KindChanged notification.
type Change struct {
	Op        string `json:"op"`
	StationID string `json:"stationId"`
}

// Notification carries a full board snapshot.
type Notification struct {
	SequenceNo uint64         `json:"sequenceNo"`
	Kind       Kind           `json:"kind"`
	At         time.Time      `json:"at"`
	Change     *Change        `json:"change,omitempty"`
	Stations   []station.View `json:"stations"`
	Summary    summary.Daily  `json:"summary"`
}

// ChanStream is a buffered Stream read by a single consumer. A full buffer
// drops the notification rather than blocking the broadcaster.
type ChanStream struct {
	ch     chan *Notification
	closed chan struct{}
}

// NewChanStream creates a ChanStream with the given buffer size.
func NewChanStream(buffer int) *ChanStream {
	return &ChanStream{
		ch:     make(chan *Notification, buffer),
		closed: make(chan struct{}),
	}
}

// Send implements Stream.
func (s *ChanStream) Send(n *Notification) error {
	select {
	case <-s.closed:
		return ErrStreamClosed
	default:
	}
	select {
	case s.ch <- n:
	default:
		// Drop if subscriber is slow.
	}
	return nil
}

// C returns the receive side of the stream.
func (s *ChanStream) C() <-chan *Notification {
	return s.ch
}

// Close marks the stream closed; subsequent sends fail.
func (s *ChanStream) Close() {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
}
