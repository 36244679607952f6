package navigation

import (
	"sync"
	"time"

	"github.com/saferoute/saferoute-backend-go/internal/models"
)

// PositionUpdate is one fix from the position source.
type PositionUpdate struct {
	Position  models.Coordinate
	Timestamp time.Time
}

// PositionStream is a cancellable source of position updates. Updates are
// delivered in arrival order; Done is closed by Unsubscribe.
type PositionStream interface {
	Updates() <-chan PositionUpdate
	Done() <-chan struct{}
	Unsubscribe()
}

// ChannelStream is a PositionStream fed by Push. Pushes never block the
// caller: when the buffer is full the update is dropped and Push reports
// false.
type ChannelStream struct {
	ch   chan PositionUpdate
	done chan struct{}
	once sync.Once
}

// NewChannelStream creates a stream with the given buffer size.
func NewChannelStream(buffer int) *ChannelStream {
	if buffer < 1 {
		buffer = 16
	}
	return &ChannelStream{
		ch:   make(chan PositionUpdate, buffer),
		done: make(chan struct{}),
	}
}

// Push offers an update without blocking. Returns false if the stream is
// closed or the buffer is full.
func (s *ChannelStream) Push(u PositionUpdate) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.ch <- u:
		return true
	default:
		return false
	}
}

// Updates returns the delivery channel.
func (s *ChannelStream) Updates() <-chan PositionUpdate {
	return s.ch
}

// Done is closed once the stream is unsubscribed.
func (s *ChannelStream) Done() <-chan struct{} {
	return s.done
}

// Unsubscribe stops delivery. Idempotent.
func (s *ChannelStream) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
	})
}
