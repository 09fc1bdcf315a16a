package transfer

import "sync"

// Event is the interface implemented by all transfer engine events.
type Event interface {
	isEvent()
}

// EventEmitter is the interface for emitting events.
type EventEmitter interface {
	Emit(event Event)
}

// EmitterFunc adapts a function to EventEmitter.
type EmitterFunc func(event Event)

// Emit calls f.
func (f EmitterFunc) Emit(event Event) {
	f(event)
}

// BatchStarted is emitted once the batch is classified and sized.
type BatchStarted struct {
	Op         Op
	Items      int
	TotalBytes int64
}

func (BatchStarted) isEvent() {}

// ItemStateChanged is emitted on every per-item transition.
type ItemStateChanged struct {
	Index  int
	Source string
	State  ItemState
	Err    error
}

func (ItemStateChanged) isEvent() {}

// ProgressUpdated carries a throttled progress snapshot.
type ProgressUpdated struct {
	Snapshot ProgressSnapshot
}

func (ProgressUpdated) isEvent() {}

// PaneResynced is emitted after a mirror directory touched by the batch was re-listed.
type PaneResynced struct {
	Dir string
	Err error
}

func (PaneResynced) isEvent() {}

// BatchFinished is emitted last; consumers refresh their panes and clear their selection.
type BatchFinished struct {
	Result  *BatchResult
	Err     error
	Summary string
}

func (BatchFinished) isEvent() {}

// ChannelEmitter delivers events on a buffered channel. Emit blocks when the buffer is full
// so no snapshot is lost.
type ChannelEmitter struct {
	mu     sync.RWMutex
	ch     chan Event
	closed bool
}

// NewChannelEmitter creates a ChannelEmitter with the given buffer.
func NewChannelEmitter(buffer int) *ChannelEmitter {
	return &ChannelEmitter{ch: make(chan Event, buffer)}
}

// Emit implements EventEmitter. Events emitted after Close are dropped.
func (c *ChannelEmitter) Emit(event Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return
	}

	c.ch <- event
}

// Events returns the receive side.
func (c *ChannelEmitter) Events() <-chan Event {
	return c.ch
}

// Close closes the channel. It is safe to call more than once.
func (c *ChannelEmitter) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.ch)
	}
}

type nopEmitter struct{}

func (nopEmitter) Emit(Event) {}
