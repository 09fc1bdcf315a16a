package shared

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/pane-mirror/internal/transfer"
)

// eventBuffer keeps the engine from waiting on the view.
const eventBuffer = 100

// EngineEventMsg wraps a transfer.Event for use as a tea.Msg.
type EngineEventMsg struct {
	Event transfer.Event
}

// CollisionPromptMsg asks the view for the batch-wide collision decision. The view answers
// exactly once on Reply.
type CollisionPromptMsg struct {
	Op    transfer.Op
	Names []string
	Reply chan<- transfer.Decision
}

// BridgeClosedMsg is delivered once the bridge is closed.
type BridgeClosedMsg struct{}

// EventBridge adapts transfer events to bubble tea messages.
// It implements transfer.EventEmitter and provides a channel for TUI consumption.
type EventBridge struct {
	mu        sync.RWMutex
	eventChan chan tea.Msg
	closed    bool
}

// NewEventBridge creates a new event bridge.
func NewEventBridge() *EventBridge {
	return &EventBridge{
		eventChan: make(chan tea.Msg, eventBuffer),
	}
}

// Emit implements transfer.EventEmitter. Progress snapshots are dropped when the buffer is
// full; every other event waits for room.
func (b *EventBridge) Emit(event transfer.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	msg := EngineEventMsg{Event: event}

	if _, ok := event.(transfer.ProgressUpdated); ok {
		select {
		case b.eventChan <- msg:
		default:
		}

		return
	}

	b.eventChan <- msg
}

// AskCollision implements transfer.CollisionResolver by round-tripping through the view.
// A closed bridge answers SkipAll.
func (b *EventBridge) AskCollision(op transfer.Op, names []string) transfer.Decision {
	reply := make(chan transfer.Decision, 1)

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()

		return transfer.SkipAll
	}

	b.eventChan <- CollisionPromptMsg{Op: op, Names: names, Reply: reply}
	b.mu.RUnlock()

	return <-reply
}

// Subscribe returns the event channel for receiving events.
func (b *EventBridge) Subscribe() <-chan tea.Msg {
	return b.eventChan
}

// ListenCmd returns a tea.Cmd that blocks until an event is received.
// Use this in Init() or after processing an event to continue listening.
func (b *EventBridge) ListenCmd() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-b.eventChan
		if !ok {
			return BridgeClosedMsg{}
		}

		return msg
	}
}

// Drain consumes the remaining messages after the view is gone, answering collision prompts
// with SkipAll. It returns when the bridge is closed.
func (b *EventBridge) Drain() {
	for msg := range b.eventChan {
		if prompt, ok := msg.(CollisionPromptMsg); ok {
			prompt.Reply <- transfer.SkipAll
		}
	}
}

// Close closes the event channel.
func (b *EventBridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.eventChan)
	}
}
