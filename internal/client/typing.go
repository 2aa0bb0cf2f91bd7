package client

import (
	"sync"
	"time"

	"github.com/dkeye/ChatJet/internal/protocol"
)

const DefaultTypingTimeout = time.Second

// TypingIndicator emits "typing" on the first keystroke and "stop typing"
// once keystrokes pause for the timeout.
type TypingIndicator struct {
	mu      sync.Mutex
	emit    func(event string)
	timeout time.Duration
	timer   *time.Timer
}

func NewTypingIndicator(timeout time.Duration, emit func(event string)) *TypingIndicator {
	if timeout <= 0 {
		timeout = DefaultTypingTimeout
	}
	return &TypingIndicator{emit: emit, timeout: timeout}
}

func (ti *TypingIndicator) Keystroke() {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	if ti.timer == nil {
		ti.emit(protocol.Typing)
	} else {
		ti.timer.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(ti.timeout, func() {
		ti.mu.Lock()
		defer ti.mu.Unlock()
		if ti.timer != t {
			return
		}
		ti.timer = nil
		ti.emit(protocol.StopTyping)
	})
	ti.timer = t
}

// Stop ends typing right away, as on send.
func (ti *TypingIndicator) Stop() {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	if ti.timer == nil {
		return
	}
	ti.timer.Stop()
	ti.timer = nil
	ti.emit(protocol.StopTyping)
}
