package client

import (
	"context"
	"time"
)

// InactivityWatcher checks the session on a fixed cadence until ctx is done.
type InactivityWatcher struct {
	session  *Session
	interval time.Duration
}

func NewInactivityWatcher(session *Session, interval time.Duration) *InactivityWatcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &InactivityWatcher{session: session, interval: interval}
}

func (w *InactivityWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.session.Check()
		}
	}
}
