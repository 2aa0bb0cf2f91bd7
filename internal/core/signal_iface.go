//go:generate go run go.uber.org/mock/mockgen -source=signal_iface.go -destination=../mocks/mock_signal.go -package=mocks
package core

import "errors"

// ErrBackpressure is returned by TrySend when the connection's send buffer is full.
var ErrBackpressure = errors.New("backpressure")

// ErrClosed is returned by TrySend after Close.
var ErrClosed = errors.New("connection closed")

// Frame is one encoded protocol event.
type Frame []byte

// SignalConnection abstracts the messaging transport of one connection.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
