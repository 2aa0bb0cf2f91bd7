package client

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/dkeye/ChatJet/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

// Conn is the client end of the event stream.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// Dial connects to url. The cookie jar keeps the client token for the
// lifetime of the process.
func Dial(ctx context.Context, url string) (*Conn, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	dialer := *websocket.DefaultDialer
	dialer.Jar = jar
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Conn{ws: ws}, nil
}

func (c *Conn) Send(name string, payload any) error {
	frame, err := protocol.Encode(name, payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

// ReadLoop hands every decoded event to apply until the connection fails
// or ctx is done.
func (c *Conn) ReadLoop(ctx context.Context, apply func(protocol.Envelope)) error {
	stop := context.AfterFunc(ctx, func() { _ = c.ws.Close() })
	defer stop()
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		env, err := protocol.Decode(data)
		if err != nil {
			log.Warn().Err(err).Str("module", "client.conn").Msg("bad frame")
			continue
		}
		apply(env)
	}
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	return c.ws.Close()
}
