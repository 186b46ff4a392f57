package voice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	dialTimeout  = 10 * time.Second
	writeTimeout = 5 * time.Second
	eventBuffer  = 64
)

// WSChannel talks to the voice provider over a websocket. One channel serves
// one call; create a fresh channel per session.
type WSChannel struct {
	URL    string
	Token  string
	Logger *zap.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	events    chan Event
	closeOnce sync.Once
}

func NewWSChannel(url, token string, logger *zap.Logger) *WSChannel {
	return &WSChannel{
		URL:    url,
		Token:  token,
		Logger: logger,
		events: make(chan Event, eventBuffer),
	}
}

// Connect dials the provider, sends the session config and starts the read
// pump. The returned error covers dialing and the initial handshake only;
// later failures surface as error events.
func (c *WSChannel) Connect(ctx context.Context, cfg SessionConfig) error {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	header := http.Header{}
	if c.Token != "" {
		header.Set("Authorization", "Bearer "+c.Token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.URL, header)
	if err != nil {
		return &ChannelError{Op: "connect", Err: err}
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	if err := c.writeJSON(map[string]interface{}{
		"type":   "start",
		"config": cfg,
	}); err != nil {
		c.Disconnect()
		return &ChannelError{Op: "start", Err: err}
	}

	go c.readPump()
	return nil
}

// Events delivers provider notifications. The channel is closed when the
// call ends or the connection drops.
func (c *WSChannel) Events() <-chan Event {
	return c.events
}

// Disconnect closes the call. Safe to call more than once and from multiple
// goroutines.
func (c *WSChannel) Disconnect() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}
		deadline := time.Now().Add(writeTimeout)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		err = conn.Close()
	})
	return err
}

func (c *WSChannel) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return &ChannelError{Op: "write", Err: websocket.ErrCloseSent}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

// readPump translates provider frames into Events until the socket closes.
func (c *WSChannel) readPump() {
	defer close(c.events)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			c.emit(Event{Type: EventError, Err: &ChannelError{Op: "read", Err: err}})
			return
		}

		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.Logger.Warn("discarding malformed provider frame", zap.Error(err))
			continue
		}
		switch ev.Type {
		case EventCallStart, EventCallEnd, EventSpeechStart, EventSpeechEnd, EventTranscript:
			c.emit(ev)
			if ev.Type == EventCallEnd {
				return
			}
		case EventError:
			if ev.Err == nil {
				ev.Err = &ChannelError{Op: "provider", Err: errProviderReported}
			}
			c.emit(ev)
		default:
			c.Logger.Debug("ignoring provider event", zap.String("type", ev.Type))
		}
	}
}

// emit drops events when the consumer has fallen far behind rather than
// blocking the read pump.
func (c *WSChannel) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.Logger.Warn("event buffer full, dropping event", zap.String("type", ev.Type))
	}
}

var errProviderReported = errors.New("provider reported an error")
