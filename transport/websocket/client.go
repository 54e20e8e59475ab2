package websocket

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	gorilla "github.com/gorilla/websocket"
)

// Client is one websocket connection. Reads and writes run in their own
// goroutines; everything else talks to it through enqueue.
type Client struct {
	logger  *slog.Logger
	handle  string
	conn    *gorilla.Conn
	options Options

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(logger *slog.Logger, handle string, conn *gorilla.Conn, options Options) *Client {
	return &Client{
		logger:  logger.With("handle", handle),
		handle:  handle,
		conn:    conn,
		options: options,
		send:    make(chan []byte, options.SendBuffer),
		done:    make(chan struct{}),
	}
}

// enqueue never blocks. It reports false when the client is closed or its
// buffer is full.
func (that *Client) enqueue(data []byte) bool {
	select {
	case <-that.done:
		return false
	default:
	}

	select {
	case that.send <- data:
		return true
	default:
		return false
	}
}

func (that *Client) close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

// readPump blocks until the peer goes away and hands every text frame to onMessage.
func (that *Client) readPump(onMessage func(data []byte)) {
	log := that.logger.With("method", "readPump")

	defer that.close()

	that.conn.SetReadLimit(that.options.MaxMessageSize)
	if err := that.conn.SetReadDeadline(time.Now().Add(that.options.PongWait)); err != nil {
		log.Error("failed to set read deadline", "error", err)
		return
	}

	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(that.options.PongWait))
	})

	for {
		_, data, err := that.conn.ReadMessage()
		if err != nil {
			if gorilla.IsUnexpectedCloseError(err, gorilla.CloseGoingAway, gorilla.CloseNormalClosure) {
				log.Warn("connection closed unexpectedly", "error", err)
			}

			return
		}

		onMessage(data)
	}
}

// writePump owns every write to the connection.
func (that *Client) writePump() {
	log := that.logger.With("method", "writePump")

	ticker := time.NewTicker(that.options.PingPeriod)
	defer func() {
		ticker.Stop()
		that.close()

		if err := that.conn.Close(); err != nil && !errors.Is(err, gorilla.ErrCloseSent) {
			log.Debug("failed to close connection", "error", err)
		}
	}()

	for {
		select {
		case data := <-that.send:
			if err := that.write(gorilla.TextMessage, data); err != nil {
				log.Debug("failed to write message", "error", err)
				return
			}

			// flush what queued up meanwhile, one frame per event
			for range len(that.send) {
				if err := that.write(gorilla.TextMessage, <-that.send); err != nil {
					log.Debug("failed to write message", "error", err)
					return
				}
			}

		case <-ticker.C:
			if err := that.write(gorilla.PingMessage, nil); err != nil {
				log.Debug("failed to write ping", "error", err)
				return
			}

		case <-that.done:
			_ = that.write(gorilla.CloseMessage, gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, ""))
			return
		}
	}
}

func (that *Client) write(messageType int, data []byte) error {
	if err := that.conn.SetWriteDeadline(time.Now().Add(that.options.WriteWait)); err != nil {
		return err
	}

	return that.conn.WriteMessage(messageType, data)
}
