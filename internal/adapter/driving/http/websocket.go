package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Wyydra/inplay/internal/core/domain"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	errClientClosed   = errors.New("client closed")
	errSendBufferFull = errors.New("send buffer full")
)

type outboundDTO struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type WSClient struct {
	id   domain.ConnID
	conn *websocket.Conn
	opts Options

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newWSClient(id domain.ConnID, conn *websocket.Conn, opts Options) *WSClient {
	return &WSClient{
		id:   id,
		conn: conn,
		opts: opts,
		send: make(chan []byte, opts.SendBuffer),
		done: make(chan struct{}),
	}
}

func (c *WSClient) ID() domain.ConnID {
	return c.id
}

// Send queues ev for the write pump without blocking.
func (c *WSClient) Send(ev domain.Event) error {
	data, err := json.Marshal(outboundDTO{Event: ev.Name, Data: ev.Data})
	if err != nil {
		return errors.Wrapf(err, "encode %s", ev.Name)
	}

	select {
	case <-c.done:
		return errClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *WSClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// HTTP handler
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Error while upgrading ws")
		return
	}

	client := newWSClient(domain.NewConnID(), conn, h.opts)

	l := log.With().Str("conn_id", client.id.String()).Logger()
	l.Info().Str("remote_addr", r.RemoteAddr).Msg("New client connected")

	h.Hub.Register(client)
	go client.writePump()

	ctx := context.WithoutCancel(r.Context())

	defer func() {
		h.Lifecycle.Disconnect(ctx, client.id)
		h.Hub.Unregister(client)
		client.Close()
		l.Info().Msg("Client disconnected")
	}()

	if err := client.Send(domain.NewEvent(domain.EventConnected, domain.ConnectedPayload{ConnectionID: client.id})); err != nil {
		l.Error().Err(err).Msg("Failed to greet client")
		return
	}

	conn.SetReadLimit(h.opts.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
	})

	// listening for browser
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				l.Error().Err(err).Msg("Unexpected close error")
			}
			break
		}

		h.dispatch(ctx, client.id, data)
	}
}
