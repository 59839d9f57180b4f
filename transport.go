/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

//go:generate go run go.uber.org/mock/mockgen -source=transport.go -destination=mock_transport_test.go -package=main

// Transport is a bidirectional event channel over a persistent connection.
// Handlers for one connection are called from a single goroutine, in the
// order events arrive.
type Transport interface {
	Connect(ctx context.Context, endpoint string) error
	Emit(event string, payload any) error
	On(event string, handler func(data json.RawMessage))
	Done() <-chan struct{}
	Close() error
}

// WSTransport carries events as {"event", "data"} json frames over a websocket.
type WSTransport struct {
	cfg    *Config
	dialer *websocket.Dialer
	header http.Header

	mu       sync.RWMutex
	handlers map[string][]func(json.RawMessage)
	conn     *websocket.Conn

	send      chan Envelope
	quit      chan struct{}
	flushed   chan struct{}
	done      chan struct{}
	quitOnce  sync.Once
	closeOnce sync.Once
}

func newWSTransport(cfg *Config, header http.Header) *WSTransport {
	return &WSTransport{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.timeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
		header:   header,
		handlers: make(map[string][]func(json.RawMessage)),
		send:     make(chan Envelope, 64),
		quit:     make(chan struct{}),
		flushed:  make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (t *WSTransport) On(event string, handler func(data json.RawMessage)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.handlers[event] = append(t.handlers[event], handler)
}

func (t *WSTransport) Connect(ctx context.Context, endpoint string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return errors.New("transport already connected")
	}

	conn, resp, err := t.dialer.DialContext(ctx, endpoint, t.header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (status %d)", endpoint, err, resp.StatusCode)
		}
		return fmt.Errorf("dial %s: %w", endpoint, err)
	}

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	t.conn = conn

	logf(t.cfg, "CHAT: Connected to %s", endpoint)

	go t.writePump(conn)
	go t.readPump(conn)

	return nil
}

func (t *WSTransport) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}

	t.mu.RLock()
	connected := t.conn != nil
	t.mu.RUnlock()

	if !connected {
		return errors.New("transport not connected")
	}

	select {
	case <-t.done:
		return ErrTransportClosed
	case <-t.quit:
		return ErrTransportClosed
	default:
	}

	select {
	case t.send <- Envelope{Event: event, Data: data}:
		return nil
	case <-t.done:
		return ErrTransportClosed
	}
}

func (t *WSTransport) Done() <-chan struct{} {
	return t.done
}

// Close flushes queued events, sends a close frame and tears down the
// connection.
func (t *WSTransport) Close() error {
	t.mu.RLock()
	conn := t.conn
	t.mu.RUnlock()

	t.quitOnce.Do(func() {
		close(t.quit)
	})

	if conn == nil {
		t.shutdown()
		return nil
	}

	select {
	case <-t.flushed:
	case <-t.done:
	case <-time.After(writeWait):
	}

	t.shutdown()

	return conn.Close()
}

func (t *WSTransport) shutdown() {
	t.closeOnce.Do(func() {
		close(t.done)
	})
}

func (t *WSTransport) readPump(conn *websocket.Conn) {
	defer func() {
		t.shutdown()
		_ = conn.Close()
	}()

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logf(t.cfg, "CHAT: Read error: %v", err)
			}
			return
		}

		logf(t.cfg, "CHAT: Received %s event (%s)", env.Event, humanReadableSize(len(env.Data)))

		t.mu.RLock()
		handlers := t.handlers[env.Event]
		t.mu.RUnlock()

		for _, handler := range handlers {
			handler(env.Data)
		}
	}
}

func (t *WSTransport) writePump(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(t.flushed)
	}()

	for {
		select {
		case env := <-t.send:
			if err := t.write(conn, env); err != nil {
				logf(t.cfg, "CHAT: Write error: %v", err)
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				logf(t.cfg, "CHAT: Ping error: %v", err)
				_ = conn.Close()
				return
			}
		case <-t.quit:
			for {
				select {
				case env := <-t.send:
					if err := t.write(conn, env); err != nil {
						return
					}
				default:
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
						time.Now().Add(writeWait))
					return
				}
			}
		case <-t.done:
			return
		}
	}
}

func (t *WSTransport) write(conn *websocket.Conn, env Envelope) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(env); err != nil {
		logf(t.cfg, "CHAT: Write error: %v", err)
		return err
	}

	logf(t.cfg, "CHAT: Sent %s event (%s)", env.Event, humanReadableSize(len(env.Data)))

	return nil
}
