/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Chatroom session
//
// A Chatroom is bound to one room and one identity for its whole life.
// Joining a different room needs a new Chatroom.
//
//   Uninitialized -> NoRoom            room missing; alert, nothing opened
//   Uninitialized -> Unauthenticated   no usable token; redirect to login
//   Uninitialized -> Joining -> Active join is emitted without waiting for an ack
//   Active        -> Closed            transport ended or the user left
//
// Inbound events are rendered in the order the transport delivers them.
// There is no buffering, reordering, deduplication or reconnection here.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type SessionState int

const (
	StateUninitialized SessionState = iota
	StateNoRoom
	StateUnauthenticated
	StateJoining
	StateActive
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateNoRoom:
		return "no-room"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateJoining:
		return "joining"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Views a Navigator can send the user to.
const (
	viewIndex = "index"
	viewLogin = "login"
)

// Navigator surfaces blocking conditions to the user.
type Navigator interface {
	Alert(msg string)
	Redirect(view string)
}

// Renderer appends chat lines to the visible log.
type Renderer interface {
	Status(text string)
	Message(user, text string)
}

// InputField is the box the user types chat lines into.
type InputField interface {
	Value() string
	Clear()
}

type Chatroom struct {
	cfg       *Config
	id        string
	room      string
	identity  Identity
	store     CredentialStore
	transport Transport
	view      Renderer
	nav       Navigator

	mu     sync.Mutex
	state  SessionState
	closed chan struct{}
}

func newChatroom(cfg *Config, room string, resolver *SessionResolver, store CredentialStore,
	transport Transport, view Renderer, nav Navigator) *Chatroom {
	c := &Chatroom{
		cfg:       cfg,
		id:        uuid.NewString(),
		room:      strings.TrimSpace(room),
		store:     store,
		transport: transport,
		view:      view,
		nav:       nav,
		state:     StateUninitialized,
		closed:    make(chan struct{}),
	}

	if c.room == "" {
		c.state = StateNoRoom
		nav.Alert("No chatroom specified.")
		return c
	}

	identity, ok := resolver.ResolveIdentity()
	if !ok {
		c.state = StateUnauthenticated
		nav.Alert("You need to be logged in to join the chatroom.")
		nav.Redirect(viewLogin)
		return c
	}
	c.identity = identity

	return c
}

func (c *Chatroom) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

func (c *Chatroom) setState(s SessionState) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()

	logf(c.cfg, "CHAT: Session %s %s -> %s", c.id, prev, s)
}

func (c *Chatroom) Room() string {
	return c.room
}

func (c *Chatroom) Identity() Identity {
	return c.identity
}

// Join opens the transport and announces this identity to the room.
func (c *Chatroom) Join(ctx context.Context) error {
	switch c.State() {
	case StateNoRoom:
		return ErrMissingRoom
	case StateUnauthenticated:
		return ErrUnauthenticated
	case StateUninitialized:
	default:
		return fmt.Errorf("join in state %s", c.State())
	}

	c.setState(StateJoining)

	c.transport.On(eventStatus, c.inbound(eventStatus))
	c.transport.On(eventMessage, c.inbound(eventMessage))

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	if err := c.transport.Connect(dialCtx, c.cfg.chatEndpoint()); err != nil {
		c.setState(StateClosed)
		return err
	}

	if err := c.transport.Emit(eventJoin, JoinPayload{Room: c.room, User: c.identity}); err != nil {
		c.setState(StateClosed)
		_ = c.transport.Close()
		return fmt.Errorf("join room %s: %w", c.room, err)
	}

	c.setState(StateActive)

	go c.watch(c.transport.Done())

	return nil
}

// watch marks the session closed once the transport ends. The read loop has
// dispatched every event by then, so the notice is always the last line.
func (c *Chatroom) watch(done <-chan struct{}) {
	defer close(c.closed)

	<-done

	c.mu.Lock()
	wasActive := c.state == StateActive
	c.state = StateClosed
	c.mu.Unlock()

	if wasActive {
		c.view.Status("Disconnected from chat server.")
		logf(c.cfg, "CHAT: Session %s transport closed", c.id)
	}
}

func (c *Chatroom) inbound(event string) func(json.RawMessage) {
	return func(data json.RawMessage) {
		ev, err := decodeChatEvent(event, data)
		if err != nil {
			logf(c.cfg, "CHAT: Dropped malformed event: %v", err)
			return
		}

		switch e := ev.(type) {
		case StatusEvent:
			c.view.Status(e.Text)
		case MessageEvent:
			c.view.Message(e.User, e.Text)
		}
	}
}

// Submit sends the field's trimmed text to the room and clears the field.
// Blank input is ignored.
func (c *Chatroom) Submit(field InputField) error {
	msg := strings.TrimSpace(field.Value())
	if msg == "" {
		return nil
	}

	if s := c.State(); s != StateActive {
		if s == StateClosed {
			return ErrTransportClosed
		}
		return fmt.Errorf("submit in state %s", s)
	}

	if err := c.transport.Emit(eventMessage, SendPayload{Room: c.room, Msg: msg, User: c.identity}); err != nil {
		return err
	}

	field.Clear()

	return nil
}

// Logout forgets the stored token and returns to the index view. The
// transport is left to the caller's teardown.
func (c *Chatroom) Logout() error {
	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	if c.State() == StateActive {
		c.setState(StateClosed)
	}

	c.nav.Alert("You have been logged out.")
	c.nav.Redirect(viewIndex)

	return nil
}

// Leave tells the room this identity is going away and closes the transport.
func (c *Chatroom) Leave() error {
	if c.State() != StateActive {
		return nil
	}

	err := c.transport.Emit(eventLeave, LeavePayload{Room: c.room, User: c.identity})

	c.setState(StateClosed)

	if cerr := c.transport.Close(); err == nil {
		err = cerr
	}

	return err
}

// Done is closed once a joined session has ended and its last line has
// been rendered.
func (c *Chatroom) Done() <-chan struct{} {
	return c.closed
}

// Run feeds lines into the session until the input ends, the context is
// cancelled, or the transport closes. "/quit" leaves the room and "/logout"
// logs out.
func (c *Chatroom) Run(ctx context.Context, lines <-chan string) error {
	field := &lineInput{}

	for {
		select {
		case <-ctx.Done():
			return c.Leave()
		case <-c.Done():
			return ErrTransportClosed
		case line, ok := <-lines:
			if !ok {
				return c.Leave()
			}

			switch strings.TrimSpace(line) {
			case "/quit":
				return c.Leave()
			case "/logout":
				return c.Logout()
			}

			field.Set(line)
			if err := c.Submit(field); err != nil {
				return err
			}
		}
	}
}

// lineInput is a single-line InputField.
type lineInput struct {
	text string
}

func (l *lineInput) Set(text string) { l.text = text }
func (l *lineInput) Value() string   { return l.text }
func (l *lineInput) Clear()          { l.text = "" }
