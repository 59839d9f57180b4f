/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Wire event names.
const (
	eventJoin    = "join"
	eventLeave   = "leave"
	eventMessage = "message"
	eventStatus  = "status"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Envelope is one websocket frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Outbound payloads.
type JoinPayload struct {
	Room string   `json:"room" validate:"required"`
	User Identity `json:"user"`
}

type LeavePayload = JoinPayload

type SendPayload struct {
	Room string   `json:"room" validate:"required"`
	Msg  string   `json:"msg" validate:"required"`
	User Identity `json:"user"`
}

// ChatEvent is an inbound event that can be rendered.
type ChatEvent interface {
	chatEvent()
}

// StatusEvent is a system notice with no sender.
type StatusEvent struct {
	Text string `json:"msg" validate:"required"`
}

// MessageEvent is a line sent by a user.
type MessageEvent struct {
	User string `json:"user" validate:"required"`
	Text string `json:"msg" validate:"required"`
}

// UnmarshalJSON accepts the sender either as a plain name or as an
// identity object, since the relay echoes whatever the sender emitted.
func (m *MessageEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		User json.RawMessage `json:"user"`
		Msg  string          `json:"msg"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Text = raw.Msg
	m.User = ""

	if len(raw.User) == 0 {
		return nil
	}
	if raw.User[0] == '{' {
		var id Identity
		if err := json.Unmarshal(raw.User, &id); err != nil {
			return err
		}
		m.User = id.DisplayName
		return nil
	}
	if raw.User[0] == '"' {
		return json.Unmarshal(raw.User, &m.User)
	}
	return nil
}

func (StatusEvent) chatEvent()  {}
func (MessageEvent) chatEvent() {}

// decodeChatEvent validates an inbound payload for the named event.
func decodeChatEvent(event string, data []byte) (ChatEvent, error) {
	switch event {
	case eventStatus:
		var ev StatusEvent
		if err := decodeValid(data, &ev); err != nil {
			return nil, fmt.Errorf("%s event: %w", event, err)
		}
		return ev, nil
	case eventMessage:
		var ev MessageEvent
		if err := decodeValid(data, &ev); err != nil {
			return nil, fmt.Errorf("%s event: %w", event, err)
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown event %q", event)
	}
}

func decodeValid(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	return validate.Struct(v)
}
