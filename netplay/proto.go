// Package netplay relays play between clients. The server runs every
// client's field alongside them from the inputs and ticks they send, so
// that newcomers can be handed a snapshot of everyone else.
package netplay

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/edrefis/edrefis/logic"
)

type Kind string

const (
	KindJoin  Kind = "join"
	KindLeave Kind = "leave"
	KindInput Kind = "input"
	KindTick  Kind = "tick"
)

var ErrUnknownMessage = errors.New("netplay: unknown message")

// Message is one protocol message. Clients send Join, Input and Tick with
// their own id; the server relays them with the sender's id filled in and
// adds Leave.
type Message interface {
	Kind() Kind
}

// Join announces a client. From the server it carries the client's field.
type Join struct {
	ClientID uuid.UUID    `json:"client_id"`
	Field    *logic.Field `json:"field,omitempty"`
}

type Leave struct {
	ClientID uuid.UUID `json:"client_id"`
}

// Input reports a key going down or up.
type Input struct {
	ClientID uuid.UUID   `json:"client_id"`
	Input    logic.Input `json:"input"`
	Down     bool        `json:"down"`
}

// Tick advances the sender's field by one tick.
type Tick struct {
	ClientID uuid.UUID `json:"client_id"`
}

func (Join) Kind() Kind  { return KindJoin }
func (Leave) Kind() Kind { return KindLeave }
func (Input) Kind() Kind { return KindInput }
func (Tick) Kind() Kind  { return KindTick }

type envelope struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data"`
}

func Encode(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Kind(), err)
	}
	return json.Marshal(envelope{Type: m.Kind(), Data: data})
}

func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	var m Message
	var err error
	switch env.Type {
	case KindJoin:
		m, err = decodeAs[Join](env.Data)
	case KindLeave:
		m, err = decodeAs[Leave](env.Data)
	case KindInput:
		m, err = decodeAs[Input](env.Data)
	case KindTick:
		m, err = decodeAs[Tick](env.Data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return m, nil
}

func decodeAs[T Message](data json.RawMessage) (T, error) {
	var m T
	if len(data) == 0 {
		return m, nil
	}
	err := json.Unmarshal(data, &m)
	return m, err
}
