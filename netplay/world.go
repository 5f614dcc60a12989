package netplay

import (
	"sync"

	"github.com/google/uuid"

	"github.com/edrefis/edrefis/logic"
)

// Result describes a game a client played to the end.
type Result struct {
	ClientID uuid.UUID
	Seed     uint32
	Level    uint32
	Lines    uint32
	Ticks    uint64
}

// Recorder is told about every game that ends on the server. It is called
// with the world locked and must not call back into it.
type Recorder interface {
	RecordGame(result Result)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(result Result)

func (f RecorderFunc) RecordGame(result Result) { f(result) }

type client struct {
	field  *logic.Field
	inputs *logic.Inputs
	keys   logic.KeySet
	tick   uint64
	// ticks since the current game started
	played uint64
	queue  []Message
}

// World is the server's copy of every connected client's game. Each field
// advances only when its owner sends a tick, with the inputs the owner
// sent before it.
type World struct {
	mu       sync.Mutex
	clients  map[uuid.UUID]*client
	order    []uuid.UUID
	seed     uint32
	recorder Recorder
}

func NewWorld(seed uint32, recorder Recorder) *World {
	return &World{
		clients:  make(map[uuid.UUID]*client),
		seed:     seed,
		recorder: recorder,
	}
}

// Join adds a client with a fresh field. The newcomer is sent every other
// field and the others are sent the newcomer's. Joining twice restarts the
// client.
func (w *World) Join(id uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.clients[id]; ok {
		w.removeLocked(id)
	}
	c := &client{
		field:  logic.NewSeededField(w.seed),
		inputs: logic.NewInputs(),
	}
	for _, other := range w.order {
		c.queue = append(c.queue, Join{ClientID: other, Field: w.clients[other].field.Clone()})
	}
	w.clients[id] = c
	w.order = append(w.order, id)
	w.broadcastLocked(id, Join{ClientID: id, Field: c.field.Clone()})
}

// Leave removes a client and tells the others.
func (w *World) Leave(id uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.clients[id]; !ok {
		return
	}
	w.removeLocked(id)
	w.broadcastLocked(id, Leave{ClientID: id})
}

func (w *World) removeLocked(id uuid.UUID) {
	delete(w.clients, id)
	for i, other := range w.order {
		if other == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// Input presses or releases one of the client's keys and relays it.
func (w *World) Input(id uuid.UUID, input logic.Input, down bool) {
	if int(input) >= logic.InputCount {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	c, ok := w.clients[id]
	if !ok {
		return
	}
	if down {
		c.keys.Press(input)
	} else {
		c.keys.Release(input)
	}
	w.broadcastLocked(id, Input{ClientID: id, Input: input, Down: down})
}

// Tick advances the client's field by one tick and relays it.
func (w *World) Tick(id uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, ok := w.clients[id]
	if !ok {
		return
	}
	wasOver := c.field.State.Phase == logic.PhaseGameOver
	c.tick++
	c.inputs.Tick(c.tick, &c.keys)
	c.field.Update(c.inputs, logic.Nop{}, logic.Nop{})
	c.played++

	over := c.field.State.Phase == logic.PhaseGameOver
	switch {
	case over && !wasOver:
		if w.recorder != nil {
			w.recorder.RecordGame(Result{
				ClientID: id,
				Seed:     c.field.Seed,
				Level:    c.field.Level,
				Lines:    c.field.Lines,
				Ticks:    c.played,
			})
		}
	case wasOver && !over:
		// the client starts the new game with fresh inputs too
		c.inputs = logic.NewInputs()
		c.played = 0
	}
	w.broadcastLocked(id, Tick{ClientID: id})
}

// Drain returns and forgets the messages queued for a client.
func (w *World) Drain(id uuid.UUID) []Message {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, ok := w.clients[id]
	if !ok || len(c.queue) == 0 {
		return nil
	}
	out := c.queue
	c.queue = nil
	return out
}

// Field returns a copy of the client's field.
func (w *World) Field(id uuid.UUID) (*logic.Field, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, ok := w.clients[id]
	if !ok {
		return nil, false
	}
	return c.field.Clone(), true
}

// Clients lists connected clients in join order.
func (w *World) Clients() []uuid.UUID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]uuid.UUID(nil), w.order...)
}

func (w *World) broadcastLocked(from uuid.UUID, m Message) {
	for _, id := range w.order {
		if id == from {
			continue
		}
		c := w.clients[id]
		c.queue = append(c.queue, m)
	}
}
