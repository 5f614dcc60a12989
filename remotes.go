package edrefis

import (
	"slices"

	"github.com/google/uuid"

	"github.com/edrefis/edrefis/logic"
	"github.com/edrefis/edrefis/netplay"
)

// RemoteBoard is another player's field, advanced by the ticks they send.
type RemoteBoard struct {
	ID     uuid.UUID
	Field  *logic.Field
	Inputs *logic.Inputs
	Keys   logic.KeySet
	Ticks  uint64
}

// Tick advances the board by one of its owner's ticks. Like the local
// game, a restart after game over starts from fresh inputs.
func (b *RemoteBoard) Tick() {
	wasOver := b.Field.State.Phase == logic.PhaseGameOver
	b.Ticks++
	b.Inputs.Tick(b.Ticks, &b.Keys)
	b.Field.Update(b.Inputs, logic.Nop{}, logic.Nop{})
	if wasOver && b.Field.State.Phase != logic.PhaseGameOver {
		b.Inputs = logic.NewInputs()
	}
}

// Key presses or releases one of the owner's keys before their next tick.
func (b *RemoteBoard) Key(input logic.Input, down bool) {
	if int(input) >= logic.InputCount {
		return
	}
	if down {
		b.Keys.Press(input)
	} else {
		b.Keys.Release(input)
	}
}

// Name is the short form of the owner's id shown above the board.
func (b *RemoteBoard) Name() string {
	return b.ID.String()[:8]
}

// Remotes holds the boards of the other players, in join order.
type Remotes struct {
	Boards []*RemoteBoard
}

func (r *Remotes) Find(id uuid.UUID) *RemoteBoard {
	i := slices.IndexFunc(r.Boards, func(b *RemoteBoard) bool { return b.ID == id })
	if i < 0 {
		return nil
	}
	return r.Boards[i]
}

// Join adds a board for id starting from field, replacing any board the
// player already had.
func (r *Remotes) Join(id uuid.UUID, field *logic.Field) *RemoteBoard {
	r.Leave(id)
	b := &RemoteBoard{ID: id, Field: field, Inputs: logic.NewInputs()}
	r.Boards = append(r.Boards, b)
	return b
}

func (r *Remotes) Leave(id uuid.UUID) {
	r.Boards = slices.DeleteFunc(r.Boards, func(b *RemoteBoard) bool { return b.ID == id })
}

// Apply updates the boards from one message relayed by the server.
func (r *Remotes) Apply(m netplay.Message) {
	switch m := m.(type) {
	case netplay.Join:
		field := m.Field
		if field == nil {
			field = logic.NewField()
		}
		r.Join(m.ClientID, field)
	case netplay.Leave:
		r.Leave(m.ClientID)
	case netplay.Input:
		if b := r.Find(m.ClientID); b != nil {
			b.Key(m.Input, m.Down)
		}
	case netplay.Tick:
		if b := r.Find(m.ClientID); b != nil {
			b.Tick()
		}
	}
}
