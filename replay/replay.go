// Package replay records the raw input of a game tick by tick and plays it
// back. Because the rules are deterministic for a given seed, the frames
// alone reproduce the whole game.
package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/edrefis/edrefis/logic"
)

// InputSet is a set of inputs, one bit per logic.Input.
type InputSet uint8

func (s InputSet) Has(input logic.Input) bool {
	return s&(1<<input) != 0
}

func (s InputSet) With(input logic.Input) InputSet {
	return s | 1<<input
}

// Frame is what an input provider reported for one tick.
type Frame struct {
	Pressed InputSet `json:"p,omitempty"`
	Held    InputSet `json:"h,omitempty"`
}

// Sample reads the current state of provider without consuming it.
func Sample(provider logic.InputProvider) Frame {
	var f Frame
	for _, input := range logic.AllInputs {
		if provider.KeyJustPressed(input) {
			f.Pressed = f.Pressed.With(input)
		}
		if provider.KeyDown(input) {
			f.Held = f.Held.With(input)
		}
	}
	return f
}

type Replay struct {
	ID        uuid.UUID `json:"id"`
	Seed      uint32    `json:"seed"`
	Player    string    `json:"player,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Frames    []Frame   `json:"frames"`
}

func New(seed uint32, player string) *Replay {
	return &Replay{
		ID:        uuid.New(),
		Seed:      seed,
		Player:    player,
		CreatedAt: time.Now().UTC(),
	}
}

// Ticks is the number of recorded ticks.
func (r *Replay) Ticks() int {
	return len(r.Frames)
}

var ErrInvalid = errors.New("invalid replay")

func (r *Replay) Validate() error {
	if r.ID == uuid.Nil {
		return fmt.Errorf("%w: missing id", ErrInvalid)
	}
	const all = InputSet(1<<logic.InputCount - 1)
	for i, f := range r.Frames {
		if f.Pressed&^all != 0 || f.Held&^all != 0 {
			return fmt.Errorf("%w: frame %d has unknown inputs", ErrInvalid, i)
		}
	}
	return nil
}

func Save(w io.Writer, r *Replay) error {
	if err := json.NewEncoder(w).Encode(r); err != nil {
		return fmt.Errorf("encode replay: %w", err)
	}
	return nil
}

func Load(rd io.Reader) (*Replay, error) {
	var r Replay
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode replay: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Marshal and Unmarshal are Save and Load for byte slices, as stored in
// the records database.
func Marshal(r *Replay) ([]byte, error) {
	return json.Marshal(r)
}

func Unmarshal(data []byte) (*Replay, error) {
	var r Replay
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode replay: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func SaveFile(path string, r *Replay) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Save(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func LoadFile(path string) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// FileName is the default file name for r.
func FileName(r *Replay) string {
	return fmt.Sprintf("%s-%s.json", r.CreatedAt.Format("20060102-150405"), r.ID.String()[:8])
}
