package logic

import (
	"fmt"
	"strings"
)

type Input uint8

const (
	Up Input = iota
	Down
	Left
	Right
	CW
	CCW

	InputCount = 6
)

// AllInputs lists inputs in the order they are sampled each tick.
var AllInputs = [InputCount]Input{Up, Down, Left, Right, CCW, CW}

var inputNames = [InputCount]string{"up", "down", "left", "right", "cw", "ccw"}

func (i Input) String() string {
	if int(i) < len(inputNames) {
		return inputNames[i]
	}
	return fmt.Sprintf("Input(%d)", uint8(i))
}

func ParseInput(s string) (Input, error) {
	for i, name := range inputNames {
		if strings.EqualFold(name, s) {
			return Input(i), nil
		}
	}
	return 0, fmt.Errorf("unknown input %q", s)
}

func (i Input) MarshalText() ([]byte, error) {
	if int(i) >= InputCount {
		return nil, fmt.Errorf("invalid input %d", uint8(i))
	}
	return []byte(i.String()), nil
}

func (i *Input) UnmarshalText(text []byte) error {
	v, err := ParseInput(string(text))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

func (i Input) directional() bool {
	return i <= Right
}

// InputProvider is the raw key state source sampled once per tick.
type InputProvider interface {
	// Peek is called before the provider is queried for a tick.
	Peek()
	// Consume is called after the tick has been sampled.
	Consume()
	KeyJustPressed(input Input) bool
	KeyDown(input Input) bool
}

// Inputs turns provider samples into per-input hold and release durations.
type Inputs struct {
	held       [InputCount]uint16
	released   [InputCount]uint16
	tickstamps [InputCount]uint64
}

func NewInputs() *Inputs {
	return &Inputs{}
}

// keyDown resolves directional conflicts: of the held directions only the
// most recently pressed one counts.
func (in *Inputs) keyDown(input Input, provider InputProvider) bool {
	if !input.directional() {
		return provider.KeyDown(input)
	}
	stamp := in.tickstamps[input]
	for other := Up; other <= Right; other++ {
		if other != input && in.tickstamps[other] > stamp {
			return false
		}
	}
	return provider.KeyDown(input)
}

func (in *Inputs) Tick(tick uint64, provider InputProvider) {
	provider.Peek()
	for _, input := range AllInputs {
		if provider.KeyJustPressed(input) {
			in.tickstamps[input] = tick
		}
	}
	for _, input := range AllInputs {
		if in.keyDown(input, provider) {
			in.held[input] = inc(in.held[input])
			in.released[input] = 0
		} else {
			in.released[input] = inc(in.released[input])
			in.held[input] = 0
		}
	}
	provider.Consume()
}

func inc(v uint16) uint16 {
	if v == ^uint16(0) {
		return v
	}
	return v + 1
}

func (in *Inputs) KeyPressed(input Input) bool {
	return in.held[input] > 0
}

func (in *Inputs) KeyJustPressed(input Input) bool {
	return in.held[input] == 1
}

func (in *Inputs) KeyJustReleased(input Input) bool {
	return in.released[input] == 1
}

// HeldTicks is how many consecutive ticks the input has been down.
func (in *Inputs) HeldTicks(input Input) uint16 {
	return in.held[input]
}

// KeyPressOrDAS is true on the first tick of a press and on every tick once
// the input has been held longer than das ticks.
func (in *Inputs) KeyPressOrDAS(input Input, das uint16) bool {
	return in.KeyJustPressed(input) || in.held[input] > das
}

// KeySet is a simple provider backed by two sets of inputs. Press and
// Release mutate it between ticks; Consume clears the just-pressed set.
type KeySet struct {
	justPressed [InputCount]bool
	down        [InputCount]bool
}

func (k *KeySet) Press(input Input) {
	if !k.down[input] {
		k.justPressed[input] = true
	}
	k.down[input] = true
}

func (k *KeySet) Release(input Input) {
	k.justPressed[input] = false
	k.down[input] = false
}

func (k *KeySet) Reset() {
	*k = KeySet{}
}

func (k *KeySet) Peek()                           {}
func (k *KeySet) Consume()                        { k.justPressed = [InputCount]bool{} }
func (k *KeySet) KeyJustPressed(input Input) bool { return k.justPressed[input] }
func (k *KeySet) KeyDown(input Input) bool        { return k.down[input] }
