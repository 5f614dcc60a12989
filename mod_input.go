package edrefis

import (
	"fmt"
	"slices"

	"github.com/edrefis/edrefis/logic"
)

// Keyboard tracks keys by their DOM KeyboardEvent.code name, whichever
// platform delivered them.
type Keyboard struct {
	down        map[string]bool
	justPressed map[string]bool
}

func NewKeyboard() *Keyboard {
	return &Keyboard{
		down:        make(map[string]bool),
		justPressed: make(map[string]bool),
	}
}

// Press marks code as held. Repeated presses of a held key, as produced by
// keyboard auto-repeat, do not count as new presses.
func (k *Keyboard) Press(code string) {
	if !k.down[code] {
		k.justPressed[code] = true
	}
	k.down[code] = true
}

// Release forgets code, including a press not yet consumed.
func (k *Keyboard) Release(code string) {
	delete(k.down, code)
	delete(k.justPressed, code)
}

func (k *Keyboard) Down(code string) bool {
	return k.down[code]
}

func (k *Keyboard) JustPressed(code string) bool {
	return k.justPressed[code]
}

func (k *Keyboard) ClearJustPressed() {
	clear(k.justPressed)
}

// Reset releases every key, as needed when the window loses focus.
func (k *Keyboard) Reset() {
	clear(k.down)
	clear(k.justPressed)
}

// Keymap binds each game input to one or more key codes.
type Keymap [logic.InputCount][]string

func DefaultKeymap() Keymap {
	var km Keymap
	km[logic.Up] = []string{"ArrowUp"}
	km[logic.Down] = []string{"ArrowDown"}
	km[logic.Left] = []string{"ArrowLeft"}
	km[logic.Right] = []string{"ArrowRight"}
	km[logic.CW] = []string{"KeyX"}
	km[logic.CCW] = []string{"KeyZ"}
	return km
}

// KeymapFromNames builds a keymap from input names ("up", "cw", ...) to
// codes. Inputs left out keep their default binding.
func KeymapFromNames(bindings map[string][]string) (Keymap, error) {
	km := DefaultKeymap()
	for name, codes := range bindings {
		input, err := logic.ParseInput(name)
		if err != nil {
			return km, fmt.Errorf("keymap: %w", err)
		}
		if len(codes) == 0 {
			return km, fmt.Errorf("keymap: %s has no keys", name)
		}
		km[input] = slices.Clone(codes)
	}
	return km, nil
}

// Codes lists every bound code once.
func (km *Keymap) Codes() []string {
	var codes []string
	for _, bound := range km {
		for _, code := range bound {
			if !slices.Contains(codes, code) {
				codes = append(codes, code)
			}
		}
	}
	return codes
}

// KeyboardInput is the logic.InputProvider for a local player.
type KeyboardInput struct {
	Keyboard *Keyboard
	Keymap   *Keymap
}

func (k *KeyboardInput) Peek() {}

func (k *KeyboardInput) Consume() {
	k.Keyboard.ClearJustPressed()
}

func (k *KeyboardInput) KeyJustPressed(input logic.Input) bool {
	return slices.ContainsFunc(k.Keymap[input], k.Keyboard.JustPressed)
}

func (k *KeyboardInput) KeyDown(input logic.Input) bool {
	return slices.ContainsFunc(k.Keymap[input], k.Keyboard.Down)
}

// PlayerInput is the local player's input state, sampled once per tick
// from Source.
type PlayerInput struct {
	Inputs *logic.Inputs
	Source logic.InputProvider
}

// Wrap replaces Source with a decorator around it.
func (p *PlayerInput) Wrap(wrap func(logic.InputProvider) logic.InputProvider) {
	p.Source = wrap(p.Source)
}

type InputModule struct {
	// Keymap defaults to DefaultKeymap.
	Keymap *Keymap
	// QuitKey ends the app when pressed; empty disables it.
	QuitKey string
	// Reload delivers keymaps that replace the current one between frames.
	Reload <-chan Keymap
}

func (mod InputModule) Install(app *App, cmd *Commands) {
	MustResource[Time](app)

	keymap := mod.Keymap
	if keymap == nil {
		km := DefaultKeymap()
		keymap = &km
	}
	keyboard := NewKeyboard()
	cmd.AddResources(
		keyboard,
		keymap,
		&PlayerInput{
			Inputs: logic.NewInputs(),
			Source: &KeyboardInput{Keyboard: keyboard, Keymap: keymap},
		},
	)

	cmd.UseSystem(System(inputSampleSystem).InStage(PreUpdate))

	if mod.Reload != nil {
		reload := mod.Reload
		log := app.Logger()
		cmd.UseSystem(System(func(km *Keymap) {
			for reload != nil {
				select {
				case next, ok := <-reload:
					if !ok {
						reload = nil
						return
					}
					*km = next
					log.Infof("key bindings reloaded")
				default:
					return
				}
			}
		}).InStage(Prelude))
	}

	if mod.QuitKey != "" {
		quitKey := mod.QuitKey
		cmd.UseSystem(System(func(kb *Keyboard, cmd *Commands) {
			if kb.Down(quitKey) {
				cmd.Quit()
			}
		}).InStage(Prelude))
	}
}

func inputSampleSystem(t *Time, player *PlayerInput) {
	player.Inputs.Tick(t.Ticks, player.Source)
}
