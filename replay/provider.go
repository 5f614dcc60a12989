package replay

import (
	"github.com/edrefis/edrefis/logic"
)

// Recorder passes a provider through and appends a frame to its replay
// every time the provider is consumed.
type Recorder struct {
	source logic.InputProvider
	replay *Replay
}

func NewRecorder(source logic.InputProvider, r *Replay) *Recorder {
	return &Recorder{source: source, replay: r}
}

// Replay returns the replay being recorded.
func (r *Recorder) Replay() *Replay {
	return r.replay
}

// Restart continues recording into next and returns the previous replay.
func (r *Recorder) Restart(next *Replay) *Replay {
	prev := r.replay
	r.replay = next
	return prev
}

func (r *Recorder) Peek() {
	r.source.Peek()
}

func (r *Recorder) Consume() {
	if r.replay != nil {
		r.replay.Frames = append(r.replay.Frames, Sample(r.source))
	}
	r.source.Consume()
}

func (r *Recorder) KeyJustPressed(input logic.Input) bool {
	return r.source.KeyJustPressed(input)
}

func (r *Recorder) KeyDown(input logic.Input) bool {
	return r.source.KeyDown(input)
}

// Provider feeds recorded frames back one per tick. Past the last frame
// nothing is pressed.
type Provider struct {
	frames []Frame
	pos    int
}

func NewProvider(r *Replay) *Provider {
	return &Provider{frames: r.Frames}
}

func (p *Provider) current() Frame {
	if p.pos >= len(p.frames) {
		return Frame{}
	}
	return p.frames[p.pos]
}

func (p *Provider) Peek() {}

func (p *Provider) Consume() {
	if p.pos < len(p.frames) {
		p.pos++
	}
}

func (p *Provider) KeyJustPressed(input logic.Input) bool {
	return p.current().Pressed.Has(input)
}

func (p *Provider) KeyDown(input logic.Input) bool {
	return p.current().Held.Has(input)
}

// Done reports whether every frame was consumed.
func (p *Provider) Done() bool {
	return p.pos >= len(p.frames)
}

// Position is the index of the next frame.
func (p *Provider) Position() int {
	return p.pos
}
