package replay

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edrefis/edrefis/logic"
)

// script presses and releases keys at given ticks.
type script map[int]func(k *logic.KeySet)

func press(inputs ...logic.Input) func(k *logic.KeySet) {
	return func(k *logic.KeySet) {
		for _, in := range inputs {
			k.Press(in)
		}
	}
}

func release(inputs ...logic.Input) func(k *logic.KeySet) {
	return func(k *logic.KeySet) {
		for _, in := range inputs {
			k.Release(in)
		}
	}
}

// playLive runs a field from a KeySet through a Recorder for n ticks.
func playLive(t *testing.T, seed uint32, n int, s script) (*logic.Field, *Replay) {
	t.Helper()
	keys := &logic.KeySet{}
	r := New(seed, "tester")
	rec := NewRecorder(keys, r)
	field := logic.NewSeededField(seed)
	inputs := logic.NewInputs()
	for tick := 1; tick <= n; tick++ {
		if fn, ok := s[tick]; ok {
			fn(keys)
		}
		inputs.Tick(uint64(tick), rec)
		field.Update(inputs, logic.Nop{}, logic.Nop{})
	}
	return field, r
}

var busyScript = script{
	1:   press(logic.Left),
	30:  release(logic.Left),
	31:  press(logic.Up),
	32:  release(logic.Up),
	70:  press(logic.CW, logic.Right),
	75:  release(logic.CW),
	90:  press(logic.Up),
	91:  release(logic.Up, logic.Right),
	130: press(logic.Down),
	200: release(logic.Down),
	201: press(logic.CCW),
	202: release(logic.CCW),
}

func TestInputSet(t *testing.T) {
	var s InputSet
	s = s.With(logic.CW).With(logic.Up)

	assert.True(t, s.Has(logic.CW))
	assert.True(t, s.Has(logic.Up))
	assert.False(t, s.Has(logic.Down))
}

func TestRecorder_SamplesEveryConsume(t *testing.T) {
	keys := &logic.KeySet{}
	rec := NewRecorder(keys, New(1, ""))
	inputs := logic.NewInputs()

	keys.Press(logic.Left)
	inputs.Tick(1, rec)
	inputs.Tick(2, rec)
	keys.Release(logic.Left)
	inputs.Tick(3, rec)

	want := []Frame{
		{Pressed: InputSet(0).With(logic.Left), Held: InputSet(0).With(logic.Left)},
		{Held: InputSet(0).With(logic.Left)},
		{},
	}
	assert.Equal(t, want, rec.Replay().Frames)
	assert.True(t, inputs.KeyJustReleased(logic.Left))
}

func TestRecorder_Restart(t *testing.T) {
	keys := &logic.KeySet{}
	first := New(1, "")
	rec := NewRecorder(keys, first)
	rec.Consume()

	second := New(1, "")
	prev := rec.Restart(second)
	rec.Consume()
	rec.Consume()

	assert.Same(t, first, prev)
	assert.Equal(t, 1, first.Ticks())
	assert.Equal(t, 2, second.Ticks())
}

func TestProvider_PastTheEnd(t *testing.T) {
	r := &Replay{Frames: []Frame{{Pressed: 1, Held: 1}}}
	p := NewProvider(r)

	assert.True(t, p.KeyJustPressed(logic.Up))
	p.Consume()
	assert.True(t, p.Done())
	assert.False(t, p.KeyDown(logic.Up))
	p.Consume()
	assert.Equal(t, 1, p.Position())
}

func TestSimulate_MatchesLiveGame(t *testing.T) {
	live, r := playLive(t, 77, 400, busyScript)

	field, summary := Simulate(r)

	if diff := cmp.Diff(live, field); diff != "" {
		t.Errorf("replayed field differs (-live +replay):\n%s", diff)
	}
	assert.Equal(t, 400, summary.Ticks)
	assert.False(t, summary.GameOver)
	assert.Equal(t, live.Level, summary.Level)
	assert.Greater(t, summary.Level, uint32(0))
}

func TestSimulate_StopsAtGameOver(t *testing.T) {
	// Sonic dropping with Down held stacks pieces in the middle column until
	// the well overflows.
	s := script{1: press(logic.Down)}
	for tick := 2; tick < 4000; tick += 2 {
		s[tick] = press(logic.Up)
		s[tick+1] = release(logic.Up)
	}
	_, r := playLive(t, logic.DefaultSeed, 4000, s)

	field, summary := Simulate(r)

	require.True(t, summary.GameOver)
	assert.Less(t, summary.Ticks, 4000)
	assert.Equal(t, logic.PhaseGameOver, field.State.Phase)
}

func TestSaveLoad(t *testing.T) {
	_, r := playLive(t, 5, 120, busyScript)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, r))
	loaded, err := Load(&buf)
	require.NoError(t, err)

	assert.Equal(t, r.ID, loaded.ID)
	assert.Equal(t, r.Seed, loaded.Seed)
	assert.Equal(t, r.Frames, loaded.Frames)
	assert.True(t, r.CreatedAt.Equal(loaded.CreatedAt))
}

func TestSaveFile(t *testing.T) {
	_, r := playLive(t, 5, 10, nil)
	path := filepath.Join(t.TempDir(), FileName(r))

	require.NoError(t, SaveFile(path, r))
	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, r.Frames, loaded.Frames)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(bytes.NewBufferString(`{"seed": 3}`))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Unmarshal([]byte(`{"id":"` + uuid.NewString() + `","frames":[{"p":200}]}`))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(bytes.NewBufferString(`not json`))
	assert.Error(t, err)
}
