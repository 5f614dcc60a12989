package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edrefis/edrefis/logic"
	"github.com/edrefis/edrefis/replay"
)

func testReplay(frames int) *replay.Replay {
	r := replay.New(21, "ana")
	r.Frames = make([]replay.Frame, frames)
	held := replay.InputSet(0).With(logic.Down)
	for i := range r.Frames {
		r.Frames[i].Held = held
	}
	return r
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPlaybackFollowsSpeed(t *testing.T) {
	m := New(testReplay(100))

	m, cmd := update(t, m, tickMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, m.Summary().Ticks)

	m, _ = update(t, m, key("+"))
	m, _ = update(t, m, tickMsg(time.Now()))
	assert.Equal(t, 3, m.Summary().Ticks)

	m, _ = update(t, m, key("-"))
	m, _ = update(t, m, key("-"))
	m, _ = update(t, m, tickMsg(time.Now()))
	assert.Equal(t, 3, m.Summary().Ticks)
	m, _ = update(t, m, tickMsg(time.Now()))
	assert.Equal(t, 4, m.Summary().Ticks)
}

func TestSpeedIsClamped(t *testing.T) {
	m := New(testReplay(10))
	for range 20 {
		m, _ = update(t, m, key("-"))
	}
	assert.Equal(t, 0, m.speed)
	for range 20 {
		m, _ = update(t, m, key("+"))
	}
	assert.Equal(t, len(Speeds)-1, m.speed)
}

func TestPauseAndStep(t *testing.T) {
	m := New(testReplay(100))
	m, _ = update(t, m, key(" "))
	m, _ = update(t, m, tickMsg(time.Now()))
	assert.Equal(t, 0, m.Summary().Ticks)
	assert.Contains(t, m.View(), "paused")

	m, _ = update(t, m, key("."))
	assert.Equal(t, 1, m.Summary().Ticks)

	m, _ = update(t, m, key(" "))
	m, _ = update(t, m, tickMsg(time.Now()))
	assert.Equal(t, 2, m.Summary().Ticks)
}

func TestPlaybackStopsAtEnd(t *testing.T) {
	m := New(testReplay(5))
	m, _ = update(t, m, key("+"))
	m, _ = update(t, m, key("+"))
	m, _ = update(t, m, key("+"))
	m, _ = update(t, m, tickMsg(time.Now()))
	assert.Equal(t, 5, m.Summary().Ticks)
	assert.Contains(t, m.View(), "end of replay")

	m, _ = update(t, m, key("r"))
	assert.Equal(t, 0, m.Summary().Ticks)
}

func TestQuit(t *testing.T) {
	m := New(testReplay(5))
	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestView(t *testing.T) {
	m := New(testReplay(5))
	view := m.View()
	assert.Contains(t, view, "ana")
	assert.Contains(t, view, "0 / 5")
	assert.Equal(t, logic.WellRows, strings.Count(renderWell(m.player.Field), "\n")+1)
}
