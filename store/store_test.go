package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edrefis/edrefis/logic"
	"github.com/edrefis/edrefis/replay"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "games.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadGame(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	r := replay.New(12, "ana")
	r.Frames = []replay.Frame{
		{},
		{Pressed: replay.InputSet(0).With(logic.Left), Held: replay.InputSet(0).With(logic.Left)},
	}
	finished := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	g := &Game{Player: "ana", Seed: 12, Level: 140, Lines: 31, Ticks: 9000, FinishedAt: finished, Replay: r}
	require.NoError(t, s.SaveGame(ctx, g))
	require.NotEqual(t, uuid.Nil, g.ID)

	got, err := s.Game(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
	assert.Equal(t, "ana", got.Player)
	assert.Equal(t, uint32(12), got.Seed)
	assert.Equal(t, uint32(140), got.Level)
	assert.Equal(t, uint32(31), got.Lines)
	assert.Equal(t, uint64(9000), got.Ticks)
	assert.True(t, finished.Equal(got.FinishedAt))
	require.NotNil(t, got.Replay)
	assert.Equal(t, r.ID, got.Replay.ID)
	assert.Equal(t, r.Frames, got.Replay.Frames)
}

func TestSaveGameWithoutReplay(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	g := &Game{Player: "server", Level: 3}
	require.NoError(t, s.SaveGame(ctx, g))
	assert.False(t, g.FinishedAt.IsZero())

	got, err := s.Game(ctx, g.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Replay)
	assert.Equal(t, uint32(3), got.Level)
}

func TestGameNotFound(t *testing.T) {
	s := openTest(t)
	_, err := s.Game(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTopGames(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	games := []*Game{
		{Player: "a", Level: 50, Lines: 10, Ticks: 500},
		{Player: "b", Level: 99, Lines: 20, Ticks: 900},
		{Player: "c", Level: 50, Lines: 12, Ticks: 800},
		{Player: "d", Level: 50, Lines: 10, Ticks: 400},
	}
	for _, g := range games {
		require.NoError(t, s.SaveGame(ctx, g))
	}

	top, err := s.TopGames(ctx, 3)
	require.NoError(t, err)
	var players []string
	for _, g := range top {
		players = append(players, g.Player)
		assert.Nil(t, g.Replay)
	}
	assert.Equal(t, []string{"b", "c", "d"}, players)

	none, err := s.TopGames(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSaveGameReplaces(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	g := &Game{Player: "a", Level: 1}
	require.NoError(t, s.SaveGame(ctx, g))
	g.Level = 2
	require.NoError(t, s.SaveGame(ctx, g))

	top, err := s.TopGames(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, uint32(2), top[0].Level)
}

func TestInMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SaveGame(context.Background(), &Game{Player: "m"}))
	top, err := s.TopGames(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}
