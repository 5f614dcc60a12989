package netplay

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/edrefis/edrefis/logic"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEncodeDecode(t *testing.T) {
	id := uuid.New()
	messages := []Message{
		Join{ClientID: id, Field: logic.NewSeededField(3)},
		Join{ClientID: id},
		Leave{ClientID: id},
		Input{ClientID: id, Input: logic.CCW, Down: true},
		Input{ClientID: id, Input: logic.Up},
		Tick{ClientID: id},
	}
	for _, m := range messages {
		data, err := Encode(m)
		require.NoError(t, err)
		back, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, m, back)
	}
}

func TestWireFormat(t *testing.T) {
	data, err := Encode(Input{Input: logic.Left})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"input","data":{"client_id":"00000000-0000-0000-0000-000000000000","input":"left","down":false}}`,
		string(data))

	m, err := Decode([]byte(`{"type":"tick","data":{}}`))
	require.NoError(t, err)
	assert.Equal(t, Tick{}, m)

	m, err = Decode([]byte(`{"type":"tick"}`))
	require.NoError(t, err)
	assert.Equal(t, Tick{}, m)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`{"type":"chat","data":{}}`))
	assert.ErrorIs(t, err, ErrUnknownMessage)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"type":"input","data":{"input":"jump"}}`))
	assert.Error(t, err)
}

func TestWorldJoin(t *testing.T) {
	w := NewWorld(5, nil)
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	w.Join(a)
	assert.Empty(t, w.Drain(a))

	w.Join(b)
	w.Join(c)
	assert.Equal(t, []uuid.UUID{a, b, c}, w.Clients())

	fresh := logic.NewSeededField(5)
	assert.Equal(t, []Message{
		Join{ClientID: b, Field: fresh},
		Join{ClientID: c, Field: fresh},
	}, w.Drain(a))
	assert.Equal(t, []Message{
		Join{ClientID: a, Field: fresh},
		Join{ClientID: c, Field: fresh},
	}, w.Drain(b))
	assert.Equal(t, []Message{
		Join{ClientID: a, Field: fresh},
		Join{ClientID: b, Field: fresh},
	}, w.Drain(c))
	assert.Nil(t, w.Drain(c))
}

func TestWorldLeave(t *testing.T) {
	w := NewWorld(5, nil)
	a, b := uuid.New(), uuid.New()
	w.Join(a)
	w.Join(b)
	w.Drain(a)
	w.Drain(b)

	w.Leave(a)
	assert.Equal(t, []uuid.UUID{b}, w.Clients())
	assert.Equal(t, []Message{Leave{ClientID: a}}, w.Drain(b))
	assert.Nil(t, w.Drain(a))

	w.Leave(a)
	assert.Nil(t, w.Drain(b))
}

func TestWorldMirrorsClientGame(t *testing.T) {
	w := NewWorld(9, nil)
	a, b := uuid.New(), uuid.New()
	w.Join(a)
	w.Join(b)
	w.Drain(a)
	w.Drain(b)

	local := logic.NewSeededField(9)
	inputs := logic.NewInputs()
	var keys logic.KeySet
	press := func(input logic.Input, down bool) {
		if down {
			keys.Press(input)
		} else {
			keys.Release(input)
		}
		w.Input(a, input, down)
	}
	for tick := uint64(1); tick <= 200; tick++ {
		switch tick {
		case 5:
			press(logic.Left, true)
		case 40:
			press(logic.Left, false)
			press(logic.CW, true)
		case 41:
			press(logic.CW, false)
		case 60:
			press(logic.Down, true)
		}
		inputs.Tick(tick, &keys)
		local.Update(inputs, logic.Nop{}, logic.Nop{})
		w.Tick(a)
	}

	remote, ok := w.Field(a)
	require.True(t, ok)
	assert.Equal(t, local, remote)

	relayed := w.Drain(b)
	assert.Len(t, relayed, 200+5)
	assert.Equal(t, Input{ClientID: a, Input: logic.Left, Down: true}, relayed[4])
	assert.Equal(t, Tick{ClientID: a}, relayed[5])
	assert.Empty(t, w.Drain(a))
}

func TestWorldIgnoresUnknownClients(t *testing.T) {
	w := NewWorld(5, nil)
	id := uuid.New()
	w.Input(id, logic.Left, true)
	w.Tick(id)
	_, ok := w.Field(id)
	assert.False(t, ok)

	w.Join(id)
	w.Input(id, logic.Input(99), true)
	assert.Nil(t, w.Drain(id))
}

func TestWorldRecordsGameOver(t *testing.T) {
	var results []Result
	w := NewWorld(5, RecorderFunc(func(r Result) { results = append(results, r) }))
	id := uuid.New()
	w.Join(id)

	// holding down stacks pieces in the middle until the well tops out
	w.Input(id, logic.Down, true)
	var ticks uint64
	for len(results) == 0 && ticks < 100_000 {
		w.Tick(id)
		ticks++
	}
	require.Len(t, results, 1)
	assert.Equal(t, Result{ClientID: id, Seed: 5, Level: results[0].Level, Lines: 0, Ticks: ticks}, results[0])

	// no second report while the game over screen is up
	for range 10 {
		w.Tick(id)
	}
	assert.Len(t, results, 1)
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func next(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case m, ok := <-c.Messages():
		require.True(t, ok, "connection closed")
		return m
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a message")
		return nil
	}
}

func TestServerRelay(t *testing.T) {
	ctx := context.Background()
	world := NewWorld(7, nil)
	srv := NewServer(world, zaptest.NewLogger(t))
	ts := httptest.NewServer(srv)
	defer ts.Close()
	defer srv.Close()

	idA, idB := uuid.New(), uuid.New()
	a, err := Dial(ctx, wsURL(ts), idA, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Close()
	require.Eventually(t, func() bool { return len(world.Clients()) == 1 }, 5*time.Second, 5*time.Millisecond)

	b, err := Dial(ctx, wsURL(ts), idB, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer b.Close()

	fresh := logic.NewSeededField(7)
	assert.Equal(t, Join{ClientID: idB, Field: fresh}, next(t, a))
	assert.Equal(t, Join{ClientID: idA, Field: fresh}, next(t, b))

	require.NoError(t, a.Send(Input{Input: logic.Right, Down: true}))
	require.NoError(t, a.Send(Tick{}))
	assert.Equal(t, Input{ClientID: idA, Input: logic.Right, Down: true}, next(t, b))
	assert.Equal(t, Tick{ClientID: idA}, next(t, b))

	require.NoError(t, a.Close())
	assert.Equal(t, Leave{ClientID: idA}, next(t, b))
	require.Eventually(t, func() bool { return len(world.Clients()) == 1 }, 5*time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, a.Send(Tick{}), ErrClosed)
}

func TestServerCloseDisconnectsClients(t *testing.T) {
	world := NewWorld(7, nil)
	srv := NewServer(world, zaptest.NewLogger(t))
	ts := httptest.NewServer(srv)
	defer ts.Close()

	c, err := Dial(context.Background(), wsURL(ts), uuid.New(), nil)
	require.NoError(t, err)
	defer c.Close()
	require.Eventually(t, func() bool { return len(world.Clients()) == 1 }, 5*time.Second, 5*time.Millisecond)

	srv.Close()
	assert.Empty(t, world.Clients())
	select {
	case _, ok := <-c.Messages():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("client was not disconnected")
	}
}

func TestServerCloseWhileClientsDial(t *testing.T) {
	world := NewWorld(7, nil)
	srv := NewServer(world, zaptest.NewLogger(t))
	ts := httptest.NewServer(srv)
	defer ts.Close()

	var wg sync.WaitGroup
	start := make(chan struct{})
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			c, err := Dial(context.Background(), wsURL(ts), uuid.New(), nil)
			if err != nil {
				// refused once closing
				return
			}
			for range c.Messages() {
			}
			c.Close()
		}()
	}

	close(start)
	srv.Close()
	wg.Wait()
	assert.Empty(t, world.Clients())

	_, err := Dial(context.Background(), wsURL(ts), uuid.New(), nil)
	assert.Error(t, err)
}

func TestServerRejectsMissingJoin(t *testing.T) {
	world := NewWorld(7, nil)
	srv := NewServer(world, zaptest.NewLogger(t))
	ts := httptest.NewServer(srv)
	defer ts.Close()
	defer srv.Close()

	// a nil id is not a join
	c, err := Dial(context.Background(), wsURL(ts), uuid.Nil, nil)
	require.NoError(t, err)
	defer c.Close()

	select {
	case _, ok := <-c.Messages():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("connection stayed open")
	}
	assert.Empty(t, world.Clients())
}
