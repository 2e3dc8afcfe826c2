package toplevel

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/tilestate/internal/geometry"
	"github.com/1broseidon/tilestate/internal/maximize"
	"github.com/1broseidon/tilestate/internal/txn"
	"github.com/1broseidon/tilestate/internal/wm/internal/grant"
)

type recordingClient struct {
	configures map[uint32][]State
	serials    map[uint32]uint32
}

func newRecordingClient() *recordingClient {
	return &recordingClient{
		configures: make(map[uint32][]State),
		serials:    make(map[uint32]uint32),
	}
}

func (c *recordingClient) Configure(t *Toplevel, serial uint32, s State) {
	c.configures[t.ObjectID()] = append(c.configures[t.ObjectID()], s)
	c.serials[t.ObjectID()] = serial
}

func testManager(clock *txn.ManualClock) *txn.Manager {
	return txn.NewManager(txn.Options{
		Timeout:   150 * time.Millisecond,
		Scheduler: clock,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestDefaultState(t *testing.T) {
	s := DefaultState()
	assert.False(t, s.Mapped)
	assert.Equal(t, geometry.Box{X: 100, Y: 100}, s.Geometry)
	assert.Equal(t, geometry.EdgeTop|geometry.EdgeLeft, s.Gravity)
	assert.Equal(t, geometry.EdgeNone, s.TiledEdges())
	assert.False(t, s.Fullscreen)
	assert.True(t, s.Margins.IsZero())
}

func TestSetMaximizationRoundTrip(t *testing.T) {
	base := State{
		Mapped:     true,
		Geometry:   geometry.Box{X: 1, Y: 2, Width: 3, Height: 4},
		Gravity:    geometry.EdgeBottom | geometry.EdgeRight,
		Fullscreen: true,
		Margins:    geometry.Difference{Left: 1, Right: 2, Top: 3, Bottom: 4},
	}

	for raw := uint32(0); raw <= uint32(geometry.EdgesAll); raw++ {
		m, err := maximize.FromRaw(raw)
		require.NoError(t, err)

		s := base
		s.SetMaximization(m)
		assert.Equal(t, m, s.Maximization())
		assert.Equal(t, m.Edges(), s.TiledEdges())

		s.SetMaximization(maximize.None)
		assert.Equal(t, base, s, "non-tiled fields must be untouched for mask %d", raw)
	}
}

func TestSetTiledEdgesRejectsInvalidMask(t *testing.T) {
	s := DefaultState()
	require.NoError(t, s.SetTiledEdges(grant.Issue(), geometry.EdgesAll))
	assert.True(t, s.Maximization().IsFull())

	err := s.SetTiledEdges(grant.Issue(), geometry.Edges(0x30))
	assert.ErrorIs(t, err, geometry.ErrInvalidEdges)
	assert.Equal(t, geometry.EdgesAll, s.TiledEdges(), "rejected write must not change the mask")
}

func TestWholeStateCopyKeepsTiledEdges(t *testing.T) {
	client := newRecordingClient()
	src := Restore(1, client, DefaultState())
	require.NoError(t, src.Pending().SetTiledEdges(grant.Issue(), geometry.EdgeTop|geometry.EdgeLeft))

	dst := New(2, client)
	*dst.Pending() = *src.Pending()

	assert.Equal(t, geometry.EdgeTop|geometry.EdgeLeft, dst.Pending().TiledEdges())
	assert.True(t, dst.Pending().TiledEdges().Valid())
	assert.Equal(t, src.Pending().Maximization(), dst.Pending().Maximization())
}

func TestTwoToplevelsMoveTogether(t *testing.T) {
	clock := txn.NewManualClock()
	m := testManager(clock)
	client := newRecordingClient()

	start := State{Mapped: true, Geometry: geometry.Box{X: 0, Y: 0, Width: 400, Height: 300}}
	x := Restore(1, client, start)
	y := Restore(2, client, start)
	y.Pending().Geometry.Y = 300

	x.Pending().Geometry.X += 50
	y.Pending().Geometry.X += 50

	tx := m.NewTransaction(x, y)
	require.NoError(t, m.Submit(tx))

	assert.Equal(t, 50, x.Committed().Geometry.X)
	assert.Equal(t, 50, y.Committed().Geometry.X)
	assert.Equal(t, 0, x.Current().Geometry.X)
	assert.Equal(t, 0, y.Current().Geometry.X)
	require.Len(t, client.configures[1], 1)
	require.Len(t, client.configures[2], 1)

	assert.True(t, x.Ack(client.serials[1]))
	assert.Equal(t, 0, x.Current().Geometry.X, "one ack must not apply the transaction")

	assert.True(t, y.Ack(client.serials[2]))
	assert.Equal(t, 50, x.Current().Geometry.X)
	assert.Equal(t, 50, y.Current().Geometry.X)
	assert.Equal(t, txn.StageApplied, tx.Stage())
	assert.False(t, tx.Forced())
	assert.Equal(t, txn.Idle, x.Phase())
}

func TestMissingAckIsForcedAfterTimeout(t *testing.T) {
	clock := txn.NewManualClock()
	m := testManager(clock)
	client := newRecordingClient()

	x := Restore(1, client, State{Mapped: true, Geometry: geometry.Box{Width: 10, Height: 10}})
	y := Restore(2, client, State{Mapped: true, Geometry: geometry.Box{Y: 10, Width: 10, Height: 10}})
	x.Pending().Geometry.X = 50
	y.Pending().Geometry.X = 50

	tx := m.NewTransaction(x, y)
	require.NoError(t, m.Submit(tx))
	require.True(t, x.Ack(client.serials[1]))

	clock.Advance(149 * time.Millisecond)
	assert.Equal(t, 0, y.Current().Geometry.X)

	clock.Advance(time.Millisecond)
	assert.True(t, tx.Forced())
	assert.Equal(t, 50, x.Current().Geometry.X)
	assert.Equal(t, 50, y.Current().Geometry.X)

	assert.False(t, y.Ack(client.serials[2]), "late ack must be ignored")
}

func TestStaleAckIgnored(t *testing.T) {
	m := testManager(txn.NewManualClock())
	client := newRecordingClient()
	x := New(1, client)
	x.Pending().Mapped = true

	require.NoError(t, m.Submit(m.NewTransaction(x)))
	assert.False(t, x.Ack(client.serials[1]+1))
	assert.False(t, x.Ack(client.serials[1]-1))
	assert.Equal(t, txn.Committed, x.Phase())
	assert.True(t, x.Ack(client.serials[1]))
	assert.True(t, x.Current().Mapped)
}

func TestUnchangedCommitDoesNotConfigure(t *testing.T) {
	m := testManager(txn.NewManualClock())
	client := newRecordingClient()
	x := New(1, client)

	tx := m.NewTransaction(x)
	require.NoError(t, m.Submit(tx))
	assert.Empty(t, client.configures[1])
	assert.Equal(t, txn.StageApplied, tx.Stage())
}

func TestProposeWhileInFlightConflicts(t *testing.T) {
	m := testManager(txn.NewManualClock())
	client := newRecordingClient()
	x := New(1, client)
	x.Pending().Mapped = true

	require.NoError(t, m.Submit(m.NewTransaction(x)))
	assert.ErrorIs(t, x.Propose(), txn.ErrConflict)
	assert.ErrorIs(t, m.Propose(m.NewTransaction(x)), txn.ErrConflict)
}

func TestAtomicSwap(t *testing.T) {
	m := testManager(txn.NewManualClock())
	left := geometry.Box{X: 0, Y: 0, Width: 960, Height: 1080}
	right := geometry.Box{X: 960, Y: 0, Width: 960, Height: 1080}
	a := Restore(1, nil, State{Mapped: true, Geometry: left})
	b := Restore(2, nil, State{Mapped: true, Geometry: right})

	var observed [][2]geometry.Box

	a.Pending().Geometry, b.Pending().Geometry = right, left
	tx := m.NewTransaction(a, b)
	require.NoError(t, m.Propose(tx))
	observed = append(observed, [2]geometry.Box{a.Committed().Geometry, b.Committed().Geometry})
	require.NoError(t, m.Commit(tx))
	observed = append(observed, [2]geometry.Box{a.Committed().Geometry, b.Committed().Geometry})

	for _, pair := range observed {
		swapped := pair[0] == right
		assert.Equal(t, swapped, pair[1] == left, "partial swap observed: %v", pair)
	}
	assert.Equal(t, right, a.Current().Geometry)
	assert.Equal(t, left, b.Current().Geometry)
}

func TestReleaseUnblocksTransaction(t *testing.T) {
	m := testManager(txn.NewManualClock())
	client := newRecordingClient()
	x := New(1, client)
	x.Pending().Mapped = true

	tx := m.NewTransaction(x)
	require.NoError(t, m.Submit(tx))
	x.Release()
	assert.Equal(t, txn.StageApplied, tx.Stage())
	assert.False(t, tx.Forced())
}

func TestSizeHints(t *testing.T) {
	x := New(1, nil)
	x.SetSizeHints(geometry.Dimensions{Width: 100, Height: 50}, geometry.Dimensions{})
	assert.Equal(t, geometry.Dimensions{Width: 100, Height: 50}, x.MinSize())
	assert.Equal(t, geometry.Dimensions{}, x.MaxSize())
}
