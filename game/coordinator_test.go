package game

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CUknot/arena_backend/errs"
	"github.com/CUknot/arena_backend/events"
	"github.com/CUknot/arena_backend/models"
)

type fakeGroups struct {
	mu        sync.Mutex
	joined    map[string][]string
	users     map[string][]uint
	disbanded []string
}

func (g *fakeGroups) JoinUser(userID uint, group string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.users == nil {
		g.users = make(map[string][]uint)
	}
	g.users[group] = append(g.users[group], userID)
}

func (g *fakeGroups) userMembers(group string) []uint {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]uint(nil), g.users[group]...)
}

func (g *fakeGroups) JoinGroup(connID, group string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.joined == nil {
		g.joined = make(map[string][]string)
	}
	g.joined[group] = append(g.joined[group], connID)
}

func (g *fakeGroups) DisbandGroup(group string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.disbanded = append(g.disbanded, group)
}

func (g *fakeGroups) members(group string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.joined[group]...)
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) named(name string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, ev := range r.events {
		if ev.Type == name {
			out = append(out, ev)
		}
	}
	return out
}

type fakeStatuses struct {
	mu   sync.Mutex
	last map[uint]models.UserStatus
}

func (s *fakeStatuses) UpdateStatus(_ context.Context, userID uint, status models.UserStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		s.last = make(map[uint]models.UserStatus)
	}
	s.last[userID] = status
	return nil
}

func (s *fakeStatuses) of(userID uint) models.UserStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last[userID]
}

type fakeResults struct {
	mu    sync.Mutex
	saved []models.GameResult
}

func (r *fakeResults) SaveGameResult(_ context.Context, result *models.GameResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, *result)
	return nil
}

func (r *fakeResults) all() []models.GameResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.GameResult(nil), r.saved...)
}

type harness struct {
	coord    *Coordinator
	groups   *fakeGroups
	events   *recorder
	statuses *fakeStatuses
	results  *fakeResults
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		groups:   &fakeGroups{},
		events:   &recorder{},
		statuses: &fakeStatuses{},
		results:  &fakeResults{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// Ticks are driven by hand unless a test asks for a real interval.
	opts = append([]Option{WithTick(time.Hour), WithEngine(NewEngine(fixedServe(0)))}, opts...)
	h.coord = NewCoordinator(h.groups, h.events, h.statuses, h.results, logger, opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = h.coord.Shutdown(ctx)
	})
	return h
}

func (h *harness) match(t *testing.T) *Room {
	t.Helper()
	ctx := context.Background()
	room, err := h.coord.Wait(ctx, player(1, "alice", 0))
	require.NoError(t, err)
	require.Nil(t, room)
	room, err = h.coord.Wait(ctx, player(2, "bob", 0))
	require.NoError(t, err)
	require.NotNil(t, room)
	return room
}

func setState(room *Room, fn func(s *State)) {
	room.mu.Lock()
	defer room.mu.Unlock()
	fn(&room.state)
}

func TestWaitPairsAndStarts(t *testing.T) {
	h := newHarness(t)
	room := h.match(t)

	queued := h.events.named(EventWaiting)
	require.Len(t, queued, 1)
	assert.Equal(t, "conn-alice", queued[0].Target)

	assert.ElementsMatch(t, []uint{1, 2}, h.groups.userMembers(room.ID), "all connections of both players follow the room")
	assert.Equal(t, models.StatusInGame, h.statuses.of(1))
	assert.Equal(t, models.StatusInGame, h.statuses.of(2))

	started := h.events.named(EventStartGame)
	require.Len(t, started, 1)
	assert.Equal(t, room.ID, started[0].Group)
	assert.Equal(t, room.Summary(), started[0].Payload)

	assert.Equal(t, []Summary{room.Summary()}, h.coord.Games())
}

func TestWaitRejectsAnonymous(t *testing.T) {
	h := newHarness(t)
	_, err := h.coord.Wait(context.Background(), Player{UserID: 1})
	assert.True(t, errs.Is(err, errs.KindInvalid))
}

func TestTickLoopBroadcastsSnapshots(t *testing.T) {
	h := newHarness(t, WithTick(time.Millisecond))
	room := h.match(t)

	require.Eventually(t, func() bool {
		return len(h.events.named(EventTick)) >= 3
	}, time.Second, time.Millisecond)

	tick := h.events.named(EventTick)[0]
	assert.Equal(t, room.ID, tick.Group)
	snap, ok := tick.Payload.(Snapshot)
	require.True(t, ok)
	assert.Equal(t, room.ID, snap.RoomID)
}

func TestMoveClampsPaddle(t *testing.T) {
	h := newHarness(t)
	room := h.match(t)

	for i := 0; i < 40; i++ {
		require.NoError(t, h.coord.Move(1, Up))
	}
	assert.Equal(t, PlayerMinY, room.Snapshot().GameState.P1)

	for i := 0; i < 80; i++ {
		require.NoError(t, h.coord.Move(2, Down))
	}
	assert.Equal(t, PlayerMaxY-PaddleHeight, room.Snapshot().GameState.P2)

	err := h.coord.Move(99, Up)
	assert.True(t, errs.Is(err, errs.KindNotFound))
	err = h.coord.Move(1, Direction("left"))
	assert.True(t, errs.Is(err, errs.KindInvalid))
}

func TestGoalThroughCoordinator(t *testing.T) {
	h := newHarness(t)
	room := h.match(t)
	setState(room, func(s *State) {
		s.P1 = 0
		s.Ball = Position{X: 34, Y: 200}
		s.Move = Step{StepX: -1}
	})

	h.coord.step(room)
	st := room.Snapshot().GameState
	assert.Equal(t, [2]int{0, 1}, st.Result)
	assert.Equal(t, Position{X: CenterX, Y: CenterY}, st.Ball)
	assert.Contains(t, InitialMoves, st.Move)
	assert.Empty(t, h.events.named(EventEndGame))
}

func TestGameOverEndsRoomExactlyOnce(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(s *State)
		winner     uint
		loser      uint
		loserScore int
	}{
		{
			name: "player1 wins",
			setup: func(s *State) {
				s.Result = [2]int{1, 1}
				s.P2 = 0
				s.Ball = Position{X: 686, Y: 200}
				s.Move = Step{StepX: 1}
			},
			winner: 1, loser: 2, loserScore: 1,
		},
		{
			name: "player2 wins",
			setup: func(s *State) {
				s.Result = [2]int{0, 1}
				s.P1 = 0
				s.Ball = Position{X: 34, Y: 200}
				s.Move = Step{StepX: -1}
			},
			winner: 2, loser: 1, loserScore: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			room := h.match(t)
			setState(room, tt.setup)

			h.coord.step(room)
			h.coord.step(room)
			h.coord.finish(context.Background(), room, room.Snapshot().GameState)

			ended := h.events.named(EventEndGame)
			require.Len(t, ended, 1)
			assert.Equal(t, EndGame{
				WinnerID:    tt.winner,
				LoserID:     tt.loser,
				WinnerScore: WinningScore,
				LoserScore:  tt.loserScore,
			}, ended[0].Payload)

			saved := h.results.all()
			require.Len(t, saved, 1)
			assert.Equal(t, tt.winner, saved[0].WinnerID)
			assert.Equal(t, tt.loser, saved[0].LoserID)
			assert.Equal(t, WinningScore, saved[0].WinnerScore)
			assert.Equal(t, tt.loserScore, saved[0].LoserScore)

			assert.Len(t, h.events.named(EventTick), 1, "no tick after the room ended")
			assert.Error(t, room.ctx.Err(), "tick loop cancelled")
			assert.Nil(t, h.coord.Registry().Room(room.ID))
			assert.Equal(t, []string{room.ID}, h.groups.disbanded)
			assert.Equal(t, models.StatusOnline, h.statuses.of(1))
			assert.Equal(t, models.StatusOnline, h.statuses.of(2))

			err := h.coord.Leave(context.Background(), 1)
			assert.True(t, errs.Is(err, errs.KindNotFound))
		})
	}
}

func TestLeaveEndsRoomWithoutResult(t *testing.T) {
	h := newHarness(t)
	room := h.match(t)

	require.NoError(t, h.coord.Leave(context.Background(), 2))

	left := h.events.named(EventLeaveGame)
	require.Len(t, left, 1)
	assert.Equal(t, LeftGame{UserID: 2}, left[0].Payload)
	assert.Equal(t, room.ID, left[0].Group)
	assert.Empty(t, h.results.all())
	assert.Empty(t, h.coord.Games())
	assert.Equal(t, models.StatusOnline, h.statuses.of(1))
	assert.Equal(t, models.StatusOnline, h.statuses.of(2))

	assert.Error(t, h.coord.Leave(context.Background(), 1))
}

func TestReconnectRejoinsRoom(t *testing.T) {
	h := newHarness(t)
	room := h.match(t)
	ctx := context.Background()

	assert.True(t, h.coord.Connected(ctx, 1, "conn-alice-2"))
	assert.False(t, h.coord.Connected(ctx, 42, "conn-stranger"))
	assert.Contains(t, h.groups.members(room.ID), "conn-alice-2")

	rejoined := h.events.named(EventRejoinGame)
	require.Len(t, rejoined, 1)
	assert.Equal(t, "conn-alice-2", rejoined[0].Target)

	again, err := h.coord.Wait(ctx, Player{UserID: 2, Username: "bob", ConnID: "conn-bob-2"})
	require.NoError(t, err)
	assert.Same(t, room, again)
	assert.Len(t, h.coord.Games(), 1)
	assert.Len(t, h.events.named(EventRejoinGame), 2)
}

func TestDisconnectGraceExpiryEndsRoom(t *testing.T) {
	h := newHarness(t, WithReconnectGrace(10*time.Millisecond))
	room := h.match(t)

	h.coord.Disconnected(1, "conn-alice", false)
	h.coord.Disconnected(1, "conn-alice", true)

	require.Eventually(t, func() bool {
		return h.coord.Registry().Room(room.ID) == nil
	}, time.Second, time.Millisecond)

	left := h.events.named(EventLeaveGame)
	require.Len(t, left, 1)
	assert.Equal(t, LeftGame{UserID: 1}, left[0].Payload)
	assert.Equal(t, models.StatusOffline, h.statuses.of(1))
	assert.Equal(t, models.StatusOnline, h.statuses.of(2))
	assert.Empty(t, h.results.all())
}

func TestReconnectWithinGraceKeepsRoom(t *testing.T) {
	h := newHarness(t, WithReconnectGrace(time.Hour))
	room := h.match(t)

	h.coord.Disconnected(1, "conn-alice", true)
	h.coord.mu.Lock()
	assert.Len(t, h.coord.timers, 1)
	h.coord.mu.Unlock()

	assert.True(t, h.coord.Connected(context.Background(), 1, "conn-alice-2"))
	h.coord.mu.Lock()
	assert.Empty(t, h.coord.timers)
	h.coord.mu.Unlock()
	assert.False(t, room.Ended())
}

func TestWaitingPlayerDisconnectLeavesQueue(t *testing.T) {
	h := newHarness(t)
	_, err := h.coord.Wait(context.Background(), player(1, "alice", 0))
	require.NoError(t, err)

	h.coord.Disconnected(1, "conn-alice", true)
	assert.False(t, h.coord.Registry().Waiting(1))
}

func TestCancelWait(t *testing.T) {
	h := newHarness(t)
	_, err := h.coord.Wait(context.Background(), player(1, "alice", 0))
	require.NoError(t, err)

	require.NoError(t, h.coord.CancelWait(1))
	assert.True(t, errs.Is(h.coord.CancelWait(1), errs.KindNotFound))
}

func TestTickPanicEndsRoom(t *testing.T) {
	var explode atomic.Bool
	engine := NewEngine(func(n int) int {
		if explode.Load() {
			panic("bad serve")
		}
		return 0
	})
	h := newHarness(t, WithEngine(engine))
	room := h.match(t)
	setState(room, func(s *State) {
		s.P1 = 0
		s.Ball = Position{X: 34, Y: 200}
		s.Move = Step{StepX: -1}
	})
	explode.Store(true)

	assert.NotPanics(t, func() { h.coord.step(room) })
	assert.True(t, room.Ended())
	assert.Nil(t, h.coord.Registry().Room(room.ID))
	assert.Empty(t, h.events.named(EventEndGame))
	assert.Equal(t, models.StatusOnline, h.statuses.of(1))
}

func TestShutdownEndsAllRooms(t *testing.T) {
	h := newHarness(t, WithTick(time.Millisecond))
	first := h.match(t)
	ctx := context.Background()
	_, err := h.coord.Wait(ctx, player(3, "carol", 0))
	require.NoError(t, err)
	second, err := h.coord.Wait(ctx, player(4, "dave", 0))
	require.NoError(t, err)
	require.NotNil(t, second)

	sctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, h.coord.Shutdown(sctx))

	assert.True(t, first.Ended())
	assert.True(t, second.Ended())
	assert.Empty(t, h.coord.Games())
	assert.Empty(t, h.results.all())
}
