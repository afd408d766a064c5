package client

import (
	"bufio"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/mkarren/voidbelt/internal/env"
	"github.com/mkarren/voidbelt/internal/loop/config"
	"github.com/mkarren/voidbelt/internal/loop/server"
	"github.com/mkarren/voidbelt/internal/object"
)

// fakeServer is a minimal in-memory GameServer for driving a client.
type fakeServer struct {
	handle *server.ClientHandle
	inputs []object.Input
	spawns int
	resets int
	player *object.User
	dose   float64
}

var _ server.GameServer = (*fakeServer)(nil)

func newFakeServer() *fakeServer {
	return &fakeServer{
		handle: &server.ClientHandle{
			ID:       1,
			Username: "tester",
			EventsCh: make(chan server.ClientEvent, 16),
		},
	}
}

func (f *fakeServer) RegisterClient(username string) *server.ClientHandle { return f.handle }

func (f *fakeServer) UnregisterClient(clientID int) {}

func (f *fakeServer) SendInput(clientID int, in object.Input) {
	f.inputs = append(f.inputs, in)
}

func (f *fakeServer) GetSnapshot() *server.WorldSnapshot { return &server.WorldSnapshot{} }

func (f *fakeServer) GetClientPlayer(clientID int) *object.User { return f.player }

func (f *fakeServer) GetClientDose(clientID int) float64 { return f.dose }

func (f *fakeServer) SpawnPlayer(clientID int) {
	f.spawns++
	f.player = object.NewUser(10, 20)
}

func (f *fakeServer) RemovePlayer(clientID int) { f.player = nil }

func (f *fakeServer) ResetScore(clientID int) { f.resets++ }

func (f *fakeServer) RenderEnv(target env.RenderTarget, cam env.Camera, pos env.Vec2) error {
	return nil
}

// newTestClient builds a client against a fake server with an 80x24 terminal
// and the given pending keystrokes.
func newTestClient(t *testing.T, keys string) (*Client, *fakeServer) {
	t.Helper()
	fs := newFakeServer()
	size := func() (int, int, error) { return 80, 24, nil }
	c := NewClient(fs, bufio.NewReader(strings.NewReader(keys)), io.Discard, ClientOptions{
		TermSizeFunc: size,
		Username:     "tester",
	})
	if keys != "" {
		// Give the stream goroutine time to forward the bytes.
		time.Sleep(50 * time.Millisecond)
	}
	return c, fs
}

func TestClampTermSize(t *testing.T) {
	tests := []struct {
		name                   string
		termW, termH           int
		wantW, wantH           int
		wantOffCol, wantOffRow int
	}{
		{"fits", 80, 24, 80, 24, 0, 0},
		{"both clamped and centered", 300, 80, 200, 60, 50, 10},
		{"width clamped only", 250, 30, 200, 30, 25, 0},
		{"tiny stays tiny", 40, 12, 40, 12, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, col, row := clampTermSize(tt.termW, tt.termH)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("render size = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
			if col != tt.wantOffCol || row != tt.wantOffRow {
				t.Errorf("offset = (%d,%d), want (%d,%d)", col, row, tt.wantOffCol, tt.wantOffRow)
			}
		})
	}
}

func TestPushNoticeCapsTicker(t *testing.T) {
	s := NewClientState()
	now := time.Now()

	for _, text := range []string{"one", "two", "three", "four"} {
		s.pushNotice(text, now)
	}

	if len(s.notices) != maxNotices {
		t.Fatalf("kept %d notices, want %d", len(s.notices), maxNotices)
	}
	if s.notices[0].text != "two" || s.notices[2].text != "four" {
		t.Errorf("oldest notice not dropped: %q .. %q", s.notices[0].text, s.notices[2].text)
	}

	s.pushNotice("", now)
	if len(s.notices) != maxNotices {
		t.Error("empty notice was queued")
	}
}

func TestPruneNoticesDropsExpired(t *testing.T) {
	s := NewClientState()
	now := time.Now()
	s.pushNotice("fresh", now)

	s.pruneNotices(now.Add(time.Second))
	if len(s.notices) != 1 {
		t.Fatal("notice pruned before its deadline")
	}

	s.pruneNotices(now.Add(noticeShowTime + time.Second))
	if len(s.notices) != 0 {
		t.Error("expired notice survived pruning")
	}
}

func TestDeathCauseText(t *testing.T) {
	tests := []struct {
		cause string
		want  string
	}{
		{"", ""},
		{"radiation", "Overcome by radiation"},
		{"an asteroid", "Smashed by an asteroid"},
		{"bob", "Shot down by bob"},
	}
	for _, tt := range tests {
		if got := deathCauseText(tt.cause); got != tt.want {
			t.Errorf("deathCauseText(%q) = %q, want %q", tt.cause, got, tt.want)
		}
	}
}

func TestHazardLabel(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"gravity_well", "GRAVITY WELL"},
		{"radiation", "RADIATION ZONE"},
		{"debris", "DEBRIS FIELD"},
	}
	for _, tt := range tests {
		if got := hazardLabel(tt.kind); got != tt.want {
			t.Errorf("hazardLabel(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestWrappedDistSq(t *testing.T) {
	// Points 20 apart through the horizontal wrap, 380 apart directly.
	if got := wrappedDistSq(10, 10, 390, 10, 400, 300); math.Abs(got-400) > 1e-9 {
		t.Errorf("wrapped dx distance sq = %v, want 400", got)
	}
	if got := wrappedDistSq(0, 5, 0, 295, 400, 300); math.Abs(got-100) > 1e-9 {
		t.Errorf("wrapped dy distance sq = %v, want 100", got)
	}
	if got := wrappedDistSq(10, 10, 13, 14, 400, 300); math.Abs(got-25) > 1e-9 {
		t.Errorf("direct distance sq = %v, want 25", got)
	}
}

func TestDeathEventMovesClientToDeadState(t *testing.T) {
	c, fs := newTestClient(t, "")
	c.state.GameState = GameStatePlaying
	c.state.Player = object.NewUser(1, 1)
	lives := c.state.Lives

	fs.handle.EventsCh <- server.ClientEvent{Type: server.EventPlayerDied, KilledBy: "bob"}
	c.processServerEvents()

	if c.state.GameState != GameStateDead {
		t.Fatalf("state = %v, want dead", c.state.GameState)
	}
	if c.state.Lives != lives-1 {
		t.Errorf("lives = %d, want %d", c.state.Lives, lives-1)
	}
	if c.state.Player != nil {
		t.Error("player reference not cleared on death")
	}
	if c.state.DeathCause != "bob" {
		t.Errorf("death cause = %q, want %q", c.state.DeathCause, "bob")
	}
	if c.state.RespawnTimeRemaining != config.RespawnTimeoutSeconds {
		t.Errorf("respawn wait = %v, want %v", c.state.RespawnTimeRemaining, config.RespawnTimeoutSeconds)
	}
}

func TestScoreEventsAccumulate(t *testing.T) {
	c, fs := newTestClient(t, "")

	fs.handle.EventsCh <- server.ClientEvent{Type: server.EventScoreAdd, ScoreAdd: 100}
	fs.handle.EventsCh <- server.ClientEvent{Type: server.EventScoreAdd, ScoreAdd: 25}
	c.processServerEvents()

	if c.state.Score != 125 {
		t.Errorf("score = %d, want 125", c.state.Score)
	}
}

func TestEnvNoticeEventQueuesTicker(t *testing.T) {
	c, fs := newTestClient(t, "")

	fs.handle.EventsCh <- server.ClientEvent{Type: server.EventEnvNotice, Notice: "SOLAR FLARE INBOUND"}
	c.processServerEvents()

	if len(c.state.notices) != 1 || c.state.notices[0].text != "SOLAR FLARE INBOUND" {
		t.Errorf("notices = %+v, want the flare announcement", c.state.notices)
	}
}

func TestShutdownEventStartsCountdown(t *testing.T) {
	c, fs := newTestClient(t, "")
	c.state.GameState = GameStatePlaying

	fs.handle.EventsCh <- server.ClientEvent{Type: server.EventServerShutdown}
	c.processServerEvents()

	if c.state.GameState != GameStateShutdown {
		t.Fatalf("state = %v, want shutdown", c.state.GameState)
	}
	if c.state.shutdownTimer != config.ShutdownDisplaySeconds {
		t.Errorf("shutdown timer = %v, want %v", c.state.shutdownTimer, config.ShutdownDisplaySeconds)
	}
}

func TestClosedEventChannelStopsClient(t *testing.T) {
	c, fs := newTestClient(t, "")

	close(fs.handle.EventsCh)
	c.processServerEvents()

	if c.state.Running {
		t.Error("client still running after server closed the event channel")
	}
}

func TestStartGameResetsScoreOnFreshRun(t *testing.T) {
	c, fs := newTestClient(t, "")
	c.state.Score = 999

	c.state.Input.Space = true
	c.updateStartState()

	if fs.spawns != 1 {
		t.Fatalf("spawns = %d, want 1", fs.spawns)
	}
	if fs.resets != 1 {
		t.Errorf("server score resets = %d, want 1", fs.resets)
	}
	if c.state.Score != 0 {
		t.Errorf("score = %d, want 0", c.state.Score)
	}
	if c.state.Lives != config.InitialLives {
		t.Errorf("lives = %d, want %d", c.state.Lives, config.InitialLives)
	}
	if c.state.GameState != GameStatePlaying {
		t.Errorf("state = %v, want playing", c.state.GameState)
	}
	if c.state.InvincibleTime != config.InvincibilitySeconds {
		t.Errorf("invincibility = %v, want %v", c.state.InvincibleTime, config.InvincibilitySeconds)
	}
	if c.state.Camera.X != 10 || c.state.Camera.Y != 20 {
		t.Errorf("camera = (%v,%v), want player position (10,20)", c.state.Camera.X, c.state.Camera.Y)
	}
}

func TestRespawnKeepsScoreMidRun(t *testing.T) {
	c, fs := newTestClient(t, "")
	c.state.GameState = GameStateDead
	c.state.Lives = 2
	c.state.Score = 500

	c.startGame()

	if c.state.Score != 500 {
		t.Errorf("score = %d, want 500 kept across respawn", c.state.Score)
	}
	if fs.resets != 0 {
		t.Errorf("server score resets = %d, want 0", fs.resets)
	}
	if c.state.Lives != 2 {
		t.Errorf("lives = %d, want 2", c.state.Lives)
	}
}

func TestOutOfLivesRestartResets(t *testing.T) {
	c, fs := newTestClient(t, "")
	c.state.GameState = GameStateDead
	c.state.Lives = 0
	c.state.Score = 500

	c.startGame()

	if c.state.Score != 0 || c.state.Lives != config.InitialLives {
		t.Errorf("score/lives = %d/%d, want fresh run 0/%d", c.state.Score, c.state.Lives, config.InitialLives)
	}
	if fs.resets != 1 {
		t.Errorf("server score resets = %d, want 1", fs.resets)
	}
}

func TestRespawnWaitBlocksEarlyRestart(t *testing.T) {
	c, fs := newTestClient(t, "")
	c.state.GameState = GameStateDead
	c.state.Lives = 2
	c.state.RespawnTimeRemaining = 3.0
	c.state.delta = time.Second
	c.state.Input.Space = true

	c.updateDeadState()
	if fs.spawns != 0 {
		t.Fatal("respawned with the wait still running")
	}
	c.updateDeadState()
	if fs.spawns != 0 {
		t.Fatal("respawned with the wait still running")
	}

	// Third second exhausts the wait; the held key now takes effect.
	c.updateDeadState()
	if fs.spawns != 1 {
		t.Fatalf("spawns = %d, want 1 after the wait", fs.spawns)
	}
	if c.state.GameState != GameStatePlaying {
		t.Errorf("state = %v, want playing", c.state.GameState)
	}
}

func TestStatsToggleEdgeTriggered(t *testing.T) {
	c, fs := newTestClient(t, "")
	c.state.GameState = GameStatePlaying
	fs.dose = 1.5

	press := func(n int) {
		c.state.Input.Number = n
		c.updatePlayingState()
	}

	press(1)
	if !c.state.showStats {
		t.Fatal("first press did not open the telemetry line")
	}
	press(1) // held across frames
	if !c.state.showStats {
		t.Fatal("held key flipped the toggle")
	}
	press(-1) // released
	press(1)
	if c.state.showStats {
		t.Fatal("second press did not close the telemetry line")
	}

	if c.state.RadiationDose != 1.5 {
		t.Errorf("radiation dose = %v, want 1.5 polled from server", c.state.RadiationDose)
	}
}

func TestPlayingStateFollowsPlayerAndDecaysInvincibility(t *testing.T) {
	c, fs := newTestClient(t, "")
	c.state.GameState = GameStatePlaying
	c.state.InvincibleTime = 1.0
	c.state.delta = 400 * time.Millisecond
	fs.player = object.NewUser(33, 44)

	c.updatePlayingState()

	if math.Abs(c.state.InvincibleTime-0.6) > 1e-9 {
		t.Errorf("invincibility = %v, want 0.6", c.state.InvincibleTime)
	}
	if c.state.Camera.X != 33 || c.state.Camera.Y != 44 {
		t.Errorf("camera = (%v,%v), want (33,44)", c.state.Camera.X, c.state.Camera.Y)
	}

	c.state.InvincibleTime = 0.1
	c.updatePlayingState()
	if c.state.InvincibleTime != 0 {
		t.Errorf("invincibility = %v, want clamped to 0", c.state.InvincibleTime)
	}
}

func TestShutdownCountdownStopsClient(t *testing.T) {
	c, _ := newTestClient(t, "")
	c.state.GameState = GameStateShutdown
	c.state.shutdownTimer = 2.0
	c.state.delta = time.Second

	c.updateShutdownState()
	if !c.state.Running {
		t.Fatal("client stopped with countdown still running")
	}

	c.updateShutdownState()
	if c.state.Running {
		t.Error("client still running after the countdown expired")
	}
}

func TestProcessInputQuit(t *testing.T) {
	c, _ := newTestClient(t, "q")

	c.processInput()

	if c.state.Running {
		t.Error("client still running after quit key")
	}
}

func TestProcessInputForwardsToServerWhenPlaying(t *testing.T) {
	c, fs := newTestClient(t, "w")
	c.state.GameState = GameStatePlaying

	c.processInput()

	if len(fs.inputs) != 1 {
		t.Fatalf("server received %d inputs, want 1", len(fs.inputs))
	}
	if !fs.inputs[0].Up {
		t.Error("thrust key not forwarded to server")
	}
}

func TestProcessInputIgnoredOutsideGameplay(t *testing.T) {
	c, fs := newTestClient(t, "w")

	c.processInput()

	if len(fs.inputs) != 0 {
		t.Errorf("server received %d inputs on the start screen, want 0", len(fs.inputs))
	}
}

func TestInactivityWarnsThenDisconnects(t *testing.T) {
	c, _ := newTestClient(t, "")

	c.lastInput = time.Now().Add(-time.Duration(config.InactivityWarnUser+1) * time.Second)
	c.processInput()
	if !c.state.isInactive {
		t.Error("idle client not flagged inactive")
	}
	if !c.state.Running {
		t.Fatal("client disconnected at the warning threshold")
	}

	c.lastInput = time.Now().Add(-time.Duration(config.InactivityDisconnectUser+1) * time.Second)
	c.processInput()
	if c.state.Running {
		t.Error("idle client not disconnected past the timeout")
	}
}
