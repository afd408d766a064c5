package server

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mkarren/voidbelt/internal/env"
	"github.com/mkarren/voidbelt/internal/loop/config"
	"github.com/mkarren/voidbelt/internal/object"
	"github.com/mkarren/voidbelt/internal/score"
)

// GameServer is the interface clients use to communicate with the game server.
// Decouples the Client from the concrete Server implementation, enabling
// testing and potential network-based server implementations.
type GameServer interface {
	RegisterClient(username string) *ClientHandle
	UnregisterClient(clientID int)
	SendInput(clientID int, input object.Input)
	GetSnapshot() *WorldSnapshot
	GetClientPlayer(clientID int) *object.User
	GetClientDose(clientID int) float64
	SpawnPlayer(clientID int)
	RemovePlayer(clientID int)
	ResetScore(clientID int)
	RenderEnv(target env.RenderTarget, cam env.Camera, pos env.Vec2) error
}

// Options configures a game server.
type Options struct {
	Env            env.Settings // Environment settings; zero value means defaults
	Preset         env.Preset   // Scene preset applied at startup, empty for none
	World          object.Screen
	AsteroidTarget int          // Weighted asteroid population, 0 means the default
	Scores         *score.Store // Optional leaderboard persistence
	Logger         *zap.Logger
}

// Server manages the shared world state and processes inputs from all clients.
type Server struct {
	log          *zap.Logger
	world        *WorldState
	snapshot     atomic.Pointer[WorldSnapshot]
	clients      map[int]*ClientHandle
	nextClientID int
	inputChan    chan ClientInput
	registerCh   chan *ClientHandle
	unregisterCh chan int
	mu           sync.RWMutex

	// Environment manager and the systems the game couples to. envMu
	// serializes the tick's env update against per-client env renders.
	envMu       sync.Mutex
	envMgr      *env.Manager
	hazards     *env.HazardField
	interactive *env.InteractiveField
	weather     *env.Weather
	preset      env.Preset
	cosmicTimer float64
	noticeBuf   []string // Notices staged during the current tick
	envStatus   EnvStatus

	scores *score.Store

	// Double-buffered snapshot objects to avoid allocations
	snapshotBufs [2][]object.Object
	snapshotIdx  int

	// Objects marked for removal (deferred compaction)
	toRemove map[object.Object]struct{}

	// Reusable player set to avoid per-frame allocation
	playerSet map[object.Object]struct{}
}

// Compile-time check that Server implements GameServer.
var _ GameServer = (*Server)(nil)

// ClientHandle represents a client's connection to the server.
type ClientHandle struct {
	ID             int
	Username       string // Display name for this client
	Player         *object.User
	Input          object.Input
	EventsCh       chan ClientEvent // Events sent to client (death, etc.)
	InvincibleTime float64          // Remaining invincibility time in seconds
	Score          int              // Server-tracked score for leaderboards
	RadiationDose  float64          // Accumulated radiation exposure
}

// ClientInput represents input from a specific client.
type ClientInput struct {
	ClientID int
	Input    object.Input
}

// ClientEvent represents an event sent from server to client.
type ClientEvent struct {
	Type     ClientEventType
	KilledBy string // For death events
	ScoreAdd int    // For score events
	Notice   string // For environment notices
}

// ClientEventType identifies the type of client event.
type ClientEventType int

const (
	EventPlayerDied ClientEventType = iota
	EventScoreAdd
	EventEnvNotice
	EventServerShutdown
)

// NewServer creates a new game server with its own environment manager.
func NewServer(opts Options) (*Server, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var zeroSettings env.Settings
	if opts.Env == zeroSettings {
		opts.Env = env.DefaultSettings()
	}

	world := NewWorldState()
	worldDims := opts.World
	if worldDims.Width == 0 || worldDims.Height == 0 {
		worldDims = object.Screen{
			Width:   config.WorldWidth,
			Height:  config.WorldHeight,
			CenterX: config.WorldWidth / 2,
			CenterY: config.WorldHeight / 2,
		}
	}
	world.World = worldDims
	world.Screen = world.World
	world.InitGrids()

	bounds := env.Bounds{
		Width:  float64(worldDims.Width),
		Height: float64(worldDims.Height),
	}
	mgr, err := env.New(opts.Env, bounds, log.Named("env"))
	if err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	s := &Server{
		log:          log,
		world:        world,
		clients:      make(map[int]*ClientHandle),
		nextClientID: 1,
		inputChan:    make(chan ClientInput, 256),
		registerCh:   make(chan *ClientHandle, 16),
		unregisterCh: make(chan int, 16),
		envMgr:       mgr,
		preset:       opts.Preset,
		scores:       opts.Scores,
		toRemove:     make(map[object.Object]struct{}),
		playerSet:    make(map[object.Object]struct{}),
	}
	s.hazards, _ = env.GetSystem[*env.HazardField](mgr, env.SystemHazards)
	s.interactive, _ = env.GetSystem[*env.InteractiveField](mgr, env.SystemInteractive)
	s.weather, _ = env.GetSystem[*env.Weather](mgr, env.SystemWeather)
	s.cosmicTimer = nextCosmicDelay()

	if opts.Preset != "" {
		mgr.ApplyPreset(opts.Preset)
	}

	// Storm announcements reach clients as HUD notices.
	mgr.Subscribe(func(ev env.Event) {
		switch ev.Type {
		case env.EventStormApproaching:
			if ev.Param("kind", 0) >= 1 {
				s.noticeBuf = append(s.noticeBuf, "ION STORM FRONT DETECTED")
			} else {
				s.noticeBuf = append(s.noticeBuf, "METEOR SHOWER INBOUND")
			}
		case env.EventStormCleared:
			s.noticeBuf = append(s.noticeBuf, "Storm has passed")
		}
	})

	target := opts.AsteroidTarget
	if target == 0 {
		target = config.InitialAsteroidTarget
	}
	world.AddObject(object.NewAsteroidSpawner(target))

	// Create initial empty snapshot
	s.snapshot.Store(&WorldSnapshot{
		Objects: []object.Object{},
		World:   world.World,
	})

	return s, nil
}

// Run starts the server loop. Blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) {
	lastTime := time.Now()

	defer func() {
		s.envMu.Lock()
		defer s.envMu.Unlock()
		if err := s.envMgr.Close(); err != nil {
			s.log.Warn("environment close", zap.Error(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frameStart := time.Now()
		s.world.Delta = frameStart.Sub(lastTime)
		lastTime = frameStart

		// Process registrations/unregistrations
		s.processRegistrations()

		// Collect all pending inputs
		s.collectInputs()

		// Update world state
		s.updateWorld()

		// Create new snapshot for clients
		s.createSnapshot()

		// Frame timing
		elapsed := time.Since(frameStart)
		if elapsed < config.ServerTickTime {
			time.Sleep(config.ServerTickTime - elapsed)
		}
	}
}

// Shutdown gracefully shuts down the server by notifying all connected clients
// and waiting for them to disconnect (up to the given timeout).
// The caller should cancel the server context after Shutdown returns.
func (s *Server) Shutdown(timeout time.Duration) {
	// Notify all connected clients about the shutdown
	s.mu.RLock()
	for _, handle := range s.clients {
		select {
		case handle.EventsCh <- ClientEvent{Type: EventServerShutdown}:
		default:
		}
	}
	s.mu.RUnlock()

	// Wait for all clients to disconnect, or timeout
	deadline := time.After(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			return
		case <-ticker.C:
			s.mu.RLock()
			remaining := len(s.clients)
			s.mu.RUnlock()
			if remaining == 0 {
				return
			}
		}
	}
}

// RegisterClient registers a new client with the given username and returns its handle.
func (s *Server) RegisterClient(username string) *ClientHandle {
	s.mu.Lock()
	id := s.nextClientID
	s.nextClientID++
	s.mu.Unlock()

	if username == "" {
		username = fmt.Sprintf("pilot-%d", id)
	}
	if len(username) > config.MaxUsernameLength {
		username = username[:config.MaxUsernameLength]
	}

	handle := &ClientHandle{
		ID:       id,
		Username: username,
		EventsCh: make(chan ClientEvent, 16),
	}

	s.registerCh <- handle
	return handle
}

// UnregisterClient removes a client from the server.
func (s *Server) UnregisterClient(clientID int) {
	s.unregisterCh <- clientID
}

// SendInput sends input from a client to the server.
func (s *Server) SendInput(clientID int, input object.Input) {
	select {
	case s.inputChan <- ClientInput{ClientID: clientID, Input: input}:
	default:
		// Input channel full, drop input
	}
}

// GetSnapshot returns the current world snapshot.
func (s *Server) GetSnapshot() *WorldSnapshot {
	return s.snapshot.Load()
}

// GetClientPlayer returns the player object for a client (thread-safe).
func (s *Server) GetClientPlayer(clientID int) *object.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if handle, ok := s.clients[clientID]; ok {
		return handle.Player
	}
	return nil
}

// GetClientDose returns a client's accumulated radiation dose (thread-safe).
func (s *Server) GetClientDose(clientID int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if handle, ok := s.clients[clientID]; ok {
		return handle.RadiationDose
	}
	return 0
}

// ResetScore zeroes a client's server-tracked score. Clients call this when
// the player starts a fresh run after game over.
func (s *Server) ResetScore(clientID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if handle, ok := s.clients[clientID]; ok {
		handle.Score = 0
	}
}

// RenderEnv draws the environment stack for one client's viewport.
// Serialized against the tick's environment update.
func (s *Server) RenderEnv(target env.RenderTarget, cam env.Camera, pos env.Vec2) error {
	s.envMu.Lock()
	defer s.envMu.Unlock()
	return s.envMgr.Render(target, cam, pos)
}

// StatsSnapshot returns a copy of the environment statistics, for telemetry.
func (s *Server) StatsSnapshot() env.Statistics {
	s.envMu.Lock()
	defer s.envMu.Unlock()
	return s.envMgr.GetStatistics()
}

// SpawnPlayer spawns a player for the given client.
func (s *Server) SpawnPlayer(clientID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle, ok := s.clients[clientID]
	if !ok {
		return
	}

	// Remove existing player if any
	if handle.Player != nil {
		s.removeObjectLocked(handle.Player)
	}

	// Create new player at random location
	x := rand.Float64() * float64(s.world.World.Width)
	y := rand.Float64() * float64(s.world.World.Height)
	player := object.NewUser(x, y)
	player.OwnerID = clientID
	player.Username = handle.Username
	handle.Player = player
	handle.InvincibleTime = config.InvincibilitySeconds // Grant spawn invincibility
	handle.RadiationDose = 0
	s.world.AddObject(player)
}

// RemovePlayer removes the player for a client.
func (s *Server) RemovePlayer(clientID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle, ok := s.clients[clientID]
	if !ok || handle.Player == nil {
		return
	}

	s.removeObjectLocked(handle.Player)
	handle.Player = nil
}

// removeObjectLocked removes a single object from the world. Must be called with lock held.
func (s *Server) removeObjectLocked(target object.Object) {
	s.world.RemoveObject(target)
	kept := s.world.Objects[:0]
	for _, obj := range s.world.Objects {
		if obj != target {
			kept = append(kept, obj)
		}
	}
	s.world.Objects = kept
}

// processRegistrations handles pending client registrations/unregistrations.
func (s *Server) processRegistrations() {
	for {
		select {
		case handle := <-s.registerCh:
			s.mu.Lock()
			s.clients[handle.ID] = handle
			s.mu.Unlock()
			s.log.Info("client registered",
				zap.Int("id", handle.ID),
				zap.String("username", handle.Username))
		case clientID := <-s.unregisterCh:
			s.mu.Lock()
			if handle, ok := s.clients[clientID]; ok {
				// Remove player from world
				if handle.Player != nil {
					s.removeObjectLocked(handle.Player)
				}
				s.recordScore(handle)
				close(handle.EventsCh)
				delete(s.clients, clientID)
				s.log.Info("client unregistered", zap.Int("id", clientID))
			}
			s.mu.Unlock()
		default:
			return
		}
	}
}

// collectInputs gathers all pending inputs from clients.
func (s *Server) collectInputs() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		select {
		case ci := <-s.inputChan:
			if handle, ok := s.clients[ci.ClientID]; ok {
				handle.Input = ci.Input
			}
		default:
			return
		}
	}
}

// updateWorld updates the world state based on collected inputs.
func (s *Server) updateWorld() {
	s.mu.Lock()
	defer s.mu.Unlock()

	dt := s.world.Delta.Seconds()

	// Advance the environment and apply its forces to the world.
	s.updateEnvironment(dt)

	// Decrement invincibility timers and build player set for O(1) lookup.
	// Reuse player set to avoid per-frame allocation.
	clear(s.playerSet)
	for _, handle := range s.clients {
		if handle.Player != nil {
			s.playerSet[handle.Player] = struct{}{}
		}
		if handle.InvincibleTime > 0 {
			handle.InvincibleTime -= dt
			if handle.InvincibleTime < 0 {
				handle.InvincibleTime = 0
			}
		}
	}

	// Update each player with their input
	for _, handle := range s.clients {
		if handle.Player != nil {
			ctx := object.UpdateContext{
				Delta:         s.world.Delta,
				Input:         handle.Input,
				Screen:        s.world.Screen,
				Spawner:       s.world,
				Objects:       s.world.Objects,
				AsteroidCount: s.world.AsteroidCount,
			}
			remove, _ := handle.Player.Update(ctx)
			if remove {
				handle.Player = nil
			}
		}
	}

	// Update non-player objects with empty input
	emptyInput := object.Input{}
	ctx := object.UpdateContext{
		Delta:         s.world.Delta,
		Input:         emptyInput,
		Screen:        s.world.Screen,
		Spawner:       s.world,
		Objects:       s.world.Objects,
		AsteroidCount: s.world.AsteroidCount,
	}

	kept := s.world.Objects[:0]
	for _, obj := range s.world.Objects {
		// Skip players - already updated (O(1) lookup)
		if _, isPlayer := s.playerSet[obj]; isPlayer {
			kept = append(kept, obj)
			continue
		}

		remove, _ := obj.Update(ctx)
		if !remove {
			kept = append(kept, obj)
		} else {
			// Decrement tracked counts and release pooled objects
			s.world.RemoveObject(obj)
			object.ReleaseObject(obj)
		}
	}
	s.world.Objects = kept
	s.world.FlushSpawned()

	// Environment coupling that depends on settled positions.
	s.applyEnvToPlayers(dt)

	// Check collisions
	s.checkCollisions()

	// Broadcast staged environment notices.
	s.flushNotices()
}

// killPlayerLocked handles a player death: explosion, removal, notification
// and score recording. Must be called with s.mu held.
func (s *Server) killPlayerLocked(handle *ClientHandle, killedBy string) {
	if handle.Player == nil {
		return
	}

	x, y := handle.Player.GetPosition()
	object.SpawnExplosion(x, y, 20, 25.0, 1.0, s.world)

	// Mark player for removal (deferred compaction)
	s.toRemove[handle.Player] = struct{}{}
	handle.Player = nil
	handle.RadiationDose = 0

	s.recordScore(handle)

	select {
	case handle.EventsCh <- ClientEvent{Type: EventPlayerDied, KilledBy: killedBy}:
	default:
	}
}

// recordScore persists a client's current score to the leaderboard store.
func (s *Server) recordScore(handle *ClientHandle) {
	if s.scores == nil || handle.Score <= 0 {
		return
	}
	username := handle.Username
	points := handle.Score
	preset := string(s.preset)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.scores.Record(ctx, username, points, preset); err != nil {
			s.log.Warn("record score", zap.String("username", username), zap.Error(err))
		}
	}()
}

// createSnapshot creates an immutable snapshot of the world state.
func (s *Server) createSnapshot() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Use double-buffered slice to avoid allocations
	idx := s.snapshotIdx
	s.snapshotIdx = 1 - s.snapshotIdx // Toggle for next frame

	// Grow buffer if needed, otherwise reuse
	buf := s.snapshotBufs[idx]
	if cap(buf) < len(s.world.Objects) {
		buf = make([]object.Object, len(s.world.Objects))
		s.snapshotBufs[idx] = buf
	}
	buf = buf[:len(s.world.Objects)]
	copy(buf, s.world.Objects)

	snapshot := &WorldSnapshot{
		Objects:     buf,
		UserObjects: object.FilterUsers(buf),
		Players:     len(s.clients),
		World:       s.world.World,
		Delta:       s.world.Delta,
		Env:         s.envStatus,
		TopScores:   s.topScoresLocked(5),
	}

	s.snapshot.Store(snapshot)
}

// topScoresLocked builds the current leaderboard. Must be called with at
// least a read lock held.
func (s *Server) topScoresLocked(limit int) []TopScoreEntry {
	entries := make([]TopScoreEntry, 0, len(s.clients))
	for _, handle := range s.clients {
		if handle.Score <= 0 {
			continue
		}
		entries = append(entries, TopScoreEntry{
			Username: handle.Username,
			Score:    handle.Score,
			clientID: handle.ID,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].clientID < entries[j].clientID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
