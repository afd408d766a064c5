package client

import (
	"time"

	"github.com/mkarren/voidbelt/internal/draw"
	"github.com/mkarren/voidbelt/internal/loop/config"
	"github.com/mkarren/voidbelt/internal/object"
)

// GameState represents the current game phase for a client.
type GameState int

const (
	GameStateStart    GameState = iota // Title screen
	GameStatePlaying                   // Active gameplay
	GameStateDead                      // Player died, show restart prompt
	GameStateShutdown                  // Server is shutting down
)

// Minimap dimensions. Sub-rows are double the terminal rows because the
// minimap renders with half-block characters.
const (
	minimapWidth   = 28
	minimapHeight  = 7
	minimapSubRows = minimapHeight * 2
)

// Maximum notices shown at once and how long each stays on screen.
const (
	maxNotices       = 3
	noticeShowTime   = 6 * time.Second
	noticeFlashDelay = 400 // Blink period for urgent banners, in milliseconds
)

// notice is one environment announcement with its display deadline.
type notice struct {
	text      string
	expiresAt time.Time
}

// ClientState holds per-player state (input, score, camera, etc.).
// Each client has their own instance, managed by the Client.
type ClientState struct {
	Input                object.Input
	View                 object.Screen     // Viewport dimensions (can vary per client)
	Camera               object.Camera     // Camera position (follows this client's player)
	GameState            GameState         // This client's game phase
	Player               *object.User      // Reference to this client's ship (from server)
	Score                int               // This client's score
	Lives                int               // This client's remaining lives
	InvincibleTime       float64           // Remaining invincibility time in seconds
	RespawnTimeRemaining float64           // Forced wait before respawn is allowed
	RadiationDose        float64           // Exposure polled from the server, drives the HUD bar
	DeathCause           string            // What killed the player last, for the death screen
	termSizeFunc         draw.TermSizeFunc // Function to get terminal size
	Running              bool              // Client loop running
	delta                time.Duration     // Frame delta time (client-side)
	shutdownTimer        float64           // Countdown before auto-disconnect on shutdown
	isInactive           bool              // Whether the client is in inactive warning state
	prevGameState        GameState         // Last drawn state, for full-clear on transitions
	wasInactive          bool              // Last drawn inactivity flag

	notices    []notice // Environment announcements, newest last
	showStats  bool     // Environment telemetry line toggle
	lastNumber int      // Previous frame's number key, for edge detection

	minimapGrid [minimapSubRows][minimapWidth]byte
}

// NewClientState creates a new initialized client state.
func NewClientState() *ClientState {
	return &ClientState{
		GameState:  GameStateStart,
		Lives:      config.InitialLives,
		Running:    true,
		lastNumber: -1,
	}
}

// pushNotice queues an environment announcement, dropping the oldest when
// the ticker is full.
func (s *ClientState) pushNotice(text string, now time.Time) {
	if text == "" {
		return
	}
	s.notices = append(s.notices, notice{text: text, expiresAt: now.Add(noticeShowTime)})
	if len(s.notices) > maxNotices {
		s.notices = s.notices[len(s.notices)-maxNotices:]
	}
}

// pruneNotices drops announcements past their display deadline.
func (s *ClientState) pruneNotices(now time.Time) {
	kept := s.notices[:0]
	for _, n := range s.notices {
		if now.Before(n.expiresAt) {
			kept = append(kept, n)
		}
	}
	s.notices = kept
}
