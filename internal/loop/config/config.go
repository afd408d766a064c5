// Package config centralizes all tunable game parameters.
package config

import "time"

// View resolution - the visible viewport in logical units.
// Actual rendering scales to fit terminal size.
const (
	ViewWidth  = 120 // Logical viewport width
	ViewHeight = 80  // Logical viewport height (in sub-pixels, so 40 terminal rows)
)

// World dimensions - the total game area (larger than viewport).
// Ship stays centered while the camera follows it.
const (
	WorldWidth  = 400 // Total world width
	WorldHeight = 300 // Total world height
)

// Scoring
const (
	ScoreLargeAsteroid  = 20
	ScoreMediumAsteroid = 50
	ScoreSmallAsteroid  = 100
	SalvageScoreScale   = 5 // Points per unit of salvage value
)

// Player
const (
	InitialLives         = 3
	InvincibilitySeconds = 3.0
	PlayerBlinkFrequency = 10.0 // Hz
	MaxUsernameLength    = 16   // Maximum display length for player usernames
	RespawnTimeoutSeconds = 3.0 // Forced wait on the death screen before respawning
)

// Spawning
const (
	InitialAsteroidTarget = 250
)

// Environment coupling - how the world's ambient systems touch gameplay.
const (
	SalvageClaimReach    = 4.0 // World units within which salvage is auto-collected
	RadiationKillDose    = 3.0 // Seconds of full-intensity exposure before hull failure
	RadiationDecayPerSec = 0.5 // Dose shed per second once clear of radiation
	GravityAsteroidScale = 0.6 // Wells pull asteroids a bit less than ships

	CosmicEventMinSeconds = 40.0 // Spontaneous cosmic event cadence, lower bound
	CosmicEventMaxSeconds = 110.0
	StormAsteroidBurst    = 6 // Real asteroids spawned by an asteroid storm
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
)

// Inactivity
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)

// Client rendering
const (
	ClientTargetFPS       = 60
	ClientTargetFrameTime = time.Second / ClientTargetFPS

	// Render resolution cap; larger terminals get a centered, bordered viewport.
	MaxTermWidth  = 200
	MaxTermHeight = 60
)

// Server tick rate
const (
	ServerTickRate = 60
	ServerTickTime = time.Second / ServerTickRate
)
