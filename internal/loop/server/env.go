package server

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/mkarren/voidbelt/internal/env"
	"github.com/mkarren/voidbelt/internal/loop/config"
	"github.com/mkarren/voidbelt/internal/object"
)

// nextCosmicDelay rolls the wait until the next spontaneous cosmic event.
func nextCosmicDelay() float64 {
	spread := config.CosmicEventMaxSeconds - config.CosmicEventMinSeconds
	return config.CosmicEventMinSeconds + rand.Float64()*spread
}

// updateEnvironment advances the environment manager by one tick, fires
// scheduled cosmic events and tugs asteroids toward gravity wells.
// Must be called with s.mu held.
func (s *Server) updateEnvironment(dt float64) {
	s.envMu.Lock()
	defer s.envMu.Unlock()

	s.cosmicTimer -= dt
	if s.cosmicTimer <= 0 {
		events := env.CosmicEvents()
		s.fireCosmicEventLocked(events[rand.Intn(len(events))])
		s.cosmicTimer = nextCosmicDelay()
	}

	center := env.Vec2{
		X: float64(s.world.World.Width) / 2,
		Y: float64(s.world.World.Height) / 2,
	}
	cam := env.Camera{X: center.X, Y: center.Y}
	if err := s.envMgr.Update(s.world.Delta, cam, center); err != nil {
		s.log.Warn("environment update", zap.Error(err))
	}

	// Gravity wells tug asteroids as well as ships.
	if s.hazards != nil {
		for _, obj := range s.world.Objects {
			a, ok := obj.(*object.Asteroid)
			if !ok || a.Destroyed {
				continue
			}
			fx, fy := s.hazards.GravityPull(a.X, a.Y)
			a.VX += fx * config.GravityAsteroidScale * dt
			a.VY += fy * config.GravityAsteroidScale * dt
		}
	}

	s.envStatus = s.buildEnvStatusLocked()
}

// applyEnvToPlayers applies hazard forces, radiation exposure and salvage
// collection to every live player. Runs after object updates so positions
// are settled. Must be called with s.mu held.
func (s *Server) applyEnvToPlayers(dt float64) {
	s.envMu.Lock()
	defer s.envMu.Unlock()

	for _, handle := range s.clients {
		p := handle.Player
		if p == nil {
			continue
		}
		px, py := p.GetPosition()

		if s.hazards != nil {
			fx, fy := s.hazards.GravityPull(px, py)
			p.VX += fx * dt
			p.VY += fy * dt

			rate := s.hazards.DamageRate(px, py)
			if rate > 0 {
				handle.RadiationDose += rate * dt
			} else if handle.RadiationDose > 0 {
				handle.RadiationDose -= config.RadiationDecayPerSec * dt
				if handle.RadiationDose < 0 {
					handle.RadiationDose = 0
				}
			}
			if handle.RadiationDose >= config.RadiationKillDose && handle.InvincibleTime <= 0 {
				s.killPlayerLocked(handle, "radiation")
				continue
			}
		}

		if s.interactive != nil {
			if value, ok := s.interactive.Claim(px, py, config.SalvageClaimReach); ok {
				points := int(value * config.SalvageScoreScale)
				handle.Score += points
				select {
				case handle.EventsCh <- ClientEvent{Type: EventScoreAdd, ScoreAdd: points}:
				default:
				}
				s.world.Spawn(object.NewLabel(px, py-4, fmt.Sprintf("+%d", points), 1.4))
			}
		}
	}
}

// fireCosmicEventLocked triggers a cosmic event at a random world position.
// Asteroid storms also drop real rocks into the world. Must be called with
// both s.mu and envMu held.
func (s *Server) fireCosmicEventLocked(ev env.CosmicEvent) {
	pos := env.Vec2{
		X: rand.Float64() * float64(s.world.World.Width),
		Y: rand.Float64() * float64(s.world.World.Height),
	}
	intensity := 0.5 + rand.Float64()*0.5
	s.envMgr.CreateCosmicEvent(ev, pos, intensity)

	switch ev {
	case env.CosmicSupernova:
		s.noticeBuf = append(s.noticeBuf, "SUPERNOVA DETECTED")
	case env.CosmicPulsar:
		s.noticeBuf = append(s.noticeBuf, "Pulsar sweep incoming")
	case env.CosmicWormholeOpen:
		s.noticeBuf = append(s.noticeBuf, "WORMHOLE OPENED")
	case env.CosmicAsteroidStorm:
		s.noticeBuf = append(s.noticeBuf, "ASTEROID STORM!")
		for i := 0; i < config.StormAsteroidBurst; i++ {
			rock := object.NewAsteroidRandom(s.world.World, object.AsteroidLarge, 2.5)
			s.world.AddObject(rock)
		}
	case env.CosmicEnergyStorm:
		s.noticeBuf = append(s.noticeBuf, "ENERGY STORM RISING")
	}
}

// buildEnvStatusLocked assembles the HUD summary from the environment
// manager. Must be called with envMu held.
func (s *Server) buildEnvStatusLocked() EnvStatus {
	stats := s.envMgr.GetStatistics()
	_, storm := s.envMgr.StormWarning()

	st := EnvStatus{
		Preset:        string(stats.Preset),
		LOD:           stats.Performance.LOD.String(),
		FPS:           stats.Performance.FPS,
		UpdateMillis:  stats.Performance.UpdateMillis,
		RenderMillis:  stats.Performance.RenderMillis,
		Elements:      stats.Performance.TotalElements,
		ActiveSystems: stats.Performance.ActiveSystems,
		MemoryKB:      stats.Performance.MemoryBytes / 1024,
		Ambient:       s.envMgr.Ambient().Brightness(),
		StormWarning:  storm,
	}
	if s.weather != nil {
		st.StormIntensity = s.weather.Intensity()
	}
	if s.hazards != nil {
		st.Hazards = s.hazards.Zones()
	}
	return st
}

// flushNotices broadcasts staged environment notices to all clients.
// Must be called with s.mu held.
func (s *Server) flushNotices() {
	if len(s.noticeBuf) == 0 {
		return
	}
	for _, text := range s.noticeBuf {
		for _, handle := range s.clients {
			select {
			case handle.EventsCh <- ClientEvent{Type: EventEnvNotice, Notice: text}:
			default:
			}
		}
	}
	s.noticeBuf = s.noticeBuf[:0]
}
