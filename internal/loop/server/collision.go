package server

import (
	"fmt"

	"github.com/mkarren/voidbelt/internal/loop/config"
	"github.com/mkarren/voidbelt/internal/object"
	"github.com/mkarren/voidbelt/internal/physics"
)

// checkCollisions runs the full collision pass for one tick: projectiles
// against asteroids, projectile crossfire, asteroid bounces and player
// impacts, then compacts objects marked for removal. Must be called with
// s.mu held.
func (s *Server) checkCollisions() {
	w := s.world
	collectCollidables(w.Objects, &w.projectileCache, &w.asteroidCache)
	populateGrids(w.asteroidCache, w.projectileCache, w.asteroidGrid, w.projectileGrid)

	s.checkProjectileAsteroidCollisions(w.projectileCache, w.asteroidCache)
	checkProjectileProjectileCollisions(w.projectileCache, w.projectileGrid)
	checkAsteroidAsteroidCollisions(w.asteroidCache, w.asteroidGrid)
	s.checkPlayerCollisions(w.asteroidCache, w.projectileCache)

	s.compactRemoved()
}

// collectCollidables extracts projectiles and asteroids from the object list.
// Uses pre-allocated slices to avoid allocations.
func collectCollidables(objects []object.Object, projectiles *[]*object.Projectile, asteroids *[]*object.Asteroid) {
	*projectiles = (*projectiles)[:0]
	*asteroids = (*asteroids)[:0]

	for _, obj := range objects {
		switch o := obj.(type) {
		case *object.Projectile:
			*projectiles = append(*projectiles, o)
		case *object.Asteroid:
			*asteroids = append(*asteroids, o)
		}
	}
}

// populateGrids clears and re-inserts all collidables into the spatial grids.
func populateGrids(
	asteroids []*object.Asteroid,
	projectiles []*object.Projectile,
	asteroidGrid *physics.SpatialGrid,
	projectileGrid *physics.SpatialGrid,
) {
	asteroidGrid.Clear()
	for i, a := range asteroids {
		asteroidGrid.Insert(a.X, a.Y, i)
	}

	projectileGrid.Clear()
	for i, p := range projectiles {
		projectileGrid.Insert(p.X, p.Y, i)
	}
}

// asteroidScore returns the score for destroying an asteroid of the given size.
func asteroidScore(size object.AsteroidSize) int {
	switch size {
	case object.AsteroidLarge:
		return config.ScoreLargeAsteroid
	case object.AsteroidMedium:
		return config.ScoreMediumAsteroid
	case object.AsteroidSmall:
		return config.ScoreSmallAsteroid
	default:
		return 0
	}
}

// checkProjectileAsteroidCollisions destroys asteroids hit by projectiles and
// credits the shooter. Spawn-protected asteroids are not yet solid.
func (s *Server) checkProjectileAsteroidCollisions(projectiles []*object.Projectile, asteroids []*object.Asteroid) {
	grid := s.world.asteroidGrid
	for _, p := range projectiles {
		if p.IsDestroyed() {
			continue
		}
		grid.QueryAround(p.X, p.Y, func(j int) bool {
			a := asteroids[j]
			if a.IsDestroyed() || a.IsProtected() {
				return false
			}
			if !physics.PointInCircle(p.X, p.Y, a.X, a.Y, a.GetRadius()) {
				return false
			}
			p.MarkDestroyed()
			a.MarkDestroyed()
			s.awardKill(p.OwnerID, asteroidScore(a.Size), a.X, a.Y)
			return true // Projectile is spent, stop checking
		})
	}
}

// awardKill credits points to a client and drops a floating score label at
// the kill site. Must be called with s.mu held.
func (s *Server) awardKill(ownerID, points int, x, y float64) {
	if points <= 0 {
		return
	}
	handle, ok := s.clients[ownerID]
	if !ok {
		return
	}
	handle.Score += points
	select {
	case handle.EventsCh <- ClientEvent{Type: EventScoreAdd, ScoreAdd: points}:
	default:
	}
	s.world.Spawn(object.NewLabel(x, y, fmt.Sprintf("+%d", points), 1.2))
}

// checkPlayerCollisions kills players that touch a live asteroid or another
// client's projectile. Invincible players pass through everything.
func (s *Server) checkPlayerCollisions(asteroids []*object.Asteroid, projectiles []*object.Projectile) {
	for _, handle := range s.clients {
		p := handle.Player
		if p == nil || handle.InvincibleTime > 0 {
			continue
		}
		px, py := p.GetPosition()
		radius := p.GetRadius()

		killed := false
		s.world.asteroidGrid.QueryAround(px, py, func(j int) bool {
			a := asteroids[j]
			if a.IsDestroyed() || a.IsProtected() {
				return false
			}
			if physics.CirclesOverlap(px, py, radius, a.X, a.Y, a.GetRadius()) {
				killed = true
				return true
			}
			return false
		})
		if killed {
			s.killPlayerLocked(handle, "an asteroid")
			continue
		}

		killer := ""
		s.world.projectileGrid.QueryAround(px, py, func(j int) bool {
			pr := projectiles[j]
			if pr.IsDestroyed() || pr.OwnerID == handle.ID {
				return false
			}
			if physics.CirclesOverlap(px, py, radius, pr.X, pr.Y, object.ProjectileRadius) {
				pr.MarkDestroyed()
				killed = true
				if shooter, ok := s.clients[pr.OwnerID]; ok {
					killer = shooter.Username
				} else {
					killer = "a stray shot"
				}
				return true
			}
			return false
		})
		if killed {
			s.killPlayerLocked(handle, killer)
		}
	}
}

// compactRemoved drops objects marked for removal during this tick.
// Must be called with s.mu held.
func (s *Server) compactRemoved() {
	if len(s.toRemove) == 0 {
		return
	}
	kept := s.world.Objects[:0]
	for _, obj := range s.world.Objects {
		if _, remove := s.toRemove[obj]; remove {
			s.world.RemoveObject(obj)
			continue
		}
		kept = append(kept, obj)
	}
	s.world.Objects = kept
	clear(s.toRemove)
}

// checkProjectileProjectileCollisions handles projectile-projectile collisions
// using the spatial grid to limit checks to nearby projectiles.
func checkProjectileProjectileCollisions(projectiles []*object.Projectile, grid *physics.SpatialGrid) {
	for i, p1 := range projectiles {
		if p1.IsDestroyed() {
			continue
		}
		grid.QueryAround(p1.X, p1.Y, func(j int) bool {
			if j <= i {
				return false // Skip self and already-checked pairs
			}
			p2 := projectiles[j]
			if p2.IsDestroyed() {
				return false
			}
			if physics.CirclesOverlap(p1.X, p1.Y, object.ProjectileRadius, p2.X, p2.Y, object.ProjectileRadius) {
				p1.MarkDestroyed()
				p2.MarkDestroyed()
				return true // p1 is destroyed, stop checking
			}
			return false
		})
	}
}

// checkAsteroidAsteroidCollisions handles bouncing between asteroids
// using the spatial grid to limit checks to nearby asteroids.
func checkAsteroidAsteroidCollisions(asteroids []*object.Asteroid, grid *physics.SpatialGrid) {
	for i, a1 := range asteroids {
		if a1.IsDestroyed() {
			continue
		}
		grid.QueryAround(a1.X, a1.Y, func(j int) bool {
			if j <= i {
				return false // Skip self and already-checked pairs
			}
			a2 := asteroids[j]
			if a2.IsDestroyed() {
				return false
			}
			dist := physics.Distance(a1.X, a1.Y, a2.X, a2.Y)
			minDist := a1.GetRadius() + a2.GetRadius()
			if dist < minDist && dist > 0 {
				bounceAsteroids(a1, a2, dist)
			}
			return false
		})
	}
}

// bounceAsteroids handles elastic collision between two asteroids.
func bounceAsteroids(a1, a2 *object.Asteroid, dist float64) {
	// Collision normal (from a1 to a2)
	nx := (a2.X - a1.X) / dist
	ny := (a2.Y - a1.Y) / dist

	// Relative velocity along the collision normal
	dvx := a1.VX - a2.VX
	dvy := a1.VY - a2.VY
	dvn := dvx*nx + dvy*ny

	// Don't resolve if velocities are separating
	if dvn < 0 {
		return
	}

	// Use radius squared as mass (area-based mass)
	m1 := a1.Radius * a1.Radius
	m2 := a2.Radius * a2.Radius
	totalMass := m1 + m2

	// Impulse scalar for an elastic collision
	impulse := 2 * dvn / totalMass

	a1.VX -= impulse * m2 * nx
	a1.VY -= impulse * m2 * ny
	a2.VX += impulse * m1 * nx
	a2.VY += impulse * m1 * ny

	// Separate asteroids to prevent overlap
	overlap := (a1.Radius + a2.Radius) - dist
	if overlap > 0 {
		// Push each asteroid away proportionally to their mass ratio
		sep1 := overlap * m2 / totalMass
		sep2 := overlap * m1 / totalMass
		a1.X -= nx * sep1
		a1.Y -= ny * sep1
		a2.X += nx * sep2
		a2.Y += ny * sep2
	}
}
