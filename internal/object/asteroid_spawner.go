package object

// spawnProtectionSeconds is how long freshly spawned asteroids blink and
// ignore collisions, so they can't materialize on top of a ship.
const spawnProtectionSeconds = 2.0

// AsteroidSpawner keeps the weighted asteroid population at a target level.
// Large counts as 4 (splits into 2 mediums), medium as 2, small as 1.
type AsteroidSpawner struct {
	target int
}

// NewAsteroidSpawner creates a spawner with a target weighted count.
func NewAsteroidSpawner(target int) *AsteroidSpawner {
	if target < 0 {
		target = 0
	}
	return &AsteroidSpawner{
		target: target,
	}
}

// Update spawns protected asteroids when the population drops. The live
// count comes from ctx.AsteroidCount, maintained by the world state.
func (s *AsteroidSpawner) Update(ctx UpdateContext) (bool, error) {
	if s.target == 0 || ctx.Spawner == nil {
		return false, nil
	}

	count := ctx.AsteroidCount
	for deficit := s.target - count; deficit > 0; deficit = s.target - count {
		var size AsteroidSize
		switch {
		case deficit >= 4:
			size = AsteroidLarge
			count += 4
		case deficit >= 2:
			size = AsteroidMedium
			count += 2
		default:
			size = AsteroidSmall
			count++
		}

		asteroid := NewAsteroidRandom(ctx.Screen, size, spawnProtectionSeconds)
		ctx.Spawner.Spawn(asteroid)
	}
	return false, nil
}

// Draw is a no-op; spawner is not visible.
func (s *AsteroidSpawner) Draw(_ DrawContext) error {
	return nil
}
