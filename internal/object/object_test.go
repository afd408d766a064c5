package object

import (
	"math"
	"testing"
	"time"
)

// recordingSpawner captures everything spawned during an update so tests can
// inspect projectiles, fragments and particles separately.
type recordingSpawner struct {
	spawned []Object
}

func (r *recordingSpawner) Spawn(obj Object) {
	r.spawned = append(r.spawned, obj)
}

func (r *recordingSpawner) projectiles() []*Projectile {
	var out []*Projectile
	for _, obj := range r.spawned {
		if p, ok := obj.(*Projectile); ok {
			out = append(out, p)
		}
	}
	return out
}

func (r *recordingSpawner) asteroids() []*Asteroid {
	var out []*Asteroid
	for _, obj := range r.spawned {
		if a, ok := obj.(*Asteroid); ok {
			out = append(out, a)
		}
	}
	return out
}

func (r *recordingSpawner) particles() int {
	n := 0
	for _, obj := range r.spawned {
		if _, ok := obj.(*Particle); ok {
			n++
		}
	}
	return n
}

func testScreen() Screen {
	return Screen{Width: 200, Height: 100, CenterX: 100, CenterY: 50}
}

func step(dt float64, in Input, sp Spawner) UpdateContext {
	return UpdateContext{
		Delta:   time.Duration(dt * float64(time.Second)),
		Input:   in,
		Screen:  testScreen(),
		Spawner: sp,
	}
}

func TestUserThrustAcceleratesForward(t *testing.T) {
	u := NewUser(50, 50)
	u.Angle = 0 // pointing right

	sp := &recordingSpawner{}
	if _, err := u.Update(step(0.1, Input{Up: true}, sp)); err != nil {
		t.Fatalf("Update: %v", err)
	}

	wantVX := u.ThrustPower * 0.1
	if math.Abs(u.VX-wantVX) > 1e-6 {
		t.Errorf("VX = %f, want %f", u.VX, wantVX)
	}
	if math.Abs(u.VY) > 1e-6 {
		t.Errorf("VY = %f, want 0 when thrusting along x", u.VY)
	}
	if u.X <= 50 {
		t.Errorf("X = %f, ship did not move forward", u.X)
	}
	if sp.particles() == 0 {
		t.Error("thrusting spawned no exhaust particles")
	}
}

func TestUserDragSlowsShip(t *testing.T) {
	u := NewUser(50, 50)
	u.VX = 10

	if _, err := u.Update(step(1.0, Input{}, nil)); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// Drag 0.5 halves speed per second.
	if math.Abs(u.VX-5.0) > 0.01 {
		t.Errorf("VX after 1s of drag = %f, want ~5.0", u.VX)
	}
}

func TestUserSpeedIsClamped(t *testing.T) {
	u := NewUser(50, 50)
	u.VX = 100

	if _, err := u.Update(step(0.01, Input{Up: true}, nil)); err != nil {
		t.Fatalf("Update: %v", err)
	}

	speed := math.Sqrt(u.VX*u.VX + u.VY*u.VY)
	if speed > u.MaxSpeed+1e-6 {
		t.Errorf("speed = %f, exceeds max %f", speed, u.MaxSpeed)
	}
}

func TestUserRotation(t *testing.T) {
	u := NewUser(50, 50)
	start := u.Angle

	if _, err := u.Update(step(0.1, Input{Left: true}, nil)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u.Angle >= start {
		t.Errorf("left rotation: angle %f, want less than %f", u.Angle, start)
	}

	u2 := NewUser(50, 50)
	if _, err := u2.Update(step(0.1, Input{Right: true}, nil)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u2.Angle <= start {
		t.Errorf("right rotation: angle %f, want greater than %f", u2.Angle, start)
	}
}

func TestUserFireSpawnsOwnedProjectile(t *testing.T) {
	u := NewUser(50, 50)
	u.OwnerID = 7

	sp := &recordingSpawner{}
	if _, err := u.Update(step(0.01, Input{Space: true}, sp)); err != nil {
		t.Fatalf("Update: %v", err)
	}

	shots := sp.projectiles()
	if len(shots) != 1 {
		t.Fatalf("got %d projectiles, want 1", len(shots))
	}
	if shots[0].OwnerID != 7 {
		t.Errorf("projectile OwnerID = %d, want 7", shots[0].OwnerID)
	}

	// Ship starts pointing up; the shot should travel upward.
	if shots[0].VY >= 0 {
		t.Errorf("projectile VY = %f, want negative (upward)", shots[0].VY)
	}
}

func TestUserFireRateLimitsShots(t *testing.T) {
	u := NewUser(50, 50)
	sp := &recordingSpawner{}

	u.Update(step(0.01, Input{Space: true}, sp))
	u.Update(step(0.01, Input{Space: true}, sp))
	if got := len(sp.projectiles()); got != 1 {
		t.Fatalf("after rapid fire: %d projectiles, want 1", got)
	}

	// Let the cooldown expire, then fire again.
	u.Update(step(0.5, Input{}, sp))
	u.Update(step(0.01, Input{Space: true}, sp))
	if got := len(sp.projectiles()); got != 2 {
		t.Errorf("after cooldown: %d projectiles, want 2", got)
	}
}

func TestAsteroidSplitsWhenDestroyed(t *testing.T) {
	a := NewAsteroid(50, 50, AsteroidLarge, 0)
	a.MarkDestroyed()

	sp := &recordingSpawner{}
	remove, err := a.Update(step(0.016, Input{}, sp))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !remove {
		t.Fatal("destroyed asteroid was not removed")
	}

	children := sp.asteroids()
	if len(children) != 2 {
		t.Fatalf("got %d fragments, want 2", len(children))
	}
	for _, child := range children {
		if child.Size != AsteroidMedium {
			t.Errorf("fragment size = %d, want %d", child.Size, AsteroidMedium)
		}
		if child.X != 50 || child.Y != 50 {
			t.Errorf("fragment at (%f, %f), want parent position (50, 50)", child.X, child.Y)
		}
	}
	if sp.particles() == 0 {
		t.Error("destruction spawned no explosion particles")
	}
}

func TestSmallAsteroidLeavesNoFragments(t *testing.T) {
	a := NewAsteroid(50, 50, AsteroidSmall, 0)
	a.MarkDestroyed()

	sp := &recordingSpawner{}
	remove, _ := a.Update(step(0.016, Input{}, sp))
	if !remove {
		t.Fatal("destroyed asteroid was not removed")
	}
	if got := len(sp.asteroids()); got != 0 {
		t.Errorf("small asteroid split into %d fragments, want 0", got)
	}
}

func TestAsteroidSpawnProtectionCountsDown(t *testing.T) {
	a := NewAsteroidRandom(testScreen(), AsteroidSmall, 2.5)
	if !a.IsProtected() {
		t.Fatal("fresh asteroid not protected")
	}

	a.Update(step(1.0, Input{}, nil))
	if got := a.SpawnProtection; math.Abs(got-1.5) > 0.01 {
		t.Errorf("protection after 1s = %f, want ~1.5", got)
	}

	a.Update(step(2.0, Input{}, nil))
	if a.IsProtected() {
		t.Errorf("protection did not expire, remaining %f", a.SpawnProtection)
	}
	if a.SpawnProtection < 0 {
		t.Errorf("protection went negative: %f", a.SpawnProtection)
	}
}

func TestAsteroidSpawnerTopsUpPopulation(t *testing.T) {
	spawner := NewAsteroidSpawner(7)
	sp := &recordingSpawner{}

	ctx := step(0.016, Input{}, sp)
	ctx.AsteroidCount = 0
	if _, err := spawner.Update(ctx); err != nil {
		t.Fatalf("Update: %v", err)
	}

	weights := map[AsteroidSize]int{
		AsteroidLarge:  4,
		AsteroidMedium: 2,
		AsteroidSmall:  1,
	}
	total := 0
	for _, a := range sp.asteroids() {
		total += weights[a.Size]
		if !a.IsProtected() {
			t.Errorf("spawned %d-size asteroid without protection", a.Size)
		}
	}
	if total != 7 {
		t.Errorf("spawned weighted total %d, want 7", total)
	}
}

func TestAsteroidSpawnerIdleAtTarget(t *testing.T) {
	spawner := NewAsteroidSpawner(7)
	sp := &recordingSpawner{}

	ctx := step(0.016, Input{}, sp)
	ctx.AsteroidCount = 7
	spawner.Update(ctx)
	if len(sp.spawned) != 0 {
		t.Errorf("spawner at target spawned %d objects", len(sp.spawned))
	}

	ctx.AsteroidCount = 9
	spawner.Update(ctx)
	if len(sp.spawned) != 0 {
		t.Errorf("spawner above target spawned %d objects", len(sp.spawned))
	}
}

func TestProjectileInheritsShooterVelocity(t *testing.T) {
	p := NewProjectile(0, 0, 0, 3, 2, 1)
	if want := 3 + ProjectileSpeed; math.Abs(p.VX-want) > 1e-6 {
		t.Errorf("VX = %f, want %f", p.VX, want)
	}
	if math.Abs(p.VY-2) > 1e-6 {
		t.Errorf("VY = %f, want 2", p.VY)
	}
}

func TestProjectileExpires(t *testing.T) {
	p := NewProjectile(50, 50, 0, 0, 0, 0)

	remove, _ := p.Update(step(0.016, Input{}, nil))
	if remove {
		t.Fatal("fresh projectile removed immediately")
	}

	remove, _ = p.Update(step(ProjectileLifetime+0.1, Input{}, nil))
	if !remove {
		t.Error("projectile survived past its lifetime")
	}
}

func TestProjectileMarkDestroyed(t *testing.T) {
	p := NewProjectile(50, 50, 0, 0, 0, 0)
	if p.IsDestroyed() {
		t.Fatal("fresh projectile already destroyed")
	}
	p.MarkDestroyed()
	if !p.IsDestroyed() {
		t.Error("MarkDestroyed did not stick")
	}
}

func TestLabelDriftsUpAndExpires(t *testing.T) {
	l := NewLabel(10, 20, "+25", 0.5)

	remove, _ := l.Update(step(0.2, Input{}, nil))
	if remove {
		t.Fatal("label expired too early")
	}
	if l.Y >= 20 {
		t.Errorf("label Y = %f, expected upward drift from 20", l.Y)
	}

	remove, _ = l.Update(step(0.4, Input{}, nil))
	if !remove {
		t.Error("label survived past its lifetime")
	}
}

func TestWrapPosition(t *testing.T) {
	s := Screen{Width: 100, Height: 50}

	tests := []struct {
		name         string
		x, y         float64
		wantX, wantY float64
	}{
		{"inside", 40, 20, 40, 20},
		{"past right edge", 105, 20, 5, 20},
		{"past left edge", -5, 20, 95, 20},
		{"past bottom edge", 40, 55, 40, 5},
		{"past top edge", 40, -5, 40, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := tt.x, tt.y
			s.WrapPosition(&x, &y)
			if math.Abs(x-tt.wantX) > 1e-9 || math.Abs(y-tt.wantY) > 1e-9 {
				t.Errorf("WrapPosition(%f, %f) = (%f, %f), want (%f, %f)",
					tt.x, tt.y, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestWorldToScreenCentersOnCamera(t *testing.T) {
	view := Screen{Width: 40, Height: 20}
	world := Screen{Width: 200, Height: 100}
	cam := Camera{X: 100, Y: 50}

	positions := WorldToScreen(100, 50, cam, view, world)
	if positions.Count < 1 {
		t.Fatal("object at camera center not visible")
	}
	got := positions.Positions[0]
	if math.Abs(got.X-20) > 1e-9 || math.Abs(got.Y-10) > 1e-9 {
		t.Errorf("screen position = (%f, %f), want view center (20, 10)", got.X, got.Y)
	}
}

func TestWorldToScreenWrapsAcrossEdge(t *testing.T) {
	view := Screen{Width: 40, Height: 20}
	world := Screen{Width: 200, Height: 100}

	// Camera near the left edge; an object near the right edge is only 7
	// units away through the wrap and must land inside the view.
	cam := Camera{X: 5, Y: 50}
	positions := WorldToScreen(198, 50, cam, view, world)

	if positions.Count != 1 {
		t.Fatalf("got %d screen positions, want 1", positions.Count)
	}
	got := positions.Positions[0]
	if math.Abs(got.X-13) > 1e-9 || math.Abs(got.Y-10) > 1e-9 {
		t.Errorf("wrapped screen position = (%f, %f), want (13, 10)", got.X, got.Y)
	}
}

func TestShouldRenderBlink(t *testing.T) {
	if !ShouldRenderBlink(0, 5.0) {
		t.Error("unprotected object should always render")
	}
	if !ShouldRenderBlink(-1, 5.0) {
		t.Error("negative remaining time should always render")
	}

	// At 5Hz, 0.3s remaining is phase 1 (visible), 0.45s is phase 2 (hidden).
	if !ShouldRenderBlink(0.3, 5.0) {
		t.Error("odd blink phase should render")
	}
	if ShouldRenderBlink(0.45, 5.0) {
		t.Error("even blink phase should not render")
	}
}

func TestFilterUsers(t *testing.T) {
	u1 := NewUser(1, 1)
	u2 := NewUser(2, 2)
	objects := []Object{
		u1,
		NewAsteroid(5, 5, AsteroidSmall, 0),
		u2,
		NewProjectile(0, 0, 0, 0, 0, 0),
	}

	users := FilterUsers(objects)
	if len(users) != 2 {
		t.Fatalf("got %d users, want 2", len(users))
	}
	if users[0] != u1 || users[1] != u2 {
		t.Error("users not returned in object order")
	}
}
