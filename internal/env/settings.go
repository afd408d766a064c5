package env

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Settings is the immutable configuration bundle for the whole environment:
// one section per system plus the global quality tier and performance
// budget. Presets are factory functions returning fully populated bundles;
// partial state never reaches a running system.
type Settings struct {
	Quality     Quality             `toml:"quality"`
	Budget      BudgetSettings      `toml:"budget"`
	LOD         LODSettings         `toml:"lod"`
	Starfield   StarfieldSettings   `toml:"starfield"`
	Weather     WeatherSettings     `toml:"weather"`
	Hazards     HazardSettings      `toml:"hazards"`
	Background  BackgroundSettings  `toml:"background"`
	Atmosphere  AtmosphereSettings  `toml:"atmosphere"`
	Interactive InteractiveSettings `toml:"interactive"`
	Lighting    LightingSettings    `toml:"lighting"`
}

// BudgetSettings is the per-frame performance envelope.
type BudgetSettings struct {
	TargetFPS       float64 `toml:"target_fps"`
	MaxUpdateMillis float64 `toml:"max_update_ms"`  // Whole-environment update budget
	MaxRenderMillis float64 `toml:"max_render_ms"`  // Whole-environment render budget
	MaxMemoryBytes  int64   `toml:"max_memory_bytes"`
}

// LODSettings tunes the reactive detail policy.
type LODSettings struct {
	FPSLow        float64 `toml:"fps_low"`        // Below this, drop one detail step
	FPSCritical   float64 `toml:"fps_critical"`   // Below this, drop two
	FarDist       float64 `toml:"far_dist"`       // Camera distance for one coarser step
	VeryFarDist   float64 `toml:"very_far_dist"`  // Camera distance for two coarser steps
	RecoverFrames int     `toml:"recover_frames"` // Healthy frames before undoing one reduction
}

// StarfieldSettings configures the parallax star layers.
type StarfieldSettings struct {
	Enabled   bool    `toml:"enabled"`
	Density   float64 `toml:"density"` // Stars per 1000 square world units at medium quality
	Layers    int     `toml:"layers"`  // Parallax depth layers
	TwinkleHz float64 `toml:"twinkle_hz"`
	MaxStars  int     `toml:"max_stars"`
}

// WeatherSettings configures space weather fronts.
type WeatherSettings struct {
	Enabled      bool    `toml:"enabled"`
	StormChance  float64 `toml:"storm_chance"` // Per-second probability of a front forming
	FrontSecs    float64 `toml:"front_secs"`   // Warning lead time before a storm hits
	StormSecs    float64 `toml:"storm_secs"`   // Storm duration at intensity 1
	MaxParticles int     `toml:"max_particles"`
}

// HazardSettings configures the zone hazards.
type HazardSettings struct {
	Enabled        bool    `toml:"enabled"`
	GravityWells   int     `toml:"gravity_wells"`
	RadiationZones int     `toml:"radiation_zones"`
	DebrisFields   int     `toml:"debris_fields"`
	MinRadius      float64 `toml:"min_radius"`
	MaxRadius      float64 `toml:"max_radius"`
	WellStrength   float64 `toml:"well_strength"` // Pull acceleration at the well edge
}

// BackgroundSettings configures the deep-space backdrop.
type BackgroundSettings struct {
	Enabled     bool    `toml:"enabled"`
	NebulaCount int     `toml:"nebula_count"`
	Palette     string  `toml:"palette"`  // Named palette: void, orchid, rust, aurora, ember
	Contrast    float64 `toml:"contrast"` // Gradient strength in (0,1]
}

// AtmosphereSettings configures the dust and fog plumes.
type AtmosphereSettings struct {
	Enabled    bool    `toml:"enabled"`
	FarPlumes  int     `toml:"far_plumes"`
	NearPlumes int     `toml:"near_plumes"`
	DriftSpeed float64 `toml:"drift_speed"` // World units per second
}

// InteractiveSettings configures floating points of interest.
type InteractiveSettings struct {
	Enabled     bool    `toml:"enabled"`
	Salvage     int     `toml:"salvage"`
	Beacons     int     `toml:"beacons"`
	Derelicts   int     `toml:"derelicts"`
	NotifyRange float64 `toml:"notify_range"` // Distance at which nearby events fire
}

// LightingSettings configures ambient light and transient effects.
type LightingSettings struct {
	Enabled     bool    `toml:"enabled"`
	Ambient     float64 `toml:"ambient"`      // Steady level in (0,1]
	FlashDecay  float64 `toml:"flash_decay"`  // Surge lost per second
	PulseSecs   float64 `toml:"pulse_secs"`   // Pulsar sweep duration
	ShiftNotify float64 `toml:"shift_notify"` // Ambient delta that raises a lighting shift event
}

// DefaultSettings returns the balanced configuration used when nothing else
// is specified.
func DefaultSettings() Settings {
	return Settings{
		Quality: QualityMedium,
		Budget: BudgetSettings{
			TargetFPS:       60,
			MaxUpdateMillis: 6,
			MaxRenderMillis: 6,
			MaxMemoryBytes:  32 << 20,
		},
		LOD: LODSettings{
			FPSLow:        45,
			FPSCritical:   25,
			FarDist:       1.5,
			VeryFarDist:   2.5,
			RecoverFrames: 180,
		},
		Starfield: StarfieldSettings{
			Enabled:   true,
			Density:   2.5,
			Layers:    3,
			TwinkleHz: 0.8,
			MaxStars:  900,
		},
		Weather: WeatherSettings{
			Enabled:      true,
			StormChance:  0.02,
			FrontSecs:    6,
			StormSecs:    18,
			MaxParticles: 320,
		},
		Hazards: HazardSettings{
			Enabled:        true,
			GravityWells:   2,
			RadiationZones: 2,
			DebrisFields:   1,
			MinRadius:      18,
			MaxRadius:      42,
			WellStrength:   30,
		},
		Background: BackgroundSettings{
			Enabled:     true,
			NebulaCount: 3,
			Palette:     "void",
			Contrast:    0.55,
		},
		Atmosphere: AtmosphereSettings{
			Enabled:    true,
			FarPlumes:  10,
			NearPlumes: 6,
			DriftSpeed: 2,
		},
		Interactive: InteractiveSettings{
			Enabled:     true,
			Salvage:     4,
			Beacons:     2,
			Derelicts:   1,
			NotifyRange: 25,
		},
		Lighting: LightingSettings{
			Enabled:     true,
			Ambient:     0.35,
			FlashDecay:  0.6,
			PulseSecs:   12,
			ShiftNotify: 0.25,
		},
	}
}

// PerformanceSettings returns a configuration tuned for weak terminals and
// slow links: fewer elements everywhere and a more aggressive LOD policy.
func PerformanceSettings() Settings {
	s := DefaultSettings()
	s.Quality = QualityLow
	s.Budget.MaxUpdateMillis = 4
	s.Budget.MaxRenderMillis = 4
	s.Budget.MaxMemoryBytes = 16 << 20
	s.LOD.FPSLow = 50
	s.LOD.FPSCritical = 30
	s.LOD.RecoverFrames = 240
	s.Starfield.Density = 1.2
	s.Starfield.Layers = 2
	s.Starfield.MaxStars = 350
	s.Weather.StormChance = 0.012
	s.Weather.MaxParticles = 120
	s.Hazards.GravityWells = 1
	s.Hazards.RadiationZones = 1
	s.Background.NebulaCount = 1
	s.Background.Contrast = 0.4
	s.Atmosphere.FarPlumes = 4
	s.Atmosphere.NearPlumes = 2
	s.Interactive.Salvage = 2
	s.Interactive.Beacons = 1
	s.Lighting.FlashDecay = 0.9
	return s
}

// MaxQualitySettings returns the richest configuration for fast terminals.
func MaxQualitySettings() Settings {
	s := DefaultSettings()
	s.Quality = QualityExtreme
	s.Budget.MaxUpdateMillis = 10
	s.Budget.MaxRenderMillis = 10
	s.Budget.MaxMemoryBytes = 96 << 20
	s.LOD.FPSLow = 40
	s.LOD.FPSCritical = 20
	s.LOD.RecoverFrames = 120
	s.Starfield.Density = 4
	s.Starfield.Layers = 4
	s.Starfield.TwinkleHz = 1.2
	s.Starfield.MaxStars = 2200
	s.Weather.StormChance = 0.03
	s.Weather.MaxParticles = 700
	s.Hazards.GravityWells = 3
	s.Hazards.RadiationZones = 3
	s.Hazards.DebrisFields = 2
	s.Hazards.MaxRadius = 55
	s.Background.NebulaCount = 5
	s.Background.Contrast = 0.7
	s.Atmosphere.FarPlumes = 16
	s.Atmosphere.NearPlumes = 10
	s.Interactive.Salvage = 6
	s.Interactive.Beacons = 3
	s.Interactive.Derelicts = 2
	s.Lighting.Ambient = 0.4
	s.Lighting.FlashDecay = 0.45
	s.Lighting.ShiftNotify = 0.2
	return s
}

// LoadSettings reads a TOML file over the defaults, so partial files are
// legal and the result is always fully populated.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("settings %s: %w", path, err)
	}
	return s, nil
}

// Validate rejects bundles with missing or nonsensical values. Every numeric
// field must be populated; booleans may be either state.
func (s Settings) Validate() error {
	if s.Quality < QualityPotato || s.Quality > QualityExtreme {
		return fmt.Errorf("quality out of range: %d", int(s.Quality))
	}
	if s.Budget.TargetFPS <= 0 {
		return fmt.Errorf("budget.target_fps must be positive")
	}
	if s.Budget.MaxUpdateMillis <= 0 || s.Budget.MaxRenderMillis <= 0 {
		return fmt.Errorf("budget frame limits must be positive")
	}
	if s.Budget.MaxMemoryBytes <= 0 {
		return fmt.Errorf("budget.max_memory_bytes must be positive")
	}
	if s.LOD.FPSLow <= 0 || s.LOD.FPSCritical <= 0 {
		return fmt.Errorf("lod fps thresholds must be positive")
	}
	if s.LOD.FPSCritical >= s.LOD.FPSLow {
		return fmt.Errorf("lod.fps_critical must be below lod.fps_low")
	}
	if s.LOD.FarDist <= 0 || s.LOD.VeryFarDist <= s.LOD.FarDist {
		return fmt.Errorf("lod distance thresholds must be positive and increasing")
	}
	if s.LOD.RecoverFrames <= 0 {
		return fmt.Errorf("lod.recover_frames must be positive")
	}
	if s.Starfield.Density <= 0 || s.Starfield.Layers <= 0 || s.Starfield.TwinkleHz <= 0 || s.Starfield.MaxStars <= 0 {
		return fmt.Errorf("starfield settings must be positive")
	}
	if s.Weather.StormChance <= 0 || s.Weather.FrontSecs <= 0 || s.Weather.StormSecs <= 0 || s.Weather.MaxParticles <= 0 {
		return fmt.Errorf("weather settings must be positive")
	}
	if s.Hazards.GravityWells < 0 || s.Hazards.RadiationZones < 0 || s.Hazards.DebrisFields < 0 {
		return fmt.Errorf("hazard counts must not be negative")
	}
	if s.Hazards.MinRadius <= 0 || s.Hazards.MaxRadius <= s.Hazards.MinRadius {
		return fmt.Errorf("hazard radii must be positive and increasing")
	}
	if s.Hazards.WellStrength <= 0 {
		return fmt.Errorf("hazards.well_strength must be positive")
	}
	if s.Background.NebulaCount < 0 {
		return fmt.Errorf("background.nebula_count must not be negative")
	}
	if s.Background.Palette == "" {
		return fmt.Errorf("background.palette must be set")
	}
	if s.Background.Contrast <= 0 || s.Background.Contrast > 1 {
		return fmt.Errorf("background.contrast must be in (0,1]")
	}
	if s.Atmosphere.FarPlumes < 0 || s.Atmosphere.NearPlumes < 0 {
		return fmt.Errorf("atmosphere plume counts must not be negative")
	}
	if s.Atmosphere.DriftSpeed <= 0 {
		return fmt.Errorf("atmosphere.drift_speed must be positive")
	}
	if s.Interactive.Salvage < 0 || s.Interactive.Beacons < 0 || s.Interactive.Derelicts < 0 {
		return fmt.Errorf("interactive counts must not be negative")
	}
	if s.Interactive.NotifyRange <= 0 {
		return fmt.Errorf("interactive.notify_range must be positive")
	}
	if s.Lighting.Ambient <= 0 || s.Lighting.Ambient > 1 {
		return fmt.Errorf("lighting.ambient must be in (0,1]")
	}
	if s.Lighting.FlashDecay <= 0 || s.Lighting.PulseSecs <= 0 || s.Lighting.ShiftNotify <= 0 {
		return fmt.Errorf("lighting settings must be positive")
	}
	return nil
}
