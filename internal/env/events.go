package env

// EventType names an environmental occurrence a system can raise. The set is
// closed: the manager dispatches every known type and drops unknown values
// with a log line instead of failing the frame.
type EventType string

const (
	EventHazardEntered     EventType = "hazard_entered"
	EventHazardExited      EventType = "hazard_exited"
	EventStormApproaching  EventType = "storm_approaching"
	EventStormCleared      EventType = "storm_cleared"
	EventFlareDetected     EventType = "flare_detected"
	EventRayBurst          EventType = "ray_burst"
	EventInteractiveNearby EventType = "interactive_nearby"
	EventLightingShift     EventType = "lighting_shift"
)

// Event is a transient environmental occurrence. Events are raised by a
// system at most once per distinct occurrence per frame, dispatched by the
// manager the same frame, and never persisted.
type Event struct {
	Type      EventType
	X, Y      float64 // World position of the occurrence
	Radius    float64 // Affected radius, 0 for point events
	Intensity float64 // Strength in [0,1] unless the type says otherwise
	Duration  float64 // Expected lifetime in seconds, 0 for instantaneous
	Params    map[string]float64
}

// Param returns a named parameter or the fallback when absent.
func (e Event) Param(name string, fallback float64) float64 {
	if v, ok := e.Params[name]; ok {
		return v
	}
	return fallback
}

// CosmicEvent names a one-shot dramatic occurrence the embedding game can
// trigger. Unknown values are ignored, never an error.
type CosmicEvent string

const (
	CosmicSupernova     CosmicEvent = "supernova"
	CosmicPulsar        CosmicEvent = "pulsar"
	CosmicWormholeOpen  CosmicEvent = "wormhole_open"
	CosmicAsteroidStorm CosmicEvent = "asteroid_storm"
	CosmicEnergyStorm   CosmicEvent = "energy_storm"
)

// CosmicEvents lists the known cosmic event types, in no particular order.
func CosmicEvents() []CosmicEvent {
	return []CosmicEvent{
		CosmicSupernova,
		CosmicPulsar,
		CosmicWormholeOpen,
		CosmicAsteroidStorm,
		CosmicEnergyStorm,
	}
}

// Preset names an environment archetype that bulk-configures several systems
// at once. Unknown values are ignored, never an error.
type Preset string

const (
	PresetDeepSpace       Preset = "deep_space"
	PresetNebula          Preset = "nebula"
	PresetAsteroidField   Preset = "asteroid_field"
	PresetPlanetarySystem Preset = "planetary_system"
	PresetGalacticCore    Preset = "galactic_core"
)
