package kinematics

// GripProfile holds one car state's handling coefficients. Friction is the
// speed retained per 1/60 s; Grip is the share of lateral slip removed per
// 1/60 s.
type GripProfile struct {
	Grip     float64 `env:"GRIP"`
	Friction float64 `env:"FRICTION"`
	MaxSpeed float64 `env:"MAX_SPEED"`
}

type CarTuning struct {
	OnRoad   GripProfile `envPrefix:"ON_ROAD_"`
	OffRoad  GripProfile `envPrefix:"OFF_ROAD_"`
	Drifting GripProfile `envPrefix:"DRIFT_"`
	Boosting GripProfile `envPrefix:"BOOST_"`

	// OffTerrainFriction applies on top of the profile when no road is
	// within RoadSearchRadius.
	OffTerrainFriction float64 `env:"OFF_TERRAIN_FRICTION"`

	Acceleration      float64 `env:"ACCELERATION"`
	BoostAcceleration float64 `env:"BOOST_ACCELERATION"`
	BrakeDeceleration float64 `env:"BRAKE_DECELERATION"`
	ReverseMaxSpeed   float64 `env:"REVERSE_MAX_SPEED"`

	TurnRate      float64 `env:"TURN_RATE"`
	TurnFadeSpeed float64 `env:"TURN_FADE_SPEED"`
	MinTurnFactor float64 `env:"MIN_TURN_FACTOR"`
	DriftMinSpeed float64 `env:"DRIFT_MIN_SPEED"`

	RoadSearchRadius float64 `env:"ROAD_SEARCH_RADIUS"`
	MaxRoadOffset    float64 `env:"MAX_ROAD_OFFSET"`
	PushbackStrength float64 `env:"PUSHBACK_STRENGTH"`
}

type WalkTuning struct {
	WalkSpeed float64 `env:"SPEED"`
	RunSpeed  float64 `env:"RUN_SPEED"`
	TurnRate  float64 `env:"TURN_RATE"`
}

type DroneTuning struct {
	Acceleration  float64 `env:"ACCELERATION"`
	LiftRate      float64 `env:"LIFT_RATE"`
	MaxSpeed      float64 `env:"MAX_SPEED"`
	MaxClimbSpeed float64 `env:"MAX_CLIMB_SPEED"`
	Damping       float64 `env:"DAMPING"`
	TurnRate      float64 `env:"TURN_RATE"`
	LaunchHeight  float64 `env:"LAUNCH_HEIGHT"`
}

type Tuning struct {
	Car   CarTuning   `envPrefix:"CAR_"`
	Walk  WalkTuning  `envPrefix:"WALK_"`
	Drone DroneTuning `envPrefix:"DRONE_"`

	// EnterRadius is how close a walker must be to get back in the car.
	EnterRadius float64 `env:"ENTER_RADIUS"`
	// ExitOffset is how far beside the car the walker appears.
	ExitOffset float64 `env:"EXIT_OFFSET"`
}

func DefaultCarTuning() CarTuning {
	return CarTuning{
		OnRoad:   GripProfile{Grip: 0.88, Friction: 0.992, MaxSpeed: 42},
		OffRoad:  GripProfile{Grip: 0.62, Friction: 0.97, MaxSpeed: 22},
		Drifting: GripProfile{Grip: 0.45, Friction: 0.985, MaxSpeed: 38},
		Boosting: GripProfile{Grip: 0.8, Friction: 0.995, MaxSpeed: 60},

		OffTerrainFriction: 0.96,

		Acceleration:      26,
		BoostAcceleration: 44,
		BrakeDeceleration: 40,
		ReverseMaxSpeed:   10,

		TurnRate:      2.4,
		TurnFadeSpeed: 14,
		MinTurnFactor: 0.35,
		DriftMinSpeed: 10,

		RoadSearchRadius: 80,
		MaxRoadOffset:    6,
		PushbackStrength: 4,
	}
}

func DefaultTuning() Tuning {
	return Tuning{
		Car:  DefaultCarTuning(),
		Walk: WalkTuning{WalkSpeed: 4.5, RunSpeed: 9, TurnRate: 2.8},
		Drone: DroneTuning{
			Acceleration:  30,
			LiftRate:      20,
			MaxSpeed:      45,
			MaxClimbSpeed: 15,
			Damping:       0.96,
			TurnRate:      2.2,
			LaunchHeight:  8,
		},
		EnterRadius: 6,
		ExitOffset:  2.5,
	}
}
