package scoring

// TimingBand awards Points when the start hour falls in [FromHour, ToHour].
type TimingBand struct {
	FromHour int
	ToHour   int
	Points   float64
}

// ConsistencyBand maps a start-time standard deviation strictly below
// MaxStdDevHours to a consistency ratio.
type ConsistencyBand struct {
	MaxStdDevHours float64
	Ratio          float64
}

// Params defines the thresholds and point tables of the quality score.
// Params values are treated as immutable once handed to a Service.
type Params struct {
	// Duration component
	IdealDurationMinHours float64
	IdealDurationMaxHours float64
	IdealDurationPoints   float64
	GoodDurationMinHours  float64
	GoodDurationPoints    float64
	FairDurationMinHours  float64
	FairDurationPoints    float64
	LongDurationPoints    float64
	ShortDurationPoints   float64

	// Timing component, bands checked in order
	TimingBands         []TimingBand
	DefaultTimingPoints float64

	// Consistency component
	MinConsistencySamples   int
	NeutralConsistencyRatio float64
	ConsistencyBands        []ConsistencyBand
	LooseConsistencyRatio   float64
	MaxConsistencyPoints    float64

	// Total cap
	MaxScore float64
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		IdealDurationMinHours: 8,
		IdealDurationMaxHours: 10,
		IdealDurationPoints:   40,
		GoodDurationMinHours:  7,
		GoodDurationPoints:    30,
		FairDurationMinHours:  6,
		FairDurationPoints:    20,
		LongDurationPoints:    25,
		ShortDurationPoints:   10,

		// Ideal bedtime is 21:00-23:59
		TimingBands: []TimingBand{
			{FromHour: 21, ToHour: 23, Points: 30},
			{FromHour: 20, ToHour: 20, Points: 25},
			{FromHour: 0, ToHour: 0, Points: 25},
			{FromHour: 1, ToHour: 3, Points: 15},
		},
		DefaultTimingPoints: 10,

		MinConsistencySamples:   3,
		NeutralConsistencyRatio: 0.5,
		ConsistencyBands: []ConsistencyBand{
			{MaxStdDevHours: 0.5, Ratio: 1.0},
			{MaxStdDevHours: 1.0, Ratio: 0.75},
			{MaxStdDevHours: 2.0, Ratio: 0.5},
		},
		LooseConsistencyRatio: 0.25,
		MaxConsistencyPoints:  30,

		MaxScore: 100,
	}
}
