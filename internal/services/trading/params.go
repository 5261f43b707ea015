package trading

// Params collects every tunable of the strategy. Zero values are not meaningful;
// start from DefaultParams.
type Params struct {
	// Trend
	SmoothLength   int
	HurstPeriod    int
	HurstThreshold float64
	HurstScales    []int

	// Fractal dimension and correction
	FDWindow        int
	FDMaxK          int
	ChaosThreshold  float64
	StableThreshold float64
	AnchorLookback  int

	// Order flow and market quality
	ImbalanceLookback   int
	ImbalanceHistory    int
	ImbalanceZThreshold float64
	ToxicityThreshold   float64
	ToxicityHistory     int

	EntryMargin float64

	// Risk
	RiskPercent         float64
	StopBufferPips      float64
	DynamicStop         bool
	BaseStopMultiplier  float64
	ATRPeriod           int
	BallisticMultiplier float64

	// Exits
	ReversalExit        bool
	TimeStops           bool
	TimeStop1Bars       int
	TimeStop2Bars       int
	TP1Percent          float64
	TrailingATRMultiple float64

	TradingEnabled bool
	MaxPositions   int
	Label          string
}

func DefaultParams() Params {
	return Params{
		SmoothLength:   10,
		HurstPeriod:    100,
		HurstThreshold: 0.55,
		HurstScales:    []int{5, 10, 20, 40},

		FDWindow:        50,
		FDMaxK:          8,
		ChaosThreshold:  1.65,
		StableThreshold: 1.45,
		AnchorLookback:  20,

		ImbalanceLookback:   5,
		ImbalanceHistory:    100,
		ImbalanceZThreshold: 2.0,
		ToxicityThreshold:   2.5,
		ToxicityHistory:     50,

		EntryMargin: 0.05,

		RiskPercent:         1.0,
		StopBufferPips:      5,
		DynamicStop:         true,
		BaseStopMultiplier:  2.0,
		ATRPeriod:           14,
		BallisticMultiplier: 1.618,

		ReversalExit:        true,
		TimeStops:           true,
		TimeStop1Bars:       30,
		TimeStop2Bars:       50,
		TP1Percent:          50,
		TrailingATRMultiple: 1.5,

		TradingEnabled: false,
		MaxPositions:   1,
		Label:          "hydroflow",
	}
}
