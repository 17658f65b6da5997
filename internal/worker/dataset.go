package worker

// Dataset is the store metrics snapshot the simulated analysts run against.
// In production this is fed from the POS/sensor pipeline; the default values
// mirror one week of a mid-size store.
type Dataset struct {
	// DailyVisitors is the visitor count per day, oldest first.
	DailyVisitors []int
	// ConversionRate is the fraction of visitors who purchased.
	ConversionRate float64
	// PickupRate is the fraction of shelf interactions that became pickups.
	PickupRate float64
	// AvgDwellTime is the mean in-store dwell time in minutes.
	AvgDwellTime float64
	// TopZones lists the busiest store zones, busiest first.
	TopZones []string
	// DataQuality is the completeness score of the collected data in [0,1].
	DataQuality float64
	// SampleSize is the number of underlying observations.
	SampleSize int
}

// DefaultDataset returns the standard simulated week of store metrics.
func DefaultDataset() Dataset {
	return Dataset{
		DailyVisitors:  []int{1200, 1150, 1300, 1250, 1400, 1100, 980},
		ConversionRate: 0.34,
		PickupRate:     0.12,
		AvgDwellTime:   8.5,
		TopZones:       []string{"음료", "과자", "아이스크림"},
		DataQuality:    0.89,
		SampleSize:     7892,
	}
}
