package service

const (
	// Unit conversions
	MetersPerMile = 1609.344
	MetersPerKm   = 1000.0
	MPSToMPH      = 3600 / MetersPerMile
	MPSToKPH      = 3.6

	// Course sources that start with this prefix are Strava segment IDs
	StravaSegmentPrefix = "strava:"

	// Pagination limits
	DefaultHistoryLimit = 20

	// W′ reserve below this fraction of capacity is shown as low
	LowReserveFraction = 0.15
)
