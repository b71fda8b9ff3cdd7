package strava

// Athlete is the authenticated athlete from GET /athlete.
// FTP and Weight are zero when the athlete hasn't filled them in.
type Athlete struct {
	ID        int64   `json:"id"`
	Firstname string  `json:"firstname"`
	Lastname  string  `json:"lastname"`
	FTP       float64 `json:"ftp"`    // watts
	Weight    float64 `json:"weight"` // kg
}

// Segment is a Strava segment summary
type Segment struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Distance           float64 `json:"distance"`      // meters
	AverageGrade       float64 `json:"average_grade"` // percent
	MaximumGrade       float64 `json:"maximum_grade"` // percent
	ElevationHigh      float64 `json:"elevation_high"`
	ElevationLow       float64 `json:"elevation_low"`
	TotalElevationGain float64 `json:"total_elevation_gain"`
}

// Streams holds the segment streams needed to rebuild a climb profile.
// Strava returns streams keyed by type when key_by_type=true
type Streams struct {
	Distance *StreamData[float64] `json:"distance"`
	Altitude *StreamData[float64] `json:"altitude"`
}

// StreamData represents a single stream type
type StreamData[T any] struct {
	Data         []T    `json:"data"`
	SeriesType   string `json:"series_type"`
	OriginalSize int    `json:"original_size"`
	Resolution   string `json:"resolution"`
}
