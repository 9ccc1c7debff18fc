package main

// RawRecord is one decoded row of the MPK vehicle position dump.
// Only ID, LineName, Latitude and Longitude are interpreted; the rest is passed through.
type RawRecord struct {
	ID                 string
	FleetNumber        string
	RegistrationNumber string
	Brigade            string
	LineName           string
	Latitude           float64
	Longitude          float64
	LastUpdate         string
}

func (r RawRecord) position() Position {
	return Position{Lat: r.Latitude, Lon: r.Longitude}
}

// Position is a WGS84 coordinate pair in decimal degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Vehicle is the aggregated state of one bus: its current line and a short track,
// oldest position first.
type Vehicle struct {
	ID         string     `json:"id"`
	Line       string     `json:"line"`
	LastUpdate string     `json:"lastUpdate,omitempty"`
	History    []Position `json:"history"`
}

// Position returns the most recent position.
func (v Vehicle) Position() Position {
	if len(v.History) == 0 {
		return Position{}
	}
	return v.History[len(v.History)-1]
}

// Positions returns a copy of the track, oldest first.
func (v Vehicle) Positions() []Position {
	out := make([]Position, len(v.History))
	copy(out, v.History)
	return out
}

// LatestPosition is the flattened "one marker per vehicle" view.
type LatestPosition struct {
	ID   string  `json:"id"`
	Line string  `json:"line"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}
