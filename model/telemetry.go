package model

import "time"

// Telemetry is the read-only per-tick snapshot handed to presentation.
type Telemetry struct {
	Session  string
	Chord    string
	Root     int
	Quality  Quality
	Notes    Notes
	Tempo    int
	Velocity int
	Latency  time.Duration
	Status   string
}
