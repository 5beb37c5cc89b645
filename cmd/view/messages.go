package main

import "time"

// TickMsg advances the tracker by one scheduled step while playing.
type TickMsg time.Time

// StepErrorMsg reports a step the tracker refused.
type StepErrorMsg struct {
	Err error
}
