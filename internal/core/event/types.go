package event

// Telemetry event types emitted by the combat engine. Consumed by the sim
// harness and flushed to the telemetry store outside the tick path.

// ActionDispatched records the single action chosen for a tick.
type ActionDispatched struct {
	Tick     int64
	Kind     string
	Priority string
	Phase    string
}

// RiskSampled is the advisory permadeath risk score for a tick. Always
// emitted in hardcore profile, even when no flee fires.
type RiskSampled struct {
	Tick  int64
	Score int
}

// FlickResolved records one protective-buff flick attempt.
type FlickResolved struct {
	Tick  int64
	Style string
	Hit   bool // false = humanized miss
}

// FleeTriggered records a safety-override flee with its reason and chosen
// escape method.
type FleeTriggered struct {
	Tick   int64
	Reason string
	Method string
}
