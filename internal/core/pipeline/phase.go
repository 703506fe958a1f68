package pipeline

// Phase defines evaluation ordering within a single tick. The orchestrator
// dispatches exactly the first phase that yields an action; ordering is the
// survival-before-offense contract and must not be reshuffled.
type Phase int

const (
	PhaseSafety   Phase = iota // 0: permadeath overrides, evaluated before all else
	PhaseResource              // 1: eating / resource restoration
	PhaseBuff                  // 2: protective buff flicking
	PhaseBurst                 // 3: burst ability sequencing
	PhaseTarget                // 4: retarget checks
	PhaseLoot                  // 5: ground loot pickup
)

func (p Phase) String() string {
	switch p {
	case PhaseSafety:
		return "safety"
	case PhaseResource:
		return "resource"
	case PhaseBuff:
		return "buff"
	case PhaseBurst:
		return "burst"
	case PhaseTarget:
		return "target"
	case PhaseLoot:
		return "loot"
	}
	return "unknown"
}
