package engine

import "github.com/whalebot/combatcore/internal/data"

// neverTick is the initializer for "last happened" tick fields: far enough in
// the past that every cooldown reads as elapsed on the first real tick.
const neverTick = int64(-1 << 30)

// BuffStatus is the per-buff FSM state.
type BuffStatus int

const (
	BuffInactive BuffStatus = iota
	BuffActive
	BuffPendingDeactivate
	BuffDisabled
)

func (s BuffStatus) String() string {
	switch s {
	case BuffInactive:
		return "inactive"
	case BuffActive:
		return "active"
	case BuffPendingDeactivate:
		return "pending_deactivate"
	case BuffDisabled:
		return "disabled"
	}
	return "unknown"
}

// BuffSlot tracks one protective buff's FSM. DeactivateTick is scheduled at
// FSM-entry time for flicking modes; zero means nothing scheduled.
type BuffSlot struct {
	Status         BuffStatus
	ActivatedTick  int64
	DeactivateTick int64
	MissedLandTick int64            // land tick of an attack we deliberately missed
	Style          data.AttackStyle // incoming style the buff was raised against
}

type BuffState struct {
	Protect map[BuffID]*BuffSlot

	OffenseActive bool

	// Degraded marks the low-resource disable path taken with no restorative
	// in the inventory. Advisory; control flow is unchanged.
	Degraded bool

	FlickHits   int
	FlickMisses int
}

func (b *BuffState) slot(id BuffID) *BuffSlot {
	s, ok := b.Protect[id]
	if !ok {
		s = &BuffSlot{}
		b.Protect[id] = s
	}
	return s
}

// ActiveProtection returns the buff currently raised (Active or pending
// deactivation), or -1.
func (b *BuffState) ActiveProtection() BuffID {
	for id, s := range b.Protect {
		if s.Status == BuffActive || s.Status == BuffPendingDeactivate {
			return id
		}
	}
	return -1
}

// BurstPhase is the burst-ability FSM state.
type BurstPhase int

const (
	BurstIdle BurstPhase = iota
	BurstWeaponSwitchPending
	BurstReady
	BurstSwitchBackPending
)

func (p BurstPhase) String() string {
	switch p {
	case BurstIdle:
		return "idle"
	case BurstWeaponSwitchPending:
		return "weapon_switch_pending"
	case BurstReady:
		return "ready"
	case BurstSwitchBackPending:
		return "switch_back_pending"
	}
	return "unknown"
}

type BurstState struct {
	Phase        BurstPhase
	LastUseTick  int64
	PrevWeaponID int32 // weapon to switch back to after use
}

type FleeState struct {
	Active    bool
	Reason    FleeReason
	SinceTick int64
}

// State is the engine-owned mutable state: initialized on engine start,
// cleared on logout/profile reset, otherwise persists across ticks for the
// session. Mutated only by the single evaluation goroutine.
type State struct {
	LastEatTick     int64
	LastRestoreTick int64

	// Restore pairing: counts primary heal-over-time uses since the last
	// paired resource restore.
	EatsSincePairRestore int
	PrimaryEats          int
	ExtraEats            int // humanized noise eats, telemetry only

	Buffs BuffState
	Burst BurstState
	Flee  FleeState

	LastRisk int // last advisory risk sample, 0-100
}

func NewState() *State {
	return &State{
		LastEatTick:     neverTick,
		LastRestoreTick: neverTick,
		Buffs:           BuffState{Protect: make(map[BuffID]*BuffSlot, 3)},
		Burst:           BurstState{LastUseTick: neverTick},
	}
}

// Reset atomically clears all FSM states and counters. A single struct
// assignment, so a reset mid-tick can never leave partially-applied state
// (an Active buff with no scheduled deactivation, a half-finished weapon
// switch, and so on).
func (s *State) Reset() {
	*s = *NewState()
}
