package engine

import (
	"github.com/whalebot/combatcore/internal/config"
	"github.com/whalebot/combatcore/internal/core/event"
	"github.com/whalebot/combatcore/internal/core/pipeline"
	"github.com/whalebot/combatcore/internal/data"
	"go.uber.org/zap"
)

// ProtectionFor maps an incoming attack style to the protective buff that
// counters it.
func ProtectionFor(style data.AttackStyle) (BuffID, bool) {
	switch style {
	case data.StyleMelee:
		return BuffProtectMelee, true
	case data.StyleRanged:
		return BuffProtectRanged, true
	case data.StyleMagic:
		return BuffProtectMagic, true
	}
	return 0, false
}

// BuffScheduler runs the protective-buff FSMs plus the lower-priority
// offensive upkeep. All deactivations in flicking modes are scheduled at
// FSM-entry time as explicit "at tick N" fields, never as timers.
type BuffScheduler struct {
	deps *Deps
}

func NewBuffScheduler(deps *Deps) *BuffScheduler {
	return &BuffScheduler{deps: deps}
}

func (b *BuffScheduler) Phase() pipeline.Phase { return pipeline.PhaseBuff }

func (b *BuffScheduler) Evaluate(in TickInput) (*Action, bool) {
	snap, st := in.Snap, in.St
	if !snap.Ready {
		return nil, false
	}

	if act := b.resourceGuard(snap, st); act != nil {
		return act, true
	}
	if st.Buffs.Degraded {
		return nil, false
	}

	if act := b.protective(snap, st); act != nil {
		return act, true
	}

	// Offensive upkeep only runs when protective logic stayed quiet and a
	// target exists; it never interrupts protective transitions.
	if act := b.offensive(snap, st); act != nil {
		return act, true
	}
	return nil, false
}

// resourceGuard enforces the buff resource floor independently of mode.
func (b *BuffScheduler) resourceGuard(snap *Snapshot, st *State) *Action {
	cfg := b.deps.Cfg.Buffs
	points := snap.Player.Resource
	restore := snap.FindItem(b.deps.Items, data.ClassRestore)

	if points < cfg.DisablePoints && restore == nil {
		// Nothing left to run buffs on and nothing to refill with: force
		// everything off. Surfaced as a degraded state, logged once.
		if !st.Buffs.Degraded {
			st.Buffs.Degraded = true
			b.deps.Log.Warn("buff resource exhausted with no restorative",
				zap.Int("points", points), zap.Int64("tick", snap.Tick))
		}
		for id, slot := range st.Buffs.Protect {
			if slot.Status == BuffActive || slot.Status == BuffPendingDeactivate {
				slot.Status = BuffDisabled
				slot.DeactivateTick = 0
				return NewBuffAction(PriorityHigh, id, false)
			}
			slot.Status = BuffDisabled
		}
		return nil
	}

	if st.Buffs.Degraded && (points >= cfg.DisablePoints || restore != nil) {
		// Recovered: FSMs may run again.
		st.Buffs.Degraded = false
		for _, slot := range st.Buffs.Protect {
			if slot.Status == BuffDisabled {
				slot.Status = BuffInactive
			}
		}
	}

	if points < cfg.RestorePoints && restore != nil {
		if snap.Tick-st.LastRestoreTick >= int64(b.deps.Cfg.Eat.CooldownTicks) {
			st.LastRestoreTick = snap.Tick
			return NewRestoreAction(PriorityHigh, restore.Slot, restore.ItemID)
		}
	}
	return nil
}

func (b *BuffScheduler) protective(snap *Snapshot, st *State) *Action {
	switch b.deps.Cfg.Buffs.FlickMode {
	case config.FlickAlwaysOn:
		return b.alwaysOn(snap, st)
	default:
		return b.flick(snap, st)
	}
}

// flick covers the Perfect and Lazy modes.
func (b *BuffScheduler) flick(snap *Snapshot, st *State) *Action {
	mode := b.deps.Cfg.Buffs.FlickMode
	style := snap.Combat.IncomingStyle
	buff, known := ProtectionFor(style)

	// Scheduled deactivations run first.
	if act := b.runScheduled(snap, st); act != nil {
		return act
	}

	// Lazy: the held buff drops only when the incoming style changes or
	// combat pauses.
	if mode == config.FlickLazy {
		if act := b.lazyRelease(snap, st, style); act != nil {
			return act
		}
	}

	if !known || !snap.Player.HasProtection(style) {
		return nil
	}
	slot := st.Buffs.slot(buff)
	if slot.Status != BuffInactive {
		return nil
	}
	if snap.Combat.TicksUntilHit < 0 {
		return nil
	}

	landTick := snap.Tick + int64(snap.Combat.TicksUntilHit)

	// Perfect mode raises the buff exactly one tick before the hit, never
	// earlier. Lazy raises as soon as the threat is known.
	if mode == config.FlickPerfect && snap.Tick < landTick-1 {
		return nil
	}

	// Humanized miss: skip this activation entirely and don't retry against
	// the same incoming attack.
	if slot.MissedLandTick == landTick {
		return nil
	}
	if b.deps.Rand.Float64() < b.deps.Cfg.Buffs.MissProbability {
		slot.MissedLandTick = landTick
		st.Buffs.FlickMisses++
		event.Emit(b.deps.Events, event.FlickResolved{Tick: snap.Tick, Style: string(style), Hit: false})
		return nil
	}

	slot.Status = BuffActive
	slot.ActivatedTick = snap.Tick
	slot.Style = style
	if mode == config.FlickPerfect {
		// Scheduled at entry: drop right after the attack lands.
		slot.DeactivateTick = landTick + 1
	} else {
		slot.DeactivateTick = 0 // lazy holds
	}
	st.Buffs.FlickHits++
	event.Emit(b.deps.Events, event.FlickResolved{Tick: snap.Tick, Style: string(style), Hit: true})
	return NewBuffAction(PriorityHigh, buff, true)
}

// runScheduled advances Active→PendingDeactivate→Inactive for slots whose
// scheduled tick has come.
func (b *BuffScheduler) runScheduled(snap *Snapshot, st *State) *Action {
	for id, slot := range st.Buffs.Protect {
		switch slot.Status {
		case BuffPendingDeactivate:
			// Deactivation was dispatched last tick; the FSM settles.
			slot.Status = BuffInactive
			slot.DeactivateTick = 0
		case BuffActive:
			if slot.DeactivateTick != 0 && snap.Tick >= slot.DeactivateTick {
				slot.Status = BuffPendingDeactivate
				return NewBuffAction(PriorityNormal, id, false)
			}
		}
	}
	return nil
}

// lazyRelease drops a held buff when the incoming style changed or combat
// paused.
func (b *BuffScheduler) lazyRelease(snap *Snapshot, st *State, style data.AttackStyle) *Action {
	paused := style == data.StyleNone && len(snap.Aggressors()) == 0
	for id, slot := range st.Buffs.Protect {
		if slot.Status != BuffActive {
			continue
		}
		if paused || (style != data.StyleNone && slot.Style != style) {
			slot.Status = BuffPendingDeactivate
			slot.DeactivateTick = 0
			return NewBuffAction(PriorityNormal, id, false)
		}
	}
	return nil
}

// alwaysOn keeps the protection matching the most dangerous attacker raised,
// no flicking.
func (b *BuffScheduler) alwaysOn(snap *Snapshot, st *State) *Action {
	if act := b.runScheduled(snap, st); act != nil {
		return act
	}

	var wantStyle data.AttackStyle
	bestThreat := -1
	for _, e := range snap.Aggressors() {
		profile := b.deps.Refdata.Lookup(e.NpcID, e.Level)
		if profile.ThreatLevel > bestThreat {
			bestThreat = profile.ThreatLevel
			wantStyle = profile.Style
		}
	}
	if bestThreat < 0 {
		return nil
	}
	buff, ok := ProtectionFor(wantStyle)
	if !ok || !snap.Player.HasProtection(wantStyle) {
		return nil
	}

	// Drop a mismatched protection before raising the right one.
	for id, slot := range st.Buffs.Protect {
		if id != buff && slot.Status == BuffActive {
			slot.Status = BuffPendingDeactivate
			slot.DeactivateTick = 0
			return NewBuffAction(PriorityNormal, id, false)
		}
	}

	slot := st.Buffs.slot(buff)
	if slot.Status != BuffInactive {
		return nil
	}
	slot.Status = BuffActive
	slot.ActivatedTick = snap.Tick
	slot.Style = wantStyle
	slot.DeactivateTick = 0
	return NewBuffAction(PriorityHigh, buff, true)
}

// offensive maintains the offense buff while a target exists.
func (b *BuffScheduler) offensive(snap *Snapshot, st *State) *Action {
	if !b.deps.Cfg.Buffs.OffensiveUpkeep {
		return nil
	}
	if snap.Combat.TargetID == 0 {
		if st.Buffs.OffenseActive {
			st.Buffs.OffenseActive = false
			return NewBuffAction(PriorityLow, BuffOffense, false)
		}
		return nil
	}
	if st.Buffs.OffenseActive {
		return nil
	}
	st.Buffs.OffenseActive = true
	return NewBuffAction(PriorityLow, BuffOffense, true)
}
