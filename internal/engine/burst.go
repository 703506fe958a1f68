package engine

import (
	"github.com/whalebot/combatcore/internal/core/pipeline"
	"go.uber.org/zap"
)

// burstRegenPerTick is the fixed linear regeneration rate of the burst
// energy pool, used only for the advisory estimate. Gating always reads the
// live snapshot value.
const burstRegenPerTick = 0.25

// BurstAbilityManager sequences limited-use burst abilities, including the
// weapon switch dance around them.
type BurstAbilityManager struct {
	deps *Deps
}

func NewBurstAbilityManager(deps *Deps) *BurstAbilityManager {
	return &BurstAbilityManager{deps: deps}
}

func (m *BurstAbilityManager) Phase() pipeline.Phase { return pipeline.PhaseBurst }

func (m *BurstAbilityManager) Evaluate(in TickInput) (*Action, bool) {
	act := m.step(in.Snap, in.St)
	return act, act != nil
}

func (m *BurstAbilityManager) step(snap *Snapshot, st *State) *Action {
	if !snap.Ready {
		return nil
	}
	weapon := m.deps.Weapons.Get(m.deps.Cfg.Burst.WeaponItemID)
	if !weapon.HasBurst() {
		return nil
	}

	switch st.Burst.Phase {
	case BurstIdle:
		return m.fromIdle(snap, st, weapon.ItemID)

	case BurstWeaponSwitchPending:
		if snap.Combat.TargetID == 0 {
			// Target vanished mid-switch; give up this cycle.
			st.Burst.Phase = BurstIdle
			return nil
		}
		if snap.Equipment.WeaponItemID != weapon.ItemID {
			return nil // switch still in flight
		}
		st.Burst.Phase = BurstReady
		fallthrough

	case BurstReady:
		return m.fire(snap, st)

	case BurstSwitchBackPending:
		return m.switchBack(snap, st)
	}
	return nil
}

// fromIdle checks the entry conditions and either fires directly or starts
// the weapon switch. Returns nil when any gate fails.
func (m *BurstAbilityManager) fromIdle(snap *Snapshot, st *State, weaponID int32) *Action {
	cfg := m.deps.Cfg.Burst
	weapon := m.deps.Weapons.Get(weaponID)

	target := findEntity(snap, snap.Combat.TargetID)
	if target == nil || target.Dead {
		return nil
	}
	energy := snap.Combat.BurstEnergy
	if energy < cfg.EnergyThreshold || energy < weapon.EnergyCost {
		return nil
	}
	if cfg.BossOnly {
		profile := m.deps.Refdata.Lookup(target.NpcID, target.Level)
		if !profile.Boss {
			return nil
		}
	}
	if snap.Tick-st.Burst.LastUseTick < int64(cfg.MinIntervalTicks) {
		return nil
	}

	if snap.Equipment.WeaponItemID != weaponID {
		slot := snap.FindItemID(weaponID)
		if slot == nil {
			return nil // burst weapon neither equipped nor carried
		}
		st.Burst.Phase = BurstWeaponSwitchPending
		st.Burst.PrevWeaponID = snap.Equipment.WeaponItemID
		return NewGearSwitchAction(PriorityHigh, slot.Slot, weaponID)
	}

	st.Burst.Phase = BurstReady
	return m.fire(snap, st)
}

// fire emits the burst action, computing the stack count under the
// configured policy.
func (m *BurstAbilityManager) fire(snap *Snapshot, st *State) *Action {
	cfg := m.deps.Cfg.Burst
	weapon := m.deps.Weapons.Get(cfg.WeaponItemID)
	energy := snap.Combat.BurstEnergy

	// Re-check the live value: the snapshot is authoritative, estimates
	// never gate.
	if energy < weapon.EnergyCost {
		st.Burst.Phase = BurstIdle
		return nil
	}

	stacks := 1
	if cfg.AllowStacking {
		stacks = energy / weapon.EnergyCost
		if stacks > weapon.MaxStacks {
			stacks = weapon.MaxStacks
		}
		if stacks < 1 {
			stacks = 1
		}
	}

	st.Burst.LastUseTick = snap.Tick
	if cfg.SwitchBack && st.Burst.PrevWeaponID != 0 {
		st.Burst.Phase = BurstSwitchBackPending
	} else {
		st.Burst.Phase = BurstIdle
		st.Burst.PrevWeaponID = 0
	}
	return NewBurstAction(PriorityNormal, weapon.BurstName, weapon.ItemID, stacks)
}

// switchBack restores the prior weapon once the inventory confirms it.
func (m *BurstAbilityManager) switchBack(snap *Snapshot, st *State) *Action {
	prev := st.Burst.PrevWeaponID
	slot := snap.FindItemID(prev)
	if slot == nil {
		// Prior weapon is gone; abandon without blocking future cycles.
		m.deps.Log.Info("switch-back weapon no longer available",
			zap.Int32("item_id", prev))
		st.Burst.Phase = BurstIdle
		st.Burst.PrevWeaponID = 0
		return nil
	}
	st.Burst.Phase = BurstIdle
	st.Burst.PrevWeaponID = 0
	return NewGearSwitchAction(PriorityNormal, slot.Slot, prev)
}

// TicksUntilEnergy estimates how many ticks until the pool reaches the
// threshold, assuming the fixed linear regeneration rate. Advisory only.
func TicksUntilEnergy(current, threshold int) int {
	if current >= threshold {
		return 0
	}
	deficit := float64(threshold - current)
	ticks := deficit / burstRegenPerTick
	if ticks != float64(int(ticks)) {
		return int(ticks) + 1
	}
	return int(ticks)
}
