package engine

import (
	"github.com/whalebot/combatcore/internal/core/pipeline"
	"github.com/whalebot/combatcore/internal/data"
	"go.uber.org/zap"
)

// ResourceMonitor decides when to eat and when to restore. One consumable
// per cooldown window; the panic path ignores priority niceties but never
// the cooldown (the game itself enforces the consumable delay).
type ResourceMonitor struct {
	deps *Deps
}

func NewResourceMonitor(deps *Deps) *ResourceMonitor {
	return &ResourceMonitor{deps: deps}
}

func (m *ResourceMonitor) Phase() pipeline.Phase { return pipeline.PhaseResource }

func (m *ResourceMonitor) Evaluate(in TickInput) (*Action, bool) {
	act := m.CheckHealth(in.Snap, in.St)
	return act, act != nil
}

// CheckHealth walks the eat decision ladder for one tick.
func (m *ResourceMonitor) CheckHealth(snap *Snapshot, st *State) *Action {
	if !snap.Ready || snap.Player.MaxHP <= 0 {
		return nil
	}
	cfg := m.deps.Cfg

	// Consumable-use delay: nothing fires until the cooldown has elapsed
	// since the last successful use.
	if snap.Tick-st.LastEatTick < int64(cfg.Eat.CooldownTicks) {
		return nil
	}

	// Restore pairing due: every Kth heal-over-time dose is followed by its
	// resource restorative before anything else is consumed.
	if k := cfg.Eat.RestorePairEvery; k > 0 && st.EatsSincePairRestore >= k {
		if restore := snap.FindItem(m.deps.Items, data.ClassRestore); restore != nil {
			st.EatsSincePairRestore = 0
			st.LastRestoreTick = snap.Tick
			return NewRestoreAction(PriorityHigh, restore.Slot, restore.ItemID)
		}
	}

	hp := snap.Player.HealthFraction()
	panicAt := cfg.EffectivePanicThreshold()
	primaryAt := cfg.EffectiveEatThreshold()

	switch {
	case hp < panicAt:
		return m.consume(snap, st, PriorityUrgent)
	case hp < primaryAt:
		return m.consume(snap, st, PriorityHigh)
	default:
		// Humanization: occasionally eat inside a narrow band above the
		// threshold even though nothing crossed. Pure noise injection.
		if cfg.Eat.ExtraEatProbability > 0 &&
			hp >= cfg.Eat.ExtraEatBandLow && hp <= cfg.Eat.ExtraEatBandHigh &&
			m.deps.Rand.Float64() < cfg.Eat.ExtraEatProbability {
			if act := m.consume(snap, st, PriorityNormal); act != nil {
				st.ExtraEats++
				return act
			}
		}
		return nil
	}
}

// consume picks the best consumable for the current deficit. Falls through
// food → tiered alternate healing → flee when nothing edible remains and
// health is below panic.
func (m *ResourceMonitor) consume(snap *Snapshot, st *State, prio Priority) *Action {
	cfg := m.deps.Cfg

	if food := m.pickFood(snap); food != nil {
		comboSlot, comboID := -1, int32(0)
		if cfg.Eat.ComboEating && m.deps.Rand.Float64() < cfg.Eat.ComboProbability {
			if c := snap.FindItem(m.deps.Items, data.ClassComboFood); c != nil {
				comboSlot, comboID = c.Slot, c.ItemID
			}
		}
		st.LastEatTick = snap.Tick
		return NewEatAction(prio, food.Slot, food.ItemID, comboSlot, comboID)
	}

	// No primary food: a tiered heal-over-time dose will do when health is
	// critically low and its companion restorative is on hand.
	if prio == PriorityUrgent {
		if alt := m.pickAltHeal(snap); alt != nil {
			st.LastEatTick = snap.Tick
			st.PrimaryEats++
			st.EatsSincePairRestore++
			info := m.deps.Items.Get(alt.ItemID)
			m.deps.Log.Debug("alternate heal",
				zap.Int32("item_id", alt.ItemID), zap.Int("tier", info.Tier))
			return NewDrinkPotionAction(PriorityUrgent, alt.Slot, alt.ItemID, -1)
		}
	}

	// Nothing consumable at all below panic threshold: bail out. This path
	// is independent of the safety override and fires in the normal profile
	// too.
	if prio == PriorityUrgent {
		method, slot := ChooseEscape(snap, m.deps.Items)
		m.deps.Log.Warn("no consumables below panic threshold",
			zap.Int64("tick", snap.Tick), zap.String("method", method.String()))
		return NewFleeAction(method, FleeNoConsumables, slot)
	}
	return nil
}

// pickFood selects the food slot: minimal healing overshoot for the damage
// taken when enabled, otherwise the biggest heal.
func (m *ResourceMonitor) pickFood(snap *Snapshot) *InvItem {
	damage := snap.Player.MaxHP - snap.Player.HP
	var best *InvItem
	bestHeal := -1
	bestOvershoot := int(^uint(0) >> 1)

	for i := range snap.Inventory {
		it := &snap.Inventory[i]
		info := m.deps.Items.Get(it.ItemID)
		if info == nil || info.Class != data.ClassFood || it.Count <= 0 {
			continue
		}
		if !m.deps.Cfg.Eat.MinimizeOvershoot {
			if info.Heal > bestHeal {
				best, bestHeal = it, info.Heal
			}
			continue
		}
		overshoot := info.Heal - damage
		if overshoot < 0 {
			overshoot = 0
		}
		// Smallest overshoot wins; among no-overshoot items the biggest heal
		// wins.
		if overshoot < bestOvershoot || (overshoot == bestOvershoot && info.Heal > bestHeal) {
			best, bestHeal, bestOvershoot = it, info.Heal, overshoot
		}
	}
	return best
}

// pickAltHeal returns the strongest alternate healing dose whose companion
// restorative is also present.
func (m *ResourceMonitor) pickAltHeal(snap *Snapshot) *InvItem {
	var best *InvItem
	bestTier := -1
	for i := range snap.Inventory {
		it := &snap.Inventory[i]
		info := m.deps.Items.Get(it.ItemID)
		if info == nil || info.Class != data.ClassAltHeal || it.Count <= 0 {
			continue
		}
		if info.CompanionID != 0 && snap.FindItemID(info.CompanionID) == nil {
			continue
		}
		if info.Tier > bestTier {
			best, bestTier = it, info.Tier
		}
	}
	return best
}
