package engine

import (
	"github.com/whalebot/combatcore/internal/core/pipeline"
)

// LootMonitor picks up valuable ground stacks once nothing more important
// wants the tick. Value from the item table wins over the reported stack
// value when the item is known.
type LootMonitor struct {
	deps *Deps
}

func NewLootMonitor(deps *Deps) *LootMonitor {
	return &LootMonitor{deps: deps}
}

func (m *LootMonitor) Phase() pipeline.Phase { return pipeline.PhaseLoot }

func (m *LootMonitor) Evaluate(in TickInput) (*Action, bool) {
	snap := in.Snap
	cfg := m.deps.Cfg.Loot
	if !snap.Ready || !cfg.Enabled || len(snap.Ground) == 0 {
		return nil, false
	}

	var best *GroundItem
	bestValue := 0
	var bestDist int32
	for i := range snap.Ground {
		g := &snap.Ground[i]
		v := m.stackValue(g)
		if v < cfg.MinValue {
			continue
		}
		d := Chebyshev32(snap.Player.X, snap.Player.Y, g.X, g.Y)
		if best == nil || d < bestDist || (d == bestDist && v > bestValue) {
			best, bestValue, bestDist = g, v, d
		}
	}
	if best == nil {
		return nil, false
	}
	return NewLootAction(PriorityLow, best.ID, best.ItemID, bestValue), true
}

func (m *LootMonitor) stackValue(g *GroundItem) int {
	if info := m.deps.Items.Get(g.ItemID); info != nil && info.Value > 0 {
		return info.Value * g.Count
	}
	return g.Value
}
