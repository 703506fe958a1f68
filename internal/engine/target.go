package engine

import (
	"sort"

	"github.com/whalebot/combatcore/internal/core/pipeline"
	"github.com/whalebot/combatcore/internal/scripting"
	"go.uber.org/zap"
)

// Selection strategy names recognized in target.strategies config.
const (
	StrategyAttackingMe   = "attacking_me"
	StrategyLowestHealth  = "lowest_health"
	StrategyHighestHealth = "highest_health"
	StrategyNearest       = "nearest"
	StrategyByID          = "by_id"
	StrategyByName        = "by_name"
)

// TargetArbiter picks who to fight. Stateless aside from configuration: the
// same snapshot always yields the same choice.
type TargetArbiter struct {
	deps *Deps
}

func NewTargetArbiter(deps *Deps) *TargetArbiter {
	return &TargetArbiter{deps: deps}
}

func (a *TargetArbiter) Phase() pipeline.Phase { return pipeline.PhaseTarget }

// Evaluate emits a Retarget action when the current target is gone or dead
// and a viable candidate exists.
func (a *TargetArbiter) Evaluate(in TickInput) (*Action, bool) {
	snap := in.Snap
	if !snap.Ready {
		return nil, false
	}

	// Current target still valid → nothing to do.
	if cur := findEntity(snap, snap.Combat.TargetID); cur != nil && !cur.Dead {
		return nil, false
	}

	pick, strategy := a.Select(snap)
	if pick == nil {
		return nil, false
	}
	return NewRetargetAction(PriorityNormal, pick.ID, pick.Name, strategy), true
}

// Select runs the full pipeline: gather → avoidance filters → ordered
// strategies → nearest fallback. Returns nil when no entity survives the
// filters.
func (a *TargetArbiter) Select(snap *Snapshot) (*Entity, string) {
	candidates := a.filtered(snap)
	if len(candidates) == 0 {
		return nil, ""
	}

	// Lua hook gets first refusal on the filtered list.
	if id, ok := a.luaPick(snap, candidates); ok {
		for _, c := range candidates {
			if c.ID == id {
				return c, "lua"
			}
		}
		a.deps.Log.Warn("lua select_target returned unfiltered entity", zap.Int32("id", id))
	}

	strategies := a.deps.Cfg.Target.Strategies
	if len(strategies) == 0 {
		strategies = []string{StrategyAttackingMe, StrategyNearest}
	}
	for _, strat := range strategies {
		if pick := a.applyStrategy(strat, snap, candidates); pick != nil {
			return pick, strat
		}
	}

	// Every strategy came up empty: nearest filtered candidate.
	return nearestOf(snap, candidates), "fallback_nearest"
}

// filtered applies the avoidance filters over everything in search radius.
func (a *TargetArbiter) filtered(snap *Snapshot) []*Entity {
	cfg := a.deps.Cfg.Target
	var out []*Entity
	for i := range snap.Entities {
		e := &snap.Entities[i]
		if e.Dead {
			continue
		}
		if Chebyshev32(snap.Player.X, snap.Player.Y, e.X, e.Y) > cfg.SearchRadius {
			continue
		}
		// Already fighting a different actor is off limits, unless it is the
		// one reactively attacking us (self-defense is always permitted).
		if e.Engaged && !e.AttackingMe {
			continue
		}
		profile := a.deps.Refdata.Lookup(e.NpcID, e.Level)
		if profile.ThreatLevel > cfg.MaxThreatLevel {
			continue
		}
		if !a.reachable(snap, e) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// reachable: melee needs an adjacent unobstructed tile; ranged/magic need
// line-of-sight within weapon range or a computable alternate position.
func (a *TargetArbiter) reachable(snap *Snapshot, e *Entity) bool {
	cfg := a.deps.Cfg.Target
	if cfg.WeaponRange <= 1 {
		return e.Adjacent || e.HasAltPosition
	}
	dist := Chebyshev32(snap.Player.X, snap.Player.Y, e.X, e.Y)
	if e.LineOfSight && dist <= cfg.WeaponRange {
		return true
	}
	return e.HasAltPosition
}

func (a *TargetArbiter) applyStrategy(strat string, snap *Snapshot, candidates []*Entity) *Entity {
	switch strat {
	case StrategyAttackingMe:
		return a.pickAttacker(snap, candidates)
	case StrategyLowestHealth:
		return pickBy(snap, candidates, func(x, y *Entity) bool { return x.HP < y.HP })
	case StrategyHighestHealth:
		return pickBy(snap, candidates, func(x, y *Entity) bool { return x.HP > y.HP })
	case StrategyNearest:
		return nearestOf(snap, candidates)
	case StrategyByID:
		return a.pickConfigured(snap, candidates, false)
	case StrategyByName:
		return a.pickConfigured(snap, candidates, true)
	default:
		a.deps.Log.Warn("unknown target strategy", zap.String("strategy", strat))
		return nil
	}
}

// pickAttacker prefers configured targets among current aggressors, falling
// back to any attacker (self-defense).
func (a *TargetArbiter) pickAttacker(snap *Snapshot, candidates []*Entity) *Entity {
	var attackers []*Entity
	for _, e := range candidates {
		if e.AttackingMe {
			attackers = append(attackers, e)
		}
	}
	if len(attackers) == 0 {
		return nil
	}
	var preferred []*Entity
	for _, e := range attackers {
		if a.isConfigured(e) {
			preferred = append(preferred, e)
		}
	}
	if len(preferred) > 0 {
		return nearestOf(snap, preferred)
	}
	return nearestOf(snap, attackers)
}

func (a *TargetArbiter) pickConfigured(snap *Snapshot, candidates []*Entity, byName bool) *Entity {
	var matched []*Entity
	for _, e := range candidates {
		if byName && a.nameConfigured(e.Name) {
			matched = append(matched, e)
		}
		if !byName && a.idConfigured(e.NpcID) {
			matched = append(matched, e)
		}
	}
	return nearestOf(snap, matched)
}

func (a *TargetArbiter) isConfigured(e *Entity) bool {
	cfg := a.deps.Cfg.Target
	if len(cfg.Names) == 0 && len(cfg.IDs) == 0 {
		return true // nothing configured = everything is fair game
	}
	return a.nameConfigured(e.Name) || a.idConfigured(e.NpcID)
}

func (a *TargetArbiter) nameConfigured(name string) bool {
	for _, n := range a.deps.Cfg.Target.Names {
		if n == name {
			return true
		}
	}
	return false
}

func (a *TargetArbiter) idConfigured(npcID int32) bool {
	for _, id := range a.deps.Cfg.Target.IDs {
		if id == npcID {
			return true
		}
	}
	return false
}

func (a *TargetArbiter) luaPick(snap *Snapshot, candidates []*Entity) (int32, bool) {
	if a.deps.Scripts == nil {
		return 0, false
	}
	packed := make([]scripting.TargetCandidate, len(candidates))
	for i, e := range candidates {
		profile := a.deps.Refdata.Lookup(e.NpcID, e.Level)
		packed[i] = scripting.TargetCandidate{
			ID:          e.ID,
			Name:        e.Name,
			HP:          e.HP,
			MaxHP:       e.MaxHP,
			Distance:    Chebyshev32(snap.Player.X, snap.Player.Y, e.X, e.Y),
			ThreatLevel: profile.ThreatLevel,
			AttackingMe: e.AttackingMe,
		}
	}
	return a.deps.Scripts.SelectTarget(packed)
}

// pickBy sorts by the given ordering, breaking ties by ascending distance,
// and returns the head.
func pickBy(snap *Snapshot, candidates []*Entity, less func(x, y *Entity) bool) *Entity {
	if len(candidates) == 0 {
		return nil
	}
	sorted := make([]*Entity, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if less(sorted[i], sorted[j]) {
			return true
		}
		if less(sorted[j], sorted[i]) {
			return false
		}
		di := Chebyshev32(snap.Player.X, snap.Player.Y, sorted[i].X, sorted[i].Y)
		dj := Chebyshev32(snap.Player.X, snap.Player.Y, sorted[j].X, sorted[j].Y)
		return di < dj
	})
	return sorted[0]
}

func nearestOf(snap *Snapshot, candidates []*Entity) *Entity {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	bestDist := Chebyshev32(snap.Player.X, snap.Player.Y, best.X, best.Y)
	for _, e := range candidates[1:] {
		d := Chebyshev32(snap.Player.X, snap.Player.Y, e.X, e.Y)
		if d < bestDist {
			best, bestDist = e, d
		}
	}
	return best
}

func findEntity(snap *Snapshot, id int32) *Entity {
	if id == 0 {
		return nil
	}
	for i := range snap.Entities {
		if snap.Entities[i].ID == id {
			return &snap.Entities[i]
		}
	}
	return nil
}
