package engine

import (
	"fmt"

	"github.com/whalebot/combatcore/internal/core/event"
	"github.com/whalebot/combatcore/internal/core/pipeline"
	"github.com/whalebot/combatcore/internal/data"
	"github.com/whalebot/combatcore/internal/scripting"
	"go.uber.org/zap"
)

// Default risk weights. Lua risk_weights overrides apply on top.
var defaultRiskWeights = scripting.RiskWeights{
	Health:     25,
	Food:       25,
	Aggressors: 30,
	DoT:        20,
	Area:       10,
}

// foodScarcityCap: risk from food scarcity maxes at zero food and fades out
// at this count.
const foodScarcityCap = 4

// SafetyOverride is the permadeath guard. It evaluates before everything
// else; a Flee from here preempts every other component this tick. Outside
// the hardcore profile it only samples the advisory risk score.
type SafetyOverride struct {
	deps *Deps
}

func NewSafetyOverride(deps *Deps) *SafetyOverride {
	return &SafetyOverride{deps: deps}
}

func (s *SafetyOverride) Phase() pipeline.Phase { return pipeline.PhaseSafety }

func (s *SafetyOverride) Evaluate(in TickInput) (*Action, bool) {
	snap, st := in.Snap, in.St
	if !snap.Ready {
		return nil, false
	}

	// Advisory risk score always runs, flee or not. Logging/telemetry only,
	// never control flow.
	st.LastRisk = s.RiskScore(snap)
	event.Emit(s.deps.Events, event.RiskSampled{Tick: snap.Tick, Score: st.LastRisk})

	if !s.deps.Cfg.IsHardcore() {
		return nil, false
	}

	reason, ok := s.checkOverrides(snap)
	if !ok {
		return nil, false
	}

	method, slot := ChooseEscape(snap, s.deps.Items)
	st.Flee = FleeState{Active: true, Reason: reason, SinceTick: snap.Tick}
	s.deps.Log.Warn("safety override fired",
		zap.String("reason", string(reason)),
		zap.String("method", method.String()),
		zap.Int("risk", st.LastRisk))
	event.Emit(s.deps.Events, event.FleeTriggered{
		Tick: snap.Tick, Reason: string(reason), Method: method.String(),
	})
	return NewFleeAction(method, reason, slot), true
}

// checkOverrides walks the hardcore checks in priority order, first match
// wins.
func (s *SafetyOverride) checkOverrides(snap *Snapshot) (FleeReason, bool) {
	cfg := s.deps.Cfg

	// (a) Pile-up: two or more hostiles attacking at once.
	if len(snap.Aggressors()) >= 2 {
		return FleePileUp, true
	}

	// (b) Health under the flee threshold with nothing to eat.
	if snap.Player.HealthFraction() < cfg.EffectiveFleeThreshold() && s.edibleCount(snap) == 0 {
		return FleeLowHealthNoFood, true
	}

	// (c) Damage-over-time at or above the critical constant.
	if snap.Player.DoTDamage >= cfg.Hardcore.CriticalDoTDamage {
		return FleeCriticalDoT, true
	}

	// (d) Skull flag. Must never be true for this profile; always fatal.
	if snap.Player.Skulled {
		s.deps.Log.Error("skull flag observed in hardcore profile", zap.Int64("tick", snap.Tick))
		return FleeSkulled, true
	}

	// (e) A required life-saving item fell off (consumed, destroyed).
	for _, name := range cfg.Hardcore.RequiredItems {
		if !s.itemEquipped(snap, name) {
			return FleeMissingItem, true
		}
	}

	return "", false
}

func (s *SafetyOverride) edibleCount(snap *Snapshot) int {
	return snap.CountItems(s.deps.Items, data.ClassFood) +
		snap.CountItems(s.deps.Items, data.ClassComboFood)
}

func (s *SafetyOverride) itemEquipped(snap *Snapshot, name string) bool {
	info := s.deps.Items.GetByName(name)
	if info == nil {
		// Unknown in the table: treat as missing, fail closed.
		return false
	}
	return snap.Equipment.IsWorn(info.ItemID)
}

// RiskScore sums the weighted contributions and clamps to [0,100]. Purely
// advisory.
func (s *SafetyOverride) RiskScore(snap *Snapshot) int {
	w := defaultRiskWeights
	if s.deps.Scripts != nil {
		w = s.deps.Scripts.RiskWeightOverrides(w)
	}

	score := 0

	// Health deficit: linear in missing health fraction.
	score += int(float64(w.Health) * (1 - snap.Player.HealthFraction()))

	// Food scarcity: full weight at zero food, fading linearly to the cap.
	food := s.edibleCount(snap)
	if food < foodScarcityCap {
		score += w.Food * (foodScarcityCap - food) / foodScarcityCap
	}

	// Aggressors: half the cap per attacker.
	aggr := len(snap.Aggressors()) * (w.Aggressors / 2)
	if aggr > w.Aggressors {
		aggr = w.Aggressors
	}
	score += aggr

	// Poison/venom severity against the critical constant.
	if crit := s.deps.Cfg.Hardcore.CriticalDoTDamage; crit > 0 && snap.Player.DoTDamage > 0 {
		sev := float64(snap.Player.DoTDamage) / float64(crit)
		if sev > 1 {
			sev = 1
		}
		score += int(float64(w.DoT) * sev)
	}

	if snap.InDangerArea {
		score += w.Area
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// ReadinessReport is the structured pass/fail of the pre-engagement check.
type ReadinessReport struct {
	Ready    bool
	Failures []string
}

// ReadyForCombat runs the safety checks proactively before combat starts.
// Fails closed: any missing item or food shortfall refuses engagement.
func (s *SafetyOverride) ReadyForCombat(snap *Snapshot) ReadinessReport {
	cfg := s.deps.Cfg
	if !cfg.IsHardcore() {
		return ReadinessReport{Ready: true}
	}

	var failures []string

	minFood := cfg.EffectiveMinFood()
	if got := s.edibleCount(snap); got < minFood {
		failures = append(failures, fmt.Sprintf("food: have %d, need %d", got, minFood))
	}
	for _, name := range cfg.Hardcore.RequiredItems {
		if !s.itemEquipped(snap, name) {
			failures = append(failures, fmt.Sprintf("required item not equipped: %s", name))
		}
	}
	if cfg.Hardcore.RequireEscapeItem {
		if method, _ := ChooseEscape(snap, s.deps.Items); method != EscapeTeleportItem {
			failures = append(failures, "no one-click escape item held or worn")
		}
	}
	if snap.Player.Skulled {
		failures = append(failures, "skull flag set")
	}

	return ReadinessReport{Ready: len(failures) == 0, Failures: failures}
}

// ChooseEscape picks the flee method by fixed priority: one-click teleport
// item, then the standard teleport capability, then run-and-logout as the
// guaranteed fallback. Returns the inventory slot for item-based escapes,
// -1 otherwise.
func ChooseEscape(snap *Snapshot, items *data.ItemTable) (EscapeMethod, int) {
	if it := snap.FindItem(items, data.ClassEscape); it != nil {
		return EscapeTeleportItem, it.Slot
	}
	for _, worn := range snap.Equipment.Worn {
		if items.IsClass(worn, data.ClassEscape) {
			return EscapeTeleportItem, -1
		}
	}
	if snap.Player.CanTeleport {
		return EscapeTeleportSpell, -1
	}
	return EscapeRunAndLogout, -1
}
