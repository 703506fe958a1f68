package engine

import (
	"github.com/whalebot/combatcore/internal/core/event"
	"github.com/whalebot/combatcore/internal/core/pipeline"
	"go.uber.org/zap"
)

// Orchestrator composes the decision components into the per-tick pipeline
// and enforces the one-action-per-tick contract. Components run in fixed
// phase order; the first one that wants the tick gets it.
type Orchestrator struct {
	deps   *Deps
	runner *pipeline.Runner[TickInput, *Action]
	state  *State
}

func NewOrchestrator(deps *Deps) *Orchestrator {
	o := &Orchestrator{
		deps:   deps,
		runner: pipeline.NewRunner[TickInput, *Action](),
		state:  NewState(),
	}
	for _, e := range []pipeline.Evaluator[TickInput, *Action]{
		NewSafetyOverride(deps),
		NewResourceMonitor(deps),
		NewBuffScheduler(deps),
		NewBurstAbilityManager(deps),
		NewTargetArbiter(deps),
		NewLootMonitor(deps),
	} {
		o.runner.Register(&guarded{inner: e, log: deps.Log})
	}
	return o
}

// State exposes the engine-owned state for inspection and telemetry.
func (o *Orchestrator) State() *State { return o.state }

// Tick evaluates one snapshot and returns at most one action. A nil action
// means the engine deliberately does nothing this tick.
func (o *Orchestrator) Tick(snap *Snapshot) *Action {
	// An active flee owns every subsequent tick until the state is reset:
	// no eating, no buffs, no retargeting while escaping.
	if o.state.Flee.Active {
		o.deps.Log.Debug("flee in progress, holding",
			zap.Int64("tick", snap.Tick),
			zap.String("reason", string(o.state.Flee.Reason)))
		return nil
	}

	act, phase, ok := o.runner.First(TickInput{Snap: snap, St: o.state})
	if !ok || act == nil {
		return nil
	}

	o.deps.Log.Debug("action dispatched",
		zap.Int64("tick", snap.Tick),
		zap.String("kind", act.Kind.String()),
		zap.String("priority", act.Priority.String()),
		zap.String("phase", phase.String()))
	event.Emit(o.deps.Events, event.ActionDispatched{
		Tick:     snap.Tick,
		Kind:     act.Kind.String(),
		Priority: act.Priority.String(),
		Phase:    phase.String(),
	})
	return act
}

// Reset clears all engine state, for logout or profile switches.
func (o *Orchestrator) Reset() {
	o.state.Reset()
	o.deps.Log.Info("engine state reset")
}

// guarded is the fault boundary around one component: a panic inside a
// single evaluator loses that component's tick, never the whole engine.
type guarded struct {
	inner pipeline.Evaluator[TickInput, *Action]
	log   *zap.Logger
}

func (g *guarded) Phase() pipeline.Phase { return g.inner.Phase() }

func (g *guarded) Evaluate(in TickInput) (act *Action, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error("component panicked",
				zap.String("phase", g.inner.Phase().String()),
				zap.Any("panic", r))
			act, ok = nil, false
		}
	}()
	return g.inner.Evaluate(in)
}
