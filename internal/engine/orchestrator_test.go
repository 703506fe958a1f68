package engine

import (
	"testing"

	"github.com/whalebot/combatcore/internal/core/pipeline"
	"go.uber.org/zap"
)

func TestFleePreemptsEating(t *testing.T) {
	deps := testDeps(t, hardcore)
	orch := NewOrchestrator(deps)

	// Starving AND piled up: the safety override wins the tick.
	snap := baseSnapshot(10)
	snap.Player.HP = 20
	snap.Player.MaxHP = 100
	snap.Entities = []Entity{aggressor(11, 51, 50), aggressor(12, 49, 50)}

	act := orch.Tick(snap)
	if act == nil || act.Kind != ActionFlee {
		t.Fatalf("flee must preempt eating, got %+v", act)
	}
}

func TestFleeHoldsSubsequentTicks(t *testing.T) {
	deps := testDeps(t, hardcore)
	orch := NewOrchestrator(deps)

	snap := baseSnapshot(10)
	snap.Entities = []Entity{aggressor(11, 51, 50), aggressor(12, 49, 50)}
	if act := orch.Tick(snap); act == nil || act.Kind != ActionFlee {
		t.Fatal("expected flee")
	}

	// Escaping: the engine goes quiet until reset.
	snap = baseSnapshot(11)
	snap.Player.HP = 20
	snap.Player.MaxHP = 100
	if act := orch.Tick(snap); act != nil {
		t.Fatalf("mid-flee the engine must hold, got %+v", act)
	}

	orch.Reset()
	snap = baseSnapshot(12)
	snap.Player.HP = 20
	snap.Player.MaxHP = 100
	if act := orch.Tick(snap); act == nil {
		t.Fatal("after reset the engine acts again")
	}
}

func TestEatBeatsLoot(t *testing.T) {
	deps := testDeps(t, nil)
	orch := NewOrchestrator(deps)

	snap := baseSnapshot(10)
	snap.Player.HP = 40
	snap.Player.MaxHP = 99
	snap.Ground = []GroundItem{{ID: 1, ItemID: itemCrystal, X: 51, Y: 50, Count: 1, Value: 2000}}

	act := orch.Tick(snap)
	if act == nil || act.Kind != ActionEat {
		t.Fatalf("resource phase outranks loot, got %+v", act)
	}
}

func TestLootWhenNothingElseWants(t *testing.T) {
	deps := testDeps(t, nil)
	orch := NewOrchestrator(deps)

	snap := baseSnapshot(10)
	snap.Combat.TargetID = 11
	snap.Entities = []Entity{crab(11, 51, 50)}
	// Offense buff already up so the buff phase stays quiet.
	orch.State().Buffs.OffenseActive = true
	snap.Ground = []GroundItem{{ID: 1, ItemID: itemCrystal, X: 51, Y: 50, Count: 1, Value: 2000}}

	act := orch.Tick(snap)
	if act == nil || act.Kind != ActionLoot {
		t.Fatalf("want loot on a quiet tick, got %+v", act)
	}
}

func TestQuietTickEmitsNothing(t *testing.T) {
	deps := testDeps(t, nil)
	orch := NewOrchestrator(deps)

	snap := baseSnapshot(10)
	snap.Combat.TargetID = 11
	snap.Entities = []Entity{crab(11, 51, 50)}
	orch.State().Buffs.OffenseActive = true

	if act := orch.Tick(snap); act != nil {
		t.Fatalf("nothing to do, got %+v", act)
	}
}

func TestNotReadySuppressesEverything(t *testing.T) {
	deps := testDeps(t, hardcore)
	orch := NewOrchestrator(deps)

	snap := baseSnapshot(10)
	snap.Ready = false
	snap.Player.HP = 5
	snap.Player.MaxHP = 100
	snap.Entities = []Entity{aggressor(11, 51, 50), aggressor(12, 49, 50)}

	if act := orch.Tick(snap); act != nil {
		t.Fatalf("loading character must produce nothing, got %+v", act)
	}
}

type panicky struct{}

func (panicky) Phase() pipeline.Phase              { return pipeline.PhaseLoot }
func (panicky) Evaluate(TickInput) (*Action, bool) { panic("boom") }

func TestComponentPanicIsContained(t *testing.T) {
	g := &guarded{inner: panicky{}, log: zap.NewNop()}
	act, ok := g.Evaluate(TickInput{Snap: baseSnapshot(1), St: NewState()})
	if ok || act != nil {
		t.Fatalf("panic must yield no action, got %+v", act)
	}
}
