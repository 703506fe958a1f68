package engine

import (
	"testing"

	"github.com/whalebot/combatcore/internal/config"
	"github.com/whalebot/combatcore/internal/data"
)

func buffInput(snap *Snapshot, st *State) TickInput {
	return TickInput{Snap: snap, St: st}
}

func meleeThreat(snap *Snapshot, ticksUntilHit int) {
	snap.Combat.IncomingStyle = data.StyleMelee
	snap.Combat.TicksUntilHit = ticksUntilHit
}

func TestPerfectFlickNeverActivatesEarly(t *testing.T) {
	deps := testDeps(t, func(cfg *config.Config) { cfg.Buffs.FlickMode = config.FlickPerfect })
	sched := NewBuffScheduler(deps)
	st := NewState()

	// Attack lands at tick 13. Activation is only legal at tick 12.
	for tick, tuh := int64(10), 3; tuh >= 2; tick, tuh = tick+1, tuh-1 {
		snap := baseSnapshot(tick)
		meleeThreat(snap, tuh)
		if act, ok := sched.Evaluate(buffInput(snap, st)); ok {
			t.Fatalf("tick %d: too early, got %+v", tick, act)
		}
	}

	snap := baseSnapshot(12)
	meleeThreat(snap, 1)
	act, ok := sched.Evaluate(buffInput(snap, st))
	if !ok || act.Kind != ActionBuffSwitch || !act.Buff.Activate || act.Buff.Buff != BuffProtectMelee {
		t.Fatalf("want protect melee activation at land-1, got %+v", act)
	}
	slot := st.Buffs.Protect[BuffProtectMelee]
	if slot.Status != BuffActive || slot.DeactivateTick != 14 {
		t.Fatalf("want active with deactivation scheduled for 14, got %+v", slot)
	}
}

func TestPerfectFlickDropsAfterHit(t *testing.T) {
	deps := testDeps(t, func(cfg *config.Config) { cfg.Buffs.FlickMode = config.FlickPerfect })
	sched := NewBuffScheduler(deps)
	st := NewState()

	snap := baseSnapshot(12)
	meleeThreat(snap, 1)
	if _, ok := sched.Evaluate(buffInput(snap, st)); !ok {
		t.Fatal("activation should fire")
	}

	// Hit lands on 13: still held.
	snap = baseSnapshot(13)
	meleeThreat(snap, 0)
	if act, ok := sched.Evaluate(buffInput(snap, st)); ok && act.Kind == ActionBuffSwitch && !act.Buff.Activate {
		t.Fatalf("must hold through the hit, got %+v", act)
	}

	// Tick 14: scheduled deactivation.
	snap = baseSnapshot(14)
	snap.Combat.TicksUntilHit = -1
	act, ok := sched.Evaluate(buffInput(snap, st))
	if !ok || act.Buff == nil || act.Buff.Activate {
		t.Fatalf("want deactivation at land+1, got %+v", act)
	}

	// Tick 15: FSM settles silently.
	snap = baseSnapshot(15)
	snap.Combat.TicksUntilHit = -1
	if act, ok := sched.Evaluate(buffInput(snap, st)); ok && act.Kind == ActionBuffSwitch {
		t.Fatalf("no second deactivation, got %+v", act)
	}
	if st.Buffs.Protect[BuffProtectMelee].Status != BuffInactive {
		t.Fatalf("want inactive, got %v", st.Buffs.Protect[BuffProtectMelee].Status)
	}
}

func TestLazyFlickHoldsAcrossSameStyle(t *testing.T) {
	deps := testDeps(t, nil) // lazy by default
	sched := NewBuffScheduler(deps)
	st := NewState()

	snap := baseSnapshot(10)
	meleeThreat(snap, 2)
	snap.Entities = []Entity{func() Entity { c := crab(11, 51, 50); c.AttackingMe = true; return c }()}
	act, ok := sched.Evaluate(buffInput(snap, st))
	if !ok || !act.Buff.Activate {
		t.Fatalf("lazy should raise as soon as the threat is known, got %+v", act)
	}

	// Same style keeps the buff with no further actions.
	for tick := int64(11); tick <= 14; tick++ {
		snap := baseSnapshot(tick)
		meleeThreat(snap, int(14-tick))
		snap.Entities = []Entity{func() Entity { c := crab(11, 51, 50); c.AttackingMe = true; return c }()}
		if act, ok := sched.Evaluate(buffInput(snap, st)); ok && act.Kind == ActionBuffSwitch {
			t.Fatalf("tick %d: lazy must hold, got %+v", tick, act)
		}
	}
}

func TestLazyFlickReleasesOnStyleChange(t *testing.T) {
	deps := testDeps(t, nil)
	sched := NewBuffScheduler(deps)
	st := NewState()

	snap := baseSnapshot(10)
	meleeThreat(snap, 2)
	if _, ok := sched.Evaluate(buffInput(snap, st)); !ok {
		t.Fatal("activation should fire")
	}

	// Style switches to ranged: drop the melee protection.
	snap = baseSnapshot(11)
	snap.Combat.IncomingStyle = data.StyleRanged
	snap.Combat.TicksUntilHit = 3
	act, ok := sched.Evaluate(buffInput(snap, st))
	if !ok || act.Buff == nil || act.Buff.Activate || act.Buff.Buff != BuffProtectMelee {
		t.Fatalf("want melee deactivation on style change, got %+v", act)
	}

	// Next tick raises the ranged protection.
	snap = baseSnapshot(12)
	snap.Combat.IncomingStyle = data.StyleRanged
	snap.Combat.TicksUntilHit = 2
	act, ok = sched.Evaluate(buffInput(snap, st))
	if !ok || !act.Buff.Activate || act.Buff.Buff != BuffProtectRanged {
		t.Fatalf("want ranged activation, got %+v", act)
	}
}

func TestFlickMissSkipsAttackOnce(t *testing.T) {
	deps := testDeps(t, func(cfg *config.Config) { cfg.Buffs.MissProbability = 1.0 })
	sched := NewBuffScheduler(deps)
	st := NewState()

	snap := baseSnapshot(10)
	meleeThreat(snap, 1)
	if act, ok := sched.Evaluate(buffInput(snap, st)); ok {
		t.Fatalf("forced miss should emit nothing, got %+v", act)
	}
	if st.Buffs.FlickMisses != 1 {
		t.Fatalf("want 1 miss, got %d", st.Buffs.FlickMisses)
	}

	// Same attack next tick: no second roll against the same land tick.
	snap = baseSnapshot(11)
	meleeThreat(snap, 0)
	sched.Evaluate(buffInput(snap, st))
	if st.Buffs.FlickMisses != 1 {
		t.Fatalf("miss must not retry the same attack, got %d", st.Buffs.FlickMisses)
	}
}

func TestResourceGuardDisablesAndRecovers(t *testing.T) {
	deps := testDeps(t, nil)
	sched := NewBuffScheduler(deps)
	st := NewState()
	st.Buffs.slot(BuffProtectMelee).Status = BuffActive

	snap := baseSnapshot(10)
	snap.Player.Resource = 1 // below disable_points=2
	snap.Inventory = []InvItem{{Slot: 0, ItemID: itemShark, Count: 5}}

	act, ok := sched.Evaluate(buffInput(snap, st))
	if !ok || act.Buff == nil || act.Buff.Activate {
		t.Fatalf("want forced deactivation, got %+v", act)
	}
	if !st.Buffs.Degraded {
		t.Fatal("want degraded state")
	}

	// Degraded and still starved: nothing happens.
	snap = baseSnapshot(11)
	snap.Player.Resource = 1
	snap.Inventory = []InvItem{{Slot: 0, ItemID: itemShark, Count: 5}}
	if act, ok := sched.Evaluate(buffInput(snap, st)); ok {
		t.Fatalf("degraded engine must stay quiet, got %+v", act)
	}

	// A restorative shows up: recover and prefer drinking it.
	snap = baseSnapshot(12)
	snap.Player.Resource = 1
	snap.Inventory = []InvItem{{Slot: 2, ItemID: itemDraught, Count: 1}}
	act, ok = sched.Evaluate(buffInput(snap, st))
	if !ok || act.Kind != ActionRestore {
		t.Fatalf("want restore on recovery, got %+v", act)
	}
	if st.Buffs.Degraded {
		t.Fatal("degraded flag should clear")
	}
}

func TestAlwaysOnTracksMostDangerousAttacker(t *testing.T) {
	deps := testDeps(t, func(cfg *config.Config) { cfg.Buffs.FlickMode = config.FlickAlwaysOn })
	sched := NewBuffScheduler(deps)
	st := NewState()

	scorpion := Entity{
		ID: 21, NpcID: npcScorpion, Name: "Sand scorpion",
		X: 51, Y: 50, Level: 38, HP: 60, MaxHP: 60,
		AttackingMe: true, Engaged: true, Adjacent: true,
	}
	snap := baseSnapshot(10)
	snap.Entities = []Entity{scorpion}

	act, ok := sched.Evaluate(buffInput(snap, st))
	if !ok || !act.Buff.Activate || act.Buff.Buff != BuffProtectMelee {
		t.Fatalf("want melee protection raised, got %+v", act)
	}

	// Held, not flicked.
	snap = baseSnapshot(11)
	snap.Entities = []Entity{scorpion}
	if act, ok := sched.Evaluate(buffInput(snap, st)); ok && act.Kind == ActionBuffSwitch {
		t.Fatalf("always-on should hold, got %+v", act)
	}

	// A magic boss joins with higher threat: swap protections.
	warden := Entity{
		ID: 31, NpcID: npcWarden, Name: "Tide warden",
		X: 49, Y: 50, Level: 210, HP: 500, MaxHP: 500,
		AttackingMe: true, Engaged: true, Adjacent: true,
	}
	snap = baseSnapshot(12)
	snap.Entities = []Entity{scorpion, warden}
	act, ok = sched.Evaluate(buffInput(snap, st))
	if !ok || act.Buff == nil || act.Buff.Activate || act.Buff.Buff != BuffProtectMelee {
		t.Fatalf("want melee dropped first, got %+v", act)
	}

	snap = baseSnapshot(13)
	snap.Entities = []Entity{scorpion, warden}
	act, ok = sched.Evaluate(buffInput(snap, st))
	if !ok || !act.Buff.Activate || act.Buff.Buff != BuffProtectMagic {
		t.Fatalf("want magic protection raised, got %+v", act)
	}
}

func TestOffensiveUpkeep(t *testing.T) {
	deps := testDeps(t, nil)
	sched := NewBuffScheduler(deps)
	st := NewState()

	snap := baseSnapshot(10)
	snap.Combat.TargetID = 11
	snap.Entities = []Entity{crab(11, 51, 50)}

	act, ok := sched.Evaluate(buffInput(snap, st))
	if !ok || act.Buff == nil || act.Buff.Buff != BuffOffense || !act.Buff.Activate {
		t.Fatalf("want offense buff raised, got %+v", act)
	}
	if act.Priority != PriorityLow {
		t.Fatalf("offense upkeep is low priority, got %v", act.Priority)
	}

	// Target gone: drop it.
	snap = baseSnapshot(11)
	act, ok = sched.Evaluate(buffInput(snap, st))
	if !ok || act.Buff == nil || act.Buff.Buff != BuffOffense || act.Buff.Activate {
		t.Fatalf("want offense buff dropped, got %+v", act)
	}
}
