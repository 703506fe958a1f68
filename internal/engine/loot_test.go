package engine

import "testing"

func TestLootValueFilter(t *testing.T) {
	deps := testDeps(t, nil) // min value 500
	mon := NewLootMonitor(deps)

	snap := baseSnapshot(10)
	snap.Ground = []GroundItem{
		{ID: 1, ItemID: itemCake, X: 51, Y: 50, Count: 1, Value: 60}, // table value 60: below cutoff
	}
	if act, ok := mon.Evaluate(TickInput{Snap: snap, St: NewState()}); ok {
		t.Fatalf("junk should be ignored, got %+v", act)
	}

	snap.Ground = append(snap.Ground, GroundItem{ID: 2, ItemID: itemCrystal, X: 55, Y: 50, Count: 1})
	act, ok := mon.Evaluate(TickInput{Snap: snap, St: NewState()})
	if !ok || act.Kind != ActionLoot || act.Loot.GroundID != 2 {
		t.Fatalf("want the crystal, got %+v", act)
	}
	if act.Loot.Value != 1500 {
		t.Fatalf("table value wins over reported value, got %d", act.Loot.Value)
	}
}

func TestLootPrefersNearest(t *testing.T) {
	deps := testDeps(t, nil)
	mon := NewLootMonitor(deps)

	snap := baseSnapshot(10)
	snap.Ground = []GroundItem{
		{ID: 1, ItemID: itemCrystal, X: 58, Y: 50, Count: 1},
		{ID: 2, ItemID: itemCrystal, X: 52, Y: 50, Count: 1},
	}
	act, ok := mon.Evaluate(TickInput{Snap: snap, St: NewState()})
	if !ok || act.Loot.GroundID != 2 {
		t.Fatalf("want the nearer stack, got %+v", act)
	}
}

func TestLootUsesReportedValueForUnknownItems(t *testing.T) {
	deps := testDeps(t, nil)
	mon := NewLootMonitor(deps)

	snap := baseSnapshot(10)
	snap.Ground = []GroundItem{
		{ID: 1, ItemID: 9999, X: 51, Y: 50, Count: 1, Value: 800},
	}
	act, ok := mon.Evaluate(TickInput{Snap: snap, St: NewState()})
	if !ok || act.Loot.Value != 800 {
		t.Fatalf("unknown item keeps reported value, got %+v", act)
	}
}

func TestLootDisabled(t *testing.T) {
	deps := testDeps(t, nil)
	deps.Cfg.Loot.Enabled = false
	mon := NewLootMonitor(deps)

	snap := baseSnapshot(10)
	snap.Ground = []GroundItem{{ID: 1, ItemID: itemCrystal, X: 51, Y: 50, Count: 1}}
	if act, ok := mon.Evaluate(TickInput{Snap: snap, St: NewState()}); ok {
		t.Fatalf("loot disabled, got %+v", act)
	}
}
