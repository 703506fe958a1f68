package data

import (
	"os"
	"path/filepath"
	"testing"
)

func TestItemTableLookups(t *testing.T) {
	table, err := NewItemTable([]ItemInfo{
		{ItemID: 1, Name: "Grilled bass", Class: ClassFood, Heal: 13},
		{ItemID: 2, Name: "Escape crystal", Class: ClassEscape},
	})
	if err != nil {
		t.Fatal(err)
	}

	if table.Count() != 2 {
		t.Fatalf("want 2 items, got %d", table.Count())
	}
	if it := table.Get(1); it == nil || it.Heal != 13 {
		t.Fatalf("Get(1): %+v", it)
	}
	if it := table.GetByName("Escape crystal"); it == nil || it.ItemID != 2 {
		t.Fatalf("GetByName: %+v", it)
	}
	if !table.IsClass(2, ClassEscape) || table.IsClass(1, ClassEscape) {
		t.Fatal("IsClass misclassified")
	}
	if table.IsClass(99, ClassFood) {
		t.Fatal("unknown item must not match any class")
	}
}

func TestItemTableRejectsMissingID(t *testing.T) {
	if _, err := NewItemTable([]ItemInfo{{Name: "nameless"}}); err == nil {
		t.Fatal("want error for missing item_id")
	}
}

func TestLoadItemTableYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "item_list.yaml")
	body := `
items:
  - item_id: 10
    name: "Vitality brew (4)"
    class: alt_heal
    heal: 16
    tier: 4
    companion_id: 20
  - item_id: 20
    name: "Clarity draught"
    class: restore
    restore: 24
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadItemTable(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	brew := table.Get(10)
	if brew == nil || brew.Class != ClassAltHeal || brew.CompanionID != 20 || brew.Tier != 4 {
		t.Fatalf("brew: %+v", brew)
	}
}

func TestWeaponTableStackFloor(t *testing.T) {
	table, err := NewWeaponTable([]WeaponInfo{
		{ItemID: 1, Name: "Maul", BurstName: "Crush", EnergyCost: 50},
		{ItemID: 2, Name: "Sword"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := table.Get(1).MaxStacks; got != 1 {
		t.Fatalf("max stacks must floor at 1, got %d", got)
	}
	if !table.Get(1).HasBurst() {
		t.Fatal("energy cost implies a burst ability")
	}
	if table.Get(2).HasBurst() {
		t.Fatal("zero cost means no burst")
	}
	var missing *WeaponInfo
	if missing.HasBurst() {
		t.Fatal("nil weapon must report no burst")
	}
}
