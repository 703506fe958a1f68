package engine

import (
	"testing"

	"github.com/whalebot/combatcore/internal/config"
	"github.com/whalebot/combatcore/internal/data"
	"github.com/whalebot/combatcore/internal/refdata"
	"github.com/whalebot/combatcore/internal/util"
	"go.uber.org/zap"
)

// Fixture item IDs shared across engine tests.
const (
	itemBass    int32 = 1001 // food, heal 13
	itemShark   int32 = 1002 // food, heal 20
	itemCake    int32 = 1003 // combo food
	itemBrew    int32 = 1010 // alt heal, tier 4, needs draught
	itemDraught int32 = 1020 // restore
	itemCrystal int32 = 1040 // escape
	itemAmulet  int32 = 2001 // worn escape, "Guardian amulet"

	weaponSword int32 = 4001
	weaponMaul  int32 = 4151 // burst "Tempest Crush", cost 50, max 2 stacks

	npcCrab     int32 = 100 // threat 1, melee
	npcScorpion int32 = 101 // threat 3, melee
	npcStalker  int32 = 102 // threat 5, ranged
	npcWarden   int32 = 200 // threat 9, magic, boss
)

func testDeps(t *testing.T, mutate func(*config.Config)) *Deps {
	t.Helper()

	cfg := config.Defaults()
	// Keep the default behavior deterministic; individual tests opt back in.
	cfg.Eat.ComboEating = false
	cfg.Eat.ExtraEatProbability = 0
	cfg.Buffs.MissProbability = 0
	cfg.Burst.WeaponItemID = weaponMaul
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("fixture config invalid: %v", err)
	}

	items, err := data.NewItemTable([]data.ItemInfo{
		{ItemID: itemBass, Name: "Grilled bass", Class: data.ClassFood, Heal: 13, Value: 120},
		{ItemID: itemShark, Name: "Roast shark", Class: data.ClassFood, Heal: 20, Value: 420},
		{ItemID: itemCake, Name: "Honey cake", Class: data.ClassComboFood, Heal: 6, Value: 60},
		{ItemID: itemBrew, Name: "Vitality brew (4)", Class: data.ClassAltHeal, Heal: 16, Tier: 4, CompanionID: itemDraught, Value: 900},
		{ItemID: itemDraught, Name: "Clarity draught", Class: data.ClassRestore, Restore: 24, Value: 700},
		{ItemID: itemCrystal, Name: "Escape crystal", Class: data.ClassEscape, Value: 1500},
		{ItemID: itemAmulet, Name: "Guardian amulet", Class: data.ClassEscape, Value: 12000},
	})
	if err != nil {
		t.Fatalf("item table: %v", err)
	}

	weapons, err := data.NewWeaponTable([]data.WeaponInfo{
		{ItemID: weaponSword, Name: "Steel longsword", Style: data.StyleMelee, Range: 1},
		{ItemID: weaponMaul, Name: "Tempest maul", Style: data.StyleMelee, Range: 1,
			BurstName: "Tempest Crush", EnergyCost: 50, MaxStacks: 2},
	})
	if err != nil {
		t.Fatalf("weapon table: %v", err)
	}

	npcs, err := data.NewNpcTable([]data.NpcInfo{
		{NpcID: npcCrab, Name: "Coastal crab", Level: 13, ThreatLevel: 1, Style: data.StyleMelee, AttackDelay: 4, MaxHit: 1, Aggressive: true},
		{NpcID: npcScorpion, Name: "Sand scorpion", Level: 38, ThreatLevel: 3, Style: data.StyleMelee, AttackDelay: 4, MaxHit: 5, Aggressive: true},
		{NpcID: npcStalker, Name: "Reef stalker", Level: 64, ThreatLevel: 5, Style: data.StyleRanged, AttackDelay: 5, MaxHit: 9},
		{NpcID: npcWarden, Name: "Tide warden", Level: 210, ThreatLevel: 9, Style: data.StyleMagic, AttackDelay: 6, MaxHit: 28, Aggressive: true, Boss: true},
	})
	if err != nil {
		t.Fatalf("npc table: %v", err)
	}

	return &Deps{
		Cfg:     cfg,
		Items:   items,
		Weapons: weapons,
		Refdata: refdata.NewService(npcs, nil, zap.NewNop()),
		Rand:    util.NewRand(1),
		Log:     zap.NewNop(),
	}
}

// baseSnapshot is a healthy character mid-session: full supplies, escape
// crystal, amulet worn, nothing attacking yet.
func baseSnapshot(tick int64) *Snapshot {
	return &Snapshot{
		Tick:  tick,
		Ready: true,
		Player: Player{
			X: 50, Y: 50,
			HP: 99, MaxHP: 99,
			Resource: 70, MaxResource: 99,
			CanTeleport:         true,
			UnlockedProtections: []data.AttackStyle{data.StyleMelee, data.StyleRanged, data.StyleMagic},
		},
		Inventory: []InvItem{
			{Slot: 0, ItemID: itemShark, Count: 8},
			{Slot: 1, ItemID: itemBass, Count: 4},
			{Slot: 2, ItemID: itemDraught, Count: 3},
			{Slot: 3, ItemID: itemCrystal, Count: 1},
		},
		Equipment: Equipment{
			WeaponItemID: weaponSword,
			Worn:         []int32{weaponSword, itemAmulet},
		},
		Combat: CombatState{TicksUntilHit: -1},
	}
}

func crab(id int32, x, y int32) Entity {
	return Entity{
		ID: id, NpcID: npcCrab, Name: "Coastal crab",
		X: x, Y: y, Level: 13, HP: 30, MaxHP: 30,
		Adjacent: true, LineOfSight: true,
	}
}
