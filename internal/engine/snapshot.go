package engine

import "github.com/whalebot/combatcore/internal/data"

// Snapshot is the read-only world state for one tick, produced by the
// external ingestion layer. The engine never mutates it; it is copied per
// tick and discarded.
type Snapshot struct {
	Tick  int64
	Ready bool // false while the character is loading; every component returns no action

	Player    Player
	Inventory []InvItem
	Equipment Equipment
	Combat    CombatState
	Entities  []Entity
	Ground    []GroundItem

	// InDangerArea marks a zone flagged risky (wilderness, multi-way zones).
	InDangerArea bool
}

type Player struct {
	X, Y int32

	HP, MaxHP             int
	Resource, MaxResource int // protective-buff resource points

	Skulled     bool // permanent-death risk flag; must never be true in hardcore
	DoTDamage   int  // current damage-over-time per proc (poison/venom severity)
	CanTeleport bool // standard teleport capability available (not modeled further)

	// UnlockedProtections lists the protective capabilities the character
	// has access to.
	UnlockedProtections []data.AttackStyle
}

// HasProtection reports whether the protective capability for the style is
// unlocked.
func (p Player) HasProtection(style data.AttackStyle) bool {
	for _, s := range p.UnlockedProtections {
		if s == style {
			return true
		}
	}
	return false
}

// HealthFraction returns HP as a fraction of max, 0 when max is unknown.
func (p Player) HealthFraction() float64 {
	if p.MaxHP <= 0 {
		return 0
	}
	return float64(p.HP) / float64(p.MaxHP)
}

type InvItem struct {
	Slot   int
	ItemID int32
	Count  int
}

type Equipment struct {
	WeaponItemID int32
	Worn         []int32 // all equipped item IDs, weapon included
}

// IsWorn reports whether itemID is currently equipped.
func (e Equipment) IsWorn(itemID int32) bool {
	for _, id := range e.Worn {
		if id == itemID {
			return true
		}
	}
	return false
}

type CombatState struct {
	TargetID      int32 // 0 = no current target
	IncomingStyle data.AttackStyle
	TicksUntilHit int // ticks until the incoming attack lands; -1 = unknown
	BurstEnergy   int // 0-100
}

// Entity is a nearby actor. Reachability flags are supplied by the ingestion
// layer (the engine consumes pathfinding as a capability).
type Entity struct {
	ID    int32
	NpcID int32
	Name  string
	X, Y  int32

	Level     int
	HP, MaxHP int
	Dead      bool

	AttackingMe bool // currently attacking the controlled character
	Engaged     bool // in combat with some actor (us or another)

	Adjacent       bool // melee-reachable: adjacent, unobstructed tile
	LineOfSight    bool
	HasAltPosition bool // a computable alternate attacking position exists
}

type GroundItem struct {
	ID     int32
	ItemID int32
	Name   string
	X, Y   int32
	Count  int
	Value  int // stack value as reported by the ingestion layer
}

// Aggressors returns the living entities currently attacking the character.
func (s *Snapshot) Aggressors() []Entity {
	var out []Entity
	for _, e := range s.Entities {
		if !e.Dead && e.AttackingMe {
			out = append(out, e)
		}
	}
	return out
}

// CountItems sums inventory counts of all items matching the class in the
// given table.
func (s *Snapshot) CountItems(items *data.ItemTable, class data.ItemClass) int {
	total := 0
	for _, it := range s.Inventory {
		if items.IsClass(it.ItemID, class) {
			total += it.Count
		}
	}
	return total
}

// FindItem returns the first inventory item of the class, or nil.
func (s *Snapshot) FindItem(items *data.ItemTable, class data.ItemClass) *InvItem {
	for i := range s.Inventory {
		if items.IsClass(s.Inventory[i].ItemID, class) {
			return &s.Inventory[i]
		}
	}
	return nil
}

// FindItemID returns the inventory item with the given item ID, or nil.
func (s *Snapshot) FindItemID(itemID int32) *InvItem {
	for i := range s.Inventory {
		if s.Inventory[i].ItemID == itemID {
			return &s.Inventory[i]
		}
	}
	return nil
}

// Chebyshev32 is the tile distance metric: diagonal steps count as one.
func Chebyshev32(x1, y1, x2, y2 int32) int32 {
	dx := x1 - x2
	dy := y1 - y2
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dy > dx {
		return dy
	}
	return dx
}
