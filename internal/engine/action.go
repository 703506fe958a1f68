package engine

// ActionKind enumerates everything the engine can ask the execution layer to
// do. At most one action is emitted per tick.
type ActionKind int

const (
	ActionEat ActionKind = iota
	ActionRestore
	ActionBuffSwitch
	ActionBurst
	ActionRetarget
	ActionLoot
	ActionGearSwitch
	ActionFlee
	ActionDrinkPotion
)

func (k ActionKind) String() string {
	switch k {
	case ActionEat:
		return "eat"
	case ActionRestore:
		return "restore"
	case ActionBuffSwitch:
		return "buff_switch"
	case ActionBurst:
		return "burst"
	case ActionRetarget:
		return "retarget"
	case ActionLoot:
		return "loot"
	case ActionGearSwitch:
		return "gear_switch"
	case ActionFlee:
		return "flee"
	case ActionDrinkPotion:
		return "drink_potion"
	}
	return "unknown"
}

// Priority tiers. Lower value = more urgent.
type Priority int

const (
	PriorityUrgent Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityUrgent:
		return "urgent"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	}
	return "unknown"
}

// EscapeMethod is how a flee is carried out, in fixed preference order.
type EscapeMethod int

const (
	EscapeTeleportItem  EscapeMethod = iota // one-click teleport item held or worn
	EscapeTeleportSpell                     // standard teleport capability
	EscapeRunAndLogout                      // guaranteed fallback
)

func (m EscapeMethod) String() string {
	switch m {
	case EscapeTeleportItem:
		return "teleport_item"
	case EscapeTeleportSpell:
		return "teleport_spell"
	case EscapeRunAndLogout:
		return "run_and_logout"
	}
	return "unknown"
}

// FleeReason codes surfaced in flee actions and telemetry.
type FleeReason string

const (
	FleePileUp          FleeReason = "MULTI_COMBAT_PILEUP"
	FleeLowHealthNoFood FleeReason = "LOW_HEALTH_NO_FOOD"
	FleeCriticalDoT     FleeReason = "CRITICAL_DOT"
	FleeSkulled         FleeReason = "SKULLED"
	FleeMissingItem     FleeReason = "MISSING_REQUIRED_ITEM"
	FleeNoConsumables   FleeReason = "NO_CONSUMABLES"
)

// BuffID identifies a toggleable buff the engine manages.
type BuffID int

const (
	BuffProtectMelee BuffID = iota
	BuffProtectRanged
	BuffProtectMagic
	BuffOffense
)

func (b BuffID) String() string {
	switch b {
	case BuffProtectMelee:
		return "protect_melee"
	case BuffProtectRanged:
		return "protect_ranged"
	case BuffProtectMagic:
		return "protect_magic"
	case BuffOffense:
		return "offense"
	}
	return "unknown"
}

// Action is a tagged union: Kind selects exactly one payload pointer, the
// rest stay nil. Built through the constructors below so invalid payload
// combinations cannot be expressed.
type Action struct {
	Kind     ActionKind
	Priority Priority

	Eat      *EatPayload
	Restore  *RestorePayload
	Buff     *BuffPayload
	Burst    *BurstPayload
	Retarget *RetargetPayload
	Loot     *LootPayload
	Gear     *GearPayload
	Flee     *FleePayload
	Potion   *PotionPayload
}

type EatPayload struct {
	Slot   int
	ItemID int32
	// Combo eat: a fast-follow consumable to use one tick later. -1 = none.
	ComboSlot   int
	ComboItemID int32
}

type RestorePayload struct {
	Slot   int
	ItemID int32
}

type BuffPayload struct {
	Buff     BuffID
	Activate bool // false = deactivate
}

type BurstPayload struct {
	AbilityName  string
	WeaponItemID int32
	Stacks       int
}

type RetargetPayload struct {
	EntityID int32
	Name     string
	Strategy string
}

type LootPayload struct {
	GroundID int32
	ItemID   int32
	Value    int
}

type GearPayload struct {
	Slot         int   // inventory slot holding the weapon to equip
	WeaponItemID int32 // the weapon being equipped
}

type FleePayload struct {
	Method   EscapeMethod
	Reason   FleeReason
	ItemSlot int // inventory slot of the escape item, -1 when not item-based
}

type PotionPayload struct {
	Slot   int
	ItemID int32
	Buff   BuffID
}

func NewEatAction(prio Priority, slot int, itemID int32, comboSlot int, comboItemID int32) *Action {
	return &Action{Kind: ActionEat, Priority: prio, Eat: &EatPayload{
		Slot: slot, ItemID: itemID, ComboSlot: comboSlot, ComboItemID: comboItemID,
	}}
}

func NewRestoreAction(prio Priority, slot int, itemID int32) *Action {
	return &Action{Kind: ActionRestore, Priority: prio, Restore: &RestorePayload{Slot: slot, ItemID: itemID}}
}

func NewBuffAction(prio Priority, buff BuffID, activate bool) *Action {
	return &Action{Kind: ActionBuffSwitch, Priority: prio, Buff: &BuffPayload{Buff: buff, Activate: activate}}
}

func NewBurstAction(prio Priority, ability string, weaponID int32, stacks int) *Action {
	return &Action{Kind: ActionBurst, Priority: prio, Burst: &BurstPayload{
		AbilityName: ability, WeaponItemID: weaponID, Stacks: stacks,
	}}
}

func NewRetargetAction(prio Priority, entityID int32, name, strategy string) *Action {
	return &Action{Kind: ActionRetarget, Priority: prio, Retarget: &RetargetPayload{
		EntityID: entityID, Name: name, Strategy: strategy,
	}}
}

func NewLootAction(prio Priority, groundID, itemID int32, value int) *Action {
	return &Action{Kind: ActionLoot, Priority: prio, Loot: &LootPayload{
		GroundID: groundID, ItemID: itemID, Value: value,
	}}
}

func NewGearSwitchAction(prio Priority, slot int, weaponID int32) *Action {
	return &Action{Kind: ActionGearSwitch, Priority: prio, Gear: &GearPayload{Slot: slot, WeaponItemID: weaponID}}
}

func NewFleeAction(method EscapeMethod, reason FleeReason, itemSlot int) *Action {
	// Flee is always Urgent: it preempts every other action this tick.
	return &Action{Kind: ActionFlee, Priority: PriorityUrgent, Flee: &FleePayload{
		Method: method, Reason: reason, ItemSlot: itemSlot,
	}}
}

func NewDrinkPotionAction(prio Priority, slot int, itemID int32, buff BuffID) *Action {
	return &Action{Kind: ActionDrinkPotion, Priority: prio, Potion: &PotionPayload{
		Slot: slot, ItemID: itemID, Buff: buff,
	}}
}
