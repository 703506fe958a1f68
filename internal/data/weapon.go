package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AttackStyle is the combat triangle side a weapon (or NPC) attacks with.
type AttackStyle string

const (
	StyleMelee  AttackStyle = "melee"
	StyleRanged AttackStyle = "ranged"
	StyleMagic  AttackStyle = "magic"
	StyleNone   AttackStyle = ""
)

// WeaponInfo holds weapon template data: attack style, reach, and the burst
// ability the weapon unlocks (zero EnergyCost = no burst ability).
type WeaponInfo struct {
	ItemID     int32       `yaml:"item_id"`
	Name       string      `yaml:"name"`
	Style      AttackStyle `yaml:"style"`
	Range      int32       `yaml:"range"`
	BurstName  string      `yaml:"burst_name"`
	EnergyCost int         `yaml:"energy_cost"` // burst energy per use, 0-100
	MaxStacks  int         `yaml:"max_stacks"`  // cap on queued uses per energy pool
}

// HasBurst reports whether the weapon carries a usable burst ability.
func (w *WeaponInfo) HasBurst() bool { return w != nil && w.EnergyCost > 0 }

type WeaponTable struct {
	byID map[int32]*WeaponInfo
}

type weaponFile struct {
	Weapons []WeaponInfo `yaml:"weapons"`
}

// LoadWeaponTable reads the weapon template list from YAML.
func LoadWeaponTable(path string) (*WeaponTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weapon list %s: %w", path, err)
	}
	var f weaponFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse weapon list %s: %w", path, err)
	}
	t, err := NewWeaponTable(f.Weapons)
	if err != nil {
		return nil, fmt.Errorf("weapon list %s: %w", path, err)
	}
	return t, nil
}

// NewWeaponTable builds a table from in-memory entries.
func NewWeaponTable(weapons []WeaponInfo) (*WeaponTable, error) {
	t := &WeaponTable{byID: make(map[int32]*WeaponInfo, len(weapons))}
	for i := range weapons {
		w := &weapons[i]
		if w.ItemID == 0 {
			return nil, fmt.Errorf("weapon list: entry %d missing item_id", i)
		}
		if w.MaxStacks < 1 {
			w.MaxStacks = 1
		}
		t.byID[w.ItemID] = w
	}
	return t, nil
}

func (t *WeaponTable) Get(itemID int32) *WeaponInfo {
	return t.byID[itemID]
}

func (t *WeaponTable) Count() int { return len(t.byID) }
