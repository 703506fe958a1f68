package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ItemClass categorizes consumables and escape items for engine logic.
type ItemClass string

const (
	ClassFood       ItemClass = "food"        // primary healing food
	ClassComboFood  ItemClass = "combo_food"  // fast-follow consumable, usable one tick after a primary
	ClassAltHeal    ItemClass = "alt_heal"    // tiered alternate healing (heal-over-time doses)
	ClassRestore    ItemClass = "restore"     // resource-point restorative
	ClassStatPotion ItemClass = "stat_potion" // offensive stat boost
	ClassEscape     ItemClass = "escape"      // one-click teleport out
)

// ItemInfo holds consumable template data needed for decision logic.
// Flat struct; fields that don't apply to a class are zero-valued.
type ItemInfo struct {
	ItemID      int32     `yaml:"item_id"`
	Name        string    `yaml:"name"`
	Class       ItemClass `yaml:"class"`
	Heal        int       `yaml:"heal"`         // healing per use
	Tier        int       `yaml:"tier"`         // alt_heal dose tier, higher = stronger
	CompanionID int32     `yaml:"companion_id"` // alt_heal: restorative that must accompany it
	Restore     int       `yaml:"restore"`      // resource points restored
	Value       int       `yaml:"value"`        // market value, loot filtering
}

// ItemTable is an immutable lookup of consumable templates, loaded once at
// startup.
type ItemTable struct {
	byID   map[int32]*ItemInfo
	byName map[string]*ItemInfo
}

type itemFile struct {
	Items []ItemInfo `yaml:"items"`
}

// LoadItemTable reads the consumable template list from YAML.
func LoadItemTable(path string) (*ItemTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item list %s: %w", path, err)
	}
	var f itemFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse item list %s: %w", path, err)
	}
	t, err := NewItemTable(f.Items)
	if err != nil {
		return nil, fmt.Errorf("item list %s: %w", path, err)
	}
	return t, nil
}

// NewItemTable builds a table from in-memory entries.
func NewItemTable(items []ItemInfo) (*ItemTable, error) {
	f := itemFile{Items: items}
	t := &ItemTable{
		byID:   make(map[int32]*ItemInfo, len(f.Items)),
		byName: make(map[string]*ItemInfo, len(f.Items)),
	}
	for i := range f.Items {
		it := &f.Items[i]
		if it.ItemID == 0 {
			return nil, fmt.Errorf("item list: entry %d missing item_id", i)
		}
		t.byID[it.ItemID] = it
		t.byName[it.Name] = it
	}
	return t, nil
}

func (t *ItemTable) Get(itemID int32) *ItemInfo {
	return t.byID[itemID]
}

func (t *ItemTable) GetByName(name string) *ItemInfo {
	return t.byName[name]
}

func (t *ItemTable) Count() int { return len(t.byID) }

// IsClass reports whether itemID is a known item of the given class.
func (t *ItemTable) IsClass(itemID int32, class ItemClass) bool {
	it := t.byID[itemID]
	return it != nil && it.Class == class
}
