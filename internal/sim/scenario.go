package sim

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted encounter: a starting world plus timed events. The
// runner replays it deterministically against the decision engine.
type Scenario struct {
	Name   string  `yaml:"name"`
	Ticks  int64   `yaml:"ticks"`
	Start  Start   `yaml:"start"`
	Events []Event `yaml:"events"`
}

type Start struct {
	HP          int `yaml:"hp"`
	MaxHP       int `yaml:"max_hp"`
	Resource    int `yaml:"resource"`
	MaxResource int `yaml:"max_resource"`
	BurstEnergy int `yaml:"burst_energy"`

	X int32 `yaml:"x"`
	Y int32 `yaml:"y"`

	CanTeleport bool     `yaml:"can_teleport"`
	Protections []string `yaml:"protections"` // melee / ranged / magic

	Weapon int32   `yaml:"weapon"`
	Worn   []int32 `yaml:"worn"`

	Inventory []Slot  `yaml:"inventory"`
	Entities  []Actor `yaml:"entities"`
}

type Slot struct {
	Slot   int   `yaml:"slot"`
	ItemID int32 `yaml:"item_id"`
	Count  int   `yaml:"count"`
}

type Actor struct {
	ID    int32  `yaml:"id"`
	NpcID int32  `yaml:"npc_id"`
	Name  string `yaml:"name"`
	X     int32  `yaml:"x"`
	Y     int32  `yaml:"y"`
	Level int    `yaml:"level"`
	HP    int    `yaml:"hp"`
	MaxHP int    `yaml:"max_hp"`

	AttackingMe bool `yaml:"attacking_me"`
	Engaged     bool `yaml:"engaged"`
	Adjacent    bool `yaml:"adjacent"`
	LineOfSight bool `yaml:"line_of_sight"`
}

// Event mutates the simulated world at a given tick. Only the set fields
// apply.
type Event struct {
	Tick int64 `yaml:"tick"`

	Damage        int     `yaml:"damage,omitempty"` // applied to the player
	SetEnergy     *int    `yaml:"set_energy,omitempty"`
	SetDoT        *int    `yaml:"set_dot,omitempty"`
	SetSkull      *bool   `yaml:"set_skull,omitempty"`
	IncomingStyle *string `yaml:"incoming_style,omitempty"`
	TicksUntilHit *int    `yaml:"ticks_until_hit,omitempty"`

	Spawn    *Actor `yaml:"spawn,omitempty"`
	Kill     int32  `yaml:"kill,omitempty"`      // entity ID to mark dead
	AttackMe int32  `yaml:"attack_me,omitempty"` // entity ID turns hostile
}

type scenarioFile struct {
	Scenario Scenario `yaml:"scenario"`
}

// LoadScenario reads one scenario from YAML.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	var f scenarioFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	sc := f.Scenario
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario %s: missing name", path)
	}
	if sc.Ticks <= 0 {
		return nil, fmt.Errorf("scenario %s: ticks must be positive", path)
	}
	sort.SliceStable(sc.Events, func(i, j int) bool { return sc.Events[i].Tick < sc.Events[j].Tick })
	return &sc, nil
}

// LoadScenarioDir loads every *.yaml scenario in the directory, sorted by
// file name. A missing directory yields an empty list.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read scenario dir %s: %w", dir, err)
	}
	var out []*Scenario
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		sc, err := LoadScenario(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}
