package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NpcInfo holds NPC combat reference data used for target filtering, buff
// scheduling and risk scoring.
type NpcInfo struct {
	NpcID       int32       `yaml:"npc_id"`
	Name        string      `yaml:"name"`
	Level       int         `yaml:"level"`
	ThreatLevel int         `yaml:"threat_level"` // 0-10, engine filters above config max
	Style       AttackStyle `yaml:"style"`
	AttackDelay int         `yaml:"attack_delay"` // ticks between attacks
	MaxHit      int         `yaml:"max_hit"`
	Aggressive  bool        `yaml:"aggressive"`
	Boss        bool        `yaml:"boss"`
}

type NpcTable struct {
	byID map[int32]*NpcInfo
}

type npcFile struct {
	Npcs []NpcInfo `yaml:"npcs"`
}

// LoadNpcTable reads the NPC combat reference list from YAML.
func LoadNpcTable(path string) (*NpcTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read npc list %s: %w", path, err)
	}
	var f npcFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse npc list %s: %w", path, err)
	}
	t, err := NewNpcTable(f.Npcs)
	if err != nil {
		return nil, fmt.Errorf("npc list %s: %w", path, err)
	}
	return t, nil
}

// NewNpcTable builds a table from in-memory entries.
func NewNpcTable(npcs []NpcInfo) (*NpcTable, error) {
	t := &NpcTable{byID: make(map[int32]*NpcInfo, len(npcs))}
	for i := range npcs {
		n := &npcs[i]
		if n.NpcID == 0 {
			return nil, fmt.Errorf("npc list: entry %d missing npc_id", i)
		}
		t.byID[n.NpcID] = n
	}
	return t, nil
}

func (t *NpcTable) Get(npcID int32) *NpcInfo {
	return t.byID[npcID]
}

func (t *NpcTable) Count() int { return len(t.byID) }
