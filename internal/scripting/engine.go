// Package scripting hosts optional Lua hooks: Go gathers and executes, Lua
// decides. Scripts can override target selection and the advisory risk
// weights; a missing hook falls back to the built-in Go logic.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM. Single-goroutine access only (the
// tick loop). A nil *Engine is valid and disables all hooks.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every .lua file in the directory.
// A missing directory yields a hook-less engine, not an error.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) Close() {
	if e != nil {
		e.vm.Close()
	}
}

// TargetCandidate is the pre-packed per-entity data handed to Lua.
type TargetCandidate struct {
	ID          int32
	Name        string
	HP          int
	MaxHP       int
	Distance    int32
	ThreatLevel int
	AttackingMe bool
}

// SelectTarget calls the Lua select_target hook with the filtered candidate
// list. Returns (0, false) when the hook is absent, errors, or declines.
func (e *Engine) SelectTarget(candidates []TargetCandidate) (int32, bool) {
	if e == nil {
		return 0, false
	}
	fn := e.vm.GetGlobal("select_target")
	if fn == lua.LNil {
		return 0, false
	}

	list := e.vm.NewTable()
	for _, c := range candidates {
		t := e.vm.NewTable()
		t.RawSetString("id", lua.LNumber(c.ID))
		t.RawSetString("name", lua.LString(c.Name))
		t.RawSetString("hp", lua.LNumber(c.HP))
		t.RawSetString("max_hp", lua.LNumber(c.MaxHP))
		t.RawSetString("distance", lua.LNumber(c.Distance))
		t.RawSetString("threat", lua.LNumber(c.ThreatLevel))
		t.RawSetString("attacking_me", lua.LBool(c.AttackingMe))
		list.Append(t)
	}

	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, list); err != nil {
		e.log.Error("lua select_target error", zap.Error(err))
		return 0, false
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)

	n, ok := ret.(lua.LNumber)
	if !ok || int32(n) == 0 {
		return 0, false
	}
	return int32(n), true
}

// RiskWeights are the per-factor maxima of the advisory risk score.
type RiskWeights struct {
	Health     int
	Food       int
	Aggressors int
	DoT        int
	Area       int
}

// RiskWeightOverrides reads the optional Lua risk_weights global table.
// Missing keys keep the passed-in defaults.
func (e *Engine) RiskWeightOverrides(def RiskWeights) RiskWeights {
	if e == nil {
		return def
	}
	v := e.vm.GetGlobal("risk_weights")
	t, ok := v.(*lua.LTable)
	if !ok {
		return def
	}
	get := func(key string, fallback int) int {
		if n, ok := t.RawGetString(key).(lua.LNumber); ok {
			return int(n)
		}
		return fallback
	}
	return RiskWeights{
		Health:     get("health", def.Health),
		Food:       get("food", def.Food),
		Aggressors: get("aggressors", def.Aggressors),
		DoT:        get("dot", def.DoT),
		Area:       get("area", def.Area),
	}
}
