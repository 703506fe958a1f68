package sim

import (
	"github.com/whalebot/combatcore/internal/data"
	"github.com/whalebot/combatcore/internal/engine"
	"go.uber.org/zap"
)

// TickRecord is one tick's outcome in a replay.
type TickRecord struct {
	Tick   int64
	Action *engine.Action
	Risk   int
}

// Report summarizes one scenario replay.
type Report struct {
	Scenario string
	Ticks    int64
	Records  []TickRecord

	Fled       bool
	FleeReason engine.FleeReason
	FinalHP    int
}

// Runner replays scenarios against the decision engine with a simplified
// world model: enough feedback (healing, energy drain, target assignment)
// for multi-tick sequences to unfold, nothing more.
type Runner struct {
	deps *engine.Deps
	log  *zap.Logger
}

func NewRunner(deps *engine.Deps) *Runner {
	return &Runner{deps: deps, log: deps.Log}
}

// Session is an in-progress replay, advanced one tick at a time so a host
// loop can pace it and interleave event dispatch.
type Session struct {
	runner *Runner
	sc     *Scenario
	orch   *engine.Orchestrator
	world  *world
	report *Report

	tick int64
	next int
	done bool
}

// NewSession starts a replay with fresh engine state.
func (r *Runner) NewSession(sc *Scenario) *Session {
	return &Session{
		runner: r,
		sc:     sc,
		orch:   engine.NewOrchestrator(r.deps),
		world:  newWorld(sc),
		report: &Report{Scenario: sc.Name, Ticks: sc.Ticks},
	}
}

// Step advances the replay one tick. Returns true when the scenario is over.
func (s *Session) Step() bool {
	if s.done {
		return true
	}
	s.tick++
	if s.tick > s.sc.Ticks {
		s.finish()
		return true
	}

	for s.next < len(s.sc.Events) && s.sc.Events[s.next].Tick <= s.tick {
		s.world.apply(&s.sc.Events[s.next])
		s.next++
	}

	snap := s.world.snapshot(s.tick)
	act := s.orch.Tick(snap)
	s.report.Records = append(s.report.Records, TickRecord{
		Tick: s.tick, Action: act, Risk: s.orch.State().LastRisk,
	})

	if act != nil {
		s.runner.applyAction(s.world, act)
		if act.Kind == engine.ActionFlee {
			s.report.Fled = true
			s.report.FleeReason = act.Flee.Reason
			s.finish()
			return true
		}
	}
	if s.world.player.DoTDamage > 0 {
		s.world.player.HP -= s.world.player.DoTDamage
		if s.world.player.HP < 0 {
			s.world.player.HP = 0
		}
	}
	return false
}

// State exposes the engine state of the running session.
func (s *Session) State() *engine.State { return s.orch.State() }

// Report returns the replay report, complete once Step has returned true.
func (s *Session) Report() *Report { return s.report }

func (s *Session) finish() {
	if s.done {
		return
	}
	s.done = true
	s.report.FinalHP = s.world.player.HP
	s.runner.log.Info("scenario replay finished",
		zap.String("scenario", s.sc.Name),
		zap.Int("actions", countActions(s.report)),
		zap.Bool("fled", s.report.Fled))
}

// Run replays the whole scenario in one call and returns the report.
func (r *Runner) Run(sc *Scenario) *Report {
	s := r.NewSession(sc)
	for !s.Step() {
	}
	return s.Report()
}

func countActions(rep *Report) int {
	n := 0
	for _, rec := range rep.Records {
		if rec.Action != nil {
			n++
		}
	}
	return n
}

// world is the mutable replay state.
type world struct {
	player    engine.Player
	inventory []engine.InvItem
	equipment engine.Equipment
	combat    engine.CombatState
	entities  []engine.Entity
}

func newWorld(sc *Scenario) *world {
	w := &world{
		player: engine.Player{
			X: sc.Start.X, Y: sc.Start.Y,
			HP: sc.Start.HP, MaxHP: sc.Start.MaxHP,
			Resource: sc.Start.Resource, MaxResource: sc.Start.MaxResource,
			CanTeleport: sc.Start.CanTeleport,
		},
		equipment: engine.Equipment{
			WeaponItemID: sc.Start.Weapon,
			Worn:         append([]int32{}, sc.Start.Worn...),
		},
		combat: engine.CombatState{TicksUntilHit: -1, BurstEnergy: sc.Start.BurstEnergy},
	}
	for _, p := range sc.Start.Protections {
		w.player.UnlockedProtections = append(w.player.UnlockedProtections, data.AttackStyle(p))
	}
	for _, s := range sc.Start.Inventory {
		w.inventory = append(w.inventory, engine.InvItem{Slot: s.Slot, ItemID: s.ItemID, Count: s.Count})
	}
	for _, a := range sc.Start.Entities {
		w.entities = append(w.entities, toEntity(a))
	}
	return w
}

func toEntity(a Actor) engine.Entity {
	return engine.Entity{
		ID: a.ID, NpcID: a.NpcID, Name: a.Name,
		X: a.X, Y: a.Y, Level: a.Level, HP: a.HP, MaxHP: a.MaxHP,
		AttackingMe: a.AttackingMe, Engaged: a.Engaged || a.AttackingMe,
		Adjacent: a.Adjacent, LineOfSight: a.LineOfSight,
	}
}

func (w *world) apply(ev *Event) {
	if ev.Damage > 0 {
		w.player.HP -= ev.Damage
		if w.player.HP < 0 {
			w.player.HP = 0
		}
	}
	if ev.SetEnergy != nil {
		w.combat.BurstEnergy = *ev.SetEnergy
	}
	if ev.SetDoT != nil {
		w.player.DoTDamage = *ev.SetDoT
	}
	if ev.SetSkull != nil {
		w.player.Skulled = *ev.SetSkull
	}
	if ev.IncomingStyle != nil {
		w.combat.IncomingStyle = data.AttackStyle(*ev.IncomingStyle)
	}
	if ev.TicksUntilHit != nil {
		w.combat.TicksUntilHit = *ev.TicksUntilHit
	}
	if ev.Spawn != nil {
		w.entities = append(w.entities, toEntity(*ev.Spawn))
	}
	if ev.Kill != 0 {
		for i := range w.entities {
			if w.entities[i].ID == ev.Kill {
				w.entities[i].Dead = true
				w.entities[i].AttackingMe = false
				if w.combat.TargetID == ev.Kill {
					w.combat.TargetID = 0
				}
			}
		}
	}
	if ev.AttackMe != 0 {
		for i := range w.entities {
			if w.entities[i].ID == ev.AttackMe {
				w.entities[i].AttackingMe = true
				w.entities[i].Engaged = true
			}
		}
	}
}

func (w *world) snapshot(tick int64) *engine.Snapshot {
	snap := &engine.Snapshot{
		Tick:      tick,
		Ready:     true,
		Player:    w.player,
		Equipment: w.equipment,
		Combat:    w.combat,
	}
	snap.Inventory = append(snap.Inventory, w.inventory...)
	snap.Entities = append(snap.Entities, w.entities...)
	return snap
}

// applyAction feeds the engine's decision back into the world model.
func (r *Runner) applyAction(w *world, act *engine.Action) {
	switch act.Kind {
	case engine.ActionEat:
		if info := r.deps.Items.Get(act.Eat.ItemID); info != nil {
			w.player.HP += info.Heal
			if w.player.HP > w.player.MaxHP {
				w.player.HP = w.player.MaxHP
			}
		}
		w.consume(act.Eat.Slot)
		if act.Eat.ComboSlot >= 0 {
			w.consume(act.Eat.ComboSlot)
		}

	case engine.ActionRestore:
		if info := r.deps.Items.Get(act.Restore.ItemID); info != nil {
			w.player.Resource += info.Restore
			if w.player.Resource > w.player.MaxResource {
				w.player.Resource = w.player.MaxResource
			}
		}
		w.consume(act.Restore.Slot)

	case engine.ActionDrinkPotion:
		if info := r.deps.Items.Get(act.Potion.ItemID); info != nil {
			w.player.HP += info.Heal
			if w.player.HP > w.player.MaxHP {
				w.player.HP = w.player.MaxHP
			}
		}
		w.consume(act.Potion.Slot)

	case engine.ActionBurst:
		if weapon := r.deps.Weapons.Get(act.Burst.WeaponItemID); weapon != nil {
			w.combat.BurstEnergy -= weapon.EnergyCost * act.Burst.Stacks
			if w.combat.BurstEnergy < 0 {
				w.combat.BurstEnergy = 0
			}
		}

	case engine.ActionGearSwitch:
		prev := w.equipment.WeaponItemID
		w.equipment.WeaponItemID = act.Gear.WeaponItemID
		w.consume(act.Gear.Slot)
		if prev != 0 {
			w.inventory = append(w.inventory, engine.InvItem{Slot: act.Gear.Slot, ItemID: prev, Count: 1})
		}

	case engine.ActionRetarget:
		w.combat.TargetID = act.Retarget.EntityID
		for i := range w.entities {
			if w.entities[i].ID == act.Retarget.EntityID {
				w.entities[i].Engaged = true
			}
		}
	}
}

// consume removes one count from the slot, dropping the slot at zero.
func (w *world) consume(slot int) {
	for i := range w.inventory {
		if w.inventory[i].Slot != slot {
			continue
		}
		w.inventory[i].Count--
		if w.inventory[i].Count <= 0 {
			w.inventory = append(w.inventory[:i], w.inventory[i+1:]...)
		}
		return
	}
}
