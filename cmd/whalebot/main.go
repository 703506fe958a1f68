package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/whalebot/combatcore/internal/config"
	"github.com/whalebot/combatcore/internal/core/event"
	"github.com/whalebot/combatcore/internal/data"
	"github.com/whalebot/combatcore/internal/engine"
	"github.com/whalebot/combatcore/internal/persist"
	"github.com/whalebot/combatcore/internal/refdata"
	"github.com/whalebot/combatcore/internal/scripting"
	"github.com/whalebot/combatcore/internal/sim"
	"github.com/whalebot/combatcore/internal/util"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(profile string, seed int64) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m           whalebot  v0.1.0                \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      tick-driven combat decision core     \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mprofile:\033[0m %s \033[90m(seed: %d)\033[0m\n\n", profile, seed)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main harness logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/whalebot.toml"
	if p := os.Getenv("WHALEBOT_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Profile, cfg.Sim.Seed)

	// 3. Optional telemetry store
	var telemetry *persist.TelemetryRepo
	var sessionID uuid.UUID
	if cfg.Database.Enabled {
		printSection("database")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")

		telemetry = persist.NewTelemetryRepo(db)
		sessionID, err = telemetry.CreateSession(ctx, cfg.Profile, cfg.Sim.Seed)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		printOK(fmt.Sprintf("telemetry session %s", sessionID))
		fmt.Println()
	}

	// 4. Load reference data
	printSection("data loading")

	itemTable, err := data.LoadItemTable(filepath.Join(cfg.Sim.DataDir, "item_list.yaml"))
	if err != nil {
		return fmt.Errorf("load item table: %w", err)
	}
	printStat("item templates", itemTable.Count())

	weaponTable, err := data.LoadWeaponTable(filepath.Join(cfg.Sim.DataDir, "weapon_list.yaml"))
	if err != nil {
		return fmt.Errorf("load weapon table: %w", err)
	}
	printStat("weapon templates", weaponTable.Count())

	npcTable, err := data.LoadNpcTable(filepath.Join(cfg.Sim.DataDir, "npc_list.yaml"))
	if err != nil {
		return fmt.Errorf("load npc table: %w", err)
	}
	printStat("npc templates", npcTable.Count())

	scenarios, err := sim.LoadScenarioDir(cfg.Sim.ScenarioDir)
	if err != nil {
		return fmt.Errorf("load scenarios: %w", err)
	}
	printStat("scenarios", len(scenarios))

	// 5. Lua hooks
	luaEngine, err := scripting.NewEngine(cfg.Sim.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("lua scripts loaded")
	fmt.Println()

	// 6. Wire the engine
	bus := event.NewBus()
	deps := &engine.Deps{
		Cfg:     cfg,
		Items:   itemTable,
		Weapons: weaponTable,
		Refdata: refdata.NewService(npcTable, nil, log),
		Scripts: luaEngine,
		Events:  bus,
		Rand:    util.NewRand(cfg.Sim.Seed),
		Log:     log,
	}
	runner := sim.NewRunner(deps)

	// Telemetry buffers, filled from the bus and flushed between scenarios.
	var actionBuf []persist.ActionRow
	var riskBuf []persist.RiskRow
	var fleeBuf []persist.FleeRow
	event.Subscribe(bus, func(ev event.ActionDispatched) {
		actionBuf = append(actionBuf, persist.ActionRow{
			Tick: ev.Tick, Kind: ev.Kind, Priority: ev.Priority, Phase: ev.Phase,
		})
	})
	event.Subscribe(bus, func(ev event.RiskSampled) {
		riskBuf = append(riskBuf, persist.RiskRow{Tick: ev.Tick, Score: ev.Score})
	})
	event.Subscribe(bus, func(ev event.FleeTriggered) {
		fleeBuf = append(fleeBuf, persist.FleeRow{Tick: ev.Tick, Reason: ev.Reason, Method: ev.Method})
	})

	flush := func(flickHits, flickMisses int) {
		if telemetry == nil {
			actionBuf, riskBuf, fleeBuf = actionBuf[:0], riskBuf[:0], fleeBuf[:0]
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := telemetry.Flush(ctx, sessionID, actionBuf, riskBuf, fleeBuf); err != nil {
			log.Warn("telemetry flush failed", zap.Error(err))
		}
		if err := telemetry.UpdateFlickStats(ctx, sessionID, flickHits, flickMisses); err != nil {
			log.Warn("flick stats update failed", zap.Error(err))
		}
		actionBuf, riskBuf, fleeBuf = actionBuf[:0], riskBuf[:0], fleeBuf[:0]
	}

	// 7. Replay loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Sim.TickRate)
	defer ticker.Stop()

	printSection("harness ready")
	printReady(fmt.Sprintf("replay loop started (tick: %s)", cfg.Sim.TickRate))
	fmt.Println()

	var (
		scIdx      int
		session    *sim.Session
		totalTicks int64
		flickHits  int
		flickMiss  int
	)

	for {
		select {
		case <-ticker.C:
			if session == nil {
				if scIdx >= len(scenarios) {
					endSession(telemetry, sessionID, totalTicks, log)
					log.Info("all scenarios replayed", zap.Int("count", len(scenarios)))
					return nil
				}
				session = runner.NewSession(scenarios[scIdx])
				log.Info("scenario started", zap.String("name", scenarios[scIdx].Name))
			}

			bus.SwapBuffers()
			bus.DispatchAll()
			done := session.Step()
			totalTicks++

			if done {
				// Drain the final tick's events before flushing.
				bus.SwapBuffers()
				bus.DispatchAll()
				st := session.State()
				flickHits += st.Buffs.FlickHits
				flickMiss += st.Buffs.FlickMisses
				printReport(session.Report())
				flush(flickHits, flickMiss)
				session = nil
				scIdx++
			}

		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			bus.SwapBuffers()
			bus.DispatchAll()
			flush(flickHits, flickMiss)
			endSession(telemetry, sessionID, totalTicks, log)
			log.Info("harness stopped")
			return nil
		}
	}
}

func endSession(telemetry *persist.TelemetryRepo, id uuid.UUID, ticks int64, log *zap.Logger) {
	if telemetry == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := telemetry.EndSession(ctx, id, ticks); err != nil {
		log.Warn("end session failed", zap.Error(err))
	}
}

func printReport(rep *sim.Report) {
	printSection(rep.Scenario)
	actions := 0
	for _, rec := range rep.Records {
		if rec.Action != nil {
			actions++
		}
	}
	printStat("ticks replayed", len(rep.Records))
	printStat("actions emitted", actions)
	printStat("final hp", rep.FinalHP)
	if rep.Fled {
		printReady(fmt.Sprintf("fled: %s", rep.FleeReason))
	}
	fmt.Println()
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
