package engine

import (
	"math/rand"

	"github.com/whalebot/combatcore/internal/config"
	"github.com/whalebot/combatcore/internal/core/event"
	"github.com/whalebot/combatcore/internal/data"
	"github.com/whalebot/combatcore/internal/refdata"
	"github.com/whalebot/combatcore/internal/scripting"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into every engine component. No
// component keeps hidden global state; everything flows through here and the
// per-session State.
type Deps struct {
	Cfg     *config.Config
	Items   *data.ItemTable
	Weapons *data.WeaponTable
	Refdata *refdata.Service
	Scripts *scripting.Engine // optional, nil = no hooks
	Events  *event.Bus        // optional, nil = no telemetry
	Rand    *rand.Rand        // seedable humanization source
	Log     *zap.Logger
}

// TickInput is what each evaluator sees: the immutable snapshot plus the
// engine-owned mutable state.
type TickInput struct {
	Snap *Snapshot
	St   *State
}
