// Package refdata serves NPC combat profiles to the engine without ever
// blocking a tick: local table first, then cache, then a heuristic guess.
// Cache misses trigger a best-effort background refill against the remote
// reference service, guarded by a failure-count circuit breaker.
package refdata

import (
	"context"
	"sync"
	"time"

	"github.com/whalebot/combatcore/internal/data"
	"go.uber.org/zap"
)

// CombatProfile is what the engine needs to know about an NPC kind.
type CombatProfile struct {
	ThreatLevel int
	Style       data.AttackStyle
	AttackDelay int
	MaxHit      int
	Aggressive  bool
	Boss        bool

	// Heuristic marks a profile synthesized from observed stats because no
	// authoritative data was available.
	Heuristic bool
}

// Fetcher performs the remote lookup. Called only from the background refill
// goroutine, never from the tick path.
type Fetcher func(ctx context.Context, npcID int32) (*data.NpcInfo, error)

const (
	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
	fetchTimeout     = 5 * time.Second
)

type Service struct {
	local *data.NpcTable
	fetch Fetcher
	log   *zap.Logger

	mu        sync.RWMutex
	cache     map[int32]CombatProfile
	inflight  map[int32]bool
	failures  int
	openUntil time.Time
}

// NewService builds a reference-data service. fetch may be nil, in which case
// misses stay heuristic forever.
func NewService(local *data.NpcTable, fetch Fetcher, log *zap.Logger) *Service {
	return &Service{
		local:    local,
		fetch:    fetch,
		log:      log,
		cache:    make(map[int32]CombatProfile, 64),
		inflight: make(map[int32]bool, 8),
	}
}

// Lookup returns a combat profile synchronously. observedLevel feeds the
// heuristic fallback when nothing better is known.
func (s *Service) Lookup(npcID int32, observedLevel int) CombatProfile {
	if n := s.local.Get(npcID); n != nil {
		return profileFromInfo(n)
	}

	s.mu.RLock()
	p, ok := s.cache[npcID]
	s.mu.RUnlock()
	if ok {
		return p
	}

	s.maybeRefill(npcID)
	return heuristicProfile(observedLevel)
}

// maybeRefill starts a background fetch for npcID unless one is already
// running or the breaker is open.
func (s *Service) maybeRefill(npcID int32) {
	if s.fetch == nil {
		return
	}
	s.mu.Lock()
	if s.inflight[npcID] || time.Now().Before(s.openUntil) {
		s.mu.Unlock()
		return
	}
	s.inflight[npcID] = true
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		info, err := s.fetch(ctx, npcID)

		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.inflight, npcID)
		if err != nil {
			s.failures++
			if s.failures >= breakerThreshold {
				s.openUntil = time.Now().Add(breakerCooldown)
				s.failures = 0
				s.log.Warn("refdata breaker opened",
					zap.Int32("npc_id", npcID), zap.Duration("cooldown", breakerCooldown))
			} else {
				s.log.Debug("refdata fetch failed",
					zap.Int32("npc_id", npcID), zap.Error(err))
			}
			return
		}
		s.failures = 0
		s.cache[npcID] = profileFromInfo(info)
	}()
}

func profileFromInfo(n *data.NpcInfo) CombatProfile {
	return CombatProfile{
		ThreatLevel: n.ThreatLevel,
		Style:       n.Style,
		AttackDelay: n.AttackDelay,
		MaxHit:      n.MaxHit,
		Aggressive:  n.Aggressive,
		Boss:        n.Boss,
	}
}

// heuristicProfile guesses a profile from the observed level: threat scales
// roughly one point per ten levels and unknown NPCs are assumed melee.
func heuristicProfile(level int) CombatProfile {
	threat := level / 10
	if threat < 1 {
		threat = 1
	}
	if threat > 10 {
		threat = 10
	}
	return CombatProfile{
		ThreatLevel: threat,
		Style:       data.StyleMelee,
		AttackDelay: 4,
		MaxHit:      level / 8,
		Heuristic:   true,
	}
}
