// Package tournament runs single-elimination ladders against generated
// opponents and keeps a bounded history of finished runs.
package tournament

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/DoyleJ11/card-battle-backend/internal/engine"
	"github.com/DoyleJ11/card-battle-backend/internal/storage"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var ErrNoActiveTournament = errors.New("no active tournament")
var ErrUnknownTier = errors.New("unknown tournament tier")
var ErrStaleMatch = errors.New("match belongs to another tournament round")

const HistoryLimit = 20

type Tournament struct {
	ID           string     `json:"id"`
	Tier         Tier       `json:"tier"`
	Name         string     `json:"name"`
	TotalRounds  int        `json:"totalRounds"`
	CurrentRound int        `json:"currentRound"`
	Wins         int        `json:"wins"`
	Losses       int        `json:"losses"`
	Active       bool       `json:"active"`
	Abandoned    bool       `json:"abandoned,omitempty"`
	Champion     bool       `json:"champion"`
	StartedAt    time.Time  `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	Bracket      []Slot     `json:"bracket"`
}

// valid reports whether a hydrated run is consistent with its tier.
func (t Tournament) valid() bool {
	cfg, ok := Configs[t.Tier]
	if !ok || t.ID == "" || t.TotalRounds != cfg.Rounds {
		return false
	}
	if len(t.Bracket) != (1<<t.TotalRounds)-1 {
		return false
	}
	return t.CurrentRound >= 1 && t.CurrentRound <= t.TotalRounds
}

func (t Tournament) clone() Tournament {
	t.Bracket = slices.Clone(t.Bracket)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}

// Outcome is reported when a run ends.
type Outcome struct {
	Won        bool       `json:"won"`
	Reward     Reward     `json:"reward"`
	NextTier   Tier       `json:"nextTier,omitempty"`
	Tournament Tournament `json:"tournament"`
}

// MatchResult is the result of CompleteMatch: either the run continues or it
// ended with Outcome.
type MatchResult struct {
	Continue   bool       `json:"continue"`
	Tournament Tournament `json:"tournament"`
	Outcome    *Outcome   `json:"outcome,omitempty"`
}

// MatchRef pins a bracket match to the run and round it was opened for.
type MatchRef struct {
	TournamentID string          `json:"tournamentId"`
	Round        int             `json:"round"`
	Opponent     engine.Opponent `json:"opponent"`
}

type Progress struct {
	CurrentRound int    `json:"currentRound"`
	TotalRounds  int    `json:"totalRounds"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	Bracket      []Slot `json:"bracket"`
}

type Options struct {
	Rand   *rand.Rand
	Clock  clockwork.Clock
	Logger *zap.Logger
}

type Manager struct {
	mu      sync.Mutex
	kv      storage.KV
	rng     *rand.Rand
	clock   clockwork.Clock
	log     *zap.Logger
	current *Tournament
	history []Tournament
}

// NewManager loads the active tournament and history. Unreadable documents
// are logged and treated as absent.
func NewManager(ctx context.Context, kv storage.KV, opts Options) (*Manager, error) {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	m := &Manager{kv: kv, rng: opts.Rand, clock: opts.Clock, log: opts.Logger}

	var cur Tournament
	ok, err := m.load(ctx, storage.KeyCurrentTournament, &cur)
	if err != nil {
		return nil, err
	}
	switch {
	case !ok:
	case cur.Active && cur.valid():
		m.current = &cur
	default:
		m.log.Warn("discarding inconsistent tournament", zap.String("tournament", cur.ID))
	}

	var history []Tournament
	if ok, err = m.load(ctx, storage.KeyTournamentHistory, &history); err != nil {
		return nil, err
	} else if ok {
		m.history = history
	}
	return m, nil
}

// load decodes key into target. ok is false when the document is absent or
// unreadable, in which case target must be ignored.
func (m *Manager) load(ctx context.Context, key string, target any) (bool, error) {
	err := storage.LoadJSON(ctx, m.kv, key, target)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	case errors.Is(err, storage.ErrCorrupt):
		m.log.Warn("discarding unreadable tournament data", zap.String("key", key), zap.Error(err))
		return false, nil
	default:
		return false, fmt.Errorf("load %s: %w", key, err)
	}
}

// Start begins a new run at tier, replacing any run in progress.
func (m *Manager) Start(ctx context.Context, tier Tier) (Tournament, error) {
	cfg, ok := Configs[tier]
	if !ok {
		return Tournament{}, ErrUnknownTier
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := Tournament{
		ID:           uuid.NewString(),
		Tier:         tier,
		Name:         cfg.Name,
		TotalRounds:  cfg.Rounds,
		CurrentRound: 1,
		Active:       true,
		StartedAt:    m.clock.Now(),
		Bracket:      GenerateBracket(m.rng, cfg.Rounds, cfg.Baseline),
	}
	if m.current != nil {
		m.log.Info("replacing tournament in progress", zap.String("tournament", m.current.ID))
	}
	m.current = &t
	if err := storage.SaveJSON(ctx, m.kv, storage.KeyCurrentTournament, t); err != nil {
		return t.clone(), err
	}
	m.log.Info("tournament started", zap.String("tournament", t.ID), zap.String("tier", string(tier)))
	return t.clone(), nil
}

// CompleteMatch records the result of the current bracket match. A loss
// ends the run immediately.
func (m *Manager) CompleteMatch(ctx context.Context, won bool) (MatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || !m.current.Active {
		return MatchResult{}, ErrNoActiveTournament
	}
	return m.completeMatchLocked(ctx, won)
}

// CompleteMatchFor is CompleteMatch for a match opened through CurrentMatch.
// It returns ErrStaleMatch when the run was replaced or the round was
// already reported.
func (m *Manager) CompleteMatchFor(ctx context.Context, ref MatchRef, won bool) (MatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.current
	if t == nil || !t.Active || t.ID != ref.TournamentID || t.CurrentRound != ref.Round {
		return MatchResult{}, ErrStaleMatch
	}
	return m.completeMatchLocked(ctx, won)
}

func (m *Manager) completeMatchLocked(ctx context.Context, won bool) (MatchResult, error) {
	t := m.current
	if idx := t.CurrentRound - 1; idx >= 0 && idx < len(t.Bracket) {
		t.Bracket[idx].Completed = true
		t.Bracket[idx].Won = won
	}

	if !won {
		t.Losses++
		t.Active = false
		out, err := m.completeLocked(ctx, false)
		return MatchResult{Tournament: out.Tournament, Outcome: &out}, err
	}

	t.Wins++
	t.CurrentRound++
	if t.CurrentRound > t.TotalRounds {
		out, err := m.completeLocked(ctx, true)
		return MatchResult{Tournament: out.Tournament, Outcome: &out}, err
	}

	if err := storage.SaveJSON(ctx, m.kv, storage.KeyCurrentTournament, *t); err != nil {
		return MatchResult{Continue: true, Tournament: t.clone()}, err
	}
	return MatchResult{Continue: true, Tournament: t.clone()}, nil
}

// CompleteTournament finishes the current run now, archives it and reports
// the reward: the full tier reward and next tier when won, the partial
// reward otherwise.
func (m *Manager) CompleteTournament(ctx context.Context, won bool) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || !m.current.Active {
		return Outcome{}, ErrNoActiveTournament
	}
	return m.completeLocked(ctx, won)
}

func (m *Manager) completeLocked(ctx context.Context, won bool) (Outcome, error) {
	t := m.current
	cfg := Configs[t.Tier]
	now := m.clock.Now()
	t.Active = false
	t.CompletedAt = &now
	t.Champion = won

	out := Outcome{Won: won, Reward: cfg.PartialReward()}
	if won {
		out.Reward = cfg.Reward
		out.NextTier = t.Tier.Next()
	}
	out.Tournament = t.clone()

	m.log.Info("tournament finished",
		zap.String("tournament", t.ID),
		zap.Bool("champion", won),
		zap.Int("wins", t.Wins),
	)
	return out, m.archiveLocked(ctx)
}

// archiveLocked appends the current run to history and clears it.
func (m *Manager) archiveLocked(ctx context.Context) error {
	m.history = append(m.history, m.current.clone())
	if n := len(m.history); n > HistoryLimit {
		m.history = slices.Clone(m.history[n-HistoryLimit:])
	}
	m.current = nil

	if err := storage.SaveJSON(ctx, m.kv, storage.KeyTournamentHistory, m.history); err != nil {
		return err
	}
	return m.kv.Delete(ctx, storage.KeyCurrentTournament)
}

// Abandon ends the current run without reward.
func (m *Manager) Abandon(ctx context.Context) (Tournament, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return Tournament{}, ErrNoActiveTournament
	}
	m.current.Active = false
	m.current.Abandoned = true
	t := m.current.clone()
	m.log.Info("tournament abandoned", zap.String("tournament", t.ID))
	return t, m.archiveLocked(ctx)
}

func (m *Manager) Current() (Tournament, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Tournament{}, false
	}
	return m.current.clone(), true
}

// CurrentOpponent is the opponent of the next bracket match.
func (m *Manager) CurrentOpponent() (engine.Opponent, error) {
	ref, err := m.CurrentMatch()
	return ref.Opponent, err
}

// CurrentMatch identifies the next bracket match.
func (m *Manager) CurrentMatch() (MatchRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.current
	if t == nil || !t.Active {
		return MatchRef{}, ErrNoActiveTournament
	}
	idx := t.CurrentRound - 1
	if idx < 0 || idx >= len(t.Bracket) {
		return MatchRef{}, ErrNoActiveTournament
	}
	return MatchRef{TournamentID: t.ID, Round: t.CurrentRound, Opponent: t.Bracket[idx].Opponent}, nil
}

func (m *Manager) Progress() (Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.current
	if t == nil {
		return Progress{}, ErrNoActiveTournament
	}
	return Progress{
		CurrentRound: t.CurrentRound,
		TotalRounds:  t.TotalRounds,
		Wins:         t.Wins,
		Losses:       t.Losses,
		Bracket:      slices.Clone(t.Bracket),
	}, nil
}

// History returns finished runs, oldest first.
func (m *Manager) History() []Tournament {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Tournament, 0, len(m.history))
	for _, t := range m.history {
		out = append(out, t.clone())
	}
	return out
}
