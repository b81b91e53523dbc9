// Package evolution tracks experience per card archetype. An archetype is the
// (element, base strength) pair, so every card with the same element and base
// strength shares one record.
package evolution

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/DoyleJ11/card-battle-backend/internal/card"
	"github.com/DoyleJ11/card-battle-backend/internal/storage"
	"go.uber.org/zap"
)

const MaxLevel = 5

type Tier struct {
	Level         int    `json:"level"`
	Label         string `json:"label"`
	MaxExp        int    `json:"maxExp"` // 0 means no ceiling
	StrengthBonus int    `json:"strengthBonus"`
}

var Tiers = []Tier{
	{Level: 1, Label: "Basic", MaxExp: 10, StrengthBonus: 0},
	{Level: 2, Label: "Evolved", MaxExp: 20, StrengthBonus: 1},
	{Level: 3, Label: "Advanced", MaxExp: 30, StrengthBonus: 2},
	{Level: 4, Label: "Master", MaxExp: 50, StrengthBonus: 3},
	{Level: 5, Label: "Legendary", MaxExp: 0, StrengthBonus: 5},
}

// TierFor clamps out of range levels to the nearest tier.
func TierFor(level int) Tier {
	level = min(max(level, 1), MaxLevel)
	return Tiers[level-1]
}

type Record struct {
	Element      card.Element `json:"element"`
	BaseStrength int          `json:"baseStrength"`
	Experience   int          `json:"experience"`
	Level        int          `json:"level"`
	TimesPlayed  int          `json:"timesPlayed"`
	Wins         int          `json:"wins"`
}

type LevelResult struct {
	LeveledUp bool   `json:"leveledUp"`
	OldLevel  int    `json:"oldLevel"`
	NewLevel  int    `json:"newLevel"`
	Record    Record `json:"record"`
}

// ArchetypeID is the registry key, e.g. "FIRE_7".
func ArchetypeID(element card.Element, baseStrength int) string {
	return fmt.Sprintf("%s_%d", element, baseStrength)
}

// Store is the single source of truth for evolution records while the
// process runs. Every mutation is written through to the KV backend.
type Store struct {
	mu       sync.Mutex
	kv       storage.KV
	log      *zap.Logger
	registry map[string]*Record
}

// NewStore hydrates the registry from kv. A missing or corrupt document
// yields an empty registry; only backend failures are returned.
func NewStore(ctx context.Context, kv storage.KV, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{kv: kv, log: log, registry: make(map[string]*Record)}

	registry := map[string]*Record{}
	err := storage.LoadJSON(ctx, kv, storage.KeyEvolutionRegistry, &registry)
	switch {
	case err == nil:
		for id, rec := range registry {
			if rec == nil {
				continue
			}
			rec.Level = min(max(rec.Level, 1), MaxLevel)
			rec.Experience = max(rec.Experience, 0)
			s.registry[id] = rec
		}
	case errors.Is(err, storage.ErrNotFound):
	case errors.Is(err, storage.ErrCorrupt):
		log.Warn("evolution registry unreadable, starting fresh", zap.Error(err))
	default:
		return nil, fmt.Errorf("load evolution registry: %w", err)
	}
	return s, nil
}

func (s *Store) lookup(element card.Element, baseStrength int) *Record {
	id := ArchetypeID(element, baseStrength)
	rec, ok := s.registry[id]
	if !ok {
		rec = &Record{Element: element, BaseStrength: baseStrength, Level: 1}
		s.registry[id] = rec
	}
	return rec
}

// GetOrCreate returns the record for the archetype, creating a zero record on
// first use. Creation is not persisted until the first AddExperience.
func (s *Store) GetOrCreate(element card.Element, baseStrength int) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.lookup(element, baseStrength)
}

// AddExperience credits a play. Reaching the tier ceiling levels the
// archetype up and resets experience to zero; overflow is discarded.
func (s *Store) AddExperience(ctx context.Context, element card.Element, baseStrength, amount int, won bool) (LevelResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.lookup(element, baseStrength)
	oldLevel := rec.Level

	rec.Experience += max(amount, 0)
	rec.TimesPlayed++
	if won {
		rec.Wins++
	}

	tier := TierFor(rec.Level)
	if tier.MaxExp > 0 && rec.Experience >= tier.MaxExp {
		rec.Experience = 0
		rec.Level = min(rec.Level+1, MaxLevel)
	}

	res := LevelResult{
		LeveledUp: rec.Level > oldLevel,
		OldLevel:  oldLevel,
		NewLevel:  rec.Level,
		Record:    *rec,
	}
	if err := s.saveLocked(ctx); err != nil {
		return res, err
	}
	if res.LeveledUp {
		s.log.Info("archetype leveled up",
			zap.String("archetype", ArchetypeID(element, baseStrength)),
			zap.Int("level", rec.Level),
		)
	}
	return res, nil
}

// ApplyBonus returns a copy of c with the archetype's tier bonus and the
// evolution annotations filled in.
func (s *Store) ApplyBonus(c card.Card) card.Card {
	rec := s.GetOrCreate(c.Element, c.BaseStrength)
	tier := TierFor(rec.Level)

	out := c
	out.ModifiedStrength = c.BaseStrength + tier.StrengthBonus
	out.EvolutionLevel = rec.Level
	out.EvolutionLabel = tier.Label
	out.Experience = rec.Experience
	out.MaxExperience = tier.MaxExp
	return out
}

// AllEvolved lists records above level 1 ordered by archetype id.
func (s *Store) AllEvolved() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.registry))
	for id, rec := range s.registry {
		if rec.Level > 1 {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.registry[id])
	}
	return out
}

func (s *Store) Reset(ctx context.Context, element card.Element, baseStrength int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registry, ArchetypeID(element, baseStrength))
	return s.saveLocked(ctx)
}

func (s *Store) ResetAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.registry)
	return s.saveLocked(ctx)
}

func (s *Store) saveLocked(ctx context.Context) error {
	if err := storage.SaveJSON(ctx, s.kv, storage.KeyEvolutionRegistry, s.registry); err != nil {
		s.log.Error("persist evolution registry", zap.Error(err))
		return err
	}
	return nil
}
