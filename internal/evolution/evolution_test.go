package evolution

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/DoyleJ11/card-battle-backend/internal/card"
	"github.com/DoyleJ11/card-battle-backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, kv storage.KV) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), kv, nil)
	require.NoError(t, err)
	return s
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	kv := storage.NewMemory()
	s := newStore(t, kv)

	first := s.GetOrCreate(card.ElementFire, 7)
	second := s.GetOrCreate(card.ElementFire, 7)
	assert.Equal(t, first, second)
	assert.Equal(t, Record{Element: card.ElementFire, BaseStrength: 7, Level: 1}, first)
	assert.Empty(t, kv.Keys(), "lookup must not write")
}

func TestAddExperience_LevelUpResetsExperience(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())

	res, err := s.AddExperience(ctx, card.ElementIce, 3, 9, true)
	require.NoError(t, err)
	assert.False(t, res.LeveledUp)
	assert.Equal(t, 9, res.Record.Experience)

	// 9 + 25 overflows the level 1 ceiling of 10; nothing carries over.
	res, err = s.AddExperience(ctx, card.ElementIce, 3, 25, false)
	require.NoError(t, err)
	assert.True(t, res.LeveledUp)
	assert.Equal(t, 1, res.OldLevel)
	assert.Equal(t, 2, res.NewLevel)
	assert.Equal(t, 0, res.Record.Experience)
	assert.Equal(t, 2, res.Record.TimesPlayed)
	assert.Equal(t, 1, res.Record.Wins)
}

func TestAddExperience_Monotonic(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())
	rng := rand.New(rand.NewPCG(1, 2))

	level := 1
	for i := 0; i < 500; i++ {
		res, err := s.AddExperience(ctx, card.ElementDark, 5, rng.IntN(40), rng.IntN(2) == 0)
		require.NoError(t, err)
		require.GreaterOrEqual(t, res.NewLevel, level)
		require.LessOrEqual(t, res.NewLevel, MaxLevel)
		if ceiling := TierFor(res.NewLevel).MaxExp; ceiling > 0 {
			require.Less(t, res.Record.Experience, ceiling)
		}
		level = res.NewLevel
	}
	assert.Equal(t, MaxLevel, level)
}

func TestApplyBonus(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())

	c := card.Card{ID: "x", Element: card.ElementWater, BaseStrength: 4, ModifiedStrength: 4}
	basic := s.ApplyBonus(c)
	assert.Equal(t, 4, basic.ModifiedStrength)
	assert.Equal(t, "Basic", basic.EvolutionLabel)
	assert.Equal(t, 10, basic.MaxExperience)

	cases := []struct {
		name      string
		xp        int
		wantLevel int
		wantBonus int
	}{
		{name: "evolved", xp: 10, wantLevel: 2, wantBonus: 1},
		{name: "advanced", xp: 20, wantLevel: 3, wantBonus: 2},
		{name: "master", xp: 30, wantLevel: 4, wantBonus: 3},
		{name: "legendary", xp: 50, wantLevel: 5, wantBonus: 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.AddExperience(ctx, c.Element, c.BaseStrength, tc.xp, true)
			require.NoError(t, err)
			got := s.ApplyBonus(c)
			assert.Equal(t, tc.wantLevel, got.EvolutionLevel)
			assert.Equal(t, c.BaseStrength+tc.wantBonus, got.ModifiedStrength)
			assert.Equal(t, c.BaseStrength, got.BaseStrength)
		})
	}
}

func TestNewStore_HydratesAndRecoversFromCorruption(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := newStore(t, kv)
	_, err := s.AddExperience(ctx, card.ElementMeteor, 10, 12, true)
	require.NoError(t, err)

	reloaded := newStore(t, kv)
	rec := reloaded.GetOrCreate(card.ElementMeteor, 10)
	assert.Equal(t, 2, rec.Level)
	assert.Len(t, reloaded.AllEvolved(), 1)

	require.NoError(t, kv.Put(ctx, storage.KeyEvolutionRegistry, []byte("not json")))
	fresh := newStore(t, kv)
	assert.Empty(t, fresh.AllEvolved())
}

type failingKV struct{ storage.Memory }

func (*failingKV) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("backend down")
}

func TestNewStore_BackendFailure(t *testing.T) {
	_, err := NewStore(context.Background(), &failingKV{}, nil)
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())
	_, _ = s.AddExperience(ctx, card.ElementFire, 1, 10, true)
	_, _ = s.AddExperience(ctx, card.ElementFire, 2, 10, true)
	require.Len(t, s.AllEvolved(), 2)

	require.NoError(t, s.Reset(ctx, card.ElementFire, 1))
	assert.Len(t, s.AllEvolved(), 1)

	require.NoError(t, s.ResetAll(ctx))
	assert.Empty(t, s.AllEvolved())
}
