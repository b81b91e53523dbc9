package tournament

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/DoyleJ11/card-battle-backend/internal/storage"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, kv storage.KV) (*Manager, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	m, err := NewManager(context.Background(), kv, Options{
		Rand:  rand.New(rand.NewPCG(9, 9)),
		Clock: clock,
	})
	require.NoError(t, err)
	return m, clock
}

func TestGenerateBracket(t *testing.T) {
	bracket := GenerateBracket(rand.New(rand.NewPCG(1, 2)), 5, 1.0)
	require.Len(t, bracket, 31)

	cases := []struct {
		idx   int
		round int
	}{
		{0, 1}, {1, 1}, {2, 2}, {5, 2}, {6, 3}, {13, 3}, {14, 4}, {30, 5},
	}
	for _, tc := range cases {
		slot := bracket[tc.idx]
		assert.Equal(t, tc.round, slot.Round, "slot %d", tc.idx)
		assert.InDelta(t, 1.0+float64(tc.round)*0.15, slot.Opponent.StrengthMultiplier, 1e-9)
		assert.Equal(t, "aggressive", slot.Opponent.Personality)
		assert.Contains(t, opponentNames, slot.Opponent.Name)
		assert.NotEmpty(t, slot.Opponent.ID)
	}
	assert.Equal(t, 2, bracket[0].Opponent.DeckBonus, "floor(1.15*2)")
	assert.Equal(t, 3, bracket[30].Opponent.DeckBonus, "floor(1.75*2)")
}

func TestGenerateBracket_EasyOpponentsAreBalanced(t *testing.T) {
	bracket := GenerateBracket(rand.New(rand.NewPCG(1, 2)), 3, 0.7)
	require.Len(t, bracket, 7)
	assert.Equal(t, "balanced", bracket[0].Opponent.Personality)
	assert.Equal(t, 1, bracket[0].Opponent.DeckBonus, "floor(0.85*2)")
}

func TestTierHelpers(t *testing.T) {
	tier, err := ParseTier("gold")
	require.NoError(t, err)
	assert.Equal(t, TierGold, tier)

	_, err = ParseTier("diamond")
	assert.ErrorIs(t, err, ErrUnknownTier)

	assert.Equal(t, TierSilver, TierBronze.Next())
	assert.Equal(t, Tier(""), TierPlatinum.Next())
	assert.Equal(t, Reward{Coins: 360, Exp: 150}, Configs[TierGold].PartialReward())
}

func TestStart_Gold(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	m, _ := newTestManager(t, kv)

	tour, err := m.Start(ctx, TierGold)
	require.NoError(t, err)
	assert.Len(t, tour.Bracket, 31)
	assert.Equal(t, 5, tour.TotalRounds)
	assert.Equal(t, 1, tour.CurrentRound)
	assert.True(t, tour.Active)
	assert.Equal(t, "Gold Tournament", tour.Name)

	var saved Tournament
	require.NoError(t, storage.LoadJSON(ctx, kv, storage.KeyCurrentTournament, &saved))
	assert.Equal(t, tour.ID, saved.ID)

	_, err = m.Start(ctx, "DIAMOND")
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestCompleteMatch_LossEndsRunWithPartialReward(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	m, _ := newTestManager(t, kv)
	_, err := m.Start(ctx, TierGold)
	require.NoError(t, err)

	res, err := m.CompleteMatch(ctx, true)
	require.NoError(t, err)
	assert.True(t, res.Continue)
	assert.Equal(t, 2, res.Tournament.CurrentRound)
	assert.True(t, res.Tournament.Bracket[0].Completed)

	res, err = m.CompleteMatch(ctx, false)
	require.NoError(t, err)
	require.NotNil(t, res.Outcome)
	assert.False(t, res.Continue)
	assert.False(t, res.Outcome.Won)
	assert.False(t, res.Tournament.Active)
	assert.Equal(t, 1, res.Tournament.Losses)
	assert.Equal(t, Reward{Coins: 360, Exp: 150}, res.Outcome.Reward)
	assert.Empty(t, res.Outcome.NextTier)
	assert.True(t, res.Tournament.Bracket[1].Completed)
	assert.False(t, res.Tournament.Bracket[1].Won)

	_, ok := m.Current()
	assert.False(t, ok)
	_, err = kv.Get(ctx, storage.KeyCurrentTournament)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Len(t, m.History(), 1)

	_, err = m.CompleteMatch(ctx, true)
	assert.ErrorIs(t, err, ErrNoActiveTournament)
}

func TestCompleteMatch_ChampionGetsFullRewardAndNextTier(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestManager(t, storage.NewMemory())
	_, err := m.Start(ctx, TierBronze)
	require.NoError(t, err)

	var res MatchResult
	for range 3 {
		clock.Advance(time.Minute)
		res, err = m.CompleteMatch(ctx, true)
		require.NoError(t, err)
	}
	require.NotNil(t, res.Outcome)
	assert.True(t, res.Outcome.Won)
	assert.Equal(t, Reward{Coins: 300, Exp: 100}, res.Outcome.Reward)
	assert.Equal(t, TierSilver, res.Outcome.NextTier)
	assert.True(t, res.Tournament.Champion)
	require.NotNil(t, res.Tournament.CompletedAt)
	assert.Equal(t, 3*time.Minute, res.Tournament.CompletedAt.Sub(res.Tournament.StartedAt))

	_, err = m.Start(ctx, TierPlatinum)
	require.NoError(t, err)
	for range 6 {
		res, err = m.CompleteMatch(ctx, true)
		require.NoError(t, err)
	}
	assert.Empty(t, res.Outcome.NextTier, "no tier above platinum")
}

func TestCompleteMatchFor_RejectsStaleMatches(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, storage.NewMemory())

	_, err := m.CompleteMatchFor(ctx, MatchRef{TournamentID: "gone", Round: 1}, true)
	assert.ErrorIs(t, err, ErrStaleMatch)

	_, err = m.Start(ctx, TierBronze)
	require.NoError(t, err)
	ref, err := m.CurrentMatch()
	require.NoError(t, err)
	assert.Equal(t, 1, ref.Round)

	res, err := m.CompleteMatchFor(ctx, ref, true)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Tournament.CurrentRound)

	_, err = m.CompleteMatchFor(ctx, ref, false)
	assert.ErrorIs(t, err, ErrStaleMatch, "round already reported")

	_, err = m.Abandon(ctx)
	require.NoError(t, err)
	gold, err := m.Start(ctx, TierGold)
	require.NoError(t, err)
	ref.Round = 1
	_, err = m.CompleteMatchFor(ctx, ref, false)
	assert.ErrorIs(t, err, ErrStaleMatch, "run was replaced")

	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, gold.ID, cur.ID)
	assert.Zero(t, cur.Wins)
	assert.Zero(t, cur.Losses)
}

func TestCompleteTournament(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, storage.NewMemory())

	_, err := m.CompleteTournament(ctx, true)
	assert.ErrorIs(t, err, ErrNoActiveTournament)

	_, err = m.Start(ctx, TierGold)
	require.NoError(t, err)
	out, err := m.CompleteTournament(ctx, false)
	require.NoError(t, err)
	assert.False(t, out.Won)
	assert.Equal(t, Reward{Coins: 360, Exp: 150}, out.Reward)
	assert.Empty(t, out.NextTier)

	_, err = m.Start(ctx, TierSilver)
	require.NoError(t, err)
	out, err = m.CompleteTournament(ctx, true)
	require.NoError(t, err)
	assert.True(t, out.Won)
	assert.Equal(t, Configs[TierSilver].Reward, out.Reward)
	assert.Equal(t, TierGold, out.NextTier)
	assert.True(t, out.Tournament.Champion)

	_, ok := m.Current()
	assert.False(t, ok)
	assert.Len(t, m.History(), 2)
}

func TestAbandon(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, storage.NewMemory())

	_, err := m.Abandon(ctx)
	assert.ErrorIs(t, err, ErrNoActiveTournament)

	_, err = m.Start(ctx, TierSilver)
	require.NoError(t, err)
	tour, err := m.Abandon(ctx)
	require.NoError(t, err)
	assert.True(t, tour.Abandoned)
	assert.False(t, tour.Active)

	hist := m.History()
	require.Len(t, hist, 1)
	assert.True(t, hist[0].Abandoned)
}

func TestHistoryCappedAtTwenty(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, storage.NewMemory())

	var first string
	for i := range 22 {
		tour, err := m.Start(ctx, TierBronze)
		require.NoError(t, err)
		if i == 2 {
			first = tour.ID
		}
		_, err = m.Abandon(ctx)
		require.NoError(t, err)
	}
	hist := m.History()
	require.Len(t, hist, HistoryLimit)
	assert.Equal(t, first, hist[0].ID, "oldest entries evicted first")
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, storage.NewMemory())

	_, err := m.CurrentOpponent()
	assert.ErrorIs(t, err, ErrNoActiveTournament)
	_, err = m.Progress()
	assert.ErrorIs(t, err, ErrNoActiveTournament)

	tour, err := m.Start(ctx, TierSilver)
	require.NoError(t, err)
	opp, err := m.CurrentOpponent()
	require.NoError(t, err)
	assert.Equal(t, tour.Bracket[0].Opponent, opp)

	_, err = m.CompleteMatch(ctx, true)
	require.NoError(t, err)
	opp, err = m.CurrentOpponent()
	require.NoError(t, err)
	assert.Equal(t, tour.Bracket[1].Opponent, opp)

	p, err := m.Progress()
	require.NoError(t, err)
	assert.Equal(t, 2, p.CurrentRound)
	assert.Equal(t, 4, p.TotalRounds)
	assert.Equal(t, 1, p.Wins)
}

func TestNewManager_HydratesAndRecovers(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	m, _ := newTestManager(t, kv)
	tour, err := m.Start(ctx, TierGold)
	require.NoError(t, err)

	again, _ := newTestManager(t, kv)
	cur, ok := again.Current()
	require.True(t, ok)
	assert.Equal(t, tour.ID, cur.ID)

	require.NoError(t, kv.Put(ctx, storage.KeyTournamentHistory, []byte("{not json")))
	recovered, _ := newTestManager(t, kv)
	assert.Empty(t, recovered.History())

	cases := []struct {
		name    string
		current string
		history string
	}{
		{
			name:    "type mismatch",
			current: `{"id":"ghost","tier":"GOLD","totalRounds":5,"currentRound":"oops","active":true,"bracket":[]}`,
			history: `[{"id":"old","tier":"BRONZE","wins":"bad"}]`,
		},
		{
			name:    "bracket does not match tier",
			current: `{"id":"ghost","tier":"GOLD","totalRounds":5,"currentRound":1,"active":true,"bracket":[]}`,
			history: `[]`,
		},
		{
			name:    "unknown tier",
			current: `{"id":"ghost","tier":"DIAMOND","totalRounds":0,"currentRound":1,"active":true,"bracket":[]}`,
			history: `[]`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kv := storage.NewMemory()
			require.NoError(t, kv.Put(ctx, storage.KeyCurrentTournament, []byte(tc.current)))
			require.NoError(t, kv.Put(ctx, storage.KeyTournamentHistory, []byte(tc.history)))

			m, _ := newTestManager(t, kv)
			_, ok := m.Current()
			assert.False(t, ok)
			assert.Empty(t, m.History())

			_, err := m.CompleteMatch(ctx, true)
			assert.ErrorIs(t, err, ErrNoActiveTournament)
		})
	}
}
