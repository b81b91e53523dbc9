package tournament

import (
	"strings"
)

type Tier string

const (
	TierBronze   Tier = "BRONZE"
	TierSilver   Tier = "SILVER"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
)

// Tiers in ascending order.
var Tiers = []Tier{TierBronze, TierSilver, TierGold, TierPlatinum}

type Reward struct {
	Coins int `json:"coins"`
	Exp   int `json:"exp"`
}

type TierConfig struct {
	Name       string  `json:"name"`
	Rounds     int     `json:"rounds"`
	Reward     Reward  `json:"reward"`
	Difficulty string  `json:"difficulty"`
	Baseline   float64 `json:"baseline"`
}

var Configs = map[Tier]TierConfig{
	TierBronze:   {Name: "Bronze Tournament", Rounds: 3, Reward: Reward{Coins: 300, Exp: 100}, Difficulty: "easy", Baseline: 0.7},
	TierSilver:   {Name: "Silver Tournament", Rounds: 4, Reward: Reward{Coins: 600, Exp: 250}, Difficulty: "medium", Baseline: 0.85},
	TierGold:     {Name: "Gold Tournament", Rounds: 5, Reward: Reward{Coins: 1200, Exp: 500}, Difficulty: "hard", Baseline: 1.0},
	TierPlatinum: {Name: "Platinum Tournament", Rounds: 6, Reward: Reward{Coins: 2500, Exp: 1000}, Difficulty: "expert", Baseline: 1.2},
}

func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := Configs[t]; !ok {
		return "", ErrUnknownTier
	}
	return t, nil
}

// Next returns the tier above t, or "" at the top.
func (t Tier) Next() Tier {
	for i, tier := range Tiers {
		if tier == t && i+1 < len(Tiers) {
			return Tiers[i+1]
		}
	}
	return ""
}

// PartialReward is paid when a run ends in a loss.
func (c TierConfig) PartialReward() Reward {
	return Reward{Coins: c.Reward.Coins * 3 / 10, Exp: c.Reward.Exp * 3 / 10}
}
