package simulate

import (
	"crypto/rand"
	"math"
	"math/big"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	minTableSize = 5
	maxTableSize = 10
	ratioScale   = 1_000_000

	// Hidden skills are drawn uniformly from [skillFloor, skillFloor+skillSpan).
	skillFloor = 1200.0
	skillSpan  = 800.0
)

// player is a simulated participant with a skill the service never sees.
type player struct {
	name  string
	skill float64
}

// liberalSeats maps a table size to the size of the liberal faction.
var liberalSeats = map[int]int{5: 3, 6: 4, 7: 4, 8: 5, 9: 5, 10: 6} //nolint:gochecknoglobals // fixed table

// randInt returns a uniform value in [0, n) from crypto/rand.
func randInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}
	return int(v.Int64())
}

func randFloat() float64 {
	return float64(randInt(ratioScale)) / ratioScale
}

// newPlayers creates n players with distinct names and random hidden skill.
func newPlayers(n int) []player {
	return lo.Times(n, func(int) player {
		return player{name: "player-" + uuid.NewString(), skill: skillFloor + randFloat()*skillSpan}
	})
}

// liberalWinChance is the Elo expectation of the liberal side's mean skill
// against the fascist side's.
func liberalWinChance(liberals, fascists []player) float64 {
	mean := func(ps []player) float64 {
		return lo.SumBy(ps, func(p player) float64 { return p.skill }) / float64(len(ps))
	}
	return 1 / (1 + math.Pow(10, (mean(fascists)-mean(liberals))/400))
}

func names(ps []player) []string {
	return lo.Map(ps, func(p player, _ int) string { return p.name })
}

// seat draws size distinct players with a partial Fisher-Yates shuffle.
func seat(players []player, size int) []player {
	pool := append([]player(nil), players...)
	for i := 0; i < size; i++ {
		j := i + randInt(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:size]
}

// generateMatch builds one finished game over a random table. The stronger
// faction wins more often.
func generateMatch(players []player, rainbowRatio float64) Match {
	size := minTableSize + randInt(maxTableSize-minTableSize+1)
	table := seat(players, size)
	liberals, fascists := table[:liberalSeats[size]], table[liberalSeats[size]:]

	m := Match{
		MatchID:    uuid.NewString(),
		LiberalWin: randFloat() < liberalWinChance(liberals, fascists),
		Rainbow:    randFloat() < rainbowRatio,
	}
	if m.LiberalWin {
		m.Winners, m.Losers = names(liberals), names(fascists)
	} else {
		m.Winners, m.Losers = names(fascists), names(liberals)
	}
	return m
}

// generateMatches creates cfg.Matches games over a fresh pool of cfg.Players
// and returns the pool alongside them.
func generateMatches(cfg *Config) ([]player, []Match) {
	players := newPlayers(cfg.Players)
	return players, lo.Times(cfg.Matches, func(int) Match { return generateMatch(players, cfg.RainbowRatio) })
}
