package domain

// Bedwars experience curve: the first four levels of each prestige are
// discounted, every level after that costs a flat amount, and a prestige is
// 100 levels.
const (
	xpPerPrestige     = 487000
	levelsPerPrestige = 100
	xpPerLevel        = 5000
)

var easyLevelXP = []int64{500, 1000, 2000, 3500}

// LevelFromExperience converts cumulative Bedwars experience into a
// fractional star level.
func LevelFromExperience(exp int64) float64 {
	if exp < 0 {
		exp = 0
	}

	level := float64(exp / xpPerPrestige * levelsPerPrestige)
	rem := exp % xpPerPrestige

	for _, cost := range easyLevelXP {
		if rem < cost {
			return level + float64(rem)/float64(cost)
		}
		rem -= cost
		level++
	}

	return level + float64(rem)/float64(xpPerLevel)
}
