package domain

// ModeStats holds the counters tracked per Bedwars submode.
type ModeStats struct {
	Wins        int64
	Losses      int64
	FinalKills  int64
	FinalDeaths int64
}

// StatFields is the fixed set of cumulative Bedwars counters tracked for a
// player. The same shape is used for live stats, stored baselines and
// archived period deltas.
type StatFields struct {
	Experience     int64
	GamesPlayed    int64
	Wins           int64
	Losses         int64
	Kills          int64
	Deaths         int64
	FinalKills     int64
	FinalDeaths    int64
	BedsBroken     int64
	BedsLost       int64
	ItemsPurchased int64

	Solo    ModeStats
	Doubles ModeStats
	Threes  ModeStats
	Fours   ModeStats
}

// statColumns is the canonical column order for every counter in StatFields.
// Counters() must return pointers in exactly this order; the repository layer
// builds its SQL from this list.
var statColumns = []string{
	"experience",
	"games_played",
	"wins",
	"losses",
	"kills",
	"deaths",
	"final_kills",
	"final_deaths",
	"beds_broken",
	"beds_lost",
	"items_purchased",
	"solo_wins",
	"solo_losses",
	"solo_final_kills",
	"solo_final_deaths",
	"doubles_wins",
	"doubles_losses",
	"doubles_final_kills",
	"doubles_final_deaths",
	"threes_wins",
	"threes_losses",
	"threes_final_kills",
	"threes_final_deaths",
	"fours_wins",
	"fours_losses",
	"fours_final_kills",
	"fours_final_deaths",
}

// StatColumns returns the counter column names in canonical order.
func StatColumns() []string {
	cols := make([]string, len(statColumns))
	copy(cols, statColumns)
	return cols
}

// Counters returns pointers to every counter, in the same order as
// StatColumns.
func (s *StatFields) Counters() []*int64 {
	return []*int64{
		&s.Experience,
		&s.GamesPlayed,
		&s.Wins,
		&s.Losses,
		&s.Kills,
		&s.Deaths,
		&s.FinalKills,
		&s.FinalDeaths,
		&s.BedsBroken,
		&s.BedsLost,
		&s.ItemsPurchased,
		&s.Solo.Wins,
		&s.Solo.Losses,
		&s.Solo.FinalKills,
		&s.Solo.FinalDeaths,
		&s.Doubles.Wins,
		&s.Doubles.Losses,
		&s.Doubles.FinalKills,
		&s.Doubles.FinalDeaths,
		&s.Threes.Wins,
		&s.Threes.Losses,
		&s.Threes.FinalKills,
		&s.Threes.FinalDeaths,
		&s.Fours.Wins,
		&s.Fours.Losses,
		&s.Fours.FinalKills,
		&s.Fours.FinalDeaths,
	}
}
