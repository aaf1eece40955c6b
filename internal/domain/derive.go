package domain

import "math"

// DeltaStats is the progress made between a stored baseline and a live
// snapshot: per-counter deltas, the star levels gained over the same span,
// and the usual display ratios computed from the deltas.
type DeltaStats struct {
	Stats       StatFields
	LevelGained float64

	// Anomalous is set when any live counter was below its baseline, which
	// happens after an upstream data wipe. Affected deltas are clamped to
	// zero instead of going negative.
	Anomalous bool

	WLR  float64 // wins / losses
	KDR  float64 // kills / deaths
	FKDR float64 // final kills / final deaths
	BBLR float64 // beds broken / beds lost
}

// Derive computes the stats gained between baseline and live. It is a pure
// function shared by the on-demand read path and the sweep's pre-archival
// delta computation.
func Derive(live, baseline *StatFields) DeltaStats {
	var d DeltaStats

	lc := live.Counters()
	bc := baseline.Counters()
	dc := d.Stats.Counters()
	for i := range dc {
		v := *lc[i] - *bc[i]
		if v < 0 {
			v = 0
			d.Anomalous = true
		}
		*dc[i] = v
	}

	if live.Experience >= baseline.Experience {
		d.LevelGained = round2(LevelFromExperience(live.Experience) - LevelFromExperience(baseline.Experience))
	}

	d.WLR = Ratio(d.Stats.Wins, d.Stats.Losses)
	d.KDR = Ratio(d.Stats.Kills, d.Stats.Deaths)
	d.FKDR = Ratio(d.Stats.FinalKills, d.Stats.FinalDeaths)
	d.BBLR = Ratio(d.Stats.BedsBroken, d.Stats.BedsLost)

	return d
}

// Ratio divides numerator by denominator, rounded to two decimals. A zero
// denominator yields the raw numerator, so a flawless record displays as the
// raw count rather than infinity.
func Ratio(numerator, denominator int64) float64 {
	if denominator == 0 {
		return float64(numerator)
	}
	return round2(float64(numerator) / float64(denominator))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
