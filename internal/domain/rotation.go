package domain

import "time"

// RotationBaseline is the stored snapshot of a player's cumulative stats at
// the start of the current period. One row exists per (player, period type);
// it only changes when a sweep or explicit reset rebases it.
type RotationBaseline struct {
	PlayerUUID string
	PeriodType PeriodType
	Stats      StatFields
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HistoricalRecord is the immutable archive of a completed period. Stats
// hold deltas gained during the period, not cumulative values.
type HistoricalRecord struct {
	ID          string // nanoid
	PlayerUUID  string
	PeriodLabel string
	PeriodType  PeriodType
	Stats       StatFields
	LevelGained float64
	Anomalous   bool
	ArchivedAt  time.Time
}

// ResetTimeConfig is a player's or account's reset preference: a whole-hour
// UTC offset in [-12, 12] and the local hour in [0, 23] rotations reset at.
type ResetTimeConfig struct {
	UTCOffset int
	ResetHour int
}

// Valid reports whether both fields are inside their allowed ranges.
func (c ResetTimeConfig) Valid() bool {
	return c.UTCOffset >= -12 && c.UTCOffset <= 12 && c.ResetHour >= 0 && c.ResetHour <= 23
}

// LocalTime shifts a UTC instant into the config's offset.
func (c ResetTimeConfig) LocalTime(utc time.Time) time.Time {
	return utc.Add(time.Duration(c.UTCOffset) * time.Hour)
}
