package models

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// discordEpochStart rejects ids that decode to a time before Discord existed
var discordEpochStart = time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)

// SnowflakeTime decodes the creation time embedded in a Discord id
func SnowflakeTime(id string) (time.Time, error) {
	if id == "" {
		return time.Time{}, fmt.Errorf("empty snowflake")
	}
	ts, err := discordgo.SnowflakeTimestamp(id)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid snowflake %q: %w", id, err)
	}
	if ts.Before(discordEpochStart) {
		return time.Time{}, fmt.Errorf("invalid snowflake %q: predates discord epoch", id)
	}
	return ts, nil
}

// IsSnowflake reports whether id looks like a Discord user, guild or channel id
func IsSnowflake(id string) bool {
	_, err := SnowflakeTime(id)
	return err == nil
}
