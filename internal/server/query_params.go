package server

import (
	"errors"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
)

func parseOptionalBool(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseOptionalSnowflakeID(value string) (snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil || parsed <= 0 {
		return 0, errors.New("invalid_snowflake_id")
	}
	return parsed, nil
}

// parseInterval reads a half-open [from, to) range of "2006-01-02" days.
func parseInterval(from, to string) (daterange.Interval, error) {
	start, err := daterange.Parse(strings.TrimSpace(from))
	if err != nil {
		return daterange.Interval{}, newValidationError("from", "invalid_from", "from must be YYYY-MM-DD")
	}
	end, err := daterange.Parse(strings.TrimSpace(to))
	if err != nil {
		return daterange.Interval{}, newValidationError("to", "invalid_to", "to must be YYYY-MM-DD")
	}
	return daterange.New(start, end)
}

func parseStay(checkIn, checkOut string) (daterange.Interval, error) {
	start, err := daterange.Parse(strings.TrimSpace(checkIn))
	if err != nil {
		return daterange.Interval{}, newValidationError("check_in", "invalid_check_in", "check_in must be YYYY-MM-DD")
	}
	end, err := daterange.Parse(strings.TrimSpace(checkOut))
	if err != nil {
		return daterange.Interval{}, newValidationError("check_out", "invalid_check_out", "check_out must be YYYY-MM-DD")
	}
	return daterange.New(start, end)
}
