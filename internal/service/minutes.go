package service

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"concierge/internal/model"
)

// minutesHistoryTurns bounds how far back the conversation is searched for
// a departure time.
const minutesHistoryTurns = 6

// maxPlausibleMinutes rejects durations that cannot be a layover.
const maxPlausibleMinutes = 600

var (
	hoursPattern     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:hours?|hrs?)\b`)
	halfHourPattern  = regexp.MustCompile(`\bhalf\s+an?\s+hour\b`)
	minutesPattern   = regexp.MustCompile(`(\d+)\s*min(?:ute)?s?\b`)
	departurePattern = regexp.MustCompile(`\b(?:flight|boarding|departs?|departure|leaves?)\s+(?:is\s+)?at\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
)

// ExtractAvailableMinutes estimates how long the traveller has before their
// flight. known wins when positive; otherwise the query and the last few
// user turns are searched for a duration or a departure clock time. Zero
// means unknown.
func ExtractAvailableMinutes(query string, history []model.HistoryTurn, known int, now time.Time, loc *time.Location) int {
	if known > 0 {
		return known
	}

	parts := []string{query}
	start := len(history) - minutesHistoryTurns
	if start < 0 {
		start = 0
	}
	for _, turn := range history[start:] {
		parts = append(parts, turn.Content)
	}
	text := strings.ToLower(strings.Join(parts, " "))

	if m := hoursPattern.FindStringSubmatch(text); m != nil {
		if h, err := strconv.ParseFloat(m[1], 64); err == nil {
			if mins := int(math.Round(h * 60)); mins > 0 && mins < maxPlausibleMinutes {
				return mins
			}
		}
	}
	if halfHourPattern.MatchString(text) {
		return 30
	}
	if m := minutesPattern.FindStringSubmatch(text); m != nil {
		if mins, err := strconv.Atoi(m[1]); err == nil && mins > 0 && mins < maxPlausibleMinutes {
			return mins
		}
	}
	if m := departurePattern.FindStringSubmatch(text); m != nil {
		return minutesUntil(m, now, loc)
	}
	return 0
}

// minutesUntil converts a departure match (hour, minute, meridiem) into
// minutes from now, rolling over to tomorrow when the time has passed.
func minutesUntil(m []string, now time.Time, loc *time.Location) int {
	hour, err := strconv.Atoi(m[1])
	if err != nil || hour > 23 {
		return 0
	}
	minute := 0
	if m[2] != "" {
		if minute, err = strconv.Atoi(m[2]); err != nil || minute > 59 {
			return 0
		}
	}
	switch m[3] {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	local := now.In(loc)
	departure := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !departure.After(local) {
		departure = departure.AddDate(0, 0, 1)
	}
	diff := int(math.Round(departure.Sub(local).Minutes()))
	if diff > 0 && diff < maxPlausibleMinutes {
		return diff
	}
	return 0
}
