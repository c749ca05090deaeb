package bot

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"git.skobk.in/skobkin/telegram-edit-guard-bot/platform"
)

var (
	ErrInvalidDelayUnit   = errors.New("invalid delay unit")
	ErrInvalidDelayAmount = errors.New("invalid delay amount")
	ErrDelayOutOfRange    = errors.New("delay out of range")
)

// Delay units accepted by /setdelay
const (
	UnitSeconds = "seconds"
	UnitMinutes = "minutes"
	UnitHours   = "hours"
)

// delaySuggestions are offered when /setdelay gets a unit without an amount
var delaySuggestions = map[string][]int{
	UnitSeconds: {5, 10, 30, 60, 120, 300, 600, 1800, 3600},
	UnitMinutes: {1, 5, 10, 15, 30, 60},
	UnitHours:   {1},
}

// ParseDelay converts a unit and amount into seconds. Seconds go up to 3600, minutes up
// to 60 and hours only accept 1.
func ParseDelay(unit, amount string) (int, error) {
	unit = strings.ToLower(unit)
	if _, ok := delaySuggestions[unit]; !ok {
		return 0, ErrInvalidDelayUnit
	}

	value, err := strconv.Atoi(amount)
	if err != nil {
		return 0, ErrInvalidDelayAmount
	}

	switch unit {
	case UnitSeconds:
		if value < 1 || value > 3600 {
			return 0, fmt.Errorf("%w: seconds must be between 1 and 3600", ErrDelayOutOfRange)
		}
		return value, nil
	case UnitMinutes:
		if value < 1 || value > 60 {
			return 0, fmt.Errorf("%w: minutes must be between 1 and 60", ErrDelayOutOfRange)
		}
		return value * 60, nil
	case UnitHours:
		if value != 1 {
			return 0, fmt.Errorf("%w: hours can only be set to 1", ErrDelayOutOfRange)
		}
		return 3600, nil
	}
	return 0, ErrInvalidDelayUnit
}

// commandArgs splits the text after the command itself
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

// formatUptime renders a duration like "1d 2h 3m 4s", omitting leading zero parts
func formatUptime(d time.Duration) string {
	total := int64(d / time.Second)
	days, rem := total/86400, total%86400
	hours, rem := rem/3600, rem%3600
	minutes, seconds := rem/60, rem%60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))
	return strings.Join(parts, " ")
}

func codeID(id int64) string {
	return fmt.Sprintf("<code>%d</code>", id)
}

func mentionOrID(user *platform.User, id int64) string {
	if user == nil {
		return codeID(id)
	}
	return user.Mention()
}

func formatSuggestions(unit string) string {
	values := delaySuggestions[unit]
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strconv.Itoa(v))
	}
	return fmt.Sprintf("How many %s should the deletion delay be? Send <code>/setdelay %s &lt;amount&gt;</code>.\nSuggested: %s",
		html.EscapeString(unit), html.EscapeString(unit), strings.Join(parts, ", "))
}
