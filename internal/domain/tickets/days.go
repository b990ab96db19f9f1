package tickets

import (
	"fmt"
	"strings"
)

// Day is one of the five conference days. The zero-based index follows the
// running order of the conference, not the ISO week.
type Day string

const (
	Thursday Day = "thu"
	Friday   Day = "fri"
	Saturday Day = "sat"
	Sunday   Day = "sun"
	Monday   Day = "mon"
)

var allDays = []Day{Thursday, Friday, Saturday, Sunday, Monday}

var displayNames = map[Day]string{
	Thursday: "Thursday",
	Friday:   "Friday",
	Saturday: "Saturday",
	Sunday:   "Sunday",
	Monday:   "Monday",
}

// AllDays returns the conference days in running order.
func AllDays() []Day {
	days := make([]Day, len(allDays))
	copy(days, allDays)
	return days
}

func (d Day) Valid() bool {
	_, ok := displayNames[d]
	return ok
}

func (d Day) DisplayName() string {
	return displayNames[d]
}

// ParseDays validates and normalises a day selection: unknown days are
// rejected, duplicates collapsed, and the result ordered by running order.
// An empty selection is rejected, a ticket must cover at least one day.
func ParseDays(raw []string) ([]Day, error) {
	selected := make(map[Day]bool, len(raw))
	for _, s := range raw {
		day := Day(strings.ToLower(strings.TrimSpace(s)))
		if !day.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDay, s)
		}
		selected[day] = true
	}
	if len(selected) == 0 {
		return nil, ErrNoDaysSelected
	}

	days := make([]Day, 0, len(selected))
	for _, day := range allDays {
		if selected[day] {
			days = append(days, day)
		}
	}
	return days, nil
}

// FormatDays renders a selection for mails and API responses,
// e.g. "Thursday, Friday".
func FormatDays(days []Day) string {
	names := make([]string, 0, len(days))
	for _, day := range days {
		names = append(names, day.DisplayName())
	}
	return strings.Join(names, ", ")
}
