package course

import (
	"strconv"
	"strings"
)

// TotalDuration reduces every subsection duration in the view to one display
// string. Durations are second counts stored as strings; a value that does
// not parse to a non-negative integer counts as zero so one malformed record
// never poisons the total.
func TotalDuration(v View) string {
	total := 0
	for _, sec := range v.Content {
		for _, sub := range sec.SubSections {
			secs, err := strconv.Atoi(strings.TrimSpace(sub.Duration))
			if err != nil || secs < 0 {
				continue
			}
			total += secs
		}
	}

	return FormatSeconds(total)
}

// FormatSeconds renders a second count as "XhYmZs", omitting zero components.
// Zero renders as "0s".
func FormatSeconds(total int) string {
	if total <= 0 {
		return "0s"
	}

	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	parts := make([]string, 0, 3)
	if hours > 0 {
		parts = append(parts, strconv.Itoa(hours)+"h")
	}
	if minutes > 0 {
		parts = append(parts, strconv.Itoa(minutes)+"m")
	}
	if seconds > 0 {
		parts = append(parts, strconv.Itoa(seconds)+"s")
	}

	return strings.Join(parts, " ")
}
