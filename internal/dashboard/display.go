package dashboard

import (
	"fmt"
	"math"
	"strings"
)

// Badge is the colour family used to tag a classification value.
type Badge string

const (
	BadgeGreen  Badge = "green"
	BadgeGray   Badge = "gray"
	BadgeRed    Badge = "red"
	BadgeBlue   Badge = "blue"
	BadgeYellow Badge = "yellow"
)

// Classes returns the CSS utility classes for the badge.
func (b Badge) Classes() string {
	return fmt.Sprintf("bg-%s-100 text-%s-800", b, b)
}

// TypeBadge maps a message type onto its badge. Matching ignores case.
func TypeBadge(messageType string) Badge {
	switch strings.ToLower(messageType) {
	case "question":
		return BadgeGreen
	case "comment":
		return BadgeGray
	case "spam":
		return BadgeRed
	default:
		return BadgeBlue
	}
}

// UrgencyBadge maps an urgency level onto its badge. Matching ignores case.
func UrgencyBadge(urgency string) Badge {
	switch strings.ToLower(urgency) {
	case "high":
		return BadgeRed
	case "medium":
		return BadgeYellow
	case "low":
		return BadgeGreen
	default:
		return BadgeGray
	}
}

// Percent renders a 0..1 confidence as a whole percentage, rounding halves up.
// NaN and infinities render as 0.
func Percent(confidence float64) int {
	p := math.Floor(confidence*100 + 0.5)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return int(p)
}

func PercentLabel(confidence float64) string {
	return fmt.Sprintf("%d%%", Percent(confidence))
}

// BarWidth is Percent clamped to what a fill bar can show.
func BarWidth(confidence float64) int {
	p := Percent(confidence)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// CanGenerate reports whether the generate action is offered.
func CanGenerate(s State) bool {
	return s.Classification != nil && strings.EqualFold(s.Classification.Type, "question")
}
