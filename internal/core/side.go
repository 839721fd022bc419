package core

import "fmt"

// Side identifies the speaker of a turn.
type Side string

const (
	// SideFor argues in favor of the topic.
	SideFor Side = "for"

	// SideAgainst argues against the topic.
	SideAgainst Side = "against"

	// SideModerator is reserved for moderator turns. It never holds the floor:
	// CurrentSide is always SideFor or SideAgainst.
	SideModerator Side = "moderator"
)

// DebaterSides returns the two argument-producing sides in speaking order.
func DebaterSides() []Side {
	return []Side{SideFor, SideAgainst}
}

// Opponent returns the opposing debater side.
// The moderator has no opponent and maps to itself.
func (s Side) Opponent() Side {
	switch s {
	case SideFor:
		return SideAgainst
	case SideAgainst:
		return SideFor
	default:
		return s
	}
}

// IsDebater reports whether the side produces arguments.
func (s Side) IsDebater() bool {
	return s == SideFor || s == SideAgainst
}

// ValidSide checks if a side string is valid.
func ValidSide(s Side) bool {
	switch s {
	case SideFor, SideAgainst, SideModerator:
		return true
	default:
		return false
	}
}

// ParseSide converts a string to a Side with validation.
func ParseSide(s string) (Side, error) {
	side := Side(s)
	if !ValidSide(side) {
		return "", fmt.Errorf("invalid side: %s", s)
	}
	return side, nil
}

// String returns the string representation of the side.
func (s Side) String() string {
	return string(s)
}
