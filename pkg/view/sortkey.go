package view

import (
	"fmt"
	"strings"
)

// Direction is the ordering applied by a SortKey.
type Direction int

const (
	Ascending  Direction = iota // ▲ ascending
	Descending                  // ▼ descending
)

// String returns a human-readable label for the direction.
func (d Direction) String() string {
	if d == Ascending {
		return "Ascending"
	}
	return "Descending"
}

// Indicator returns the arrow indicator for the direction.
func (d Direction) Indicator() string {
	if d == Ascending {
		return "▲"
	}
	return "▼"
}

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

// ParseDirection accepts "asc", "ascending", "desc" and "descending" in any
// case. The empty string means Ascending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("view: unknown sort direction %q", s)
	}
}

// SortKey is one unit of a multi-key ordering.
type SortKey struct {
	// Field names the item field to compare. Empty compares items directly.
	Field string
	// Direction flips the comparison result when Descending.
	Direction Direction
	// Compare overrides the natural ordering of the resolved values.
	Compare func(a, b any) int
}

// Asc returns an ascending key on field.
func Asc(field string) SortKey {
	return SortKey{Field: field, Direction: Ascending}
}

// Desc returns a descending key on field.
func Desc(field string) SortKey {
	return SortKey{Field: field, Direction: Descending}
}

// String renders the key as e.g. "Priority▲".
func (k SortKey) String() string {
	name := k.Field
	if name == "" {
		name = "(item)"
	}
	return name + k.Direction.Indicator()
}
