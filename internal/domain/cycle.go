// Package domain contains pure, dependency-free domain models and rules
// for the funding aggregation and scoring engine.
package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// earliestCycle is the oldest filing year the engine accepts.
// Bulk filing data before this point is not loaded into the ledger.
const earliestCycle = 1980

// CycleSelector identifies the set of election cycles a query covers.
// A cycle is a two-year election period identified by its even filing
// year (for example 2024). The zero value selects nothing and fails
// validation; use Cycles or AllCycles to construct a selector.
type CycleSelector struct {
	// All selects every cycle present in the ledger. When All is true,
	// Years must be empty.
	All bool `json:"all,omitempty"`

	// Years lists the specific even filing years to include.
	// Years are deduplicated and sorted by Normalize.
	Years []int `json:"years,omitempty"`
}

// Cycles returns a selector covering exactly the given filing years.
func Cycles(years ...int) CycleSelector {
	s := CycleSelector{Years: append([]int(nil), years...)}
	s.normalize()
	return s
}

// AllCycles returns a selector covering every cycle in the ledger.
func AllCycles() CycleSelector { return CycleSelector{All: true} }

// normalize deduplicates and sorts the year list so two selectors over
// the same cycles compare equal and produce identical query plans.
func (s *CycleSelector) normalize() {
	if len(s.Years) == 0 {
		return
	}
	seen := make(map[int]struct{}, len(s.Years))
	years := s.Years[:0]
	for _, y := range s.Years {
		if _, dup := seen[y]; dup {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, y)
	}
	sort.Ints(years)
	s.Years = years
}

// Validate reports whether the selector identifies a usable cycle set.
// A selector must either request all cycles or name at least one even
// filing year no older than the ledger's earliest loaded cycle.
func (s CycleSelector) Validate() error {
	if s.All {
		if len(s.Years) > 0 {
			return fmt.Errorf("%w: cycle selector cannot combine all with explicit years", ErrInvalidCycle)
		}
		return nil
	}
	if len(s.Years) == 0 {
		return fmt.Errorf("%w: cycle selector requires at least one year", ErrInvalidCycle)
	}
	for _, y := range s.Years {
		if y%2 != 0 {
			return fmt.Errorf("%w: %d is not an even filing year", ErrInvalidCycle, y)
		}
		if y < earliestCycle {
			return fmt.Errorf("%w: %d predates the earliest loaded cycle %d", ErrInvalidCycle, y, earliestCycle)
		}
	}
	return nil
}

// Matches reports whether the given filing year falls inside the
// selector.
func (s CycleSelector) Matches(year int) bool {
	if s.All {
		return true
	}
	for _, y := range s.Years {
		if y == year {
			return true
		}
	}
	return false
}

// Resolve returns the concrete cycle list for this selector, using
// available as the universe when the selector covers all cycles.
// The result is deduplicated and ascending.
func (s CycleSelector) Resolve(available []int) []int {
	if s.All {
		out := append([]int(nil), available...)
		sel := CycleSelector{Years: out}
		sel.normalize()
		return sel.Years
	}
	sel := CycleSelector{Years: append([]int(nil), s.Years...)}
	sel.normalize()
	return sel.Years
}

// ParseCycles parses the textual form produced by String: "all" or a
// comma-separated list of filing years. The result is validated.
func ParseCycles(s string) (CycleSelector, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return AllCycles(), nil
	}
	if s == "" {
		return CycleSelector{}, fmt.Errorf("%w: cycle selector requires at least one year", ErrInvalidCycle)
	}
	var years []int
	for _, part := range strings.Split(s, ",") {
		year, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return CycleSelector{}, fmt.Errorf("%w: %q is not a filing year", ErrInvalidCycle, part)
		}
		years = append(years, year)
	}
	sel := Cycles(years...)
	if err := sel.Validate(); err != nil {
		return CycleSelector{}, err
	}
	return sel, nil
}

// String renders the selector for logs and cache keys.
func (s CycleSelector) String() string {
	if s.All {
		return "all"
	}
	parts := make([]string, len(s.Years))
	for i, y := range s.Years {
		parts[i] = strconv.Itoa(y)
	}
	return strings.Join(parts, ",")
}
