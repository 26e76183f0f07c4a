// Package layout builds the relative-positioning graph for declared monitors
// and resolves it into absolute pixel positions.
package layout

import (
	"fmt"
	"strconv"

	"github.com/hyprmon/hyprmon/internal/config"
)

// Monitor pairs one logical monitor declaration with the physical monitor it
// matched for the current reconciliation pass. Records are built fresh on
// every pass and discarded after the apply stage.
type Monitor struct {
	// Name is the logical name from the configuration.
	Name string
	// ID is the identifier reported by the enumeration interface. It is
	// resolved by matching on every pass and never assumed stable.
	ID string

	Width  int
	Height int
	// Preferred defers the mode to the compositor's native default in place
	// of a concrete Width x Height.
	Preferred bool

	X int
	Y int
	// Auto marks a mirrored monitor that is not independently placed.
	Auto bool
	// Placed is set once the resolver has assigned a concrete position.
	Placed bool

	Scale float64
	Align config.Alignment

	// Neighbor links hold the logical names of adjacent monitors.
	// They are kept mutually consistent: if A.Right names B then B.Left
	// names A. Empty means no neighbor in that direction.
	Above string
	Below string
	Left  string
	Right string

	// Extra is appended verbatim to the apply directive (mirror target).
	Extra string
}

// Resolution returns the resolution part of the apply directive.
func (m *Monitor) Resolution() string {
	if m.Preferred {
		return "preferred"
	}
	return fmt.Sprintf("%dx%d", m.Width, m.Height)
}

// Position returns the position part of the apply directive.
func (m *Monitor) Position() string {
	if m.Auto {
		return "auto"
	}
	return fmt.Sprintf("%dx%d", m.X, m.Y)
}

// Directive builds the full argument for `hyprctl keyword monitor`:
// <id>,<resolution>,<position>,<scale>[,<extra>].
func (m *Monitor) Directive() string {
	directive := m.ID + "," + m.Resolution() + "," + m.Position() + "," +
		strconv.FormatFloat(m.Scale, 'g', -1, 64)
	if m.Extra != "" {
		directive += "," + m.Extra
	}
	return directive
}
