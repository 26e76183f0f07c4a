package layout

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hyprmon/hyprmon/internal/config"
)

// Configuration errors surfaced by layout resolution.
var (
	// ErrNoAnchor means no monitor qualifies as the layout origin: every
	// non-mirrored monitor has something above or left of it.
	ErrNoAnchor = errors.New("layout has no anchor monitor")
	// ErrUnreachable means a monitor cannot be reached from the anchor
	// through right/below chains and therefore never gets a position.
	ErrUnreachable = errors.New("monitor unreachable from layout anchor")
)

// Resolve computes absolute positions for every non-mirrored monitor,
// starting from the anchor at (0,0) and walking right/below chains, then
// shifts the layout so no monitor sits at a negative coordinate.
//
// Resolving the same graph twice yields identical positions.
func Resolve(monitors map[string]*Monitor, logger *slog.Logger) error {
	// Start from a clean slate so resolving an already-resolved graph
	// recomputes every position instead of trusting stale state.
	for _, m := range monitors {
		m.Placed = false
		if !m.Auto {
			m.X, m.Y = 0, 0
		}
	}

	anchor := findAnchor(monitors)
	if anchor == nil {
		return ErrNoAnchor
	}

	// Explicit worklist traversal. The anchor has no above/left neighbor,
	// so every placeable monitor is reachable through right/below steps
	// from something already placed.
	anchor.X, anchor.Y = 0, 0
	anchor.Placed = true
	stack := []*Monitor{anchor}
	for len(stack) > 0 {
		m := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if r := monitors[m.Right]; m.Right != "" && r != nil && !r.Placed {
			r.X = m.X + m.Width
			r.Y = m.Y + verticalOffset(m, r, logger)
			r.Placed = true
			stack = append(stack, r)
		}
		if d := monitors[m.Below]; m.Below != "" && d != nil && !d.Placed {
			d.X = m.X + horizontalOffset(m, d, logger)
			d.Y = m.Y + m.Height
			d.Placed = true
			stack = append(stack, d)
		}
	}

	for _, name := range sortedNames(monitors) {
		m := monitors[name]
		if !m.Auto && !m.Placed {
			return fmt.Errorf("%w: %q", ErrUnreachable, name)
		}
	}

	normalize(monitors)
	return nil
}

// findAnchor returns the monitor that serves as the layout origin: not
// mirrored, with neither an above nor a left neighbor. Names are scanned in
// sorted order so the pick is deterministic; a spurious second candidate is
// caught afterwards as unreachable.
func findAnchor(monitors map[string]*Monitor) *Monitor {
	for _, name := range sortedNames(monitors) {
		m := monitors[name]
		if !m.Auto && m.Above == "" && m.Left == "" {
			return m
		}
	}
	return nil
}

// verticalOffset aligns a right-neighbor r against m. Alignment values that
// make no sense on a horizontal edge fall back to center with a warning.
func verticalOffset(m, r *Monitor, logger *slog.Logger) int {
	switch r.Align {
	case config.AlignTop:
		return 0
	case config.AlignBottom:
		return m.Height - r.Height
	default:
		if r.Align != config.AlignCenter {
			logger.Warn("align value not applicable to a right neighbor, using center",
				"monitor", r.Name, "align", r.Align)
		}
		return floorDiv(m.Height-r.Height, 2)
	}
}

// horizontalOffset aligns a below-neighbor d against m.
func horizontalOffset(m, d *Monitor, logger *slog.Logger) int {
	switch d.Align {
	case config.AlignLeft:
		return 0
	case config.AlignRight:
		return m.Width - d.Width
	default:
		if d.Align != config.AlignCenter {
			logger.Warn("align value not applicable to a below neighbor, using center",
				"monitor", d.Name, "align", d.Align)
		}
		return floorDiv(m.Width-d.Width, 2)
	}
}

// floorDiv divides rounding toward negative infinity. Go's / truncates, which
// would center a neighbor larger by an odd pixel count one pixel off.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// normalize shifts the layout to be zero-based. The x and y shifts are
// computed and applied independently of each other.
func normalize(monitors map[string]*Monitor) {
	minX, minY := 0, 0
	for _, m := range monitors {
		if m.Auto {
			continue
		}
		if m.X < minX {
			minX = m.X
		}
		if m.Y < minY {
			minY = m.Y
		}
	}
	if minX < 0 {
		for _, m := range monitors {
			if !m.Auto {
				m.X -= minX
			}
		}
	}
	if minY < 0 {
		for _, m := range monitors {
			if !m.Auto {
				m.Y -= minY
			}
		}
	}
}

func sortedNames(monitors map[string]*Monitor) []string {
	names := make([]string, 0, len(monitors))
	for name := range monitors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
