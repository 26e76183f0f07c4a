package layout

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hyprmon/hyprmon/internal/config"
	"github.com/hyprmon/hyprmon/internal/hyprctl"
)

// Configuration errors surfaced by graph construction.
var (
	// ErrAmbiguousMatch means a match predicate selected more than one
	// attached monitor.
	ErrAmbiguousMatch = errors.New("ambiguous monitor match")
	// ErrConflictingRelation means two declarations claim the same side of
	// the same monitor, or a mirrored monitor also carries directional
	// relations.
	ErrConflictingRelation = errors.New("conflicting monitor relations")
)

// BuildGraph matches the declared monitors against the attached monitors and
// wires the mutual directional references between the matched ones.
//
// A declaration whose predicate matches nothing is skipped for this pass, as
// is any declaration positioned relative to a skipped monitor. A predicate
// matching more than one attached monitor aborts the pass.
func BuildGraph(decls []config.MonitorDecl, physical []hyprctl.PhysicalMonitor, logger *slog.Logger) (map[string]*Monitor, error) {
	monitors := make(map[string]*Monitor, len(decls))

	for _, decl := range decls {
		phys, err := matchOne(physical, decl.Match)
		if err != nil {
			return nil, fmt.Errorf("monitor %q: %w", decl.Name, err)
		}
		if phys == nil {
			logger.Info("no attached monitor matches declaration", "monitor", decl.Name)
			continue
		}
		monitors[decl.Name] = &Monitor{
			Name:   decl.Name,
			ID:     phys.Name,
			Width:  phys.Width,
			Height: phys.Height,
			Scale:  decl.Scale,
			Align:  decl.Align,
		}
	}

	dropAbsentChains(decls, monitors, logger)

	for _, decl := range decls {
		m, ok := monitors[decl.Name]
		if !ok || decl.Position == nil {
			continue
		}
		target := monitors[decl.Position.Target]

		switch decl.Position.Kind {
		case config.RelationAbove:
			if err := wire(m, &m.Below, "below", target, &target.Above, "above"); err != nil {
				return nil, err
			}
		case config.RelationBelow:
			if err := wire(m, &m.Above, "above", target, &target.Below, "below"); err != nil {
				return nil, err
			}
		case config.RelationLeftOf:
			if err := wire(m, &m.Right, "right", target, &target.Left, "left"); err != nil {
				return nil, err
			}
		case config.RelationRightOf:
			if err := wire(m, &m.Left, "left", target, &target.Right, "right"); err != nil {
				return nil, err
			}
		case config.RelationSameAs:
			m.Auto = true
			m.Preferred = true
			m.Scale = 1
			m.Extra = "mirror," + target.ID
		}
	}

	// A mirrored monitor is not independently placed, so nothing may be
	// positioned relative to it and it may not carry directional relations
	// of its own.
	for _, m := range monitors {
		if m.Auto && (m.Above != "" || m.Below != "" || m.Left != "" || m.Right != "") {
			return nil, fmt.Errorf("%w: monitor %q mirrors another monitor and cannot have directional relations", ErrConflictingRelation, m.Name)
		}
	}

	return monitors, nil
}

// matchOne returns the single attached monitor satisfying every rule, nil if
// none does, and ErrAmbiguousMatch if more than one does.
func matchOne(physical []hyprctl.PhysicalMonitor, rules []config.MatchRule) (*hyprctl.PhysicalMonitor, error) {
	var selected *hyprctl.PhysicalMonitor
	for i := range physical {
		if !matches(&physical[i], rules) {
			continue
		}
		if selected != nil {
			return nil, fmt.Errorf("%w: both %q and %q satisfy the match rules, provide a more specific match",
				ErrAmbiguousMatch, selected.Name, physical[i].Name)
		}
		selected = &physical[i]
	}
	return selected, nil
}

func matches(phys *hyprctl.PhysicalMonitor, rules []config.MatchRule) bool {
	for _, rule := range rules {
		got, ok := phys.Raw[rule.Key]
		if !ok || !valuesEqual(got, rule.Value) {
			return false
		}
	}
	return true
}

// valuesEqual compares an enumerated record field with a declared match value.
// The enumeration decodes numbers as float64 while the config may carry ints,
// so numeric values are compared numerically.
func valuesEqual(got, want any) bool {
	gf, gok := toFloat(got)
	wf, wok := toFloat(want)
	if gok || wok {
		return gok && wok && gf == wf
	}
	return fmt.Sprint(got) == fmt.Sprint(want)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// dropAbsentChains removes matched monitors whose relation target is absent
// for this pass. Removal can cascade: a monitor positioned relative to a
// dropped monitor is dropped as well.
func dropAbsentChains(decls []config.MonitorDecl, monitors map[string]*Monitor, logger *slog.Logger) {
	for changed := true; changed; {
		changed = false
		for _, decl := range decls {
			if decl.Position == nil || monitors[decl.Name] == nil {
				continue
			}
			if monitors[decl.Position.Target] == nil {
				logger.Info("skipping monitor, relation target is not attached",
					"monitor", decl.Name, "target", decl.Position.Target)
				delete(monitors, decl.Name)
				changed = true
			}
		}
	}
}

// wire sets the mutual directional reference between m and target, rejecting
// a side that is already claimed by a different monitor.
func wire(m *Monitor, mSide *string, mDir string, target *Monitor, targetSide *string, targetDir string) error {
	if *mSide != "" && *mSide != target.Name {
		return fmt.Errorf("%w: monitor %q already has %q to its %s", ErrConflictingRelation, m.Name, *mSide, mDir)
	}
	if *targetSide != "" && *targetSide != m.Name {
		return fmt.Errorf("%w: monitor %q already has %q %s of it", ErrConflictingRelation, target.Name, *targetSide, targetDir)
	}
	*mSide = target.Name
	*targetSide = m.Name
	return nil
}
