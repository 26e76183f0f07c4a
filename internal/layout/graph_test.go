package layout

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyprmon/hyprmon/internal/config"
	"github.com/hyprmon/hyprmon/internal/hyprctl"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// phys builds an enumeration record the way the hyprctl JSON decoder would:
// numbers as float64, everything reachable through Raw.
func phys(name string, width, height int, fields map[string]any) hyprctl.PhysicalMonitor {
	raw := map[string]any{
		"name":   name,
		"width":  float64(width),
		"height": float64(height),
	}
	for k, v := range fields {
		raw[k] = v
	}
	return hyprctl.PhysicalMonitor{Name: name, Width: width, Height: height, Raw: raw}
}

func decl(name string, match []config.MatchRule, position *config.Relation) config.MonitorDecl {
	return config.MonitorDecl{
		Name:     name,
		Match:    match,
		Position: position,
		Align:    config.AlignCenter,
		Scale:    1,
	}
}

func rel(kind config.RelationKind, target string) *config.Relation {
	return &config.Relation{Kind: kind, Target: target}
}

func TestBuildGraph_MatchesAndWires(t *testing.T) {
	physical := []hyprctl.PhysicalMonitor{
		phys("eDP-1", 1920, 1080, map[string]any{"model": "laptop-panel"}),
		phys("DP-1", 2560, 1440, map[string]any{"model": "DELL U2720Q"}),
	}
	decls := []config.MonitorDecl{
		decl("main", []config.MatchRule{{Key: "model", Value: "DELL U2720Q"}}, nil),
		decl("laptop", []config.MatchRule{{Key: "model", Value: "laptop-panel"}}, rel(config.RelationLeftOf, "main")),
	}

	monitors, err := BuildGraph(decls, physical, testLogger())
	require.NoError(t, err)
	require.Len(t, monitors, 2)

	main := monitors["main"]
	laptop := monitors["laptop"]
	assert.Equal(t, "DP-1", main.ID)
	assert.Equal(t, 2560, main.Width)
	assert.Equal(t, 1440, main.Height)
	assert.Equal(t, "eDP-1", laptop.ID)

	// left-of wires both directions.
	assert.Equal(t, "main", laptop.Right)
	assert.Equal(t, "laptop", main.Left)
	assert.Empty(t, main.Right)
	assert.Empty(t, laptop.Left)
}

func TestBuildGraph_DirectionalWiring(t *testing.T) {
	physical := []hyprctl.PhysicalMonitor{
		phys("DP-1", 1920, 1080, nil),
		phys("DP-2", 1920, 1080, nil),
	}
	match1 := []config.MatchRule{{Key: "name", Value: "DP-1"}}
	match2 := []config.MatchRule{{Key: "name", Value: "DP-2"}}

	tests := []struct {
		kind  config.RelationKind
		check func(t *testing.T, a, b *Monitor)
	}{
		{config.RelationAbove, func(t *testing.T, a, b *Monitor) {
			assert.Equal(t, "b", a.Below)
			assert.Equal(t, "a", b.Above)
		}},
		{config.RelationBelow, func(t *testing.T, a, b *Monitor) {
			assert.Equal(t, "b", a.Above)
			assert.Equal(t, "a", b.Below)
		}},
		{config.RelationLeftOf, func(t *testing.T, a, b *Monitor) {
			assert.Equal(t, "b", a.Right)
			assert.Equal(t, "a", b.Left)
		}},
		{config.RelationRightOf, func(t *testing.T, a, b *Monitor) {
			assert.Equal(t, "b", a.Left)
			assert.Equal(t, "a", b.Right)
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			decls := []config.MonitorDecl{
				decl("b", match2, nil),
				decl("a", match1, rel(tt.kind, "b")),
			}
			monitors, err := BuildGraph(decls, physical, testLogger())
			require.NoError(t, err)
			tt.check(t, monitors["a"], monitors["b"])
		})
	}
}

func TestBuildGraph_AmbiguousMatchIsFatal(t *testing.T) {
	physical := []hyprctl.PhysicalMonitor{
		phys("DP-1", 1920, 1080, map[string]any{"vendor": "BNQ"}),
		phys("DP-2", 1920, 1080, map[string]any{"vendor": "BNQ"}),
	}
	decls := []config.MonitorDecl{
		decl("any", []config.MatchRule{{Key: "vendor", Value: "BNQ"}}, nil),
	}

	_, err := BuildGraph(decls, physical, testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousMatch)
}

func TestBuildGraph_UnmatchedDeclarationIsSkipped(t *testing.T) {
	physical := []hyprctl.PhysicalMonitor{
		phys("eDP-1", 1920, 1080, nil),
	}
	decls := []config.MonitorDecl{
		decl("laptop", []config.MatchRule{{Key: "name", Value: "eDP-1"}}, nil),
		decl("docked", []config.MatchRule{{Key: "name", Value: "DP-3"}}, nil),
	}

	monitors, err := BuildGraph(decls, physical, testLogger())
	require.NoError(t, err)
	assert.Len(t, monitors, 1)
	assert.Contains(t, monitors, "laptop")
}

func TestBuildGraph_RelationOntoAbsentTargetSkipsReferrer(t *testing.T) {
	physical := []hyprctl.PhysicalMonitor{
		phys("eDP-1", 1920, 1080, nil),
		phys("DP-1", 1920, 1080, nil),
		phys("DP-2", 1920, 1080, nil),
	}
	decls := []config.MonitorDecl{
		decl("laptop", []config.MatchRule{{Key: "name", Value: "eDP-1"}}, nil),
		// ghost never matches, so x is skipped, and so is y which hangs
		// off x.
		decl("ghost", []config.MatchRule{{Key: "name", Value: "DP-9"}}, nil),
		decl("x", []config.MatchRule{{Key: "name", Value: "DP-1"}}, rel(config.RelationRightOf, "ghost")),
		decl("y", []config.MatchRule{{Key: "name", Value: "DP-2"}}, rel(config.RelationRightOf, "x")),
	}

	monitors, err := BuildGraph(decls, physical, testLogger())
	require.NoError(t, err)
	assert.Len(t, monitors, 1)
	assert.Contains(t, monitors, "laptop")
}

func TestBuildGraph_SameAs(t *testing.T) {
	physical := []hyprctl.PhysicalMonitor{
		phys("eDP-1", 1920, 1080, nil),
		phys("HDMI-A-1", 1280, 720, nil),
	}
	decls := []config.MonitorDecl{
		decl("laptop", []config.MatchRule{{Key: "name", Value: "eDP-1"}}, nil),
		{
			Name:     "beamer",
			Match:    []config.MatchRule{{Key: "name", Value: "HDMI-A-1"}},
			Position: rel(config.RelationSameAs, "laptop"),
			Align:    config.AlignTop,
			Scale:    2,
		},
	}

	monitors, err := BuildGraph(decls, physical, testLogger())
	require.NoError(t, err)

	beamer := monitors["beamer"]
	assert.True(t, beamer.Auto)
	assert.True(t, beamer.Preferred)
	assert.Equal(t, 1.0, beamer.Scale)
	assert.Equal(t, "mirror,eDP-1", beamer.Extra)
	assert.Equal(t, "preferred", beamer.Resolution())
	assert.Equal(t, "auto", beamer.Position())
}

func TestBuildGraph_SameAsWithDirectionalRelationIsFatal(t *testing.T) {
	physical := []hyprctl.PhysicalMonitor{
		phys("eDP-1", 1920, 1080, nil),
		phys("HDMI-A-1", 1280, 720, nil),
		phys("DP-1", 1920, 1080, nil),
	}
	decls := []config.MonitorDecl{
		decl("laptop", []config.MatchRule{{Key: "name", Value: "eDP-1"}}, nil),
		decl("beamer", []config.MatchRule{{Key: "name", Value: "HDMI-A-1"}}, rel(config.RelationSameAs, "laptop")),
		decl("side", []config.MatchRule{{Key: "name", Value: "DP-1"}}, rel(config.RelationRightOf, "beamer")),
	}

	_, err := BuildGraph(decls, physical, testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflictingRelation)
}

func TestBuildGraph_ConflictingSideIsFatal(t *testing.T) {
	physical := []hyprctl.PhysicalMonitor{
		phys("DP-1", 1920, 1080, nil),
		phys("DP-2", 1920, 1080, nil),
		phys("DP-3", 1920, 1080, nil),
	}
	decls := []config.MonitorDecl{
		decl("main", []config.MatchRule{{Key: "name", Value: "DP-1"}}, nil),
		decl("a", []config.MatchRule{{Key: "name", Value: "DP-2"}}, rel(config.RelationRightOf, "main")),
		decl("b", []config.MatchRule{{Key: "name", Value: "DP-3"}}, rel(config.RelationRightOf, "main")),
	}

	_, err := BuildGraph(decls, physical, testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflictingRelation)
}

func TestBuildGraph_NumericMatchValues(t *testing.T) {
	physical := []hyprctl.PhysicalMonitor{
		phys("DP-1", 3840, 2160, nil),
		phys("DP-2", 1920, 1080, nil),
	}
	// The config decodes 3840 as int, the enumeration as float64.
	decls := []config.MonitorDecl{
		decl("uhd", []config.MatchRule{{Key: "width", Value: 3840}}, nil),
	}

	monitors, err := BuildGraph(decls, physical, testLogger())
	require.NoError(t, err)
	require.Contains(t, monitors, "uhd")
	assert.Equal(t, "DP-1", monitors["uhd"].ID)
}
