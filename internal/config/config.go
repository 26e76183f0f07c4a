// Package config handles loading and validating the declared monitor layout.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Alignment controls how a monitor lines up against the neighbor it is
// attached to when the two differ in size.
type Alignment string

// Valid alignment values.
const (
	AlignLeft   Alignment = "left"
	AlignRight  Alignment = "right"
	AlignTop    Alignment = "top"
	AlignBottom Alignment = "bottom"
	AlignCenter Alignment = "center"
)

// Valid reports whether a is one of the recognized alignment values.
func (a Alignment) Valid() bool {
	switch a {
	case AlignLeft, AlignRight, AlignTop, AlignBottom, AlignCenter:
		return true
	}
	return false
}

// RelationKind identifies how a monitor is positioned relative to another.
type RelationKind string

// Relation kinds accepted in the position directive.
const (
	RelationAbove   RelationKind = "above"
	RelationBelow   RelationKind = "below"
	RelationLeftOf  RelationKind = "left-of"
	RelationRightOf RelationKind = "right-of"
	RelationSameAs  RelationKind = "same-as"
)

// Relation is a parsed position directive such as "right-of main".
// Directives are parsed once at load time; nothing downstream re-parses
// the directive string.
type Relation struct {
	Kind   RelationKind
	Target string
}

// MatchRule is a single required key/value equality against a physically
// enumerated monitor record.
type MatchRule struct {
	Key   string
	Value any
}

// MonitorDecl is one logical monitor declaration from the config file.
type MonitorDecl struct {
	Name     string
	Match    []MatchRule
	Position *Relation
	Align    Alignment
	Scale    float64
}

// Config is the full declared configuration. Monitors preserves the
// declaration order of the document.
type Config struct {
	Monitors []MonitorDecl
}

// rawMonitor mirrors the YAML shape of a single monitor entry.
type rawMonitor struct {
	Match    []map[string]any `yaml:"match"`
	Position string           `yaml:"position"`
	Align    string           `yaml:"align"`
	Scale    *float64         `yaml:"scale"`
}

type rawConfig struct {
	Monitors yaml.Node `yaml:"monitors"`
}

// ConfigPath returns the default path of the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "hyprmon", "config.yaml")
}

// Load reads and validates the configuration at path. The file is read in
// full on every call; there is no caching between reconciliation passes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if raw.Monitors.Kind == 0 {
		return nil, errors.New("invalid config: missing monitors section")
	}
	if raw.Monitors.Kind != yaml.MappingNode {
		return nil, errors.New("invalid config: monitors must be a mapping of name to declaration")
	}

	cfg := &Config{}
	seen := make(map[string]bool)

	// Walk the mapping node directly so declaration order is preserved.
	for i := 0; i < len(raw.Monitors.Content); i += 2 {
		nameNode := raw.Monitors.Content[i]
		declNode := raw.Monitors.Content[i+1]

		name := nameNode.Value
		if seen[name] {
			return nil, fmt.Errorf("invalid config: duplicate monitor %q", name)
		}
		seen[name] = true

		var rm rawMonitor
		if err := declNode.Decode(&rm); err != nil {
			return nil, fmt.Errorf("invalid config: monitor %q: %w", name, err)
		}

		decl, err := buildDecl(name, rm)
		if err != nil {
			return nil, err
		}
		cfg.Monitors = append(cfg.Monitors, decl)
	}

	// Relation targets must name declared monitors. Whether the target is
	// physically present is decided per reconciliation pass, not here.
	for _, decl := range cfg.Monitors {
		if decl.Position == nil {
			continue
		}
		if decl.Position.Target == decl.Name {
			return nil, fmt.Errorf("invalid config: monitor %q is positioned relative to itself", decl.Name)
		}
		if !seen[decl.Position.Target] {
			return nil, fmt.Errorf("invalid config: monitor %q references undeclared monitor %q",
				decl.Name, decl.Position.Target)
		}
	}

	return cfg, nil
}

func buildDecl(name string, rm rawMonitor) (MonitorDecl, error) {
	decl := MonitorDecl{
		Name:  name,
		Align: AlignCenter,
		Scale: 1,
	}

	if len(rm.Match) == 0 {
		return decl, fmt.Errorf("invalid config: monitor %q has no match rules", name)
	}
	for _, entry := range rm.Match {
		if len(entry) != 1 {
			return decl, fmt.Errorf("invalid config: monitor %q: each match entry must hold exactly one key", name)
		}
		for k, v := range entry {
			decl.Match = append(decl.Match, MatchRule{Key: k, Value: v})
		}
	}

	if rm.Position != "" {
		rel, err := ParseRelation(rm.Position)
		if err != nil {
			return decl, fmt.Errorf("invalid config: monitor %q: %w", name, err)
		}
		decl.Position = &rel
	}

	if rm.Align != "" {
		align := Alignment(rm.Align)
		if !align.Valid() {
			return decl, fmt.Errorf("invalid config: monitor %q: invalid align value %q", name, rm.Align)
		}
		decl.Align = align
	}

	if rm.Scale != nil {
		if *rm.Scale <= 0 {
			return decl, fmt.Errorf("invalid config: monitor %q: scale must be positive", name)
		}
		decl.Scale = *rm.Scale
	}

	return decl, nil
}

// ParseRelation parses a position directive of the form "<relation> <monitor>".
func ParseRelation(s string) (Relation, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Relation{}, fmt.Errorf("position directive %q must be \"<relation> <monitor>\"", s)
	}
	kind := RelationKind(fields[0])
	switch kind {
	case RelationAbove, RelationBelow, RelationLeftOf, RelationRightOf, RelationSameAs:
		return Relation{Kind: kind, Target: fields[1]}, nil
	default:
		return Relation{}, fmt.Errorf("unknown relation %q in position directive %q", fields[0], s)
	}
}
