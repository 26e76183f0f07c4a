// Package hyprctl wraps the hyprctl command line interface and the Hyprland
// event socket.
package hyprctl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
)

// PhysicalMonitor is one attached monitor as reported by the enumeration
// interface. Raw keeps the full decoded record so declared match rules can
// test arbitrary fields (model, serial, description, ...).
type PhysicalMonitor struct {
	Name   string
	Width  int
	Height int
	Raw    map[string]any
}

type runnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Client invokes hyprctl to enumerate monitors and to apply monitor
// configuration directives.
type Client struct {
	logger *slog.Logger
	run    runnerFunc
}

// NewClient creates a Client using the hyprctl binary on PATH.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{logger: logger, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Monitors enumerates all attached monitors via `hyprctl monitors all -j`.
// A non-zero exit or unparseable output fails the whole reconciliation pass.
func (c *Client) Monitors(ctx context.Context) ([]PhysicalMonitor, error) {
	out, err := c.run(ctx, "hyprctl", "monitors", "all", "-j")
	if err != nil {
		return nil, fmt.Errorf("hyprctl monitors: %w", err)
	}

	var records []map[string]any
	if err := json.Unmarshal(out, &records); err != nil {
		return nil, fmt.Errorf("hyprctl monitors: unexpected output: %w", err)
	}

	monitors := make([]PhysicalMonitor, 0, len(records))
	for _, rec := range records {
		pm := PhysicalMonitor{Raw: rec}
		pm.Name, _ = rec["name"].(string)
		if w, ok := rec["width"].(float64); ok {
			pm.Width = int(w)
		}
		if h, ok := rec["height"].(float64); ok {
			pm.Height = int(h)
		}
		monitors = append(monitors, pm)
	}
	return monitors, nil
}

// ApplyMonitor issues `hyprctl keyword monitor <directive>`. Only the exit
// status is consumed.
func (c *Client) ApplyMonitor(ctx context.Context, directive string) error {
	if _, err := c.run(ctx, "hyprctl", "keyword", "monitor", directive); err != nil {
		return fmt.Errorf("hyprctl keyword monitor %s: %w", directive, err)
	}
	c.logger.Debug("applied monitor configuration", "directive", directive)
	return nil
}
