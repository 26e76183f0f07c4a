package hyprctl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
)

// Event is one decoded frame from the Hyprland event socket. Frames arrive
// newline-delimited as `<kind>>><payload>`.
type Event struct {
	Kind    string
	Payload string
}

// connectEventKind is the synthetic first event emitted once the socket
// connection is established.
const connectEventKind = "connect"

// SocketPath derives the event socket location from the session environment.
func SocketPath() (string, error) {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	signature := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")
	if runtimeDir == "" || signature == "" {
		return "", errors.New("XDG_RUNTIME_DIR and HYPRLAND_INSTANCE_SIGNATURE must be set, is a Hyprland session running?")
	}
	return filepath.Join(runtimeDir, "hypr", signature, ".socket2.sock"), nil
}

// Subscribe connects to the session's event socket and returns a channel of
// decoded events, beginning with a synthetic connect marker. The channel is
// closed when the socket closes or ctx is cancelled; no reconnection is
// attempted.
func Subscribe(ctx context.Context, logger *slog.Logger) (<-chan Event, error) {
	path, err := SocketPath()
	if err != nil {
		return nil, err
	}
	return subscribe(ctx, path, logger)
}

func subscribe(ctx context.Context, path string, logger *slog.Logger) (<-chan Event, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("connect event socket: %w", err)
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		defer conn.Close()

		// Unblock the reader when the context is cancelled.
		stop := context.AfterFunc(ctx, func() { conn.Close() })
		defer stop()

		events <- Event{Kind: connectEventKind}

		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			kind, payload, _ := strings.Cut(scanner.Text(), ">>")
			select {
			case events <- Event{Kind: kind, Payload: payload}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			logger.Debug("event socket read error", "error", err)
		}
		logger.Debug("event socket closed")
	}()

	return events, nil
}
