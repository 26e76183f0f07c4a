package daemon

import (
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsBusName   = "org.freedesktop.Notifications"
	notificationsInterface = "org.freedesktop.Notifications"
	notificationsPath      = "/org/freedesktop/Notifications"

	// notifyTitle is the fixed summary line of every notification.
	notifyTitle = "hyprmon"
)

// Notifier sends desktop notifications through the session's
// org.freedesktop.Notifications service. Delivery is best-effort: a missing
// session bus or notification daemon is tolerated silently.
type Notifier struct {
	logger *slog.Logger
}

// NewNotifier creates a new Notifier.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{logger: logger}
}

// Send delivers a notification with the fixed hyprmon title and the given
// body. All failures are logged at debug level and swallowed.
func (n *Notifier) Send(body string) {
	conn, err := dbus.SessionBus()
	if err != nil {
		n.logger.Debug("session bus unavailable, skipping desktop notification", "error", err)
		return
	}

	// Notify(app_name, replaces_id, app_icon, summary, body, actions,
	// hints, expire_timeout) per the freedesktop notification spec.
	obj := conn.Object(notificationsBusName, notificationsPath)
	call := obj.Call(notificationsInterface+".Notify", 0,
		notifyTitle, uint32(0), "", notifyTitle, body,
		[]string{}, map[string]dbus.Variant{}, int32(-1))
	if call.Err != nil {
		n.logger.Debug("failed to send desktop notification", "error", call.Err)
	}
}
