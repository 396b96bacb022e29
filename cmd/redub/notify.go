package main

import (
	"log/slog"

	"redub/internal/logging"
)

// warnNotifyFailure logs a notification delivery error. Delivery problems
// never fail the command.
func warnNotifyFailure(logger *slog.Logger, err error) {
	if err == nil {
		return
	}
	logging.WarnWithContext(logger, "notification not delivered", "notification_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		logging.String(logging.FieldImpact, "no alert was sent for this run"),
	)
}
