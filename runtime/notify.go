package runtime

import "github.com/justapithecus/foundry/types"

// Notifier delivers user-facing notifications at terminal states.
type Notifier interface {
	Notify(severity types.Severity, message string)
}

// NoopNotifier drops notifications. Used when no surface is attached.
type NoopNotifier struct{}

// Notify implements Notifier.
func (NoopNotifier) Notify(types.Severity, string) {}
