package adapter

import (
	"context"
)

// EventHandler is the callback adapters use to hand inbound traffic to the
// dispatch loop. Keeping it a function type avoids a dependency cycle between
// the adapters and the ingress queue.
type EventHandler func(ctx context.Context, source string, eventType string, sessionID string, content string, metadata map[string]string) error

// InputAdapter is implemented by every inbound surface: the console reader,
// the Telegram long-poller, the Slack events server.
type InputAdapter interface {
	// Name returns the adapter name (e.g. "console", "telegram", "slack").
	Name() string

	// Start begins listening for events (e.g. starts a server or long-poll).
	// Must respect context cancellation.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the adapter.
	Stop(ctx context.Context) error

	// Health checks if the adapter is healthy and connected.
	Health(ctx context.Context) error
}

// OutputAdapter delivers assistant replies back to a platform.
type OutputAdapter interface {
	// Name returns the adapter name.
	Name() string

	// Send delivers one reply. sessionID maps to the platform-specific
	// identifier (chat ID, channel ID, the local console lane).
	Send(ctx context.Context, sessionID string, content string) error

	// Health checks if the adapter is healthy and can send messages.
	Health(ctx context.Context) error
}
