// Package notifications delivers reconciliation run events via ntfy.
//
// The ntfy implementation posts plain-text messages to the topic URL
// configured in config.toml and degrades to a no-op when no topic is set.
// Recorder adapts a Service to the controller's outcome hook so a run's
// start and final report are published without the reconcile package
// knowing about HTTP.
package notifications
