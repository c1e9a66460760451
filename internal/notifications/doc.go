// Package notifications delivers push notifications about pipeline
// outcomes. The only backend is ntfy; with no topic configured the
// service degrades to a noop so callers never branch on configuration.
package notifications
