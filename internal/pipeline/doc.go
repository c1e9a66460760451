// Package pipeline coordinates job processing. A fixed pool of workers
// claims queued jobs from the store and drives each one through the
// registered stages in order, persisting every status transition so
// clients polling the API always see a consistent snapshot.
package pipeline
