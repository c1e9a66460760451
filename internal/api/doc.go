// Package api defines wire-format types and converters for the HTTP
// API layer. It translates internal queue models into transport-friendly
// DTOs so clients poll job state without coupling to internal types.
//
// DTOs use camelCase JSON tags. Internal enums (queue.Status) are exposed
// as lowercase strings. Timestamps use RFC3339 with milliseconds. Stage
// artifacts can be inlined as json.RawMessage on request so pollers get
// transcript and scoring payloads in a single round trip.
package api
