// Package preflight verifies the daemon's runtime environment before
// job processing starts: external tool binaries, directory permissions,
// and free disk space for stage artifacts. Failures are reported, not
// fatal; the daemon starts degraded and surfaces them over the API.
package preflight
