// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// UserAgent is sent with every catalog request.
func UserAgent() string {
	return "ls-exoquest/" + Version + " (Exoplanet Explorer)"
}

// Milestones:
// 0.3.0 - Prometheus metrics and OpenTelemetry spans for catalog requests, YAML export
// 0.2.0 - Mission filter, planet details panel, summary statistics
// 0.1.0 - Initial release: catalog browser, orbit scene, headless stars/scene commands
