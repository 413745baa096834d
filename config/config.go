// Package config holds the configuration sections of the application.
// Each file registers one section from its init() function; Initialize
// exists only so importers can force those init() calls to run.
package config

// Initialize triggers the init() registrations in this package.
func Initialize() {
}
