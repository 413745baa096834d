// Package app provides small helpers about the running application.
package app

import (
	"time"

	"github.com/AlexYAT/vedic-astrologer-bot/pkg/config"
)

// IsLocal reports whether the app runs in the local environment.
func IsLocal() bool {
	return config.Get("app.env") == "local"
}

// IsProduction reports whether the app runs in production.
func IsProduction() bool {
	return config.Get("app.env") == "production"
}

// IsTesting reports whether the app runs in the testing environment.
func IsTesting() bool {
	return config.Get("app.env") == "testing"
}

// TimenowInTimezone returns the current time in the configured timezone.
func TimenowInTimezone() time.Time {
	tz, _ := time.LoadLocation(config.GetString("app.timezone"))
	return time.Now().In(tz)
}
