// Package pkg holds the defaults shared by configuration loading and the
// HTTP layer.
package pkg

import "time"

// Configuration defaults
const (
	DefaultUploadDir          = "./uploads"
	DefaultHost               = "0.0.0.0"
	DefaultPort               = 5000
	DefaultCORSOrigins        = "*"
	DefaultMaxUploadSize      = "512MB"
	DefaultArchiveMemoryLimit = "64MB"
)

// API Server Defaults
const (
	DefaultCORSMaxAge        = 12 * time.Hour
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second
)

// OrDefault returns value, or defaultValue when value is the zero value.
func OrDefault[T comparable](value, defaultValue T) T {
	var zero T
	if value == zero {
		return defaultValue
	}
	return value
}
