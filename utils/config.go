package utils

import "brightnest/config"

// IsProduction reports whether the app runs with ENV=production.
func IsProduction() bool {
	return config.IsProduction()
}
