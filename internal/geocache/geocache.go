// Package geocache remembers provider location keys per city name so a
// repeated city costs one HTTP call less. Every backend satisfies
// forecast.KeyCache and treats city names case-insensitively.
package geocache

import "strings"

// Backend names accepted in configuration.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Normalize folds a city name into its cache key.
func Normalize(city string) string {
	return strings.ToLower(strings.Join(strings.Fields(city), " "))
}
