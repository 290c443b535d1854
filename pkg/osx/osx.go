package osx

import "os"

// GetEnv returns the value of the environment variable named by key,
// or defaultValue if the variable is unset or empty.
func GetEnv(key, defaultValue string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	return v
}
