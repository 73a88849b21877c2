package config

import "os"

// GetEnv retrieves an environment variable or returns a default value if
// not found. The scripts use this instead of loading the full viper config.
func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
