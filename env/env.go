package env

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var loadDotenv sync.Once

// Get returns the environment variable key, loading .env from the working
// directory the first time a variable is missing.
func Get(key string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}

	loadDotenv.Do(func() {
		// a missing .env is fine, the process environment still applies
		_ = godotenv.Load(".env")
	})

	return os.Getenv(key)
}

// Load reads the given env files without overriding variables already set.
func Load(filenames ...string) error {
	return godotenv.Load(filenames...)
}
