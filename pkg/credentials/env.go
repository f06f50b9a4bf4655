package credentials

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// EnvKeys is a comma-separated list of API keys, in priority order.
	EnvKeys = "MISHKAT_OPENAI_API_KEYS"

	// EnvKey is the single-key fallback shared with other OpenAI tooling.
	EnvKey = "OPENAI_API_KEY"
)

// KeysFromEnv loads API keys from the environment, reading a .env file first
// if one is present in the working directory. MISHKAT_OPENAI_API_KEYS takes
// precedence over OPENAI_API_KEY. Returns nil when no keys are configured.
func KeysFromEnv() []string {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	if list := os.Getenv(EnvKeys); list != "" {
		var keys []string
		for _, key := range strings.Split(list, ",") {
			if key = strings.TrimSpace(key); key != "" {
				keys = append(keys, key)
			}
		}
		if len(keys) > 0 {
			return keys
		}
	}

	if key := strings.TrimSpace(os.Getenv(EnvKey)); key != "" {
		return []string{key}
	}

	return nil
}
