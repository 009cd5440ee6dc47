// Package auth resolves the credential for the xAI chat-completions API.
package auth

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// APIKeyEnv is the environment variable holding the xAI bearer token.
const APIKeyEnv = "XAI_API_KEY"

// ConfigurationError reports a missing or unusable startup setting.
// It is fatal: the process must not accept any work after seeing one.
type ConfigurationError struct {
	Setting string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Message)
}

// GetAPIKey reads the API key from XAI_API_KEY.
func GetAPIKey() (string, error) {
	return lookupAPIKey(os.Getenv)
}

func lookupAPIKey(getenv func(string) string) (string, error) {
	key := strings.TrimSpace(getenv(APIKeyEnv))
	if key == "" {
		return "", &ConfigurationError{
			Setting: APIKeyEnv,
			Message: "not set; export XAI_API_KEY or add it to .env",
		}
	}
	log.Debug().Msg("Using API key from environment variable")
	return key, nil
}
