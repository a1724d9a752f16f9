// Package keyring provides access to the system keychain for storing secrets.
package keyring

import (
	"fmt"
	"os"

	"github.com/zalando/go-keyring"
)

const serviceName = "lectio"

// APIKey represents a named secret stored in the keychain.
type APIKey string

const (
	// OpenAI is the keychain entry for the OpenAI API key used for dictation.
	OpenAI APIKey = "openai-api-key"
	// APIToken is the keychain entry for the lectio backend bearer token.
	APIToken APIKey = "api-token"
)

// AllAPIKeys returns all known API key types for iteration.
func AllAPIKeys() []APIKey {
	return []APIKey{OpenAI, APIToken}
}

// DisplayName returns a human-readable name for the API key.
func (k APIKey) DisplayName() string {
	switch k {
	case OpenAI:
		return "openai"
	case APIToken:
		return "lectio"
	default:
		return string(k)
	}
}

// EnvVar names the environment variable that overrides the keychain entry.
func (k APIKey) EnvVar() string {
	switch k {
	case OpenAI:
		return "OPENAI_API_KEY"
	case APIToken:
		return "LECTIO_API_TOKEN"
	default:
		return ""
	}
}

// Get retrieves an API key value from the system keychain.
func Get(apiKey APIKey) (string, error) {
	value, err := keyring.Get(serviceName, string(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to get %s from keychain: %w", apiKey.DisplayName(), err)
	}

	return value, nil
}

// Set stores an API key value in the system keychain.
func Set(apiKey APIKey, value string) error {
	if err := keyring.Set(serviceName, string(apiKey), value); err != nil {
		return fmt.Errorf("failed to set %s in keychain: %w", apiKey.DisplayName(), err)
	}

	return nil
}

// IsSet checks if an API key exists in the keychain.
func IsSet(apiKey APIKey) bool {
	_, err := keyring.Get(serviceName, string(apiKey))

	return err == nil
}

// Resolve returns the key from its environment variable, falling back to the
// keychain. The second result names where the value came from.
func Resolve(apiKey APIKey) (string, string) {
	if env := apiKey.EnvVar(); env != "" {
		if value := os.Getenv(env); value != "" {
			return value, "env"
		}
	}

	if value, err := Get(apiKey); err == nil && value != "" {
		return value, "keychain"
	}

	return "", ""
}

// APIKeyFromServiceName maps a service name (e.g., "openai") to an APIKey.
func APIKeyFromServiceName(name string) (APIKey, error) {
	switch name {
	case "openai":
		return OpenAI, nil
	case "lectio":
		return APIToken, nil
	default:
		return "", fmt.Errorf("unknown service: %s", name)
	}
}
