package secrets

import (
	"fmt"
	"os"
	"strings"
)

// GetSecret retrieves a secret value, supporting both direct env vars and
// file-based secrets (the X_FILE Docker secrets pattern).
func GetSecret(envKey string, defaultValue string) (string, error) {
	filePathKey := envKey + "_FILE"
	if filePath := os.Getenv(filePathKey); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("read secret file %s: %w", filePath, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if value := os.Getenv(envKey); value != "" {
		return value, nil
	}

	return defaultValue, nil
}

// GetOptionalSecret retrieves a secret with a default value, never fails.
// Provider API keys are optional: an unset key makes that provider report
// itself as not configured instead of failing startup.
func GetOptionalSecret(envKey string, defaultValue string) string {
	value, err := GetSecret(envKey, defaultValue)
	if err != nil {
		return defaultValue
	}
	return value
}
