// Package config loads freelog configuration from defaults, an optional
// config file, a .env file and the environment.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from a .env file in the current or
// parent directory, if one exists. Variables already set in the environment
// win. It returns the file that was loaded, or "".
func LoadEnv() (string, error) {
	envFile := ".env"
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		envFile = filepath.Join("..", ".env")
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			return "", nil
		}
	}

	if err := godotenv.Load(envFile); err != nil {
		return "", err
	}
	return envFile, nil
}
