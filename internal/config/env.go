package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

// envFiles are tried in order next to the configuration file; the first
// existing one is loaded. Existing process variables are never overridden.
var envFiles = []string{".env", ".env.local"}

func loadEnvFile(dir string) error {
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to load env file").
				WithContext("path", path).Build()
		}
		return nil
	}
	return nil
}
