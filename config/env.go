package config

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
)

// LoadEnv reads .env into the process environment. A missing file is fine;
// variables already set win over the file.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("no .env file, using process environment")
			return
		}
		slog.Warn("load .env", "err", err)
	}
}
