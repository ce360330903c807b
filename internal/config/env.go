// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv sets the variables of the dotenv content that are not already
// present in the process environment.
func LoadEnv(dotenv []byte) error {
	currentEnv := map[string]bool{}
	for _, rawEnvLine := range os.Environ() {
		key := strings.Split(rawEnvLine, "=")[0]
		currentEnv[key] = true
	}

	parse, err := godotenv.UnmarshalBytes(dotenv)
	if err != nil {
		return err
	}

	for k, v := range parse {
		if !currentEnv[k] {
			slog.Debug("env: setting env", "key", k)
			if err := os.Setenv(k, v); err != nil {
				return err
			}
		} else {
			slog.Debug("env: skipping env", "key", k)
		}
	}

	slog.Debug("env: loaded")
	return nil
}
