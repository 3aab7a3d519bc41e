package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/subosito/gotenv"
)

// loadEnv returns the process environment, completed by the variables of
// the dotenv file at path. Variables already set in the process win, as
// with dotenv. Names keep their case. A missing file is not an error.
func loadEnv(path string) (map[string]string, error) {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	if path == "" {
		return env, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return env, nil
		}
		return nil, fmt.Errorf("env file: %w", err)
	}
	defer f.Close()

	vars, err := gotenv.StrictParse(f)
	if err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	for name, value := range vars {
		if _, set := env[name]; set {
			continue
		}
		env[name] = value
	}
	return env, nil
}
